// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package visual

import (
	"math"
	"math/bits"
)

// Descriptors holds one binary descriptor per keypoint. All descriptors
// produced by one engine have the same length.
type Descriptors [][]byte

// minDescriptors is the fewest descriptors either image may yield before
// the seal score is defined as 0.
const minDescriptors = 2

// hamming counts differing bits. Bytes past the shorter descriptor count
// as fully different.
func hamming(a, b []byte) int {
	n := min(len(a), len(b))
	d := 0
	for i := 0; i < n; i++ {
		d += bits.OnesCount8(a[i] ^ b[i])
	}
	return d + 8*(max(len(a), len(b))-n)
}

// nearest returns, for every descriptor in from, the index of its closest
// descriptor in to. Ties go to the lower index.
func nearest(from, to Descriptors) []int {
	idx := make([]int, len(from))
	for i, d := range from {
		best, bestDist := -1, math.MaxInt
		for j, e := range to {
			if dist := hamming(d, e); dist < bestDist {
				best, bestDist = j, dist
			}
		}
		idx[i] = best
	}
	return idx
}

// MutualMatches counts descriptor pairs that are each other's nearest
// neighbor under Hamming distance.
func MutualMatches(a, b Descriptors) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	ab := nearest(a, b)
	ba := nearest(b, a)
	n := 0
	for i, j := range ab {
		if j >= 0 && ba[j] == i {
			n++
		}
	}
	return n
}

// SealScore is the mutual match count divided by the smaller descriptor
// count, capped at 1. Either side with fewer than two descriptors scores 0.
func SealScore(a, b Descriptors) float64 {
	return sealScore(a, b, 0)
}

// sealScore applies SealScore with an additional floor: fewer than
// minMatches mutual matches scores 0.
func sealScore(a, b Descriptors, minMatches int) float64 {
	if len(a) < minDescriptors || len(b) < minDescriptors {
		return 0
	}
	m := MutualMatches(a, b)
	if m == 0 || m < minMatches {
		return 0
	}
	return math.Min(1, float64(m)/float64(min(len(a), len(b))))
}
