// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/hbollon/go-edlib"

	"github.com/pdiddy/credverify/pkg/types"
)

// Normalize collapses whitespace runs to one space, trims, and upper-cases s.
// Both sides of every string comparison go through Normalize.
func Normalize(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}

// Ratio returns the edit-distance similarity of a and b in [0,100]:
// 100 * (1 - d/(len(a)+len(b))), where d is the insertion/deletion distance,
// rounded to the nearest integer. Inputs are compared as given; callers
// normalize first. Either side empty yields 0.
func Ratio(a, b string) int {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	if la == 0 || lb == 0 {
		return 0
	}
	if a == b {
		return 100
	}
	// With unit-cost insertions and deletions, d = la + lb - 2*LCS.
	lcs := edlib.LCS(a, b)
	return int(math.Round(200 * float64(lcs) / float64(la+lb)))
}

// fieldRatio compares a candidate value against a reference value. An
// absent candidate value never matches.
func fieldRatio(candidate, reference string) int {
	if types.IsAbsent(candidate) {
		return 0
	}
	return Ratio(Normalize(candidate), Normalize(reference))
}

// yearScore is 100 on an exact match and 0 otherwise.
func yearScore(candidate string, reference types.ReferenceRecord) int {
	if types.IsAbsent(candidate) {
		return 0
	}
	if strings.TrimSpace(candidate) == reference.YearString() {
		return 100
	}
	return 0
}
