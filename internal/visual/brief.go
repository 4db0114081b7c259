// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package visual

import (
	"image"
	"math/rand"
	"sort"
)

const (
	briefPatch = 15 // patch half-size
	briefBits  = 256
	briefCell  = 16 // keypoint grid cell
)

// briefPairs is the fixed sampling pattern shared by every NativeDescriptors
// so descriptors from different images are comparable.
var briefPairs = func() [briefBits][4]int {
	r := rand.New(rand.NewSource(31))
	var p [briefBits][4]int
	for i := range p {
		for k := range p[i] {
			p[i][k] = r.Intn(2*briefPatch+1) - briefPatch
		}
	}
	return p
}()

// NativeDescriptors computes BRIEF-style binary descriptors without OpenCV.
// Keypoints are the strongest gradient responses on a coarse grid, capped at
// MaxFeatures. The descriptors are not rotation invariant, so it suits tests
// and deployments without OpenCV more than production seal checks.
type NativeDescriptors struct {
	MaxFeatures int
}

type keypoint struct {
	x, y     int
	response int
}

// Descriptors implements DescriptorEngine.
func (n NativeDescriptors) Descriptors(img *image.Gray) (Descriptors, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 2*briefPatch+2 || h <= 2*briefPatch+2 {
		return nil, nil
	}
	sm := smooth(img)

	var kps []keypoint
	for cy := briefPatch + 1; cy < h-briefPatch-1; cy += briefCell {
		for cx := briefPatch + 1; cx < w-briefPatch-1; cx += briefCell {
			best := keypoint{response: 0}
			for y := cy; y < min(cy+briefCell, h-briefPatch-1); y++ {
				for x := cx; x < min(cx+briefCell, w-briefPatch-1); x++ {
					gx := sm[y*w+x+1] - sm[y*w+x-1]
					gy := sm[(y+1)*w+x] - sm[(y-1)*w+x]
					if r := gx*gx + gy*gy; r > best.response {
						best = keypoint{x: x, y: y, response: r}
					}
				}
			}
			if best.response > 0 {
				kps = append(kps, best)
			}
		}
	}

	sort.SliceStable(kps, func(i, j int) bool { return kps[i].response > kps[j].response })
	if n.MaxFeatures > 0 && len(kps) > n.MaxFeatures {
		kps = kps[:n.MaxFeatures]
	}

	out := make(Descriptors, 0, len(kps))
	for _, kp := range kps {
		d := make([]byte, briefBits/8)
		for i, p := range briefPairs {
			a := sm[(kp.y+p[1])*w+kp.x+p[0]]
			c := sm[(kp.y+p[3])*w+kp.x+p[2]]
			if a < c {
				d[i/8] |= 1 << uint(i%8)
			}
		}
		out = append(out, d)
	}
	return out, nil
}

// smooth applies a 5x5 box filter and returns the result row-major. Edge
// pixels average over the part of the window inside the image.
func smooth(img *image.Gray) []int {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	// Integral image with a zero row and column.
	sum := make([]int, (w+1)*(h+1))
	for y := 0; y < h; y++ {
		row := 0
		for x := 0; x < w; x++ {
			row += int(img.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
			sum[(y+1)*(w+1)+x+1] = sum[y*(w+1)+x+1] + row
		}
	}
	out := make([]int, w*h)
	for y := 0; y < h; y++ {
		y0, y1 := max(0, y-2), min(h, y+3)
		for x := 0; x < w; x++ {
			x0, x1 := max(0, x-2), min(w, x+3)
			s := sum[y1*(w+1)+x1] - sum[y0*(w+1)+x1] - sum[y1*(w+1)+x0] + sum[y0*(w+1)+x0]
			out[y*w+x] = s / ((y1 - y0) * (x1 - x0))
		}
	}
	return out
}
