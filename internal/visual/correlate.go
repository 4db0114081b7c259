// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package visual

import (
	"image"
	"math"
)

// Correlate resizes reference to the dimensions of region and returns the
// maximum normalized cross-correlation between them. The result lies in
// [-1, 1]. A region or reference with no intensity variation scores 0.
func Correlate(region, reference *image.Gray) float64 {
	b := region.Bounds()
	if b.Empty() || reference.Bounds().Empty() {
		return 0
	}
	return MaxNCC(region, resize(reference, b.Dx(), b.Dy()))
}

// MaxNCC slides tmpl over img and returns the highest mean-subtracted
// normalized cross-correlation over all placements where tmpl fits inside
// img. It returns 0 when tmpl is larger than img.
func MaxNCC(img, tmpl *image.Gray) float64 {
	ib, tb := img.Bounds(), tmpl.Bounds()
	tw, th := tb.Dx(), tb.Dy()
	if tw == 0 || th == 0 || tw > ib.Dx() || th > ib.Dy() {
		return 0
	}

	n := float64(tw * th)
	t := make([]float64, 0, tw*th)
	var tsum float64
	for y := tb.Min.Y; y < tb.Max.Y; y++ {
		for x := tb.Min.X; x < tb.Max.X; x++ {
			v := float64(tmpl.GrayAt(x, y).Y)
			t = append(t, v)
			tsum += v
		}
	}
	tmean := tsum / n
	var tvar float64
	for i := range t {
		t[i] -= tmean
		tvar += t[i] * t[i]
	}
	if tvar == 0 {
		return 0
	}

	best := math.Inf(-1)
	for oy := ib.Min.Y; oy+th <= ib.Max.Y; oy++ {
		for ox := ib.Min.X; ox+tw <= ib.Max.X; ox++ {
			var wsum, wsq, cross float64
			k := 0
			for y := 0; y < th; y++ {
				for x := 0; x < tw; x++ {
					v := float64(img.GrayAt(ox+x, oy+y).Y)
					wsum += v
					wsq += v * v
					cross += v * t[k]
					k++
				}
			}
			wvar := wsq - wsum*wsum/n
			score := 0.0
			if wvar > 0 {
				score = cross / math.Sqrt(wvar*tvar)
			}
			best = math.Max(best, score)
		}
	}
	return math.Max(-1, math.Min(1, best))
}
