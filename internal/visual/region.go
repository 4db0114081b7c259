// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package visual

import (
	"image"
	"math"

	"golang.org/x/image/draw"

	"github.com/pdiddy/credverify/pkg/types"
)

// RegionRect converts a normalized rectangle to pixel coordinates within
// bounds. Each edge is round(ratio * dimension), so the same rectangle
// selects the same part of a scan at any resolution.
func RegionRect(bounds image.Rectangle, r types.Rect) image.Rectangle {
	w, h := float64(bounds.Dx()), float64(bounds.Dy())
	return image.Rect(
		bounds.Min.X+int(math.Round(r.XStart*w)),
		bounds.Min.Y+int(math.Round(r.YStart*h)),
		bounds.Min.X+int(math.Round(r.XEnd*w)),
		bounds.Min.Y+int(math.Round(r.YEnd*h)),
	).Intersect(bounds)
}

// Crop extracts the normalized rectangle r from img as a single-channel
// image whose bounds start at the origin. A rectangle that rounds to zero
// pixels is a *RegionError.
func Crop(img image.Image, r types.Rect) (*image.Gray, error) {
	px := RegionRect(img.Bounds(), r)
	if px.Empty() {
		return nil, &RegionError{Region: px, ImageSize: img.Bounds().Size()}
	}
	out := image.NewGray(image.Rect(0, 0, px.Dx(), px.Dy()))
	draw.Draw(out, out.Bounds(), img, px.Min, draw.Src)
	return out, nil
}

// Gray converts img to a single-channel image with origin bounds. An
// *image.Gray already at the origin is returned as is.
func Gray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Bounds().Min == (image.Point{}) {
		return g
	}
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

// resize scales src to exactly w x h with bilinear interpolation.
func resize(src *image.Gray, w, h int) *image.Gray {
	if src.Bounds().Dx() == w && src.Bounds().Dy() == h {
		return src
	}
	dst := image.NewGray(image.Rect(0, 0, w, h))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}
