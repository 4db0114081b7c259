// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package opencv implements the visual engines on OpenCV through gocv: ORB
// keypoint descriptors for seals and normalized template matching for
// signatures. Every Mat is closed before the call returns.
package opencv

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/pdiddy/credverify/internal/visual"
)

// ORB parameters other than the feature count follow OpenCV's defaults.
const (
	orbScaleFactor   = 1.2
	orbLevels        = 8
	orbEdgeThreshold = 31
	orbPatchSize     = 31
	orbFastThreshold = 20
)

// ORB computes ORB descriptors, keeping at most MaxFeatures keypoints.
type ORB struct {
	MaxFeatures int
}

// NewORB returns an ORB engine. A non-positive maxFeatures uses
// visual.DefaultMaxFeatures.
func NewORB(maxFeatures int) *ORB {
	if maxFeatures <= 0 {
		maxFeatures = visual.DefaultMaxFeatures
	}
	return &ORB{MaxFeatures: maxFeatures}
}

// Descriptors implements visual.DescriptorEngine.
func (o *ORB) Descriptors(img *image.Gray) (visual.Descriptors, error) {
	mat, err := gocv.ImageGrayToMatGray(img)
	if err != nil {
		return nil, fmt.Errorf("converting image: %w", err)
	}
	defer mat.Close()

	orb := gocv.NewORBWithParams(o.MaxFeatures, orbScaleFactor, orbLevels, orbEdgeThreshold,
		0, 2, gocv.ORBScoreTypeHarris, orbPatchSize, orbFastThreshold)
	defer orb.Close()

	mask := gocv.NewMat()
	defer mask.Close()
	_, desc := orb.DetectAndCompute(mat, mask)
	defer desc.Close()

	if desc.Empty() || desc.Rows() == 0 {
		return nil, nil
	}
	return rows(desc.ToBytes(), desc.Rows(), desc.Cols()), nil
}

// rows splits a row-major descriptor matrix into one slice per keypoint.
func rows(data []byte, n, width int) visual.Descriptors {
	out := make(visual.Descriptors, 0, n)
	for i := 0; i < n && (i+1)*width <= len(data); i++ {
		d := make([]byte, width)
		copy(d, data[i*width:(i+1)*width])
		out = append(out, d)
	}
	return out
}

// TemplateCorrelator scores signatures with cv::matchTemplate in
// TM_CCOEFF_NORMED mode after resizing the reference to the region's size.
type TemplateCorrelator struct{}

// Correlate implements visual.Correlator.
func (TemplateCorrelator) Correlate(region, reference *image.Gray) (float64, error) {
	rm, err := gocv.ImageGrayToMatGray(region)
	if err != nil {
		return 0, fmt.Errorf("converting region: %w", err)
	}
	defer rm.Close()
	ref, err := gocv.ImageGrayToMatGray(reference)
	if err != nil {
		return 0, fmt.Errorf("converting reference: %w", err)
	}
	defer ref.Close()

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(ref, &resized, image.Pt(rm.Cols(), rm.Rows()), 0, 0, gocv.InterpolationLinear)

	result := gocv.NewMat()
	defer result.Close()
	mask := gocv.NewMat()
	defer mask.Close()
	gocv.MatchTemplate(rm, resized, &result, gocv.TmCcoeffNormed, mask)

	_, maxVal, _, _ := gocv.MinMaxLoc(result)
	return float64(maxVal), nil
}
