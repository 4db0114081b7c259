// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ocr turns certificate scans into text with Tesseract and reports
// the engine's own word confidence alongside the text.
package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/pdiddy/credverify/pkg/types"
)

// Tesseract recognizes text with a fresh gosseract client per call, so one
// value may serve concurrent requests.
type Tesseract struct {
	cfg           types.OCRConfig
	clientFactory func() *gosseract.Client
}

// NewTesseract returns a Tesseract engine. Empty Languages default to eng.
func NewTesseract(cfg types.OCRConfig) *Tesseract {
	if len(cfg.Languages) == 0 {
		cfg.Languages = []string{"eng"}
	}
	return &Tesseract{cfg: cfg, clientFactory: gosseract.NewClient}
}

// Recognize runs OCR over an encoded image.
func (t *Tesseract) Recognize(ctx context.Context, data []byte) (types.OCRResult, error) {
	if err := ctx.Err(); err != nil {
		return types.OCRResult{}, err
	}
	c := t.clientFactory()
	defer c.Close()

	if err := c.SetLanguage(t.cfg.Languages...); err != nil {
		return types.OCRResult{}, fmt.Errorf("setting languages: %w", err)
	}
	if t.cfg.PSM > 0 {
		if err := c.SetPageSegMode(gosseract.PageSegMode(t.cfg.PSM)); err != nil {
			return types.OCRResult{}, fmt.Errorf("setting page segmentation mode: %w", err)
		}
	}
	if err := c.SetImageFromBytes(data); err != nil {
		return types.OCRResult{}, fmt.Errorf("setting image: %w", err)
	}
	text, err := c.Text()
	if err != nil {
		return types.OCRResult{}, fmt.Errorf("recognizing text: %w", err)
	}

	res := types.OCRResult{Text: strings.TrimSpace(text)}
	if boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD); err == nil {
		res.Confidence, res.Words = meanConfidence(boxes)
	}
	return res, nil
}

// meanConfidence averages word confidences, skipping empty words.
func meanConfidence(boxes []gosseract.BoundingBox) (*float64, int) {
	var sum float64
	n := 0
	for _, b := range boxes {
		if strings.TrimSpace(b.Word) == "" {
			continue
		}
		sum += b.Confidence
		n++
	}
	if n == 0 {
		return nil, 0
	}
	mean := sum / float64(n)
	return &mean, n
}
