// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// Rect is a rectangle in normalized image coordinates. All values are ratios
// of the image width (X) or height (Y).
type Rect struct {
	XStart float64 `json:"x_start" yaml:"x_start"`
	YStart float64 `json:"y_start" yaml:"y_start"`
	XEnd   float64 `json:"x_end" yaml:"x_end"`
	YEnd   float64 `json:"y_end" yaml:"y_end"`
}

// Validate checks 0 <= start < end <= 1 on both axes. NaN fails every
// comparison and is rejected.
func (r Rect) Validate() error {
	if !(0 <= r.XStart && r.XStart < r.XEnd && r.XEnd <= 1) {
		return fmt.Errorf("x range [%g, %g] outside 0 <= x_start < x_end <= 1", r.XStart, r.XEnd)
	}
	if !(0 <= r.YStart && r.YStart < r.YEnd && r.YEnd <= 1) {
		return fmt.Errorf("y range [%g, %g] outside 0 <= y_start < y_end <= 1", r.YStart, r.YEnd)
	}
	return nil
}

// RegionKind names one of the two verified certificate regions.
type RegionKind string

const (
	RegionSeal      RegionKind = "seal"
	RegionSignature RegionKind = "signature"
)

// RegionSpec locates one region on an institution's certificate layout and
// says how to judge it.
type RegionSpec struct {
	// ROI is the region in normalized coordinates.
	ROI Rect `json:"roi" yaml:"roi"`

	// ReferenceImage is a file path (relative to the assets directory) or an
	// http(s) URL of the genuine seal or signature.
	ReferenceImage string `json:"reference_image" yaml:"reference_image"`

	// Threshold is the minimum match score accepted as authentic.
	Threshold float64 `json:"threshold" yaml:"threshold"`
}

// InstitutionConfig is one entry of the institution registry.
type InstitutionConfig struct {
	Code string `json:"code" yaml:"code"`

	// Name is the canonical institution name as printed on certificates.
	Name string `json:"name" yaml:"name"`

	// Aliases are OCR variants and abbreviations that resolve to Code
	// (e.g. "rti").
	Aliases []string `json:"aliases,omitempty" yaml:"aliases,omitempty"`

	Seal      RegionSpec `json:"seal" yaml:"seal"`
	Signature RegionSpec `json:"signature" yaml:"signature"`
}

// Region returns the region settings for the given kind.
func (c InstitutionConfig) Region(kind RegionKind) RegionSpec {
	if kind == RegionSignature {
		return c.Signature
	}
	return c.Seal
}

// Thresholds records the acceptance thresholds applied to a verdict.
type Thresholds struct {
	Seal      float64 `json:"seal"`
	Signature float64 `json:"signature"`
}

// AuthenticityVerdict is the outcome of comparing a certificate's seal and
// signature regions against an institution's references.
type AuthenticityVerdict struct {
	InstitutionCode    string     `json:"institution_code"`
	SealScore          float64    `json:"seal_match_score"`
	SignatureScore     float64    `json:"signature_match_score"`
	SealAuthentic      bool       `json:"seal_authentic"`
	SignatureAuthentic bool       `json:"signature_authentic"`
	OverallAuthentic   bool       `json:"overall_authentic"`
	Thresholds         Thresholds `json:"thresholds"`
}

// AuthenticityState says whether a visual verdict could be produced.
type AuthenticityState string

const (
	AuthenticityChecked     AuthenticityState = "checked"
	AuthenticityUnavailable AuthenticityState = "unavailable"
)

// Authenticity wraps a verdict with its availability. When State is
// unavailable, Verdict is nil and Reason explains why.
type Authenticity struct {
	State   AuthenticityState    `json:"state"`
	Verdict *AuthenticityVerdict `json:"verdict,omitempty"`
	Reason  string               `json:"reason,omitempty"`
}

// InstitutionAssets holds reference image locations stored outside the
// registry file, keyed by institution code in the dataset database.
type InstitutionAssets struct {
	Code          string `json:"code" yaml:"code"`
	Name          string `json:"name" yaml:"name"`
	SealPath      string `json:"seal_image_path" yaml:"seal_image_path"`
	SignaturePath string `json:"signature_image_path" yaml:"signature_image_path"`
}
