// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"strconv"
	"time"
)

// AbsentMarker is the value a CandidateRecord field holds when extraction
// found nothing. It is never compared as a literal value.
const AbsentMarker = "-"

// NotFound is the display value for fields that are absent in a result.
const NotFound = "Not found"

// IsAbsent reports whether a field value carries no extracted content.
func IsAbsent(v string) bool {
	return v == "" || v == AbsentMarker
}

// CandidateRecord holds the fields extracted from one certificate's OCR text.
// It is built once per request and not modified afterwards.
type CandidateRecord struct {
	// CertificateNo is the normalized certificate number (e.g. "JH-UNI-2024-001").
	CertificateNo string `json:"certificate_no" yaml:"certificate_no"`

	// Name is the holder's name, alphabetic characters and spaces only.
	Name string `json:"name" yaml:"name"`

	// Institution is one of the configured institution names.
	Institution string `json:"institution" yaml:"institution"`

	// Course is the degree or programme printed next to the name.
	Course string `json:"course" yaml:"course"`

	// Year is a four-digit calendar year.
	Year string `json:"year" yaml:"year"`

	// RawText is the full OCR output, kept for diagnostics.
	RawText string `json:"raw_text" yaml:"raw_text"`
}

// ReferenceRecord is one row of the canonical certificate dataset.
type ReferenceRecord struct {
	CertificateNo string `json:"certificate_no" yaml:"certificate_no"`
	Name          string `json:"name" yaml:"name"`
	Institution   string `json:"institution" yaml:"institution"`
	Course        string `json:"course" yaml:"course"`
	Year          int    `json:"year" yaml:"year"`
}

// YearString formats Year the way it is printed on certificates.
func (r ReferenceRecord) YearString() string {
	if r.Year == 0 {
		return ""
	}
	return strconv.Itoa(r.Year)
}

// FieldConfidence holds per-field similarity scores in [0,100] and the
// weighted composite.
type FieldConfidence struct {
	Cert    int     `json:"cert" yaml:"cert"`
	Name    int     `json:"name" yaml:"name"`
	Inst    int     `json:"inst" yaml:"inst"`
	Year    int     `json:"year" yaml:"year"`
	Overall float64 `json:"overall" yaml:"overall"`
}

// Status is the final verification tag.
type Status string

const (
	StatusVerified Status = "VERIFIED"
	StatusInvalid  Status = "INVALID"
)

// OCRQualitySource says where VerificationResult.OCRQuality came from.
type OCRQualitySource string

const (
	// OCRQualityEngine means the value is the OCR engine's mean word confidence.
	OCRQualityEngine OCRQualitySource = "engine"

	// OCRQualityUnavailable means the caller supplied OCR text and no
	// confidence is known.
	OCRQualityUnavailable OCRQualitySource = "unavailable"
)

// ResolvedFields are the certificate fields reported to the caller. When a
// dataset row matched, they are the row's canonical values and Verified is
// true; otherwise they are the extracted values and Verified is false.
type ResolvedFields struct {
	CertificateNo string `json:"certificate_no"`
	Name          string `json:"name"`
	Institution   string `json:"institution"`
	Course        string `json:"course"`
	Year          string `json:"year"`
	Verified      bool   `json:"verified"`
}

// VerificationResult is the only externally visible artifact of a
// verification request.
type VerificationResult struct {
	ID     string `json:"id"`
	Status Status `json:"status"`

	Fields        ResolvedFields   `json:"fields"`
	Candidate     CandidateRecord  `json:"candidate"`
	MatchedRecord *ReferenceRecord `json:"matched_record"`
	Confidence    FieldConfidence  `json:"confidence"`

	// OCRQuality is the OCR engine's mean word confidence in [0,100], or nil
	// when OCR text was supplied by the caller.
	OCRQuality       *float64         `json:"ocr_quality"`
	OCRQualitySource OCRQualitySource `json:"ocr_quality_source"`

	Authenticity Authenticity `json:"authenticity"`

	ProcessedAt time.Time `json:"processed_at"`
}

// Matched reports whether record resolution found a dataset row.
func (r *VerificationResult) Matched() bool {
	return r.MatchedRecord != nil
}

// OCRResult is the text an OCR engine recognized in one image.
type OCRResult struct {
	Text string `json:"text"`

	// Confidence is the mean word confidence in [0,100], or nil when the
	// engine reported no words.
	Confidence *float64 `json:"confidence"`

	Words int `json:"words"`
}
