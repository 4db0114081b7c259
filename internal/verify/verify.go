// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package verify runs a certificate through field extraction, record
// resolution, and the visual authenticity check, and merges the outcomes
// into one VerificationResult. The status depends on record resolution
// alone; authenticity is reported beside it as separate evidence.
package verify

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/credverify/internal/extract"
	"github.com/pdiddy/credverify/internal/registry"
	"github.com/pdiddy/credverify/internal/resolve"
	"github.com/pdiddy/credverify/internal/visual"
	"github.com/pdiddy/credverify/pkg/types"
)

// Authenticator performs the visual check for one institution.
type Authenticator interface {
	Authenticate(ctx context.Context, img image.Image, code string) (types.AuthenticityVerdict, error)
}

// Recognizer turns an encoded certificate image into text.
type Recognizer interface {
	Recognize(ctx context.Context, data []byte) (types.OCRResult, error)
}

// ErrNoOCR is returned by VerifyFile when no Recognizer is configured.
var ErrNoOCR = errors.New("no OCR engine configured")

// Options configures a Verifier. Registry is required.
type Options struct {
	Registry *registry.Registry

	// Records is the reference dataset, scanned in order.
	Records []types.ReferenceRecord

	// Threshold is the per-field resolution gate; 0 uses resolve.DefaultThreshold.
	Threshold int

	// Authenticator defaults to a native visual.Authenticator over Registry.
	Authenticator Authenticator

	// OCR is needed only by VerifyFile.
	OCR Recognizer

	// Extractor defaults to extract.New over the registry's names.
	Extractor *extract.Extractor

	Now   func() time.Time
	NewID func() string
}

// Verifier holds the read-only state shared by all requests.
type Verifier struct {
	registry  *registry.Registry
	records   []types.ReferenceRecord
	threshold int
	auth      Authenticator
	ocr       Recognizer
	extractor *extract.Extractor
	now       func() time.Time
	newID     func() string
}

// New builds a Verifier from opts.
func New(opts Options) (*Verifier, error) {
	if opts.Registry == nil {
		return nil, fmt.Errorf("verifier needs an institution registry")
	}
	v := &Verifier{
		registry:  opts.Registry,
		records:   opts.Records,
		threshold: opts.Threshold,
		auth:      opts.Authenticator,
		ocr:       opts.OCR,
		extractor: opts.Extractor,
		now:       opts.Now,
		newID:     opts.NewID,
	}
	if v.threshold <= 0 {
		v.threshold = resolve.DefaultThreshold
	}
	if v.auth == nil {
		v.auth = visual.New(opts.Registry, visual.Options{})
	}
	if v.extractor == nil {
		v.extractor = extract.New(opts.Registry.Names())
	}
	if v.now == nil {
		v.now = time.Now
	}
	if v.newID == nil {
		v.newID = uuid.NewString
	}
	return v, nil
}

// Verify checks a certificate from its OCR text and decoded image. A nil
// image is a visual.InputError and no result is produced. Every other
// failure of the visual check, including an image too small to hold the
// registered regions, leaves the result with unavailable authenticity.
func (v *Verifier) Verify(ctx context.Context, text string, img image.Image) (*types.VerificationResult, error) {
	if img == nil {
		return nil, &visual.InputError{Reason: "no certificate image"}
	}

	candidate := v.extractor.Extract(text)
	match := resolve.Resolve(candidate, v.records, v.threshold)

	// The matched row's institution is cleaner than the OCR'd one.
	instName := candidate.Institution
	if match.Matched {
		instName = match.Best.Institution
	}
	auth, err := v.authenticity(ctx, img, instName)
	if err != nil {
		return nil, err
	}

	res := &types.VerificationResult{
		ID:               v.newID(),
		Status:           types.StatusInvalid,
		Fields:           mergeFields(candidate, match),
		Candidate:        candidate,
		MatchedRecord:    match.Best,
		Confidence:       match.Scores,
		OCRQualitySource: types.OCRQualityUnavailable,
		Authenticity:     auth,
		ProcessedAt:      v.now().UTC(),
	}
	if match.Matched {
		res.Status = types.StatusVerified
	}
	return res, nil
}

// VerifyImage decodes an uploaded image named name and verifies it against
// the supplied OCR text. Unsupported extensions and undecodable data are
// visual.InputErrors.
func (v *Verifier) VerifyImage(ctx context.Context, text string, data []byte, name string) (*types.VerificationResult, error) {
	if err := visual.CheckExtension(name); err != nil {
		return nil, err
	}
	img, err := visual.DecodeBytes(data)
	if err != nil {
		return nil, err
	}
	return v.Verify(ctx, text, img)
}

// VerifyFile reads, decodes, and OCRs the image at path, then verifies it.
// The result carries the engine's word confidence as its OCR quality.
func (v *Verifier) VerifyFile(ctx context.Context, path string) (*types.VerificationResult, error) {
	if err := visual.CheckExtension(path); err != nil {
		return nil, err
	}
	if v.ocr == nil {
		return nil, ErrNoOCR
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	img, err := visual.DecodeBytes(data)
	if err != nil {
		return nil, err
	}
	ocrRes, err := v.ocr.Recognize(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("running OCR on %s: %w", filepath.Base(path), err)
	}

	res, err := v.Verify(ctx, ocrRes.Text, img)
	if err != nil {
		return nil, err
	}
	if ocrRes.Confidence != nil {
		res.OCRQuality = ocrRes.Confidence
		res.OCRQualitySource = types.OCRQualityEngine
	}
	return res, nil
}

// authenticity runs the visual check for the institution named instName.
// Only an InputError is returned as an error.
func (v *Verifier) authenticity(ctx context.Context, img image.Image, instName string) (types.Authenticity, error) {
	if types.IsAbsent(instName) {
		return types.Authenticity{State: types.AuthenticityUnavailable, Reason: "no institution recognized"}, nil
	}
	code, ok := v.registry.CodeForName(instName)
	if !ok {
		return types.Authenticity{
			State:  types.AuthenticityUnavailable,
			Reason: fmt.Sprintf("institution %q is not registered", instName),
		}, nil
	}

	verdict, err := v.auth.Authenticate(ctx, img, code)
	if err != nil {
		var inErr *visual.InputError
		if errors.As(err, &inErr) {
			return types.Authenticity{}, err
		}
		return types.Authenticity{State: types.AuthenticityUnavailable, Reason: err.Error()}, nil
	}
	return types.Authenticity{State: types.AuthenticityChecked, Verdict: &verdict}, nil
}

// mergeFields prefers the matched row's canonical values. Without a match
// the extracted values are reported unverified and absent ones as
// types.NotFound.
func mergeFields(c types.CandidateRecord, m resolve.Result) types.ResolvedFields {
	if m.Matched {
		return types.ResolvedFields{
			CertificateNo: m.Best.CertificateNo,
			Name:          m.Best.Name,
			Institution:   m.Best.Institution,
			Course:        orNotFound(m.Best.Course),
			Year:          m.Best.YearString(),
			Verified:      true,
		}
	}
	return types.ResolvedFields{
		CertificateNo: orNotFound(c.CertificateNo),
		Name:          orNotFound(c.Name),
		Institution:   orNotFound(c.Institution),
		Course:        orNotFound(c.Course),
		Year:          orNotFound(c.Year),
	}
}

func orNotFound(s string) string {
	if types.IsAbsent(s) {
		return types.NotFound
	}
	return s
}
