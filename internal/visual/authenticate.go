// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package visual checks a certificate's seal and signature regions against
// an institution's reference images. Seals are compared by mutual
// nearest-neighbor matching of binary keypoint descriptors; signatures by
// normalized cross-correlation at the extracted region's scale.
package visual

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/sunshineplan/imgconv"

	"github.com/pdiddy/credverify/internal/registry"
	"github.com/pdiddy/credverify/pkg/types"
)

// DescriptorEngine detects keypoints in a single-channel image and returns
// their binary descriptors.
type DescriptorEngine interface {
	Descriptors(img *image.Gray) (Descriptors, error)
}

// Correlator scores an extracted signature region against a reference
// signature. Implementations resize the reference to the region's size.
type Correlator interface {
	Correlate(region, reference *image.Gray) (float64, error)
}

// NativeCorrelator is the pure Go Correlator.
type NativeCorrelator struct{}

// Correlate implements Correlator.
func (NativeCorrelator) Correlate(region, reference *image.Gray) (float64, error) {
	return Correlate(region, reference), nil
}

// Options configures an Authenticator. Zero fields take defaults: native
// descriptors with 500 features, the native correlator, and file assets
// relative to the working directory.
type Options struct {
	Descriptors DescriptorEngine
	Correlator  Correlator
	Assets      AssetLoader

	// MinMatches is the fewest mutual seal matches that can score above 0.
	MinMatches int

	// DebugDir, when set, receives PNGs of each extracted region and its
	// reference.
	DebugDir string
}

// DefaultMaxFeatures bounds keypoints per image.
const DefaultMaxFeatures = 500

// Authenticator runs visual checks against a fixed registry. It holds no
// per-request state and is safe for concurrent use when its engines are.
type Authenticator struct {
	registry *registry.Registry
	opts     Options
}

// New returns an Authenticator over reg.
func New(reg *registry.Registry, opts Options) *Authenticator {
	if opts.Descriptors == nil {
		opts.Descriptors = NativeDescriptors{MaxFeatures: DefaultMaxFeatures}
	}
	if opts.Correlator == nil {
		opts.Correlator = NativeCorrelator{}
	}
	if opts.Assets == nil {
		opts.Assets = &Assets{}
	}
	return &Authenticator{registry: reg, opts: opts}
}

// Authenticate compares the seal and signature regions of img against the
// references registered for code. An unknown code or unreadable reference is
// a ConfigurationError; a missing or empty certificate image is an
// InputError. A region that does not fit the image is a RegionError.
func (a *Authenticator) Authenticate(ctx context.Context, img image.Image, code string) (types.AuthenticityVerdict, error) {
	inst, ok := a.registry.Lookup(code)
	if !ok {
		return types.AuthenticityVerdict{}, &ConfigurationError{Code: code, Reason: "not in registry"}
	}
	if img == nil || img.Bounds().Empty() {
		return types.AuthenticityVerdict{}, &InputError{Reason: "empty image"}
	}

	sealRef, err := a.reference(ctx, inst, types.RegionSeal)
	if err != nil {
		return types.AuthenticityVerdict{}, err
	}
	sigRef, err := a.reference(ctx, inst, types.RegionSignature)
	if err != nil {
		return types.AuthenticityVerdict{}, err
	}

	seal, err := Crop(img, inst.Seal.ROI)
	if err != nil {
		return types.AuthenticityVerdict{}, err
	}
	sig, err := Crop(img, inst.Signature.ROI)
	if err != nil {
		return types.AuthenticityVerdict{}, err
	}
	a.dump(inst.Code, map[string]image.Image{
		"seal-region": seal, "seal-reference": sealRef,
		"signature-region": sig, "signature-reference": sigRef,
	})

	sealScore, err := a.sealScore(seal, sealRef)
	if err != nil {
		return types.AuthenticityVerdict{}, err
	}
	sigScore, err := a.opts.Correlator.Correlate(sig, sigRef)
	if err != nil {
		return types.AuthenticityVerdict{}, fmt.Errorf("correlating signature: %w", err)
	}

	v := types.AuthenticityVerdict{
		InstitutionCode: inst.Code,
		SealScore:       sealScore,
		SignatureScore:  sigScore,
		Thresholds: types.Thresholds{
			Seal:      inst.Seal.Threshold,
			Signature: inst.Signature.Threshold,
		},
	}
	v.SealAuthentic = v.SealScore >= v.Thresholds.Seal
	v.SignatureAuthentic = v.SignatureScore >= v.Thresholds.Signature
	v.OverallAuthentic = v.SealAuthentic && v.SignatureAuthentic
	return v, nil
}

func (a *Authenticator) reference(ctx context.Context, inst types.InstitutionConfig, kind types.RegionKind) (*image.Gray, error) {
	loc := inst.Region(kind).ReferenceImage
	img, err := a.opts.Assets.Load(ctx, loc)
	if err != nil {
		return nil, &ConfigurationError{
			Code:   inst.Code,
			Reason: fmt.Sprintf("loading %s reference %s", kind, loc),
			Err:    err,
		}
	}
	return Gray(img), nil
}

func (a *Authenticator) sealScore(region, reference *image.Gray) (float64, error) {
	rd, err := a.opts.Descriptors.Descriptors(region)
	if err != nil {
		return 0, fmt.Errorf("computing seal region descriptors: %w", err)
	}
	ref, err := a.opts.Descriptors.Descriptors(reference)
	if err != nil {
		return 0, fmt.Errorf("computing seal reference descriptors: %w", err)
	}
	return sealScore(rd, ref, a.opts.MinMatches), nil
}

// dump writes debug images. Failures go to stderr and never affect the
// verdict.
func (a *Authenticator) dump(code string, images map[string]image.Image) {
	if a.opts.DebugDir == "" {
		return
	}
	if err := os.MkdirAll(a.opts.DebugDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "warning: creating debug dir: %v\n", err)
		return
	}
	for name, img := range images {
		path := filepath.Join(a.opts.DebugDir, code+"-"+name+".png")
		if err := imgconv.Save(path, img, &imgconv.FormatOption{Format: imgconv.PNG}); err != nil {
			fmt.Fprintf(os.Stderr, "warning: writing %s: %v\n", path, err)
		}
	}
}
