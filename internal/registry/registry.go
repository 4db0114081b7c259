// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package registry holds the per-institution layout configuration used for
// visual authenticity checks: region rectangles, reference image locations,
// and acceptance thresholds. A Registry is built once at startup and is
// read-only afterwards, so it is safe to share across goroutines.
package registry

import (
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/credverify/pkg/types"
)

// fileFormat is the on-disk YAML layout of a registry file.
type fileFormat struct {
	Institutions []fileEntry `yaml:"institutions"`
}

type fileEntry struct {
	Code      string     `yaml:"code"`
	Name      string     `yaml:"name"`
	Aliases   []string   `yaml:"aliases"`
	Seal      fileRegion `yaml:"seal"`
	Signature fileRegion `yaml:"signature"`
}

type fileRegion struct {
	ROI            []float64 `yaml:"roi"`
	ReferenceImage string    `yaml:"reference_image"`
	Threshold      *float64  `yaml:"threshold"`
}

// Default thresholds used when a region omits one.
const (
	DefaultSealThreshold      = 0.3
	DefaultSignatureThreshold = 0.05
)

// ValidationError lists every problem found while validating a registry.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid institution registry: %s", strings.Join(e.Problems, "; "))
}

// Registry is an immutable lookup table keyed by institution code.
type Registry struct {
	entries []types.InstitutionConfig
	byCode  map[string]int
	byName  map[string]string
}

// Load reads and validates the registry file at path.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading registry %s: %w", path, err)
	}
	reg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("loading registry %s: %w", path, err)
	}
	return reg, nil
}

// Parse decodes and validates registry YAML.
func Parse(data []byte) (*Registry, error) {
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing registry YAML: %w", err)
	}

	var problems []string
	entries := make([]types.InstitutionConfig, 0, len(f.Institutions))
	for i, fe := range f.Institutions {
		cfg, errs := fe.toConfig()
		for _, e := range errs {
			problems = append(problems, fmt.Sprintf("institution %d (%s): %s", i, fe.Code, e))
		}
		entries = append(entries, cfg)
	}
	if len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}
	return New(entries)
}

func (fe fileEntry) toConfig() (types.InstitutionConfig, []string) {
	var errs []string
	seal, err := fe.Seal.toSpec(DefaultSealThreshold)
	if err != nil {
		errs = append(errs, "seal: "+err.Error())
	}
	sig, err := fe.Signature.toSpec(DefaultSignatureThreshold)
	if err != nil {
		errs = append(errs, "signature: "+err.Error())
	}
	return types.InstitutionConfig{
		Code:      strings.TrimSpace(fe.Code),
		Name:      strings.TrimSpace(fe.Name),
		Aliases:   fe.Aliases,
		Seal:      seal,
		Signature: sig,
	}, errs
}

func (fr fileRegion) toSpec(defaultThreshold float64) (types.RegionSpec, error) {
	if len(fr.ROI) != 4 {
		return types.RegionSpec{}, fmt.Errorf("roi must have 4 values, got %d", len(fr.ROI))
	}
	threshold := defaultThreshold
	if fr.Threshold != nil {
		threshold = *fr.Threshold
	}
	return types.RegionSpec{
		ROI: types.Rect{
			XStart: fr.ROI[0],
			YStart: fr.ROI[1],
			XEnd:   fr.ROI[2],
			YEnd:   fr.ROI[3],
		},
		ReferenceImage: strings.TrimSpace(fr.ReferenceImage),
		Threshold:      threshold,
	}, nil
}

// New builds a Registry from entries in the given order. It validates every
// entry and returns a *ValidationError listing all problems.
func New(entries []types.InstitutionConfig) (*Registry, error) {
	r := &Registry{
		entries: make([]types.InstitutionConfig, 0, len(entries)),
		byCode:  make(map[string]int, len(entries)),
		byName:  make(map[string]string, len(entries)*2),
	}

	var problems []string
	for _, e := range entries {
		for _, p := range validateEntry(e) {
			problems = append(problems, fmt.Sprintf("%s: %s", e.Code, p))
		}
		if e.Code == "" {
			continue
		}
		if _, dup := r.byCode[e.Code]; dup {
			problems = append(problems, fmt.Sprintf("%s: duplicate code", e.Code))
			continue
		}
		r.byCode[e.Code] = len(r.entries)
		r.entries = append(r.entries, e)

		for _, key := range append([]string{e.Name, e.Code}, e.Aliases...) {
			k := nameKey(key)
			if k == "" {
				continue
			}
			if other, taken := r.byName[k]; taken && other != e.Code {
				problems = append(problems, fmt.Sprintf("%s: name %q already maps to %s", e.Code, key, other))
				continue
			}
			r.byName[k] = e.Code
		}
	}

	if len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}
	return r, nil
}

func validateEntry(e types.InstitutionConfig) []string {
	var problems []string
	if e.Code == "" {
		problems = append(problems, "code is required")
	}
	if e.Name == "" {
		problems = append(problems, "name is required")
	}
	for _, kind := range []types.RegionKind{types.RegionSeal, types.RegionSignature} {
		region := e.Region(kind)
		if err := region.ROI.Validate(); err != nil {
			problems = append(problems, fmt.Sprintf("%s roi: %v", kind, err))
		}
		if region.ReferenceImage == "" {
			problems = append(problems, fmt.Sprintf("%s reference_image is required", kind))
		}
	}
	if !(0 <= e.Seal.Threshold && e.Seal.Threshold <= 1) {
		problems = append(problems, fmt.Sprintf("seal threshold %g outside [0, 1]", e.Seal.Threshold))
	}
	if !(-1 <= e.Signature.Threshold && e.Signature.Threshold <= 1) {
		problems = append(problems, fmt.Sprintf("signature threshold %g outside [-1, 1]", e.Signature.Threshold))
	}
	return problems
}

// nameKey lower-cases s and collapses internal whitespace.
func nameKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// Lookup returns the configuration for code.
func (r *Registry) Lookup(code string) (types.InstitutionConfig, bool) {
	i, ok := r.byCode[code]
	if !ok {
		return types.InstitutionConfig{}, false
	}
	return r.entries[i], true
}

// CodeForName maps an institution name, code, or alias to its code.
// Matching ignores case and whitespace runs.
func (r *Registry) CodeForName(name string) (string, bool) {
	code, ok := r.byName[nameKey(name)]
	return code, ok
}

// Names returns canonical institution names in registry order. The order is
// significant: extraction takes the first name found in the text.
func (r *Registry) Names() []string {
	names := make([]string, len(r.entries))
	for i, e := range r.entries {
		names[i] = e.Name
	}
	return names
}

// Institutions returns a copy of all entries in registry order.
func (r *Registry) Institutions() []types.InstitutionConfig {
	out := make([]types.InstitutionConfig, len(r.entries))
	copy(out, r.entries)
	return out
}

// WithAssets returns a new Registry whose reference image locations are
// replaced by the non-empty paths in assets. Codes in assets that are not
// in the registry are ignored. The receiver is not modified.
func (r *Registry) WithAssets(assets []types.InstitutionAssets) *Registry {
	out := &Registry{
		entries: r.Institutions(),
		byCode:  r.byCode,
		byName:  r.byName,
	}
	for _, a := range assets {
		i, ok := out.byCode[a.Code]
		if !ok {
			continue
		}
		if a.SealPath != "" {
			out.entries[i].Seal.ReferenceImage = a.SealPath
		}
		if a.SignaturePath != "" {
			out.entries[i].Signature.ReferenceImage = a.SignaturePath
		}
	}
	return out
}
