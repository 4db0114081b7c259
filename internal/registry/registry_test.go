// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/credverify/pkg/types"
)

const sampleYAML = `
institutions:
  - code: JHAR
    name: Jharkhand State University
    aliases: [jsu]
    seal:
      roi: [0.419, 0.172, 0.587, 0.318]
      reference_image: seals/jhar_seal.png
      threshold: 0.3
    signature:
      roi: [0.585, 0.683, 0.725, 0.737]
      reference_image: signatures/jhar_signature.png
  - code: RANC
    name: Ranchi Tech Institute
    aliases: [rti]
    seal:
      roi: [0.426, 0.209, 0.580, 0.340]
      reference_image: seals/ranc_seal.png
      threshold: 0.25
    signature:
      roi: [0.564, 0.709, 0.702, 0.741]
      reference_image: signatures/ranc_signature.png
      threshold: 0.1
`

func codes(reg *Registry) []string {
	var out []string
	for _, inst := range reg.Institutions() {
		out = append(out, inst.Code)
	}
	return out
}

func TestParse(t *testing.T) {
	reg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, []string{"JHAR", "RANC"}, codes(reg))
	assert.Equal(t, []string{"Jharkhand State University", "Ranchi Tech Institute"}, reg.Names())

	jhar, ok := reg.Lookup("JHAR")
	require.True(t, ok)
	assert.Equal(t, types.Rect{XStart: 0.419, YStart: 0.172, XEnd: 0.587, YEnd: 0.318}, jhar.Seal.ROI)
	assert.Equal(t, "seals/jhar_seal.png", jhar.Seal.ReferenceImage)
	assert.InDelta(t, 0.3, jhar.Seal.Threshold, 1e-9)
	assert.InDelta(t, DefaultSignatureThreshold, jhar.Signature.Threshold, 1e-9, "omitted threshold takes the default")

	ranc, ok := reg.Lookup("RANC")
	require.True(t, ok)
	assert.InDelta(t, 0.25, ranc.Seal.Threshold, 1e-9)
	assert.InDelta(t, 0.1, ranc.Signature.Threshold, 1e-9)

	_, ok = reg.Lookup("NOPE")
	assert.False(t, ok)
}

func TestCodeForName(t *testing.T) {
	reg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	tests := []struct {
		name     string
		input    string
		wantCode string
		wantOK   bool
	}{
		{name: "canonical name", input: "Ranchi Tech Institute", wantCode: "RANC", wantOK: true},
		{name: "case and whitespace", input: "  ranchi   TECH institute ", wantCode: "RANC", wantOK: true},
		{name: "alias", input: "JSU", wantCode: "JHAR", wantOK: true},
		{name: "code itself", input: "jhar", wantCode: "JHAR", wantOK: true},
		{name: "unknown", input: "Oxford", wantOK: false},
		{name: "empty", input: "", wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, ok := reg.CodeForName(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantCode, code)
		})
	}
}

func TestParse_InvalidRectangles(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantMsg string
	}{
		{
			name: "x_start equals x_end",
			yaml: `
institutions:
  - code: A
    name: A Uni
    seal: {roi: [0.5, 0.1, 0.5, 0.2], reference_image: s.png}
    signature: {roi: [0.1, 0.1, 0.2, 0.2], reference_image: g.png}
`,
			wantMsg: "seal roi",
		},
		{
			name: "y_end above one",
			yaml: `
institutions:
  - code: A
    name: A Uni
    seal: {roi: [0.1, 0.1, 0.2, 0.2], reference_image: s.png}
    signature: {roi: [0.1, 0.5, 0.2, 1.2], reference_image: g.png}
`,
			wantMsg: "signature roi",
		},
		{
			name: "negative start",
			yaml: `
institutions:
  - code: A
    name: A Uni
    seal: {roi: [-0.1, 0.1, 0.2, 0.2], reference_image: s.png}
    signature: {roi: [0.1, 0.1, 0.2, 0.2], reference_image: g.png}
`,
			wantMsg: "seal roi",
		},
		{
			name: "roi with three values",
			yaml: `
institutions:
  - code: A
    name: A Uni
    seal: {roi: [0.1, 0.1, 0.2], reference_image: s.png}
    signature: {roi: [0.1, 0.1, 0.2, 0.2], reference_image: g.png}
`,
			wantMsg: "roi must have 4 values",
		},
		{
			name: "missing reference image",
			yaml: `
institutions:
  - code: A
    name: A Uni
    seal: {roi: [0.1, 0.1, 0.2, 0.2]}
    signature: {roi: [0.1, 0.1, 0.2, 0.2], reference_image: g.png}
`,
			wantMsg: "seal reference_image is required",
		},
		{
			name: "nan roi value",
			yaml: `
institutions:
  - code: A
    name: A Uni
    seal: {roi: [.nan, 0.1, 0.5, 0.5], reference_image: s.png}
    signature: {roi: [0.1, 0.1, 0.2, 0.2], reference_image: g.png}
`,
			wantMsg: "seal roi",
		},
		{
			name: "nan seal threshold",
			yaml: `
institutions:
  - code: A
    name: A Uni
    seal: {roi: [0.1, 0.1, 0.5, 0.5], reference_image: s.png, threshold: .nan}
    signature: {roi: [0.1, 0.1, 0.2, 0.2], reference_image: g.png}
`,
			wantMsg: "seal threshold NaN",
		},
		{
			name: "infinite signature threshold",
			yaml: `
institutions:
  - code: A
    name: A Uni
    seal: {roi: [0.1, 0.1, 0.5, 0.5], reference_image: s.png}
    signature: {roi: [0.1, 0.1, 0.2, 0.2], reference_image: g.png, threshold: .inf}
`,
			wantMsg: "signature threshold +Inf",
		},
		{
			name: "duplicate code",
			yaml: `
institutions:
  - code: A
    name: A Uni
    seal: {roi: [0.1, 0.1, 0.2, 0.2], reference_image: s.png}
    signature: {roi: [0.1, 0.1, 0.2, 0.2], reference_image: g.png}
  - code: A
    name: Another
    seal: {roi: [0.1, 0.1, 0.2, 0.2], reference_image: s.png}
    signature: {roi: [0.1, 0.1, 0.2, 0.2], reference_image: g.png}
`,
			wantMsg: "duplicate code",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)

			var ve *ValidationError
			require.True(t, errors.As(err, &ve), "want *ValidationError, got %T", err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading registry")
}

func TestLoad_ShippedConfig(t *testing.T) {
	reg, err := Load(filepath.Join("..", "..", "configs", "institutions.yaml"))
	require.NoError(t, err)
	assert.Equal(t, []string{"JHAR", "RANC", "JHAR_BS"}, codes(reg))

	code, ok := reg.CodeForName("jbs")
	require.True(t, ok)
	assert.Equal(t, "JHAR_BS", code)
}

func TestWithAssets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reg.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))
	reg, err := Load(path)
	require.NoError(t, err)

	updated := reg.WithAssets([]types.InstitutionAssets{
		{Code: "RANC", SealPath: "db/ranc_seal.png"},
		{Code: "UNKNOWN", SealPath: "x.png", SignaturePath: "y.png"},
	})

	ranc, _ := updated.Lookup("RANC")
	assert.Equal(t, "db/ranc_seal.png", ranc.Seal.ReferenceImage)
	assert.Equal(t, "signatures/ranc_signature.png", ranc.Signature.ReferenceImage, "empty path keeps registry value")

	orig, _ := reg.Lookup("RANC")
	assert.Equal(t, "seals/ranc_seal.png", orig.Seal.ReferenceImage, "receiver must not change")
}
