// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package verify

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sunshineplan/imgconv"

	"github.com/pdiddy/credverify/internal/registry"
	"github.com/pdiddy/credverify/internal/visual"
	"github.com/pdiddy/credverify/pkg/types"
)

const johnText = `RANCHI TECH INSTITUTE
Certificate No: JH-UNI-2024-001
This certificate is awarded to
JOHN SMITH BBA
In the year 2024
`

var (
	sealROI = types.Rect{XStart: 0.05, YStart: 0.6, XEnd: 0.35, YEnd: 0.95}
	sigROI  = types.Rect{XStart: 0.6, YStart: 0.7, XEnd: 0.95, YEnd: 0.9}

	johnRecord = types.ReferenceRecord{
		CertificateNo: "JH-UNI-2024-001",
		Name:          "JOHN SMITH",
		Institution:   "Ranchi Tech Institute",
		Course:        "BBA",
		Year:          2024,
	}

	fixedTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
)

func texture(img *image.RGBA, r image.Rectangle, seed int64) {
	rnd := rand.New(rand.NewSource(seed))
	for y := r.Min.Y; y < r.Max.Y; y += 4 {
		for x := r.Min.X; x < r.Max.X; x += 4 {
			v := uint8(rnd.Intn(256))
			for dy := 0; dy < 4 && y+dy < r.Max.Y; dy++ {
				for dx := 0; dx < 4 && x+dx < r.Max.X; dx++ {
					img.Set(x+dx, y+dy, color.RGBA{v, v, v, 255})
				}
			}
		}
	}
}

// certificate draws a page whose seal and signature areas are textured with
// the given seeds; seed 0 leaves an area blank.
func certificate(sealSeed, sigSeed int64) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 400, 300))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	if sealSeed != 0 {
		texture(img, visual.RegionRect(img.Bounds(), sealROI), sealSeed)
	}
	if sigSeed != 0 {
		texture(img, visual.RegionRect(img.Bounds(), sigROI), sigSeed)
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, imgconv.Write(&buf, img, &imgconv.FormatOption{Format: imgconv.PNG}))
	return buf.Bytes()
}

// fixture writes reference crops of the genuine certificate and returns a
// registry for RANC and JHAR plus the assets directory.
func fixture(t *testing.T) (*registry.Registry, string) {
	t.Helper()
	dir := t.TempDir()
	genuine := certificate(7, 11)
	for name, roi := range map[string]types.Rect{"seal.png": sealROI, "sig.png": sigROI} {
		crop, err := visual.Crop(genuine, roi)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), encodePNG(t, crop), 0o644))
	}
	region := func(ref string, th float64, roi types.Rect) types.RegionSpec {
		return types.RegionSpec{ROI: roi, ReferenceImage: ref, Threshold: th}
	}
	reg, err := registry.New([]types.InstitutionConfig{
		{
			Code: "JHAR", Name: "Jharkhand State University", Aliases: []string{"jsu"},
			Seal:      region("missing-seal.png", 0.3, sealROI),
			Signature: region("missing-sig.png", 0.05, sigROI),
		},
		{
			Code: "RANC", Name: "Ranchi Tech Institute", Aliases: []string{"rti"},
			Seal:      region("seal.png", 0.3, sealROI),
			Signature: region("sig.png", 0.05, sigROI),
		},
	})
	require.NoError(t, err)
	return reg, dir
}

func newVerifier(t *testing.T, records []types.ReferenceRecord, mutate func(*Options)) *Verifier {
	t.Helper()
	reg, dir := fixture(t)
	opts := Options{
		Registry:      reg,
		Records:       records,
		Authenticator: visual.New(reg, visual.Options{Assets: &visual.Assets{Dir: dir}}),
		Now:           func() time.Time { return fixedTime },
		NewID:         func() string { return "req-1" },
	}
	if mutate != nil {
		mutate(&opts)
	}
	v, err := New(opts)
	require.NoError(t, err)
	return v
}

func TestVerify_MatchedAndAuthentic(t *testing.T) {
	v := newVerifier(t, []types.ReferenceRecord{johnRecord}, nil)

	res, err := v.Verify(context.Background(), johnText, certificate(7, 11))
	require.NoError(t, err)

	assert.Equal(t, "req-1", res.ID)
	assert.Equal(t, types.StatusVerified, res.Status)
	assert.True(t, res.Matched())
	assert.Equal(t, johnRecord, *res.MatchedRecord)
	assert.Equal(t, types.ResolvedFields{
		CertificateNo: "JH-UNI-2024-001",
		Name:          "JOHN SMITH",
		Institution:   "Ranchi Tech Institute",
		Course:        "BBA",
		Year:          "2024",
		Verified:      true,
	}, res.Fields)
	assert.InDelta(t, 100.0, res.Confidence.Overall, 1e-9)
	assert.Equal(t, fixedTime, res.ProcessedAt)
	assert.Nil(t, res.OCRQuality)
	assert.Equal(t, types.OCRQualityUnavailable, res.OCRQualitySource)
	assert.Equal(t, johnText, res.Candidate.RawText)

	require.Equal(t, types.AuthenticityChecked, res.Authenticity.State)
	require.NotNil(t, res.Authenticity.Verdict)
	assert.Equal(t, "RANC", res.Authenticity.Verdict.InstitutionCode)
	assert.True(t, res.Authenticity.Verdict.OverallAuthentic)
}

func TestVerify_YearMismatchIsInvalid(t *testing.T) {
	row := johnRecord
	row.Year = 2020
	v := newVerifier(t, []types.ReferenceRecord{row}, nil)

	res, err := v.Verify(context.Background(), johnText, certificate(7, 11))
	require.NoError(t, err)

	assert.Equal(t, types.StatusInvalid, res.Status)
	assert.Nil(t, res.MatchedRecord)
	assert.Equal(t, 0, res.Confidence.Year)
	assert.Equal(t, 100, res.Confidence.Cert)
	assert.False(t, res.Fields.Verified)
	assert.Equal(t, "JH-UNI-2024-001", res.Fields.CertificateNo)
	assert.Equal(t, "2024", res.Fields.Year)

	// The extracted institution still drives the visual check.
	assert.Equal(t, types.AuthenticityChecked, res.Authenticity.State)
}

func TestVerify_ForgedSealDoesNotChangeStatus(t *testing.T) {
	v := newVerifier(t, []types.ReferenceRecord{johnRecord}, nil)

	res, err := v.Verify(context.Background(), johnText, certificate(0, 11))
	require.NoError(t, err)

	assert.Equal(t, types.StatusVerified, res.Status)
	require.NotNil(t, res.Authenticity.Verdict)
	verdict := res.Authenticity.Verdict
	assert.Less(t, verdict.SealScore, verdict.Thresholds.Seal)
	assert.False(t, verdict.SealAuthentic)
	assert.False(t, verdict.OverallAuthentic)
}

func TestVerify_AuthenticityUnavailable(t *testing.T) {
	t.Run("reference images missing", func(t *testing.T) {
		v := newVerifier(t, []types.ReferenceRecord{johnRecord}, func(o *Options) {
			o.Authenticator = visual.New(o.Registry, visual.Options{Assets: &visual.Assets{Dir: t.TempDir()}})
		})
		res, err := v.Verify(context.Background(), johnText, certificate(7, 11))
		require.NoError(t, err)
		assert.Equal(t, types.StatusVerified, res.Status)
		assert.Equal(t, types.AuthenticityUnavailable, res.Authenticity.State)
		assert.Nil(t, res.Authenticity.Verdict)
		assert.Contains(t, res.Authenticity.Reason, "RANC")
	})

	t.Run("institution not registered", func(t *testing.T) {
		v := newVerifier(t, []types.ReferenceRecord{johnRecord}, nil)
		text := strings.Replace(johnText, "RANCHI TECH INSTITUTE", "DELHI COLLEGE", 1)
		res, err := v.Verify(context.Background(), text, certificate(7, 11))
		require.NoError(t, err)
		assert.Equal(t, types.StatusInvalid, res.Status)
		assert.Equal(t, types.NotFound, res.Fields.Institution)
		assert.Equal(t, types.AuthenticityUnavailable, res.Authenticity.State)
	})

	t.Run("engine failure", func(t *testing.T) {
		v := newVerifier(t, []types.ReferenceRecord{johnRecord}, func(o *Options) {
			o.Authenticator = fakeAuth{err: errors.New("descriptor engine crashed")}
		})
		res, err := v.Verify(context.Background(), johnText, certificate(7, 11))
		require.NoError(t, err)
		assert.Equal(t, types.AuthenticityUnavailable, res.Authenticity.State)
		assert.Equal(t, "descriptor engine crashed", res.Authenticity.Reason)
	})
}

func TestVerify_InputErrors(t *testing.T) {
	v := newVerifier(t, []types.ReferenceRecord{johnRecord}, nil)
	ctx := context.Background()
	var inErr *visual.InputError

	_, err := v.Verify(ctx, johnText, nil)
	assert.True(t, errors.As(err, &inErr), "nil image")

	_, err = v.VerifyImage(ctx, johnText, []byte("garbage"), "scan.png")
	assert.True(t, errors.As(err, &inErr), "undecodable image")

	_, err = v.VerifyImage(ctx, johnText, encodePNG(t, certificate(7, 11)), "scan.gif")
	assert.True(t, errors.As(err, &inErr), "disallowed extension")

	v = newVerifier(t, []types.ReferenceRecord{johnRecord}, func(o *Options) {
		o.Authenticator = fakeAuth{err: &visual.InputError{Reason: "bad"}}
	})
	_, err = v.Verify(ctx, johnText, certificate(7, 11))
	assert.True(t, errors.As(err, &inErr), "input errors from the authenticator are fatal")
}

func TestVerify_ImageTooSmallForRegions(t *testing.T) {
	v := newVerifier(t, []types.ReferenceRecord{johnRecord}, nil)

	res, err := v.Verify(context.Background(), johnText, image.NewRGBA(image.Rect(0, 0, 1, 1)))
	require.NoError(t, err)
	assert.Equal(t, types.StatusVerified, res.Status)
	assert.Equal(t, types.AuthenticityUnavailable, res.Authenticity.State)
	assert.Nil(t, res.Authenticity.Verdict)
	assert.Contains(t, res.Authenticity.Reason, "image too small for region")
}

func TestVerifyImage(t *testing.T) {
	v := newVerifier(t, []types.ReferenceRecord{johnRecord}, nil)
	res, err := v.VerifyImage(context.Background(), johnText, encodePNG(t, certificate(7, 11)), "scan.PNG")
	require.NoError(t, err)
	assert.Equal(t, types.StatusVerified, res.Status)
	assert.True(t, res.Authenticity.Verdict.OverallAuthentic)
}

func TestVerifyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "john.png")
	data := encodePNG(t, certificate(7, 11))
	require.NoError(t, os.WriteFile(path, data, 0o644))

	t.Run("engine confidence becomes OCR quality", func(t *testing.T) {
		v := newVerifier(t, []types.ReferenceRecord{johnRecord}, func(o *Options) {
			o.OCR = fakeOCR{string(data): {Text: johnText, Confidence: ptr(91.5), Words: 12}}
		})
		res, err := v.VerifyFile(context.Background(), path)
		require.NoError(t, err)
		assert.Equal(t, types.StatusVerified, res.Status)
		require.NotNil(t, res.OCRQuality)
		assert.InDelta(t, 91.5, *res.OCRQuality, 1e-9)
		assert.Equal(t, types.OCRQualityEngine, res.OCRQualitySource)
	})

	t.Run("no words means no quality", func(t *testing.T) {
		v := newVerifier(t, nil, func(o *Options) {
			o.OCR = fakeOCR{string(data): {}}
		})
		res, err := v.VerifyFile(context.Background(), path)
		require.NoError(t, err)
		assert.Nil(t, res.OCRQuality)
		assert.Equal(t, types.OCRQualityUnavailable, res.OCRQualitySource)
	})

	t.Run("no OCR engine", func(t *testing.T) {
		v := newVerifier(t, nil, nil)
		_, err := v.VerifyFile(context.Background(), path)
		assert.ErrorIs(t, err, ErrNoOCR)
	})
}

func TestNew_RequiresRegistry(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}

type fakeAuth struct {
	verdict types.AuthenticityVerdict
	err     error
}

func (f fakeAuth) Authenticate(context.Context, image.Image, string) (types.AuthenticityVerdict, error) {
	return f.verdict, f.err
}

// fakeOCR returns canned results keyed by the encoded image.
type fakeOCR map[string]types.OCRResult

func (f fakeOCR) Recognize(_ context.Context, data []byte) (types.OCRResult, error) {
	r, ok := f[string(data)]
	if !ok {
		return types.OCRResult{}, errors.New("no canned result")
	}
	return r, nil
}

func ptr(f float64) *float64 { return &f }
