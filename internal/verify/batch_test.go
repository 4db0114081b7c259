// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package verify

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/credverify/pkg/types"
)

func TestCollectFiles(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "2024")
	require.NoError(t, os.Mkdir(sub, 0o755))
	for _, name := range []string{"a.png", "notes.txt", "2024/b.JPG", "2024/c.tiff"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	explicit := filepath.Join(dir, "notes.txt")

	got, err := CollectFiles([]string{dir, explicit, filepath.Join(dir, "a.png")})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "2024", "b.JPG"),
		filepath.Join(dir, "2024", "c.tiff"),
		filepath.Join(dir, "a.png"),
		explicit,
	}, got)

	_, err = CollectFiles([]string{filepath.Join(dir, "absent")})
	assert.Error(t, err)
}

func TestBatch(t *testing.T) {
	dir := t.TempDir()
	john := encodePNG(t, certificate(7, 11))
	other := encodePNG(t, certificate(7, 13))
	paths := map[string][]byte{
		"john.png":   john,
		"other.png":  other,
		"broken.png": []byte("not an image"),
		"scan.gif":   john,
	}
	for name, data := range paths {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
	}

	otherText := strings.Replace(johnText, "JH-UNI-2024-001", "JH-UNI-2024-999", 1)
	v := newVerifier(t, []types.ReferenceRecord{johnRecord}, func(o *Options) {
		o.OCR = fakeOCR{
			string(john):  {Text: johnText},
			string(other): {Text: otherText},
		}
	})

	files := []string{
		filepath.Join(dir, "john.png"),
		filepath.Join(dir, "other.png"),
		filepath.Join(dir, "broken.png"),
		filepath.Join(dir, "scan.gif"),
	}
	var out bytes.Buffer
	summary := v.Batch(context.Background(), files, 2, &out)

	assert.Equal(t, 1, summary.Verified)
	assert.Equal(t, 1, summary.Invalid)
	assert.Equal(t, 2, summary.Failed)
	assert.Equal(t, 4, summary.Total())

	require.Len(t, summary.Items, 4)
	for i, it := range summary.Items {
		assert.Equal(t, files[i], it.Path, "items keep input order")
	}
	assert.Equal(t, types.StatusVerified, summary.Items[0].Result.Status)
	assert.Equal(t, types.StatusInvalid, summary.Items[1].Result.Status)
	assert.NotEmpty(t, summary.Items[2].Error)

	log := out.String()
	assert.Contains(t, log, "verified "+files[0]+" (JH-UNI-2024-001, overall 100.0)")
	assert.Contains(t, log, "invalid  "+files[1])
	assert.Contains(t, log, "failed   "+files[2])
	assert.True(t, strings.HasSuffix(log, "verified: 1, invalid: 1, failed: 2\n"))
}

func TestBatch_CancelledContext(t *testing.T) {
	v := newVerifier(t, nil, func(o *Options) { o.OCR = fakeOCR{} })
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary := v.Batch(ctx, []string{"a.png", "b.png"}, 1, &bytes.Buffer{})
	assert.Equal(t, 2, summary.Failed)
	assert.ErrorIs(t, summary.Items[0].Err, context.Canceled)
}
