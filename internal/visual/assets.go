// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package visual

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/sunshineplan/imgconv"

	"github.com/pdiddy/credverify/internal/httputil"
)

// AllowedExtensions lists the certificate upload formats, lower-case and
// without the dot.
var AllowedExtensions = []string{"png", "jpg", "jpeg", "tiff"}

// CheckExtension returns an InputError unless name ends in one of
// AllowedExtensions.
func CheckExtension(name string) error {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	for _, a := range AllowedExtensions {
		if ext == a {
			return nil
		}
	}
	return &InputError{Reason: fmt.Sprintf("unsupported file type %q (allowed: %s)", ext, strings.Join(AllowedExtensions, ", "))}
}

// Decode decodes a certificate image. Any failure is an InputError.
func Decode(r io.Reader) (image.Image, error) {
	img, err := imgconv.Decode(r)
	if err != nil {
		return nil, &InputError{Reason: "decoding image", Err: err}
	}
	return img, nil
}

// DecodeBytes is Decode over an in-memory image.
func DecodeBytes(data []byte) (image.Image, error) {
	return Decode(bytes.NewReader(data))
}

// AssetLoader loads a reference image from its configured location.
type AssetLoader interface {
	Load(ctx context.Context, location string) (image.Image, error)
}

// Assets loads reference images from the local filesystem or over HTTP.
// Relative paths resolve against Dir. Locations starting with http:// or
// https:// are fetched with Client, sending Token as a bearer credential
// when set.
type Assets struct {
	Dir        string
	Client     *http.Client
	Token      string
	MaxRetries int
}

// Load implements AssetLoader.
func (a *Assets) Load(ctx context.Context, location string) (image.Image, error) {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		client := a.Client
		if client == nil {
			client = http.DefaultClient
		}
		data, err := httputil.Fetch(ctx, client, location, a.Token, a.MaxRetries)
		if err != nil {
			return nil, err
		}
		img, err := imgconv.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", location, err)
		}
		return img, nil
	}

	path := location
	if !filepath.IsAbs(path) && a.Dir != "" {
		path = filepath.Join(a.Dir, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, err := imgconv.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return img, nil
}
