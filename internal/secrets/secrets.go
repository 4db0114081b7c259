// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets reads credentials from a directory of plain-text files.
// The file name is the secret's key and the trimmed contents its value.
//
// Recognized keys: asset-token (bearer token for the reference image host).
package secrets

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// AssetTokenKey names the file holding the asset host bearer token.
const AssetTokenKey = "asset-token"

// Secrets maps key names to values.
type Secrets map[string]string

// AssetToken returns the asset host token, or "" when none is stored.
func (s Secrets) AssetToken() string {
	return s[AssetTokenKey]
}

// Load reads every regular, non-hidden file in dir. A missing directory
// yields empty Secrets. Files that cannot be read are reported to warn and
// skipped; empty files are ignored.
func Load(dir string, warn io.Writer) (Secrets, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Secrets{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	out := Secrets{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(warn, "warning: could not read secret %s: %v\n", name, err)
			continue
		}
		if v := strings.TrimSpace(string(data)); v != "" {
			out[name] = v
		}
	}
	return out, nil
}
