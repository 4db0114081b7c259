// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pdiddy/credverify/internal/dataset"
	"github.com/pdiddy/credverify/internal/ocr"
	"github.com/pdiddy/credverify/internal/registry"
	"github.com/pdiddy/credverify/internal/verify"
	"github.com/pdiddy/credverify/internal/visual"
	"github.com/pdiddy/credverify/internal/visual/opencv"
	"github.com/pdiddy/credverify/pkg/types"
)

// loadRegistry reads the registry file and, when a dataset database is
// configured, applies the reference image locations stored there.
func loadRegistry(ctx context.Context, cfg types.Config) (*registry.Registry, error) {
	reg, err := registry.Load(cfg.Registry.Path)
	if err != nil {
		return nil, err
	}
	if cfg.Dataset.DBPath == "" {
		return reg, nil
	}
	store, err := dataset.OpenStore(cfg.Dataset.DBPath)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	assets, err := store.Assets(ctx)
	if err != nil {
		return nil, err
	}
	return reg.WithAssets(assets), nil
}

// newAuthenticator builds the visual authenticator for the configured engine.
func newAuthenticator(reg *registry.Registry, cfg types.VisualConfig) (*visual.Authenticator, error) {
	opts := visual.Options{
		Assets: &visual.Assets{
			Dir:    cfg.AssetsDir,
			Client: &http.Client{Timeout: cfg.HTTPTimeout},
			Token:  loadedSecrets.AssetToken(),
		},
		MinMatches: cfg.MinMatches,
		DebugDir:   cfg.DebugDir,
	}
	switch cfg.Engine {
	case types.EngineOpenCV, "":
		opts.Descriptors = opencv.NewORB(cfg.MaxFeatures)
		opts.Correlator = opencv.TemplateCorrelator{}
	case types.EngineNative:
		opts.Descriptors = visual.NativeDescriptors{MaxFeatures: cfg.MaxFeatures}
		opts.Correlator = visual.NativeCorrelator{}
	default:
		return nil, fmt.Errorf("unknown visual engine %q: use opencv or native", cfg.Engine)
	}
	return visual.New(reg, opts), nil
}

// newVerifier loads the registry and dataset once and returns a Verifier
// shared by every request of the command.
func newVerifier(ctx context.Context, cfg types.Config) (*verify.Verifier, error) {
	reg, err := loadRegistry(ctx, cfg)
	if err != nil {
		return nil, err
	}
	records, err := dataset.Load(ctx, cfg.Dataset)
	if err != nil {
		return nil, err
	}
	auth, err := newAuthenticator(reg, cfg.Visual)
	if err != nil {
		return nil, err
	}
	return verify.New(verify.Options{
		Registry:      reg,
		Records:       records,
		Threshold:     cfg.Resolver.Threshold,
		Authenticator: auth,
		OCR:           ocr.NewTesseract(cfg.OCR),
	})
}
