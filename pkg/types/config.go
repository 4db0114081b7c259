// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// RegistryConfig locates the institution registry file.
type RegistryConfig struct {
	// Path is the YAML registry file (default "configs/institutions.yaml").
	Path string `json:"path" yaml:"path"`
}

// DatasetConfig locates the reference dataset. When DBPath is set the
// SQLite store is used; otherwise CSVPath is read.
type DatasetConfig struct {
	// CSVPath is a CSV file with columns certificate_no, name, institution, course, year.
	CSVPath string `json:"csv_path" yaml:"csv_path"`

	// DBPath is the SQLite database written by "dataset import".
	DBPath string `json:"db_path" yaml:"db_path"`
}

// ResolverConfig holds record resolution settings.
type ResolverConfig struct {
	// Threshold is the per-field similarity gate for cert, name, and
	// institution (default 85).
	Threshold int `json:"threshold" yaml:"threshold"`
}

// VisualEngine selects the implementation of the image primitives.
type VisualEngine string

const (
	// EngineOpenCV uses gocv for ORB descriptors and template matching.
	EngineOpenCV VisualEngine = "opencv"

	// EngineNative uses pure Go grid BRIEF descriptors and correlation.
	// Its descriptors are not rotation invariant.
	EngineNative VisualEngine = "native"
)

// VisualConfig holds visual authenticity settings.
type VisualConfig struct {
	// Engine selects the primitive implementation (default opencv).
	Engine VisualEngine `json:"engine" yaml:"engine"`

	// MaxFeatures bounds the number of keypoints detected per image (default 500).
	MaxFeatures int `json:"max_features" yaml:"max_features"`

	// MinMatches is the minimum number of mutual matches before a seal
	// score is computed; fewer yields 0 (default 0, no gate).
	MinMatches int `json:"min_matches" yaml:"min_matches"`

	// AssetsDir is the base directory for relative reference image paths.
	AssetsDir string `json:"assets_dir" yaml:"assets_dir"`

	// HTTPTimeout bounds reference image downloads (default 30s).
	HTTPTimeout time.Duration `json:"http_timeout" yaml:"http_timeout"`

	// DebugDir, when set, receives PNG dumps of extracted and reference regions.
	DebugDir string `json:"debug_dir,omitempty" yaml:"debug_dir,omitempty"`
}

// OCRConfig holds settings for the OCR engine.
type OCRConfig struct {
	// Languages are tesseract language codes (default ["eng"]).
	Languages []string `json:"languages" yaml:"languages"`

	// PSM is the tesseract page segmentation mode; 0 keeps the engine default.
	PSM int `json:"psm" yaml:"psm"`
}

// BatchConfig holds settings for multi-file verification.
type BatchConfig struct {
	// Workers bounds concurrent verifications (default runtime.NumCPU()).
	Workers int `json:"workers" yaml:"workers"`
}

// Config groups all settings of the verifier.
type Config struct {
	Registry RegistryConfig `json:"registry" yaml:"registry"`
	Dataset  DatasetConfig  `json:"dataset" yaml:"dataset"`
	Resolver ResolverConfig `json:"resolver" yaml:"resolver"`
	Visual   VisualConfig   `json:"visual" yaml:"visual"`
	OCR      OCRConfig      `json:"ocr" yaml:"ocr"`
	Batch    BatchConfig    `json:"batch" yaml:"batch"`
}
