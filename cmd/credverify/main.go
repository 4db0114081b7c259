// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the credverify CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/credverify/internal/secrets"
	"github.com/pdiddy/credverify/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from .secrets/ at startup.
var loadedSecrets secrets.Secrets

// rootCmd is the base command for the credverify CLI.
var rootCmd = &cobra.Command{
	Use:   "credverify",
	Short: "Verify academic certificates against a reference dataset",
	Long: `credverify checks scanned academic certificates. It reads the certificate
text (OCR), extracts the certificate number, holder, institution, course, and
year, and fuzzy-matches them against a reference dataset. Independently it
compares the seal and signature regions of the scan with the institution's
reference images.

A certificate is VERIFIED when its fields match a dataset row. The visual
check is reported alongside as separate evidence.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/", os.Stderr)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./credverify.yaml or ~/.config/credverify/config.yaml)")
	pf.String("registry", "", "institution registry YAML file")
	pf.String("dataset", "", "reference dataset CSV file")
	pf.String("db", "", "reference dataset SQLite database (overrides --dataset)")
	pf.String("assets-dir", "", "base directory for relative reference image paths")

	// An explicitly set flag wins over the config file and environment.
	viper.BindPFlag("registry.path", pf.Lookup("registry"))
	viper.BindPFlag("dataset.csv_path", pf.Lookup("dataset"))
	viper.BindPFlag("dataset.db_path", pf.Lookup("db"))
	viper.BindPFlag("visual.assets_dir", pf.Lookup("assets-dir"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("credverify")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "credverify"))
		}
	}

	viper.SetDefault("registry.path", "configs/institutions.yaml")
	viper.SetDefault("dataset.csv_path", "data/reference.csv")
	viper.SetDefault("resolver.threshold", 85)
	viper.SetDefault("visual.engine", string(types.EngineOpenCV))
	viper.SetDefault("visual.max_features", 500)
	viper.SetDefault("visual.min_matches", 0)
	viper.SetDefault("visual.assets_dir", "assets")
	viper.SetDefault("visual.http_timeout", 30*time.Second)
	viper.SetDefault("ocr.languages", []string{"eng"})
	viper.SetDefault("batch.workers", runtime.NumCPU())

	viper.SetEnvPrefix("CREDVERIFY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig assembles the effective configuration.
func loadConfig() types.Config {
	return types.Config{
		Registry: types.RegistryConfig{Path: viper.GetString("registry.path")},
		Dataset: types.DatasetConfig{
			CSVPath: viper.GetString("dataset.csv_path"),
			DBPath:  viper.GetString("dataset.db_path"),
		},
		Resolver: types.ResolverConfig{Threshold: viper.GetInt("resolver.threshold")},
		Visual: types.VisualConfig{
			Engine:      types.VisualEngine(viper.GetString("visual.engine")),
			MaxFeatures: viper.GetInt("visual.max_features"),
			MinMatches:  viper.GetInt("visual.min_matches"),
			AssetsDir:   viper.GetString("visual.assets_dir"),
			HTTPTimeout: viper.GetDuration("visual.http_timeout"),
			DebugDir:    viper.GetString("visual.debug_dir"),
		},
		OCR: types.OCRConfig{
			Languages: viper.GetStringSlice("ocr.languages"),
			PSM:       viper.GetInt("ocr.psm"),
		},
		Batch: types.BatchConfig{Workers: viper.GetInt("batch.workers")},
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
