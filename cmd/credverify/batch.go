// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/credverify/internal/verify"
)

var batchCmd = &cobra.Command{
	Use:   "batch <file-or-dir>...",
	Short: "Verify many certificate scans concurrently",
	Long: `Batch verifies every certificate image named on the command line. Directories
are searched recursively for png, jpg, jpeg, and tiff files. Each file is
OCR'd with tesseract. One status line is printed per file followed by a
summary; with --json the full results are written to stdout instead and the
status lines go to stderr.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := loadConfig()

	files, err := verify.CollectFiles(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no certificate images found")
	}

	v, err := newVerifier(ctx, cfg)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	log := os.Stdout
	if jsonOutput {
		log = os.Stderr
	}
	summary := v.Batch(ctx, files, cfg.Batch.Workers, log)

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			return err
		}
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d file(s) failed verification", summary.Failed)
	}
	return nil
}

func init() {
	batchCmd.Flags().Int("workers", 0, "concurrent verifications (default from config, number of CPUs)")
	batchCmd.Flags().Bool("json", false, "write results as JSON to stdout")

	viper.BindPFlag("batch.workers", batchCmd.Flags().Lookup("workers"))

	rootCmd.AddCommand(batchCmd)
}
