// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/credverify/pkg/types"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <image>",
	Short: "Verify one certificate scan",
	Long: `Verify runs OCR on a certificate image (png, jpg, jpeg, tiff), extracts its
fields, resolves them against the reference dataset, and checks the seal and
signature regions against the institution's reference images.

Pass --text to supply OCR text from a file ("-" for stdin) instead of
running tesseract.`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func runVerify(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	v, err := newVerifier(ctx, loadConfig())
	if err != nil {
		return err
	}

	path := args[0]
	textFile, _ := cmd.Flags().GetString("text")

	var res *types.VerificationResult
	if textFile == "" {
		res, err = v.VerifyFile(ctx, path)
	} else {
		var text, data []byte
		if text, err = readText(textFile); err != nil {
			return err
		}
		if data, err = os.ReadFile(path); err != nil {
			return err
		}
		res, err = v.VerifyImage(ctx, string(text), data, filepath.Base(path))
	}
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	printResult(os.Stdout, res)
	return nil
}

func readText(name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(name)
}

func printResult(w io.Writer, r *types.VerificationResult) {
	verified := "unverified"
	if r.Fields.Verified {
		verified = "from dataset"
	}
	fmt.Fprintf(w, "%-14s %s\n", "status:", r.Status)
	fmt.Fprintf(w, "%-14s %s\n", "id:", r.ID)
	fmt.Fprintf(w, "%-14s %s (%s)\n", "certificate:", r.Fields.CertificateNo, verified)
	fmt.Fprintf(w, "%-14s %s\n", "name:", r.Fields.Name)
	fmt.Fprintf(w, "%-14s %s\n", "institution:", r.Fields.Institution)
	fmt.Fprintf(w, "%-14s %s\n", "course:", r.Fields.Course)
	fmt.Fprintf(w, "%-14s %s\n", "year:", r.Fields.Year)

	c := r.Confidence
	fmt.Fprintf(w, "%-14s cert %d  name %d  inst %d  year %d  overall %.1f\n",
		"confidence:", c.Cert, c.Name, c.Inst, c.Year, c.Overall)

	switch a := r.Authenticity; {
	case a.State == types.AuthenticityChecked && a.Verdict != nil:
		v := a.Verdict
		fmt.Fprintf(w, "%-14s seal %.3f (threshold %.2f, %s)  signature %.3f (threshold %.2f, %s)  overall %s\n",
			"authenticity:",
			v.SealScore, v.Thresholds.Seal, passFail(v.SealAuthentic),
			v.SignatureScore, v.Thresholds.Signature, passFail(v.SignatureAuthentic),
			passFail(v.OverallAuthentic))
	default:
		fmt.Fprintf(w, "%-14s unavailable: %s\n", "authenticity:", a.Reason)
	}

	if r.OCRQuality != nil {
		fmt.Fprintf(w, "%-14s %.1f (%s)\n", "ocr quality:", *r.OCRQuality, r.OCRQualitySource)
	} else {
		fmt.Fprintf(w, "%-14s %s\n", "ocr quality:", r.OCRQualitySource)
	}
}

func passFail(ok bool) string {
	if ok {
		return "pass"
	}
	return "fail"
}

func init() {
	f := verifyCmd.Flags()
	f.String("text", "", "read OCR text from this file (\"-\" for stdin) instead of running tesseract")
	f.Bool("json", false, "output the result as JSON")
	f.String("debug-dir", "", "write extracted and reference regions as PNG to this directory")
	f.String("engine", "", "visual engine: opencv or native")
	f.Int("threshold", 0, "per-field similarity gate (default from config, 85)")

	viper.BindPFlag("visual.debug_dir", f.Lookup("debug-dir"))
	viper.BindPFlag("visual.engine", f.Lookup("engine"))
	viper.BindPFlag("resolver.threshold", f.Lookup("threshold"))

	rootCmd.AddCommand(verifyCmd)
}
