// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/credverify/internal/registry"
	"github.com/pdiddy/credverify/internal/visual"
	"github.com/pdiddy/credverify/pkg/types"
)

var institutionsCmd = &cobra.Command{
	Use:   "institutions",
	Short: "Inspect the institution registry (list, validate, import-assets)",
}

var institutionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered institutions with regions and thresholds",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry(context.Background(), loadConfig())
		if err != nil {
			return err
		}
		for _, inst := range reg.Institutions() {
			fmt.Printf("%s  %s\n", inst.Code, inst.Name)
			if len(inst.Aliases) > 0 {
				fmt.Printf("    aliases:    %s\n", strings.Join(inst.Aliases, ", "))
			}
			printRegion("seal", inst.Seal)
			printRegion("signature", inst.Signature)
		}
		return nil
	},
}

func printRegion(kind string, r types.RegionSpec) {
	fmt.Printf("    %-10s  roi [%.2f %.2f %.2f %.2f]  threshold %.2f  %s\n",
		kind+":", r.ROI.XStart, r.ROI.YStart, r.ROI.XEnd, r.ROI.YEnd, r.Threshold, r.ReferenceImage)
}

var institutionsValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check region rectangles, thresholds, and reference images",
	Long: `Validate loads the registry, reports every invalid rectangle or threshold,
and then loads each reference image to confirm it exists and decodes.`,
	RunE: runInstitutionsValidate,
}

func runInstitutionsValidate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := loadConfig()

	reg, err := loadRegistry(ctx, cfg)
	if err != nil {
		var verr *registry.ValidationError
		if errors.As(err, &verr) {
			for _, p := range verr.Problems {
				fmt.Fprintf(os.Stdout, "invalid %s\n", p)
			}
		}
		return err
	}

	assets := &visual.Assets{
		Dir:    cfg.Visual.AssetsDir,
		Client: &http.Client{Timeout: cfg.Visual.HTTPTimeout},
		Token:  loadedSecrets.AssetToken(),
	}
	failed := 0
	for _, inst := range reg.Institutions() {
		for _, kind := range []types.RegionKind{types.RegionSeal, types.RegionSignature} {
			loc := inst.Region(kind).ReferenceImage
			img, err := assets.Load(ctx, loc)
			if err != nil {
				fmt.Fprintf(os.Stdout, "failed  %s %s: %v\n", inst.Code, kind, err)
				failed++
				continue
			}
			fmt.Fprintf(os.Stdout, "ok      %s %s %s (%dx%d)\n", inst.Code, kind, loc, img.Bounds().Dx(), img.Bounds().Dy())
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d reference image(s) could not be loaded", failed)
	}
	return nil
}

var institutionsImportAssetsCmd = &cobra.Command{
	Use:   "import-assets",
	Short: "Store the registry's reference image locations in the dataset database",
	Long: `Import-assets copies each institution's seal and signature reference image
locations from the registry file into the institutions table. Locations in
the database take precedence over the registry file when verifying.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		reg, err := registry.Load(loadConfig().Registry.Path)
		if err != nil {
			return err
		}
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		var assets []types.InstitutionAssets
		for _, inst := range reg.Institutions() {
			assets = append(assets, types.InstitutionAssets{
				Code:          inst.Code,
				Name:          inst.Name,
				SealPath:      inst.Seal.ReferenceImage,
				SignaturePath: inst.Signature.ReferenceImage,
			})
		}
		if err := store.UpsertAssets(ctx, assets); err != nil {
			return err
		}
		fmt.Printf("stored assets for %d institution(s)\n", len(assets))
		return nil
	},
}

func init() {
	institutionsCmd.AddCommand(institutionsListCmd)
	institutionsCmd.AddCommand(institutionsValidateCmd)
	institutionsCmd.AddCommand(institutionsImportAssetsCmd)

	rootCmd.AddCommand(institutionsCmd)
}
