// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/credverify/internal/dataset"
)

var datasetCmd = &cobra.Command{
	Use:   "dataset",
	Short: "Manage the reference dataset (import, list)",
	Long: `Dataset manages the SQLite copy of the reference records that certificates
are resolved against. When dataset.db_path (or --db) is set, verification
reads records from the database instead of the CSV file.`,
}

var datasetImportCmd = &cobra.Command{
	Use:   "import <csv>",
	Short: "Import reference records from a CSV file",
	Long: `Import reads a CSV with columns certificate_no, name, institution, course,
year and upserts the rows into the database, keyed by certificate number.
Existing rows keep their position so resolution order is stable.`,
	Args: cobra.ExactArgs(1),
	RunE: runDatasetImport,
}

func runDatasetImport(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	recs, err := dataset.LoadCSV(args[0])
	if err != nil {
		return err
	}
	_, err = store.Import(context.Background(), recs, os.Stdout)
	return err
}

var datasetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List reference records",
	RunE:  runDatasetList,
}

func runDatasetList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	format, _ := cmd.Flags().GetString("format")

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	switch format {
	case "yaml":
		return store.ExportYAML(ctx, os.Stdout)
	case "csv":
		recs, err := store.Records(ctx)
		if err != nil {
			return err
		}
		return dataset.WriteCSV(os.Stdout, recs)
	case "table", "":
	default:
		return fmt.Errorf("unsupported format %q: use table, yaml, or csv", format)
	}

	recs, err := store.Records(ctx)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Println("No records.")
		return nil
	}
	fmt.Fprintf(os.Stdout, "%-20s  %-24s  %-30s  %-12s  %s\n", "Certificate", "Name", "Institution", "Course", "Year")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))
	for _, r := range recs {
		fmt.Fprintf(os.Stdout, "%-20s  %-24s  %-30s  %-12s  %d\n",
			truncate(r.CertificateNo, 20), truncate(r.Name, 24), truncate(r.Institution, 30), truncate(r.Course, 12), r.Year)
	}
	fmt.Fprintf(os.Stdout, "\n%d records\n", len(recs))
	return nil
}

// openStore opens the configured dataset database.
func openStore() (*dataset.Store, error) {
	path := loadConfig().Dataset.DBPath
	if path == "" {
		path = "data/credverify.db"
	}
	return dataset.NewStore(path)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func init() {
	datasetListCmd.Flags().String("format", "table", "output format: table, yaml, or csv")

	datasetCmd.AddCommand(datasetImportCmd)
	datasetCmd.AddCommand(datasetListCmd)

	rootCmd.AddCommand(datasetCmd)
}
