package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/doifetch/internal/ingest"
	"github.com/pdiddy/doifetch/internal/scan"
)

var batchCmd = &cobra.Command{
	Use:   "batch <directory>",
	Short: "Scan a directory of PDFs and ingest each one",
	Long: `Batch scans a directory for PDF files, extracts a DOI and title from
each file's first pages, and ingests every candidate. PDFs without a DOI
become manual records named after the file, with the extracted title when
one was found. Each PDF is attached to its record.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().StringSlice("tag", nil, "tag to attach to every ingested article (repeatable)")

	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	tags, _ := cmd.Flags().GetStringSlice("tag")

	candidates, err := scan.Dir(args[0], os.Stderr)
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		fmt.Fprintln(os.Stdout, "No PDFs found.")
		return nil
	}

	cfg := loadConfig(cmd)
	pipeline, store, err := openPipeline(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	items := make([]ingest.BatchItem, 0, len(candidates))
	for _, cand := range candidates {
		items = append(items, ingest.BatchItem{
			Identifier: cand.Identifier,
			Overrides:  ingest.Overrides{Title: cand.Title, Tags: tags},
			LocalPDF:   cand.Path,
		})
	}

	result := pipeline.IngestBatch(cmd.Context(), items, os.Stdout)
	if result.HasFailures() {
		return fmt.Errorf("%d PDF(s) failed ingestion", result.Failed)
	}
	return nil
}
