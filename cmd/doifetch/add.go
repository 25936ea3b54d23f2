package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/doifetch/internal/ingest"
	"github.com/pdiddy/doifetch/pkg/types"
)

var addCmd = &cobra.Command{
	Use:   "add [identifiers...]",
	Short: "Ingest articles by DOI, DOI URL, or free-text reference",
	Long: `Add resolves each identifier through Crossref, merges any manual
overrides, attempts an open-access PDF through Unpaywall (or attaches a
local PDF), and stores the result in the library. An identifier no
resolver recognizes still becomes a manual record when --title is given.`,
	RunE: runAdd,
}

func init() {
	addCmd.Flags().String("title", "", "override or supply the article title")
	addCmd.Flags().String("journal", "", "override or supply the journal name")
	addCmd.Flags().StringSlice("tag", nil, "tag to attach (repeatable)")
	addCmd.Flags().String("pdf", "", "local PDF file to attach instead of fetching")
	addCmd.Flags().Bool("dry-run", false, "resolve and print metadata without storing anything")

	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide one or more identifiers (DOIs, DOI URLs, or references)")
	}

	title, _ := cmd.Flags().GetString("title")
	journal, _ := cmd.Flags().GetString("journal")
	tags, _ := cmd.Flags().GetStringSlice("tag")
	localPDF, _ := cmd.Flags().GetString("pdf")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	if localPDF != "" && len(args) > 1 {
		return fmt.Errorf("--pdf applies to a single identifier, got %d", len(args))
	}

	cfg := loadConfig(cmd)
	pipeline, store, err := openPipeline(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	overrides := ingest.Overrides{Title: title, Journal: journal, Tags: tags}

	if dryRun {
		for _, id := range args {
			outcome, err := pipeline.Ingest(cmd.Context(), types.NewFetchRequest(id), overrides, false, "")
			if err != nil {
				return err
			}
			printArtifact(os.Stdout, outcome.Artifact)
		}
		return nil
	}

	items := make([]ingest.BatchItem, 0, len(args))
	for _, id := range args {
		items = append(items, ingest.BatchItem{Identifier: id, Overrides: overrides, LocalPDF: localPDF})
	}

	result := pipeline.IngestBatch(cmd.Context(), items, os.Stdout)
	if result.HasFailures() {
		return fmt.Errorf("%d article(s) failed ingestion", result.Failed)
	}
	return nil
}
