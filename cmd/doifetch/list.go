package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pdiddy/doifetch/internal/library"
	"github.com/pdiddy/doifetch/pkg/types"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored articles, newest first",
	RunE:  runList,
}

func init() {
	listCmd.Flags().Bool("missing-pdf", false, "only show articles without a stored PDF")

	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	missingOnly, _ := cmd.Flags().GetBool("missing-pdf")

	cfg := loadConfig(cmd)
	store, err := library.Open(cfg.Library, os.Stderr)
	if err != nil {
		return err
	}
	defer store.Close()

	artifacts, err := store.List(cmd.Context())
	if err != nil {
		return err
	}
	if missingOnly {
		kept := artifacts[:0]
		for _, artifact := range artifacts {
			if artifact.PDFPath == "" {
				kept = append(kept, artifact)
			}
		}
		artifacts = kept
	}

	if len(artifacts) == 0 {
		fmt.Println("Library is empty.")
		return nil
	}
	printTable(os.Stdout, artifacts)
	return nil
}

// printTable renders a doi/title/journal/pdf summary table.
func printTable(w *os.File, artifacts []*types.StoredArtifact) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DOI\tTITLE\tJOURNAL\tPDF")
	for _, artifact := range artifacts {
		pdf := "no"
		if artifact.PDFPath != "" {
			pdf = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			artifact.Metadata.DOI, truncate(artifact.Metadata.Title, 60), artifact.Metadata.Journal, pdf)
	}
	tw.Flush()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
