package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/doifetch/internal/library"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Full-text search over titles, abstracts, and tags",
	Long: `Search runs an FTS5 match query against the library. The query syntax
is SQLite FTS5: bare words, quoted phrases, AND/OR/NOT, and prefix
matches like neuro*.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().Int("limit", 25, "maximum number of results")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	cfg := loadConfig(cmd)
	store, err := library.Open(cfg.Library, os.Stderr)
	if err != nil {
		return err
	}
	defer store.Close()

	artifacts, err := store.Search(cmd.Context(), args[0], limit)
	if err != nil {
		return err
	}
	if len(artifacts) == 0 {
		fmt.Println("No matches.")
		return nil
	}
	printTable(os.Stdout, artifacts)
	return nil
}
