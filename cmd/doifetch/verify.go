package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/doifetch/internal/httputil"
	"github.com/pdiddy/doifetch/internal/library"
	"github.com/pdiddy/doifetch/internal/verify"
)

var verifyCmd = &cobra.Command{
	Use:   "verify [dois...]",
	Short: "Check stored articles against Crossref for retractions",
	Long: `Verify queries Crossref work relations for each DOI and reports
retractions, corrections, replacements, and updates. With --all every
stored article is checked.`,
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().Bool("all", false, "verify every stored article")

	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	all, _ := cmd.Flags().GetBool("all")
	if !all && len(args) == 0 {
		return fmt.Errorf("provide one or more DOIs or use --all")
	}

	cfg := loadConfig(cmd)

	targets := append([]string(nil), args...)
	if all {
		store, err := library.Open(cfg.Library, os.Stderr)
		if err != nil {
			return err
		}
		artifacts, err := store.List(cmd.Context())
		store.Close()
		if err != nil {
			return err
		}
		for _, artifact := range artifacts {
			targets = append(targets, artifact.Metadata.DOI)
		}
	}
	if len(targets) == 0 {
		fmt.Println("No DOIs available to verify.")
		return nil
	}

	verifier := verify.NewCrossrefVerifier(httputil.NewClient(cfg.Crossref.HTTPConfig), cfg.Crossref)
	results := verifier.VerifyAll(cmd.Context(), targets, os.Stdout)

	flagged := 0
	for _, result := range results {
		if result.Status != verify.StatusClean {
			flagged++
		}
	}
	if flagged > 0 {
		fmt.Fprintf(os.Stdout, "\n%d of %d article(s) flagged.\n", flagged, len(results))
	}
	return nil
}
