package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/doifetch/internal/library"
	"github.com/pdiddy/doifetch/pkg/types"
)

var showCmd = &cobra.Command{
	Use:   "show <doi>",
	Short: "Print the full stored record for one article",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(cmd)
	store, err := library.Open(cfg.Library, os.Stderr)
	if err != nil {
		return err
	}
	defer store.Close()

	artifact, err := store.FindByDOI(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if artifact == nil {
		return fmt.Errorf("no article stored for doi %q", args[0])
	}
	printArtifact(os.Stdout, artifact)
	return nil
}

// printArtifact writes one record as YAML. The raw registry payload is
// excluded by its field tag.
func printArtifact(w io.Writer, artifact *types.StoredArtifact) {
	data, err := yaml.Marshal(artifact)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not render %s: %v\n", artifact.Metadata.DOI, err)
		return
	}
	fmt.Fprintf(w, "---\n%s", data)
}
