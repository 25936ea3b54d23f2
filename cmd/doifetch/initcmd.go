package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/doifetch/internal/library"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file and the library directory",
	Long: `Init writes doifetch.yaml to the current directory with the resolved
defaults and creates the library directory, database, and file store. It
refuses to overwrite an existing config file.`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	const cfgPath = "doifetch.yaml"
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("%s already exists; remove it first to reinitialize", cfgPath)
	}

	cfg := loadConfig(cmd)
	if cfg.Crossref.HTTPConfig.Timeout == 0 {
		cfg.Crossref.HTTPConfig.Timeout = 30 * time.Second
	}
	if cfg.Unpaywall.HTTPConfig.Timeout == 0 {
		cfg.Unpaywall.HTTPConfig.Timeout = 30 * time.Second
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(cfgPath, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", cfgPath, err)
	}
	fmt.Printf("Wrote %s\n", cfgPath)

	store, err := library.Open(cfg.Library, os.Stderr)
	if err != nil {
		return err
	}
	defer store.Close()
	fmt.Printf("Initialized library at %s\n", store.Root())

	if cfg.Unpaywall.Email == "" {
		fmt.Println("Note: set unpaywall.email (or .secrets/unpaywall-email) to enable PDF fetching.")
	}
	return nil
}
