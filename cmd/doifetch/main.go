// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the doifetch CLI: a personal article
// library fed by DOI resolution, open-access PDF fetching, and full-text
// search over stored metadata.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/doifetch/internal/secrets"
	"github.com/pdiddy/doifetch/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

const defaultUserAgent = "doifetch/0.1"

// loadedSecrets holds credentials loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns fallback when non-empty, otherwise the secret
// value for key if one was loaded.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the doifetch CLI.
var rootCmd = &cobra.Command{
	Use:   "doifetch",
	Short: "Manage a personal library of research articles",
	Long: `doifetch ingests research articles by DOI or free-text reference,
resolves metadata through Crossref, fetches open-access PDFs through
Unpaywall, and stores everything in a local SQLite library with
full-text search.

Each operation is a subcommand: add, batch, list, search, show, and
verify. Run "doifetch init" once to create a config file and the
library directory.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./doifetch.yaml or ~/.config/doifetch/config.yaml)")
	rootCmd.PersistentFlags().String("data-dir", "", "library directory (default: ./library)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("doifetch")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "doifetch"))
		}
	}

	viper.SetEnvPrefix("DOIFETCH")
	viper.AutomaticEnv()

	viper.SetDefault("library.data_dir", "library")
	viper.SetDefault("http.timeout", 30*time.Second)
	viper.SetDefault("http.user_agent", defaultUserAgent)

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig assembles the stage configuration from viper, flags, and
// loaded secrets.
func loadConfig(cmd *cobra.Command) types.Config {
	httpCfg := types.HTTPConfig{
		Timeout:   viper.GetDuration("http.timeout"),
		UserAgent: viper.GetString("http.user_agent"),
	}

	dataDir, _ := cmd.Flags().GetString("data-dir")
	if dataDir == "" {
		dataDir = viper.GetString("library.data_dir")
	}

	return types.Config{
		Library: types.LibraryConfig{
			DataDir:    dataDir,
			DBFilename: viper.GetString("library.db_filename"),
		},
		Crossref: types.CrossrefConfig{
			HTTPConfig: httpCfg,
			BaseURL:    viper.GetString("crossref.base_url"),
			Mailto:     secretDefault("crossref-mailto", viper.GetString("crossref.mailto")),
		},
		Unpaywall: types.UnpaywallConfig{
			HTTPConfig: httpCfg,
			BaseURL:    viper.GetString("unpaywall.base_url"),
			Email:      secretDefault("unpaywall-email", viper.GetString("unpaywall.email")),
		},
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
