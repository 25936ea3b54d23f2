// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"path/filepath"
	"time"
)

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "doifetch/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// LibraryConfig holds settings for the local article library.
type LibraryConfig struct {
	// DataDir is the library root (contains tmp/, pdfs/, the database, and
	// any legacy library-index.json awaiting migration).
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// DBFilename is the SQLite database filename inside DataDir
	// (default "library.sqlite3").
	DBFilename string `json:"db_filename" yaml:"db_filename"`
}

// DBPath returns the full path of the library database.
func (c LibraryConfig) DBPath() string {
	name := c.DBFilename
	if name == "" {
		name = "library.sqlite3"
	}
	return filepath.Join(c.DataDir, name)
}

// CrossrefConfig holds settings for the Crossref works registry.
type CrossrefConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the Crossref works endpoint (default "https://api.crossref.org/works").
	BaseURL string `json:"base_url" yaml:"base_url"`

	// Mailto is an optional contact address appended to requests for the
	// Crossref polite pool.
	Mailto string `json:"mailto,omitempty" yaml:"mailto,omitempty"`
}

// UnpaywallConfig holds settings for the Unpaywall open-access lookup.
type UnpaywallConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the Unpaywall API endpoint (default "https://api.unpaywall.org/v2").
	BaseURL string `json:"base_url" yaml:"base_url"`

	// Email identifies the caller to Unpaywall. When empty the fetcher
	// skips lookups entirely and reports no result.
	Email string `json:"email,omitempty" yaml:"email,omitempty"`
}

// Config groups all stage configurations for doifetch.
type Config struct {
	Library   LibraryConfig   `json:"library" yaml:"library"`
	Crossref  CrossrefConfig  `json:"crossref" yaml:"crossref"`
	Unpaywall UnpaywallConfig `json:"unpaywall" yaml:"unpaywall"`
}
