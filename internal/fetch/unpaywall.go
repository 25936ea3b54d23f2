// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch locates and downloads open-access PDFs for resolved DOIs.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"golang.org/x/sync/semaphore"

	"github.com/pdiddy/doifetch/internal/httputil"
	"github.com/pdiddy/doifetch/pkg/types"
)

// maxInFlight bounds concurrent Unpaywall fetches. Excess callers queue on
// the semaphore rather than hammering the service.
const maxInFlight = 3

// Fetcher downloads a PDF for a DOI into target. A nil Download with a nil
// error means no open-access copy is available (or the fetcher is not
// configured); errors are transport-level and non-fatal to ingestion.
type Fetcher interface {
	Fetch(ctx context.Context, doi, target string) (*types.Download, error)
}

// UnpaywallFetcher finds open-access PDF locations through the Unpaywall API
// and streams them to disk.
type UnpaywallFetcher struct {
	client *http.Client
	cfg    types.UnpaywallConfig
	gate   *semaphore.Weighted
}

// NewUnpaywallFetcher builds a fetcher from config. A nil client gets a
// default one with the configured timeout and User-Agent.
func NewUnpaywallFetcher(client *http.Client, cfg types.UnpaywallConfig) *UnpaywallFetcher {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.unpaywall.org/v2"
	}
	if client == nil {
		client = httputil.NewClient(cfg.HTTPConfig)
	}
	return &UnpaywallFetcher{
		client: client,
		cfg:    cfg,
		gate:   semaphore.NewWeighted(maxInFlight),
	}
}

// unpaywallResponse captures the best open-access location from a DOI lookup.
type unpaywallResponse struct {
	BestOALocation *oaLocation `json:"best_oa_location"`
}

type oaLocation struct {
	URLForPDF string `json:"url_for_pdf"`
	License   string `json:"license"`
	HostType  string `json:"host_type"`
}

// Fetch looks up the best open-access location for doi and streams the PDF
// to target. Without a configured contact email it skips the lookup entirely
// and reports no result, so callers can tell "not configured" from
// "service unreachable".
func (f *UnpaywallFetcher) Fetch(ctx context.Context, doi, target string) (*types.Download, error) {
	if f.cfg.Email == "" {
		return nil, nil
	}

	if err := f.gate.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer f.gate.Release(1)

	location, err := f.lookup(ctx, doi)
	if err != nil {
		return nil, fmt.Errorf("Unpaywall lookup for %s: %w", doi, err)
	}
	if location == nil {
		return nil, nil
	}

	if err := f.download(ctx, location.URLForPDF, target); err != nil {
		return nil, fmt.Errorf("downloading %s: %w", doi, err)
	}
	return &types.Download{
		Path:     target,
		Source:   "unpaywall",
		License:  location.License,
		HostType: location.HostType,
	}, nil
}

func (f *UnpaywallFetcher) lookup(ctx context.Context, doi string) (*oaLocation, error) {
	reqURL := f.cfg.BaseURL + "/" + url.PathEscape(doi) + "?email=" + url.QueryEscape(f.cfg.Email)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := httputil.DoWithRetry(ctx, f.client, req, 0)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	var payload unpaywallResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	if payload.BestOALocation == nil || payload.BestOALocation.URLForPDF == "" {
		return nil, nil
	}
	return payload.BestOALocation, nil
}

// download streams pdfURL to target via a sibling temp file so a partial
// download never lands at the final name.
func (f *UnpaywallFetcher) download(ctx context.Context, pdfURL, target string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pdfURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/pdf")

	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d from %s", resp.StatusCode, pdfURL)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".fetch-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, copyErr := io.Copy(tmp, resp.Body)
	closeErr := tmp.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
