// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"

	"github.com/pdiddy/doifetch/internal/fetch"
	"github.com/pdiddy/doifetch/internal/httputil"
	"github.com/pdiddy/doifetch/internal/ingest"
	"github.com/pdiddy/doifetch/internal/library"
	"github.com/pdiddy/doifetch/internal/resolve"
	"github.com/pdiddy/doifetch/pkg/types"
)

// openPipeline wires the full ingest stack from config: the Crossref
// resolver registry, the Unpaywall fetcher, and the library store. The
// caller owns the returned store and must Close it.
func openPipeline(cfg types.Config) (*ingest.Pipeline, *library.Store, error) {
	store, err := library.Open(cfg.Library, os.Stderr)
	if err != nil {
		return nil, nil, err
	}

	registry := resolve.NewRegistry(os.Stderr,
		resolve.NewCrossrefResolver(httputil.NewClient(cfg.Crossref.HTTPConfig), cfg.Crossref),
	)
	fetcher := fetch.NewUnpaywallFetcher(httputil.NewClient(cfg.Unpaywall.HTTPConfig), cfg.Unpaywall)

	return ingest.New(registry, store, fetcher, os.Stderr), store, nil
}
