// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ingest orchestrates metadata resolution, manual overrides, PDF
// acquisition, and library persistence for a single article. This is the
// seam every CLI command uses; nothing writes to storage during an ingest
// flow except through here.
package ingest

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/pdiddy/doifetch/internal/fetch"
	"github.com/pdiddy/doifetch/internal/ident"
	"github.com/pdiddy/doifetch/internal/library"
	"github.com/pdiddy/doifetch/internal/resolve"
	"github.com/pdiddy/doifetch/pkg/types"
)

// Overrides carries user-supplied metadata. Title and Journal replace
// resolved values when non-empty; Tags are unioned into the resolved set.
type Overrides struct {
	Title   string
	Journal string
	Tags    []string
}

// Outcome reports what a single ingest did.
type Outcome struct {
	Artifact *types.StoredArtifact
	Created  bool
	PDFSaved bool
}

// Error is raised when ingestion cannot construct a record at all: no
// resolver matched and no manual title was supplied. All other resolver and
// fetcher problems degrade to missing metadata or a missing PDF.
type Error struct {
	Identifier string
}

func (e *Error) Error() string {
	return fmt.Sprintf("no resolver matched %q and no title was supplied; pass a title to create a manual record", e.Identifier)
}

// Pipeline coordinates the resolver registry, the PDF fetcher, and the
// library store. Fetcher may be nil, in which case no remote PDFs are
// attempted.
type Pipeline struct {
	registry *resolve.Registry
	store    *library.Store
	fetcher  fetch.Fetcher
	warn     io.Writer
}

// New builds a pipeline. Non-fatal problems (a failed PDF fetch, a failed
// local copy) are reported on warn.
func New(registry *resolve.Registry, store *library.Store, fetcher fetch.Fetcher, warn io.Writer) *Pipeline {
	if warn == nil {
		warn = io.Discard
	}
	return &Pipeline{registry: registry, store: store, fetcher: fetcher, warn: warn}
}

// Ingest resolves req, applies overrides, optionally acquires a PDF (from
// localPDF if given, otherwise the fetcher), and upserts the artifact.
// With persist false it stops after the merge and leaves zero side effects.
// The only error besides storage failures is *Error for an unresolvable
// identifier without a manual title.
func (p *Pipeline) Ingest(ctx context.Context, req types.FetchRequest, overrides Overrides, persist bool, localPDF string) (*Outcome, error) {
	metadata, err := p.resolveMetadata(ctx, req, overrides)
	if err != nil {
		return nil, err
	}

	artifact := &types.StoredArtifact{Metadata: *metadata}
	outcome := &Outcome{Artifact: artifact}

	if !persist {
		return outcome, nil
	}

	if artifact.Metadata.DOI != "" {
		p.attachPDF(ctx, artifact, localPDF, outcome)
	}

	existing, err := p.store.FindByDOI(ctx, artifact.Metadata.DOI)
	if err != nil {
		return nil, err
	}
	outcome.Created = existing == nil

	artifact.StoredAt = time.Now().UTC()
	if err := p.store.Upsert(ctx, artifact); err != nil {
		return nil, err
	}
	return outcome, nil
}

// attachPDF acquires a PDF for the artifact, preferring a caller-supplied
// local file over a remote fetch. A missing PDF is never an error.
func (p *Pipeline) attachPDF(ctx context.Context, artifact *types.StoredArtifact, localPDF string, outcome *Outcome) {
	doi := artifact.Metadata.DOI

	var download *types.Download
	switch {
	case localPDF != "":
		temp := p.store.TempPDFPath(doi)
		if err := copyFile(localPDF, temp); err != nil {
			fmt.Fprintf(p.warn, "warning: could not read local PDF %s: %v\n", localPDF, err)
			return
		}
		download = &types.Download{Path: temp, Source: "manual-upload", HostType: "local"}
	case p.fetcher != nil:
		temp := p.store.TempPDFPath(doi)
		dl, err := p.fetcher.Fetch(ctx, doi, temp)
		if err != nil {
			fmt.Fprintf(p.warn, "warning: PDF fetch for %s failed: %v\n", doi, err)
			return
		}
		if dl == nil {
			return
		}
		download = dl
	default:
		return
	}

	finalPath, checksum, err := p.store.RegisterPDF(ctx, doi, download.Path, download.Source, download.License, download.HostType)
	if err != nil {
		fmt.Fprintf(p.warn, "warning: could not register PDF for %s: %v\n", doi, err)
		return
	}
	artifact.PDFPath = finalPath
	artifact.Checksum = checksum
	outcome.PDFSaved = true
}

// resolveMetadata runs the registry and merges overrides. When every
// resolver misses, a manual record is synthesized from the overrides.
func (p *Pipeline) resolveMetadata(ctx context.Context, req types.FetchRequest, overrides Overrides) (*types.ArticleMetadata, error) {
	result := p.registry.Resolve(ctx, req)
	if result == nil {
		return p.metadataFromOverrides(req, overrides)
	}

	metadata := result.Metadata
	if overrides.Title != "" {
		metadata.Title = overrides.Title
	}
	if overrides.Journal != "" {
		metadata.Journal = overrides.Journal
	}
	if len(overrides.Tags) > 0 {
		metadata.Tags = unionTags(metadata.Tags, overrides.Tags)
	}
	return &metadata, nil
}

// metadataFromOverrides synthesizes a manual record. The doi is the
// identifier itself when DOI-shaped, otherwise a deterministic
// "manual-<slug>" placeholder distinguishable from real DOIs.
func (p *Pipeline) metadataFromOverrides(req types.FetchRequest, overrides Overrides) (*types.ArticleMetadata, error) {
	if overrides.Title == "" {
		return nil, &Error{Identifier: req.Identifier}
	}

	doi := ident.ExtractDOI(req.Identifier)
	if doi == "" {
		doi = "manual-" + ident.Slugify(req.Identifier, 80)
	}

	tags := overrides.Tags
	if tags == nil {
		tags = []string{}
	} else {
		tags = unionTags(nil, tags)
	}

	return &types.ArticleMetadata{
		DOI:     doi,
		Title:   overrides.Title,
		Journal: overrides.Journal,
		Tags:    tags,
		Authors: []types.Author{{GivenName: "Unknown", FamilyName: "Author"}},
	}, nil
}

// unionTags merges two tag lists into a sorted, duplicate-free set.
func unionTags(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, tag := range list {
			if tag != "" {
				seen[tag] = struct{}{}
			}
		}
	}
	merged := make([]string, 0, len(seen))
	for tag := range seen {
		merged = append(merged, tag)
	}
	sort.Strings(merged)
	return merged
}

// copyFile copies src to dst, creating dst's directory as needed.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}
