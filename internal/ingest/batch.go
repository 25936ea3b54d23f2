// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import (
	"context"
	"fmt"
	"io"

	"github.com/pdiddy/doifetch/pkg/types"
)

// BatchItem pairs an identifier with its per-item overrides and optional
// local PDF. Batch callers (the add and batch commands) build these from
// flags or scanned files.
type BatchItem struct {
	Identifier string
	Overrides  Overrides
	LocalPDF   string
}

// BatchResult holds the outcome of a batch ingest run.
type BatchResult struct {
	Created   int
	Updated   int
	Failed    int
	Artifacts []*types.StoredArtifact
}

// Total returns the total number of identifiers processed.
func (r BatchResult) Total() int {
	return r.Created + r.Updated + r.Failed
}

// HasFailures reports whether any items failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// IngestBatch processes items sequentially, printing per-item status and a
// summary to w. It continues after individual failures.
func (p *Pipeline) IngestBatch(ctx context.Context, items []BatchItem, w io.Writer) BatchResult {
	var result BatchResult
	for _, item := range items {
		outcome, err := p.Ingest(ctx, types.NewFetchRequest(item.Identifier), item.Overrides, true, item.LocalPDF)
		if err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", item.Identifier, err)
			result.Failed++
			continue
		}
		verb := "updated"
		if outcome.Created {
			verb = "added"
			result.Created++
		} else {
			result.Updated++
		}
		pdfNote := ""
		if outcome.PDFSaved {
			pdfNote = " [pdf]"
		}
		fmt.Fprintf(w, "%s: %s%s\n", verb, outcome.Artifact.Metadata.DOI, pdfNote)
		result.Artifacts = append(result.Artifacts, outcome.Artifact)
	}
	fmt.Fprintf(w, "\nBatch summary: %d added, %d updated, %d failed (total: %d)\n",
		result.Created, result.Updated, result.Failed, result.Total())
	return result
}
