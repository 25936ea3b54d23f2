// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scan finds ingest candidates in a directory of PDF files. Each
// PDF's first pages are inspected for a DOI and a plausible title so the
// batch command can ingest a downloads folder in one pass.
package scan

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/pdiddy/doifetch/internal/ident"
)

// doiScanPages bounds how deep into each PDF we look. The DOI is almost
// always on the first page; three covers title pages and preprint covers.
const doiScanPages = 3

// Candidate is one scanned PDF ready for ingestion. Identifier is the DOI
// when one was found, otherwise the filename stem; Title is a best-effort
// first-page heuristic, falling back to the filename stem.
type Candidate struct {
	Path       string
	Identifier string
	Title      string
	DOI        string
}

// Dir walks dir (non-recursively) for .pdf files and extracts a candidate
// from each. Unreadable PDFs are reported on warn and skipped. Results are
// sorted by path for stable batch ordering.
func Dir(dir string, warn io.Writer) ([]Candidate, error) {
	if warn == nil {
		warn = io.Discard
	}
	entries, err := filepath.Glob(filepath.Join(dir, "*.pdf"))
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	sort.Strings(entries)

	var candidates []Candidate
	for _, path := range entries {
		cand, err := File(path)
		if err != nil {
			fmt.Fprintf(warn, "warning: could not scan %s: %v\n", path, err)
			continue
		}
		candidates = append(candidates, cand)
	}
	return candidates, nil
}

// File extracts a candidate from one PDF.
func File(path string) (Candidate, error) {
	cand := Candidate{Path: path}

	text, err := firstPagesText(path, doiScanPages)
	if err != nil {
		return cand, err
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	cand.DOI = ident.ExtractDOI(text)
	cand.Title = titleLine(text)
	if cand.Title == "" {
		cand.Title = stem
	}

	if cand.DOI != "" {
		cand.Identifier = cand.DOI
	} else {
		cand.Identifier = stem
	}
	return cand, nil
}

// firstPagesText concatenates the plain text of up to maxPages pages.
func firstPagesText(path string, maxPages int) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if n := r.NumPage(); n < maxPages {
		maxPages = n
	}

	var builder strings.Builder
	for i := 1; i <= maxPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		builder.WriteString(text)
		builder.WriteString("\n")
	}
	return builder.String(), nil
}

// titleLine returns the first substantial line of first-page text, skipping
// lines that look like journal headers or footers.
func titleLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) > 20 && !isHeaderLine(line) {
			return line
		}
	}
	return ""
}

func isHeaderLine(line string) bool {
	lower := strings.ToLower(line)
	switch {
	case strings.Contains(lower, "journal"):
		return true
	case strings.Contains(lower, "volume") && strings.Contains(lower, "issue"):
		return true
	case strings.Contains(lower, "copyright"):
		return true
	case strings.Contains(lower, "downloaded from"):
		return true
	}
	return false
}
