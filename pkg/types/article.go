// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types holds the data structures shared across doifetch stages.
package types

import (
	"encoding/json"
	"strings"
	"time"
)

// Author is a single contributor to an article.
type Author struct {
	// GivenName is the author's given (first) name.
	GivenName string `json:"given_name" yaml:"given_name"`

	// FamilyName is the author's family (last) name.
	FamilyName string `json:"family_name" yaml:"family_name"`

	// Affiliation is a comma-joined list of institution names, if known.
	Affiliation string `json:"affiliation,omitempty" yaml:"affiliation,omitempty"`
}

// FullName joins the non-empty name parts with a space.
func (a Author) FullName() string {
	parts := make([]string, 0, 2)
	for _, p := range []string{a.GivenName, a.FamilyName} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// ArticleMetadata is the normalized description of an academic work.
// DOI is the primary identity and is always present on a resolved or
// manually constructed record; it is stored lowercased.
type ArticleMetadata struct {
	DOI     string   `json:"doi" yaml:"doi"`
	Title   string   `json:"title" yaml:"title"`
	Authors []Author `json:"authors" yaml:"authors"`

	// Journal is the first container title reported by the registry.
	Journal  string `json:"journal,omitempty" yaml:"journal,omitempty"`
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// PublicationDate is zero when the registry reported no usable date.
	PublicationDate time.Time `json:"publication_date,omitzero" yaml:"publication_date,omitempty"`

	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// Tags is kept sorted and duplicate-free.
	Tags []string `json:"tags" yaml:"tags"`

	// SourcePayload is the raw registry response, retained for audit.
	SourcePayload json.RawMessage `json:"source_payload,omitempty" yaml:"-"`
}

// FetchRequest is a user-initiated request to ingest an article.
// Identifier may be a DOI, a PMID, or a free-text query.
type FetchRequest struct {
	Identifier string    `json:"identifier" yaml:"identifier"`
	CreatedAt  time.Time `json:"created_at" yaml:"created_at"`
}

// NewFetchRequest stamps a request with the current time.
func NewFetchRequest(identifier string) FetchRequest {
	return FetchRequest{Identifier: identifier, CreatedAt: time.Now().UTC()}
}

// FetchResult is the outcome of a single resolver attempt.
type FetchResult struct {
	Metadata  ArticleMetadata `json:"metadata" yaml:"metadata"`
	Provider  string          `json:"provider" yaml:"provider"`
	FetchedAt time.Time       `json:"fetched_at" yaml:"fetched_at"`
}

// StoredArtifact is an article persisted to the local library, wrapping
// its metadata with the file state owned by storage.
type StoredArtifact struct {
	Metadata ArticleMetadata `json:"metadata" yaml:"metadata"`

	// PDFPath points at the content-addressed copy, set only after a
	// successful file registration.
	PDFPath string `json:"pdf_path,omitempty" yaml:"pdf_path,omitempty"`

	// TextPath is reserved for extracted text and may remain unset.
	TextPath string `json:"text_path,omitempty" yaml:"text_path,omitempty"`

	// Checksum is the sha-256 of the registered PDF, if any.
	Checksum string `json:"checksum,omitempty" yaml:"checksum,omitempty"`

	// StoredAt is refreshed on every upsert.
	StoredAt time.Time `json:"stored_at" yaml:"stored_at"`
}

// Download describes a PDF delivered by a fetcher.
type Download struct {
	// Path is where the file was written (normally a library temp path).
	Path string

	// Source names the provider that located the file (e.g. "unpaywall").
	Source string

	// License is the provider-reported license, when known.
	License string

	// HostType classifies the hosting site (e.g. "publisher", "repository",
	// "local" for caller-supplied files).
	HostType string
}
