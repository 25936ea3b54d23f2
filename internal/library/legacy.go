// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package library

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pdiddy/doifetch/pkg/types"
)

const legacyIndexName = "library-index.json"

// legacyTime parses the timestamps found in old index files. The previous
// implementation wrote naive local datetimes without a zone suffix, so
// RFC 3339 alone rejects every real entry.
type legacyTime struct {
	time.Time
}

var legacyTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

func (t *legacyTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	for _, layout := range legacyTimeLayouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", s)
}

// legacyMetadata and legacyArtifact mirror the stored shapes with tolerant
// timestamp decoding. Everything else carries the same keys as pkg/types.
type legacyMetadata struct {
	DOI             string          `json:"doi"`
	Title           string          `json:"title"`
	Authors         []types.Author  `json:"authors"`
	Journal         string          `json:"journal"`
	Abstract        string          `json:"abstract"`
	PublicationDate legacyTime      `json:"publication_date"`
	URL             string          `json:"url"`
	Tags            []string        `json:"tags"`
	SourcePayload   json.RawMessage `json:"source_payload"`
}

type legacyArtifact struct {
	Metadata legacyMetadata `json:"metadata"`
	PDFPath  string         `json:"pdf_path"`
	TextPath string         `json:"text_path"`
	Checksum string         `json:"checksum"`
	StoredAt legacyTime     `json:"stored_at"`
}

func (a legacyArtifact) artifact() *types.StoredArtifact {
	return &types.StoredArtifact{
		Metadata: types.ArticleMetadata{
			DOI:             a.Metadata.DOI,
			Title:           a.Metadata.Title,
			Authors:         a.Metadata.Authors,
			Journal:         a.Metadata.Journal,
			Abstract:        a.Metadata.Abstract,
			PublicationDate: a.Metadata.PublicationDate.Time,
			URL:             a.Metadata.URL,
			Tags:            a.Metadata.Tags,
			SourcePayload:   a.Metadata.SourcePayload,
		},
		PDFPath:  a.PDFPath,
		TextPath: a.TextPath,
		Checksum: a.Checksum,
		StoredAt: a.StoredAt.Time,
	}
}

// migrateLegacyIndex imports the flat-file index older library versions
// wrote, upserting each entry into the relational store, then renames the
// file so the migration runs exactly once. Corrupt data is reported on the
// warning writer and skipped; it never blocks startup.
func (s *Store) migrateLegacyIndex() error {
	path := filepath.Join(s.dataDir, legacyIndexName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		fmt.Fprintf(s.warn, "warning: legacy index %s is corrupt, skipping migration: %v\n", path, err)
		return nil
	}

	// Open has not published the store yet, so the gate is not needed here.
	ctx := context.Background()
	migrated := 0
	for i, raw := range entries {
		var entry legacyArtifact
		if err := json.Unmarshal(raw, &entry); err != nil {
			fmt.Fprintf(s.warn, "warning: legacy index entry %d is corrupt, skipped: %v\n", i, err)
			continue
		}
		if entry.Metadata.DOI == "" {
			fmt.Fprintf(s.warn, "warning: legacy index entry %d has no doi, skipped\n", i)
			continue
		}
		artifact := entry.artifact()
		if err := s.upsertLocked(ctx, artifact); err != nil {
			fmt.Fprintf(s.warn, "warning: legacy index entry %s not migrated: %v\n", artifact.Metadata.DOI, err)
			continue
		}
		migrated++
	}

	if migrated > 0 {
		fmt.Fprintf(s.warn, "migrated %d legacy index entries\n", migrated)
	}
	if err := os.Rename(path, path+".migrated"); err != nil {
		return fmt.Errorf("renaming migrated index: %w", err)
	}
	return nil
}
