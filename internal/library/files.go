// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package library

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/doifetch/internal/ident"
)

// TempPDFPath returns a unique scratch path under the library tmp/ area,
// derived from a slug of the identifier plus a random suffix so concurrent
// ingests of related identifiers never collide.
func (s *Store) TempPDFPath(identifier string) string {
	u := uuid.New()
	name := fmt.Sprintf("%s-%s.pdf", ident.Slugify(identifier, 80), hex.EncodeToString(u[:]))
	return filepath.Join(s.tmpDir, name)
}

// RegisterPDF moves the file at tempPath into the content-addressed tree
// and records it in the file registry. Physically identical content is
// stored exactly once: when the checksum is already registered the temp
// file is discarded and the existing path is returned. The registry row
// always takes the latest doi/source/license, so a later registration of
// the same bytes under a different doi takes over the entry.
//
// Registration is deliberately decoupled from Upsert; nothing requires an
// artifact row for doi to exist.
func (s *Store) RegisterPDF(ctx context.Context, doi, tempPath, source, license, hostType string) (string, string, error) {
	// Hash outside the store gate so slow I/O never blocks other callers.
	checksum, err := sha256File(tempPath)
	if err != nil {
		return "", "", fmt.Errorf("hashing %s: %w", tempPath, err)
	}

	shardDir := filepath.Join(s.pdfDir, checksum[:2])
	finalPath := filepath.Join(shardDir, checksum+".pdf")

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(finalPath); err == nil {
		// Dedup: the content is already stored, the new copy is redundant.
		if err := os.Remove(tempPath); err != nil && !os.IsNotExist(err) {
			return "", "", fmt.Errorf("discarding duplicate %s: %w", tempPath, err)
		}
	} else {
		if err := os.MkdirAll(shardDir, 0o755); err != nil {
			return "", "", fmt.Errorf("creating shard directory: %w", err)
		}
		if err := os.Rename(tempPath, finalPath); err != nil {
			return "", "", fmt.Errorf("moving %s into place: %w", tempPath, err)
		}
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO files (checksum, doi, path, source, license, host_type, ingested_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(checksum) DO UPDATE SET
			doi=excluded.doi, path=excluded.path, source=excluded.source,
			license=excluded.license, host_type=excluded.host_type,
			ingested_at=excluded.ingested_at`,
		checksum, doi, finalPath, source, license, hostType,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", "", fmt.Errorf("recording file registry entry: %w", err)
	}

	return finalPath, checksum, nil
}

// FileEntry is a row of the deduplicated file registry.
type FileEntry struct {
	Checksum   string
	DOI        string
	Path       string
	Source     string
	License    string
	HostType   string
	IngestedAt time.Time
}

// FindFile returns the registry entry for checksum, or nil when absent.
func (s *Store) FindFile(ctx context.Context, checksum string) (*FileEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		entry                     FileEntry
		source, license, hostType string
		ingestedAt                string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT checksum, doi, path, COALESCE(source, ''), COALESCE(license, ''),
			COALESCE(host_type, ''), ingested_at
		 FROM files WHERE checksum = ?`, checksum,
	).Scan(&entry.Checksum, &entry.DOI, &entry.Path, &source, &license, &hostType, &ingestedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading file entry: %w", err)
	}
	entry.Source, entry.License, entry.HostType = source, license, hostType
	if t, err := time.Parse(time.RFC3339Nano, ingestedAt); err == nil {
		entry.IngestedAt = t
	}
	return &entry, nil
}

func sha256File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
