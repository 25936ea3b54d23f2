// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package library persists article artifacts to a local SQLite database,
// keeps a full-text index in lockstep with every write, and owns the
// content-addressed PDF tree.
//
// The schema uses an FTS5 virtual table, which mattn/go-sqlite3 only
// compiles in under the sqlite_fts5 build tag. Build and test through the
// mage targets, or pass -tags sqlite_fts5 yourself.
package library

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/doifetch/pkg/types"
)

const (
	tmpDirName = "tmp"
	pdfDirName = "pdfs"
)

// Store is the SQLite-backed article library. All operations are safe for
// concurrent use; a single mutex serializes access to the database and the
// PDF tree so writes linearize and a read issued after a completed upsert
// observes it. Hashing and downloads happen outside the gate.
type Store struct {
	mu      sync.Mutex
	db      *sql.DB
	dataDir string
	tmpDir  string
	pdfDir  string
	warn    io.Writer
}

// Open creates the library directories, opens (or creates) the database,
// and migrates any legacy flat-file index. Non-fatal startup problems
// (corrupt legacy entries) are reported on warn and skipped.
func Open(cfg types.LibraryConfig, warn io.Writer) (*Store, error) {
	if warn == nil {
		warn = io.Discard
	}

	s := &Store{
		dataDir: cfg.DataDir,
		tmpDir:  filepath.Join(cfg.DataDir, tmpDirName),
		pdfDir:  filepath.Join(cfg.DataDir, pdfDirName),
		warn:    warn,
	}
	for _, dir := range []string{cfg.DataDir, s.tmpDir, s.pdfDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.DBPath()+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	s.db = db

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	if err := s.migrateLegacyIndex(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating legacy index: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Root returns the library data directory.
func (s *Store) Root() string {
	return s.dataDir
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS artifacts (
			doi TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			journal TEXT,
			abstract TEXT,
			publication_date TEXT,
			url TEXT,
			authors TEXT NOT NULL DEFAULT '[]',
			tags TEXT NOT NULL DEFAULT '[]',
			source_payload TEXT,
			stored_at TEXT NOT NULL,
			checksum TEXT,
			pdf_path TEXT,
			text_path TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_artifacts_stored_at ON artifacts(stored_at)`,
		`CREATE TABLE IF NOT EXISTS files (
			checksum TEXT PRIMARY KEY,
			doi TEXT NOT NULL,
			path TEXT NOT NULL,
			source TEXT,
			license TEXT,
			host_type TEXT,
			ingested_at TEXT NOT NULL
		)`,
		`CREATE VIRTUAL TABLE IF NOT EXISTS artifact_fts
			USING fts5(doi UNINDEXED, title, abstract, tags)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Upsert writes or overwrites the record keyed by the artifact's DOI and
// rebuilds its full-text row in the same transaction, so no reader observes
// the record without its index entry. Last write wins on every field.
// A zero StoredAt is stamped with the current time.
func (s *Store) Upsert(ctx context.Context, artifact *types.StoredArtifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upsertLocked(ctx, artifact)
}

func (s *Store) upsertLocked(ctx context.Context, artifact *types.StoredArtifact) error {
	if artifact.Metadata.DOI == "" {
		return fmt.Errorf("artifact has no doi")
	}
	if artifact.StoredAt.IsZero() {
		artifact.StoredAt = time.Now().UTC()
	}

	md := artifact.Metadata
	authorsJSON, err := json.Marshal(md.Authors)
	if err != nil {
		return fmt.Errorf("encoding authors: %w", err)
	}
	tags := md.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("encoding tags: %w", err)
	}

	pubDate := ""
	if !md.PublicationDate.IsZero() {
		pubDate = md.PublicationDate.UTC().Format(time.RFC3339)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO artifacts (doi, title, journal, abstract, publication_date, url,
			authors, tags, source_payload, stored_at, checksum, pdf_path, text_path)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(doi) DO UPDATE SET
			title=excluded.title, journal=excluded.journal, abstract=excluded.abstract,
			publication_date=excluded.publication_date, url=excluded.url,
			authors=excluded.authors, tags=excluded.tags,
			source_payload=excluded.source_payload, stored_at=excluded.stored_at,
			checksum=excluded.checksum, pdf_path=excluded.pdf_path,
			text_path=excluded.text_path`,
		md.DOI, md.Title, md.Journal, md.Abstract, pubDate, md.URL,
		string(authorsJSON), string(tagsJSON), string(md.SourcePayload),
		artifact.StoredAt.UTC().Format(time.RFC3339Nano),
		artifact.Checksum, artifact.PDFPath, artifact.TextPath,
	)
	if err != nil {
		return fmt.Errorf("upserting artifact: %w", err)
	}

	// Full-text rows are rebuilt wholesale per doi, no incremental diffing.
	if _, err := tx.ExecContext(ctx, `DELETE FROM artifact_fts WHERE doi = ?`, md.DOI); err != nil {
		return fmt.Errorf("clearing index row: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO artifact_fts (doi, title, abstract, tags) VALUES (?, ?, ?, ?)`,
		md.DOI, md.Title, md.Abstract, strings.Join(tags, " "),
	); err != nil {
		return fmt.Errorf("inserting index row: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing upsert: %w", err)
	}
	return nil
}

const artifactColumns = `doi, title, journal, abstract, publication_date, url,
	authors, tags, source_payload, stored_at, checksum, pdf_path, text_path`

// FindByDOI returns the artifact stored under doi, or nil when absent.
func (s *Store) FindByDOI(ctx context.Context, doi string) (*types.StoredArtifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findLocked(ctx, doi)
}

func (s *Store) findLocked(ctx context.Context, doi string) (*types.StoredArtifact, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+artifactColumns+` FROM artifacts WHERE doi = ?`, doi)
	artifact, err := scanArtifact(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading artifact %s: %w", doi, err)
	}
	return artifact, nil
}

// List returns all artifacts, most recently stored first.
func (s *Store) List(ctx context.Context) ([]*types.StoredArtifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+artifactColumns+` FROM artifacts ORDER BY stored_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing artifacts: %w", err)
	}
	defer rows.Close()

	var artifacts []*types.StoredArtifact
	for rows.Next() {
		artifact, err := scanArtifact(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning artifact: %w", err)
		}
		artifacts = append(artifacts, artifact)
	}
	return artifacts, rows.Err()
}

// Search runs an FTS5 query over title, abstract, and tags, returning
// matching artifacts in the engine's relevance order, capped at limit.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]*types.StoredArtifact, error) {
	if limit <= 0 {
		limit = 25
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT doi FROM artifact_fts WHERE artifact_fts MATCH ? LIMIT ?`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}
	var dois []string
	for rows.Next() {
		var doi string
		if err := rows.Scan(&doi); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning search hit: %w", err)
		}
		dois = append(dois, doi)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	artifacts := make([]*types.StoredArtifact, 0, len(dois))
	for _, doi := range dois {
		artifact, err := s.findLocked(ctx, doi)
		if err != nil {
			return nil, err
		}
		if artifact != nil {
			artifacts = append(artifacts, artifact)
		}
	}
	return artifacts, nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanArtifact(row rowScanner) (*types.StoredArtifact, error) {
	var (
		md                          types.ArticleMetadata
		journal, abstract, pubDate  sql.NullString
		pageURL, payload            sql.NullString
		checksum, pdfPath, textPath sql.NullString
		authorsJSON, tagsJSON       string
		storedAt                    string
	)
	err := row.Scan(&md.DOI, &md.Title, &journal, &abstract, &pubDate, &pageURL,
		&authorsJSON, &tagsJSON, &payload, &storedAt, &checksum, &pdfPath, &textPath)
	if err != nil {
		return nil, err
	}

	md.Journal = journal.String
	md.Abstract = abstract.String
	md.URL = pageURL.String
	if payload.String != "" {
		md.SourcePayload = json.RawMessage(payload.String)
	}
	if err := json.Unmarshal([]byte(authorsJSON), &md.Authors); err != nil {
		return nil, fmt.Errorf("decoding authors: %w", err)
	}
	if err := json.Unmarshal([]byte(tagsJSON), &md.Tags); err != nil {
		return nil, fmt.Errorf("decoding tags: %w", err)
	}
	if pubDate.String != "" {
		t, err := time.Parse(time.RFC3339, pubDate.String)
		if err != nil {
			return nil, fmt.Errorf("decoding publication date: %w", err)
		}
		md.PublicationDate = t
	}

	artifact := &types.StoredArtifact{
		Metadata: md,
		PDFPath:  pdfPath.String,
		TextPath: textPath.String,
		Checksum: checksum.String,
	}
	if storedAt != "" {
		t, err := time.Parse(time.RFC3339Nano, storedAt)
		if err != nil {
			return nil, fmt.Errorf("decoding stored_at: %w", err)
		}
		artifact.StoredAt = t
	}
	return artifact, nil
}
