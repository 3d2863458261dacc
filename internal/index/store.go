// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package index keeps a local SQLite index of backed-up notes so they can be
// searched offline by text, tag, or id.
package index

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/catch-backup/pkg/types"
)

const defaultMaxResults = 20

// Store manages the notes index database.
type Store struct {
	db         *sql.DB
	maxResults int
}

// Open opens or creates the index database at cfg.DBPath and creates the
// schema if it does not exist.
func Open(cfg types.IndexConfig) (*Store, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("index database path required")
	}
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating index directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	s := &Store{db: db, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS notes (
			id TEXT PRIMARY KEY,
			text TEXT NOT NULL DEFAULT '',
			created_at TEXT,
			modified_at TEXT,
			reminder_at TEXT,
			longitude TEXT,
			latitude TEXT,
			media_count INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS note_tags (
			note_id TEXT NOT NULL REFERENCES notes(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			tag TEXT NOT NULL,
			PRIMARY KEY (note_id, position)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_note_tags_tag ON note_tags(tag)`,
		`CREATE INDEX IF NOT EXISTS idx_notes_created_at ON notes(created_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// IngestSummary holds counts from one indexing run.
type IngestSummary struct {
	Inserted int
	Updated  int
}

// Total returns the number of notes processed.
func (s IngestSummary) Total() int {
	return s.Inserted + s.Updated
}

// Ingest upserts every note of coll in a single transaction, replacing the
// tags of notes already indexed.
func (s *Store) Ingest(ctx context.Context, coll types.Collection) (IngestSummary, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	upsert, err := tx.PrepareContext(ctx,
		`INSERT INTO notes (id, text, created_at, modified_at, reminder_at, longitude, latitude, media_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			text=excluded.text, created_at=excluded.created_at,
			modified_at=excluded.modified_at, reminder_at=excluded.reminder_at,
			longitude=excluded.longitude, latitude=excluded.latitude,
			media_count=excluded.media_count`)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("preparing note upsert: %w", err)
	}
	defer upsert.Close()

	insertTag, err := tx.PrepareContext(ctx,
		`INSERT INTO note_tags (note_id, position, tag) VALUES (?, ?, ?)`)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("preparing tag insert: %w", err)
	}
	defer insertTag.Close()

	var summary IngestSummary
	for _, n := range coll.Notes {
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT count(*) FROM notes WHERE id = ?`, n.ID).Scan(&exists); err != nil {
			return IngestSummary{}, fmt.Errorf("checking note %s: %w", n.ID, err)
		}

		lon, lat, _ := n.Coordinates()
		if _, err := upsert.ExecContext(ctx,
			n.ID, n.Text,
			nullTime(n.CreatedAt), nullTime(n.ModifiedAt), nullTime(n.ReminderAt),
			nullString(lon), nullString(lat), len(n.Media),
		); err != nil {
			return IngestSummary{}, fmt.Errorf("upserting note %s: %w", n.ID, err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM note_tags WHERE note_id = ?`, n.ID); err != nil {
			return IngestSummary{}, fmt.Errorf("clearing tags of note %s: %w", n.ID, err)
		}
		for i, tag := range n.Tags {
			if _, err := insertTag.ExecContext(ctx, n.ID, i, tag); err != nil {
				return IngestSummary{}, fmt.Errorf("inserting tag %q of note %s: %w", tag, n.ID, err)
			}
		}

		if exists > 0 {
			summary.Updated++
		} else {
			summary.Inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return IngestSummary{}, fmt.Errorf("committing: %w", err)
	}
	return summary, nil
}

// Count returns the number of indexed notes.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM notes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting notes: %w", err)
	}
	return n, nil
}

// storedTimeLayout sorts lexically in the same order as the times.
const storedTimeLayout = "2006-01-02T15:04:05.000000000Z"

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(storedTimeLayout), Valid: true}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
