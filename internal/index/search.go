// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// QueryOptions holds parameters for index searches. Empty fields do not
// filter.
type QueryOptions struct {
	// Query matches note text case-insensitively as a substring.
	Query string

	// Tag keeps only notes carrying this tag.
	Tag string

	// NoteID keeps only the note with this id.
	NoteID string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// Result is one indexed note.
type Result struct {
	ID         string     `json:"id"`
	Text       string     `json:"text"`
	CreatedAt  *time.Time `json:"created_at,omitempty"`
	ModifiedAt *time.Time `json:"modified_at,omitempty"`
	ReminderAt *time.Time `json:"reminder_at,omitempty"`
	Longitude  string     `json:"longitude,omitempty"`
	Latitude   string     `json:"latitude,omitempty"`
	MediaCount int        `json:"media_count"`
	Tags       []string   `json:"tags"`
}

// Search returns notes matching opts, newest first. Notes without a
// creation time sort last.
func (s *Store) Search(ctx context.Context, opts QueryOptions) ([]Result, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(
		`SELECT n.id, n.text, n.created_at, n.modified_at, n.reminder_at,
			n.longitude, n.latitude, n.media_count
		FROM notes n
		WHERE 1=1`)

	if opts.Query != "" {
		qb.WriteString(` AND n.text LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(opts.Query)+"%")
	}
	if opts.NoteID != "" {
		qb.WriteString(` AND n.id = ?`)
		args = append(args, opts.NoteID)
	}
	if opts.Tag != "" {
		qb.WriteString(` AND EXISTS (SELECT 1 FROM note_tags t WHERE t.note_id = n.id AND t.tag = ?)`)
		args = append(args, opts.Tag)
	}

	qb.WriteString(` ORDER BY n.created_at IS NULL, n.created_at DESC, n.id LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var (
			r                       Result
			created, modified, remd sql.NullString
			lon, lat                sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.Text, &created, &modified, &remd, &lon, &lat, &r.MediaCount); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		if r.CreatedAt, err = parseStored(created); err != nil {
			return nil, err
		}
		if r.ModifiedAt, err = parseStored(modified); err != nil {
			return nil, err
		}
		if r.ReminderAt, err = parseStored(remd); err != nil {
			return nil, err
		}
		r.Longitude, r.Latitude = lon.String, lat.String
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}

	for i := range results {
		tags, err := s.tags(ctx, results[i].ID)
		if err != nil {
			return nil, err
		}
		results[i].Tags = tags
	}
	return results, nil
}

func (s *Store) tags(ctx context.Context, noteID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT tag FROM note_tags WHERE note_id = ? ORDER BY position`, noteID)
	if err != nil {
		return nil, fmt.Errorf("querying tags of %s: %w", noteID, err)
	}
	defer rows.Close()

	tags := []string{}
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, fmt.Errorf("scanning tag: %w", err)
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

func parseStored(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := time.Parse(storedTimeLayout, ns.String)
	if err != nil {
		return nil, fmt.Errorf("parsing stored time %q: %w", ns.String, err)
	}
	return &t, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
