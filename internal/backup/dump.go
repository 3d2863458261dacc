// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package backup writes fetched notes to disk: the raw response as a single
// JSON file, and a one-file-per-note export with downloaded attachments.
package backup

import (
	"errors"
	"fmt"
	"os"

	"github.com/pdiddy/catch-backup/internal/catch"
)

var (
	// ErrFilenameRequired is returned when DumpRaw has no destination.
	ErrFilenameRequired = errors.New("output filename required")

	// ErrDirectoryRequired is returned when Export has no destination.
	ErrDirectoryRequired = errors.New("output directory required")

	// ErrNoData is returned when a dump or export runs without fetched notes.
	ErrNoData = errors.New("no notes data available: fetch first")
)

// DumpRaw writes the snapshot's response body to path exactly as received,
// replacing any existing file.
func DumpRaw(path string, snap *catch.Snapshot) error {
	if path == "" {
		return ErrFilenameRequired
	}
	if snap == nil || len(snap.Raw) == 0 {
		return ErrNoData
	}
	if err := os.WriteFile(path, snap.Raw, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
