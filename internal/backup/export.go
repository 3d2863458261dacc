// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package backup

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/catch-backup/pkg/types"
)

const defaultMediaTimeout = 60 * time.Second

// ExportResult summarizes one export run.
type ExportResult struct {
	Notes              int
	Attachments        int
	SkippedAttachments int
	Entries            []ManifestEntry
}

// Exporter writes one text file per note and downloads note attachments.
// Notes and attachments are processed sequentially in collection order.
type Exporter struct {
	// Client downloads attachments.
	Client *http.Client

	// Out receives progress lines.
	Out io.Writer

	// Limiter paces attachment downloads. Nil means no pacing.
	Limiter *rate.Limiter

	// MaxRetries is passed to httputil.DoWithRetry for each attachment.
	MaxRetries int

	// UserAgent is sent with attachment requests when set.
	UserAgent string

	// SkipFailedMedia turns a failed attachment download into a warning.
	SkipFailedMedia bool
}

// NewExporter builds an Exporter from cfg writing progress to out.
func NewExporter(cfg types.ExportConfig, out io.Writer) *Exporter {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultMediaTimeout
	}
	e := &Exporter{
		Client:          &http.Client{Timeout: timeout},
		Out:             out,
		MaxRetries:      cfg.MaxRetries,
		UserAgent:       cfg.UserAgent,
		SkipFailedMedia: cfg.SkipFailedMedia,
	}
	if cfg.MediaDelay > 0 {
		e.Limiter = rate.NewLimiter(rate.Every(cfg.MediaDelay), 1)
	}
	return e
}

// Export replaces dir with a fresh export of coll: dir/<note>.txt for every
// note, dir/media/<id>-<idx><ext> for every attachment, and
// dir/manifest.yaml. Files written before a failure are left in place.
func (e *Exporter) Export(ctx context.Context, dir string, coll *types.Collection) (ExportResult, error) {
	if dir == "" {
		return ExportResult{}, ErrDirectoryRequired
	}
	if coll == nil {
		return ExportResult{}, ErrNoData
	}

	// Stale output from a previous run must not mix with this one.
	os.RemoveAll(dir)
	media := filepath.Join(dir, mediaDir)
	if err := os.MkdirAll(media, 0o755); err != nil {
		return ExportResult{}, fmt.Errorf("creating directory %s: %w", media, err)
	}

	out := e.Out
	if out == nil {
		out = io.Discard
	}

	var result ExportResult
	for _, note := range coll.Notes {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		filename := NoteFilename(note)
		attachments, skipped, err := e.fetchAttachments(ctx, out, dir, note)
		result.Attachments += len(attachments)
		result.SkippedAttachments += skipped
		if err != nil {
			return result, err
		}

		doc, err := RenderNote(note, attachments)
		if err != nil {
			return result, err
		}
		path := filepath.Join(dir, filename)
		if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
			return result, fmt.Errorf("writing %s: %w", path, err)
		}

		result.Notes++
		result.Entries = append(result.Entries, newManifestEntry(note, filename, attachments))
	}

	if err := writeManifest(dir, result.Entries); err != nil {
		return result, err
	}
	return result, nil
}

// fetchAttachments downloads every attachment of note into dir/media and
// returns the written paths in media order.
func (e *Exporter) fetchAttachments(ctx context.Context, out io.Writer, dir string, note types.Note) ([]string, int, error) {
	var (
		paths   []string
		skipped int
	)
	for idx, m := range note.Media {
		if e.Limiter != nil {
			if err := e.Limiter.Wait(ctx); err != nil {
				return paths, skipped, err
			}
		}

		path := filepath.Join(dir, mediaDir, MediaFilename(note.ID, idx, m.ContentType))
		fmt.Fprintf(out, "Fetching media for note %s size %d bytes\n", note.ID, m.Size)

		if err := e.downloadMedia(ctx, m.Src, path); err != nil {
			if !e.SkipFailedMedia || ctx.Err() != nil {
				return paths, skipped, fmt.Errorf("fetching media %d of note %s: %w", idx, note.ID, err)
			}
			fmt.Fprintf(out, "  warning: skipped media %d of note %s: %v\n", idx, note.ID, err)
			slog.Warn("media download skipped", "note", note.ID, "index", idx, "err", err)
			skipped++
			continue
		}
		paths = append(paths, path)
	}
	return paths, skipped, nil
}
