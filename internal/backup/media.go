// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package backup

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/catch-backup/internal/httputil"
)

const mediaDir = "media"

// extensionOverrides pins extensions for common attachment types, since
// mime.ExtensionsByType returns candidates in alphabetical order
// (".jfif" before ".jpg") and its answers depend on the host's mime tables.
var extensionOverrides = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"audio/mpeg": ".mp3",
	"audio/mp4":  ".m4a",
	"text/plain": ".txt",
}

// MediaExtension returns the file extension, with its dot, for a declared
// content type. Unknown types get no extension.
func MediaExtension(contentType string) string {
	mediaType := strings.ToLower(strings.TrimSpace(contentType))
	if parsed, _, err := mime.ParseMediaType(contentType); err == nil {
		mediaType = parsed
	}
	if ext, ok := extensionOverrides[mediaType]; ok {
		return ext
	}
	exts, err := mime.ExtensionsByType(mediaType)
	if err != nil || len(exts) == 0 {
		return ""
	}
	return exts[0]
}

// MediaFilename returns the name of attachment idx of note noteID.
func MediaFilename(noteID string, idx int, contentType string) string {
	return fmt.Sprintf("%s-%d%s", noteID, idx, MediaExtension(contentType))
}

// originalURL asks the media host for the full-size original.
func originalURL(src string) (string, error) {
	u, err := url.Parse(src)
	if err != nil {
		return "", fmt.Errorf("parsing media URL %q: %w", src, err)
	}
	// Signed URLs must keep their query bytes and order.
	if u.RawQuery == "" {
		u.RawQuery = "original=true"
	} else {
		u.RawQuery += "&original=true"
	}
	return u.String(), nil
}

// downloadMedia fetches src to destPath through a temporary file so a
// failed download never leaves a truncated attachment behind.
func (e *Exporter) downloadMedia(ctx context.Context, src, destPath string) error {
	reqURL, err := originalURL(src)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if e.UserAgent != "" {
		req.Header.Set("User-Agent", e.UserAgent)
	}

	client := e.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := httputil.DoWithRetry(ctx, client, req, e.MaxRetries)
	if err != nil {
		return fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d from %s", resp.StatusCode, src)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".media-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, copyErr := io.Copy(tmpFile, resp.Body)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
