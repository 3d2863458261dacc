// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catch fetches notes from the Catch notes API and normalizes the
// response into typed notes.
package catch

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/catch-backup/internal/credentials"
	"github.com/pdiddy/catch-backup/internal/httputil"
	"github.com/pdiddy/catch-backup/pkg/types"
)

const (
	// DefaultBaseURL is the production API host.
	DefaultBaseURL = "https://api.catch.com"

	// NotesPath is the full-notes endpoint, relative to the base URL.
	NotesPath = "/v2/notes.json?full=1"

	defaultTimeout   = 60 * time.Second
	defaultUserAgent = "catch-backup/0.1"
)

// HTTPStatusError reports a non-200 response from the notes endpoint.
type HTTPStatusError struct {
	StatusCode int
	Reason     string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("%d response from server. Reason: %s", e.StatusCode, e.Reason)
}

// Snapshot is the outcome of one successful fetch: the response body exactly
// as received and the normalized notes decoded from it.
type Snapshot struct {
	Raw        []byte
	Collection types.Collection
}

// Client talks to the notes API.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	UserAgent  string
	MaxRetries int
}

// NewClient returns a Client for cfg, filling in defaults for empty fields.
func NewClient(cfg types.APIConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c := &Client{
		BaseURL:    cfg.BaseURL,
		HTTPClient: &http.Client{Timeout: timeout},
		UserAgent:  cfg.UserAgent,
		MaxRetries: cfg.MaxRetries,
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}
	return c
}

// BasicAuth returns the Authorization header value for creds.
func BasicAuth(creds types.Credentials) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(creds.Username+":"+creds.Password))
}

// FetchNotes downloads every note with its full body. Credentials are
// checked before any request is made. A non-200 response yields an
// *HTTPStatusError.
func (c *Client) FetchNotes(ctx context.Context, creds types.Credentials) (*Snapshot, error) {
	if err := credentials.Validate(creds); err != nil {
		return nil, err
	}

	url := strings.TrimRight(c.BaseURL, "/") + NotesPath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", BasicAuth(creds))
	req.Header.Set("Accept", "application/json")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := httputil.DoWithRetry(ctx, client, req, c.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("notes API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPStatusError{StatusCode: resp.StatusCode, Reason: reason(resp)}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading notes response: %w", err)
	}

	coll, err := Decode(raw)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Raw: raw, Collection: coll}, nil
}

// reason extracts the reason phrase from the status line, falling back to
// the standard text for the code.
func reason(resp *http.Response) string {
	if _, text, ok := strings.Cut(resp.Status, " "); ok && text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}
