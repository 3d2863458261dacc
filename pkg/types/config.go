package types

import "time"

// HTTPConfig holds shared HTTP settings used by every component that makes
// network requests.
type HTTPConfig struct {
	// Timeout bounds each HTTP request, including reading the body.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "catch-backup/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// MaxRetries is the number of retries for rate-limited, 5xx, or
	// transiently failed requests. Zero uses the default (3); a negative
	// value disables retrying.
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// APIConfig holds settings for the notes API client.
type APIConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the scheme and host of the notes API
	// (default "https://api.catch.com").
	BaseURL string `json:"base_url" yaml:"base_url"`
}

// ExportConfig holds settings for the one-note-per-file export.
type ExportConfig struct {
	HTTPConfig `yaml:",inline"`

	// Dir is the export directory. It is removed and recreated on every run.
	Dir string `json:"dir" yaml:"dir"`

	// MediaDelay is the minimum delay between consecutive attachment
	// downloads. Zero means no pacing.
	MediaDelay time.Duration `json:"media_delay" yaml:"media_delay"`

	// SkipFailedMedia makes a failed attachment download a warning instead
	// of aborting the export.
	SkipFailedMedia bool `json:"skip_failed_media" yaml:"skip_failed_media"`
}

// IndexConfig holds settings for the local notes index.
type IndexConfig struct {
	// DBPath is the SQLite database file.
	DBPath string `json:"db_path" yaml:"db_path"`

	// MaxResults is the default maximum number of search results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}
