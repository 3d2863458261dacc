// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/catch-backup/pkg/types"
)

// ManifestFile is written at the root of every export directory.
const ManifestFile = "manifest.yaml"

// ManifestEntry describes one exported note.
type ManifestEntry struct {
	ID          string     `yaml:"id"`
	File        string     `yaml:"file"`
	CreatedAt   *time.Time `yaml:"created_at,omitempty"`
	ModifiedAt  *time.Time `yaml:"modified_at,omitempty"`
	Tags        []string   `yaml:"tags,omitempty"`
	Attachments []string   `yaml:"attachments,omitempty"`
}

type manifest struct {
	Exported time.Time       `yaml:"exported"`
	Notes    []ManifestEntry `yaml:"notes"`
}

func newManifestEntry(n types.Note, file string, attachments []string) ManifestEntry {
	return ManifestEntry{
		ID:          n.ID,
		File:        file,
		CreatedAt:   n.CreatedAt,
		ModifiedAt:  n.ModifiedAt,
		Tags:        n.Tags,
		Attachments: attachments,
	}
}

func writeManifest(dir string, entries []ManifestEntry) error {
	data, err := yaml.Marshal(manifest{Exported: time.Now().UTC(), Notes: entries})
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	path := filepath.Join(dir, ManifestFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// ReadManifest loads the manifest of an export directory.
func ReadManifest(dir string) ([]ManifestEntry, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, err
	}
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return m.Notes, nil
}
