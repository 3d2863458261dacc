// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package credentials

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// UsernameFile is the secrets file holding a default username.
const UsernameFile = "catch-username"

// LoadUsername reads dir/catch-username and returns its trimmed contents.
// A missing directory or file is not an error; LoadUsername returns "".
// Passwords are never read from disk.
func LoadUsername(dir string) (string, error) {
	if dir == "" {
		return "", nil
	}
	path := filepath.Join(dir, UsernameFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("reading secret %s: %w", path, err)
	}
	return strings.TrimSpace(string(data)), nil
}
