// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package credentials obtains the username and password used to
// authenticate against the notes API. The interactive terminal provider and
// the fixed-value provider satisfy the same Provider interface so the
// backup pipeline never talks to a terminal directly.
package credentials

import (
	"context"
	"errors"

	"github.com/pdiddy/catch-backup/pkg/types"
)

var (
	// ErrUsernameRequired is returned when no username is available.
	ErrUsernameRequired = errors.New("username required")

	// ErrPasswordRequired is returned when no password is available.
	ErrPasswordRequired = errors.New("password required")

	// ErrCancelled is returned when the user interrupts an interactive prompt.
	ErrCancelled = errors.New("credential prompt cancelled")
)

// Provider supplies credentials for one run.
type Provider interface {
	Credentials(ctx context.Context) (types.Credentials, error)
}

// Validate checks that both fields of c are present.
func Validate(c types.Credentials) error {
	if c.Username == "" {
		return ErrUsernameRequired
	}
	if c.Password == "" {
		return ErrPasswordRequired
	}
	return nil
}

// Static is a non-interactive Provider returning fixed values.
type Static struct {
	Username string
	Password string
}

// Credentials returns the fixed values, or an error if either is empty.
func (s Static) Credentials(ctx context.Context) (types.Credentials, error) {
	c := types.Credentials{Username: s.Username, Password: s.Password}
	if err := Validate(c); err != nil {
		return types.Credentials{}, err
	}
	return c, nil
}
