// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package credentials

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/pdiddy/catch-backup/pkg/types"
)

// interrupt is the ETX byte a terminal delivers for Ctrl-C when it is read
// as input rather than raised as a signal.
const interrupt = "\x03"

// Terminal prompts for credentials on an interactive terminal. The username
// prompt is skipped when Username is preset. The password is always
// prompted and never echoed. Empty answers are asked again.
type Terminal struct {
	// Username skips the username prompt when non-empty.
	Username string

	// In supplies username input. Defaults to os.Stdin.
	In io.Reader

	// Out receives the prompts. Defaults to os.Stdout.
	Out io.Writer

	// ReadPassword reads one password line without echo. Defaults to
	// term.ReadPassword on stdin.
	ReadPassword func() ([]byte, error)
}

// Credentials runs the prompts and returns the answers.
func (t *Terminal) Credentials(ctx context.Context) (types.Credentials, error) {
	in := t.In
	if in == nil {
		in = os.Stdin
	}
	out := t.Out
	if out == nil {
		out = os.Stdout
	}
	readPassword := t.ReadPassword
	if readPassword == nil {
		fd := int(os.Stdin.Fd())
		readPassword = func() ([]byte, error) {
			return term.ReadPassword(fd)
		}
		// An abandoned ReadPassword leaves echo off.
		if state, err := term.GetState(fd); err == nil {
			defer term.Restore(fd, state)
		}
	}

	username := t.Username
	if username == "" {
		var err error
		username, err = promptUsername(ctx, bufio.NewReader(in), out)
		if err != nil {
			return types.Credentials{}, err
		}
	}

	password, err := promptPassword(ctx, readPassword, out)
	if err != nil {
		return types.Credentials{}, err
	}

	return types.Credentials{Username: username, Password: password}, nil
}

// readResult carries the outcome of a blocking read back to the prompt.
type readResult[T any] struct {
	v   T
	err error
}

// readCancellable runs read on its own goroutine and gives up when ctx is
// done. The abandoned read stays blocked until its input yields.
func readCancellable[T any](ctx context.Context, read func() (T, error)) (T, error) {
	ch := make(chan readResult[T], 1)
	go func() {
		v, err := read()
		ch <- readResult[T]{v: v, err: err}
	}()
	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, cancelled(ctx)
	}
}

func cancelled(ctx context.Context) error {
	return fmt.Errorf("%w: %w", ErrCancelled, context.Cause(ctx))
}

func promptUsername(ctx context.Context, r *bufio.Reader, out io.Writer) (string, error) {
	for {
		if ctx.Err() != nil {
			return "", cancelled(ctx)
		}
		fmt.Fprint(out, "Username: ")
		line, err := readCancellable(ctx, func() (string, error) {
			return r.ReadString('\n')
		})
		if errors.Is(err, ErrCancelled) {
			fmt.Fprintln(out)
			return "", err
		}
		if strings.Contains(line, interrupt) {
			return "", ErrCancelled
		}
		if username := strings.TrimSpace(line); username != "" {
			return username, nil
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", ErrCancelled
			}
			return "", fmt.Errorf("reading username: %w", err)
		}
	}
}

func promptPassword(ctx context.Context, readPassword func() ([]byte, error), out io.Writer) (string, error) {
	for {
		if ctx.Err() != nil {
			return "", cancelled(ctx)
		}
		fmt.Fprint(out, "Password: ")
		b, err := readCancellable(ctx, readPassword)
		// The terminal swallowed the newline along with the echo.
		fmt.Fprintln(out)
		if errors.Is(err, ErrCancelled) {
			return "", err
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", ErrCancelled
			}
			return "", fmt.Errorf("reading password: %w", err)
		}
		password := string(b)
		if strings.Contains(password, interrupt) {
			return "", ErrCancelled
		}
		if password != "" {
			return password, nil
		}
	}
}
