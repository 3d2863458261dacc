// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared by the API client and the
// media downloader.
package httputil

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"net"
	"net/http"
	"syscall"
	"time"
)

// RetryBaseDelay controls the base duration for exponential backoff.
// Tests override this to avoid real sleeps.
var RetryBaseDelay = 1 * time.Second

const defaultMaxRetries = 3

// DoWithRetry executes an HTTP request and retries on HTTP 429, on 502, 503
// and 504, and on transient network errors, with exponential backoff. The
// delay starts at RetryBaseDelay and doubles each attempt.
//
// When maxRetries is 0 the default (3) is used; a negative value disables
// retrying. On each retried response the body is drained and closed before
// sleeping. If the context is cancelled during a backoff wait the function
// returns ctx.Err(). After exhausting retries the last response (or error)
// is returned so the caller can inspect it.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	if maxRetries == 0 {
		maxRetries = defaultMaxRetries
	}
	if maxRetries < 0 {
		maxRetries = 0
	}

	for attempt := 0; ; attempt++ {
		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			if attempt >= maxRetries || ctx.Err() != nil || !isTransient(err) {
				return nil, err
			}
			slog.Debug("request failed, retrying", "url", req.URL.Redacted(), "err", err, "attempt", attempt+1)
		} else {
			if !retryableStatus(resp.StatusCode) || attempt >= maxRetries {
				return resp, nil
			}
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			slog.Debug("retryable status, retrying", "url", req.URL.Redacted(), "status", resp.StatusCode, "attempt", attempt+1)
		}

		backoff := time.Duration(math.Pow(2, float64(attempt))) * RetryBaseDelay

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// isTransient reports whether err looks like a network blip worth retrying.
func isTransient(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.EOF)
}
