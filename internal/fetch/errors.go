// SPDX-License-Identifier: MPL-2.0

package fetch

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrFetch is the sentinel wrapped by every FetchError.
var ErrFetch = errors.New("fetch failed")

type (
	// Transport names the path a file was requested through.
	Transport string

	// FetchError reports a failed retrieval of one file. It is returned for
	// non-success responses, transport failures and decode failures alike.
	FetchError struct {
		Path      string
		Ref       string
		Transport Transport
		Err       error
	}

	// RateLimitError is returned when the GitHub API rate limit is exceeded.
	RateLimitError struct {
		Limit     int
		Remaining int
		ResetAt   time.Time
	}

	// StatusError reports a non-success HTTP status.
	StatusError struct {
		StatusCode int
	}
)

const (
	// TransportAPI is the authenticated contents API.
	TransportAPI Transport = "api"
	// TransportRaw is the unauthenticated direct download.
	TransportRaw Transport = "raw"
	// TransportContent marks content rejected after a successful transfer.
	TransportContent Transport = "content"
)

// Error implements the error interface.
func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching %s@%s via %s: %v", e.Path, e.Ref, e.Transport, e.Err)
}

// Is reports whether target is ErrFetch so callers can match without As.
func (e *FetchError) Is(target error) bool { return target == ErrFetch }

// Unwrap returns the underlying cause.
func (e *FetchError) Unwrap() error { return e.Err }

// Error formats the rate limit details as a human-readable message.
func (e *RateLimitError) Error() string {
	return fmt.Sprintf("GitHub API rate limit exceeded (%d remaining, resets at %s)",
		e.Remaining, e.ResetAt.UTC().Format("15:04 UTC"))
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.StatusCode)
}

// NotFound reports whether the status was 404.
func (e *StatusError) NotFound() bool { return e.StatusCode == http.StatusNotFound }
