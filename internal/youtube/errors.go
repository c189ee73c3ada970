package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	// ErrQuotaExceeded means the local daily budget cannot cover the call.
	// No request was sent.
	ErrQuotaExceeded = errors.New("youtube: daily quota would be exceeded")
	// ErrAccessDenied means the provider rejected the key or request category.
	ErrAccessDenied = errors.New("youtube: access denied")
	// ErrMetricsUnavailable means the provider could not be reached or kept
	// failing after all retries.
	ErrMetricsUnavailable = errors.New("youtube: metrics unavailable")
	// ErrNotFound means the provider reports no such video or channel.
	ErrNotFound = errors.New("youtube: not found")
)

// HTTPError is a non-2xx provider response.
type HTTPError struct {
	StatusCode int
	Status     string
	Retry      time.Duration // parsed Retry-After, zero if absent
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("youtube: %s: %s", e.Status, e.Body)
	}
	return "youtube: " + e.Status
}

// RetryAfter implements the hint consumed by RetryPolicy.
func (e *HTTPError) RetryAfter() time.Duration {
	return e.Retry
}

// IsDeferrable reports whether a failed fetch should simply be tried again
// on a later cycle.
func IsDeferrable(err error) bool {
	return errors.Is(err, ErrQuotaExceeded) || errors.Is(err, ErrMetricsUnavailable)
}

// classify maps a terminal request error onto the package taxonomy.
func classify(err error) error {
	var herr *HTTPError
	if errors.As(err, &herr) {
		switch herr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %w", ErrAccessDenied, err)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %w", ErrNotFound, err)
		}
	}
	return fmt.Errorf("%w: %w", ErrMetricsUnavailable, err)
}

// retryable is the default retry predicate: network failures, 429 and 5xx.
func retryable(err error) bool {
	var herr *HTTPError
	if errors.As(err, &herr) {
		return herr.StatusCode == http.StatusTooManyRequests || herr.StatusCode >= 500
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var derr *decodeError
	return !errors.As(err, &derr)
}

// decodeError marks a malformed 2xx body; retrying will not fix it.
type decodeError struct{ err error }

func (e *decodeError) Error() string { return "youtube: decode response: " + e.err.Error() }
func (e *decodeError) Unwrap() error { return e.err }
