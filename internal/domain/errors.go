package domain

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("not found")

// NetworkError is a connectivity failure (dial, reset, timeout, truncated body).
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("network error on %s: %v", e.URL, e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPError is a non-2xx response.
type HTTPError struct {
	URL    string
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("bad status %d from %s", e.Status, e.URL)
	}
	return fmt.Sprintf("bad status %d from %s: %s", e.Status, e.URL, e.Body)
}

// Transient reports whether the status is worth retrying (429 and 5xx).
func (e *HTTPError) Transient() bool {
	return e.Status == 429 || e.Status >= 500
}

// SchemaError means a payload did not decode into the expected shape.
// It is never retried.
type SchemaError struct {
	Business BusinessID
	Kind     ResourceKind
	Page     int
	Err      error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema error for %s %s page %d: %v", e.Business, e.Kind, e.Page, e.Err)
}
func (e *SchemaError) Unwrap() error { return e.Err }

// ExhaustedRetriesError carries the last error seen after the retry ladder ran out.
type ExhaustedRetriesError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedRetriesError) Error() string {
	return fmt.Sprintf("retries exhausted after %d attempts: %v", e.Attempts, e.Last)
}
func (e *ExhaustedRetriesError) Unwrap() error { return e.Last }

// PersistenceError wraps a failed write to the store or an export target.
type PersistenceError struct {
	Business BusinessID
	Op       string
	Err      error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s for %s: %v", e.Op, e.Business, e.Err)
}
func (e *PersistenceError) Unwrap() error { return e.Err }

// IsTransient reports whether err should feed the backoff ladder.
func IsTransient(err error) bool {
	var ne *NetworkError
	if errors.As(err, &ne) {
		return true
	}
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Transient()
	}
	return false
}
