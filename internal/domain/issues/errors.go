package issues

import (
	"errors"
	"fmt"
)

// ErrInvalidRepoKey indicates a repository key that is not "owner/name".
var ErrInvalidRepoKey = errors.New("invalid repository format")

// ErrEmptyPrompt indicates an analyze request with a blank prompt.
var ErrEmptyPrompt = errors.New("analysis prompt cannot be empty")

// ErrNotScanned indicates an analyze request for a repository with no snapshot.
var ErrNotScanned = errors.New("repository not yet scanned")

// FetchKind classifies a failed tracker fetch.
type FetchKind string

const (
	FetchRateLimited FetchKind = "rate_limited"
	FetchNotFound    FetchKind = "not_found"
	FetchRemote      FetchKind = "remote_error"
	FetchTimeout     FetchKind = "timeout"
	FetchNetwork     FetchKind = "network"
)

// FetchError is a terminal tracker failure. No partial results accompany it.
type FetchError struct {
	Kind   FetchKind
	Status int // remote HTTP status for FetchRemote, 0 otherwise
	Detail string
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("tracker fetch failed (%s, status %d): %s", e.Kind, e.Status, e.Detail)
	}
	return fmt.Sprintf("tracker fetch failed (%s): %s", e.Kind, e.Detail)
}

func (e *FetchError) Unwrap() error { return e.Err }

// StoreError is a snapshot persistence failure. The prior snapshot's
// durability state is undefined, but the operation is reported failed so a
// scan is never treated as cached.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("snapshot store %s: %v", e.Op, e.Err) }

func (e *StoreError) Unwrap() error { return e.Err }
