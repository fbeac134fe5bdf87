package ai

import (
	"errors"
	"fmt"
)

// ErrNotConfigured indicates the analysis backend has no API key. Nothing is
// ever attempted against the backend in this state.
var ErrNotConfigured = errors.New("analysis backend not configured")

// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")

// BackendError wraps a backend-call failure that survived the retry budget.
type BackendError struct {
	Attempts int
	Err      error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("analysis backend failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }
