package search

import (
	"errors"
	"fmt"
)

// ErrUnavailable is returned when the backing provider has no credential
// configured. Callers are expected to check Available() first and degrade
// with a user-facing message rather than surfacing this error.
var ErrUnavailable = errors.New("search backend unavailable: missing credential")

// BackendError wraps a transient provider failure (non-success transport
// response, timeout, malformed payload). Handlers catch it at their boundary
// and continue the conversation.
type BackendError struct {
	Provider string
	Status   int
	Err      error
}

func (e *BackendError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s backend error: status %d", e.Provider, e.Status)
	}
	return fmt.Sprintf("%s backend error: %v", e.Provider, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }
