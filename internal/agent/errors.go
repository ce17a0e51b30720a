package agent

import (
	"errors"
	"fmt"

	"piedpiper/internal/search"
)

// Kind buckets handler failures for the audit trail. User-facing wording is
// chosen at the dispatch boundary; handlers deal in errors.
type Kind string

const (
	KindNone             Kind = ""
	KindUnavailable      Kind = "capability_unavailable"
	KindBackend          Kind = "backend_error"
	KindNoResult         Kind = "no_result"
	KindInvalidSelection Kind = "invalid_selection"
	KindNoMatch          Kind = "router_no_match"
)

var (
	// errNoResult signals an empty but healthy backend response.
	errNoResult = errors.New("no results")
	// errInvalidSelection signals a numbered pick outside the shown list.
	errInvalidSelection = errors.New("selection out of range")
)

// selectionError carries the valid range of a failed numbered pick so the
// spoken correction can restate it.
type selectionError struct {
	pick, max int
}

func (e *selectionError) Error() string {
	return fmt.Sprintf("pick %d of %d: selection out of range", e.pick, e.max)
}

func (e *selectionError) Is(target error) bool { return target == errInvalidSelection }

func errVideoUnavailable() error { return fmt.Errorf("video search: %w", search.ErrUnavailable) }
func errWebUnavailable() error   { return fmt.Errorf("web search: %w", search.ErrUnavailable) }

func classifyErr(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, search.ErrUnavailable):
		return KindUnavailable
	case errors.Is(err, errNoResult):
		return KindNoResult
	case errors.Is(err, errInvalidSelection):
		return KindInvalidSelection
	default:
		return KindBackend
	}
}

// apologyFor chooses the spoken fallback for a failed handler. A selection
// failure restates the valid range so the user can correct the pick.
func apologyFor(err error) string {
	var sel *selectionError
	if errors.As(err, &sel) {
		return fmt.Sprintf("That number isn't on the list. Please choose a number between 1 and %d.", sel.max)
	}
	return apology(classifyErr(err))
}

// apology maps an error kind to the spoken fallback line.
func apology(kind Kind) string {
	switch kind {
	case KindUnavailable:
		return "I can't reach my music search right now, so that part of me is offline. I can still chat about music!"
	case KindNoResult:
		return "I came up empty on that one. Want to try different words?"
	case KindInvalidSelection:
		return "That number isn't on the list. Try one of the numbers I read out."
	default:
		return "Something went wrong on my end while looking that up. Give me another try in a moment."
	}
}
