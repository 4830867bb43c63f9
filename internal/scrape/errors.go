package scrape

import (
	"context"
	"errors"
	"fmt"

	"github.com/digivice-labs/digigraph/internal/fetch"
)

// ErrMissingCitationTarget marks a citation anchor with no resolvable
// entry in the page's references section. It is logged and the citation
// skipped; it never escalates past the single citation.
var ErrMissingCitationTarget = errors.New("citation marker has no resolvable target")

// ParseError wraps a failure to parse fetched content into a document.
// Like a fetch failure it aborts only the site it occurred on.
type ParseError struct {
	// Site is the site identifier whose content failed to parse.
	Site string

	// Err is the underlying parser error.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Site, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// ClassificationError wraps a failure to classify a citation target,
// propagated from the fetch or parse of the target page. It is caught
// per citation: the citation is excluded from its candidate's count and
// the candidate survives.
type ClassificationError struct {
	// Target is the citation target that could not be classified.
	Target string

	// Err is the underlying fetch or parse error.
	Err error
}

// Error implements the error interface.
func (e *ClassificationError) Error() string {
	return fmt.Sprintf("classify %s: %v", e.Target, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *ClassificationError) Unwrap() error {
	return e.Err
}

// isFetchFailure reports whether an error is a retryable transport
// failure for one site. Cancellation is never retryable even when the
// fetch layer wrapped it.
func isFetchFailure(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var fetchErr *fetch.FetchError
	return errors.As(err, &fetchErr)
}
