// Package fault defines the error taxonomy shared by every curator domain.
// Domain packages wrap one of the kinds below so callers can branch on either
// the specific error or its kind with errors.Is.
package fault

import (
	"errors"
	"net/http"
)

// Error kinds.
var (
	// ErrNotFound indicates a referenced document, tag, or comparison is absent.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates malformed input: filters, winners, transitions, queries.
	ErrValidation = errors.New("validation failed")
	// ErrConsistency indicates an unreadable snapshot or a state machine violation.
	ErrConsistency = errors.New("consistency violation")
	// ErrConcurrency indicates a write conflict detected at commit or lock time.
	ErrConcurrency = errors.New("concurrent modification")
	// ErrDuplicate indicates a unique key collision.
	ErrDuplicate = errors.New("already exists")
)

// Kind returns the taxonomy kind err wraps, or nil when err is unclassified.
func Kind(err error) error {
	for _, kind := range []error{
		ErrNotFound,
		ErrValidation,
		ErrConsistency,
		ErrConcurrency,
		ErrDuplicate,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// MapHTTPStatus maps an error to the HTTP status code of its kind.
func MapHTTPStatus(err error) int {
	switch Kind(err) {
	case ErrNotFound:
		return http.StatusNotFound
	case ErrValidation:
		return http.StatusBadRequest
	case ErrConsistency, ErrConcurrency, ErrDuplicate:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
