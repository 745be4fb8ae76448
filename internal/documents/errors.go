package documents

import (
	"fmt"

	"github.com/JaimeStill/curator/internal/fault"
)

// Domain errors for document operations.
var (
	ErrNotFound          = fmt.Errorf("document %w", fault.ErrNotFound)
	ErrDuplicate         = fmt.Errorf("document %w", fault.ErrDuplicate)
	ErrInvalidDocument   = fmt.Errorf("%w: invalid document", fault.ErrValidation)
	ErrIllegalTransition = fmt.Errorf("%w: illegal lifecycle transition", fault.ErrConsistency)
	ErrConflict          = fmt.Errorf("%w: document write conflict", fault.ErrConcurrency)
)

// MapHTTPStatus maps document domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	return fault.MapHTTPStatus(err)
}
