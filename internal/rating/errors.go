package rating

import (
	"fmt"

	"github.com/JaimeStill/curator/internal/fault"
)

// Domain errors for rating operations.
var (
	ErrInvalidWinner       = fmt.Errorf("%w: invalid winner", fault.ErrValidation)
	ErrInvalidConfidence   = fmt.Errorf("%w: invalid confidence", fault.ErrValidation)
	ErrSelfComparison      = fmt.Errorf("%w: a document cannot be compared with itself", fault.ErrValidation)
	ErrInvalidRecord       = fmt.Errorf("%w: invalid comparison record", fault.ErrValidation)
	ErrInvalidFilter       = fmt.Errorf("%w: invalid comparison filter", fault.ErrValidation)
	ErrUnknownDocument     = fmt.Errorf("%w: unknown document", fault.ErrNotFound)
	ErrComparisonNotFound  = fmt.Errorf("comparison %w", fault.ErrNotFound)
	ErrDuplicateComparison = fmt.Errorf("comparison %w", fault.ErrDuplicate)
	ErrConflict            = fmt.Errorf("%w: rating write conflict", fault.ErrConcurrency)
)

// MapHTTPStatus maps rating domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	return fault.MapHTTPStatus(err)
}
