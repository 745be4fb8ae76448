package search

import (
	"fmt"

	"github.com/JaimeStill/curator/internal/fault"
)

// Domain errors for search queries.
var (
	ErrInvalidQuery = fmt.Errorf("%w: query has no searchable terms", fault.ErrValidation)
	ErrInvalidLimit = fmt.Errorf("%w: limit must not be negative", fault.ErrValidation)
)

// MapHTTPStatus maps search domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	return fault.MapHTTPStatus(err)
}
