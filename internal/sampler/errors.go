package sampler

import (
	"fmt"

	"github.com/JaimeStill/curator/internal/fault"
)

// Domain errors for sampling queries.
var (
	ErrInvalidFilter = fmt.Errorf("%w: invalid sample filter", fault.ErrValidation)
	ErrInvalidOrder  = fmt.Errorf("%w: invalid sample order", fault.ErrValidation)
	ErrInvalidLimit  = fmt.Errorf("%w: limit must not be negative", fault.ErrValidation)
)

// MapHTTPStatus maps sampler domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	return fault.MapHTTPStatus(err)
}
