package reconcile

import (
	"fmt"

	"github.com/JaimeStill/curator/internal/fault"
)

// Run-level errors. Each aborts the run before any transition is written.
var (
	ErrSnapshotUnreadable = fmt.Errorf("%w: snapshot unreadable", fault.ErrConsistency)
	ErrArchiveShrunk      = fmt.Errorf("%w: archive lost a known document", fault.ErrConsistency)
	ErrRunInProgress      = fmt.Errorf("%w: another reconciliation run holds the lock", fault.ErrConcurrency)
)

// MapHTTPStatus maps reconcile errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	return fault.MapHTTPStatus(err)
}
