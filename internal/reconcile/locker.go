package reconcile

import (
	"context"
	"database/sql"

	"github.com/JaimeStill/curator/pkg/repository"
)

// advisoryKey identifies the reconcile run lock among PostgreSQL advisory locks.
const advisoryKey int64 = 0x6375726174696f6e

// AdvisoryLocker holds a PostgreSQL session advisory lock for the length of a run.
type AdvisoryLocker struct {
	db *sql.DB
}

// NewAdvisoryLocker creates a Locker backed by db.
func NewAdvisoryLocker(db *sql.DB) *AdvisoryLocker {
	return &AdvisoryLocker{db: db}
}

func (l *AdvisoryLocker) TryLock(ctx context.Context) (func(context.Context) error, bool, error) {
	lock, ok, err := repository.TryAdvisoryLock(ctx, l.db, advisoryKey)
	if err != nil || !ok {
		return nil, false, err
	}
	return lock.Release, true, nil
}
