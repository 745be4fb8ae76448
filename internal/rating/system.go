package rating

import (
	"context"
	"io"

	"github.com/JaimeStill/curator/pkg/pagination"
)

// System defines the public contract for rating operations.
type System interface {
	Handler(maxFeedBytes int64) *Handler

	// Apply records one comparison and updates both documents' ratings in a single
	// transaction. Applying the same command twice changes ratings twice.
	Apply(ctx context.Context, cmd ApplyCommand) (*Result, error)

	// Ingest applies a JSON-lines feed in arrival order. Records whose id is already
	// in the log are skipped as duplicates. An invalid record stops ingestion; the
	// records before it stay applied.
	Ingest(ctx context.Context, feed io.Reader) (*IngestReport, error)

	List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Comparison], error)

	// Rebuild replays the log over reset ratings and rewrites the cache,
	// returning how many documents changed.
	Rebuild(ctx context.Context) (int, error)

	// Verify computes the log projection read-only and returns every document
	// whose cached rating drifted from it.
	Verify(ctx context.Context) ([]Drift, error)

	Distribution(ctx context.Context) (*Distribution, error)
}
