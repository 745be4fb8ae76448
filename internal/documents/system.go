package documents

import (
	"context"

	"github.com/JaimeStill/curator/pkg/pagination"
)

// System defines the public contract for Record Store operations.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Document], error)

	Find(ctx context.Context, id string) (*Document, error)

	// All returns every document ordered by id.
	All(ctx context.Context) ([]Document, error)

	// Create registers a pending document with its tags and search postings.
	Create(ctx context.Context, cmd CreateCommand) (*Document, error)

	// Update changes content fields, rewriting postings only when indexed fields change.
	// An update that changes nothing writes nothing.
	Update(ctx context.Context, id string, cmd UpdateCommand) (*Document, error)

	SetTags(ctx context.Context, id string, tags []string) (*Document, error)
	SetScores(ctx context.Context, id string, cmd ScoresCommand) (*Document, error)

	// MarkSampled sets the sampled flag on every id and returns how many rows changed.
	// Fails with ErrNotFound, writing nothing, if any id is unknown.
	MarkSampled(ctx context.Context, ids []string, sampled bool) (int, error)

	// Archive moves a pending document to archived.
	Archive(ctx context.Context, id, reason string) (*Document, error)

	// Apply locks the document, asks decide for a change against the locked row,
	// and writes it with its lifecycle events in the same transaction. An empty
	// change writes nothing and leaves updated_at untouched.
	Apply(ctx context.Context, id string, decide func(Document) Change) (*Document, Change, error)

	History(ctx context.Context, id string) ([]Event, error)

	// Stats computes aggregate counts from row state at call time.
	Stats(ctx context.Context) (*Stats, error)

	// Reindex rebuilds every search posting from stored fields.
	Reindex(ctx context.Context) (int, error)
}
