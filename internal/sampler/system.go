// Package sampler answers declarative read queries over the record store:
// filtered and ordered samples, seeded random samples, and per-category tops.
// Every operation is read-only; marking documents as sampled is an explicit
// write in the documents package.
package sampler

import (
	"context"

	"github.com/JaimeStill/curator/internal/documents"
)

// RandomRequest draws Limit documents uniformly from those matching Filters.
// The same Seed over the same store contents draws the same documents.
type RandomRequest struct {
	Filters map[string]any `json:"filters,omitempty"`
	Limit   int            `json:"limit"`
	Seed    uint64         `json:"seed"`
}

// TopRequest keeps the first PerCategory documents of every category in
// OrderBy order (rewrite score, highest first, when unset).
type TopRequest struct {
	Filters     map[string]any `json:"filters,omitempty"`
	PerCategory int            `json:"per_category"`
	OrderBy     *OrderBy       `json:"order_by,omitempty"`
}

// Group is one category's slice of a TopByCategory result. Category is nil
// for uncategorized documents, which are listed last.
type Group struct {
	Category  *string              `json:"category"`
	Documents []documents.Document `json:"documents"`
}

// Defaults parameterize the exploration and exploitation presets.
type Defaults struct {
	ExplorationMaxComparisons  int
	ExplorationMinRewriteScore float64
	ExploitationMinElo         int
	Limit                      int
}

// DefaultLimit applies when a preset request names no limit.
const DefaultLimit = 10

func (d Defaults) withFallbacks() Defaults {
	if d.Limit <= 0 {
		d.Limit = DefaultLimit
	}
	return d
}

// System defines the public contract for sampling operations.
type System interface {
	Handler() *Handler

	// Sample returns at most req.Limit documents satisfying every filter, in
	// order with ascending id as the final tiebreak. A zero limit returns an
	// empty result without querying.
	Sample(ctx context.Context, req Request) ([]documents.Document, error)

	Random(ctx context.Context, req RandomRequest) ([]documents.Document, error)

	TopByCategory(ctx context.Context, req TopRequest) ([]Group, error)
}
