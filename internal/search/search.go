// Package search ranks documents against a text query using the postings the
// documents package maintains. A document's score is the sum over matched
// terms of its weighted term frequency times ln(1 + N/df), where N is the
// corpus size and df the number of documents containing the term.
package search

import (
	"context"
	"fmt"

	"github.com/JaimeStill/curator/internal/documents"
	"github.com/JaimeStill/curator/pkg/textindex"
)

// DefaultLimit caps results when a query names no limit.
const DefaultLimit = 50

// Query is a search request. Text is tokenized the same way indexed fields
// are. With All set, only documents containing every term match.
type Query struct {
	Text  string `json:"q"`
	Limit int    `json:"limit"`
	All   bool   `json:"all"`
}

// Terms returns the distinct search terms of q, failing when there are none.
func (q Query) Terms() ([]string, error) {
	terms := textindex.Terms(q.Text)
	if len(terms) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidQuery, q.Text)
	}
	return terms, nil
}

// Hit is one ranked result.
type Hit struct {
	Document documents.Document `json:"document"`
	Score    float64            `json:"score"`
}

// Reindexer rebuilds every posting from stored document fields.
type Reindexer interface {
	Reindex(ctx context.Context) (int, error)
}

// System defines the public contract for search operations.
type System interface {
	Handler() *Handler

	// Search returns hits ordered by score descending, then rating descending,
	// then id ascending. A query without terms fails with ErrInvalidQuery.
	Search(ctx context.Context, q Query) ([]Hit, error)

	// Reindex rebuilds the index from scratch and returns the documents indexed.
	Reindex(ctx context.Context) (int, error)
}
