package rating

import (
	"net/url"

	"github.com/JaimeStill/curator/pkg/query"
	"github.com/JaimeStill/curator/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "comparisons", "c").
	Project("id", "ID").
	Project("correlation_id", "CorrelationID").
	Project("document_a", "DocumentA").
	Project("document_b", "DocumentB").
	Project("winner", "Winner").
	Project("confidence", "Confidence").
	Project("context", "Context").
	Project("compared_at", "ComparedAt").
	Project("rating_a_before", "RatingABefore").
	Project("rating_a_after", "RatingAAfter").
	Project("rating_b_before", "RatingBBefore").
	Project("rating_b_after", "RatingBAfter")

var defaultSort = query.SortField{Field: "ID", Descending: true}

var idTiebreak = query.SortField{Field: "ID"}

// Filters contains optional filtering criteria for comparison history.
// Document matches either side of a comparison.
type Filters struct {
	Document   *string `json:"document,omitempty"`
	Winner     *string `json:"winner,omitempty"`
	Confidence *string `json:"confidence,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	b.
		WhereEquals("Winner", f.Winner).
		WhereEquals("Confidence", f.Confidence)

	if f.Document != nil && *f.Document != "" {
		b.WhereRaw("(c.document_a = $%d OR c.document_b = $%d)", *f.Document, *f.Document)
	}
	return b
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if d := values.Get("document"); d != "" {
		f.Document = &d
	}
	if w := values.Get("winner"); w != "" {
		f.Winner = &w
	}
	if c := values.Get("confidence"); c != "" {
		f.Confidence = &c
	}

	return f
}

func scanComparison(s repository.Scanner) (Comparison, error) {
	var c Comparison
	err := s.Scan(
		&c.ID,
		&c.CorrelationID,
		&c.DocumentA,
		&c.DocumentB,
		&c.Winner,
		&c.Confidence,
		&c.Context,
		&c.ComparedAt,
		&c.RatingABefore,
		&c.RatingAAfter,
		&c.RatingBBefore,
		&c.RatingBAfter,
	)
	return c, err
}
