package sampler

import (
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"slices"

	"github.com/JaimeStill/curator/internal/documents"
	"github.com/JaimeStill/curator/pkg/query"
)

// OrderBy names one sortable field. NULL values always sort last and ties
// are broken by ascending id.
type OrderBy struct {
	Field      string `json:"field"`
	Descending bool   `json:"descending"`
}

// Request is a declarative sample: a conjunction of filters, an optional
// order, and a row limit.
type Request struct {
	Filters map[string]any `json:"filters,omitempty"`
	OrderBy *OrderBy       `json:"order_by,omitempty"`
	Limit   int            `json:"limit"`
}

// Exploration selects under-compared documents worth comparing: fewer than
// maxComparisons comparisons, least-compared first. A positive
// minRewriteScore also requires a rewrite score of at least that value, which
// excludes unscored documents.
func Exploration(maxComparisons int, minRewriteScore float64, limit int) Request {
	filters := map[string]any{"max_comparison_count": maxComparisons}
	if minRewriteScore > 0 {
		filters["min_rewrite_score"] = minRewriteScore
	}
	return Request{
		Filters: filters,
		OrderBy: &OrderBy{Field: "comparison_count"},
		Limit:   limit,
	}
}

// Exploitation selects the strongest documents: a rating of at least minElo,
// highest first.
func Exploitation(minElo int, limit int) Request {
	return Request{
		Filters: map[string]any{"min_elo_rating": minElo},
		OrderBy: &OrderBy{Field: "elo_rating", Descending: true},
		Limit:   limit,
	}
}

type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindNumber
	kindBool
)

func (k valueKind) String() string {
	switch k {
	case kindInt:
		return "integer"
	case kindNumber:
		return "number"
	case kindBool:
		return "boolean"
	default:
		return "string"
	}
}

type filterSpec struct {
	field string
	op    string
	kind  valueKind
}

var filterKeys = map[string]filterSpec{
	"category":             {"Category", "=", kindString},
	"rewrite_type":         {"RewriteType", "=", kindString},
	"min_quality_score":    {"QualityScore", ">=", kindNumber},
	"min_rewrite_score":    {"RewriteScore", ">=", kindNumber},
	"min_elo_rating":       {"EloRating", ">=", kindInt},
	"max_comparison_count": {"ComparisonCount", "<", kindInt},
	"min_comparison_count": {"ComparisonCount", ">=", kindInt},
	"year_from":            {"Year", ">=", kindInt},
	"year_to":              {"Year", "<=", kindInt},
	"sampled":              {"Sampled", "=", kindBool},
	"is_reference":         {"IsReference", "=", kindBool},
}

const (
	statusKey = "status"
	tagKey    = "tag"
)

var orderFields = map[string]string{
	"elo_rating":       "EloRating",
	"quality_score":    "QualityScore",
	"rewrite_score":    "RewriteScore",
	"comparison_count": "ComparisonCount",
	"word_count":       "WordCount",
	"published_date":   "PublishedDate",
	"year":             "Year",
	"id":               "ID",
	"updated_at":       "UpdatedAt",
}

// FilterKeys returns every accepted filter key in sorted order.
func FilterKeys() []string {
	keys := slices.Collect(maps.Keys(filterKeys))
	keys = append(keys, statusKey, tagKey)
	slices.Sort(keys)
	return keys
}

// OrderFields returns every accepted order field in sorted order.
func OrderFields() []string {
	return slices.Sorted(maps.Keys(orderFields))
}

// Apply adds the request's filters and ordering to b. Keys are applied in
// sorted order so equal requests build identical SQL.
func (r Request) Apply(b *query.Builder) error {
	for _, key := range slices.Sorted(maps.Keys(r.Filters)) {
		if err := applyFilter(b, key, r.Filters[key]); err != nil {
			return err
		}
	}

	sort, err := r.sortFields()
	if err != nil {
		return err
	}
	b.OrderByFields(sort)
	return nil
}

func (r Request) sortFields() ([]query.SortField, error) {
	id := query.SortField{Field: "ID"}
	if r.OrderBy == nil {
		return []query.SortField{id}, nil
	}

	field, ok := orderFields[r.OrderBy.Field]
	if !ok {
		return nil, fmt.Errorf("%w: unknown field %q", ErrInvalidOrder, r.OrderBy.Field)
	}

	primary := query.SortField{Field: field, Descending: r.OrderBy.Descending, NullsLast: true}
	if field == "ID" {
		return []query.SortField{primary}, nil
	}
	return []query.SortField{primary, id}, nil
}

func applyFilter(b *query.Builder, key string, raw any) error {
	switch key {
	case statusKey:
		statuses, err := statusSet(raw)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidFilter, key, err)
		}
		values := make([]any, len(statuses))
		for i, s := range statuses {
			values[i] = string(s)
		}
		b.WhereIn("Status", values)
		return nil
	case tagKey:
		tag, err := coerce(raw, kindString)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidFilter, key, err)
		}
		b.WhereRaw(documents.TagClause, tag)
		return nil
	}

	spec, ok := filterKeys[key]
	if !ok {
		return fmt.Errorf("%w: unknown key %q", ErrInvalidFilter, key)
	}

	v, err := coerce(raw, spec.kind)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidFilter, key, err)
	}
	b.WhereCompare(spec.field, spec.op, v)
	return nil
}

// maxExactInt is the largest magnitude a float64 holds as an exact integer.
const maxExactInt = 1 << 53

// coerce converts a decoded JSON value (or a typed Go value) to the kind a
// filter compares against.
func coerce(raw any, kind valueKind) (any, error) {
	switch kind {
	case kindString:
		switch v := raw.(type) {
		case string:
			if v == "" {
				return nil, fmt.Errorf("empty string")
			}
			return v, nil
		case documents.Status:
			return string(v), nil
		}
	case kindBool:
		if v, ok := raw.(bool); ok {
			return v, nil
		}
	case kindInt:
		if f, ok := number(raw); ok {
			if f != math.Trunc(f) {
				return nil, fmt.Errorf("%v is not an integer", raw)
			}
			if math.Abs(f) > maxExactInt {
				return nil, fmt.Errorf("%v is out of range", raw)
			}
			return int64(f), nil
		}
	case kindNumber:
		if f, ok := number(raw); ok {
			return f, nil
		}
	}
	return nil, fmt.Errorf("want %s, got %T", kind, raw)
}

func number(raw any) (float64, bool) {
	switch v := raw.(type) {
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, !math.IsNaN(v) && !math.IsInf(v, 0)
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}

func statusSet(raw any) ([]documents.Status, error) {
	var names []string
	switch v := raw.(type) {
	case string:
		names = []string{v}
	case documents.Status:
		names = []string{string(v)}
	case []string:
		names = v
	case []documents.Status:
		for _, s := range v {
			names = append(names, string(s))
		}
	case []any:
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("want status names, got %T", item)
			}
			names = append(names, s)
		}
	default:
		return nil, fmt.Errorf("want status name or list, got %T", raw)
	}

	if len(names) == 0 {
		return nil, fmt.Errorf("empty status set")
	}

	out := make([]documents.Status, 0, len(names))
	for _, n := range names {
		s, err := documents.ParseStatus(n)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
