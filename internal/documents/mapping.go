package documents

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/JaimeStill/curator/pkg/query"
	"github.com/JaimeStill/curator/pkg/repository"
)

const tagsExpr = `COALESCE((
		SELECT json_agg(t.name ORDER BY t.name)
		FROM public.document_tags dt
		JOIN public.tags t ON t.id = dt.tag_id
		WHERE dt.document_id = d.id
	), '[]')::text`

// TagClause is a WhereRaw condition matching documents that carry the bound tag name.
const TagClause = `EXISTS (
		SELECT 1 FROM public.document_tags dt
		JOIN public.tags t ON t.id = dt.tag_id
		WHERE dt.document_id = d.id AND t.name = $%d)`

// Projection maps Document fields to the documents table. Other packages build
// read queries on it and scan rows with Scan or ScanWith.
var Projection = query.
	NewProjectionMap("public", "documents", "d").
	Project("id", "ID").
	Project("title", "Title").
	Project("published_date", "PublishedDate").
	Project("year", "Year").
	Project("category", "Category").
	Project("word_count", "WordCount").
	Project("archive_key", "ArchiveKey").
	Project("quality_score", "QualityScore").
	Project("rewrite_score", "RewriteScore").
	Project("rewrite_type", "RewriteType").
	Project("elo_rating", "EloRating").
	Project("comparison_count", "ComparisonCount").
	Project("sampled", "Sampled").
	Project("is_reference", "IsReference").
	Project("lifecycle_status", "Status").
	Project("working_copy_path", "WorkingCopyPath").
	Project("rewrite_date", "RewriteDate").
	Project("deletion_reason", "DeletionReason").
	Project("archived_reason", "ArchivedReason").
	ProjectExpr(tagsExpr, "Tags").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{Field: "ID"}

var idTiebreak = query.SortField{Field: "ID"}

// Sortable reports whether field may appear in an ORDER BY over Projection.
func Sortable(field string) bool {
	return field != "Tags" && Projection.Has(field)
}

// Filters contains optional filtering criteria for document listings.
// Nil fields are ignored. Title uses case-insensitive contains matching.
type Filters struct {
	Status      *string `json:"status,omitempty"`
	Category    *string `json:"category,omitempty"`
	Year        *int    `json:"year,omitempty"`
	Tag         *string `json:"tag,omitempty"`
	Title       *string `json:"title,omitempty"`
	Sampled     *bool   `json:"sampled,omitempty"`
	IsReference *bool   `json:"is_reference,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	b.
		WhereEquals("Status", f.Status).
		WhereEquals("Category", f.Category).
		WhereEquals("Year", f.Year).
		WhereContains("Title", f.Title).
		WhereEquals("Sampled", f.Sampled).
		WhereEquals("IsReference", f.IsReference)

	if f.Tag != nil && *f.Tag != "" {
		b.WhereRaw(TagClause, *f.Tag)
	}
	return b
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if s := values.Get("status"); s != "" {
		f.Status = &s
	}
	if c := values.Get("category"); c != "" {
		f.Category = &c
	}
	if y := values.Get("year"); y != "" {
		if v, err := strconv.Atoi(y); err == nil {
			f.Year = &v
		}
	}
	if t := values.Get("tag"); t != "" {
		f.Tag = &t
	}
	if t := values.Get("title"); t != "" {
		f.Title = &t
	}
	if s := values.Get("sampled"); s != "" {
		if v, err := strconv.ParseBool(s); err == nil {
			f.Sampled = &v
		}
	}
	if r := values.Get("is_reference"); r != "" {
		if v, err := strconv.ParseBool(r); err == nil {
			f.IsReference = &v
		}
	}

	return f
}

// Scan reads one Projection row.
func Scan(s repository.Scanner) (Document, error) {
	return ScanWith(s)
}

// ScanWith reads one Projection row followed by extra trailing columns.
func ScanWith(s repository.Scanner, extra ...any) (Document, error) {
	var (
		d    Document
		tags string
	)

	dest := []any{
		&d.ID,
		&d.Title,
		&d.PublishedDate,
		&d.Year,
		&d.Category,
		&d.WordCount,
		&d.ArchiveKey,
		&d.QualityScore,
		&d.RewriteScore,
		&d.RewriteType,
		&d.EloRating,
		&d.ComparisonCount,
		&d.Sampled,
		&d.IsReference,
		&d.Status,
		&d.WorkingCopyPath,
		&d.RewriteDate,
		&d.DeletionReason,
		&d.ArchivedReason,
		&tags,
		&d.CreatedAt,
		&d.UpdatedAt,
	}

	if err := s.Scan(append(dest, extra...)...); err != nil {
		return d, err
	}

	if err := json.Unmarshal([]byte(tags), &d.Tags); err != nil {
		return d, fmt.Errorf("decode tags for %s: %w", d.ID, err)
	}
	return d, nil
}

func scanEvent(s repository.Scanner) (Event, error) {
	var e Event
	err := s.Scan(&e.ID, &e.DocumentID, &e.From, &e.To, &e.Reason, &e.RunID, &e.OccurredAt)
	return e, err
}
