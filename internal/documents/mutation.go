package documents

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/curator/pkg/repository"
	"github.com/JaimeStill/curator/pkg/textindex"
)

// Transaction-scoped mutation API. Callers own the transaction; every function
// here runs inside it so a rating write or lifecycle transition commits or rolls
// back as one unit with the caller's own rows.

// LockRatings locks the rows for ids FOR UPDATE in ascending id order and returns
// their ratings. Ids that do not exist are absent from the result.
func LockRatings(ctx context.Context, q repository.Querier, ids ...string) (map[string]Rating, error) {
	return queryRatings(ctx, q, `
		SELECT id, elo_rating, comparison_count, is_reference
		FROM documents
		WHERE id = ANY($1)
		ORDER BY id
		FOR UPDATE`, ids)
}

// LockAllRatings locks every document row FOR UPDATE in ascending id order.
func LockAllRatings(ctx context.Context, q repository.Querier) (map[string]Rating, error) {
	return queryRatings(ctx, q, `
		SELECT id, elo_rating, comparison_count, is_reference
		FROM documents
		ORDER BY id
		FOR UPDATE`)
}

// Ratings returns every document's cached rating without locking.
func Ratings(ctx context.Context, q repository.Querier) (map[string]Rating, error) {
	return queryRatings(ctx, q, `
		SELECT id, elo_rating, comparison_count, is_reference
		FROM documents
		ORDER BY id`)
}

func queryRatings(ctx context.Context, q repository.Querier, stmt string, args ...any) (map[string]Rating, error) {
	type row struct {
		id string
		r  Rating
	}

	rows, err := repository.QueryMany(ctx, q, stmt, args, func(s repository.Scanner) (row, error) {
		var x row
		err := s.Scan(&x.id, &x.r.EloRating, &x.r.ComparisonCount, &x.r.IsReference)
		return x, err
	})
	if err != nil {
		return nil, fmt.Errorf("query ratings: %w", err)
	}

	out := make(map[string]Rating, len(rows))
	for _, x := range rows {
		out[x.id] = x.r
	}
	return out, nil
}

// WriteRating stores a new rating on a locked document and bumps updated_at.
func WriteRating(ctx context.Context, e repository.Executor, id string, r Rating) error {
	if r.ComparisonCount < 0 {
		return fmt.Errorf("%w: negative comparison count for %s", ErrInvalidDocument, id)
	}

	err := repository.ExecExpectOne(ctx, e, `
		UPDATE documents
		SET elo_rating = $2, comparison_count = $3, is_reference = $4, updated_at = NOW()
		WHERE id = $1`,
		id, r.EloRating, r.ComparisonCount, r.IsReference,
	)
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate, ErrConflict)
	}
	return nil
}

func lockDocument(ctx context.Context, q repository.Querier, id string) (Document, error) {
	stmt := fmt.Sprintf(
		"SELECT %s FROM %s WHERE d.id = $1 FOR UPDATE OF d",
		Projection.Columns(), Projection.From(),
	)
	return repository.QueryOne(ctx, q, stmt, []any{id}, Scan)
}

func loadFields(ctx context.Context, q repository.Querier, id string) (textindex.Fields, error) {
	var (
		f        textindex.Fields
		category *string
	)
	err := q.QueryRowContext(ctx,
		"SELECT title, category, body FROM documents WHERE id = $1", id,
	).Scan(&f.Title, &category, &f.Body)
	if category != nil {
		f.Category = *category
	}
	return f, err
}

// applyChange validates and writes a lifecycle change on a locked document,
// recording one lifecycle event per hop.
func applyChange(ctx context.Context, q repository.Queryer, doc Document, c Change) (Document, error) {
	from := doc.Status
	for _, hop := range c.Hops {
		if !CanTransition(from, hop) {
			return Document{}, fmt.Errorf("%w: %s -> %s for %s", ErrIllegalTransition, from, hop, doc.ID)
		}
		from = hop
	}

	stmt := fmt.Sprintf(`
		UPDATE public.documents d SET
			lifecycle_status = $2,
			working_copy_path = COALESCE($3, d.working_copy_path),
			rewrite_date = COALESCE($4, d.rewrite_date),
			deletion_reason = COALESCE($5, d.deletion_reason),
			archived_reason = COALESCE($6, d.archived_reason),
			updated_at = NOW()
		WHERE d.id = $1
		RETURNING %s`, Projection.Columns())

	args := []any{
		doc.ID,
		string(c.Final(doc.Status)),
		c.WorkingCopyPath,
		c.RewriteDate,
		c.DeletionReason,
		c.ArchivedReason,
	}

	updated, err := repository.QueryOne(ctx, q, stmt, args, Scan)
	if err != nil {
		return Document{}, fmt.Errorf("update lifecycle: %w", err)
	}

	prev := doc.Status
	for _, hop := range c.Hops {
		if err := recordEvent(ctx, q, doc.ID, prev, hop, c.Reason, c.RunID); err != nil {
			return Document{}, err
		}
		prev = hop
	}

	return updated, nil
}

func recordEvent(ctx context.Context, e repository.Executor, id string, from, to Status, reason string, runID uuid.UUID) error {
	run := uuid.NullUUID{UUID: runID, Valid: runID != uuid.Nil}
	_, err := e.ExecContext(ctx, `
		INSERT INTO lifecycle_events(document_id, from_status, to_status, reason, run_id)
		VALUES ($1, $2, $3, $4, $5)`,
		id, string(from), string(to), reason, run,
	)
	if err != nil {
		return fmt.Errorf("record lifecycle event: %w", err)
	}
	return nil
}

// IndexedFieldsChanged reports whether a content update must rewrite search postings.
func IndexedFieldsChanged(before, after textindex.Fields) bool {
	return !before.Equal(after)
}

func writePostings(ctx context.Context, e repository.Executor, id string, f textindex.Fields) error {
	if _, err := e.ExecContext(ctx, "DELETE FROM search_postings WHERE document_id = $1", id); err != nil {
		return fmt.Errorf("clear postings: %w", err)
	}

	postings := textindex.Build(f)
	if len(postings) == 0 {
		return nil
	}

	terms := make([]string, 0, len(postings))
	for term := range postings {
		terms = append(terms, term)
	}
	slices.Sort(terms)

	freqs := make([]float64, len(terms))
	for i, term := range terms {
		freqs[i] = postings[term]
	}

	_, err := e.ExecContext(ctx, `
		INSERT INTO search_postings(document_id, term, frequency)
		SELECT $1, p.term, p.frequency
		FROM unnest($2::text[], $3::float8[]) AS p(term, frequency)`,
		id, terms, freqs,
	)
	if err != nil {
		return fmt.Errorf("write postings: %w", err)
	}
	return nil
}

// NormalizeTags trims, drops empty names, de-duplicates, and sorts tag names.
func NormalizeTags(tags []string) []string {
	return normalizeList(tags)
}

func normalizeList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, t := range items {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func writeTags(ctx context.Context, q repository.Queryer, id string, tags []string) error {
	if _, err := q.ExecContext(ctx, "DELETE FROM document_tags WHERE document_id = $1", id); err != nil {
		return fmt.Errorf("clear tags: %w", err)
	}

	for _, name := range tags {
		var tagID int
		err := q.QueryRowContext(ctx, `
			INSERT INTO tags(name) VALUES ($1)
			ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			RETURNING id`, name,
		).Scan(&tagID)
		if err != nil {
			return fmt.Errorf("upsert tag %q: %w", name, err)
		}

		if _, err := q.ExecContext(ctx,
			"INSERT INTO document_tags(document_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
			id, tagID,
		); err != nil {
			return fmt.Errorf("associate tag %q: %w", name, err)
		}
	}
	return nil
}
