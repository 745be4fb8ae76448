package search

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/JaimeStill/curator/internal/documents"
	"github.com/JaimeStill/curator/internal/metrics"
	"github.com/JaimeStill/curator/pkg/repository"
)

type repo struct {
	db      *sql.DB
	indexer Reindexer
	logger  *slog.Logger
}

// New creates a search system. indexer owns posting writes; search only reads.
func New(db *sql.DB, indexer Reindexer, logger *slog.Logger) System {
	return &repo{
		db:      db,
		indexer: indexer,
		logger:  logger.With("system", "search"),
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger)
}

func (r *repo) Search(ctx context.Context, q Query) ([]Hit, error) {
	terms, err := q.Terms()
	if err != nil {
		return nil, err
	}

	limit, err := normalizeLimit(q.Limit)
	if err != nil {
		return nil, err
	}

	defer metrics.ObserveQuery("search", time.Now())

	stmt, args := Statement(terms, limit, q.All)
	hits, err := repository.QueryMany(ctx, r.db, stmt, args, scanHit)
	if err != nil {
		return nil, fmt.Errorf("search documents: %w", err)
	}

	r.logger.Debug("search complete", "terms", len(terms), "hits", len(hits))
	return hits, nil
}

func (r *repo) Reindex(ctx context.Context) (int, error) {
	return r.indexer.Reindex(ctx)
}

// Statement returns the ranking query for terms. The whole ranking runs as one
// statement so document counts and postings come from the same snapshot.
func Statement(terms []string, limit int, all bool) (string, []any) {
	having := ""
	if all {
		having = "\n\t\tHAVING COUNT(*) = cardinality($1::text[])"
	}

	stmt := fmt.Sprintf(`
		WITH corpus AS (
			SELECT COUNT(*)::float8 AS n FROM public.documents
		), df AS (
			SELECT p.term, COUNT(*)::float8 AS docs
			FROM public.search_postings p
			WHERE p.term = ANY($1::text[])
			GROUP BY p.term
		), scored AS (
			SELECT p.document_id, SUM(p.frequency * LN(1 + corpus.n / df.docs)) AS score
			FROM public.search_postings p
			JOIN df ON df.term = p.term
			CROSS JOIN corpus
			GROUP BY p.document_id%s
		)
		SELECT %s, s.score
		FROM public.documents d
		JOIN scored s ON s.document_id = d.id
		ORDER BY s.score DESC, d.elo_rating DESC, d.id ASC
		LIMIT $2`,
		having,
		documents.Projection.Columns(),
	)

	return stmt, []any{terms, limit}
}

func normalizeLimit(limit int) (int, error) {
	switch {
	case limit < 0:
		return 0, ErrInvalidLimit
	case limit == 0:
		return DefaultLimit, nil
	}
	return limit, nil
}

func scanHit(s repository.Scanner) (Hit, error) {
	var h Hit
	doc, err := documents.ScanWith(s, &h.Score)
	h.Document = doc
	return h, err
}
