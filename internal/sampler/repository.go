package sampler

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/JaimeStill/curator/internal/documents"
	"github.com/JaimeStill/curator/internal/metrics"
	"github.com/JaimeStill/curator/pkg/query"
	"github.com/JaimeStill/curator/pkg/repository"
)

var defaultTopOrder = OrderBy{Field: "rewrite_score", Descending: true}

type repo struct {
	db       *sql.DB
	logger   *slog.Logger
	defaults Defaults
}

// New creates a sampler implementing the System interface. defaults seed the
// preset endpoints when a request leaves a parameter out.
func New(db *sql.DB, logger *slog.Logger, defaults Defaults) System {
	return &repo{
		db:       db,
		logger:   logger.With("system", "sampler"),
		defaults: defaults.withFallbacks(),
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.defaults)
}

func (r *repo) Sample(ctx context.Context, req Request) ([]documents.Document, error) {
	if req.Limit < 0 {
		return nil, ErrInvalidLimit
	}

	qb := query.NewBuilder(documents.Projection)
	if err := req.Apply(qb); err != nil {
		return nil, err
	}

	if req.Limit == 0 {
		return []documents.Document{}, nil
	}

	defer metrics.ObserveQuery("sample", time.Now())

	q, args := qb.BuildLimit(req.Limit)
	docs, err := repository.QueryMany(ctx, r.db, q, args, documents.Scan)
	if err != nil {
		return nil, fmt.Errorf("sample documents: %w", err)
	}

	r.logger.Debug("sampled documents", "filters", len(req.Filters), "limit", req.Limit, "count", len(docs))
	return docs, nil
}

func (r *repo) Random(ctx context.Context, req RandomRequest) ([]documents.Document, error) {
	if req.Limit < 0 {
		return nil, ErrInvalidLimit
	}

	qb := query.NewBuilder(documents.Projection)
	if err := (Request{Filters: req.Filters}).Apply(qb); err != nil {
		return nil, err
	}

	if req.Limit == 0 {
		return []documents.Document{}, nil
	}

	defer metrics.ObserveQuery("random", time.Now())

	// One statement keeps the candidate set and the drawn rows consistent.
	q, args := qb.Build()
	candidates, err := repository.QueryMany(ctx, r.db, q, args, documents.Scan)
	if err != nil {
		return nil, fmt.Errorf("list sample candidates: %w", err)
	}

	ids := make([]string, len(candidates))
	for i, d := range candidates {
		ids[i] = d.ID
	}

	return inOrder(candidates, Pick(ids, req.Limit, req.Seed)), nil
}

func (r *repo) TopByCategory(ctx context.Context, req TopRequest) ([]Group, error) {
	if req.PerCategory < 0 {
		return nil, ErrInvalidLimit
	}

	order := req.OrderBy
	if order == nil {
		order = &defaultTopOrder
	}

	qb := query.NewBuilder(documents.Projection)
	if err := (Request{Filters: req.Filters, OrderBy: order}).Apply(qb); err != nil {
		return nil, err
	}

	if req.PerCategory == 0 {
		return []Group{}, nil
	}

	defer metrics.ObserveQuery("top", time.Now())

	q, args := qb.BuildRanked("Category", req.PerCategory)
	rows, err := repository.QueryMany(ctx, r.db, q, args, scanRanked)
	if err != nil {
		return nil, fmt.Errorf("top documents by category: %w", err)
	}

	return groupByCategory(rows), nil
}

type ranked struct {
	doc  documents.Document
	key  *string
	rank int
}

func scanRanked(s repository.Scanner) (ranked, error) {
	var r ranked
	doc, err := documents.ScanWith(s, &r.key, &r.rank)
	r.doc = doc
	return r, err
}

// groupByCategory splits rows already ordered by category into groups.
func groupByCategory(rows []ranked) []Group {
	groups := make([]Group, 0)
	for _, row := range rows {
		n := len(groups)
		if n == 0 || !sameCategory(groups[n-1].Category, row.key) {
			groups = append(groups, Group{Category: row.key, Documents: []documents.Document{}})
			n++
		}
		groups[n-1].Documents = append(groups[n-1].Documents, row.doc)
	}
	return groups
}

func sameCategory(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func inOrder(docs []documents.Document, ids []string) []documents.Document {
	byID := make(map[string]documents.Document, len(docs))
	for _, d := range docs {
		byID[d.ID] = d
	}

	out := make([]documents.Document, 0, len(ids))
	for _, id := range ids {
		if d, ok := byID[id]; ok {
			out = append(out, d)
		}
	}
	return out
}
