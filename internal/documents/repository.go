package documents

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/JaimeStill/curator/pkg/handlers"
	"github.com/JaimeStill/curator/pkg/pagination"
	"github.com/JaimeStill/curator/pkg/query"
	"github.com/JaimeStill/curator/pkg/repository"
	"github.com/JaimeStill/curator/pkg/textindex"
)

type repo struct {
	db         *sql.DB
	initial    Rating
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a document repository implementing the System interface.
// Created documents start with the initial rating, which must equal the
// rating a replay of an empty comparison log assigns.
func New(db *sql.DB, initial Rating, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		initial:    initial,
		logger:     logger.With("system", "documents"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Document], error) {
	page.Normalize(r.pagination)

	if err := page.ValidateSort(Sortable); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	qb := query.
		NewBuilder(Projection, defaultSort).
		Tiebreak(idTiebreak).
		WhereSearch(page.Search, "Title", "Category")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	docs, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, Scan)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}

	result := pagination.NewPageResult(docs, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id string) (*Document, error) {
	q, args := query.NewBuilder(Projection).BuildSingle("ID", id)

	d, err := repository.QueryOne(ctx, r.db, q, args, Scan)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate, ErrConflict)
	}
	return &d, nil
}

func (r *repo) All(ctx context.Context) ([]Document, error) {
	q, args := query.NewBuilder(Projection, defaultSort).Build()

	docs, err := repository.QueryMany(ctx, r.db, q, args, Scan)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	return docs, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Document, error) {
	if err := handlers.Validate(cmd); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if !ValidID(cmd.ID) {
		return nil, fmt.Errorf("%w: id %q is not YYYYMMDD-NNN", ErrInvalidDocument, cmd.ID)
	}

	category := normalizeCategory(cmd.Category)
	tags := NormalizeTags(cmd.Tags)

	insertQ := `
		INSERT INTO documents(
			id, title, published_date, year, category, word_count, body, archive_key,
			elo_rating, comparison_count, is_reference
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	insertArgs := []any{
		cmd.ID,
		cmd.Title,
		cmd.PublishedDate,
		cmd.PublishedDate.Year(),
		category,
		cmd.WordCount,
		cmd.Body,
		cmd.ArchiveKey,
		r.initial.EloRating,
		r.initial.ComparisonCount,
		r.initial.IsReference,
	}

	d, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Document, error) {
		if _, err := tx.ExecContext(ctx, insertQ, insertArgs...); err != nil {
			return Document{}, err
		}

		if err := writeTags(ctx, tx, cmd.ID, tags); err != nil {
			return Document{}, err
		}

		fields := textindex.Fields{Title: cmd.Title, Category: deref(category), Body: cmd.Body}
		if err := writePostings(ctx, tx, cmd.ID, fields); err != nil {
			return Document{}, err
		}

		return lockDocument(ctx, tx, cmd.ID)
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate, ErrConflict)
	}

	r.logger.Info("document created", "id", d.ID, "archive_key", d.ArchiveKey)
	return &d, nil
}

func (r *repo) Update(ctx context.Context, id string, cmd UpdateCommand) (*Document, error) {
	if err := handlers.Validate(cmd); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	type outcome struct {
		doc     Document
		changed bool
		reindex bool
	}

	out, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (outcome, error) {
		doc, err := lockDocument(ctx, tx, id)
		if err != nil {
			return outcome{}, err
		}

		before, err := loadFields(ctx, tx, id)
		if err != nil {
			return outcome{}, err
		}

		after := before
		if cmd.Title != nil {
			after.Title = *cmd.Title
		}
		if cmd.Category != nil {
			after.Category = strings.TrimSpace(*cmd.Category)
		}
		if cmd.Body != nil {
			after.Body = *cmd.Body
		}

		published := doc.PublishedDate
		if cmd.PublishedDate != nil {
			published = *cmd.PublishedDate
		}
		wordCount := doc.WordCount
		if cmd.WordCount != nil {
			wordCount = *cmd.WordCount
		}

		reindex := IndexedFieldsChanged(before, after)
		if !reindex && published.Equal(doc.PublishedDate) && wordCount == doc.WordCount {
			return outcome{doc: doc}, nil
		}

		stmt := fmt.Sprintf(`
			UPDATE public.documents d SET
				title = $2, category = $3, body = $4,
				published_date = $5, year = $6, word_count = $7,
				updated_at = NOW()
			WHERE d.id = $1
			RETURNING %s`, Projection.Columns())

		args := []any{id, after.Title, normalizeCategory(&after.Category), after.Body, published, published.Year(), wordCount}

		updated, err := repository.QueryOne(ctx, tx, stmt, args, Scan)
		if err != nil {
			return outcome{}, err
		}

		if reindex {
			if err := writePostings(ctx, tx, id, after); err != nil {
				return outcome{}, err
			}
		}

		return outcome{doc: updated, changed: true, reindex: reindex}, nil
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate, ErrConflict)
	}

	if out.changed {
		r.logger.Info("document updated", "id", id, "reindexed", out.reindex)
	}
	return &out.doc, nil
}

func (r *repo) SetTags(ctx context.Context, id string, tags []string) (*Document, error) {
	tags = NormalizeTags(tags)

	d, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Document, error) {
		doc, err := lockDocument(ctx, tx, id)
		if err != nil {
			return Document{}, err
		}

		if slices.Equal(doc.Tags, tags) {
			return doc, nil
		}

		if err := writeTags(ctx, tx, id, tags); err != nil {
			return Document{}, err
		}

		if err := repository.ExecExpectOne(ctx, tx,
			"UPDATE documents SET updated_at = NOW() WHERE id = $1", id,
		); err != nil {
			return Document{}, err
		}

		return lockDocument(ctx, tx, id)
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate, ErrConflict)
	}
	return &d, nil
}

func (r *repo) SetScores(ctx context.Context, id string, cmd ScoresCommand) (*Document, error) {
	if err := handlers.Validate(cmd); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	d, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Document, error) {
		doc, err := lockDocument(ctx, tx, id)
		if err != nil {
			return Document{}, err
		}

		quality := pick(cmd.QualityScore, doc.QualityScore)
		rewrite := pick(cmd.RewriteScore, doc.RewriteScore)
		rewriteType := pick(cmd.RewriteType, doc.RewriteType)

		if equalPtr(quality, doc.QualityScore) &&
			equalPtr(rewrite, doc.RewriteScore) &&
			equalPtr(rewriteType, doc.RewriteType) {
			return doc, nil
		}

		stmt := fmt.Sprintf(`
			UPDATE public.documents d SET
				quality_score = $2, rewrite_score = $3, rewrite_type = $4, updated_at = NOW()
			WHERE d.id = $1
			RETURNING %s`, Projection.Columns())

		return repository.QueryOne(ctx, tx, stmt, []any{id, quality, rewrite, rewriteType}, Scan)
	})

	if err != nil {
		if repository.IsCheckViolation(err) {
			return nil, fmt.Errorf("%w: score out of range", ErrInvalidDocument)
		}
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate, ErrConflict)
	}
	return &d, nil
}

func (r *repo) MarkSampled(ctx context.Context, ids []string, sampled bool) (int, error) {
	ids = normalizeList(ids)
	if len(ids) == 0 {
		return 0, nil
	}

	n, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (int, error) {
		found, err := LockRatings(ctx, tx, ids...)
		if err != nil {
			return 0, err
		}

		var missing []string
		for _, id := range ids {
			if _, ok := found[id]; !ok {
				missing = append(missing, id)
			}
		}
		if len(missing) > 0 {
			return 0, fmt.Errorf("%w: %s", ErrNotFound, strings.Join(missing, ", "))
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE documents SET sampled = $2, updated_at = NOW()
			WHERE id = ANY($1) AND sampled <> $2`,
			ids, sampled,
		)
		if err != nil {
			return 0, fmt.Errorf("mark sampled: %w", err)
		}

		affected, err := res.RowsAffected()
		return int(affected), err
	})

	if err != nil {
		return 0, repository.MapError(err, ErrNotFound, ErrDuplicate, ErrConflict)
	}

	r.logger.Info("documents marked", "sampled", sampled, "requested", len(ids), "changed", n)
	return n, nil
}

func (r *repo) Archive(ctx context.Context, id, reason string) (*Document, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: archive reason required", ErrInvalidDocument)
	}

	doc, _, err := r.Apply(ctx, id, func(Document) Change {
		return Change{
			Hops:           []Status{StatusArchived},
			ArchivedReason: &reason,
			Reason:         reason,
		}
	})
	return doc, err
}

func (r *repo) Apply(ctx context.Context, id string, decide func(Document) Change) (*Document, Change, error) {
	type outcome struct {
		doc    Document
		change Change
	}

	out, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (outcome, error) {
		doc, err := lockDocument(ctx, tx, id)
		if err != nil {
			return outcome{}, err
		}

		change := decide(doc)
		if change.Empty() {
			return outcome{doc: doc}, nil
		}

		updated, err := applyChange(ctx, tx, doc, change)
		if err != nil {
			return outcome{}, err
		}
		return outcome{doc: updated, change: change}, nil
	})

	if err != nil {
		return nil, Change{}, repository.MapError(err, ErrNotFound, ErrDuplicate, ErrConflict)
	}

	if !out.change.Empty() {
		r.logger.Info("lifecycle change applied",
			"id", id,
			"status", out.doc.Status,
			"hops", len(out.change.Hops),
			"reason", out.change.Reason,
		)
	}
	return &out.doc, out.change, nil
}

func (r *repo) History(ctx context.Context, id string) ([]Event, error) {
	if _, err := r.Find(ctx, id); err != nil {
		return nil, err
	}

	events, err := repository.QueryMany(ctx, r.db, `
		SELECT id, document_id, from_status, to_status, reason, run_id, occurred_at
		FROM lifecycle_events
		WHERE document_id = $1
		ORDER BY id`, []any{id}, scanEvent)
	if err != nil {
		return nil, fmt.Errorf("query lifecycle events: %w", err)
	}
	return events, nil
}

func (r *repo) Reindex(ctx context.Context) (int, error) {
	type row struct {
		id string
		f  textindex.Fields
	}

	n, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (int, error) {
		if _, err := tx.ExecContext(ctx, "LOCK TABLE search_postings IN EXCLUSIVE MODE"); err != nil {
			return 0, fmt.Errorf("lock postings: %w", err)
		}

		rows, err := repository.QueryMany(ctx, tx,
			"SELECT id, title, COALESCE(category, ''), body FROM documents ORDER BY id FOR SHARE",
			nil,
			func(s repository.Scanner) (row, error) {
				var x row
				err := s.Scan(&x.id, &x.f.Title, &x.f.Category, &x.f.Body)
				return x, err
			},
		)
		if err != nil {
			return 0, fmt.Errorf("load indexed fields: %w", err)
		}

		for _, x := range rows {
			if err := writePostings(ctx, tx, x.id, x.f); err != nil {
				return 0, err
			}
		}
		return len(rows), nil
	})

	if err != nil {
		return 0, err
	}

	r.logger.Info("search postings rebuilt", "documents", n)
	return n, nil
}

func normalizeCategory(c *string) *string {
	if c == nil {
		return nil
	}
	s := strings.TrimSpace(*c)
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func pick[T any](update, current *T) *T {
	if update != nil {
		return update
	}
	return current
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
