package rating

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/JaimeStill/curator/internal/documents"
	"github.com/JaimeStill/curator/internal/metrics"
	"github.com/JaimeStill/curator/pkg/pagination"
	"github.com/JaimeStill/curator/pkg/query"
	"github.com/JaimeStill/curator/pkg/repository"
)

// maxFeedLine bounds a single JSON-lines record.
const maxFeedLine = 1 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

type repo struct {
	db         *sql.DB
	cfg        Config
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a rating system backed by db.
func New(db *sql.DB, cfg Config, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		cfg:        cfg,
		logger:     logger.With("system", "rating"),
		pagination: pagination,
	}
}

func (r *repo) Handler(maxFeedBytes int64) *Handler {
	return NewHandler(r, r.logger, r.pagination, maxFeedBytes)
}

func (r *repo) Apply(ctx context.Context, cmd ApplyCommand) (*Result, error) {
	if err := cmd.Validate(); err != nil {
		metrics.ComparisonsTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}

	result, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (*Result, error) {
		return r.apply(ctx, tx, cmd)
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateComparison) {
			metrics.ComparisonsTotal.WithLabelValues("duplicate").Inc()
		} else {
			metrics.ComparisonsTotal.WithLabelValues("rejected").Inc()
		}
		return nil, err
	}

	metrics.ComparisonsTotal.WithLabelValues("applied").Inc()
	r.logger.Info(
		"comparison applied",
		"id", result.Comparison.ID,
		"document_a", cmd.DocumentA,
		"document_b", cmd.DocumentB,
		"winner", cmd.Winner,
		"rating_a", result.RatingA.EloRating,
		"rating_b", result.RatingB.EloRating,
	)
	return result, nil
}

func (r *repo) apply(ctx context.Context, tx *sql.Tx, cmd ApplyCommand) (*Result, error) {
	// Take the insert lock on the log before any row lock so Apply and Rebuild
	// acquire locks in the same order.
	if _, err := tx.ExecContext(ctx, "LOCK TABLE comparisons IN ROW EXCLUSIVE MODE"); err != nil {
		return nil, repository.MapError(err, ErrComparisonNotFound, ErrDuplicateComparison, ErrConflict)
	}

	ratings, err := documents.LockRatings(ctx, tx, cmd.DocumentA, cmd.DocumentB)
	if err != nil {
		return nil, repository.MapError(err, ErrUnknownDocument, ErrDuplicateComparison, ErrConflict)
	}

	a, ok := ratings[cmd.DocumentA]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDocument, cmd.DocumentA)
	}
	b, ok := ratings[cmd.DocumentB]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDocument, cmd.DocumentB)
	}

	na, nb, err := Apply(a.EloRating, b.EloRating, cmd.Winner, r.cfg.KFactor)
	if err != nil {
		return nil, err
	}

	stmt := fmt.Sprintf(`
		INSERT INTO comparisons AS c (
			correlation_id, document_a, document_b, winner, confidence, context,
			rating_a_before, rating_a_after, rating_b_before, rating_b_after
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING %s`, projection.Columns())

	args := []any{
		cmd.CorrelationID,
		cmd.DocumentA,
		cmd.DocumentB,
		string(cmd.Winner),
		string(cmd.Confidence),
		cmd.Context,
		a.EloRating, na,
		b.EloRating, nb,
	}

	cmp, err := repository.QueryOne(ctx, tx, stmt, args, scanComparison)
	if err != nil {
		if repository.IsForeignKeyViolation(err) {
			return nil, fmt.Errorf("%w: %s, %s", ErrUnknownDocument, cmd.DocumentA, cmd.DocumentB)
		}
		return nil, repository.MapError(err, ErrComparisonNotFound, ErrDuplicateComparison, ErrConflict)
	}

	ra := r.next(na, a.ComparisonCount+1)
	rb := r.next(nb, b.ComparisonCount+1)

	if err := documents.WriteRating(ctx, tx, cmd.DocumentA, ra); err != nil {
		return nil, err
	}
	if err := documents.WriteRating(ctx, tx, cmd.DocumentB, rb); err != nil {
		return nil, err
	}

	return &Result{Comparison: cmp, RatingA: ra, RatingB: rb}, nil
}

func (r *repo) next(rating, count int) documents.Rating {
	return documents.Rating{
		EloRating:       rating,
		ComparisonCount: count,
		IsReference:     IsReference(rating, count, r.cfg),
	}
}

func (r *repo) Ingest(ctx context.Context, feed io.Reader) (*IngestReport, error) {
	report := &IngestReport{}

	scanner := bufio.NewScanner(feed)
	scanner.Buffer(make([]byte, 0, 64*1024), maxFeedLine)

	line := 0
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return report, err
		}

		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}

		cmd, err := DecodeRecord([]byte(raw))
		if err != nil {
			metrics.ComparisonsTotal.WithLabelValues("rejected").Inc()
			return report, fmt.Errorf("line %d: %w", line, err)
		}

		if cmd.CorrelationID != nil {
			seen, err := r.seen(ctx, *cmd.CorrelationID)
			if err != nil {
				return report, fmt.Errorf("line %d: %w", line, err)
			}
			if seen {
				metrics.ComparisonsTotal.WithLabelValues("duplicate").Inc()
				report.Duplicates++
				continue
			}
		}

		if _, err := r.Apply(ctx, cmd); err != nil {
			if errors.Is(err, ErrDuplicateComparison) {
				report.Duplicates++
				continue
			}
			return report, fmt.Errorf("line %d: %w", line, err)
		}
		report.Applied++
	}

	if err := scanner.Err(); err != nil {
		return report, fmt.Errorf("read feed after line %d: %w", line, err)
	}

	r.logger.Info("feed ingested", "applied", report.Applied, "duplicates", report.Duplicates, "lines", line)
	return report, nil
}

// DecodeRecord parses and validates one JSON-lines feed record.
func DecodeRecord(data []byte) (ApplyCommand, error) {
	var cmd ApplyCommand
	if err := json.Unmarshal(data, &cmd); err != nil {
		return cmd, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}

	if err := validate.Struct(cmd); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, len(verrs))
			for i, fe := range verrs {
				fields[i] = fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
			}
			return cmd, fmt.Errorf("%w: %s", ErrInvalidRecord, strings.Join(fields, ", "))
		}
		return cmd, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}

	if err := cmd.Validate(); err != nil {
		return cmd, err
	}
	return cmd, nil
}

func (r *repo) seen(ctx context.Context, correlationID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM comparisons WHERE correlation_id = $1)", correlationID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check correlation id: %w", err)
	}
	return exists, nil
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Comparison], error) {
	page.Normalize(r.pagination)

	if err := page.ValidateSort(projection.Has); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}

	qb := query.NewBuilder(projection, defaultSort)
	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort).Tiebreak(idTiebreak)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count comparisons: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanComparison)
	if err != nil {
		return nil, fmt.Errorf("query comparisons: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Rebuild(ctx context.Context) (int, error) {
	changed, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (int, error) {
		if _, err := tx.ExecContext(ctx, "LOCK TABLE comparisons IN EXCLUSIVE MODE"); err != nil {
			return 0, repository.MapError(err, ErrComparisonNotFound, ErrDuplicateComparison, ErrConflict)
		}

		cached, err := documents.LockAllRatings(ctx, tx)
		if err != nil {
			return 0, err
		}

		projected, err := r.replay(ctx, tx, cached)
		if err != nil {
			return 0, err
		}

		n := 0
		for _, d := range diff(cached, projected) {
			if err := documents.WriteRating(ctx, tx, d.DocumentID, d.Projected); err != nil {
				return 0, fmt.Errorf("write rating %s: %w", d.DocumentID, err)
			}
			n++
		}
		return n, nil
	})
	if err != nil {
		return 0, err
	}

	metrics.RatingRebuilds.Inc()
	r.logger.Info("ratings rebuilt", "changed", changed)
	return changed, nil
}

func (r *repo) Verify(ctx context.Context) ([]Drift, error) {
	opts := &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	return repository.WithTxOptions(ctx, r.db, opts, func(tx *sql.Tx) ([]Drift, error) {
		cached, err := documents.Ratings(ctx, tx)
		if err != nil {
			return nil, err
		}

		projected, err := r.replay(ctx, tx, cached)
		if err != nil {
			return nil, err
		}
		return diff(cached, projected), nil
	})
}

// Outcome is the part of a comparison that replay depends on.
type Outcome struct {
	DocumentA string
	DocumentB string
	Winner    Winner
}

// replay folds the comparison log, in id order, over every document reset to
// the initial rating.
func (r *repo) replay(ctx context.Context, q repository.Querier, cached map[string]documents.Rating) (map[string]documents.Rating, error) {
	log, err := repository.QueryMany(ctx, q,
		"SELECT document_a, document_b, winner FROM comparisons ORDER BY id", nil,
		func(s repository.Scanner) (Outcome, error) {
			var o Outcome
			err := s.Scan(&o.DocumentA, &o.DocumentB, &o.Winner)
			return o, err
		},
	)
	if err != nil {
		return nil, fmt.Errorf("read comparison log: %w", err)
	}

	return Project(cached, log, r.cfg)
}

// Project computes ratings from an ordered outcome list over the id set of ids.
func Project(ids map[string]documents.Rating, log []Outcome, cfg Config) (map[string]documents.Rating, error) {
	out := make(map[string]documents.Rating, len(ids))
	for id := range ids {
		out[id] = Initial(cfg)
	}

	for _, o := range log {
		a, okA := out[o.DocumentA]
		b, okB := out[o.DocumentB]
		if !okA || !okB {
			return nil, fmt.Errorf("%w: comparison references %s, %s", ErrUnknownDocument, o.DocumentA, o.DocumentB)
		}

		na, nb, err := Apply(a.EloRating, b.EloRating, o.Winner, cfg.KFactor)
		if err != nil {
			return nil, err
		}
		out[o.DocumentA] = documents.Rating{EloRating: na, ComparisonCount: a.ComparisonCount + 1}
		out[o.DocumentB] = documents.Rating{EloRating: nb, ComparisonCount: b.ComparisonCount + 1}
	}

	for id, p := range out {
		p.IsReference = IsReference(p.EloRating, p.ComparisonCount, cfg)
		out[id] = p
	}
	return out, nil
}

func diff(cached, projected map[string]documents.Rating) []Drift {
	ids := make([]string, 0, len(cached))
	for id := range cached {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	drift := make([]Drift, 0)
	for _, id := range ids {
		if cached[id] != projected[id] {
			drift = append(drift, Drift{DocumentID: id, Cached: cached[id], Projected: projected[id]})
		}
	}
	return drift
}

func (r *repo) Distribution(ctx context.Context) (*Distribution, error) {
	var (
		d                       Distribution
		reference, exploitation int
	)

	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE comparison_count > 0),
			COUNT(*) FILTER (WHERE comparison_count = 0),
			COUNT(*) FILTER (WHERE comparison_count > 0 AND elo_rating >= $1),
			COUNT(*) FILTER (WHERE comparison_count > 0 AND elo_rating >= $2 AND elo_rating < $1),
			MIN(elo_rating) FILTER (WHERE comparison_count > 0),
			MAX(elo_rating) FILTER (WHERE comparison_count > 0)
		FROM documents`,
		r.cfg.ReferenceThreshold, r.cfg.ExploitationThreshold,
	).Scan(&d.Compared, &d.Unrated, &reference, &exploitation, &d.MinRating, &d.MaxRating)
	if err != nil {
		return nil, fmt.Errorf("rating distribution: %w", err)
	}

	d.Bands = Bands(r.cfg, d.Compared, reference, exploitation)
	return &d, nil
}

// Bands splits compared documents into reference, exploitation, and exploration bands.
func Bands(cfg Config, compared, reference, exploitation int) []Band {
	refMin := cfg.ReferenceThreshold
	expMin := cfg.ExploitationThreshold
	expMax := cfg.ReferenceThreshold - 1
	explMax := cfg.ExploitationThreshold - 1

	return []Band{
		{Name: "reference", Min: &refMin, Count: reference},
		{Name: "exploitation", Min: &expMin, Max: &expMax, Count: exploitation},
		{Name: "exploration", Max: &explMax, Count: compared - reference - exploitation},
	}
}
