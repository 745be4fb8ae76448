package documents

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/JaimeStill/curator/pkg/repository"
)

// Lower bounds of the rewrite-score bands. Scores below ArchiveMinScore fall
// in the deletion band; unscored documents fall in none.
const (
	RewriteMinScore = 70.0
	ReviewMinScore  = 50.0
	ArchiveMinScore = 30.0
)

// Stats is an aggregate projection over the documents table.
// It is computed on demand and never stored.
type Stats struct {
	Total        int            `json:"total"`
	ByStatus     map[Status]int `json:"by_status"`
	Sampled      int            `json:"sampled"`
	References   int            `json:"references"`
	Compared     int            `json:"compared"`
	Comparisons  int            `json:"comparisons"`
	AverageElo   float64        `json:"average_elo"`
	AverageWords float64        `json:"average_words"`
	RewriteBands RewriteBands   `json:"rewrite_bands"`
	ByCategory   []GroupStat    `json:"by_category"`
	ByYear       []GroupStat    `json:"by_year"`
}

// RewriteBands counts scored documents by rewrite-score band.
type RewriteBands struct {
	Rewrite  int `json:"rewrite_candidates"`
	Review   int `json:"review_candidates"`
	Archive  int `json:"archive_candidates"`
	Deletion int `json:"deletion_candidates"`
}

// Add counts one score in its band.
func (b *RewriteBands) Add(score float64) {
	switch {
	case score >= RewriteMinScore:
		b.Rewrite++
	case score >= ReviewMinScore:
		b.Review++
	case score >= ArchiveMinScore:
		b.Archive++
	default:
		b.Deletion++
	}
}

// GroupStat aggregates documents sharing a category or year. AverageRewrite
// is nil when no document in the group has a rewrite score.
type GroupStat struct {
	Key            string   `json:"key"`
	Count          int      `json:"count"`
	Completed      int      `json:"completed"`
	AverageElo     float64  `json:"average_elo"`
	AverageRewrite *float64 `json:"avg_rewrite_score"`
	AverageWords   float64  `json:"avg_word_count"`
}

func (r *repo) Stats(ctx context.Context) (*Stats, error) {
	opts := &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}

	return repository.WithTxOptions(ctx, r.db, opts, func(tx *sql.Tx) (*Stats, error) {
		s := &Stats{ByStatus: make(map[Status]int, len(Statuses))}
		for _, st := range Statuses {
			s.ByStatus[st] = 0
		}

		err := tx.QueryRowContext(ctx, `
			SELECT
				COUNT(*),
				COUNT(*) FILTER (WHERE sampled),
				COUNT(*) FILTER (WHERE is_reference),
				COUNT(*) FILTER (WHERE comparison_count > 0),
				COALESCE(AVG(elo_rating), 0)::float8,
				COALESCE(AVG(word_count), 0)::float8,
				COUNT(*) FILTER (WHERE rewrite_score >= $1),
				COUNT(*) FILTER (WHERE rewrite_score >= $2 AND rewrite_score < $1),
				COUNT(*) FILTER (WHERE rewrite_score >= $3 AND rewrite_score < $2),
				COUNT(*) FILTER (WHERE rewrite_score < $3)
			FROM documents`,
			RewriteMinScore, ReviewMinScore, ArchiveMinScore,
		).Scan(
			&s.Total, &s.Sampled, &s.References, &s.Compared, &s.AverageElo, &s.AverageWords,
			&s.RewriteBands.Rewrite, &s.RewriteBands.Review, &s.RewriteBands.Archive, &s.RewriteBands.Deletion,
		)
		if err != nil {
			return nil, fmt.Errorf("query totals: %w", err)
		}

		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM comparisons").Scan(&s.Comparisons); err != nil {
			return nil, fmt.Errorf("count comparisons: %w", err)
		}

		type statusCount struct {
			status Status
			count  int
		}
		counts, err := repository.QueryMany(ctx, tx,
			"SELECT lifecycle_status, COUNT(*) FROM documents GROUP BY lifecycle_status",
			nil,
			func(sc repository.Scanner) (statusCount, error) {
				var c statusCount
				err := sc.Scan(&c.status, &c.count)
				return c, err
			},
		)
		if err != nil {
			return nil, fmt.Errorf("query status counts: %w", err)
		}
		for _, c := range counts {
			s.ByStatus[c.status] = c.count
		}

		if s.ByCategory, err = groupStats(ctx, tx, "COALESCE(category, '')"); err != nil {
			return nil, fmt.Errorf("query category stats: %w", err)
		}
		if s.ByYear, err = groupStats(ctx, tx, "year::text"); err != nil {
			return nil, fmt.Errorf("query year stats: %w", err)
		}

		return s, nil
	})
}

func groupStats(ctx context.Context, q repository.Querier, keyExpr string) ([]GroupStat, error) {
	stmt := fmt.Sprintf(`
		SELECT %[1]s AS key,
			COUNT(*),
			COUNT(*) FILTER (WHERE lifecycle_status = 'completed'),
			AVG(elo_rating)::float8,
			AVG(rewrite_score)::float8,
			AVG(word_count)::float8
		FROM documents
		GROUP BY %[1]s
		ORDER BY %[1]s`, keyExpr)

	return repository.QueryMany(ctx, q, stmt, nil, func(s repository.Scanner) (GroupStat, error) {
		var g GroupStat
		err := s.Scan(&g.Key, &g.Count, &g.Completed, &g.AverageElo, &g.AverageRewrite, &g.AverageWords)
		return g, err
	})
}
