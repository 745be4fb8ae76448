// Package documents implements the Record Store: durable per-document records,
// tag associations, lifecycle history, and the search postings derived from
// indexed fields. It is the only package that writes to those tables; the rating
// and reconcile packages write through its mutation API.
package documents

import (
	"time"

	"github.com/google/uuid"
)

// Document is the canonical record for one archival text.
type Document struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	PublishedDate   time.Time  `json:"published_date"`
	Year            int        `json:"year"`
	Category        *string    `json:"category"`
	WordCount       int        `json:"word_count"`
	ArchiveKey      string     `json:"archive_key"`
	QualityScore    *float64   `json:"quality_score"`
	RewriteScore    *float64   `json:"rewrite_score"`
	RewriteType     *string    `json:"rewrite_type"`
	EloRating       int        `json:"elo_rating"`
	ComparisonCount int        `json:"comparison_count"`
	Sampled         bool       `json:"sampled"`
	IsReference     bool       `json:"is_reference"`
	Status          Status     `json:"lifecycle_status"`
	WorkingCopyPath *string    `json:"working_copy_path"`
	RewriteDate     *time.Time `json:"rewrite_date"`
	DeletionReason  *string    `json:"deletion_reason"`
	ArchivedReason  *string    `json:"archived_reason"`
	Tags            []string   `json:"tags"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// CreateCommand registers a new pending document.
type CreateCommand struct {
	ID            string    `json:"id" validate:"required"`
	Title         string    `json:"title" validate:"required"`
	PublishedDate time.Time `json:"published_date" validate:"required"`
	Category      *string   `json:"category,omitempty"`
	Body          string    `json:"body"`
	WordCount     int       `json:"word_count" validate:"gte=0"`
	ArchiveKey    string    `json:"archive_key" validate:"required"`
	Tags          []string  `json:"tags,omitempty"`
}

// UpdateCommand changes content fields. Nil fields are left unchanged; an empty
// Category clears it. Search postings are rewritten only when Title, Category,
// or Body actually change.
type UpdateCommand struct {
	Title         *string    `json:"title,omitempty" validate:"omitempty,min=1"`
	PublishedDate *time.Time `json:"published_date,omitempty"`
	Category      *string    `json:"category,omitempty"`
	Body          *string    `json:"body,omitempty"`
	WordCount     *int       `json:"word_count,omitempty" validate:"omitempty,gte=0"`
}

// ScoresCommand sets externally computed, advisory scores. Nil fields are left unchanged.
type ScoresCommand struct {
	QualityScore *float64 `json:"quality_score,omitempty" validate:"omitempty,gte=0,lte=1"`
	RewriteScore *float64 `json:"rewrite_score,omitempty"`
	RewriteType  *string  `json:"rewrite_type,omitempty"`
}

// Rating is the cached projection of the comparison log held on each document.
type Rating struct {
	EloRating       int  `json:"elo_rating"`
	ComparisonCount int  `json:"comparison_count"`
	IsReference     bool `json:"is_reference"`
}

// Change is a lifecycle mutation applied to one locked document.
// Hops lists the target statuses in order; every hop must be a legal edge.
// A Change with no hops and a WorkingCopyPath is a path-only update.
type Change struct {
	Hops            []Status
	WorkingCopyPath *string
	RewriteDate     *time.Time
	DeletionReason  *string
	ArchivedReason  *string
	Reason          string
	RunID           uuid.UUID
}

// Empty reports whether the change writes nothing.
func (c Change) Empty() bool {
	return len(c.Hops) == 0 && c.WorkingCopyPath == nil
}

// Final returns the status the change ends in, or from when it has no hops.
func (c Change) Final(from Status) Status {
	if len(c.Hops) == 0 {
		return from
	}
	return c.Hops[len(c.Hops)-1]
}

// Event is one recorded lifecycle transition.
type Event struct {
	ID         int64      `json:"id"`
	DocumentID string     `json:"document_id"`
	From       Status     `json:"from_status"`
	To         Status     `json:"to_status"`
	Reason     string     `json:"reason"`
	RunID      *uuid.UUID `json:"run_id"`
	OccurredAt time.Time  `json:"occurred_at"`
}
