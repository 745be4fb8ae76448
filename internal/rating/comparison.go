package rating

import (
	"fmt"
	"time"

	"github.com/JaimeStill/curator/internal/documents"
)

// Comparison is one immutable entry of the comparison log.
type Comparison struct {
	ID            int64      `json:"id"`
	CorrelationID *string    `json:"correlation_id"`
	DocumentA     string     `json:"document_a"`
	DocumentB     string     `json:"document_b"`
	Winner        Winner     `json:"winner"`
	Confidence    Confidence `json:"confidence"`
	Context       string     `json:"context"`
	ComparedAt    time.Time  `json:"compared_at"`
	RatingABefore int        `json:"rating_a_before"`
	RatingAAfter  int        `json:"rating_a_after"`
	RatingBBefore int        `json:"rating_b_before"`
	RatingBAfter  int        `json:"rating_b_after"`
}

// ApplyCommand is one judged comparison. It is also the shape of a feed record,
// where CorrelationID is the record's optional id.
type ApplyCommand struct {
	CorrelationID *string    `json:"id,omitempty" validate:"omitempty,min=1"`
	DocumentA     string     `json:"document_a" validate:"required"`
	DocumentB     string     `json:"document_b" validate:"required"`
	Winner        Winner     `json:"winner" validate:"required"`
	Confidence    Confidence `json:"confidence" validate:"required"`
	Context       string     `json:"context"`
}

// Validate checks the winner, the confidence, and that the documents differ.
func (c ApplyCommand) Validate() error {
	if !c.Winner.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidWinner, c.Winner)
	}
	if !c.Confidence.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidConfidence, c.Confidence)
	}
	if c.DocumentA == c.DocumentB {
		return fmt.Errorf("%w: %s", ErrSelfComparison, c.DocumentA)
	}
	return nil
}

// Result is the outcome of applying a comparison.
type Result struct {
	Comparison Comparison       `json:"comparison"`
	RatingA    documents.Rating `json:"rating_a"`
	RatingB    documents.Rating `json:"rating_b"`
}

// IngestReport summarizes a feed ingestion.
type IngestReport struct {
	Applied    int `json:"applied"`
	Duplicates int `json:"duplicates"`
}

// Drift is a document whose cached rating differs from the log projection.
type Drift struct {
	DocumentID string           `json:"document_id"`
	Cached     documents.Rating `json:"cached"`
	Projected  documents.Rating `json:"projected"`
}

// Band is one rating interval of a Distribution.
type Band struct {
	Name  string `json:"name"`
	Min   *int   `json:"min"`
	Max   *int   `json:"max"`
	Count int    `json:"count"`
}

// Distribution groups compared documents by rating band.
type Distribution struct {
	Compared  int    `json:"compared"`
	Bands     []Band `json:"bands"`
	Unrated   int    `json:"unrated"`
	MinRating *int   `json:"min_rating"`
	MaxRating *int   `json:"max_rating"`
}
