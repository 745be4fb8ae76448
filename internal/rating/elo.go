// Package rating implements the ELO rating engine. The comparison log is the
// ground truth; each document's rating and comparison count are a cached
// projection of it, written in the same transaction as the comparison row.
package rating

import (
	"fmt"
	"math"

	"github.com/JaimeStill/curator/internal/documents"
)

// Winner is the outcome of a pairwise comparison.
type Winner string

const (
	WinnerA    Winner = "A"
	WinnerB    Winner = "B"
	WinnerDraw Winner = "Draw"
)

// Valid reports whether w is A, B, or Draw.
func (w Winner) Valid() bool {
	return w == WinnerA || w == WinnerB || w == WinnerDraw
}

// Confidence is the judge's stated certainty. It is recorded, not weighted.
type Confidence string

const (
	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceLow    Confidence = "Low"
)

// Valid reports whether c is High, Medium, or Low.
func (c Confidence) Valid() bool {
	return c == ConfidenceHigh || c == ConfidenceMedium || c == ConfidenceLow
}

// Expected returns the expected score of a player rated ra against rb.
func Expected(ra, rb int) float64 {
	return 1 / (1 + math.Pow(10, float64(rb-ra)/400))
}

// Score returns the actual scores of A and B for outcome w.
func Score(w Winner) (sa, sb float64, err error) {
	switch w {
	case WinnerA:
		return 1, 0, nil
	case WinnerB:
		return 0, 1, nil
	case WinnerDraw:
		return 0.5, 0.5, nil
	}
	return 0, 0, fmt.Errorf("%w: %q", ErrInvalidWinner, w)
}

// Apply returns the new ratings of A and B after outcome w with step size k.
// Ratings are rounded half away from zero.
func Apply(ra, rb int, w Winner, k float64) (int, int, error) {
	sa, sb, err := Score(w)
	if err != nil {
		return ra, rb, err
	}

	ea := Expected(ra, rb)
	eb := Expected(rb, ra)

	na := int(math.Round(float64(ra) + k*(sa-ea)))
	nb := int(math.Round(float64(rb) + k*(sb-eb)))
	return na, nb, nil
}

// IsReference reports whether a document with the given rating and comparison
// count qualifies as a reference under cfg.
func IsReference(rating, count int, cfg Config) bool {
	return rating >= cfg.ReferenceThreshold && count >= cfg.ReferenceMinComparisons
}

// Initial is the rating every document holds before its first comparison.
func Initial(cfg Config) documents.Rating {
	return documents.Rating{
		EloRating:   cfg.InitialRating,
		IsReference: IsReference(cfg.InitialRating, 0, cfg),
	}
}
