package api

import (
	"github.com/JaimeStill/curator/internal/config"
	"github.com/JaimeStill/curator/internal/documents"
	"github.com/JaimeStill/curator/internal/rating"
	"github.com/JaimeStill/curator/internal/reconcile"
	"github.com/JaimeStill/curator/internal/sampler"
	"github.com/JaimeStill/curator/internal/search"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Documents  documents.System
	Rating     rating.System
	Reconciler *reconcile.Reconciler
	Sampler    sampler.System
	Search     search.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(cfg *config.Config, runtime *Runtime) *Domain {
	db := runtime.Database.Connection()

	docsSystem := documents.New(db, rating.Initial(cfg.Rating), runtime.Logger, runtime.Pagination)

	ratingSystem := rating.New(db, cfg.Rating, runtime.Logger, runtime.Pagination)

	reconciler := reconcile.New(
		docsSystem,
		reconcile.NewAdvisoryLocker(db),
		runtime.Archive,
		cfg.Reconcile,
		runtime.Logger,
	)

	samplerSystem := sampler.New(db, runtime.Logger, SamplerDefaults(&cfg.Rating))

	searchSystem := search.New(db, docsSystem, runtime.Logger)

	return &Domain{
		Documents:  docsSystem,
		Rating:     ratingSystem,
		Reconciler: reconciler,
		Sampler:    samplerSystem,
		Search:     searchSystem,
	}
}

// SamplerDefaults derives the exploration and exploitation presets from the
// rating thresholds.
func SamplerDefaults(cfg *rating.Config) sampler.Defaults {
	return sampler.Defaults{
		ExplorationMaxComparisons: cfg.ReferenceMinComparisons,
		ExploitationMinElo:        cfg.ExploitationThreshold,
	}
}
