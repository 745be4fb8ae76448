package api

import (
	"net/http"

	"github.com/JaimeStill/curator/internal/config"
	"github.com/JaimeStill/curator/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
) []string {
	return routes.Register(
		mux,
		domain.Documents.Handler().Routes(),
		domain.Rating.Handler(cfg.API.MaxFeedSizeBytes()).Routes(),
		domain.Reconciler.Handler().Routes(),
		domain.Sampler.Handler().Routes(),
		domain.Search.Handler().Routes(),
	)
}
