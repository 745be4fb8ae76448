package reconcile

import (
	"log/slog"
	"net/http"

	"github.com/JaimeStill/curator/pkg/handlers"
	"github.com/JaimeStill/curator/pkg/routes"
)

// Handler provides HTTP endpoints for reconciliation.
type Handler struct {
	rec    *Reconciler
	logger *slog.Logger
}

// NewHandler creates a Handler for rec.
func NewHandler(rec *Reconciler, logger *slog.Logger) *Handler {
	return &Handler{
		rec:    rec,
		logger: logger.With("handler", "reconcile"),
	}
}

// Routes returns the route group definition for reconciliation endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/reconcile",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "", Handler: h.Run},
			{Method: "GET", Pattern: "/stats", Handler: h.Stats},
		},
	}
}

// Run performs a synchronous reconciliation run. The body is optional; when
// absent the configured defaults apply.
func (h *Handler) Run(w http.ResponseWriter, r *http.Request) {
	opts := Options{Import: h.rec.cfg.DefaultImport}
	if r.ContentLength != 0 {
		if err := handlers.DecodeJSON(w, r, 0, &opts); err != nil {
			handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
			return
		}
	}

	report, err := h.rec.Run(r.Context(), opts)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, report)
}

// Stats returns aggregate counts computed from the store.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.rec.Stats(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, stats)
}
