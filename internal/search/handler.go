package search

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/JaimeStill/curator/pkg/handlers"
	"github.com/JaimeStill/curator/pkg/routes"
)

// Handler provides HTTP endpoints for search.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "search"),
	}
}

// Routes returns the route group definition for search endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/search",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.Search},
			{Method: "POST", Pattern: "/reindex", Handler: h.Reindex},
		},
	}
}

// Search ranks documents for the q parameter.
// Query: q, limit, all (require every term).
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	q := Query{Text: values.Get("q")}

	if s := values.Get("limit"); s != "" {
		limit, err := strconv.Atoi(s)
		if err != nil {
			handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: %q", ErrInvalidLimit, s))
			return
		}
		q.Limit = limit
	}
	if s := values.Get("all"); s != "" {
		all, err := strconv.ParseBool(s)
		if err != nil {
			handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: all=%q", ErrInvalidQuery, s))
			return
		}
		q.All = all
	}

	hits, err := h.sys.Search(r.Context(), q)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, hits)
}

// Reindex rebuilds every search posting.
func (h *Handler) Reindex(w http.ResponseWriter, r *http.Request) {
	n, err := h.sys.Reindex(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, map[string]int{"indexed": n})
}
