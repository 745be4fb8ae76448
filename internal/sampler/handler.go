package sampler

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/JaimeStill/curator/pkg/handlers"
	"github.com/JaimeStill/curator/pkg/routes"
)

// Handler provides HTTP endpoints for sampling queries.
type Handler struct {
	sys      System
	logger   *slog.Logger
	defaults Defaults
}

// NewHandler creates a Handler.
func NewHandler(sys System, logger *slog.Logger, defaults Defaults) *Handler {
	return &Handler{
		sys:      sys,
		logger:   logger.With("handler", "sample"),
		defaults: defaults.withFallbacks(),
	}
}

// Routes returns the route group definition for sampling endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/sample",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "", Handler: h.Sample},
			{Method: "POST", Pattern: "/random", Handler: h.Random},
			{Method: "GET", Pattern: "/top", Handler: h.Top},
			{Method: "GET", Pattern: "/exploration", Handler: h.Exploration},
			{Method: "GET", Pattern: "/exploitation", Handler: h.Exploitation},
		},
	}
}

// Sample runs a declarative sample request.
func (h *Handler) Sample(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := handlers.DecodeJSON(w, r, 0, &req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	h.respondSample(w, r, req)
}

// Random draws a seeded random sample.
func (h *Handler) Random(w http.ResponseWriter, r *http.Request) {
	var req RandomRequest
	if err := handlers.DecodeJSON(w, r, 0, &req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	docs, err := h.sys.Random(r.Context(), req)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, docs)
}

// Top returns the leading documents of every category.
// Query: per_category (default 5), order (e.g. "-elo_rating").
func (h *Handler) Top(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()

	per, err := intParam(values, "per_category", 5)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	req := TopRequest{PerCategory: per, OrderBy: ParseOrder(values.Get("order"))}
	if c := values.Get("category"); c != "" {
		req.Filters = map[string]any{"category": c}
	}

	groups, err := h.sys.TopByCategory(r.Context(), req)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, groups)
}

// Exploration samples under-compared documents with a promising rewrite score.
// Query: max_comparisons, min_rewrite_score, limit.
func (h *Handler) Exploration(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()

	maxComparisons, err := intParam(values, "max_comparisons", h.defaults.ExplorationMaxComparisons)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}
	minScore, err := floatParam(values, "min_rewrite_score", h.defaults.ExplorationMinRewriteScore)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}
	limit, err := intParam(values, "limit", h.defaults.Limit)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	h.respondSample(w, r, Exploration(maxComparisons, minScore, limit))
}

// Exploitation samples the highest-rated documents.
// Query: min_elo, limit.
func (h *Handler) Exploitation(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()

	minElo, err := intParam(values, "min_elo", h.defaults.ExploitationMinElo)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}
	limit, err := intParam(values, "limit", h.defaults.Limit)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	h.respondSample(w, r, Exploitation(minElo, limit))
}

func (h *Handler) respondSample(w http.ResponseWriter, r *http.Request, req Request) {
	docs, err := h.sys.Sample(r.Context(), req)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, docs)
}

// ParseOrder reads "field" or "-field" (descending). Empty input returns nil.
func ParseOrder(s string) *OrderBy {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if field, ok := strings.CutPrefix(s, "-"); ok {
		return &OrderBy{Field: field, Descending: true}
	}
	return &OrderBy{Field: s}
}

func intParam(values url.Values, key string, fallback int) (int, error) {
	s := values.Get(key)
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %q is not an integer", ErrInvalidFilter, key, s)
	}
	return v, nil
}

func floatParam(values url.Values, key string, fallback float64) (float64, error) {
	s := values.Get(key)
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %q is not a number", ErrInvalidFilter, key, s)
	}
	return v, nil
}
