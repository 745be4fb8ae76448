package rating

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/curator/pkg/handlers"
	"github.com/JaimeStill/curator/pkg/pagination"
	"github.com/JaimeStill/curator/pkg/routes"
)

// Handler provides HTTP endpoints for comparison and rating operations.
type Handler struct {
	sys          System
	logger       *slog.Logger
	pagination   pagination.Config
	maxFeedBytes int64
}

// DefaultMaxFeedBytes bounds a feed upload when no limit is configured.
const DefaultMaxFeedBytes int64 = 32 << 20

// NewHandler creates a Handler. maxFeedBytes bounds the body of a feed upload.
func NewHandler(sys System, logger *slog.Logger, pagination pagination.Config, maxFeedBytes int64) *Handler {
	if maxFeedBytes <= 0 {
		maxFeedBytes = DefaultMaxFeedBytes
	}
	return &Handler{
		sys:          sys,
		logger:       logger.With("handler", "comparisons"),
		pagination:   pagination,
		maxFeedBytes: maxFeedBytes,
	}
}

// Routes returns the route group definition for comparison endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/comparisons",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "POST", Pattern: "", Handler: h.Apply},
			{Method: "POST", Pattern: "/feed", Handler: h.Ingest},
			{Method: "POST", Pattern: "/rebuild", Handler: h.Rebuild},
			{Method: "GET", Pattern: "/verify", Handler: h.Verify},
			{Method: "GET", Pattern: "/distribution", Handler: h.Distribution},
		},
	}
}

// List returns paginated comparison history.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters := FiltersFromQuery(r.URL.Query())

	result, err := h.sys.List(r.Context(), page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Apply records a single comparison.
func (h *Handler) Apply(w http.ResponseWriter, r *http.Request) {
	var cmd ApplyCommand
	if err := handlers.DecodeJSON(w, r, 0, &cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	result, err := h.sys.Apply(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, result)
}

// Ingest applies a JSON-lines feed from the request body.
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, h.maxFeedBytes)

	report, err := h.sys.Ingest(r.Context(), body)
	if err != nil {
		status := MapHTTPStatus(err)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}

		handlers.RespondJSON(w, status, map[string]any{
			"error":  err.Error(),
			"report": report,
		})
		h.logger.Warn("feed ingestion stopped", "error", err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, report)
}

// Rebuild replays the comparison log into the rating cache.
func (h *Handler) Rebuild(w http.ResponseWriter, r *http.Request) {
	changed, err := h.sys.Rebuild(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, map[string]int{"changed": changed})
}

// Verify reports documents whose cached rating drifted from the comparison log.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	drift, err := h.sys.Verify(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, map[string]any{
		"consistent": len(drift) == 0,
		"drift":      drift,
	})
}

// Distribution reports how compared documents spread over rating bands.
func (h *Handler) Distribution(w http.ResponseWriter, r *http.Request) {
	d, err := h.sys.Distribution(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, d)
}
