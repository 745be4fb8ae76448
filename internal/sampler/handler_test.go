package sampler_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JaimeStill/curator/internal/documents"
	"github.com/JaimeStill/curator/internal/sampler"
	"github.com/JaimeStill/curator/pkg/query"
	"github.com/JaimeStill/curator/pkg/routes"
)

type mockSystem struct {
	sampler.System

	sampleFn func(context.Context, sampler.Request) ([]documents.Document, error)
	randomFn func(context.Context, sampler.RandomRequest) ([]documents.Document, error)
	topFn    func(context.Context, sampler.TopRequest) ([]sampler.Group, error)
}

func (m *mockSystem) Sample(ctx context.Context, req sampler.Request) ([]documents.Document, error) {
	return m.sampleFn(ctx, req)
}

func (m *mockSystem) Random(ctx context.Context, req sampler.RandomRequest) ([]documents.Document, error) {
	return m.randomFn(ctx, req)
}

func (m *mockSystem) TopByCategory(ctx context.Context, req sampler.TopRequest) ([]sampler.Group, error) {
	return m.topFn(ctx, req)
}

var testDefaults = sampler.Defaults{
	ExplorationMaxComparisons:  5,
	ExplorationMinRewriteScore: 0.5,
	ExploitationMinElo:         1520,
}

func setupMux(sys sampler.System) *http.ServeMux {
	h := sampler.NewHandler(sys, slog.New(slog.NewTextHandler(io.Discard, nil)), testDefaults)
	mux := http.NewServeMux()
	routes.Register(mux, h.Routes())
	return mux
}

func TestHandlerSample(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"valid", `{"filters":{"min_elo_rating":1550},"limit":2}`, http.StatusOK},
		{"unknown filter key", `{"filters":{"elo":1},"limit":2}`, http.StatusBadRequest},
		{"malformed", `{"limit":`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sys := &mockSystem{
				sampleFn: func(_ context.Context, req sampler.Request) ([]documents.Document, error) {
					if err := req.Apply(query.NewBuilder(documents.Projection)); err != nil {
						return nil, err
					}
					return []documents.Document{{ID: "20080101-001", EloRating: 1600}}, nil
				},
			}

			rec := httptest.NewRecorder()
			setupMux(sys).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sample", strings.NewReader(tt.body)))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestHandlerPresets(t *testing.T) {
	tests := []struct {
		name   string
		target string
		check  func(t *testing.T, req sampler.Request)
	}{
		{
			"exploration defaults",
			"/sample/exploration",
			func(t *testing.T, req sampler.Request) {
				if req.Filters["max_comparison_count"] != 5 || req.Filters["min_rewrite_score"] != 0.5 {
					t.Errorf("filters = %v", req.Filters)
				}
				if req.Limit != sampler.DefaultLimit {
					t.Errorf("limit = %d, want %d", req.Limit, sampler.DefaultLimit)
				}
			},
		},
		{
			"exploitation overrides",
			"/sample/exploitation?min_elo=1600&limit=3",
			func(t *testing.T, req sampler.Request) {
				if req.Filters["min_elo_rating"] != 1600 || req.Limit != 3 {
					t.Errorf("req = %+v", req)
				}
				if req.OrderBy == nil || req.OrderBy.Field != "elo_rating" || !req.OrderBy.Descending {
					t.Errorf("order = %+v", req.OrderBy)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got sampler.Request
			sys := &mockSystem{
				sampleFn: func(_ context.Context, req sampler.Request) ([]documents.Document, error) {
					got = req
					return []documents.Document{}, nil
				},
			}

			rec := httptest.NewRecorder()
			setupMux(sys).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
			}
			tt.check(t, got)
		})
	}
}

func TestHandlerPresetBadParam(t *testing.T) {
	rec := httptest.NewRecorder()
	setupMux(&mockSystem{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sample/exploitation?min_elo=high", nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandlerRandom(t *testing.T) {
	var got sampler.RandomRequest
	sys := &mockSystem{
		randomFn: func(_ context.Context, req sampler.RandomRequest) ([]documents.Document, error) {
			got = req
			return []documents.Document{{ID: "20080101-001"}}, nil
		},
	}

	body := `{"limit":4,"seed":99,"filters":{"status":"completed"}}`
	rec := httptest.NewRecorder()
	setupMux(sys).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sample/random", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if got.Limit != 4 || got.Seed != 99 || got.Filters["status"] != "completed" {
		t.Errorf("request = %+v", got)
	}
}

func TestHandlerTop(t *testing.T) {
	var got sampler.TopRequest
	category := "随笔"
	sys := &mockSystem{
		topFn: func(_ context.Context, req sampler.TopRequest) ([]sampler.Group, error) {
			got = req
			return []sampler.Group{
				{Category: &category, Documents: []documents.Document{{ID: "20080101-001"}}},
				{Documents: []documents.Document{{ID: "20080102-001"}}},
			}, nil
		},
	}

	rec := httptest.NewRecorder()
	setupMux(sys).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sample/top?per_category=2&order=-elo_rating", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if got.PerCategory != 2 || got.OrderBy == nil || got.OrderBy.Field != "elo_rating" || !got.OrderBy.Descending {
		t.Errorf("request = %+v", got)
	}

	var groups []sampler.Group
	if err := json.Unmarshal(rec.Body.Bytes(), &groups); err != nil {
		t.Fatal(err)
	}
	if len(groups) != 2 || *groups[0].Category != "随笔" || groups[1].Category != nil {
		t.Errorf("groups = %+v", groups)
	}
}

func TestParseOrder(t *testing.T) {
	tests := []struct {
		in   string
		want *sampler.OrderBy
	}{
		{"", nil},
		{"  ", nil},
		{"year", &sampler.OrderBy{Field: "year"}},
		{"-elo_rating", &sampler.OrderBy{Field: "elo_rating", Descending: true}},
	}

	for _, tt := range tests {
		got := sampler.ParseOrder(tt.in)
		if (got == nil) != (tt.want == nil) || (got != nil && *got != *tt.want) {
			t.Errorf("ParseOrder(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}
