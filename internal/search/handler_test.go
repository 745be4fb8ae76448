package search_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/curator/internal/documents"
	"github.com/JaimeStill/curator/internal/search"
	"github.com/JaimeStill/curator/pkg/routes"
)

type mockSystem struct {
	search.System

	searchFn func(context.Context, search.Query) ([]search.Hit, error)
}

func (m *mockSystem) Search(ctx context.Context, q search.Query) ([]search.Hit, error) {
	return m.searchFn(ctx, q)
}

func setupMux(sys search.System) *http.ServeMux {
	h := search.NewHandler(sys, slog.New(slog.NewTextHandler(io.Discard, nil)))
	mux := http.NewServeMux()
	routes.Register(mux, h.Routes())
	return mux
}

func TestHandlerSearch(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantQuery  search.Query
	}{
		{"terms", "/search?q=rain", http.StatusOK, search.Query{Text: "rain"}},
		{"limit and all", "/search?q=rain+snow&limit=5&all=true", http.StatusOK, search.Query{Text: "rain snow", Limit: 5, All: true}},
		{"empty query", "/search?q=", http.StatusBadRequest, search.Query{}},
		{"bad limit", "/search?q=rain&limit=many", http.StatusBadRequest, search.Query{}},
		{"bad all", "/search?q=rain&all=maybe", http.StatusBadRequest, search.Query{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got search.Query
			sys := &mockSystem{
				searchFn: func(_ context.Context, q search.Query) ([]search.Hit, error) {
					got = q
					if _, err := q.Terms(); err != nil {
						return nil, err
					}
					return []search.Hit{{Document: documents.Document{ID: "20080101-001"}, Score: 2.5}}, nil
				},
			}

			rec := httptest.NewRecorder()
			setupMux(sys).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			if got != tt.wantQuery {
				t.Errorf("query = %+v, want %+v", got, tt.wantQuery)
			}

			var hits []search.Hit
			if err := json.Unmarshal(rec.Body.Bytes(), &hits); err != nil {
				t.Fatal(err)
			}
			if len(hits) != 1 || hits[0].Score != 2.5 {
				t.Errorf("hits = %+v", hits)
			}
		})
	}
}
