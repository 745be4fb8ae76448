package rating_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JaimeStill/curator/internal/documents"
	"github.com/JaimeStill/curator/internal/rating"
	"github.com/JaimeStill/curator/pkg/pagination"
	"github.com/JaimeStill/curator/pkg/routes"
)

type mockSystem struct {
	rating.System

	applyFn  func(context.Context, rating.ApplyCommand) (*rating.Result, error)
	ingestFn func(context.Context, io.Reader) (*rating.IngestReport, error)
	verifyFn func(context.Context) ([]rating.Drift, error)
}

func (m *mockSystem) Apply(ctx context.Context, cmd rating.ApplyCommand) (*rating.Result, error) {
	return m.applyFn(ctx, cmd)
}

func (m *mockSystem) Ingest(ctx context.Context, feed io.Reader) (*rating.IngestReport, error) {
	return m.ingestFn(ctx, feed)
}

func (m *mockSystem) Verify(ctx context.Context) ([]rating.Drift, error) {
	return m.verifyFn(ctx)
}

func setupMux(sys rating.System, maxFeed int64) *http.ServeMux {
	h := rating.NewHandler(
		sys,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		pagination.Config{DefaultPageSize: 20, MaxPageSize: 100},
		maxFeed,
	)
	mux := http.NewServeMux()
	routes.Register(mux, h.Routes())
	return mux
}

func TestHandlerApply(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		applyErr   error
		wantStatus int
	}{
		{
			"applied",
			`{"document_a":"20080101-001","document_b":"20080102-001","winner":"A","confidence":"High"}`,
			nil,
			http.StatusCreated,
		},
		{
			"unknown document",
			`{"document_a":"20080101-001","document_b":"20990101-001","winner":"A","confidence":"High"}`,
			fmt.Errorf("%w: 20990101-001", rating.ErrUnknownDocument),
			http.StatusNotFound,
		},
		{
			"invalid winner",
			`{"document_a":"20080101-001","document_b":"20080102-001","winner":"C","confidence":"High"}`,
			rating.ErrInvalidWinner,
			http.StatusBadRequest,
		},
		{
			"missing fields",
			`{"document_a":"20080101-001"}`,
			nil,
			http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sys := &mockSystem{
				applyFn: func(_ context.Context, cmd rating.ApplyCommand) (*rating.Result, error) {
					if tt.applyErr != nil {
						return nil, tt.applyErr
					}
					return &rating.Result{
						Comparison: rating.Comparison{ID: 1, DocumentA: cmd.DocumentA, DocumentB: cmd.DocumentB, Winner: cmd.Winner},
						RatingA:    documents.Rating{EloRating: 1516, ComparisonCount: 1},
						RatingB:    documents.Rating{EloRating: 1484, ComparisonCount: 1},
					}, nil
				},
			}

			rec := httptest.NewRecorder()
			req := httptest.NewRequest("POST", "/comparisons", strings.NewReader(tt.body))
			setupMux(sys, 0).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}

			if tt.wantStatus == http.StatusCreated {
				var result rating.Result
				if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
					t.Fatalf("decode: %v", err)
				}
				if result.RatingA.EloRating != 1516 || result.RatingB.EloRating != 1484 {
					t.Errorf("ratings = %d/%d", result.RatingA.EloRating, result.RatingB.EloRating)
				}
			}
		})
	}
}

func TestHandlerIngestStopsOnInvalidRecord(t *testing.T) {
	sys := &mockSystem{
		ingestFn: func(_ context.Context, feed io.Reader) (*rating.IngestReport, error) {
			data, _ := io.ReadAll(feed)
			lines := strings.Split(strings.TrimSpace(string(data)), "\n")
			return &rating.IngestReport{Applied: len(lines) - 1},
				fmt.Errorf("line %d: %w", len(lines), rating.ErrInvalidRecord)
		},
	}

	feed := strings.Join([]string{
		`{"document_a":"a","document_b":"b","winner":"A","confidence":"High"}`,
		`{"document_a":"a","document_b":"c","winner":"B","confidence":"Low"}`,
		`{not json`,
	}, "\n")

	rec := httptest.NewRecorder()
	setupMux(sys, 0).ServeHTTP(rec, httptest.NewRequest("POST", "/comparisons/feed", strings.NewReader(feed)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	var body struct {
		Error  string              `json:"error"`
		Report rating.IngestReport `json:"report"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.HasPrefix(body.Error, "line 3:") {
		t.Errorf("error = %q, want line number", body.Error)
	}
	if body.Report.Applied != 2 {
		t.Errorf("applied = %d, want 2", body.Report.Applied)
	}
}

func TestHandlerIngestTooLarge(t *testing.T) {
	sys := &mockSystem{
		ingestFn: func(_ context.Context, feed io.Reader) (*rating.IngestReport, error) {
			if _, err := io.ReadAll(feed); err != nil {
				return &rating.IngestReport{}, fmt.Errorf("read feed: %w", err)
			}
			return &rating.IngestReport{}, nil
		},
	}

	rec := httptest.NewRecorder()
	body := strings.NewReader(strings.Repeat("x", 64))
	setupMux(sys, 16).ServeHTTP(rec, httptest.NewRequest("POST", "/comparisons/feed", body))

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
}

func TestHandlerVerify(t *testing.T) {
	sys := &mockSystem{
		verifyFn: func(context.Context) ([]rating.Drift, error) {
			return []rating.Drift{{
				DocumentID: "20080101-001",
				Cached:     documents.Rating{EloRating: 1510, ComparisonCount: 1},
				Projected:  documents.Rating{EloRating: 1516, ComparisonCount: 1},
			}}, nil
		},
	}

	rec := httptest.NewRecorder()
	setupMux(sys, 0).ServeHTTP(rec, httptest.NewRequest("GET", "/comparisons/verify", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Consistent bool           `json:"consistent"`
		Drift      []rating.Drift `json:"drift"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Consistent || len(body.Drift) != 1 {
		t.Errorf("body = %+v", body)
	}
}
