package reconcile_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/curator/internal/documents"
	"github.com/JaimeStill/curator/internal/reconcile"
	"github.com/JaimeStill/curator/pkg/routes"
)

func setupMux(f *fixture) *http.ServeMux {
	mux := http.NewServeMux()
	routes.Register(mux, f.rec.Handler().Routes())
	return mux
}

func TestHandlerRun(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantDryRun bool
	}{
		{"no body", "", http.StatusOK, false},
		{"dry run", `{"dry_run":true}`, http.StatusOK, true},
		{"unknown field", `{"force":true}`, http.StatusBadRequest, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, stored("20080101-001", documents.StatusPending, nil))
			f.work(t, "20080101-001.md", base.Add(-time.Minute))
			mux := setupMux(f)

			req := httptest.NewRequest(http.MethodPost, "/reconcile", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantStatus != http.StatusOK {
				return
			}

			var report reconcile.Report
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
			assert.Equal(t, tt.wantDryRun, report.DryRun)
			require.Len(t, report.Transitions, 1)
			assert.Equal(t, documents.StatusInProgress, report.Transitions[0].To)
		})
	}
}

func TestHandlerRunBusy(t *testing.T) {
	f := newFixture(t, stored("20080101-001", documents.StatusPending, nil))
	release, ok, err := f.locker.TryLock(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	defer release(context.Background())

	rec := httptest.NewRecorder()
	setupMux(f).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/reconcile", nil))

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandlerRunArchiveShrunk(t *testing.T) {
	f := newFixture(t, stored("20080101-001", documents.StatusPending, nil))
	require.NoError(t, os.Remove(filepath.Join(f.archiveDir, "2008", "20080101-001.md")))

	rec := httptest.NewRecorder()
	setupMux(f).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/reconcile", nil))

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandlerStats(t *testing.T) {
	f := newFixture(t,
		stored("20080101-001", documents.StatusPending, nil),
		stored("20080102-001", documents.StatusCompleted, nil),
	)

	rec := httptest.NewRecorder()
	setupMux(f).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reconcile/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var stats documents.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.ByStatus[documents.StatusCompleted])
}
