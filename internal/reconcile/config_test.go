package reconcile_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/curator/internal/reconcile"
)

var testEnv = &reconcile.Env{
	ArchiveSource: "TEST_RECONCILE_ARCHIVE_SOURCE",
	ArchivePath:   "TEST_RECONCILE_ARCHIVE_PATH",
	Pattern:       "TEST_RECONCILE_PATTERN",
	WorkingPath:   "TEST_RECONCILE_WORKING_PATH",
	PublishedDir:  "TEST_RECONCILE_PUBLISHED_DIR",
	WatchDebounce: "TEST_RECONCILE_WATCH_DEBOUNCE",
}

func TestConfigDefaults(t *testing.T) {
	var cfg reconcile.Config
	require.NoError(t, cfg.Finalize(testEnv))

	assert.Equal(t, reconcile.SourceDir, cfg.ArchiveSource)
	assert.Equal(t, "archive", cfg.ArchivePath)
	assert.Equal(t, "**/*.md", cfg.Pattern)
	assert.Equal(t, "working", cfg.WorkingPath)
	assert.Equal(t, "published", cfg.PublishedDir)
	assert.Equal(t, 2*time.Second, cfg.WatchDebounceDuration())
}

func TestConfigEnvOverrides(t *testing.T) {
	t.Setenv("TEST_RECONCILE_ARCHIVE_SOURCE", "blob")
	t.Setenv("TEST_RECONCILE_WORKING_PATH", "/srv/rewrites")
	t.Setenv("TEST_RECONCILE_WATCH_DEBOUNCE", "500ms")

	var cfg reconcile.Config
	require.NoError(t, cfg.Finalize(testEnv))

	assert.Equal(t, reconcile.SourceBlob, cfg.ArchiveSource)
	assert.Equal(t, "/srv/rewrites", cfg.WorkingPath)
	assert.Equal(t, 500*time.Millisecond, cfg.WatchDebounceDuration())
}

func TestConfigMerge(t *testing.T) {
	cfg := reconcile.Config{WorkingPath: "working", PublishedDir: "published"}
	cfg.Merge(&reconcile.Config{WorkingPath: "drafts", DefaultImport: true})

	assert.Equal(t, "drafts", cfg.WorkingPath)
	assert.Equal(t, "published", cfg.PublishedDir)
	assert.True(t, cfg.DefaultImport)
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  reconcile.Config
	}{
		{"unknown source", reconcile.Config{ArchiveSource: "ftp"}},
		{"invalid pattern", reconcile.Config{Pattern: "[a-"}},
		{"published escapes", reconcile.Config{PublishedDir: "../out"}},
		{"published absolute", reconcile.Config{PublishedDir: "/published"}},
		{"published root", reconcile.Config{PublishedDir: "./"}},
		{"bad debounce", reconcile.Config{WatchDebounce: "soon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			assert.Error(t, cfg.Finalize(nil))
		})
	}
}
