package rating_test

import (
	"testing"

	"github.com/JaimeStill/curator/internal/rating"
)

var testEnv = &rating.Env{
	KFactor:                 "TEST_RATING_K_FACTOR",
	InitialRating:           "TEST_RATING_INITIAL",
	ReferenceThreshold:      "TEST_RATING_REFERENCE_THRESHOLD",
	ReferenceMinComparisons: "TEST_RATING_REFERENCE_MIN",
	ExploitationThreshold:   "TEST_RATING_EXPLOITATION_THRESHOLD",
}

func TestConfigDefaults(t *testing.T) {
	var cfg rating.Config
	if err := cfg.Finalize(testEnv); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.KFactor != 32 {
		t.Errorf("KFactor = %v, want 32", cfg.KFactor)
	}
	if cfg.InitialRating != 1500 {
		t.Errorf("InitialRating = %d, want 1500", cfg.InitialRating)
	}
	if cfg.ReferenceThreshold != 1550 || cfg.ReferenceMinComparisons != 5 {
		t.Errorf("reference = %d/%d, want 1550/5", cfg.ReferenceThreshold, cfg.ReferenceMinComparisons)
	}
	if cfg.ExploitationThreshold != 1520 {
		t.Errorf("ExploitationThreshold = %d, want 1520", cfg.ExploitationThreshold)
	}
}

func TestConfigEnvOverrides(t *testing.T) {
	t.Setenv("TEST_RATING_K_FACTOR", "24")
	t.Setenv("TEST_RATING_REFERENCE_THRESHOLD", "1600")
	t.Setenv("TEST_RATING_REFERENCE_MIN", "not-a-number")

	var cfg rating.Config
	if err := cfg.Finalize(testEnv); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.KFactor != 24 {
		t.Errorf("KFactor = %v, want 24", cfg.KFactor)
	}
	if cfg.ReferenceThreshold != 1600 {
		t.Errorf("ReferenceThreshold = %d, want 1600", cfg.ReferenceThreshold)
	}
	if cfg.ReferenceMinComparisons != 5 {
		t.Errorf("unparseable override should keep default, got %d", cfg.ReferenceMinComparisons)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"negative k_factor", "TEST_RATING_K_FACTOR", "-4"},
		{"zero reference_min_comparisons", "TEST_RATING_REFERENCE_MIN", "0"},
		{"zero exploitation_threshold", "TEST_RATING_EXPLOITATION_THRESHOLD", "0"},
		{"exploitation above reference", "TEST_RATING_EXPLOITATION_THRESHOLD", "1600"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)

			var cfg rating.Config
			if err := cfg.Finalize(testEnv); err == nil {
				t.Errorf("expected error for %s=%s", tt.key, tt.val)
			}
		})
	}
}

func TestConfigZeroMeansDefault(t *testing.T) {
	cfg := rating.Config{ReferenceMinComparisons: 0, ExploitationThreshold: 0}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ReferenceMinComparisons != 5 || cfg.ExploitationThreshold != 1520 {
		t.Errorf("zero fields = %d/%d, want defaults 5/1520", cfg.ReferenceMinComparisons, cfg.ExploitationThreshold)
	}
}

func TestConfigMerge(t *testing.T) {
	base := rating.Config{KFactor: 32, InitialRating: 1500, ReferenceThreshold: 1550}
	base.Merge(&rating.Config{KFactor: 16})

	if base.KFactor != 16 {
		t.Errorf("KFactor = %v, want 16", base.KFactor)
	}
	if base.ReferenceThreshold != 1550 {
		t.Errorf("ReferenceThreshold = %d, want unchanged 1550", base.ReferenceThreshold)
	}
}
