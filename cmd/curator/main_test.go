package main

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/curator/internal/documents"
	"github.com/JaimeStill/curator/internal/reconcile"
	"github.com/JaimeStill/curator/internal/sampler"
)

func TestParseFilters(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantLen int
		wantErr bool
	}{
		{"empty", "", 0, false},
		{"object", `{"min_elo_rating":1550,"status":["pending"]}`, 2, false},
		{"not an object", `[1,2]`, 0, true},
		{"malformed", `{"min_elo_rating":`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFilters(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseFilters(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, sampler.ErrInvalidFilter) {
				t.Errorf("error %v does not wrap ErrInvalidFilter", err)
			}
			if len(got) != tt.wantLen {
				t.Errorf("parseFilters(%q) = %v, want %d keys", tt.input, got, tt.wantLen)
			}
		})
	}
}

func TestPrintReport(t *testing.T) {
	path := "published/20080101-001.md"
	r := &reconcile.Report{
		RunID:    uuid.New(),
		DryRun:   true,
		Duration: 1500 * time.Microsecond,
		Transitions: []reconcile.Transition{{
			DocumentID:      "20080101-001",
			From:            documents.StatusInProgress,
			To:              documents.StatusCompleted,
			WorkingCopyPath: &path,
			Reason:          "published",
		}},
		Skipped:   []reconcile.Skip{{DocumentID: "20080102-001", Reason: "ambiguous working copy"}},
		Untracked: []string{"20080103-001"},
		Stats: &documents.Stats{
			Total:    3,
			ByStatus: map[documents.Status]int{documents.StatusCompleted: 1, documents.StatusPending: 2},
		},
	}

	var sb strings.Builder
	printReport(&sb, r)
	out := sb.String()

	for _, want := range []string{
		"1 transitions would apply",
		"20080101-001  in_progress -> completed  published",
		"skipped 20080102-001: ambiguous working copy",
		"untracked 20080103-001",
		"total 3: pending=2 in_progress=0 completed=1 deleted=0 archived=0",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestPrintStats(t *testing.T) {
	avg := 62.5
	st := &documents.Stats{
		Total:        4,
		ByStatus:     map[documents.Status]int{documents.StatusPending: 4},
		RewriteBands: documents.RewriteBands{Rewrite: 1, Review: 2, Deletion: 1},
		ByCategory: []documents.GroupStat{
			{Key: "essay", Count: 3, AverageElo: 1510, AverageRewrite: &avg, AverageWords: 1200},
			{Key: "", Count: 1, AverageElo: 1500, AverageWords: 300},
		},
		ByYear: []documents.GroupStat{{Key: "2008", Count: 4, AverageElo: 1507.5, AverageRewrite: &avg}},
	}

	var sb strings.Builder
	if err := printStats(&sb, st); err != nil {
		t.Fatalf("printStats: %v", err)
	}
	out := sb.String()

	for _, want := range []string{
		"rewrite candidates (>=70)",
		"review candidates (50-70)",
		"deletion candidates (<30)",
		"essay",
		"62.5",
		"1200",
		"(none)",
		"2008",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("stats missing %q:\n%s", want, out)
		}
	}
}

func TestCommandTree(t *testing.T) {
	for _, path := range [][]string{
		{"reconcile"},
		{"ingest"},
		{"compare"},
		{"sample", "exploration"},
		{"sample", "top"},
		{"search"},
		{"stats"},
		{"rebuild"},
		{"verify"},
		{"archive"},
	} {
		cmd, _, err := rootCmd.Find(path)
		if err != nil || cmd == rootCmd {
			t.Errorf("command %v not registered", path)
		}
	}
}
