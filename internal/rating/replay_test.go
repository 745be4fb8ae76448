package rating_test

import (
	"errors"
	"testing"

	"github.com/JaimeStill/curator/internal/documents"
	"github.com/JaimeStill/curator/internal/rating"
)

func defaultConfig(t *testing.T) rating.Config {
	t.Helper()
	var cfg rating.Config
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	return cfg
}

func TestProjectDoubleApplication(t *testing.T) {
	cfg := defaultConfig(t)
	ids := map[string]documents.Rating{
		"20080101-001": {},
		"20080102-001": {},
		"20080103-001": {},
	}
	win := rating.Outcome{DocumentA: "20080101-001", DocumentB: "20080102-001", Winner: rating.WinnerA}

	once, err := rating.Project(ids, []rating.Outcome{win}, cfg)
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	twice, err := rating.Project(ids, []rating.Outcome{win, win}, cfg)
	if err != nil {
		t.Fatalf("project: %v", err)
	}

	if got := once["20080101-001"]; got.EloRating != 1516 || got.ComparisonCount != 1 {
		t.Errorf("after one application = %+v, want 1516/1", got)
	}
	if got := twice["20080101-001"]; got.EloRating != 1531 || got.ComparisonCount != 2 {
		t.Errorf("after two applications = %+v, want 1531/2", got)
	}
	if got := twice["20080102-001"]; got.EloRating != 1469 || got.ComparisonCount != 2 {
		t.Errorf("loser after two applications = %+v, want 1469/2", got)
	}
	if got := twice["20080103-001"]; got.EloRating != 1500 || got.ComparisonCount != 0 {
		t.Errorf("untouched document = %+v, want 1500/0", got)
	}
}

func TestProjectDerivesReference(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.ReferenceThreshold = 1530
	cfg.ReferenceMinComparisons = 2

	ids := map[string]documents.Rating{"20080101-001": {}, "20080102-001": {}}
	win := rating.Outcome{DocumentA: "20080101-001", DocumentB: "20080102-001", Winner: rating.WinnerA}

	got, err := rating.Project(ids, []rating.Outcome{win, win}, cfg)
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	if !got["20080101-001"].IsReference {
		t.Error("winner should qualify as reference")
	}
	if got["20080102-001"].IsReference {
		t.Error("loser should not qualify as reference")
	}
}

func TestProjectUnknownDocument(t *testing.T) {
	ids := map[string]documents.Rating{"20080101-001": {}}
	log := []rating.Outcome{{DocumentA: "20080101-001", DocumentB: "20080199-001", Winner: rating.WinnerB}}

	if _, err := rating.Project(ids, log, defaultConfig(t)); !errors.Is(err, rating.ErrUnknownDocument) {
		t.Errorf("got %v, want ErrUnknownDocument", err)
	}
}

func TestBands(t *testing.T) {
	bands := rating.Bands(defaultConfig(t), 10, 2, 3)

	want := map[string]int{"reference": 2, "exploitation": 3, "exploration": 5}
	if len(bands) != len(want) {
		t.Fatalf("got %d bands, want %d", len(bands), len(want))
	}
	for _, b := range bands {
		if b.Count != want[b.Name] {
			t.Errorf("band %s count = %d, want %d", b.Name, b.Count, want[b.Name])
		}
	}
	if *bands[1].Min != 1520 || *bands[1].Max != 1549 {
		t.Errorf("exploitation band = [%d, %d], want [1520, 1549]", *bands[1].Min, *bands[1].Max)
	}
}

func TestInitialMatchesEmptyReplay(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.InitialRating = 1600
	cfg.ReferenceThreshold = 1550
	cfg.ReferenceMinComparisons = 1

	created := map[string]documents.Rating{
		"20080101-001": rating.Initial(cfg),
		"20080102-001": rating.Initial(cfg),
	}

	projected, err := rating.Project(created, nil, cfg)
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	for id, cached := range created {
		if projected[id] != cached {
			t.Errorf("%s: created %+v, replay %+v", id, cached, projected[id])
		}
	}
	if got := rating.Initial(cfg); got.EloRating != 1600 || got.ComparisonCount != 0 || got.IsReference {
		t.Errorf("Initial = %+v, want 1600/0 without reference", got)
	}
}
