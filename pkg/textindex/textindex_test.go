package textindex_test

import (
	"slices"
	"testing"

	"github.com/JaimeStill/curator/pkg/textindex"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"empty", "", nil},
		{"punctuation only", "... --- !!!", nil},
		{"latin lowercased", "Hello, World 2008", []string{"hello", "world", "2008"}},
		{"han bigrams", "读书笔记", []string{"读书", "书笔", "笔记"}},
		{"single han rune", "书", []string{"书"}},
		{"mixed scripts", "Go语言 v2", []string{"go", "语言", "v2"}},
		{"kana run", "カタカナ", []string{"カタ", "タカ", "カナ"}},
		{"brackets split runs", "【随笔】人生", []string{"随笔", "人生"}},
		{"repeats kept", "a a", []string{"a", "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := textindex.Tokenize(tt.text)
			if !slices.Equal(got, tt.want) {
				t.Errorf("Tokenize(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestTerms(t *testing.T) {
	got := textindex.Terms("rain Rain 雨天 rain")
	want := []string{"rain", "雨天"}
	if !slices.Equal(got, want) {
		t.Errorf("Terms = %q, want %q", got, want)
	}

	if got := textindex.Terms("  ,.  "); len(got) != 0 {
		t.Errorf("Terms of punctuation = %q, want empty", got)
	}
}

func TestBuildWeights(t *testing.T) {
	p := textindex.Build(textindex.Fields{
		Title:    "Winter rain",
		Category: "rain",
		Body:     "rain on the roof",
	})

	tests := []struct {
		term string
		want float64
	}{
		{"rain", textindex.TitleWeight + textindex.CategoryWeight + textindex.BodyWeight},
		{"winter", textindex.TitleWeight},
		{"roof", textindex.BodyWeight},
		{"missing", 0},
	}

	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			if got := p[tt.term]; got != tt.want {
				t.Errorf("postings[%q] = %v, want %v", tt.term, got, tt.want)
			}
		})
	}
}

func TestBuildIndexesCJKUnigrams(t *testing.T) {
	p := textindex.Build(textindex.Fields{Title: "猫の話", Body: "猫が好き"})

	tests := []struct {
		term string
		want float64
	}{
		{"猫", textindex.TitleWeight + textindex.BodyWeight},
		{"話", textindex.TitleWeight},
		{"猫の", textindex.TitleWeight},
		{"好き", textindex.BodyWeight},
	}

	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			if got := p[tt.term]; got != tt.want {
				t.Errorf("postings[%q] = %v, want %v", tt.term, got, tt.want)
			}
		})
	}

	for _, term := range textindex.Terms("猫") {
		if p[term] == 0 {
			t.Errorf("query term %q has no posting", term)
		}
	}
}

func TestTermsKeepCJKBigrams(t *testing.T) {
	got := textindex.Terms("猫が好き")
	want := []string{"猫が", "が好", "好き"}
	if !slices.Equal(got, want) {
		t.Errorf("Terms = %q, want %q", got, want)
	}
}

func TestFieldsEqual(t *testing.T) {
	a := textindex.Fields{Title: "t", Category: "c", Body: "b"}

	if !a.Equal(a) {
		t.Error("fields should equal themselves")
	}
	for _, b := range []textindex.Fields{
		{Title: "x", Category: "c", Body: "b"},
		{Title: "t", Category: "", Body: "b"},
		{Title: "t", Category: "c", Body: "b2"},
	} {
		if a.Equal(b) {
			t.Errorf("%+v should differ from %+v", a, b)
		}
	}
}
