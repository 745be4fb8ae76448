package query_test

import (
	"strings"
	"testing"

	"github.com/JaimeStill/curator/pkg/query"
)

func testProjection() *query.ProjectionMap {
	return query.NewProjectionMap("public", "documents", "d").
		Project("id", "ID").
		Project("title", "Title").
		Project("elo_rating", "EloRating")
}

func ptr[T any](v T) *T { return &v }

const selectAll = "SELECT d.id, d.title, d.elo_rating FROM public.documents d"

func TestProjectionMap(t *testing.T) {
	p := testProjection()

	if got := p.Table(); got != "public.documents d" {
		t.Errorf("Table() = %q, want %q", got, "public.documents d")
	}
	if got := p.Alias(); got != "d" {
		t.Errorf("Alias() = %q, want %q", got, "d")
	}
	if got := p.Columns(); got != "d.id, d.title, d.elo_rating" {
		t.Errorf("Columns() = %q", got)
	}
	if !p.Has("EloRating") || p.Has("Unknown") {
		t.Error("Has() did not reflect mapped fields")
	}

	tests := []struct {
		name     string
		viewName string
		want     string
	}{
		{"mapped field", "Title", "d.title"},
		{"mapped camel", "EloRating", "d.elo_rating"},
		{"unmapped passthrough", "unknown", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Column(tt.viewName); got != tt.want {
				t.Errorf("Column(%q) = %q, want %q", tt.viewName, got, tt.want)
			}
		})
	}
}

func TestProjectionMapJoin(t *testing.T) {
	p := query.NewProjectionMap("public", "comparisons", "c").
		Project("id", "ID").
		Join("public", "documents", "da", "JOIN", "c.document_a = da.id").
		Project("title", "TitleA").
		ProjectExpr("c.rating_a_after - c.rating_a_before", "DeltaA")

	wantFrom := "public.comparisons c JOIN public.documents da ON c.document_a = da.id"
	if got := p.From(); got != wantFrom {
		t.Errorf("From() = %q, want %q", got, wantFrom)
	}
	if got := p.Column("TitleA"); got != "da.title" {
		t.Errorf("Column(TitleA) = %q, want da.title", got)
	}
	if got := p.Column("DeltaA"); got != "c.rating_a_after - c.rating_a_before" {
		t.Errorf("Column(DeltaA) = %q", got)
	}
}

func TestParseSortFields(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []query.SortField
	}{
		{"empty string", "", nil},
		{"single ascending", "Title", []query.SortField{{Field: "Title"}}},
		{"single descending", "-EloRating", []query.SortField{{Field: "EloRating", Descending: true}}},
		{
			"multiple mixed with spaces",
			" Title , -EloRating ",
			[]query.SortField{{Field: "Title"}, {Field: "EloRating", Descending: true}},
		},
		{"empty parts skipped", "Title,,ID", []query.SortField{{Field: "Title"}, {Field: "ID"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := query.ParseSortFields(tt.input)
			if tt.want == nil {
				if got != nil {
					t.Errorf("ParseSortFields(%q) = %v, want nil", tt.input, got)
				}
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ParseSortFields(%q) length = %d, want %d", tt.input, len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("ParseSortFields(%q)[%d] = %v, want %v", tt.input, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestBuilderBuildVariants(t *testing.T) {
	tests := []struct {
		name  string
		build func() (string, []any)
		want  string
		args  int
	}{
		{
			"plain",
			func() (string, []any) { return query.NewBuilder(testProjection()).Build() },
			selectAll,
			0,
		},
		{
			"count with condition",
			func() (string, []any) {
				return query.NewBuilder(testProjection()).WhereEquals("Title", "x").BuildCount()
			},
			"SELECT COUNT(*) FROM public.documents d WHERE d.title = $1",
			1,
		},
		{
			"page with default sort",
			func() (string, []any) {
				return query.NewBuilder(testProjection(), query.SortField{Field: "EloRating", Descending: true}).
					BuildPage(2, 10)
			},
			selectAll + " ORDER BY d.elo_rating DESC LIMIT 10 OFFSET 10",
			0,
		},
		{
			"limit with tiebreak",
			func() (string, []any) {
				return query.NewBuilder(testProjection()).
					OrderByFields([]query.SortField{{Field: "EloRating", Descending: true}}).
					Tiebreak(query.SortField{Field: "ID"}).
					BuildLimit(10)
			},
			selectAll + " ORDER BY d.elo_rating DESC, d.id ASC LIMIT 10",
			0,
		},
		{
			"nulls last",
			func() (string, []any) {
				return query.NewBuilder(testProjection()).
					OrderByFields([]query.SortField{{Field: "EloRating", Descending: true, NullsLast: true}}).
					Build()
			},
			selectAll + " ORDER BY d.elo_rating DESC NULLS LAST",
			0,
		},
		{
			"single",
			func() (string, []any) { return query.NewBuilder(testProjection()).BuildSingle("ID", "20080101-001") },
			selectAll + " WHERE d.id = $1",
			1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args := tt.build()
			if sql != tt.want {
				t.Errorf("sql = %q, want %q", sql, tt.want)
			}
			if len(args) != tt.args {
				t.Errorf("args = %v, want %d args", args, tt.args)
			}
		})
	}
}

func TestBuilderComparisons(t *testing.T) {
	b := query.NewBuilder(testProjection()).
		WhereGTE("EloRating", 1550).
		WhereLT("EloRating", ptr(1600)).
		WhereLTE("ID", nil).
		WhereCompare("Title", "<>", "draft").
		WhereRaw("EXISTS (SELECT 1 FROM public.document_tags dt WHERE dt.document_id = d.id AND dt.tag_id = $%d)", 7)

	sql, args := b.Build()

	want := selectAll +
		" WHERE d.elo_rating >= $1 AND d.elo_rating < $2 AND d.title <> $3" +
		" AND EXISTS (SELECT 1 FROM public.document_tags dt WHERE dt.document_id = d.id AND dt.tag_id = $4)"
	if sql != want {
		t.Errorf("sql = %q, want %q", sql, want)
	}
	if len(args) != 4 {
		t.Fatalf("args length = %d, want 4", len(args))
	}
	if args[0] != 1550 || args[3] != 7 {
		t.Errorf("args = %v", args)
	}
}

func TestBuilderWhereIn(t *testing.T) {
	sql, args := query.NewBuilder(testProjection()).
		WhereIn("ID", []any{"a", "b", "c"}).
		Build()

	want := selectAll + " WHERE d.id IN ($1, $2, $3)"
	if sql != want {
		t.Errorf("sql = %q, want %q", sql, want)
	}
	if len(args) != 3 {
		t.Errorf("args length = %d, want 3", len(args))
	}

	_, args = query.NewBuilder(testProjection()).WhereIn("ID", []any{}).Build()
	if len(args) != 0 {
		t.Errorf("empty WhereIn args = %v, want empty", args)
	}
}

func TestBuilderWhereContainsAndSearch(t *testing.T) {
	sql, args := query.NewBuilder(testProjection()).
		WhereContains("Title", ptr("")).
		WhereContains("Title", nil).
		WhereSearch(ptr("essay"), "Title", "ID").
		Build()

	want := selectAll + " WHERE (d.title ILIKE $1 OR d.id ILIKE $2)"
	if sql != want {
		t.Errorf("sql = %q, want %q", sql, want)
	}
	if len(args) != 2 || args[0] != "%essay%" {
		t.Errorf("args = %v", args)
	}
}

func TestBuilderBuildRanked(t *testing.T) {
	sql, args := query.NewBuilder(testProjection()).
		WhereGTE("EloRating", 1500).
		OrderByFields([]query.SortField{{Field: "EloRating", Descending: true, NullsLast: true}}).
		Tiebreak(query.SortField{Field: "ID"}).
		BuildRanked("Title", 3)

	want := "SELECT * FROM (SELECT d.id, d.title, d.elo_rating, d.title AS partition_key," +
		" ROW_NUMBER() OVER (PARTITION BY d.title ORDER BY d.elo_rating DESC NULLS LAST, d.id ASC) AS partition_rank" +
		" FROM public.documents d WHERE d.elo_rating >= $1) ranked" +
		" WHERE partition_rank <= 3 ORDER BY partition_key NULLS LAST, partition_rank"
	if sql != want {
		t.Errorf("sql = %q, want %q", sql, want)
	}
	if len(args) != 1 {
		t.Errorf("args = %v, want 1 arg", args)
	}

	sql, _ = query.NewBuilder(testProjection()).BuildRanked("Title", 1)
	if !strings.Contains(sql, "OVER (PARTITION BY d.title)") {
		t.Errorf("unordered window = %q", sql)
	}
}
