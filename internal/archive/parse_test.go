package archive_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/curator/internal/archive"
)

func TestParseFrontmatter(t *testing.T) {
	src := "---\n" +
		"title: 【随笔】冬の雨\n" +
		"date: 2008-01-03\n" +
		"tags: [rain, essay, rain]\n" +
		"---\n" +
		"雨が降る。\n寒い日。\n"

	rec, err := archive.Parse(strings.NewReader(src), "20080101-001")
	require.NoError(t, err)

	assert.Equal(t, "【随笔】冬の雨", rec.Title)
	require.NotNil(t, rec.Category)
	assert.Equal(t, "随笔", *rec.Category)
	assert.Equal(t, time.Date(2008, 1, 3, 0, 0, 0, 0, time.UTC), rec.PublishedDate)
	assert.Equal(t, []string{"essay", "rain"}, rec.Tags)
	assert.Equal(t, "雨が降る。\n寒い日。\n", rec.Body)
	assert.Equal(t, 9, rec.WordCount)
}

func TestParseFallbacks(t *testing.T) {
	rec, err := archive.Parse(strings.NewReader("intro\n# Winter Rain\n\nbody text"), "20080215-004")
	require.NoError(t, err)

	assert.Equal(t, "Winter Rain", rec.Title)
	assert.Nil(t, rec.Category)
	assert.Equal(t, time.Date(2008, 2, 15, 0, 0, 0, 0, time.UTC), rec.PublishedDate)
	assert.Empty(t, rec.Tags)
}

func TestParseEmptyFrontmatter(t *testing.T) {
	rec, err := archive.Parse(strings.NewReader("---\n---\nonly body\n"), "20080301-002")
	require.NoError(t, err)

	assert.Equal(t, "20080301-002", rec.Title)
	assert.Equal(t, "only body\n", rec.Body)
}

func TestParseMalformed(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unterminated", "---\ntitle: x\nbody without closing"},
		{"invalid yaml", "---\ntitle: [unclosed\n---\nbody"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := archive.Parse(strings.NewReader(tt.src), "20080101-001")
			assert.True(t, errors.Is(err, archive.ErrMalformed), "got %v", err)
		})
	}
}

func TestCategory(t *testing.T) {
	tests := []struct {
		title string
		want  *string
	}{
		{"【随笔】冬の雨", ptr("随笔")},
		{"冬の雨【小説】と【随笔】", ptr("小説")},
		{"【】empty", nil},
		{"【unterminated", nil},
		{"plain title", nil},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, archive.Category(tt.title))
		})
	}
}

func TestWordCount(t *testing.T) {
	assert.Equal(t, 0, archive.WordCount(" \n\t "))
	assert.Equal(t, 5, archive.WordCount("雨 が\n降る。"))
	assert.Equal(t, 11, archive.WordCount("two words and"))
}

func TestRecordCommand(t *testing.T) {
	rec := archive.Record{Title: "t", PublishedDate: time.Date(2008, 1, 1, 0, 0, 0, 0, time.UTC), WordCount: 3}
	cmd := rec.Command("20080101-001", "2008/20080101-001.md")

	assert.Equal(t, "20080101-001", cmd.ID)
	assert.Equal(t, "2008/20080101-001.md", cmd.ArchiveKey)
	assert.Equal(t, 3, cmd.WordCount)
}

func ptr[T any](v T) *T { return &v }
