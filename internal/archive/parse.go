package archive

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/JaimeStill/curator/internal/documents"
)

// ErrMalformed indicates an archive entry whose frontmatter cannot be parsed.
var ErrMalformed = errors.New("malformed archive entry")

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006/01/02",
}

type frontmatter struct {
	Title string   `yaml:"title"`
	Date  string   `yaml:"date"`
	Tags  []string `yaml:"tags"`
}

// Record is the metadata of one archive entry.
type Record struct {
	Title         string
	PublishedDate time.Time
	Category      *string
	Body          string
	WordCount     int
	Tags          []string
}

// Command converts r into a CreateCommand for the document id stored at key.
func (r Record) Command(id, key string) documents.CreateCommand {
	return documents.CreateCommand{
		ID:            id,
		Title:         r.Title,
		PublishedDate: r.PublishedDate,
		Category:      r.Category,
		Body:          r.Body,
		WordCount:     r.WordCount,
		ArchiveKey:    key,
		Tags:          r.Tags,
	}
}

// Parse reads an archive entry for document id. The title comes from the
// frontmatter, then the first markdown heading, then the id. The published
// date comes from the frontmatter, then the date encoded in the id.
func Parse(r io.Reader, id string) (Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Record{}, fmt.Errorf("read %s: %w", id, err)
	}

	fm, body, err := splitFrontmatter(data)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %s: %v", ErrMalformed, id, err)
	}

	rec := Record{
		Title:     strings.TrimSpace(fm.Title),
		Body:      body,
		WordCount: WordCount(body),
		Tags:      documents.NormalizeTags(fm.Tags),
	}

	if rec.Title == "" {
		rec.Title = firstHeading(body)
	}
	if rec.Title == "" {
		rec.Title = id
	}

	rec.Category = Category(rec.Title)

	if d, ok := parseDate(fm.Date); ok {
		rec.PublishedDate = d
	} else if d, ok := documents.IDDate(id); ok {
		rec.PublishedDate = d
	} else {
		return Record{}, fmt.Errorf("%w: %s: no usable date", ErrMalformed, id)
	}

	return rec, nil
}

func splitFrontmatter(data []byte) (frontmatter, string, error) {
	var fm frontmatter

	if !bytes.HasPrefix(data, []byte("---\n")) && !bytes.HasPrefix(data, []byte("---\r\n")) {
		return fm, string(data), nil
	}

	rest := data[bytes.IndexByte(data, '\n')+1:]

	var block, body []byte
	if bytes.HasPrefix(rest, []byte("---")) {
		body = rest[len("---"):]
	} else {
		end := bytes.Index(rest, []byte("\n---"))
		if end < 0 {
			return fm, "", errors.New("frontmatter started but no closing delimiter found")
		}
		block, body = rest[:end], rest[end+len("\n---"):]
	}

	if err := yaml.Unmarshal(block, &fm); err != nil {
		return fm, "", fmt.Errorf("parse frontmatter: %w", err)
	}

	// Drop the remainder of the closing delimiter line.
	if i := bytes.IndexByte(body, '\n'); i >= 0 {
		body = body[i+1:]
	} else {
		body = nil
	}
	return fm, string(body), nil
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

func firstHeading(body string) string {
	sc := bufio.NewScanner(strings.NewReader(body))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, "#") {
			return strings.TrimSpace(strings.TrimLeft(line, "#"))
		}
	}
	return ""
}

// Category returns the text inside the first 【...】 of title, or nil.
func Category(title string) *string {
	_, after, ok := strings.Cut(title, "【")
	if !ok {
		return nil
	}
	inner, _, ok := strings.Cut(after, "】")
	if !ok {
		return nil
	}
	inner = strings.TrimSpace(inner)
	if inner == "" {
		return nil
	}
	return &inner
}

// WordCount counts the non-whitespace characters of body.
func WordCount(body string) int {
	n := 0
	for _, r := range body {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}
