// Package archive reads the read-only archival store. A Source lists entries
// matching a glob and opens them; Parse extracts document metadata from an
// entry's markdown frontmatter and body.
package archive

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/JaimeStill/curator/internal/fault"
)

// DefaultPattern matches every markdown file at any depth.
const DefaultPattern = "**/*.md"

// ErrUnreadable indicates the archival store could not be listed or read.
var ErrUnreadable = fmt.Errorf("%w: archive unreadable", fault.ErrConsistency)

// Entry is one archived file.
type Entry struct {
	ID      string
	Key     string
	Size    int64
	ModTime time.Time
}

// Snapshot is the set of archive entries observed at one point in time.
type Snapshot struct {
	ByKey map[string]Entry
	ByID  map[string][]Entry
}

// NewSnapshot indexes entries by key and by document id.
func NewSnapshot(entries []Entry) *Snapshot {
	s := &Snapshot{
		ByKey: make(map[string]Entry, len(entries)),
		ByID:  make(map[string][]Entry, len(entries)),
	}
	for _, e := range entries {
		s.ByKey[e.Key] = e
		s.ByID[e.ID] = append(s.ByID[e.ID], e)
	}
	for id := range s.ByID {
		sort.Slice(s.ByID[id], func(i, j int) bool { return s.ByID[id][i].Key < s.ByID[id][j].Key })
	}
	return s
}

// Has reports whether key is present.
func (s *Snapshot) Has(key string) bool {
	_, ok := s.ByKey[key]
	return ok
}

// Unique returns the single entry for id. It reports false when id is absent
// or appears under more than one key.
func (s *Snapshot) Unique(id string) (Entry, bool) {
	entries := s.ByID[id]
	if len(entries) != 1 {
		return Entry{}, false
	}
	return entries[0], true
}

// IDs returns every observed document id in ascending order.
func (s *Snapshot) IDs() []string {
	ids := make([]string, 0, len(s.ByID))
	for id := range s.ByID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Source is a read-only archival store.
type Source interface {
	// Snapshot lists every entry matching the source's pattern whose file name
	// carries a document id. Failure to list wraps ErrUnreadable.
	Snapshot(ctx context.Context) (*Snapshot, error)
	// Open returns the content of the entry at key. The caller must close it.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Describe names the source for logs.
	Describe() string
}
