package archive

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/JaimeStill/curator/internal/documents"
)

// DirSource is an archive rooted at a local directory. Keys are slash-separated
// paths relative to the root.
type DirSource struct {
	root    string
	pattern string
	fsys    fs.FS
}

// NewDirSource creates a DirSource over root matching pattern
// (DefaultPattern when empty).
func NewDirSource(root, pattern string) (*DirSource, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid archive pattern %q", pattern)
	}
	return &DirSource{root: root, pattern: pattern, fsys: os.DirFS(root)}, nil
}

func (s *DirSource) Describe() string {
	return "dir:" + s.root
}

func (s *DirSource) Snapshot(ctx context.Context) (*Snapshot, error) {
	info, err := os.Stat(s.root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrUnreadable, s.root)
	}

	entries, err := Walk(ctx, s.fsys, s.pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	return NewSnapshot(entries), nil
}

func (s *DirSource) Open(_ context.Context, key string) (io.ReadCloser, error) {
	if !fs.ValidPath(key) {
		return nil, fmt.Errorf("invalid archive key %q", key)
	}
	return s.fsys.Open(key)
}

// Walk lists the files of fsys matching pattern whose names carry a document id.
// Any unreadable directory fails the walk.
func Walk(ctx context.Context, fsys fs.FS, pattern string) ([]Entry, error) {
	var entries []Entry

	err := doublestar.GlobWalk(fsys, pattern, func(p string, d fs.DirEntry) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		id, ok := documents.ParseID(p)
		if !ok {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("stat %s: %w", p, err)
		}

		entries = append(entries, Entry{ID: id, Key: p, Size: info.Size(), ModTime: info.ModTime()})
		return nil
	}, doublestar.WithFilesOnly(), doublestar.WithFailOnIOErrors())

	return entries, err
}
