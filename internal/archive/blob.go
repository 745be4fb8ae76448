package archive

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/JaimeStill/curator/internal/documents"
	"github.com/JaimeStill/curator/pkg/storage"
)

// Blobs is the subset of storage.System a BlobSource reads through.
type Blobs interface {
	List(ctx context.Context, prefix string) ([]storage.BlobInfo, error)
	Download(ctx context.Context, key string) (io.ReadCloser, error)
}

// BlobSource is an archive held in a blob container. Keys are blob names;
// the pattern matches them with the prefix removed.
type BlobSource struct {
	blobs   Blobs
	prefix  string
	pattern string
}

// NewBlobSource creates a BlobSource listing under prefix and matching pattern
// (DefaultPattern when empty).
func NewBlobSource(blobs Blobs, prefix, pattern string) (*BlobSource, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid archive pattern %q", pattern)
	}
	return &BlobSource{blobs: blobs, prefix: prefix, pattern: pattern}, nil
}

func (s *BlobSource) Describe() string {
	return "blob:" + s.prefix
}

func (s *BlobSource) Snapshot(ctx context.Context) (*Snapshot, error) {
	blobs, err := s.blobs.List(ctx, s.prefix)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	entries := make([]Entry, 0, len(blobs))
	for _, b := range blobs {
		rel := strings.TrimPrefix(strings.TrimPrefix(b.Key, s.prefix), "/")

		ok, err := doublestar.Match(s.pattern, rel)
		if err != nil {
			return nil, fmt.Errorf("match %s: %w", b.Key, err)
		}
		if !ok {
			continue
		}

		id, ok := documents.ParseID(b.Key)
		if !ok {
			continue
		}
		entries = append(entries, Entry{ID: id, Key: b.Key, Size: b.Size, ModTime: b.LastModified})
	}

	return NewSnapshot(entries), nil
}

func (s *BlobSource) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	return s.blobs.Download(ctx, key)
}
