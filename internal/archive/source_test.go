package archive_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/curator/internal/archive"
	"github.com/JaimeStill/curator/internal/fault"
	"github.com/JaimeStill/curator/pkg/storage"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func TestDirSourceSnapshot(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "2008/20080101-001.md", "a")
	writeFile(t, root, "2008/20080102-001_winter-rain.md", "b")
	writeFile(t, root, "2008/notes.md", "not a document")
	writeFile(t, root, "2008/20080103-001.txt", "wrong extension")
	writeFile(t, root, "dup/20080101-001_copy.md", "c")

	src, err := archive.NewDirSource(root, "")
	require.NoError(t, err)

	snap, err := src.Snapshot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"20080101-001", "20080102-001"}, snap.IDs())
	assert.True(t, snap.Has("2008/20080102-001_winter-rain.md"))
	assert.False(t, snap.Has("2008/notes.md"))

	_, ok := snap.Unique("20080101-001")
	assert.False(t, ok, "id under two keys is not unique")

	e, ok := snap.Unique("20080102-001")
	require.True(t, ok)
	assert.Equal(t, int64(1), e.Size)

	rc, err := src.Open(context.Background(), e.Key)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "b", string(data))
}

func TestDirSourceMissingRoot(t *testing.T) {
	src, err := archive.NewDirSource(filepath.Join(t.TempDir(), "missing"), "")
	require.NoError(t, err)

	_, err = src.Snapshot(context.Background())
	assert.True(t, errors.Is(err, archive.ErrUnreadable))
	assert.True(t, errors.Is(err, fault.ErrConsistency))
}

func TestDirSourceInvalidPattern(t *testing.T) {
	_, err := archive.NewDirSource(t.TempDir(), "[")
	assert.Error(t, err)
}

func TestDirSourceRejectsEscapingKey(t *testing.T) {
	src, err := archive.NewDirSource(t.TempDir(), "")
	require.NoError(t, err)

	_, err = src.Open(context.Background(), "../etc/passwd")
	assert.Error(t, err)
}

type fakeBlobs struct {
	blobs   []storage.BlobInfo
	content map[string]string
	err     error
}

func (f *fakeBlobs) List(_ context.Context, _ string) ([]storage.BlobInfo, error) {
	return f.blobs, f.err
}

func (f *fakeBlobs) Download(_ context.Context, key string) (io.ReadCloser, error) {
	c, ok := f.content[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return io.NopCloser(strings.NewReader(c)), nil
}

func TestBlobSourceSnapshot(t *testing.T) {
	mod := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	blobs := &fakeBlobs{
		blobs: []storage.BlobInfo{
			{Key: "corpus/2008/20080101-001.md", Size: 10, LastModified: mod},
			{Key: "corpus/2008/20080102-001.json", Size: 5},
			{Key: "corpus/readme.md", Size: 3},
		},
		content: map[string]string{"corpus/2008/20080101-001.md": "body"},
	}

	src, err := archive.NewBlobSource(blobs, "corpus/", "")
	require.NoError(t, err)

	snap, err := src.Snapshot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"20080101-001"}, snap.IDs())
	e, ok := snap.Unique("20080101-001")
	require.True(t, ok)
	assert.Equal(t, "corpus/2008/20080101-001.md", e.Key)
	assert.Equal(t, mod, e.ModTime)

	rc, err := src.Open(context.Background(), e.Key)
	require.NoError(t, err)
	rc.Close()

	_, err = src.Open(context.Background(), "corpus/missing.md")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestBlobSourceListFailure(t *testing.T) {
	src, err := archive.NewBlobSource(&fakeBlobs{err: errors.New("network down")}, "", "")
	require.NoError(t, err)

	_, err = src.Snapshot(context.Background())
	assert.ErrorIs(t, err, archive.ErrUnreadable)
}
