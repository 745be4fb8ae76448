package reconcile

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/JaimeStill/curator/internal/archive"
)

// File is one working-copy file mapped to a document id.
type File struct {
	ID        string
	Path      string
	ModTime   time.Time
	Published bool
}

// WorkingCopy is the working-copy tree observed at one point in time.
// Ids found under more than one path are listed in Ambiguous and absent from Files.
type WorkingCopy struct {
	Files     map[string]File
	Ambiguous map[string][]string
}

// Lookup returns the observed file for id, or nil.
func (w *WorkingCopy) Lookup(id string) *File {
	if f, ok := w.Files[id]; ok {
		return &f
	}
	return nil
}

// ScanWorkingCopy walks root for files matching pattern. Files under
// publishedDir are marked published. An unreadable tree fails the scan.
func ScanWorkingCopy(ctx context.Context, root, pattern, publishedDir string) (*WorkingCopy, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	entries, err := archive.Walk(ctx, os.DirFS(root), pattern)
	if err != nil {
		return nil, err
	}

	return NewWorkingCopy(entries, publishedDir), nil
}

// NewWorkingCopy builds a WorkingCopy from walked entries.
func NewWorkingCopy(entries []archive.Entry, publishedDir string) *WorkingCopy {
	published := path.Clean(publishedDir) + "/"

	wc := &WorkingCopy{
		Files:     make(map[string]File, len(entries)),
		Ambiguous: make(map[string][]string),
	}

	for _, e := range entries {
		if paths, dup := wc.Ambiguous[e.ID]; dup {
			wc.Ambiguous[e.ID] = append(paths, e.Key)
			continue
		}
		if prev, dup := wc.Files[e.ID]; dup {
			wc.Ambiguous[e.ID] = []string{prev.Path, e.Key}
			delete(wc.Files, e.ID)
			continue
		}
		wc.Files[e.ID] = File{
			ID:        e.ID,
			Path:      e.Key,
			ModTime:   e.ModTime,
			Published: strings.HasPrefix(e.Key, published),
		}
	}

	return wc
}
