package reconcile

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/JaimeStill/curator/internal/documents"
)

// Transition reasons recorded on lifecycle events.
const (
	ReasonRemoved   = "working copy removed"
	ReasonPublished = "working copy published"
	ReasonStarted   = "working copy modified"
	ReasonMoved     = "working copy moved"
	ReasonObserved  = "working copy observed"
)

// Decide returns the change that brings doc in line with the observed working
// copy file (nil when none was observed). Rules apply in precedence order:
//
//  1. terminal documents never change
//  2. a known working copy that is gone deletes the document
//  3. a file under the published sub-path completes the document
//  4. a pending document whose file is newer than updated_at starts
//  5. a file at a new path records the path only
//
// Anything else is a no-op.
func Decide(doc documents.Document, file *File, now time.Time) documents.Change {
	if doc.Status.Terminal() {
		return documents.Change{}
	}

	active := doc.Status == documents.StatusPending || doc.Status == documents.StatusInProgress

	if file == nil {
		if active && doc.WorkingCopyPath != nil {
			return documents.Change{
				Hops:           []documents.Status{documents.StatusDeleted},
				DeletionReason: ptr(ReasonRemoved),
				Reason:         ReasonRemoved,
			}
		}
		return documents.Change{}
	}

	if file.Published {
		hops := []documents.Status{documents.StatusCompleted}
		if doc.Status == documents.StatusPending {
			hops = []documents.Status{documents.StatusInProgress, documents.StatusCompleted}
		}
		return documents.Change{
			Hops:            hops,
			WorkingCopyPath: ptr(file.Path),
			RewriteDate:     ptr(now),
			Reason:          ReasonPublished,
		}
	}

	if doc.Status == documents.StatusPending && file.ModTime.After(doc.UpdatedAt) {
		return documents.Change{
			Hops:            []documents.Status{documents.StatusInProgress},
			WorkingCopyPath: ptr(file.Path),
			Reason:          ReasonStarted,
		}
	}

	if doc.WorkingCopyPath == nil || *doc.WorkingCopyPath != file.Path {
		reason := ReasonMoved
		if doc.WorkingCopyPath == nil {
			reason = ReasonObserved
		}
		return documents.Change{WorkingCopyPath: ptr(file.Path), Reason: reason}
	}

	return documents.Change{}
}

// ValidateStoredPath checks a document's recorded working-copy path: it must be
// relative, stay inside the working tree, and name the document's own id.
func ValidateStoredPath(doc documents.Document) error {
	if doc.WorkingCopyPath == nil {
		return nil
	}

	p := strings.ReplaceAll(*doc.WorkingCopyPath, "\\", "/")
	if p == "" || path.IsAbs(p) || (len(p) > 1 && p[1] == ':') {
		return fmt.Errorf("working copy path %q is not relative", *doc.WorkingCopyPath)
	}

	clean := path.Clean(p)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return fmt.Errorf("working copy path %q escapes the working tree", *doc.WorkingCopyPath)
	}

	if id, ok := documents.ParseID(clean); !ok || id != doc.ID {
		return fmt.Errorf("working copy path %q does not name %s", *doc.WorkingCopyPath, doc.ID)
	}
	return nil
}

func ptr[T any](v T) *T { return &v }
