package reconcile_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/JaimeStill/curator/internal/documents"
	"github.com/JaimeStill/curator/internal/reconcile"
)

var base = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func doc(id string, status documents.Status, path *string) documents.Document {
	return documents.Document{ID: id, Status: status, WorkingCopyPath: path, UpdatedAt: base.Add(-time.Hour)}
}

func TestDecide(t *testing.T) {
	older := base.Add(-2 * time.Hour)
	newer := base.Add(-30 * time.Minute)

	tests := []struct {
		name     string
		doc      documents.Document
		file     *reconcile.File
		wantHops []documents.Status
		wantPath *string
		reason   string
	}{
		{
			name: "terminal completed ignores removal",
			doc:  doc("20080101-001", documents.StatusCompleted, ptr("published/20080101-001.md")),
		},
		{
			name: "terminal archived ignores new file",
			doc:  doc("20080101-001", documents.StatusArchived, nil),
			file: &reconcile.File{Path: "20080101-001.md", ModTime: newer},
		},
		{
			name:     "known working copy removed",
			doc:      doc("20080101-001", documents.StatusInProgress, ptr("20080101-001.md")),
			wantHops: []documents.Status{documents.StatusDeleted},
			reason:   reconcile.ReasonRemoved,
		},
		{
			name:     "pending with known copy removed",
			doc:      doc("20080101-001", documents.StatusPending, ptr("20080101-001.md")),
			wantHops: []documents.Status{documents.StatusDeleted},
			reason:   reconcile.ReasonRemoved,
		},
		{
			name: "pending never observed stays pending",
			doc:  doc("20080101-001", documents.StatusPending, nil),
		},
		{
			name:     "pending published passes through in_progress",
			doc:      doc("20080101-001", documents.StatusPending, nil),
			file:     &reconcile.File{Path: "published/20080101-001.md", ModTime: older, Published: true},
			wantHops: []documents.Status{documents.StatusInProgress, documents.StatusCompleted},
			wantPath: ptr("published/20080101-001.md"),
			reason:   reconcile.ReasonPublished,
		},
		{
			name:     "in_progress published",
			doc:      doc("20080101-001", documents.StatusInProgress, ptr("20080101-001.md")),
			file:     &reconcile.File{Path: "published/20080101-001.md", ModTime: newer, Published: true},
			wantHops: []documents.Status{documents.StatusCompleted},
			wantPath: ptr("published/20080101-001.md"),
			reason:   reconcile.ReasonPublished,
		},
		{
			name:     "pending modified after update starts",
			doc:      doc("20080101-001", documents.StatusPending, nil),
			file:     &reconcile.File{Path: "20080101-001.md", ModTime: newer},
			wantHops: []documents.Status{documents.StatusInProgress},
			wantPath: ptr("20080101-001.md"),
			reason:   reconcile.ReasonStarted,
		},
		{
			name:     "pending with older file records path only",
			doc:      doc("20080101-001", documents.StatusPending, nil),
			file:     &reconcile.File{Path: "20080101-001.md", ModTime: older},
			wantPath: ptr("20080101-001.md"),
			reason:   reconcile.ReasonObserved,
		},
		{
			name:     "in_progress moved",
			doc:      doc("20080101-001", documents.StatusInProgress, ptr("20080101-001.md")),
			file:     &reconcile.File{Path: "drafts/20080101-001_v2.md", ModTime: newer},
			wantPath: ptr("drafts/20080101-001_v2.md"),
			reason:   reconcile.ReasonMoved,
		},
		{
			name: "in_progress unchanged",
			doc:  doc("20080101-001", documents.StatusInProgress, ptr("20080101-001.md")),
			file: &reconcile.File{Path: "20080101-001.md", ModTime: newer},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := reconcile.Decide(tt.doc, tt.file, base)

			assert.Equal(t, tt.wantHops, got.Hops)
			assert.Equal(t, tt.wantPath, got.WorkingCopyPath)
			assert.Equal(t, tt.reason, got.Reason)

			if tt.wantHops == nil && tt.wantPath == nil {
				assert.True(t, got.Empty(), "expected no-op")
			}

			from := tt.doc.Status
			for _, hop := range got.Hops {
				assert.True(t, documents.CanTransition(from, hop), "%s -> %s", from, hop)
				from = hop
			}

			if got.Final(tt.doc.Status) == documents.StatusCompleted {
				assert.Equal(t, &base, got.RewriteDate)
			}
			if got.Final(tt.doc.Status) == documents.StatusDeleted {
				assert.NotEmpty(t, *got.DeletionReason)
			}
		})
	}
}

func TestValidateStoredPath(t *testing.T) {
	tests := []struct {
		name    string
		path    *string
		wantErr bool
	}{
		{"no path", nil, false},
		{"plain", ptr("20080101-001.md"), false},
		{"nested with slug", ptr("drafts/20080101-001_winter.md"), false},
		{"absolute", ptr("/home/u/20080101-001.md"), true},
		{"drive letter", ptr(`C:\work\20080101-001.md`), true},
		{"escapes root", ptr("../20080101-001.md"), true},
		{"other document", ptr("20080101-002.md"), true},
		{"empty", ptr(""), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := reconcile.ValidateStoredPath(doc("20080101-001", documents.StatusInProgress, tt.path))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
