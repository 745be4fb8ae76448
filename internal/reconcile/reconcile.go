// Package reconcile keeps the record store consistent with the archival store
// and the working-copy tree. A run snapshots both locations, decides one change
// per document, and applies each change in its own transaction under a
// run-wide exclusive lock.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/curator/internal/archive"
	"github.com/JaimeStill/curator/internal/documents"
	"github.com/JaimeStill/curator/internal/metrics"
)

// Store is the record store surface a run reads and writes through.
type Store interface {
	All(ctx context.Context) ([]documents.Document, error)
	Create(ctx context.Context, cmd documents.CreateCommand) (*documents.Document, error)
	Apply(ctx context.Context, id string, decide func(documents.Document) documents.Change) (*documents.Document, documents.Change, error)
	Stats(ctx context.Context) (*documents.Stats, error)
}

// Locker grants the run-wide exclusive section. TryLock returns ok=false
// without waiting when another run holds it.
type Locker interface {
	TryLock(ctx context.Context) (release func(context.Context) error, ok bool, err error)
}

// Options control a single run.
type Options struct {
	// DryRun decides every change but writes nothing.
	DryRun bool `json:"dry_run"`
	// Import creates pending records for archive entries the store does not know.
	Import bool `json:"import"`
}

// Transition is one change a run applied (or, in a dry run, would apply).
// A path-only update has From equal to To.
type Transition struct {
	DocumentID      string             `json:"document_id"`
	From            documents.Status   `json:"from"`
	To              documents.Status   `json:"to"`
	Hops            []documents.Status `json:"hops,omitempty"`
	WorkingCopyPath *string            `json:"working_copy_path,omitempty"`
	Reason          string             `json:"reason"`
}

// Skip is a document a run left untouched because of a per-document problem.
type Skip struct {
	DocumentID string `json:"document_id"`
	Reason     string `json:"reason"`
}

// Report summarizes a run. Stats are computed from the store after the run.
type Report struct {
	RunID       uuid.UUID        `json:"run_id"`
	StartedAt   time.Time        `json:"started_at"`
	Duration    time.Duration    `json:"duration"`
	DryRun      bool             `json:"dry_run"`
	Transitions []Transition     `json:"transitions"`
	Skipped     []Skip           `json:"skipped"`
	Imported    int              `json:"imported"`
	Untracked   []string         `json:"untracked"`
	Stats       *documents.Stats `json:"stats"`
}

// Reconciler runs reconciliation against one store, archive, and working tree.
type Reconciler struct {
	store   Store
	locker  Locker
	archive archive.Source
	cfg     Config
	logger  *slog.Logger
	now     func() time.Time
}

// New creates a Reconciler.
func New(store Store, locker Locker, src archive.Source, cfg Config, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		store:   store,
		locker:  locker,
		archive: src,
		cfg:     cfg,
		logger:  logger.With("system", "reconcile"),
		now:     time.Now,
	}
}

// WithClock replaces the clock used for rewrite dates and run timestamps.
func (r *Reconciler) WithClock(now func() time.Time) *Reconciler {
	r.now = now
	return r
}

// Handler returns the HTTP handler for reconciliation endpoints.
func (r *Reconciler) Handler() *Handler {
	return NewHandler(r, r.logger)
}

// Stats returns aggregate counts computed from the store.
func (r *Reconciler) Stats(ctx context.Context) (*documents.Stats, error) {
	return r.store.Stats(ctx)
}

// Run performs one reconciliation. Snapshot or consistency failures abort the
// run before any write; per-document failures are logged and listed in Skipped.
func (r *Reconciler) Run(ctx context.Context, opts Options) (*Report, error) {
	release, ok, err := r.locker.TryLock(ctx)
	if err != nil {
		metrics.ReconcileRuns.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("acquire reconcile lock: %w", err)
	}
	if !ok {
		metrics.ReconcileRuns.WithLabelValues("busy").Inc()
		return nil, ErrRunInProgress
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			r.logger.Error("release reconcile lock", "error", err)
		}
	}()

	report := &Report{
		RunID:       uuid.New(),
		StartedAt:   r.now(),
		DryRun:      opts.DryRun,
		Transitions: make([]Transition, 0),
		Skipped:     make([]Skip, 0),
		Untracked:   make([]string, 0),
	}
	logger := r.logger.With("run_id", report.RunID, "dry_run", opts.DryRun)
	start := time.Now()

	if err := r.run(ctx, logger, opts, report); err != nil {
		metrics.ReconcileRuns.WithLabelValues("failed").Inc()
		logger.Error("reconcile run aborted", "error", err)
		return nil, err
	}

	stats, err := r.store.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("compute stats: %w", err)
	}
	report.Stats = stats
	report.Duration = time.Since(start)

	outcome := "ok"
	if opts.DryRun {
		outcome = "dry_run"
	}
	metrics.ReconcileRuns.WithLabelValues(outcome).Inc()
	metrics.ReconcileDuration.Observe(report.Duration.Seconds())

	logger.Info(
		"reconcile run complete",
		"transitions", len(report.Transitions),
		"skipped", len(report.Skipped),
		"imported", report.Imported,
		"duration", report.Duration,
	)
	return report, nil
}

func (r *Reconciler) run(ctx context.Context, logger *slog.Logger, opts Options, report *Report) error {
	var (
		arch *archive.Snapshot
		wc   *WorkingCopy
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		snap, err := r.archive.Snapshot(gctx)
		if err != nil {
			return fmt.Errorf("%w: archive %s: %w", ErrSnapshotUnreadable, r.archive.Describe(), err)
		}
		arch = snap
		return nil
	})
	g.Go(func() error {
		snap, err := ScanWorkingCopy(gctx, r.cfg.WorkingPath, r.cfg.Pattern, r.cfg.PublishedDir)
		if err != nil {
			return fmt.Errorf("%w: working copy %s: %w", ErrSnapshotUnreadable, r.cfg.WorkingPath, err)
		}
		wc = snap
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	docs, err := r.store.All(ctx)
	if err != nil {
		return fmt.Errorf("load documents: %w", err)
	}

	if err := checkArchive(docs, arch); err != nil {
		return err
	}

	if opts.Import {
		n, err := r.importNew(ctx, logger, opts, docs, arch, report)
		if err != nil {
			return err
		}
		report.Imported = n

		if n > 0 && !opts.DryRun {
			if docs, err = r.store.All(ctx); err != nil {
				return fmt.Errorf("reload documents: %w", err)
			}
		}
	}

	known := make(map[string]struct{}, len(docs))
	for _, doc := range docs {
		known[doc.ID] = struct{}{}

		if paths, ambiguous := wc.Ambiguous[doc.ID]; ambiguous {
			r.skip(logger, report, doc.ID, fmt.Sprintf("ambiguous working copy: %v", paths))
			continue
		}
		if err := ValidateStoredPath(doc); err != nil {
			r.skip(logger, report, doc.ID, err.Error())
			continue
		}

		if err := r.reconcileOne(ctx, logger, opts, doc, wc.Lookup(doc.ID), report); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.skip(logger, report, doc.ID, err.Error())
		}
	}

	for id := range wc.Files {
		if _, ok := known[id]; !ok {
			report.Untracked = append(report.Untracked, id)
		}
	}
	sort.Strings(report.Untracked)

	return nil
}

func (r *Reconciler) reconcileOne(
	ctx context.Context,
	logger *slog.Logger,
	opts Options,
	doc documents.Document,
	file *File,
	report *Report,
) error {
	now := r.now()

	if opts.DryRun {
		change := Decide(doc, file, now)
		if !change.Empty() {
			report.Transitions = append(report.Transitions, transition(doc, change))
		}
		return nil
	}

	var before documents.Document
	_, change, err := r.store.Apply(ctx, doc.ID, func(fresh documents.Document) documents.Change {
		before = fresh
		c := Decide(fresh, file, now)
		c.RunID = report.RunID
		return c
	})
	if err != nil {
		return err
	}
	if change.Empty() {
		return nil
	}

	t := transition(before, change)
	report.Transitions = append(report.Transitions, t)
	if t.From != t.To {
		metrics.ReconcileTransitions.WithLabelValues(string(t.To)).Inc()
	}
	logger.Info("document reconciled", "id", doc.ID, "from", t.From, "to", t.To, "reason", t.Reason)
	return nil
}

func (r *Reconciler) importNew(
	ctx context.Context,
	logger *slog.Logger,
	opts Options,
	docs []documents.Document,
	arch *archive.Snapshot,
	report *Report,
) (int, error) {
	known := make(map[string]struct{}, len(docs))
	for _, d := range docs {
		known[d.ID] = struct{}{}
	}

	n := 0
	for _, id := range arch.IDs() {
		if _, ok := known[id]; ok {
			continue
		}

		entry, ok := arch.Unique(id)
		if !ok {
			r.skip(logger, report, id, fmt.Sprintf("ambiguous archive entry: %d keys", len(arch.ByID[id])))
			continue
		}

		if opts.DryRun {
			n++
			continue
		}

		if err := r.importEntry(ctx, entry); err != nil {
			if ctx.Err() != nil {
				return n, ctx.Err()
			}
			r.skip(logger, report, id, err.Error())
			continue
		}
		n++
	}
	return n, nil
}

func (r *Reconciler) importEntry(ctx context.Context, entry archive.Entry) error {
	rc, err := r.archive.Open(ctx, entry.Key)
	if err != nil {
		return fmt.Errorf("open %s: %w", entry.Key, err)
	}
	defer rc.Close()

	rec, err := archive.Parse(rc, entry.ID)
	if err != nil {
		return err
	}

	if _, err := r.store.Create(ctx, rec.Command(entry.ID, entry.Key)); err != nil {
		if errors.Is(err, documents.ErrDuplicate) {
			return nil
		}
		return fmt.Errorf("import %s: %w", entry.ID, err)
	}
	return nil
}

func (r *Reconciler) skip(logger *slog.Logger, report *Report, id, reason string) {
	logger.Warn("document skipped", "id", id, "reason", reason)
	report.Skipped = append(report.Skipped, Skip{DocumentID: id, Reason: reason})
}

// checkArchive fails when any known document's archive entry has disappeared.
func checkArchive(docs []documents.Document, arch *archive.Snapshot) error {
	var missing []string
	for _, doc := range docs {
		if !arch.Has(doc.ArchiveKey) {
			missing = append(missing, doc.ID)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %d missing (first %s)", ErrArchiveShrunk, len(missing), missing[0])
	}
	return nil
}

func transition(doc documents.Document, c documents.Change) Transition {
	return Transition{
		DocumentID:      doc.ID,
		From:            doc.Status,
		To:              c.Final(doc.Status),
		Hops:            c.Hops,
		WorkingCopyPath: c.WorkingCopyPath,
		Reason:          c.Reason,
	}
}
