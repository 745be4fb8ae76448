package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/curator/internal/documents"
	"github.com/JaimeStill/curator/internal/reconcile"
)

var (
	reconcileDryRun   bool
	reconcileImport   bool
	reconcileWatch    bool
	reconcileDebounce time.Duration
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile the record store with the archive and working copy",
	Long: `Snapshot the archive and the working-copy tree, then move each document
along its lifecycle. With --watch, keep running and reconcile again after
the working copy has been quiet for the debounce interval.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			opts := reconcile.Options{
				DryRun: reconcileDryRun,
				Import: reconcileImport || a.cfg.Reconcile.DefaultImport,
			}
			rec := a.domain.Reconciler
			out := cmd.OutOrStdout()

			if reconcileWatch {
				return rec.Watch(ctx, opts, reconcileDebounce, func(r *reconcile.Report) {
					printReport(out, r)
				})
			}

			report, err := rec.Run(ctx, opts)
			if err != nil {
				return err
			}
			printReport(out, report)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
	reconcileCmd.Flags().BoolVar(&reconcileDryRun, "dry-run", false, "Decide changes without writing them")
	reconcileCmd.Flags().BoolVar(&reconcileImport, "import", false, "Create pending records for new archive entries")
	reconcileCmd.Flags().BoolVar(&reconcileWatch, "watch", false, "Watch the working copy and reconcile on change")
	reconcileCmd.Flags().DurationVar(&reconcileDebounce, "debounce", 0, "Quiet period before a watch run (default from config)")
}

func printReport(w io.Writer, r *reconcile.Report) {
	verb := "applied"
	if r.DryRun {
		verb = "would apply"
	}

	fmt.Fprintf(w, "run %s: %d transitions %s, %d imported, %d skipped, %d untracked (%s)\n",
		r.RunID, len(r.Transitions), verb, r.Imported, len(r.Skipped), len(r.Untracked),
		r.Duration.Round(time.Millisecond))

	for _, t := range r.Transitions {
		fmt.Fprintf(w, "  %s  %s -> %s  %s\n", t.DocumentID, t.From, t.To, t.Reason)
	}
	for _, s := range r.Skipped {
		fmt.Fprintf(w, "  skipped %s: %s\n", s.DocumentID, s.Reason)
	}
	for _, id := range r.Untracked {
		fmt.Fprintf(w, "  untracked %s\n", id)
	}
	if r.Stats != nil {
		fmt.Fprintf(w, "  total %d:", r.Stats.Total)
		for _, status := range documents.Statuses {
			fmt.Fprintf(w, " %s=%d", status, r.Stats.ByStatus[status])
		}
		fmt.Fprintln(w)
	}
}
