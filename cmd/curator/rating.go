package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/curator/internal/rating"
	"github.com/JaimeStill/curator/pkg/formatting"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <feed.jsonl|->",
	Short: "Apply a JSON-lines comparison feed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			feed, size, err := openFeed(cmd, args[0])
			if err != nil {
				return err
			}
			defer feed.Close()

			if limit := a.cfg.API.MaxFeedSizeBytes(); size > limit {
				return fmt.Errorf("feed is %s, larger than max_feed_size %s",
					formatting.FormatBytes(size, 1), formatting.FormatBytes(limit, 1))
			}

			report, err := a.domain.Rating.Ingest(ctx, feed)
			if report != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "applied %d, skipped %d duplicates\n", report.Applied, report.Duplicates)
			}
			return err
		})
	},
}

// openFeed opens path, or stdin for "-". Size is -1 when unknown.
func openFeed(cmd *cobra.Command, path string) (io.ReadCloser, int64, error) {
	if path == "-" {
		return io.NopCloser(cmd.InOrStdin()), -1, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open feed: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("stat feed: %w", err)
	}
	return f, info.Size(), nil
}

var (
	compareConfidence string
	compareContext    string
	compareID         string
)

var compareCmd = &cobra.Command{
	Use:   "compare <document-a> <document-b> <A|B|Draw>",
	Short: "Record one comparison and update both ratings",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := rating.ApplyCommand{
			DocumentA:  args[0],
			DocumentB:  args[1],
			Winner:     rating.Winner(args[2]),
			Confidence: rating.Confidence(compareConfidence),
			Context:    compareContext,
		}
		if compareID != "" {
			c.CorrelationID = &compareID
		}
		if err := c.Validate(); err != nil {
			return err
		}

		return withApp(cmd, func(ctx context.Context, a *app) error {
			result, err := a.domain.Rating.Apply(ctx, c)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d -> %d, %s %d -> %d\n",
				c.DocumentA, result.Comparison.RatingABefore, result.Comparison.RatingAAfter,
				c.DocumentB, result.Comparison.RatingBBefore, result.Comparison.RatingBAfter)
			return nil
		})
	},
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Replay the comparison log and rewrite every cached rating",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			n, err := a.domain.Rating.Rebuild(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rebuilt ratings, %d documents changed\n", n)
			return nil
		})
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Compare cached ratings with the comparison log",
	Long:  "Recompute ratings from the log without writing. Exits non-zero when any cached rating drifted.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			drift, err := a.domain.Rating.Verify(ctx)
			if err != nil {
				return err
			}
			if len(drift) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "ratings consistent with the comparison log")
				return nil
			}
			if err := printJSON(cmd.OutOrStdout(), drift); err != nil {
				return err
			}
			return fmt.Errorf("%d documents drifted; run curator rebuild", len(drift))
		})
	},
}

var distributionCmd = &cobra.Command{
	Use:   "distribution",
	Short: "Show how compared documents spread across rating bands",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			dist, err := a.domain.Rating.Distribution(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), dist)
		})
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd, compareCmd, rebuildCmd, verifyCmd, distributionCmd)

	compareCmd.Flags().StringVar(&compareConfidence, "confidence", string(rating.ConfidenceMedium), "High, Medium, or Low")
	compareCmd.Flags().StringVar(&compareContext, "context", "", "Free-form note stored with the comparison")
	compareCmd.Flags().StringVar(&compareID, "id", "", "Correlation id used to de-duplicate feed records")
}
