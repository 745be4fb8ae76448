package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/curator/internal/documents"
	"github.com/JaimeStill/curator/internal/search"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate counts over the record store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			st, err := a.domain.Documents.Stats(ctx)
			if err != nil {
				return err
			}
			if statsJSON {
				return printJSON(cmd.OutOrStdout(), st)
			}

			return printStats(cmd.OutOrStdout(), st)
		})
	},
}

func printStats(w io.Writer, st *documents.Stats) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "total\t%d\n", st.Total)
	for _, s := range documents.Statuses {
		fmt.Fprintf(tw, "%s\t%d\n", s, st.ByStatus[s])
	}
	fmt.Fprintf(tw, "sampled\t%d\n", st.Sampled)
	fmt.Fprintf(tw, "references\t%d\n", st.References)
	fmt.Fprintf(tw, "compared\t%d\n", st.Compared)
	fmt.Fprintf(tw, "comparisons\t%d\n", st.Comparisons)
	fmt.Fprintf(tw, "average elo\t%.1f\n", st.AverageElo)
	fmt.Fprintf(tw, "average words\t%.0f\n", st.AverageWords)

	b := st.RewriteBands
	fmt.Fprintf(tw, "rewrite candidates (>=%.0f)\t%d\n", documents.RewriteMinScore, b.Rewrite)
	fmt.Fprintf(tw, "review candidates (%.0f-%.0f)\t%d\n", documents.ReviewMinScore, documents.RewriteMinScore, b.Review)
	fmt.Fprintf(tw, "archive candidates (%.0f-%.0f)\t%d\n", documents.ArchiveMinScore, documents.ReviewMinScore, b.Archive)
	fmt.Fprintf(tw, "deletion candidates (<%.0f)\t%d\n", documents.ArchiveMinScore, b.Deletion)

	printGroups(tw, "category", st.ByCategory)
	printGroups(tw, "year", st.ByYear)
	return tw.Flush()
}

func printGroups(w io.Writer, label string, groups []documents.GroupStat) {
	if len(groups) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s\tcount\tcompleted\tavg elo\tavg rewrite\tavg words\n", label)
	for _, g := range groups {
		key := g.Key
		if key == "" {
			key = "(none)"
		}
		rewrite := "-"
		if g.AverageRewrite != nil {
			rewrite = fmt.Sprintf("%.1f", *g.AverageRewrite)
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%.1f\t%s\t%.0f\n",
			key, g.Count, g.Completed, g.AverageElo, rewrite, g.AverageWords)
	}
}

var archiveCmd = &cobra.Command{
	Use:   "archive <id> <reason...>",
	Short: "Move a pending document to archived",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]
		reason := strings.Join(args[1:], " ")

		return withApp(cmd, func(ctx context.Context, a *app) error {
			doc, err := a.domain.Documents.Archive(ctx, id, reason)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s archived: %s\n", doc.ID, reason)
			return nil
		})
	},
}

var (
	searchLimit int
	searchAll   bool
)

var searchCmd = &cobra.Command{
	Use:   "search <terms...>",
	Short: "Rank documents against a keyword query",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		q := search.Query{Text: strings.Join(args, " "), Limit: searchLimit, All: searchAll}

		return withApp(cmd, func(ctx context.Context, a *app) error {
			hits, err := a.domain.Search.Search(ctx, q)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, h := range hits {
				fmt.Fprintf(tw, "%.3f\t%s\t%s\n", h.Score, h.Document.ID, h.Document.Title)
			}
			return tw.Flush()
		})
	},
}

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild every search posting from stored fields",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			n, err := a.domain.Search.Reindex(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "indexed %d documents\n", n)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(statsCmd, archiveCmd, searchCmd, reindexCmd)

	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Output in JSON format")
	searchCmd.Flags().IntVar(&searchLimit, "limit", search.DefaultLimit, "Maximum hits returned")
	searchCmd.Flags().BoolVar(&searchAll, "all", false, "Require every term to match")
}
