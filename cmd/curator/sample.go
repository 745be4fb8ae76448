package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/curator/internal/api"
	"github.com/JaimeStill/curator/internal/documents"
	"github.com/JaimeStill/curator/internal/sampler"
)

var (
	sampleFilters     string
	sampleOrder       string
	sampleLimit       int
	sampleSeed        uint64
	samplePerCategory int
	sampleMinRewrite  float64
	sampleMark        bool
)

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Select documents by filters and order",
	Long: `Select documents matching --filters (a JSON object, e.g.
'{"min_elo_rating":1550,"status":["pending"]}') in --order order
("-elo_rating" for descending). Subcommands run the presets.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		filters, err := parseFilters(sampleFilters)
		if err != nil {
			return err
		}
		req := sampler.Request{Filters: filters, OrderBy: sampler.ParseOrder(sampleOrder), Limit: sampleLimit}

		return withApp(cmd, func(ctx context.Context, a *app) error {
			docs, err := a.domain.Sampler.Sample(ctx, req)
			if err != nil {
				return err
			}
			return emitSample(ctx, cmd, a, docs)
		})
	},
}

var explorationCmd = &cobra.Command{
	Use:   "exploration",
	Short: "Under-compared documents worth comparing",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			d := api.SamplerDefaults(&a.cfg.Rating)
			minScore := d.ExplorationMinRewriteScore
			if cmd.Flags().Changed("min-rewrite-score") {
				minScore = sampleMinRewrite
			}
			req := sampler.Exploration(d.ExplorationMaxComparisons, minScore, sampleLimit)
			docs, err := a.domain.Sampler.Sample(ctx, req)
			if err != nil {
				return err
			}
			return emitSample(ctx, cmd, a, docs)
		})
	},
}

var exploitationCmd = &cobra.Command{
	Use:   "exploitation",
	Short: "The strongest documents by rating",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			d := api.SamplerDefaults(&a.cfg.Rating)
			docs, err := a.domain.Sampler.Sample(ctx, sampler.Exploitation(d.ExploitationMinElo, sampleLimit))
			if err != nil {
				return err
			}
			return emitSample(ctx, cmd, a, docs)
		})
	},
}

var randomCmd = &cobra.Command{
	Use:   "random",
	Short: "A seeded uniform draw from matching documents",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		filters, err := parseFilters(sampleFilters)
		if err != nil {
			return err
		}
		req := sampler.RandomRequest{Filters: filters, Limit: sampleLimit, Seed: sampleSeed}

		return withApp(cmd, func(ctx context.Context, a *app) error {
			docs, err := a.domain.Sampler.Random(ctx, req)
			if err != nil {
				return err
			}
			return emitSample(ctx, cmd, a, docs)
		})
	},
}

var topCmd = &cobra.Command{
	Use:   "top",
	Short: "The leading documents of every category",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		filters, err := parseFilters(sampleFilters)
		if err != nil {
			return err
		}
		req := sampler.TopRequest{Filters: filters, PerCategory: samplePerCategory, OrderBy: sampler.ParseOrder(sampleOrder)}

		return withApp(cmd, func(ctx context.Context, a *app) error {
			groups, err := a.domain.Sampler.TopByCategory(ctx, req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), groups)
		})
	},
}

func parseFilters(s string) (map[string]any, error) {
	if s == "" {
		return nil, nil
	}
	var filters map[string]any
	if err := json.Unmarshal([]byte(s), &filters); err != nil {
		return nil, fmt.Errorf("%w: --filters: %v", sampler.ErrInvalidFilter, err)
	}
	return filters, nil
}

func emitSample(ctx context.Context, cmd *cobra.Command, a *app, docs []documents.Document) error {
	if sampleMark && len(docs) > 0 {
		ids := make([]string, len(docs))
		for i, d := range docs {
			ids[i] = d.ID
		}
		n, err := a.domain.Documents.MarkSampled(ctx, ids, true)
		if err != nil {
			return fmt.Errorf("mark sampled: %w", err)
		}
		a.infra.Logger.Info("marked documents sampled", "count", n)
	}
	return printJSON(cmd.OutOrStdout(), docs)
}

func init() {
	rootCmd.AddCommand(sampleCmd)
	sampleCmd.AddCommand(explorationCmd, exploitationCmd, randomCmd, topCmd)

	sampleCmd.PersistentFlags().IntVar(&sampleLimit, "limit", sampler.DefaultLimit, "Maximum documents returned")
	sampleCmd.PersistentFlags().BoolVar(&sampleMark, "mark", false, "Mark returned documents as sampled")
	sampleCmd.PersistentFlags().StringVar(&sampleFilters, "filters", "", "JSON object of filter keys")
	sampleCmd.PersistentFlags().StringVar(&sampleOrder, "order", "", "Order field, prefixed with - for descending")

	randomCmd.Flags().Uint64Var(&sampleSeed, "seed", 0, "Seed for a reproducible draw")
	explorationCmd.Flags().Float64Var(&sampleMinRewrite, "min-rewrite-score", 0, "Minimum rewrite score, 0 keeps unscored documents")
	topCmd.Flags().IntVar(&samplePerCategory, "per-category", 5, "Documents kept per category")
}
