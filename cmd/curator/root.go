package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/curator/internal/api"
	"github.com/JaimeStill/curator/internal/config"
	"github.com/JaimeStill/curator/internal/infrastructure"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "curator",
	Short: "Curate an essay corpus: reconcile, rate, sample, and search",
	Long: `curator keeps the record store consistent with the archive and the
working-copy tree, applies pairwise comparisons to ELO ratings, and answers
sampling and search queries. Configuration comes from config.toml in
CURATOR_CONFIG_DIR (or the working directory) and CURATOR_* variables.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// app is the set of systems one CLI invocation works against.
type app struct {
	cfg    *config.Config
	infra  *infrastructure.Infrastructure
	domain *api.Domain
}

// openApp loads configuration, connects to the database, and wires the
// domain systems the same way the HTTP server does.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	infra, err := infrastructure.New(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := infra.Database.Ping(ctx); err != nil {
		infra.Database.Close()
		return nil, fmt.Errorf("connect database: %w", err)
	}

	runtime := api.NewRuntime(cfg, infra)
	return &app{
		cfg:    cfg,
		infra:  infra,
		domain: api.NewDomain(cfg, runtime),
	}, nil
}

func (a *app) Close() error {
	return a.infra.Database.Close()
}

// withApp opens the app for the duration of fn.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
