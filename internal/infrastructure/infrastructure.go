// Package infrastructure provides core service initialization for application startup.
// It assembles common dependencies (logging, database, archive source) that domain systems require.
package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/JaimeStill/curator/internal/archive"
	"github.com/JaimeStill/curator/internal/config"
	"github.com/JaimeStill/curator/pkg/database"
	"github.com/JaimeStill/curator/pkg/lifecycle"
	"github.com/JaimeStill/curator/pkg/storage"
)

// Infrastructure holds the core systems required by all domain modules.
// Storage is nil unless the archive lives in a blob container.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Storage   storage.System
	Archive   archive.Source
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(ctx context.Context, cfg *config.Config) (*Infrastructure, error) {
	lc := lifecycle.New(ctx)
	logger := cfg.NewLogger(os.Stderr)

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	infra := &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
		Database:  db,
	}

	if err := infra.openArchive(cfg); err != nil {
		return nil, err
	}

	return infra, nil
}

func (i *Infrastructure) openArchive(cfg *config.Config) error {
	rc := &cfg.Reconcile

	if !cfg.UsesBlobArchive() {
		src, err := archive.NewDirSource(rc.ArchivePath, rc.Pattern)
		if err != nil {
			return fmt.Errorf("archive init failed: %w", err)
		}
		i.Archive = src
		return nil
	}

	store, err := storage.New(&cfg.Storage, i.Logger)
	if err != nil {
		return fmt.Errorf("storage init failed: %w", err)
	}

	src, err := archive.NewBlobSource(store, rc.ArchivePrefix, rc.Pattern)
	if err != nil {
		return fmt.Errorf("archive init failed: %w", err)
	}

	i.Storage = store
	i.Archive = src
	return nil
}

// Start registers all infrastructure systems with the lifecycle coordinator.
func (i *Infrastructure) Start() error {
	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start failed: %w", err)
	}
	if i.Storage != nil {
		if err := i.Storage.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("storage start failed: %w", err)
		}
	}

	i.Logger.Info("archive source configured", "archive", i.Archive.Describe())
	return nil
}
