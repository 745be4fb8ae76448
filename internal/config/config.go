// Package config loads the curator configuration from config.toml, an
// optional per-environment overlay, and CURATOR_* environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/curator/internal/rating"
	"github.com/JaimeStill/curator/internal/reconcile"
	"github.com/JaimeStill/curator/pkg/database"
	"github.com/JaimeStill/curator/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvCuratorEnv             = "CURATOR_ENV"
	EnvCuratorConfigDir       = "CURATOR_CONFIG_DIR"
	EnvCuratorShutdownTimeout = "CURATOR_SHUTDOWN_TIMEOUT"
	EnvCuratorVersion         = "CURATOR_VERSION"
	EnvCuratorLogLevel        = "CURATOR_LOG_LEVEL"
)

var databaseEnv = &database.Env{
	URL:              "CURATOR_DB_URL",
	Host:             "CURATOR_DB_HOST",
	Port:             "CURATOR_DB_PORT",
	Name:             "CURATOR_DB_NAME",
	User:             "CURATOR_DB_USER",
	Password:         "CURATOR_DB_PASSWORD",
	SSLMode:          "CURATOR_DB_SSL_MODE",
	MaxOpenConns:     "CURATOR_DB_MAX_OPEN_CONNS",
	MaxIdleConns:     "CURATOR_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime:  "CURATOR_DB_CONN_MAX_LIFETIME",
	ConnTimeout:      "CURATOR_DB_CONN_TIMEOUT",
	StatementTimeout: "CURATOR_DB_STATEMENT_TIMEOUT",
}

var storageEnv = &storage.Env{
	ContainerName:    "CURATOR_STORAGE_CONTAINER_NAME",
	ConnectionString: "CURATOR_STORAGE_CONNECTION_STRING",
	AccountURL:       "CURATOR_STORAGE_ACCOUNT_URL",
	Prefix:           "CURATOR_STORAGE_PREFIX",
	MaxListSize:      "CURATOR_STORAGE_MAX_LIST_SIZE",
}

var ratingEnv = &rating.Env{
	KFactor:                 "CURATOR_RATING_K_FACTOR",
	InitialRating:           "CURATOR_RATING_INITIAL_RATING",
	ReferenceThreshold:      "CURATOR_RATING_REFERENCE_THRESHOLD",
	ReferenceMinComparisons: "CURATOR_RATING_REFERENCE_MIN_COMPARISONS",
	ExploitationThreshold:   "CURATOR_RATING_EXPLOITATION_THRESHOLD",
}

var reconcileEnv = &reconcile.Env{
	ArchiveSource: "CURATOR_ARCHIVE_SOURCE",
	ArchivePath:   "CURATOR_ARCHIVE_PATH",
	ArchivePrefix: "CURATOR_ARCHIVE_PREFIX",
	Pattern:       "CURATOR_ARCHIVE_PATTERN",
	WorkingPath:   "CURATOR_WORKING_PATH",
	PublishedDir:  "CURATOR_PUBLISHED_DIR",
	WatchDebounce: "CURATOR_WATCH_DEBOUNCE",
}

// Config is the root configuration for the curator server and CLI.
type Config struct {
	Server          ServerConfig     `toml:"server"`
	Database        database.Config  `toml:"database"`
	Storage         storage.Config   `toml:"storage"`
	API             APIConfig        `toml:"api"`
	Rating          rating.Config    `toml:"rating"`
	Reconcile       reconcile.Config `toml:"reconcile"`
	LogLevel        string           `toml:"log_level"`
	ShutdownTimeout string           `toml:"shutdown_timeout"`
	Version         string           `toml:"version"`
}

// Env returns the CURATOR_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvCuratorEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// UsesBlobArchive reports whether the archive is read from blob storage.
// Storage settings are only required and validated in that case.
func (c *Config) UsesBlobArchive() bool {
	return c.Reconcile.ArchiveSource == reconcile.SourceBlob
}

// Load reads the base config (if present) from the directory named by
// CURATOR_CONFIG_DIR (default: the working directory), applies any
// environment overlay, and finalizes all values. Without a config.toml,
// defaults and environment variables provide all configuration.
func Load() (*Config, error) {
	dir := os.Getenv(EnvCuratorConfigDir)
	cfg := &Config{}

	base := joinDir(dir, BaseConfigFile)
	if _, err := os.Stat(base); err == nil {
		loaded, err := load(base)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(dir); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.LogLevel != "" {
		c.LogLevel = overlay.LogLevel
	}
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.API.Merge(&overlay.API)
	c.Rating.Merge(&overlay.Rating)
	c.Reconcile.Merge(&overlay.Reconcile)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Rating.Finalize(ratingEnv); err != nil {
		return fmt.Errorf("rating: %w", err)
	}
	if err := c.Reconcile.Finalize(reconcileEnv); err != nil {
		return fmt.Errorf("reconcile: %w", err)
	}
	if c.UsesBlobArchive() {
		if err := c.Storage.Finalize(storageEnv); err != nil {
			return fmt.Errorf("storage: %w", err)
		}
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvCuratorLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvCuratorShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvCuratorVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath(dir string) string {
	if env := os.Getenv(EnvCuratorEnv); env != "" {
		path := joinDir(dir, fmt.Sprintf(OverlayConfigPattern, env))
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func joinDir(dir, name string) string {
	if dir == "" {
		return name
	}
	return dir + string(os.PathSeparator) + name
}
