package reconcile

import (
	"fmt"
	"os"
	"path"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// Archive source kinds.
const (
	SourceDir  = "dir"
	SourceBlob = "blob"
)

// Config holds the locations a reconciliation run compares against the store.
type Config struct {
	ArchiveSource string `toml:"archive_source"`
	ArchivePath   string `toml:"archive_path"`
	ArchivePrefix string `toml:"archive_prefix"`
	Pattern       string `toml:"pattern"`
	WorkingPath   string `toml:"working_path"`
	PublishedDir  string `toml:"published_dir"`
	WatchDebounce string `toml:"watch_debounce"`
	DefaultImport bool   `toml:"import"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	ArchiveSource string
	ArchivePath   string
	ArchivePrefix string
	Pattern       string
	WorkingPath   string
	PublishedDir  string
	WatchDebounce string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.ArchiveSource != "" {
		c.ArchiveSource = overlay.ArchiveSource
	}
	if overlay.ArchivePath != "" {
		c.ArchivePath = overlay.ArchivePath
	}
	if overlay.ArchivePrefix != "" {
		c.ArchivePrefix = overlay.ArchivePrefix
	}
	if overlay.Pattern != "" {
		c.Pattern = overlay.Pattern
	}
	if overlay.WorkingPath != "" {
		c.WorkingPath = overlay.WorkingPath
	}
	if overlay.PublishedDir != "" {
		c.PublishedDir = overlay.PublishedDir
	}
	if overlay.WatchDebounce != "" {
		c.WatchDebounce = overlay.WatchDebounce
	}
	if overlay.DefaultImport {
		c.DefaultImport = true
	}
}

// WatchDebounceDuration returns WatchDebounce as a time.Duration.
func (c *Config) WatchDebounceDuration() time.Duration {
	d, _ := time.ParseDuration(c.WatchDebounce)
	return d
}

func (c *Config) loadDefaults() {
	if c.ArchiveSource == "" {
		c.ArchiveSource = SourceDir
	}
	if c.ArchivePath == "" {
		c.ArchivePath = "archive"
	}
	if c.Pattern == "" {
		c.Pattern = "**/*.md"
	}
	if c.WorkingPath == "" {
		c.WorkingPath = "working"
	}
	if c.PublishedDir == "" {
		c.PublishedDir = "published"
	}
	if c.WatchDebounce == "" {
		c.WatchDebounce = "2s"
	}
}

func (c *Config) loadEnv(env *Env) {
	set := func(name string, dst *string) {
		if name == "" {
			return
		}
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}

	set(env.ArchiveSource, &c.ArchiveSource)
	set(env.ArchivePath, &c.ArchivePath)
	set(env.ArchivePrefix, &c.ArchivePrefix)
	set(env.Pattern, &c.Pattern)
	set(env.WorkingPath, &c.WorkingPath)
	set(env.PublishedDir, &c.PublishedDir)
	set(env.WatchDebounce, &c.WatchDebounce)
}

func (c *Config) validate() error {
	switch c.ArchiveSource {
	case SourceDir, SourceBlob:
	default:
		return fmt.Errorf("archive_source must be %q or %q, got %q", SourceDir, SourceBlob, c.ArchiveSource)
	}
	if !doublestar.ValidatePattern(c.Pattern) {
		return fmt.Errorf("invalid pattern %q", c.Pattern)
	}
	if p := path.Clean(c.PublishedDir); p == "." || p == ".." || path.IsAbs(p) {
		return fmt.Errorf("published_dir must be a relative sub-path, got %q", c.PublishedDir)
	}
	if _, err := time.ParseDuration(c.WatchDebounce); err != nil {
		return fmt.Errorf("invalid watch_debounce: %w", err)
	}
	return nil
}
