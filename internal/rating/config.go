package rating

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds rating engine parameters. KFactor applies to every comparison;
// there is no per-document K. A zero field in a file or overlay means "use the
// default", so every field has a minimum of 1: a reference needs at least one
// comparison and both thresholds are positive ratings.
type Config struct {
	KFactor                 float64 `toml:"k_factor"`
	InitialRating           int     `toml:"initial_rating"`
	ReferenceThreshold      int     `toml:"reference_threshold"`
	ReferenceMinComparisons int     `toml:"reference_min_comparisons"`
	ExploitationThreshold   int     `toml:"exploitation_threshold"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	KFactor                 string
	InitialRating           string
	ReferenceThreshold      string
	ReferenceMinComparisons string
	ExploitationThreshold   string
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
	if overlay.KFactor != 0 {
		c.KFactor = overlay.KFactor
	}
	if overlay.InitialRating != 0 {
		c.InitialRating = overlay.InitialRating
	}
	if overlay.ReferenceThreshold != 0 {
		c.ReferenceThreshold = overlay.ReferenceThreshold
	}
	if overlay.ReferenceMinComparisons != 0 {
		c.ReferenceMinComparisons = overlay.ReferenceMinComparisons
	}
	if overlay.ExploitationThreshold != 0 {
		c.ExploitationThreshold = overlay.ExploitationThreshold
	}
}

func (c *Config) loadDefaults() {
	if c.KFactor == 0 {
		c.KFactor = 32
	}
	if c.InitialRating == 0 {
		c.InitialRating = 1500
	}
	if c.ReferenceThreshold == 0 {
		c.ReferenceThreshold = 1550
	}
	if c.ReferenceMinComparisons == 0 {
		c.ReferenceMinComparisons = 5
	}
	if c.ExploitationThreshold == 0 {
		c.ExploitationThreshold = 1520
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.KFactor != "" {
		if v := os.Getenv(env.KFactor); v != "" {
			if k, err := strconv.ParseFloat(v, 64); err == nil {
				c.KFactor = k
			}
		}
	}

	setInt := func(name string, dst *int) {
		if name == "" {
			return
		}
		if v := os.Getenv(name); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	setInt(env.InitialRating, &c.InitialRating)
	setInt(env.ReferenceThreshold, &c.ReferenceThreshold)
	setInt(env.ReferenceMinComparisons, &c.ReferenceMinComparisons)
	setInt(env.ExploitationThreshold, &c.ExploitationThreshold)
}

func (c *Config) validate() error {
	if c.KFactor <= 0 {
		return fmt.Errorf("k_factor must be positive")
	}
	if c.InitialRating <= 0 {
		return fmt.Errorf("initial_rating must be positive")
	}
	if c.ReferenceMinComparisons < 1 {
		return fmt.Errorf("reference_min_comparisons must be at least 1")
	}
	if c.ReferenceThreshold <= 0 || c.ExploitationThreshold <= 0 {
		return fmt.Errorf("reference_threshold and exploitation_threshold must be positive")
	}
	if c.ExploitationThreshold > c.ReferenceThreshold {
		return fmt.Errorf(
			"exploitation_threshold %d exceeds reference_threshold %d",
			c.ExploitationThreshold, c.ReferenceThreshold,
		)
	}
	return nil
}
