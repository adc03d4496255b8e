// Package report derives the cluster report files from a parsed dendrogram:
// per-level membership listings and sibling-pair comparisons keyed by
// cluster size ratio. The file formats follow the original clustering
// pipeline so downstream tooling keeps working.
package report

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Config controls which reports are written and where.
type Config struct {
	// OutDir is the root directory for report output.
	OutDir string `toml:"out_dir"`

	// CensusDir holds the per-leaf census files (leaves/<name>.txt).
	CensusDir string `toml:"census_dir"`

	// ParityThreshold is the |log10 ratio| below which a sibling pair
	// counts as parity.
	ParityThreshold float64 `toml:"parity_threshold"`

	// TwoToOneThreshold is the |log10 ratio| below which a non-parity pair
	// counts as roughly two-to-one.
	TwoToOneThreshold float64 `toml:"two_to_one_threshold"`

	// Levels enables the per-level membership files.
	Levels bool `toml:"levels"`

	// Pairs enables the sibling-pair listings.
	Pairs bool `toml:"pairs"`
}

// DefaultConfig returns the configuration matching the original pipeline:
// parity under 0.2, two-to-one under 0.6, both report families enabled.
func DefaultConfig() Config {
	return Config{
		OutDir:            "clusters",
		CensusDir:         "clusters/leaves",
		ParityThreshold:   0.2,
		TwoToOneThreshold: 0.6,
		Levels:            true,
		Pairs:             true,
	}
}

// LoadConfig reads a TOML configuration file. Fields absent from the file
// keep their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.ParityThreshold <= 0 {
		return fmt.Errorf("parity_threshold must be positive, got %g", c.ParityThreshold)
	}
	if c.TwoToOneThreshold <= c.ParityThreshold {
		return fmt.Errorf("two_to_one_threshold (%g) must exceed parity_threshold (%g)",
			c.TwoToOneThreshold, c.ParityThreshold)
	}
	return nil
}
