package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dendrotool/dendro/pkg/dendro"
	"github.com/dendrotool/dendro/pkg/export"
	"github.com/dendrotool/dendro/pkg/report"
)

// reportOpts holds the command-line flags for the report command.
// Flags override the corresponding config file fields when set.
type reportOpts struct {
	configPath string // TOML config file (optional)
	outDir     string // report output root
	censusDir  string // per-leaf census directory
	noLevels   bool   // skip the per-level membership files
	noPairs    bool   // skip the sibling-pair listings
}

// newReportCmd creates the report command. It reads a flat tree file and
// writes the cluster report families: per-level membership files and
// sibling-pair listings classified by size ratio.
func newReportCmd() *cobra.Command {
	opts := reportOpts{}

	cmd := &cobra.Command{
		Use:   "report <tree.json>",
		Short: "Write per-level membership files and sibling-pair listings",
		Long: `Write the cluster report files derived from a parsed tree.

Per-level membership files go to <out>/level<NNN>/<name>.txt, leaves to
<out>/level999/, and sibling-pair listings to <out>/examples/. Defaults
can be stored in a TOML config file and overridden per run with flags.

Examples:
  dendro report tree.json --census clusters/leaves --out clusters
  dendro report tree.json --config report.toml
  dendro report tree.json --census clusters/leaves --no-pairs`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return runReport(c.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVar(&opts.configPath, "config", "", "TOML config file")
	cmd.Flags().StringVar(&opts.outDir, "out", "", "report output directory")
	cmd.Flags().StringVar(&opts.censusDir, "census", "", "directory with per-leaf census files")
	cmd.Flags().BoolVar(&opts.noLevels, "no-levels", false, "skip per-level membership files")
	cmd.Flags().BoolVar(&opts.noPairs, "no-pairs", false, "skip sibling-pair listings")

	return cmd
}

// reportConfig merges the config file (or defaults) with flag overrides.
func reportConfig(opts *reportOpts) (report.Config, error) {
	cfg := report.DefaultConfig()
	if opts.configPath != "" {
		var err error
		cfg, err = report.LoadConfig(opts.configPath)
		if err != nil {
			return report.Config{}, err
		}
	}
	if opts.outDir != "" {
		cfg.OutDir = opts.outDir
	}
	if opts.censusDir != "" {
		cfg.CensusDir = opts.censusDir
	}
	if opts.noLevels {
		cfg.Levels = false
	}
	if opts.noPairs {
		cfg.Pairs = false
	}
	return cfg, nil
}

func runReport(ctx context.Context, path string, opts *reportOpts) error {
	logger := loggerFromContext(ctx)

	cfg, err := reportConfig(opts)
	if err != nil {
		return err
	}

	tree, _, err := export.ReadTreeFile(path)
	if err != nil {
		return err
	}
	logger.Infof("Loaded %d nodes from %s", tree.Len(), path)

	// Reports are count-driven, so the census is always required here even
	// though the flat tree file may already carry counts: the membership
	// files also need the matrix indexes, which only the census provides.
	census, err := dendro.ReadCensus(cfg.CensusDir, tree)
	if err != nil {
		return fmt.Errorf("census: %w", err)
	}
	counts, err := census.Counts(tree)
	if err != nil {
		return fmt.Errorf("census: %w", err)
	}

	prog := newProgress(logger)
	if cfg.Levels {
		if err := report.WriteLevels(tree, census, counts, cfg.OutDir); err != nil {
			return err
		}
		logger.Debugf("Wrote level files under %s", cfg.OutDir)
	}
	if cfg.Pairs {
		pairs, err := report.SiblingPairs(tree, counts, cfg)
		if err != nil {
			return err
		}
		if err := report.WritePairs(cfg.OutDir, pairs); err != nil {
			return err
		}
		logger.Debugf("Classified %d parity, %d two-to-one, %d worse pairs",
			len(pairs[report.Parity]), len(pairs[report.TwoToOne]), len(pairs[report.Worse]))
	}
	prog.done("Wrote reports")
	printFile(cfg.OutDir)

	return nil
}
