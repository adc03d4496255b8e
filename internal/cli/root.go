package cli

import (
	"context"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/dendrotool/dendro/pkg/buildinfo"
)

// Execute runs the dendro CLI and returns an error if any command fails.
// This is the main entry point for the CLI application.
//
// Logging defaults to info level on stderr; --verbose (-v) switches to
// debug. The logger is attached to the context and accessible to all
// commands via loggerFromContext.
func Execute(ctx context.Context) error {
	var verbose bool

	root := &cobra.Command{
		Use:          "dendro",
		Short:        "dendro parses and inspects cell-type dendrograms",
		Long:         `dendro turns nested cell-type dendrogram documents into a flat, validated node table and derives cluster reports, visualizations and an HTTP API from it.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			ctx := withLogger(cmd.Context(), newLogger(os.Stderr, level))
			cmd.SetContext(ctx)
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newParseCmd())
	root.AddCommand(newReportCmd())
	root.AddCommand(newRenderCmd())
	root.AddCommand(newInfoCmd())
	root.AddCommand(newBrowseCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newTreesCmd())

	return root.ExecuteContext(ctx)
}
