package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dendrotool/dendro/pkg/export"
)

const (
	formatDOT = "dot"
	formatSVG = "svg"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output   string // output file path (stdout if empty)
	format   string // "dot" or "svg"
	detailed bool   // include level and count in node labels
}

// newRenderCmd creates the render command for visualizing a parsed tree.
// DOT output is plain text; SVG is rendered in-process via Graphviz.
func newRenderCmd() *cobra.Command {
	opts := renderOpts{format: formatSVG}

	cmd := &cobra.Command{
		Use:   "render <tree.json>",
		Short: "Render a parsed tree as DOT or SVG",
		Long: `Render a parsed tree as a Graphviz visualization.

Leaves are drawn with a grey fill. With --detailed, node labels include the
level and, if the tree file carries counts, the aggregated cell count.

Examples:
  dendro render tree.json -o tree.svg
  dendro render tree.json --format dot
  dendro render tree.json --detailed -o tree.svg`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			if opts.format != formatDOT && opts.format != formatSVG {
				return fmt.Errorf("unknown format %q (want %s or %s)", opts.format, formatDOT, formatSVG)
			}
			return runRender(c.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: svg (default), dot")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "include level and cell count in labels")

	return cmd
}

func runRender(ctx context.Context, path string, opts *renderOpts) error {
	logger := loggerFromContext(ctx)

	tree, counts, err := export.ReadTreeFile(path)
	if err != nil {
		return err
	}

	prog := newProgress(logger)
	dot := export.ToDOT(tree, export.DotOptions{Detailed: opts.detailed, Counts: counts})

	var data []byte
	switch opts.format {
	case formatDOT:
		data = []byte(dot)
	case formatSVG:
		data, err = export.RenderSVG(ctx, dot)
		if err != nil {
			return err
		}
	}
	prog.done(fmt.Sprintf("Rendered %d nodes as %s", tree.Len(), opts.format))

	out, err := openOutput(opts.output)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := out.Write(data); err != nil {
		return err
	}
	if opts.output != "" {
		logger.Infof("Wrote %s to %s", opts.format, opts.output)
	}
	return nil
}
