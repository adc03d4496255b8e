package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dendrotool/dendro/pkg/dendro"
	"github.com/dendrotool/dendro/pkg/export"
	"github.com/dendrotool/dendro/pkg/store"
)

// parseOpts holds the command-line flags for the parse command.
type parseOpts struct {
	output    string // output file path (stdout if empty)
	censusDir string // per-leaf census directory (counts skipped if empty)
	noClosure bool   // skip the descendant closure pass
	save      bool   // persist the parsed tree in the local tree store
	storeDir  string // tree store directory override
	name      string // display name used when saving
}

// newParseCmd creates the parse command. It reads a nested dendrogram
// document, builds and validates the node table, derives the descendant
// closure and writes the flat JSON form.
//
// With --census, per-leaf census files are loaded and aggregated cell counts
// are included in the output. With --save, the parsed tree is additionally
// stored in the local tree store for later serve/trees commands.
func newParseCmd() *cobra.Command {
	opts := parseOpts{}

	cmd := &cobra.Command{
		Use:   "parse <dendrogram.json>",
		Short: "Build the node table from a nested dendrogram document",
		Long: `Build the flat node table from a nested dendrogram document.

The document is walked depth-first: every record becomes one node carrying
its full ancestor chain and level. After the walk, each node's descendant
set is derived from the direct child links and the whole table is validated.

Examples:
  dendro parse dend.json                      # Flat JSON to stdout
  dendro parse dend.json -o tree.json         # To a file
  dendro parse dend.json --census clusters/leaves -o tree.json
  dendro parse dend.json --save -n "human M1" # Keep it in the tree store`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return runParse(c.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().StringVar(&opts.censusDir, "census", "", "directory with per-leaf census files")
	cmd.Flags().BoolVar(&opts.noClosure, "no-closure", false, "skip the descendant closure pass")
	cmd.Flags().BoolVar(&opts.save, "save", false, "store the parsed tree locally")
	cmd.Flags().StringVar(&opts.storeDir, "store-dir", "", "tree store directory (default ~/.config/dendro/trees)")
	cmd.Flags().StringVarP(&opts.name, "name", "n", "", "tree name used with --save (defaults to the input file)")

	return cmd
}

// runParse performs the full parse pipeline: decode, build, closure,
// validate, optional census aggregation, write.
func runParse(ctx context.Context, path string, opts *parseOpts) error {
	logger := loggerFromContext(ctx)
	logger.Infof("Parsing %s", path)

	prog := newProgress(logger)
	doc, err := dendro.ReadDocumentFile(path)
	if err != nil {
		return err
	}
	tree, err := dendro.Build(doc)
	if err != nil {
		return err
	}
	if !opts.noClosure {
		if err := tree.ComputeDescendants(); err != nil {
			return err
		}
	}
	if err := tree.Validate(); err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Built %d nodes (%d leaves, depth %d)",
		tree.Len(), len(tree.Leaves()), tree.MaxLevel()))

	var counts dendro.Counts
	if opts.censusDir != "" {
		census, err := dendro.ReadCensus(opts.censusDir, tree)
		if err != nil {
			return fmt.Errorf("census: %w", err)
		}
		counts, err = census.Counts(tree)
		if err != nil {
			return fmt.Errorf("census: %w", err)
		}
		logger.Debugf("Aggregated counts for %d nodes", len(counts))
	}

	if opts.save {
		name := opts.name
		if name == "" {
			name = path
		}
		id, err := saveTree(ctx, opts.storeDir, name, tree, counts)
		if err != nil {
			return err
		}
		logger.Infof("Stored tree %s", id)
	}

	return writeTree(tree, counts, opts.output, logger)
}

// saveTree persists the tree in the local file store and returns its ID.
func saveTree(ctx context.Context, dir, name string, t *dendro.Tree, counts dendro.Counts) (string, error) {
	s, err := store.NewFileStore(dir)
	if err != nil {
		return "", err
	}
	defer s.Close()
	return s.Save(ctx, name, export.FromTree(t, counts))
}

// writeTree serializes the tree as flat JSON to path (or stdout if empty).
func writeTree(t *dendro.Tree, counts dendro.Counts, path string, logger interface{ Infof(string, ...any) }) error {
	out, err := openOutput(path)
	if err != nil {
		return err
	}
	defer out.Close()

	if err := export.WriteTree(t, counts, out); err != nil {
		return err
	}
	if path != "" {
		logger.Infof("Wrote tree to %s", path)
	}
	return nil
}

// nopCloser wraps an io.Writer with a no-op Close method.
// It is used to make os.Stdout compatible with io.WriteCloser.
type nopCloser struct{ io.Writer }

// Close implements io.Closer with a no-op.
func (nopCloser) Close() error { return nil }

// openOutput returns a WriteCloser for the given path.
// If path is empty, it returns os.Stdout wrapped in nopCloser.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}
