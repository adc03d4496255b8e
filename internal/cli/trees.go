package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dendrotool/dendro/pkg/store"
)

// treesOpts selects the tree store backend for the trees subcommands.
type treesOpts struct {
	storeDir string // file store directory
	mongoURI string // when set, use the Mongo store instead
	mongoDB  string // Mongo database name
}

// openStore returns the backend selected by the flags: Mongo when --mongo
// is set, otherwise the local file store.
func (o *treesOpts) openStore(ctx context.Context) (store.TreeStore, error) {
	if o.mongoURI != "" {
		return store.NewMongoStore(ctx, o.mongoURI, o.mongoDB)
	}
	return store.NewFileStore(o.storeDir)
}

// newTreesCmd creates the trees command family for managing stored trees.
// Trees enter the store via "parse --save".
func newTreesCmd() *cobra.Command {
	opts := treesOpts{mongoDB: "dendro"}

	cmd := &cobra.Command{
		Use:   "trees",
		Short: "Manage stored trees",
	}

	cmd.PersistentFlags().StringVar(&opts.storeDir, "store-dir", "", "tree store directory (default ~/.config/dendro/trees)")
	cmd.PersistentFlags().StringVar(&opts.mongoURI, "mongo", "", "Mongo URI (use the Mongo store)")
	cmd.PersistentFlags().StringVar(&opts.mongoDB, "mongo-db", opts.mongoDB, "Mongo database name")

	cmd.AddCommand(newTreesListCmd(&opts))
	cmd.AddCommand(newTreesExportCmd(&opts))
	cmd.AddCommand(newTreesRmCmd(&opts))

	return cmd
}

// newTreesListCmd creates the "trees list" subcommand.
func newTreesListCmd(opts *treesOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored trees",
		RunE: func(c *cobra.Command, args []string) error {
			s, err := opts.openStore(c.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			metas, err := s.List(c.Context())
			if err != nil {
				return err
			}
			if len(metas) == 0 {
				printInfo("No stored trees")
				return nil
			}
			for _, m := range metas {
				fmt.Println(StyleValue.Render(m.ID))
				printDetail("%s · %d nodes · %s", m.Name, m.Nodes, m.CreatedAt.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}

// newTreesExportCmd creates the "trees export" subcommand, writing a stored
// tree back out as a flat JSON file.
func newTreesExportCmd(opts *treesOpts) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export <tree-id>",
		Short: "Write a stored tree as flat JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			s, err := opts.openStore(c.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			doc, err := s.Load(c.Context(), args[0])
			if err != nil {
				return err
			}
			tree, counts, err := doc.Tree()
			if err != nil {
				return err
			}
			logger := loggerFromContext(c.Context())
			return writeTree(tree, counts, output, logger)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")
	return cmd
}

// newTreesRmCmd creates the "trees rm" subcommand.
func newTreesRmCmd(opts *treesOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <tree-id>",
		Short: "Delete a stored tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			s, err := opts.openStore(c.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.Delete(c.Context(), args[0]); err != nil {
				return err
			}
			printSuccess("Deleted %s", args[0])
			return nil
		},
	}
}
