package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mindweave/pkg/layout"
)

// layoutCommand creates the layout command for positioning a map's nodes.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		algorithm string
		all       bool
		noCache   bool
		spacing   float64
	)

	cmd := &cobra.Command{
		Use:   "layout <map>",
		Short: "Compute node positions for a mind map",
		Long: `Compute node positions with one of the layout algorithms and save them.

Nodes the user placed by hand (floating nodes) keep their position unless
--all is given. Results are cached, so laying out an unchanged map again is
immediate.

Algorithms: mindmap (default), radial, tree, organic, force, circle, grid.`,
		Args: cobra.ExactArgs(1),
		ValidArgsFunction: c.completeMap,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd.Context(), args[0], algorithm, spacing, all, noCache)
		},
	}

	cmd.Flags().StringVarP(&algorithm, "algorithm", "a", "", "layout algorithm (default from config)")
	cmd.Flags().BoolVar(&all, "all", false, "also move floating nodes")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().Float64Var(&spacing, "spacing", 0, "override level spacing")

	return cmd
}

// runLayout loads the map, computes positions and saves them.
func (c *CLI) runLayout(ctx context.Context, name, algorithm string, spacing float64, all, noCache bool) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	alg := cfg.Layout.DefaultAlgorithm()
	if algorithm != "" {
		if alg, err = layout.ParseAlgorithm(algorithm); err != nil {
			return err
		}
	}
	params := cfg.Layout.Config
	if spacing > 0 {
		params.LevelSpacing = spacing
	}

	lc := c.openCache(ctx, noCache)
	defer lc.Close()
	eng, st, err := c.loadMap(ctx, name, lc)
	if err != nil {
		return err
	}
	defer st.Close()

	prog := newProgress(c.Logger)
	sp := newSpinner(ctx, fmt.Sprintf("Computing %s layout...", alg)).start()
	pos, err := eng.Layout(ctx, alg, params, all)
	if err != nil {
		sp.fail("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	sp.stop()
	if sp.cancelled() {
		return ctx.Err()
	}
	prog.done("layout", "algorithm", alg, "nodes", eng.Len(), "placed", len(pos))

	if err := c.saveMap(ctx, st, name, eng); err != nil {
		return err
	}
	printSuccess("Laid out %s with %s", name, alg)
	printStats(eng.Len(), len(eng.Branches()), false)
	if skipped := eng.Len() - len(pos); skipped > 0 {
		printDetail("%d floating node(s) kept in place", skipped)
	}
	printNextStep("Render", fmt.Sprintf("%s export %s -f svg --pinned", appName, name))
	return nil
}
