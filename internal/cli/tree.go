package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/proctree/pkg/graph"
	"github.com/matzehuels/proctree/pkg/pipeline"
)

// treeCommand creates the tree command: graph file → fitted tree.
func (c *CLI) treeCommand() *cobra.Command {
	var (
		output  string
		format  string
		refresh bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "tree [graph.json|graph.toml]",
		Short: "Reduce a graph to a tree, lay it out and fit it into a viewport",
		Long: `Reduce a graph to a tree, lay it out and fit it into a viewport.

Every node gets at most one parent: the source of the first edge, in file
order, that points at it. A node with an edge back to that candidate becomes
a root instead (two-hop guard); --guard ancestor rejects any parent that
would close a cycle and tries the next edge.

The output is JSON (parents, layout, fitted transform), an SVG drawn with
the fitted transform, or the hierarchy as Graphviz DOT.

Layouts are cached locally; --refresh recomputes them.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := pipeline.ValidateFormat(format); err != nil {
				return err
			}
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			applyConfig(cmd, &opts, cfg.Options())
			opts.Refresh = refresh
			return c.runTree(cmd.Context(), args[0], opts, format, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, - for stdout (default: <input>.tree.<format>)")
	cmd.Flags().StringVarP(&format, "format", "f", pipeline.FormatJSON, "output format: json, svg, dot")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute instead of reading the cache")
	addTreeFlags(cmd, &opts)
	addViewFlags(cmd, &opts)

	return cmd
}

// runTree loads the graph, runs the tree pipeline and writes the output.
func (c *CLI) runTree(ctx context.Context, input string, opts pipeline.Options, format, output string) error {
	g, err := graph.ReadFile(input)
	if err != nil {
		return fmt.Errorf("load graph %s: %w", input, err)
	}

	runner, err := c.newRunner(ctx)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Building tree...")
	spinner.Start()

	res, err := runner.Tree(ctx, g, opts)
	if err != nil {
		spinner.StopWithError("Tree failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	data, err := pipeline.RenderTree(res, format)
	if err != nil {
		return err
	}
	path := outputPath(input, output, "tree."+format)
	if err := c.writeOutput(path, data); err != nil {
		return err
	}
	if path == stdoutPath {
		return nil
	}

	printSuccess("Tree complete")
	printFile(path)
	printStats(res.Stats.NodeCount, res.Stats.EdgeCount, res.Stats.RootCount, res.CacheInfo.LayoutHit)
	if s := res.Parents.Stats; s.BackEdges+s.DanglingEdges+s.SelfLoops > 0 {
		printDetail("%d back edges · %d dangling · %d self-loops", s.BackEdges, s.DanglingEdges, s.SelfLoops)
	}
	if res.Fitted {
		printKeyValue("transform", res.Viewport.Transform.String())
	} else {
		printWarning("Layout has no extent; transform left at identity")
	}
	if format != pipeline.FormatSVG {
		printNewline()
		printNextStep("Explore", appName+" view "+input)
	}
	return nil
}
