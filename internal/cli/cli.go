package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/proctree/pkg/buildinfo"
	"github.com/matzehuels/proctree/pkg/cache"
	"github.com/matzehuels/proctree/pkg/config"
	"github.com/matzehuels/proctree/pkg/observability"
	"github.com/matzehuels/proctree/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "proctree"

	// stdoutPath selects standard output for -o.
	stdoutPath = "-"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Persistent flags
	configPath string
	noCache    bool

	// Out receives command output. Status lines go to stderr when Out is
	// stdout and a command writes its result there.
	Out io.Writer

	cfg *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Out:    os.Stdout,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Proctree turns process graphs into fitted trees and reads PDF text",
		Long: `Proctree reduces a flat node/edge graph to a single-parent hierarchy,
lays it out as a tree and fits it into a viewport. It also extracts the
plain text of PDF documents page by page.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			if c.Logger.GetLevel() <= log.DebugLevel {
				observability.SetPipelineHooks(observability.NewLogHooks(c.Logger))
				observability.SetCacheHooks(observability.NewLogHooks(c.Logger))
			}
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/proctree/config.toml)")
	root.PersistentFlags().BoolVar(&c.noCache, "no-cache", false, "disable caching")

	// Register all subcommands
	root.AddCommand(c.treeCommand())
	root.AddCommand(c.fitCommand())
	root.AddCommand(c.extractCommand())
	root.AddCommand(c.viewCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Config and Runner Factory
// =============================================================================

// loadConfig loads the config file once per invocation.
func (c *CLI) loadConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	if cfg.Path != "" {
		c.Logger.Debug("loaded config", "path", cfg.Path)
	}
	c.cfg = cfg
	return cfg, nil
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context) (*pipeline.Runner, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	if c.noCache {
		return pipeline.NewRunner(cache.NewNullCache(), nil, c.Logger), nil
	}
	opts := cfg.CacheOptions()
	if opts.Backend == "" || opts.Backend == cache.BackendFile {
		if opts.Dir, err = cacheDir(cfg); err != nil {
			return nil, err
		}
	}
	ch, err := cache.New(ctx, opts)
	if err != nil {
		// The cache is disposable. Run without it rather than failing.
		c.Logger.Warn("cache unavailable, continuing without", "backend", opts.Backend, "error", err)
		ch = cache.NewNullCache()
	}
	return pipeline.NewRunner(ch, nil, c.Logger), nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the file cache directory: the configured one, else
// ~/.cache/proctree (honoring XDG_CACHE_HOME).
func cacheDir(cfg *config.Config) (string, error) {
	if cfg != nil && cfg.Cache.Dir != "" {
		return cfg.Cache.Dir, nil
	}
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	return cache.DefaultDir()
}

// outputPath returns the output file for input. An empty output replaces
// the input extension with ext; stdoutPath is returned unchanged.
func outputPath(input, output, ext string) string {
	if output != "" {
		return output
	}
	return strings.TrimSuffix(input, filepath.Ext(input)) + "." + ext
}

// writeOutput writes data to path, or to c.Out for stdoutPath.
func (c *CLI) writeOutput(path string, data []byte) error {
	if path == stdoutPath {
		_, err := c.Out.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", path, err)
	}
	return nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// applyConfig fills options whose flags were not set on the command line
// from the config file.
func applyConfig(cmd *cobra.Command, opts *pipeline.Options, file pipeline.Options) {
	set := func(name string, apply func()) {
		if f := cmd.Flags().Lookup(name); f != nil && !f.Changed {
			apply()
		}
	}
	set("guard", func() { opts.Guard = file.Guard })
	set("root-policy", func() { opts.RootPolicy = file.RootPolicy })
	set("engine", func() { opts.Engine = file.Engine })
	set("node-width", func() { opts.NodeWidth = file.NodeWidth })
	set("node-height", func() { opts.NodeHeight = file.NodeHeight })
	set("width", func() { opts.Width = file.Width })
	set("height", func() { opts.Height = file.Height })
	set("fill", func() { opts.Fill = file.Fill })
	set("backend", func() { opts.Backend = file.Backend })
}

// addTreeFlags registers the flags shared by commands running the tree
// pipeline. Zero values mean "config file or default".
func addTreeFlags(cmd *cobra.Command, opts *pipeline.Options) {
	cmd.Flags().StringVar((*string)(&opts.Guard), "guard", "", "cycle guard: two-hop (default), ancestor")
	cmd.Flags().StringVar((*string)(&opts.RootPolicy), "root-policy", "", "multiple roots: forest (default), single, virtual")
	cmd.Flags().StringVar(&opts.Engine, "engine", "", "layout engine: tidy (default), graphviz")
	cmd.Flags().Float64Var(&opts.NodeWidth, "node-width", 0, "horizontal node spacing")
	cmd.Flags().Float64Var(&opts.NodeHeight, "node-height", 0, "vertical node spacing")
}

// addViewFlags registers the viewport flags.
func addViewFlags(cmd *cobra.Command, opts *pipeline.Options) {
	cmd.Flags().Float64Var(&opts.Width, "width", 0, "viewport width (default 800)")
	cmd.Flags().Float64Var(&opts.Height, "height", 0, "viewport height (default 600)")
	addFillFlag(cmd, opts)
}

func addFillFlag(cmd *cobra.Command, opts *pipeline.Options) {
	cmd.Flags().Float64Var(&opts.Fill, "fill", 0, "share of the viewport the tree fills (default 0.85)")
}
