// Package cli implements the git-graph command-line interface.
package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/git-graph/git-graph/pkg/buildinfo"
	"github.com/git-graph/git-graph/pkg/cache"
	"github.com/git-graph/git-graph/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "git-graph"

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

	// path is the value of the persistent --path flag, shared by the root
	// render run and the model subcommand.
	path string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands
// registered. Unlike most cobra trees, the root command itself does the
// main work: running git-graph with no subcommand renders the graph.
func (c *CLI) RootCommand() *cobra.Command {
	flags := &renderFlags{}

	root := &cobra.Command{
		Use:   "git-graph",
		Short: "Structured Git graphs for your branching model",
		Long: `git-graph renders a repository's commit history as a structured graph in
which every commit belongs to exactly one branch lane, and lanes are laid
out in columns according to a configurable branching model (e.g. git-flow).

Examples:
  git-graph                   Show the graph
  git-graph --style round     Show the graph in a different style
  git-graph --model simple    Show the graph using the 'simple' model
  git-graph model --list      List available branching models
  git-graph model             Show this repo's current branching model
  git-graph model git-flow    Permanently set the model for this repo`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd, flags)
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.PersistentFlags().StringVar(&c.path, "path", ".", "open the repository at or above this path")

	f := root.Flags()
	f.StringVarP(&flags.model, "model", "m", "", "branching model: [simple|git-flow|none] or a custom model name")
	f.StringVarP(&flags.style, "style", "s", "thin", "output style: [normal|thin, round, bold, double, ascii]")
	f.StringVarP(&flags.format, "format", "f", "oneline", "commit format: [oneline|short|medium|full] or a template string")
	f.IntVarP(&flags.maxCount, "max-count", "n", 0, "maximum number of commits")
	f.StringVarP(&flags.wrap, "wrap", "w", "auto 0 8", "line wrapping: [<width>|auto|none[ <indent1>[ <indent2>]]]")
	f.BoolVarP(&flags.local, "local", "l", false, "show only local branches, no remotes")
	f.BoolVarP(&flags.sparse, "sparse", "S", false, "merge lines point to target lines rather than merge commits")
	f.BoolVarP(&flags.debug, "debug", "d", false, "additional debug output and graphics")
	f.BoolVar(&flags.svg, "svg", false, "render the graph as SVG instead of text")
	f.StringVar(&flags.color, "color", "auto", "when to use colors: [auto|always|never]")
	f.BoolVar(&flags.noColor, "no-color", false, "print without colors (overrides --color)")
	f.BoolVar(&flags.noPager, "no-pager", false, "print everything at once without a pager")
	f.BoolVar(&flags.noCache, "no-cache", false, "bypass the computed-layout cache")
	f.StringVar(&flags.debugGraph, "debug-graph", "", "write the raw commit ancestry as Graphviz DOT (or SVG for a .svg path)")

	// Register all subcommands
	root.AddCommand(c.modelCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(noCache bool) *pipeline.Runner {
	return pipeline.NewRunner(newCache(noCache), nil, c.Logger)
}

func newCache(noCache bool) cache.Cache {
	if noCache {
		return cache.NewNullCache()
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache()
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return cache.NewNullCache()
	}
	return fc
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/git-graph/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
