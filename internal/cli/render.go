package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/git-graph/git-graph/pkg/cache"
	"github.com/git-graph/git-graph/pkg/core/format"
	"github.com/git-graph/git-graph/pkg/core/gitrepo"
	"github.com/git-graph/git-graph/pkg/core/model"
	gerrors "github.com/git-graph/git-graph/pkg/errors"
	"github.com/git-graph/git-graph/pkg/pipeline"
	"github.com/git-graph/git-graph/pkg/render/dot"
	"github.com/git-graph/git-graph/pkg/render/terminal"
)

// renderFlags are the root command's flag values.
type renderFlags struct {
	model      string
	style      string
	format     string
	wrap       string
	color      string
	debugGraph string
	maxCount   int
	local      bool
	sparse     bool
	debug      bool
	svg        bool
	noColor    bool
	noPager    bool
	noCache    bool
}

// runRender is the root command: build the graph and print it.
func (c *CLI) runRender(cmd *cobra.Command, flags *renderFlags) error {
	ctx := withLogger(cmd.Context(), c.Logger)

	modelsDir, err := model.AppModelDir()
	if err != nil {
		return gerrors.Wrap(gerrors.ErrCodeInternal, err, "resolve config directory")
	}
	if err := model.EnsureBuiltins(modelsDir); err != nil {
		return err
	}

	repo, err := gitrepo.Open(c.path)
	if err != nil {
		return err
	}
	gitDir, err := repo.GitDir()
	if err != nil {
		return err
	}

	def, err := model.Resolve(flags.model, gitDir, modelsDir)
	if err != nil {
		return err
	}
	if flags.local {
		def.IncludeRemote = false
	}
	settings, err := model.Compile(def)
	if err != nil {
		return err
	}

	style, err := model.ParseStyle(flags.style)
	if err != nil {
		return err
	}
	spec := format.ParseSpec(flags.format)
	if err := format.Validate(spec); err != nil {
		return err
	}
	wrapMode, err := parseWrap(flags.wrap)
	if err != nil {
		return err
	}
	colored, err := resolveColor(flags)
	if err != nil {
		return err
	}

	stdoutTTY := isatty.IsTerminal(os.Stdout.Fd())
	termWidth := 0
	if stdoutTTY {
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
			termWidth = w
		}
	}

	// The layout cache is keyed by model content; a hash of the definition
	// is enough since regex compilation is deterministic.
	modelHash := ""
	if defData, err := json.Marshal(def); err == nil {
		modelHash = cache.Hash(defData)
	}

	runner := c.newRunner(flags.noCache)
	defer runner.Close()

	var spinner *Spinner
	if isatty.IsTerminal(os.Stderr.Fd()) && !flags.debug {
		spinner = newSpinnerWithContext(ctx, "reading history")
		spinner.Start()
	}

	prog := newProgress(loggerFromContext(ctx))
	result, err := runner.Execute(ctx, repo, settings, modelHash, pipeline.Options{
		MaxCount:  flags.maxCount,
		Sparse:    flags.sparse,
		Debug:     flags.debug,
		SVG:       flags.svg,
		Style:     style,
		Format:    spec,
		Wrap:      wrapMode,
		TermWidth: termWidth,
		Colored:   colored,
		Logger:    c.Logger,
	})
	if spinner != nil {
		spinner.Stop()
	}
	if err != nil {
		return err
	}

	if flags.debug {
		prog.done(fmt.Sprintf("built graph for %d commits", result.Stats.CommitCount))
		printDebugDiagnostics(result)
	}
	if flags.debugGraph != "" {
		if err := writeDebugGraph(cmd, result, flags.debugGraph); err != nil {
			return err
		}
	}

	if flags.svg {
		if _, err := os.Stdout.Write(result.SVG); err != nil {
			return renderWriteError(err)
		}
		return nil
	}

	usePager := !flags.noPager && stdoutTTY
	if err := writeLines(result.Lines, usePager); err != nil {
		return renderWriteError(err)
	}
	return nil
}

// parseWrap parses the --wrap argument: "none", "auto [ind1 [ind2]]", or
// "width [ind1 [ind2]]".
func parseWrap(s string) (terminal.WrapMode, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return terminal.WrapMode{Auto: true, Indent2: 8}, nil
	}
	if len(fields) > 3 {
		return terminal.WrapMode{}, gerrors.New(gerrors.ErrCodeBadArgument,
			"option --wrap takes at most three values, got %q", s)
	}

	mode := terminal.WrapMode{}
	rest := fields[1:]
	switch fields[0] {
	case "none":
		return terminal.WrapMode{None: true}, nil
	case "auto":
		mode.Auto = true
	default:
		width, err := strconv.Atoi(fields[0])
		if err != nil || width < 1 {
			return terminal.WrapMode{}, gerrors.New(gerrors.ErrCodeBadArgument,
				"can't parse option --wrap %q to integers", s)
		}
		mode.Width = width
	}

	indents := make([]int, 0, 2)
	for _, f := range rest {
		n, err := strconv.Atoi(f)
		if err != nil || n < 0 {
			return terminal.WrapMode{}, gerrors.New(gerrors.ErrCodeBadArgument,
				"can't parse option --wrap %q to integers", s)
		}
		indents = append(indents, n)
	}
	if len(indents) > 0 {
		mode.Indent1 = indents[0]
	}
	if len(indents) > 1 {
		mode.Indent2 = indents[1]
	}
	return mode, nil
}

// resolveColor applies --no-color and --color against TTY detection.
func resolveColor(flags *renderFlags) (bool, error) {
	if flags.noColor {
		return false, nil
	}
	switch flags.color {
	case "", "auto":
		return isatty.IsTerminal(os.Stdout.Fd()), nil
	case "always":
		return true, nil
	case "never":
		return false, nil
	default:
		return false, gerrors.New(gerrors.ErrCodeBadArgument,
			"unknown color mode %q, supports [auto|always|never]", flags.color)
	}
}

// printDebugDiagnostics dumps per-branch layout state and the unassigned
// commit set to stderr, mirroring the graph internals for bug reports.
func printDebugDiagnostics(result *pipeline.Result) {
	g := result.Graph
	for i := range g.AllBranches {
		b := &g.AllBranches[i]
		merged := ""
		if b.IsMerged {
			merged = "m"
		}
		fmt.Fprintf(os.Stderr, "%s (col %d) (%d..%d) %s s: %d, t: %d\n",
			b.Name, b.Visual.Column, b.RangeStart, b.RangeEnd, merged,
			b.Visual.SourceOrderGroup, b.Visual.TargetOrderGroup)
	}
	if len(g.Unassigned) > 0 {
		fmt.Fprintf(os.Stderr, "%d commits not assigned to any branch:\n", len(g.Unassigned))
		for _, h := range g.Unassigned {
			fmt.Fprintf(os.Stderr, "  %s\n", h.String()[:7])
		}
	}
	fmt.Fprintf(os.Stderr, "Graph: %s, rendering: %s (%d commits, %d columns)\n",
		result.Stats.GraphTime, result.Stats.RenderTime,
		result.Stats.CommitCount, result.TotalColumns)
}

// writeDebugGraph exports the raw ancestry DAG to path, as SVG when the
// path has a .svg extension and as DOT text otherwise.
func writeDebugGraph(cmd *cobra.Command, result *pipeline.Result, path string) error {
	var data []byte
	if strings.HasSuffix(path, ".svg") {
		out, err := dot.RenderSVG(cmd.Context(), result.Graph)
		if err != nil {
			return gerrors.Wrap(gerrors.ErrCodeRender, err, "render debug graph")
		}
		data = out
	} else {
		data = []byte(dot.ToDOT(result.Graph))
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return gerrors.Wrap(gerrors.ErrCodeRender, err, "write %s", path)
	}
	printFile(path)
	return nil
}
