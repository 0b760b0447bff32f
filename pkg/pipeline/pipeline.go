// Package pipeline wires the stages of a run together: branch discovery and
// assignment, column layout, and rendering, with an optional computed-layout
// cache in front of the first two. The CLI is its only caller today, but the
// package deliberately depends on nothing under internal/ so the stages stay
// scriptable from tests and future embedders.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, repo, settings, modelHash, pipeline.Options{
//		Format: format.ParseSpec("oneline"),
//	})
//	if err != nil {
//		return err
//	}
//	for _, line := range result.Lines {
//		fmt.Println(line)
//	}
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/git-graph/git-graph/pkg/cache"
	"github.com/git-graph/git-graph/pkg/core/format"
	"github.com/git-graph/git-graph/pkg/core/gitrepo"
	"github.com/git-graph/git-graph/pkg/core/graph"
	"github.com/git-graph/git-graph/pkg/core/layout"
	"github.com/git-graph/git-graph/pkg/core/model"
	"github.com/git-graph/git-graph/pkg/render/svg"
	"github.com/git-graph/git-graph/pkg/render/terminal"
)

// Options configures a pipeline run. The zero value renders the full
// history as uncolored oneline text in the default style.
type Options struct {
	// MaxCount caps the number of commits walked; 0 means unlimited.
	MaxCount int

	// Sparse routes every merge connector onto its own inserted row next
	// to the line it converges on, instead of turning on the merge
	// commit's row.
	Sparse bool

	// Debug draws layout diagnostics into the SVG output.
	Debug bool

	// SVG selects the SVG renderer over the terminal renderer.
	SVG bool

	Style     model.Characters
	Format    format.Spec
	Wrap      terminal.WrapMode
	TermWidth int
	Colored   bool

	// Patterns are the merge-summary regexes used to infer branches.
	// Zero value means the built-in defaults.
	Patterns *model.MergePatterns

	Logger *log.Logger
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Graph is the assigned, column-packed commit graph.
	Graph *graph.Graph

	// TotalColumns is the grid width in branch columns.
	TotalColumns int

	// Lines is the terminal output, one element per output row. Empty for
	// SVG runs.
	Lines []string

	// SVG is the rendered document for SVG runs.
	SVG []byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks whether the layout stage hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	CommitCount int
	BranchCount int
	GraphTime   time.Duration
	RenderTime  time.Duration
}

// CacheInfo tracks cache hits.
type CacheInfo struct {
	LayoutHit bool
}

// Runner executes pipeline runs against a shared cache and logger. It is
// stateless apart from those two; a single Runner serves any number of runs.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner. A nil cache disables caching, a nil keyer
// selects the default key scheme, a nil logger discards output.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Execute runs discovery, assignment, layout and rendering. modelHash is a
// content hash of the active branching model, used in the layout cache key;
// pass "" to bypass the cache for this run.
func (r *Runner) Execute(ctx context.Context, repo gitrepo.Repository, settings *model.Settings, modelHash string, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = r.Logger
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if opts.Style == (model.Characters{}) {
		opts.Style = model.CharactersThin()
	}

	result := &Result{}

	graphStart := time.Now()
	g, total, hit, err := r.buildGraph(ctx, repo, settings, modelHash, opts)
	if err != nil {
		return nil, err
	}
	result.Graph = g
	result.TotalColumns = total
	result.Stats.GraphTime = time.Since(graphStart)
	result.Stats.CommitCount = len(g.Commits)
	result.Stats.BranchCount = len(g.Branches)
	result.CacheInfo.LayoutHit = hit

	logger.Debug("assigned branches",
		"commits", len(g.Commits),
		"branches", len(g.Branches),
		"columns", total,
		"cached", hit,
		"duration", result.Stats.GraphTime)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	renderStart := time.Now()
	if opts.SVG {
		out, err := svg.Render(g, svg.Options{Format: opts.Format, Debug: opts.Debug})
		if err != nil {
			return nil, fmt.Errorf("render svg: %w", err)
		}
		result.SVG = out
	} else {
		lines, err := terminal.Render(g, terminal.Options{
			Characters: opts.Style,
			Colored:    opts.Colored,
			Compact:    !opts.Sparse,
			Format:     opts.Format,
			Wrap:       opts.Wrap,
			TermWidth:  opts.TermWidth,
			Logger:     logger,
		})
		if err != nil {
			return nil, fmt.Errorf("render: %w", err)
		}
		result.Lines = lines
	}
	result.Stats.RenderTime = time.Since(renderStart)

	logger.Debug("rendered output",
		"rows", len(result.Lines),
		"svg", opts.SVG,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// buildGraph produces the assigned, column-packed graph, consulting the
// layout cache first. A cached snapshot that no longer matches the
// repository is discarded and recomputed.
func (r *Runner) buildGraph(ctx context.Context, repo gitrepo.Repository, settings *model.Settings, modelHash string, opts Options) (*graph.Graph, int, bool, error) {
	keyOpts := cache.LayoutKeyOpts{MaxCount: opts.MaxCount, IncludeRemote: settings.IncludeRemote}

	var key string
	if modelHash != "" {
		inputsHash, err := r.inputsHash(repo, modelHash)
		if err != nil {
			return nil, 0, false, err
		}
		key = r.Keyer.LayoutKey(inputsHash, keyOpts)

		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var snap graph.Snapshot
			if err := json.Unmarshal(data, &snap); err == nil {
				if g, err := graph.Restore(repo, snap, opts.MaxCount); err == nil {
					return g, snap.TotalColumns, true, nil
				}
			}
			// Stale or corrupt snapshot: drop it and recompute.
			_ = r.Cache.Delete(ctx, key)
		}
	}

	patterns := model.DefaultMergePatterns()
	if opts.Patterns != nil {
		patterns = *opts.Patterns
	}

	g, err := graph.New(repo, settings, patterns, opts.MaxCount)
	if err != nil {
		return nil, 0, false, err
	}
	total := layout.Assign(g.AllBranches, len(settings.Order))

	if key != "" {
		if data, err := json.Marshal(graph.TakeSnapshot(g, total)); err == nil {
			_ = r.Cache.Set(ctx, key, data, cache.TTLLayout)
		}
	}

	return g, total, false, nil
}

// inputsHash hashes everything outside Options that influences the layout:
// the full ref set (names and targets) and the model content.
func (r *Runner) inputsHash(repo gitrepo.Repository, modelHash string) (string, error) {
	refs, err := repo.Refs()
	if err != nil {
		return "", err
	}
	var buf []byte
	for _, ref := range refs {
		buf = append(buf, byte(ref.Kind))
		buf = append(buf, ref.Name...)
		buf = append(buf, '\x00')
		buf = append(buf, ref.Target.String()...)
		buf = append(buf, '\n')
	}
	buf = append(buf, modelHash...)
	return cache.Hash(buf), nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
