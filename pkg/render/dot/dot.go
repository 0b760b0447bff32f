// Package dot exports the raw commit ancestry as a Graphviz DOT digraph,
// independent of branch-column assignment. It exists purely as a
// --debug-graph aid for inspecting what discovery and assignment were given to work with.
package dot

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"

	"github.com/git-graph/git-graph/pkg/core/graph"
)

// ToDOT returns a DOT representation of the displayed commit graph. Nodes
// are labeled with the short hash and the owning branch name; edges run from
// each commit to its displayed parents.
func ToDOT(g *graph.Graph) string {
	var buf bytes.Buffer
	buf.WriteString("digraph commits {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  node [fontname=\"SF Mono, Menlo, monospace\", fontsize=10, shape=box, style=\"filled,rounded\", fillcolor=white];\n\n")

	for idx := range g.Commits {
		info := &g.Commits[idx]
		branch := ""
		if info.BranchTrace >= 0 {
			branch = g.AllBranches[info.BranchTrace].Name
		}
		label := info.Hash.String()[:7]
		if branch != "" {
			label += "\\n" + branch
		}
		fmt.Fprintf(&buf, "  n%d [label=\"%s\"];\n", idx, label)
	}
	buf.WriteString("\n")

	for idx := range g.Commits {
		for _, p := range g.Commits[idx].Parents {
			parIdx, ok := g.Index[p]
			if !ok {
				continue
			}
			fmt.Fprintf(&buf, "  n%d -> n%d;\n", idx, parIdx)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

// RenderSVG renders the ancestry digraph to SVG via Graphviz.
func RenderSVG(ctx context.Context, g *graph.Graph) ([]byte, error) {
	dot := ToDOT(g)

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	parsed, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer parsed.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, parsed, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
