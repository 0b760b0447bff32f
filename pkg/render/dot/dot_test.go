package dot

import (
	"strings"
	"testing"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/git-graph/git-graph/pkg/core/graph"
)

func hash(b byte) plumbing.Hash {
	var h plumbing.Hash
	h[0] = b
	return h
}

func TestToDOT(t *testing.T) {
	a, b := hash(1), hash(2)
	g := &graph.Graph{
		Commits: []graph.CommitInfo{
			{Hash: b, Parents: []plumbing.Hash{a}, BranchTrace: 0},
			{Hash: a, BranchTrace: 0},
		},
		Index:       map[plumbing.Hash]int{b: 0, a: 1},
		AllBranches: []graph.BranchInfo{{Name: "master"}},
	}

	dot := ToDOT(g)

	if !strings.HasPrefix(dot, "digraph commits {") {
		t.Errorf("missing digraph header: %.40s", dot)
	}
	if !strings.Contains(dot, "n0 -> n1;") {
		t.Error("child should point at its parent")
	}
	if !strings.Contains(dot, "master") {
		t.Error("node labels should carry the branch name")
	}
	if !strings.Contains(dot, b.String()[:7]) {
		t.Error("node labels should carry the short hash")
	}
	if !strings.HasSuffix(strings.TrimSpace(dot), "}") {
		t.Error("digraph should be closed")
	}
}
