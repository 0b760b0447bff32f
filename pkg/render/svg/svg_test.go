package svg

import (
	"strings"
	"testing"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/git-graph/git-graph/pkg/core/format"
	"github.com/git-graph/git-graph/pkg/core/gitrepo"
	"github.com/git-graph/git-graph/pkg/core/graph"
	"github.com/git-graph/git-graph/pkg/core/layout"
	"github.com/git-graph/git-graph/pkg/core/model"
)

type fakeRepo struct {
	refs    []gitrepo.Ref
	commits []gitrepo.Commit
	head    gitrepo.Ref
}

func (f fakeRepo) Refs() ([]gitrepo.Ref, error) { return f.refs, nil }

func (f fakeRepo) Head() (plumbing.Hash, string, bool, error) {
	return f.head.Target, f.head.Name, true, nil
}

func (f fakeRepo) Walk() ([]gitrepo.Commit, error) { return f.commits, nil }

func hash(b byte) plumbing.Hash {
	var h plumbing.Hash
	h[0] = b
	return h
}

func buildMergeGraph(t *testing.T) *graph.Graph {
	t.Helper()
	m1, m2 := hash(1), hash(2)
	f1, f2 := hash(3), hash(4)
	repo := fakeRepo{
		refs: []gitrepo.Ref{{Name: "main", Kind: gitrepo.RefLocalBranch, Target: m2}},
		head: gitrepo.Ref{Name: "main", Target: m2},
		commits: []gitrepo.Commit{
			{Hash: m2, Parents: []plumbing.Hash{m1, f2}, Summary: "Merge branch 'feature/x' into main"},
			{Hash: f2, Parents: []plumbing.Hash{f1}, Summary: "f2"},
			{Hash: f1, Parents: []plumbing.Hash{m1}, Summary: "f1"},
			{Hash: m1, Summary: "m1 <tag>"},
		},
	}
	settings, err := model.Compile(model.GitFlow())
	if err != nil {
		t.Fatalf("compile settings: %v", err)
	}
	g, err := graph.New(repo, settings, model.DefaultMergePatterns(), 0)
	if err != nil {
		t.Fatalf("build graph: %v", err)
	}
	layout.Assign(g.AllBranches, len(settings.Order))
	return g
}

func TestRenderDocumentShape(t *testing.T) {
	g := buildMergeGraph(t)

	out, err := Render(g, Options{Format: format.Spec{Preset: format.PresetOneLine}})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	doc := string(out)

	if !strings.HasPrefix(doc, `<svg xmlns="http://www.w3.org/2000/svg"`) {
		t.Errorf("missing svg header: %.80s", doc)
	}
	if !strings.HasSuffix(strings.TrimSpace(doc), "</svg>") {
		t.Error("document should be closed")
	}

	// One circle per commit; the merge commit is hollow (white fill).
	if got := strings.Count(doc, "<circle"); got != 4 {
		t.Errorf("expected 4 commit dots, got %d", got)
	}
	if !strings.Contains(doc, `fill="white"`) {
		t.Error("merge commit should be drawn hollow")
	}

	// The cross-column merge and branch-off connectors are curved paths.
	if got := strings.Count(doc, "<path"); got != 2 {
		t.Errorf("expected 2 cross-column connectors, got %d", got)
	}

	// git-flow SVG palette: main is blue, feature lanes purple.
	if !strings.Contains(doc, `stroke="blue"`) {
		t.Error("main lane should use the blue SVG color")
	}
	if !strings.Contains(doc, `"purple"`) {
		t.Error("feature lane should use the purple SVG color")
	}

	// One text element per commit, XML-escaped.
	if got := strings.Count(doc, "<text"); got != 4 {
		t.Errorf("expected 4 text elements, got %d", got)
	}
	if !strings.Contains(doc, "m1 &lt;tag&gt;") {
		t.Error("text content should be XML-escaped")
	}
}

func TestRenderEmptyGraph(t *testing.T) {
	g := &graph.Graph{Index: map[plumbing.Hash]int{}}
	out, err := Render(g, Options{Format: format.Spec{Preset: format.PresetOneLine}})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	doc := string(out)
	if !strings.Contains(doc, "<svg") || !strings.Contains(doc, "</svg>") {
		t.Errorf("empty graph should still produce a well-formed document: %s", doc)
	}
	if strings.Contains(doc, "<circle") {
		t.Error("empty graph must not contain commit dots")
	}
}

func TestDebugDrawsRangeHighlights(t *testing.T) {
	g := buildMergeGraph(t)
	out, err := Render(g, Options{Format: format.Spec{Preset: format.PresetOneLine}, Debug: true})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(string(out), `stroke="cyan" stroke-width="5"`) {
		t.Error("debug mode should draw thick range highlight lines")
	}
}
