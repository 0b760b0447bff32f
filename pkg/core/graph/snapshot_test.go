package graph

import (
	"encoding/json"
	"testing"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/git-graph/git-graph/pkg/core/gitrepo"
	"github.com/git-graph/git-graph/pkg/core/model"
)

func mergeFixture() fakeRepo {
	m1, m2 := hash(1), hash(2)
	f1, f2 := hash(3), hash(4)
	return fakeRepo{
		refs: []gitrepo.Ref{{Name: "main", Kind: gitrepo.RefLocalBranch, Target: m2}},
		head: gitrepo.Ref{Name: "main", Target: m2},
		commits: []gitrepo.Commit{
			{Hash: m2, Parents: []plumbing.Hash{m1, f2}, Summary: "Merge branch 'feature/x' into main"},
			{Hash: f2, Parents: []plumbing.Hash{f1}, Summary: "f2"},
			{Hash: f1, Parents: []plumbing.Hash{m1}, Summary: "f1"},
			{Hash: m1, Summary: "m1"},
		},
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	repo := mergeFixture()
	settings, err := model.Compile(model.GitFlow())
	if err != nil {
		t.Fatalf("compile settings: %v", err)
	}
	g, err := New(repo, settings, model.DefaultMergePatterns(), 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for i := range g.AllBranches {
		g.AllBranches[i].Visual.Column = i // any assignment will do
	}

	snap := TakeSnapshot(g, 2)
	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}
	var decoded Snapshot
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}

	restored, err := Restore(repo, decoded, 0)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}

	if decoded.TotalColumns != 2 {
		t.Errorf("TotalColumns = %d, want 2", decoded.TotalColumns)
	}
	if len(restored.Commits) != len(g.Commits) {
		t.Fatalf("restored %d commits, want %d", len(restored.Commits), len(g.Commits))
	}
	for i := range g.Commits {
		if restored.Commits[i].Hash != g.Commits[i].Hash {
			t.Errorf("commit %d hash mismatch", i)
		}
		if restored.Commits[i].BranchTrace != g.Commits[i].BranchTrace {
			t.Errorf("commit %d trace = %d, want %d", i, restored.Commits[i].BranchTrace, g.Commits[i].BranchTrace)
		}
		if restored.Commits[i].Summary != g.Commits[i].Summary {
			t.Errorf("commit %d summary mismatch", i)
		}
	}
	if len(restored.AllBranches) != len(g.AllBranches) {
		t.Fatalf("restored %d branches, want %d", len(restored.AllBranches), len(g.AllBranches))
	}
	for i := range g.AllBranches {
		if restored.AllBranches[i].Name != g.AllBranches[i].Name {
			t.Errorf("branch %d name mismatch", i)
		}
		if restored.AllBranches[i].Visual.Column != g.AllBranches[i].Visual.Column {
			t.Errorf("branch %d column mismatch", i)
		}
		if restored.AllBranches[i].RangeStart != g.AllBranches[i].RangeStart ||
			restored.AllBranches[i].RangeEnd != g.AllBranches[i].RangeEnd {
			t.Errorf("branch %d range mismatch", i)
		}
	}
	if restored.Head.Name != g.Head.Name {
		t.Errorf("head name = %q, want %q", restored.Head.Name, g.Head.Name)
	}
}

func TestRestoreStaleSnapshotFails(t *testing.T) {
	repo := mergeFixture()
	snap := Snapshot{
		TotalColumns: 1,
		Commits:      []CommitSnapshot{{Hash: plumbing.ZeroHash.String(), BranchTrace: 0}},
		Branches:     []BranchSnapshot{{Name: "main"}},
	}
	snap.Commits[0].Hash = "ffffffffffffffffffffffffffffffffffffffff"
	if _, err := Restore(repo, snap, 0); err == nil {
		t.Fatal("expected Restore to fail for a snapshot referencing an unknown commit")
	}
}
