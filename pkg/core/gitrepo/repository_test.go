package gitrepo

import (
	"os"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// buildRepo creates a small real repository on disk: two commits on master,
// a branch "develop" pointing at the first, and a lightweight tag on the
// second. It exercises the adapter end-to-end against go-git.
func buildRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("PlainInit: %v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Worktree: %v", err)
	}

	write := func(name, content string) {
		if err := os.WriteFile(dir+"/"+name, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		if _, err := wt.Add(name); err != nil {
			t.Fatalf("add %s: %v", name, err)
		}
	}

	sig := &object.Signature{Name: "Tester", Email: "t@example.com", When: time.Unix(1700000000, 0)}

	write("a.txt", "one")
	h1, err := wt.Commit("first", &git.CommitOptions{Author: sig, Committer: sig})
	if err != nil {
		t.Fatalf("commit 1: %v", err)
	}

	if err := repo.CreateBranch(&config.Branch{Name: "develop"}); err != nil {
		t.Fatalf("create branch: %v", err)
	}
	develop := plumbing.NewHashReference(plumbing.NewBranchReferenceName("develop"), h1)
	if err := repo.Storer.SetReference(develop); err != nil {
		t.Fatalf("set develop ref: %v", err)
	}

	write("b.txt", "two")
	h2, err := wt.Commit("second", &git.CommitOptions{Author: sig, Committer: sig})
	if err != nil {
		t.Fatalf("commit 2: %v", err)
	}

	tagRef := plumbing.NewHashReference(plumbing.NewTagReferenceName("v1.0"), h2)
	if err := repo.Storer.SetReference(tagRef); err != nil {
		t.Fatalf("set tag ref: %v", err)
	}

	return dir
}

func TestOpenAndWalk(t *testing.T) {
	dir := buildRepo(t)

	repo, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	refs, err := repo.Refs()
	if err != nil {
		t.Fatalf("Refs: %v", err)
	}
	var names []string
	for _, r := range refs {
		names = append(names, r.Name)
	}
	wantSome := []string{"master", "develop", "v1.0"}
	for _, w := range wantSome {
		found := false
		for _, n := range names {
			if n == w {
				found = true
			}
		}
		if !found {
			t.Errorf("ref %q not found among %v", w, names)
		}
	}

	commits, err := repo.Walk()
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if len(commits) != 2 {
		t.Fatalf("expected 2 commits, got %d", len(commits))
	}
	if commits[0].Summary != "second" || commits[1].Summary != "first" {
		t.Errorf("unexpected order: %s, %s", commits[0].Summary, commits[1].Summary)
	}
	if len(commits[0].Parents) != 1 {
		t.Errorf("expected 1 parent for second commit, got %d", len(commits[0].Parents))
	}

	hash, name, isBranch, err := repo.Head()
	if err != nil {
		t.Fatalf("Head: %v", err)
	}
	if !isBranch || name == "" {
		t.Errorf("expected HEAD on a branch, got name=%q isBranch=%v", name, isBranch)
	}
	if hash != commits[0].Hash {
		t.Errorf("HEAD hash mismatch")
	}
}
