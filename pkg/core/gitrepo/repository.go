// Package gitrepo is the narrow repository adapter the rest of the pipeline
// consumes: given a filesystem path, locate the enclosing
// repository, enumerate refs, and walk commits in a deterministic
// topological order. It is the only package in this module that imports
// go-git; every other package consumes the plain Commit/Ref types below.
package gitrepo

import (
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	gerrors "github.com/git-graph/git-graph/pkg/errors"
)

// RefKind distinguishes the three ref namespaces discovery cares about.
type RefKind int

const (
	RefLocalBranch RefKind = iota
	RefRemoteBranch
	RefTag
)

// Ref is a named pointer into the object graph, peeled to a commit.
type Ref struct {
	Name   string // short display name, e.g. "develop", "origin/master", "v1.0"
	Kind   RefKind
	Target plumbing.Hash
}

// Signature mirrors a commit's author or committer identity.
type Signature struct {
	Name  string
	Email string
	When  time.Time
}

// Commit is the immutable, adapter-agnostic commit record consumed by the
// rest of the pipeline.
type Commit struct {
	Hash      plumbing.Hash
	Parents   []plumbing.Hash
	Author    Signature
	Committer Signature
	Summary   string
	Body      string
}

// ID returns the full 40-hex object id.
func (c Commit) ID() string { return c.Hash.String() }

// ShortID returns the first seven hex characters of the object id.
func (c Commit) ShortID() string {
	s := c.Hash.String()
	if len(s) < 7 {
		return s
	}
	return s[:7]
}

// Repository is the capability the rest of the pipeline depends on. It is
// satisfied by *GoGitRepository in production and by a fake in tests.
type Repository interface {
	// Refs returns local branches, remote branches and tags, peeled to
	// their target commit. Refs pointing at a non-commit object (e.g. an
	// annotated tag on a tree) are silently skipped.
	Refs() ([]Ref, error)
	// Head returns the current HEAD: the hash it resolves to, the ref
	// name if it is a symbolic branch ref, and whether it is a branch
	// (as opposed to a detached commit).
	Head() (hash plumbing.Hash, name string, isBranch bool, err error)
	// Walk returns all commits reachable from every ref's target, newest
	// first, in a stable topological order.
	Walk() ([]Commit, error)
}

// GoGitRepository backs Repository with go-git.
type GoGitRepository struct {
	repo *git.Repository
}

// Open locates the repository enclosing path by walking upward for a
// .git directory.
func Open(path string) (*GoGitRepository, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, gerrors.Wrap(gerrors.ErrCodeRepositoryNotFound, err, "no repository found at or above %s", path)
	}
	return &GoGitRepository{repo: repo}, nil
}

// GitDir returns the path of the repository's .git directory, used to
// persist the chosen branching model.
func (r *GoGitRepository) GitDir() (string, error) {
	wt, err := r.repo.Worktree()
	if err == nil {
		return wt.Filesystem.Root() + "/.git", nil
	}
	// Bare repository: there is no worktree, and no .git directory path is
	// resolved for it.
	return "", gerrors.Wrap(gerrors.ErrCodeGitAccess, err, "resolve .git directory")
}

// Refs implements Repository.
func (r *GoGitRepository) Refs() ([]Ref, error) {
	var out []Ref

	branches, err := r.repo.Storer.IterReferences()
	if err != nil {
		return nil, gerrors.Wrap(gerrors.ErrCodeGitAccess, err, "list refs")
	}
	err = branches.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name()
		var kind RefKind
		var display string
		switch {
		case name.IsBranch():
			kind = RefLocalBranch
			display = name.Short()
		case name.IsRemote():
			kind = RefRemoteBranch
			display = name.Short()
		case name.IsTag():
			kind = RefTag
			display = name.Short()
		default:
			return nil
		}

		hash, err := peel(r.repo, ref)
		if err != nil {
			// A ref pointing at a non-commit object is skipped, not an error.
			return nil
		}
		out = append(out, Ref{Name: display, Kind: kind, Target: hash})
		return nil
	})
	if err != nil {
		return nil, gerrors.Wrap(gerrors.ErrCodeGitAccess, err, "iterate refs")
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// peel resolves a reference to the commit it ultimately points at,
// dereferencing annotated tags.
func peel(repo *git.Repository, ref *plumbing.Reference) (plumbing.Hash, error) {
	hash := ref.Hash()
	if tag, err := repo.TagObject(hash); err == nil {
		commit, err := tag.Commit()
		if err != nil {
			return plumbing.ZeroHash, err
		}
		return commit.Hash, nil
	}
	if _, err := repo.CommitObject(hash); err != nil {
		return plumbing.ZeroHash, err
	}
	return hash, nil
}

// Head implements Repository.
func (r *GoGitRepository) Head() (plumbing.Hash, string, bool, error) {
	head, err := r.repo.Head()
	if err != nil {
		return plumbing.ZeroHash, "", false, gerrors.Wrap(gerrors.ErrCodeGitAccess, err, "resolve HEAD")
	}
	if head.Name() == plumbing.HEAD {
		return head.Hash(), "HEAD", false, nil
	}
	return head.Hash(), head.Name().Short(), head.Name().IsBranch(), nil
}

// Walk implements Repository. It visits every ref's target and yields the
// commits in topological order with committer-time tie-breaking, newest
// first.
func (r *GoGitRepository) Walk() ([]Commit, error) {
	refs, err := r.Refs()
	if err != nil {
		return nil, err
	}

	seen := map[plumbing.Hash]bool{}
	var tips []plumbing.Hash
	for _, ref := range refs {
		if !seen[ref.Target] {
			seen[ref.Target] = true
			tips = append(tips, ref.Target)
		}
	}
	if head, _, _, err := r.Head(); err == nil && !seen[head] {
		seen[head] = true
		tips = append(tips, head)
	}

	visited := map[plumbing.Hash]*object.Commit{}
	for _, tip := range tips {
		if err := collectAncestors(r.repo, tip, visited); err != nil {
			return nil, gerrors.Wrap(gerrors.ErrCodeGitAccess, err, "walk commit graph")
		}
	}

	ordered := topoSort(visited)

	commits := make([]Commit, 0, len(ordered))
	for _, c := range ordered {
		commits = append(commits, convert(c))
	}
	return commits, nil
}

func collectAncestors(repo *git.Repository, start plumbing.Hash, visited map[plumbing.Hash]*object.Commit) error {
	stack := []plumbing.Hash{start}
	for len(stack) > 0 {
		h := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := visited[h]; ok {
			continue
		}
		c, err := repo.CommitObject(h)
		if err != nil {
			continue
		}
		visited[h] = c
		for _, p := range c.ParentHashes {
			stack = append(stack, p)
		}
	}
	return nil
}

// topoSort orders commits newest-first: a commit precedes all of its
// ancestors, and among commits with no ordering constraint between them,
// committer time (descending) breaks ties, matching git's TIME sort flag
// layered on top of TOPOLOGICAL.
func topoSort(visited map[plumbing.Hash]*object.Commit) []*object.Commit {
	childCount := map[plumbing.Hash]int{}
	for h := range visited {
		childCount[h] = 0
	}
	for _, c := range visited {
		for _, p := range c.ParentHashes {
			if _, ok := visited[p]; ok {
				childCount[p]++
			}
		}
	}

	ready := make([]*object.Commit, 0)
	for h, c := range visited {
		if childCount[h] == 0 {
			ready = append(ready, c)
		}
	}
	sortByTime(ready)

	var out []*object.Commit
	for len(ready) > 0 {
		sortByTime(ready)
		c := ready[0]
		ready = ready[1:]
		out = append(out, c)
		for _, p := range c.ParentHashes {
			if _, ok := visited[p]; !ok {
				continue
			}
			childCount[p]--
			if childCount[p] == 0 {
				ready = append(ready, visited[p])
			}
		}
	}
	return out
}

func sortByTime(cs []*object.Commit) {
	sort.SliceStable(cs, func(i, j int) bool {
		return cs[i].Committer.When.After(cs[j].Committer.When)
	})
}

func convert(c *object.Commit) Commit {
	lines := strings.SplitN(c.Message, "\n", 2)
	summary := lines[0]
	body := ""
	if len(lines) > 1 {
		body = strings.TrimPrefix(lines[1], "\n")
	}
	return Commit{
		Hash:    c.Hash,
		Parents: c.ParentHashes,
		Author: Signature{
			Name:  c.Author.Name,
			Email: c.Author.Email,
			When:  c.Author.When,
		},
		Committer: Signature{
			Name:  c.Committer.Name,
			Email: c.Committer.Email,
			When:  c.Committer.When,
		},
		Summary: summary,
		Body:    body,
	}
}
