package graph

import (
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/git-graph/git-graph/pkg/core/gitrepo"
	gerrors "github.com/git-graph/git-graph/pkg/errors"
)

// Snapshot is the serializable result of discovery, assignment and column
// layout. The pipeline caches it keyed by (refs, model, options) so repeated
// runs against an unchanged repository skip the back-trace and packing work
// and only re-walk commits for their display text.
//
// Commit metadata (parents, authors, messages) is deliberately absent: it is
// re-read from the repository on restore, which keeps snapshots small and
// means a snapshot can never serve stale text.
type Snapshot struct {
	TotalColumns int              `json:"total_columns"`
	Commits      []CommitSnapshot `json:"commits"`
	Branches     []BranchSnapshot `json:"branches"`
}

// CommitSnapshot records one displayed commit's branch bookkeeping.
type CommitSnapshot struct {
	Hash        string `json:"hash"`
	BranchTrace int    `json:"branch_trace"`
	Branches    []int  `json:"branches,omitempty"`
	Tags        []int  `json:"tags,omitempty"`
}

// BranchSnapshot records everything rendering needs to know about a branch
// lane. Object ids (the branch head, the introducing merge commit) are not
// carried: they only matter during assignment, which a restore skips.
type BranchSnapshot struct {
	Name        string    `json:"name"`
	Persistence int       `json:"persistence"`
	IsRemote    bool      `json:"is_remote,omitempty"`
	IsMerged    bool      `json:"is_merged,omitempty"`
	IsTag       bool      `json:"is_tag,omitempty"`
	Visual      BranchVis `json:"visual"`
	RangeStart  int       `json:"range_start"`
	RangeEnd    int       `json:"range_end"`
}

// TakeSnapshot captures g's assignment and layout for caching. totalColumns
// is the grid width returned by layout.Assign.
func TakeSnapshot(g *Graph, totalColumns int) Snapshot {
	snap := Snapshot{
		TotalColumns: totalColumns,
		Commits:      make([]CommitSnapshot, len(g.Commits)),
		Branches:     make([]BranchSnapshot, len(g.AllBranches)),
	}
	for i, c := range g.Commits {
		snap.Commits[i] = CommitSnapshot{
			Hash:        c.Hash.String(),
			BranchTrace: c.BranchTrace,
			Branches:    c.Branches,
			Tags:        c.Tags,
		}
	}
	for i, b := range g.AllBranches {
		snap.Branches[i] = BranchSnapshot{
			Name:        b.Name,
			Persistence: b.Persistence,
			IsRemote:    b.IsRemote,
			IsMerged:    b.IsMerged,
			IsTag:       b.IsTag,
			Visual:      b.Visual,
			RangeStart:  b.RangeStart,
			RangeEnd:    b.RangeEnd,
		}
	}
	return snap
}

// Restore rebuilds a Graph from a snapshot by re-walking repo for commit
// metadata and re-attaching the snapshot's branch assignment. It fails with
// GitAccess if the snapshot no longer matches the repository (a commit it
// references is gone); callers treat that as a cache miss and recompute.
func Restore(repo gitrepo.Repository, snap Snapshot, maxCount int) (*Graph, error) {
	raw, err := repo.Walk()
	if err != nil {
		return nil, err
	}
	if maxCount > 0 && len(raw) > maxCount {
		raw = raw[:maxCount]
	}

	index := make(map[plumbing.Hash]int, len(raw))
	commits := make([]CommitInfo, len(raw))
	for i, c := range raw {
		index[c.Hash] = i
		commits[i] = CommitInfo{
			Hash:        c.Hash,
			IsMerge:     len(c.Parents) >= 2,
			Parents:     c.Parents,
			Author:      c.Author,
			Committer:   c.Committer,
			Summary:     c.Summary,
			Body:        c.Body,
			BranchTrace: noBranch,
		}
	}
	assignChildren(commits, index)

	displayed := make([]CommitInfo, 0, len(snap.Commits))
	displayIndex := make(map[plumbing.Hash]int, len(snap.Commits))
	inSnapshot := make(map[plumbing.Hash]bool, len(snap.Commits))
	for _, cs := range snap.Commits {
		h := plumbing.NewHash(cs.Hash)
		orig, ok := index[h]
		if !ok {
			return nil, gerrors.New(gerrors.ErrCodeGitAccess,
				"cached layout references unknown commit %s", cs.Hash)
		}
		info := commits[orig]
		info.BranchTrace = cs.BranchTrace
		info.Branches = cs.Branches
		info.Tags = cs.Tags
		displayIndex[h] = len(displayed)
		inSnapshot[h] = true
		displayed = append(displayed, info)
	}

	var unassigned []plumbing.Hash
	for _, c := range raw {
		if !inSnapshot[c.Hash] {
			unassigned = append(unassigned, c.Hash)
		}
	}

	branches := make([]BranchInfo, len(snap.Branches))
	var real, tags []int
	for i, bs := range snap.Branches {
		branches[i] = BranchInfo{
			SourceBranch: noBranch,
			TargetBranch: noBranch,
			Name:         bs.Name,
			Persistence:  bs.Persistence,
			IsRemote:     bs.IsRemote,
			IsMerged:     bs.IsMerged,
			IsTag:        bs.IsTag,
			Visual:       bs.Visual,
			RangeStart:   bs.RangeStart,
			RangeEnd:     bs.RangeEnd,
		}
		if bs.IsMerged {
			continue
		}
		if bs.IsTag {
			tags = append(tags, i)
		} else {
			real = append(real, i)
		}
	}

	headHash, headName, headIsBranch, err := repo.Head()
	if err != nil {
		return nil, err
	}

	return &Graph{
		Commits:     displayed,
		Index:       displayIndex,
		AllBranches: branches,
		Branches:    real,
		Tags:        tags,
		Head:        HeadInfo{Hash: headHash, Name: headName, IsBranch: headIsBranch},
		Unassigned:  unassigned,
	}, nil
}
