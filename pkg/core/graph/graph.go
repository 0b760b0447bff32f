// Package graph implements branch discovery and commit-to-branch assignment.
// It consumes the plain Commit/Ref records produced by pkg/core/gitrepo and
// a compiled pkg/core/model.Settings, and produces a Graph: a filtered,
// reindexed commit sequence plus the BranchInfo set each commit traces back
// to. Column assignment is left to pkg/core/layout, which consumes
// BranchInfo.Visual's order/source/target groups.
package graph

import (
	"sort"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/git-graph/git-graph/pkg/core/gitrepo"
	"github.com/git-graph/git-graph/pkg/core/model"
)

// noBranch is the sentinel for "not assigned to any branch" or "no such
// branch reference".
const noBranch = -1

// CommitInfo augments a raw commit with the bookkeeping discovery and
// assignment need: its children, the branches/tags pointing directly at it,
// and the single branch its back-trace ultimately assigned it to.
type CommitInfo struct {
	Hash      plumbing.Hash
	IsMerge   bool
	Parents   []plumbing.Hash
	Author    gitrepo.Signature
	Committer gitrepo.Signature
	Summary   string
	Body      string
	Children  []plumbing.Hash
	Branches  []int // indices into Graph.AllBranches of refs pointing here
	Tags      []int
	BranchTrace int // index into Graph.AllBranches, or noBranch
}

// BranchVis carries the layout-facing visual attributes of a branch: the
// column band it belongs to, the bands of the branches it merges from/into,
// its cyclic colors, and (once pkg/core/layout has run) its column.
type BranchVis struct {
	OrderGroup       int
	TargetOrderGroup int // noBranch if this branch is not a merge source
	SourceOrderGroup int // noBranch if no cross-branch parent was found
	TermColor        string
	SVGColor         string
	Column           int // noBranch until layout assigns one
}

// BranchInfo is a branch lane: either a real ref, a tag, or a branch
// inferred from a merge commit's summary.
type BranchInfo struct {
	Target       plumbing.Hash  // head of the branch, or merge's second parent for inferred branches
	MergeTarget  *plumbing.Hash // for inferred branches, the merge commit that introduced them
	SourceBranch int            // branch of the last cross-branch parent found, scanning commits newest first
	TargetBranch int            // branch the merge commit (if any) was assigned to
	Name         string
	Persistence  int
	IsRemote     bool
	IsMerged     bool // true for merge-inferred branches
	IsTag        bool
	Visual       BranchVis

	// RangeStart is the commit index of the branch's tip, RangeEnd the
	// oldest commit assigned to it by back-trace. Both are noBranch when
	// the branch claimed no commits.
	RangeStart int
	RangeEnd   int
}

// HasRange reports whether the branch owns any commits and should
// participate in layout.
func (b BranchInfo) HasRange() bool { return b.RangeStart != noBranch || b.RangeEnd != noBranch }

// HeadInfo records the repository's current HEAD in the graph's terms.
type HeadInfo struct {
	Hash     plumbing.Hash
	Name     string
	IsBranch bool
}

// Graph is a fully discovered and assigned commit history: a filtered,
// reindexed commit sequence (row 0 is the newest displayed commit) and the
// branch lanes each commit belongs to.
type Graph struct {
	Commits     []CommitInfo
	Index       map[plumbing.Hash]int
	AllBranches []BranchInfo
	Branches    []int // indices of real, still-existing branches
	Tags        []int // indices of tags
	Head        HeadInfo

	// Unassigned holds the commits no branch back-trace claimed; they are
	// dropped from the displayed set but reported under --debug.
	Unassigned []plumbing.Hash
}

// New runs discovery and assignment against repo using settings and the
// merge-summary patterns, capping the walked history at maxCount commits
// (0 means unlimited).
func New(repo gitrepo.Repository, settings *model.Settings, patterns model.MergePatterns, maxCount int) (*Graph, error) {
	refs, err := repo.Refs()
	if err != nil {
		return nil, err
	}
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

	branches := extractBranches(commits, index, refs, settings, patterns)
	branches = assignBranches(commits, index, branches)
	correctForkMerges(commits, index, branches, settings)
	assignSourcesTargets(commits, index, branches)

	filtered, newIndex, unassigned := filterCommits(commits)
	remapRanges(commits, branches, newIndex)

	displayIndex := make(map[plumbing.Hash]int, len(filtered))
	for i, c := range filtered {
		displayIndex[c.Hash] = i
	}

	var real, tags []int
	for i, b := range branches {
		if b.IsMerged {
			continue
		}
		if b.IsTag {
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
		Commits:     filtered,
		Index:       displayIndex,
		AllBranches: branches,
		Branches:    real,
		Tags:        tags,
		Head:        HeadInfo{Hash: headHash, Name: headName, IsBranch: headIsBranch},
		Unassigned:  unassigned,
	}, nil
}

func assignChildren(commits []CommitInfo, index map[plumbing.Hash]int) {
	for i := range commits {
		for _, p := range commits[i].Parents {
			if pi, ok := index[p]; ok {
				commits[pi].Children = append(commits[pi].Children, commits[i].Hash)
			}
		}
	}
}

// matchName is the name a branch is classified under: for a remote ref, the
// leading "<remote>/" segment is stripped before matching persistence,
// order, and color patterns. The display Name keeps the full form.
func matchName(ref gitrepo.Ref) string {
	if ref.Kind != gitrepo.RefRemoteBranch {
		return ref.Name
	}
	if i := strings.IndexByte(ref.Name, '/'); i >= 0 {
		return ref.Name[i+1:]
	}
	return ref.Name
}

func newVisual(settings *model.Settings, name string) BranchVis {
	return BranchVis{
		OrderGroup:       settings.OrderGroup(name),
		TargetOrderGroup: noBranch,
		SourceOrderGroup: noBranch,
		TermColor:        settings.TerminalColor(name),
		SVGColor:         settings.SVGColor(name),
		Column:           noBranch,
	}
}

// extractBranches builds the candidate branch list from refs, tags, and
// merge-commit summaries, de-duplicated by (name, target).
func extractBranches(commits []CommitInfo, index map[plumbing.Hash]int, refs []gitrepo.Ref, settings *model.Settings, patterns model.MergePatterns) []BranchInfo {
	var branches []BranchInfo
	seen := map[string]bool{}
	add := func(b BranchInfo) {
		key := b.Name + "\x00" + b.Target.String()
		if seen[key] {
			return
		}
		seen[key] = true
		branches = append(branches, b)
	}

	for _, ref := range refs {
		if ref.Kind == gitrepo.RefTag {
			continue
		}
		if ref.Kind == gitrepo.RefRemoteBranch && !settings.IncludeRemote {
			continue
		}
		idx, ok := index[ref.Target]
		if !ok {
			continue
		}
		name := matchName(ref)
		add(BranchInfo{
			Target:       ref.Target,
			SourceBranch: noBranch,
			TargetBranch: noBranch,
			Name:         ref.Name,
			Persistence:  settings.PersistenceIndex(name),
			IsRemote:     ref.Kind == gitrepo.RefRemoteBranch,
			Visual:       newVisual(settings, name),
			RangeStart:   idx,
			RangeEnd:     noBranch,
		})
	}

	for _, ref := range refs {
		if ref.Kind != gitrepo.RefTag {
			continue
		}
		idx, ok := index[ref.Target]
		if !ok {
			continue
		}
		name := "tags/" + ref.Name
		add(BranchInfo{
			Target:       ref.Target,
			SourceBranch: noBranch,
			TargetBranch: noBranch,
			Name:         name,
			Persistence:  len(settings.Persistence) + 1,
			IsTag:        true,
			Visual:       newVisual(settings, name),
			RangeStart:   idx,
			RangeEnd:     noBranch,
		})
	}

	heads := map[plumbing.Hash]bool{}
	for _, b := range branches {
		if !b.IsTag {
			heads[b.Target] = true
		}
	}

	for i := range commits {
		c := &commits[i]
		if !c.IsMerge || len(c.Parents) < 2 {
			continue
		}
		parent := c.Parents[1]
		idx, ok := index[parent]
		if !ok || heads[parent] {
			continue
		}
		name, ok := patterns.ParseBranchName(c.Summary)
		if !ok {
			continue
		}
		mergeOid := c.Hash
		add(BranchInfo{
			Target:       parent,
			MergeTarget:  &mergeOid,
			SourceBranch: noBranch,
			TargetBranch: noBranch,
			Name:         name,
			Persistence:  settings.PersistenceIndex(name),
			IsMerged:     true,
			Visual:       newVisual(settings, name),
			RangeStart:   idx,
			RangeEnd:     noBranch,
		})
	}

	sort.SliceStable(branches, func(i, j int) bool {
		if branches[i].Persistence != branches[j].Persistence {
			return branches[i].Persistence < branches[j].Persistence
		}
		if branches[i].RangeStart != branches[j].RangeStart {
			return branches[i].RangeStart < branches[j].RangeStart
		}
		return branches[i].Name < branches[j].Name
	})
	return branches
}

// assignBranches back-traces every branch's primary-parent chain in
// persistence order, then drops merge-inferred branches
// that claimed no commits - a real ref or tag that claimed nothing is kept,
// range-less, for the benefit of merge-target rendering.
func assignBranches(commits []CommitInfo, index map[plumbing.Hash]int, branches []BranchInfo) []BranchInfo {
	keep := make([]bool, len(branches))
	for i := range branches {
		b := &branches[i]
		idx, ok := index[b.Target]
		if !ok {
			continue
		}
		if b.IsTag {
			commits[idx].Tags = append(commits[idx].Tags, i)
		} else if !b.IsMerged {
			commits[idx].Branches = append(commits[idx].Branches, i)
		}

		assigned := traceBranch(commits, index, branches, i)
		keep[i] = assigned || !b.IsMerged
		if !assigned && !b.IsMerged {
			branches[i].RangeStart = noBranch
		}
	}

	remap := make([]int, len(branches))
	var kept []BranchInfo
	for i, k := range keep {
		if !k {
			remap[i] = noBranch
			continue
		}
		remap[i] = len(kept)
		kept = append(kept, branches[i])
	}
	for i := range commits {
		c := &commits[i]
		if c.BranchTrace != noBranch {
			c.BranchTrace = remap[c.BranchTrace]
		}
		for j, br := range c.Branches {
			c.Branches[j] = remap[br]
		}
		for j, tg := range c.Tags {
			c.Tags[j] = remap[tg]
		}
	}
	return kept
}

// traceBranch walks branches[branchIdx]'s primary-parent chain from its
// target, claiming unassigned commits. When it meets a commit already
// claimed by a same-named branch, it reclaims the commits back to that
// branch's own head if its candidate range reaches further back - the
// fork-self-merge case - otherwise it stops.
func traceBranch(commits []CommitInfo, index map[plumbing.Hash]int, branches []BranchInfo, branchIdx int) bool {
	b := &branches[branchIdx]
	cur, ok := index[b.Target]
	if !ok {
		return false
	}

	assigned := false
	last := noBranch
	for {
		info := &commits[cur]
		if info.BranchTrace != noBranch {
			owner := &branches[info.BranchTrace]
			if owner.Name == b.Name && (owner.RangeEnd == noBranch || cur > owner.RangeEnd) {
				// Reclaim: this branch's walk reaches further back than
				// the same-named owner's recorded range, so it takes over.
			} else {
				if strings.HasPrefix(b.Name, "origin/") && strings.TrimPrefix(b.Name, "origin/") == owner.Name {
					b.Visual.TermColor = owner.Visual.TermColor
					b.Visual.SVGColor = owner.Visual.SVGColor
				}
				break
			}
		}

		info.BranchTrace = branchIdx
		assigned = true
		last = cur

		if len(info.Parents) == 0 {
			break
		}
		next, ok := index[info.Parents[0]]
		if !ok {
			break
		}
		cur = next
	}

	if last != noBranch {
		b.RangeEnd = last
	}
	return assigned
}

// correctForkMerges renames a merge-inferred branch to "fork/<name>" when it
// would otherwise share a name with the branch its merge commit was
// assigned to - a self-merge. fork/ branches never participate in
// persistence matching but still get their own order group and colors.
func correctForkMerges(commits []CommitInfo, index map[plumbing.Hash]int, branches []BranchInfo, settings *model.Settings) {
	for i := range branches {
		b := &branches[i]
		if b.MergeTarget == nil {
			continue
		}
		idx, ok := index[*b.MergeTarget]
		if !ok {
			continue
		}
		trace := commits[idx].BranchTrace
		if trace == noBranch {
			continue
		}
		target := branches[trace]
		if b.Name != target.Name {
			continue
		}
		name := "fork/" + b.Name
		b.Name = name
		b.Visual.OrderGroup = settings.OrderGroup(name)
		b.Visual.TermColor = settings.TerminalColor(name)
		b.Visual.SVGColor = settings.SVGColor(name)
	}
}

// assignSourcesTargets records, for every branch inferred from a merge, the
// branch its merge commit landed on (TargetBranch / TargetOrderGroup); and
// for every commit whose primary-or-secondary parent sits on a different
// branch, that parent's branch and order group as the owning branch's
// SourceBranch / SourceOrderGroup. pkg/core/layout's column packing sorts on
// exactly these two groups.
func assignSourcesTargets(commits []CommitInfo, index map[plumbing.Hash]int, branches []BranchInfo) {
	for i := range branches {
		b := &branches[i]
		if b.MergeTarget == nil {
			continue
		}
		idx, ok := index[*b.MergeTarget]
		if !ok {
			continue
		}
		trace := commits[idx].BranchTrace
		b.TargetBranch = trace
		if trace != noBranch {
			b.Visual.TargetOrderGroup = branches[trace].Visual.OrderGroup
		}
	}

	for i := range commits {
		c := &commits[i]
		maxParOrder := noBranch
		sourceBranch := noBranch
		for _, p := range c.Parents {
			pidx, ok := index[p]
			if !ok {
				continue
			}
			pinfo := &commits[pidx]
			if pinfo.BranchTrace == c.BranchTrace {
				continue
			}
			if pinfo.BranchTrace == noBranch {
				continue
			}
			sourceBranch = pinfo.BranchTrace
			group := branches[pinfo.BranchTrace].Visual.OrderGroup
			if group > maxParOrder {
				maxParOrder = group
			}
		}
		if c.BranchTrace == noBranch {
			continue
		}
		b := &branches[c.BranchTrace]
		if maxParOrder != noBranch {
			b.Visual.SourceOrderGroup = maxParOrder
		}
		if sourceBranch != noBranch {
			b.SourceBranch = sourceBranch
		}
	}
}

// filterCommits drops every commit that never got a branch trace and
// returns the displayed sequence, an old-index -> new-index map (noBranch
// for dropped commits) for remapping branch ranges, and the hashes of the
// dropped commits for debug reporting.
func filterCommits(commits []CommitInfo) ([]CommitInfo, []int, []plumbing.Hash) {
	newIndex := make([]int, len(commits))
	filtered := make([]CommitInfo, 0, len(commits))
	var unassigned []plumbing.Hash
	for i, c := range commits {
		if c.BranchTrace == noBranch {
			newIndex[i] = noBranch
			unassigned = append(unassigned, c.Hash)
			continue
		}
		newIndex[i] = len(filtered)
		filtered = append(filtered, c)
	}
	return filtered, newIndex, unassigned
}

// remapRanges rewrites every branch's RangeStart/RangeEnd through newIndex,
// scanning forward (start) or backward (end) to the nearest retained commit
// when the exact boundary commit itself was filtered out.
func remapRanges(commits []CommitInfo, branches []BranchInfo, newIndex []int) {
	for i := range branches {
		b := &branches[i]
		if b.RangeStart != noBranch {
			b.RangeStart = scanForward(newIndex, b.RangeStart)
		}
		if b.RangeEnd != noBranch {
			b.RangeEnd = scanBackward(newIndex, b.RangeEnd)
		}
	}
}

func scanForward(newIndex []int, from int) int {
	for i := from; i < len(newIndex); i++ {
		if newIndex[i] != noBranch {
			return newIndex[i]
		}
	}
	return noBranch
}

func scanBackward(newIndex []int, from int) int {
	for i := from; i >= 0; i-- {
		if newIndex[i] != noBranch {
			return newIndex[i]
		}
	}
	return noBranch
}
