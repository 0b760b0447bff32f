// Package layout packs branches with a defined commit range into columns
// and provides the single turn-row computation shared by both renderers
// when a cross-column connector needs to bend.
package layout

import (
	"sort"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/git-graph/git-graph/pkg/core/graph"
)

// shortestFirst and forward fix the branch-column packing policy; there is
// no CLI flag to change it.
const (
	shortestFirst = true
	forward       = true
)

// interval is an inclusive commit-index range already occupying a column.
type interval struct{ start, end int }

func overlaps(a, b interval) bool {
	return a.start <= b.end && b.start <= a.end
}

// candidate is one branch's packing key, computed once up front so sorting
// never re-reads branch state.
type candidate struct {
	branchIdx   int
	start, end  int
	sourceGroup int
	targetGroup int
}

// Assign packs every branch in branches that owns a range into a column,
// mutating branches[i].Visual.Column in place, and returns the total column
// count (the grid width). orderGroupCount is the number of distinct order
// groups the active model defines (settings.Order's length); groups beyond
// it (the "no match" sentinel) still get their own packing band.
func Assign(branches []graph.BranchInfo, orderGroupCount int) int {
	numGroups := orderGroupCount + 1
	occupiedByColumn := make([][][]interval, numGroups) // per group, per column, intervals

	var candidates []candidate
	for i, b := range branches {
		if !b.HasRange() {
			continue
		}
		start, end := b.RangeStart, b.RangeEnd
		if start < 0 {
			start = 0
		}
		if end < 0 {
			end = len(branches) - 1
		}
		sourceGroup := b.Visual.SourceOrderGroup
		if sourceGroup < 0 {
			sourceGroup = numGroups
		}
		targetGroup := b.Visual.TargetOrderGroup
		if targetGroup < 0 {
			targetGroup = numGroups
		}
		candidates = append(candidates, candidate{
			branchIdx:   i,
			start:       start,
			end:         end,
			sourceGroup: sourceGroup,
			targetGroup: targetGroup,
		})
	}

	lengthFactor := 1
	if !shortestFirst {
		lengthFactor = -1
	}
	startFactor := 1
	if !forward {
		startFactor = -1
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		ma, mb := max(a.sourceGroup, a.targetGroup), max(b.sourceGroup, b.targetGroup)
		if ma != mb {
			return ma < mb
		}
		la := (a.end - a.start) * lengthFactor
		lb := (b.end - b.start) * lengthFactor
		if la != lb {
			return la < lb
		}
		return a.start*startFactor < b.start*startFactor
	})

	for _, c := range candidates {
		b := &branches[c.branchIdx]
		group := b.Visual.OrderGroup
		if group >= numGroups {
			group = numGroups - 1
		}
		cols := occupiedByColumn[group]

		alignRight := false
		if b.SourceBranch >= 0 && branches[b.SourceBranch].Visual.OrderGroup > group {
			alignRight = true
		}
		if b.TargetBranch >= 0 && branches[b.TargetBranch].Visual.OrderGroup > group {
			alignRight = true
		}

		candidateRange := interval{c.start, c.end}
		found := len(cols)
		for i := 0; i < len(cols); i++ {
			idx := i
			if alignRight {
				idx = len(cols) - i - 1
			}
			if columnOccupied(cols[idx], candidateRange) {
				continue
			}
			if mergeTargetBlocks(branches, b, group, idx) {
				continue
			}
			found = idx
			break
		}

		b.Visual.Column = found
		if found == len(cols) {
			cols = append(cols, nil)
		}
		cols[found] = append(cols[found], candidateRange)
		occupiedByColumn[group] = cols
	}

	width := make([]int, numGroups)
	for g, cols := range occupiedByColumn {
		width[g] = len(cols)
	}
	offset := make([]int, numGroups)
	total := 0
	for g := 0; g < numGroups; g++ {
		offset[g] = total
		total += width[g]
	}

	for i := range branches {
		b := &branches[i]
		if b.Visual.Column < 0 {
			continue
		}
		group := b.Visual.OrderGroup
		if group >= numGroups {
			group = numGroups - 1
		}
		b.Visual.Column += offset[group]
	}

	return total
}

func columnOccupied(existing []interval, candidate interval) bool {
	for _, e := range existing {
		if overlaps(e, candidate) {
			return true
		}
	}
	return false
}

// mergeTargetBlocks guards against handing a branch the same column that a
// same-row merge-target branch already occupies within its own order group,
// even when the raw interval arithmetic would otherwise allow it.
func mergeTargetBlocks(branches []graph.BranchInfo, b *graph.BranchInfo, group, column int) bool {
	if b.TargetBranch < 0 {
		return false
	}
	target := branches[b.TargetBranch]
	if target.Visual.OrderGroup != group {
		return false
	}
	return target.Visual.Column == column
}

// DeviateIndex computes the row at which a cross-column connector between a
// commit at childRow and its parent at parentRow bends. For a merge connector the bend sits at the deepest child of the
// parent that still shares the parent branch's column (or at childRow
// itself if none do); for a plain branch-off it always bends one row above
// the parent. Both renderers call this so the rule is applied identically.
func DeviateIndex(commits []graph.CommitInfo, branches []graph.BranchInfo, index map[plumbing.Hash]int, childRow, parentRow int, isMerge bool) int {
	if !isMerge {
		return parentRow - 1
	}
	parInfo := commits[parentRow]
	if parInfo.BranchTrace < 0 {
		return childRow
	}
	parColumn := branches[parInfo.BranchTrace].Visual.Column
	childHash := commits[childRow].Hash

	minSplit := childRow
	for _, siblingHash := range parInfo.Children {
		if siblingHash == childHash {
			continue
		}
		siblingRow, ok := index[siblingHash]
		if !ok {
			continue
		}
		sibling := commits[siblingRow]
		if sibling.BranchTrace < 0 {
			continue
		}
		if branches[sibling.BranchTrace].Visual.Column == parColumn && siblingRow > minSplit {
			minSplit = siblingRow
		}
	}
	return minSplit
}
