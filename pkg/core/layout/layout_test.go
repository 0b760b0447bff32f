package layout

import (
	"testing"

	"github.com/git-graph/git-graph/pkg/core/graph"
)

func branch(orderGroup, start, end int) graph.BranchInfo {
	return graph.BranchInfo{
		SourceBranch: -1,
		TargetBranch: -1,
		Visual: graph.BranchVis{
			OrderGroup:       orderGroup,
			SourceOrderGroup: -1,
			TargetOrderGroup: -1,
			Column:           -1,
		},
		RangeStart: start,
		RangeEnd:   end,
	}
}

func TestAssignDisjointRangesShareColumn(t *testing.T) {
	// Two branches in the same order group with non-overlapping ranges
	// should pack into the single column 0.
	branches := []graph.BranchInfo{
		branch(0, 0, 2),
		branch(0, 3, 5),
	}
	width := Assign(branches, 1)
	if width != 1 {
		t.Fatalf("expected width 1, got %d", width)
	}
	if branches[0].Visual.Column != 0 || branches[1].Visual.Column != 0 {
		t.Errorf("expected both branches in column 0, got %d and %d", branches[0].Visual.Column, branches[1].Visual.Column)
	}
}

func TestAssignOverlappingRangesSplitColumns(t *testing.T) {
	branches := []graph.BranchInfo{
		branch(0, 0, 5),
		branch(0, 1, 3),
	}
	width := Assign(branches, 1)
	if width != 2 {
		t.Fatalf("expected width 2, got %d", width)
	}
	if branches[0].Visual.Column == branches[1].Visual.Column {
		t.Errorf("expected distinct columns, both got %d", branches[0].Visual.Column)
	}
}

func TestAssignGroupsGetDisjointColumnBands(t *testing.T) {
	branches := []graph.BranchInfo{
		branch(0, 0, 2),
		branch(1, 0, 2),
	}
	width := Assign(branches, 2)
	if width != 2 {
		t.Fatalf("expected width 2, got %d", width)
	}
	if branches[0].Visual.Column == branches[1].Visual.Column {
		t.Errorf("expected branches in different order groups to land in different global columns")
	}
}
