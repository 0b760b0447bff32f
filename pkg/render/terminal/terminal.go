// Package terminal renders an assigned, column-packed commit graph as styled
// text lines: one glyph grid column pair per branch lane, commit markers,
// merge and branch-off connectors, and the formatted commit text to the
// right. Topology is computed first on a plain glyph-index grid; the active
// style's glyph table and the 256-color palette are applied only when the
// grid is serialized to lines.
package terminal

import (
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"

	"github.com/git-graph/git-graph/pkg/core/format"
	"github.com/git-graph/git-graph/pkg/core/graph"
	"github.com/git-graph/git-graph/pkg/core/layout"
	"github.com/git-graph/git-graph/pkg/core/model"
)

// Palette indices with a fixed meaning, independent of the branching model.
const (
	colorWhite uint8 = 7
	colorHead  uint8 = 14
	colorHash  uint8 = 11
)

// WrapMode is the parsed --wrap argument. Auto derives the width from the
// terminal, None disables wrapping, otherwise Width is used directly.
// Indent1 and Indent2 are column counts for first and continuation lines.
type WrapMode struct {
	Auto    bool
	None    bool
	Width   int
	Indent1 int
	Indent2 int
}

// Options configures a terminal render pass.
type Options struct {
	Characters model.Characters
	Colored    bool
	// Compact allows a merge connector to turn on its merge commit's own
	// row; with Compact off (--sparse) every cross-column connector gets a
	// dedicated inserted row next to the line it converges on.
	Compact   bool
	Format    format.Spec
	Wrap      WrapMode
	// TermWidth is the terminal width used by Wrap.Auto, or 0 when the
	// output is not a terminal (auto-wrapping is then disabled).
	TermWidth int
	Logger    *log.Logger
}

// Render produces the output lines for g. The caller is responsible for
// paging and writing them.
func Render(g *graph.Graph, opts Options) ([]string, error) {
	if len(g.Commits) == 0 {
		return nil, nil
	}

	maxColumn := 0
	for _, b := range g.AllBranches {
		if b.Visual.Column > maxColumn {
			maxColumn = b.Visual.Column
		}
	}
	numCells := 2*maxColumn + 1

	paint := newStyler(opts.Colored)
	branchColors := resolveBranchColors(g.AllBranches, opts.Logger)

	headRow := -1
	if row, ok := g.Index[g.Head.Hash]; ok {
		headRow = row
	}

	inserts := getInserts(g, opts.Compact)
	wrap := resolveWrap(opts.Wrap, numCells+4, opts.TermWidth)

	// Lay out text lines against grid rows: each commit's first formatted
	// line sits on its marker row, continuation lines and connector insert
	// rows share the rows below it.
	indexMap := make([]int, len(g.Commits))
	var textLines []string
	offset := 0
	for idx := range g.Commits {
		info := &g.Commits[idx]
		indexMap[idx] = idx + offset

		cntInserts := 0
		for _, lane := range inserts[idx] {
			rangeOnly := true
			for _, o := range lane {
				if o.kind == occCommit {
					rangeOnly = false
					break
				}
			}
			if rangeOnly {
				cntInserts++
			}
		}

		var head *graph.HeadInfo
		if idx == headRow {
			head = &g.Head
		}

		lines, err := formatCommitText(g, info, head, opts, wrap, paint)
		if err != nil {
			// A single commit failing to format falls back to "%H %s".
			lines = []string{info.Hash.String() + " " + info.Summary}
		}

		numLines := 0
		if len(lines) > 0 {
			numLines = len(lines) - 1
		}
		maxInserts := cntInserts
		if numLines > maxInserts {
			maxInserts = numLines
		}

		textLines = append(textLines, lines...)
		for i := numLines; i < maxInserts; i++ {
			textLines = append(textLines, "")
		}
		offset += maxInserts
	}

	maxPers := 0
	for _, b := range g.AllBranches {
		if b.Persistence > maxPers {
			maxPers = b.Persistence
		}
	}
	grid := newGrid(numCells, len(g.Commits)+offset, cell{model.GlyphSpace, colorWhite, maxPers + 2})

	for idx := range g.Commits {
		info := &g.Commits[idx]
		if info.BranchTrace < 0 {
			continue
		}
		branch := &g.AllBranches[info.BranchTrace]
		column := branch.Visual.Column
		row := indexMap[idx]
		branchColor := branchColors[info.BranchTrace]

		marker := model.GlyphDot
		if info.IsMerge {
			marker = model.GlyphCircle
		}
		grid.set(column*2, row, marker, branchColor, branch.Persistence)

		for p := 0; p < 2 && p < len(info.Parents); p++ {
			parIdx, ok := g.Index[info.Parents[p]]
			if !ok {
				continue
			}
			parRow := indexMap[parIdx]
			parInfo := &g.Commits[parIdx]
			if parInfo.BranchTrace < 0 {
				continue
			}
			parBranch := &g.AllBranches[parInfo.BranchTrace]
			parColumn := parBranch.Visual.Column

			color, pers := branchColor, branch.Persistence
			if info.IsMerge {
				color, pers = branchColors[parInfo.BranchTrace], parBranch.Persistence
			}

			if column == parColumn {
				if parRow > row+1 {
					grid.vline(row, parRow, column, color, pers)
				}
				continue
			}

			splitIndex := deviateIndex(g, idx, parIdx)
			splitRow := indexMap[splitIndex]
			for laneIdx, lane := range inserts[splitIndex] {
				for _, o := range lane {
					if o.kind == occRange && o.idx == idx && o.parIdx == parIdx {
						grid.vline(row, splitRow+laneIdx, column, color, pers)
						grid.hline(splitRow+laneIdx, parColumn, column, info.IsMerge && p > 0, color, pers)
						grid.vline(splitRow+laneIdx, parRow, parColumn, color, pers)
					}
				}
			}
		}
	}

	return printGrid(opts.Characters, grid, textLines, opts.Colored, paint), nil
}

// resolveWrap turns the parsed --wrap argument into the formatter's Wrap,
// deriving the width from the terminal for auto mode. graphWidth is the
// space the glyph grid and its padding consume on each line.
func resolveWrap(mode WrapMode, graphWidth, termWidth int) *format.Wrap {
	if mode.None {
		return nil
	}
	width := mode.Width
	if mode.Auto || width <= 0 {
		if termWidth <= 0 {
			return nil
		}
		width = termWidth - graphWidth
		if width < 1 {
			width = 1
		}
	}
	return &format.Wrap{
		Width:   width,
		Indent1: strings.Repeat(" ", mode.Indent1),
		Indent2: strings.Repeat(" ", mode.Indent2),
	}
}

// resolveBranchColors maps every branch's configured color name to its
// palette index once, warning about unknown names and falling back to the
// default color.
func resolveBranchColors(branches []graph.BranchInfo, logger *log.Logger) []uint8 {
	colors := make([]uint8, len(branches))
	for i, b := range branches {
		idx, ok := toTerminalColor(b.Visual.TermColor)
		if !ok {
			if logger != nil && b.Visual.TermColor != "" {
				logger.Warn("unknown terminal color, using default", "color", b.Visual.TermColor, "branch", b.Name)
			}
			idx = colorWhite
		}
		colors[i] = idx
	}
	return colors
}

// styler paints text with a 256-color palette index.
type styler func(color uint8, s string) string

func newStyler(colored bool) styler {
	if !colored {
		return func(_ uint8, s string) string { return s }
	}
	renderer := lipgloss.NewRenderer(io.Discard, termenv.WithProfile(termenv.ANSI256))
	cache := map[uint8]lipgloss.Style{}
	return func(color uint8, s string) string {
		style, ok := cache[color]
		if !ok {
			style = renderer.NewStyle().Foreground(lipgloss.Color(strconv.Itoa(int(color))))
			cache[color] = style
		}
		return style.Render(s)
	}
}

// formatCommitText renders one commit's display lines, decoration included.
func formatCommitText(g *graph.Graph, info *graph.CommitInfo, head *graph.HeadInfo, opts Options, wrap *format.Wrap, paint styler) ([]string, error) {
	parents := make([]string, len(info.Parents))
	for i, p := range info.Parents {
		parents[i] = p.String()
	}
	c := format.Commit{
		Hash:         info.Hash.String(),
		ParentHashes: parents,
		Author: format.Person{
			Name:  info.Author.Name,
			Email: info.Author.Email,
			When:  info.Author.When,
		},
		Committer: format.Person{
			Name:  info.Committer.Name,
			Email: info.Committer.Email,
			When:  info.Committer.When,
		},
		Summary: info.Summary,
		Body:    info.Body,
		Refs:    formatBranches(g, info, head, opts.Colored, paint),
	}

	var hashPainter func(string) string
	if opts.Colored {
		hashPainter = func(s string) string { return paint(colorHash, s) }
	}
	return format.Format(c, opts.Format, wrap, hashPainter)
}

// formatBranches builds the decoration string for a commit: an optional
// "HEAD ->" marker, the branches pointing at it in parentheses, and its tags
// in brackets, each painted in its branch's color when colored.
func formatBranches(g *graph.Graph, info *graph.CommitInfo, head *graph.HeadInfo, colored bool, paint styler) string {
	var sb strings.Builder

	const headStr = "HEAD ->"
	if head != nil && !head.IsBranch {
		sb.WriteByte(' ')
		if colored {
			sb.WriteString(paint(colorHead, headStr))
		} else {
			sb.WriteString(headStr)
		}
	}

	if len(info.Branches) > 0 {
		sb.WriteString(" (")

		// The head branch is listed first.
		branches := make([]int, len(info.Branches))
		copy(branches, info.Branches)
		if head != nil {
			for i, br := range branches {
				if g.AllBranches[br].Name == head.Name {
					branches[0], branches[i] = branches[i], branches[0]
					break
				}
			}
		}

		for i, br := range branches {
			branch := &g.AllBranches[br]
			if i == 0 && head != nil && head.IsBranch {
				if colored {
					sb.WriteString(paint(colorHead, headStr))
				} else {
					sb.WriteString(headStr)
				}
				sb.WriteByte(' ')
			}
			name := branch.Name
			if colored {
				color, ok := toTerminalColor(branch.Visual.TermColor)
				if !ok {
					color = colorWhite
				}
				sb.WriteString(paint(color, name))
			} else {
				sb.WriteString(name)
			}
			if i < len(branches)-1 {
				sb.WriteString(", ")
			}
		}
		sb.WriteByte(')')
	}

	if len(info.Tags) > 0 {
		curColor := colorWhite
		if info.BranchTrace >= 0 {
			if c, ok := toTerminalColor(g.AllBranches[info.BranchTrace].Visual.TermColor); ok {
				curColor = c
			}
		}
		sb.WriteString(" [")
		for i, tg := range info.Tags {
			name := strings.TrimPrefix(g.AllBranches[tg].Name, "tags/")
			if colored {
				sb.WriteString(paint(curColor, name))
			} else {
				sb.WriteString(name)
			}
			if i < len(info.Tags)-1 {
				sb.WriteString(", ")
			}
		}
		sb.WriteByte(']')
	}

	return sb.String()
}

// deviateIndex is the shared turn-row rule; see layout.DeviateIndex.
func deviateIndex(g *graph.Graph, childRow, parentRow int) int {
	return layout.DeviateIndex(g.Commits, g.AllBranches, g.Index, childRow, parentRow, g.Commits[childRow].IsMerge)
}

// occ marks one occupied span of an insert lane: either a commit marker at a
// single column, or a connector's column range between a commit and one of
// its parents.
type occKind int

const (
	occCommit occKind = iota
	occRange
)

type occ struct {
	kind       occKind
	idx        int // commit row owning this occupation
	parIdx     int // parent row, for occRange
	start, end int // inclusive column range (start == end for occCommit)
}

func (o occ) overlaps(start, end int) bool {
	return o.start <= end && o.end >= start
}

// getInserts allocates, for every connector that has to cross columns, a
// sub-lane of the row it turns on, so concurrent connectors never overdraw
// each other. Lane 0 of each row holds the row's own commit marker; a
// connector may share it only in compact mode, when it is the merge
// connector of that very commit.
func getInserts(g *graph.Graph, compact bool) map[int][][]occ {
	inserts := make(map[int][][]occ, len(g.Commits))

	for idx := range g.Commits {
		info := &g.Commits[idx]
		if info.BranchTrace < 0 {
			continue
		}
		column := g.AllBranches[info.BranchTrace].Visual.Column
		inserts[idx] = [][]occ{{{kind: occCommit, idx: idx, start: column, end: column}}}
	}

	for idx := range g.Commits {
		info := &g.Commits[idx]
		if info.BranchTrace < 0 {
			continue
		}
		column := g.AllBranches[info.BranchTrace].Visual.Column

		for p := 0; p < 2 && p < len(info.Parents); p++ {
			parIdx, ok := g.Index[info.Parents[p]]
			if !ok {
				continue
			}
			parInfo := &g.Commits[parIdx]
			if parInfo.BranchTrace < 0 {
				continue
			}
			parColumn := g.AllBranches[parInfo.BranchTrace].Visual.Column
			if column == parColumn {
				continue
			}
			start, end := column, parColumn
			if start > end {
				start, end = end, start
			}

			splitIndex := deviateIndex(g, idx, parIdx)
			lanes := inserts[splitIndex]

			insertAt := len(lanes)
			for laneIdx, lane := range lanes {
				blocked := false
				for _, other := range lane {
					if !other.overlaps(start, end) {
						continue
					}
					switch other.kind {
					case occCommit:
						if !compact || !info.IsMerge || idx != other.idx || p == 0 {
							blocked = true
						}
					case occRange:
						if idx != other.idx && parIdx != other.parIdx {
							blocked = true
						}
					}
					if blocked {
						break
					}
				}
				if !blocked {
					insertAt = laneIdx
					break
				}
			}

			entry := occ{kind: occRange, idx: idx, parIdx: parIdx, start: start, end: end}
			if insertAt == len(lanes) {
				lanes = append(lanes, []occ{entry})
			} else {
				lanes[insertAt] = append(lanes[insertAt], entry)
			}
			inserts[splitIndex] = lanes
		}
	}

	return inserts
}

// cell is one grid position: a glyph index into the style's table, a palette
// color, and the persistence of the branch that drew it. More persistent
// branches overwrite the color of crossings drawn by less persistent ones.
type cell struct {
	ch    int
	color uint8
	pers  int
}

type gridT struct {
	width, height int
	data          []cell
}

func newGrid(width, height int, initial cell) *gridT {
	data := make([]cell, width*height)
	for i := range data {
		data[i] = initial
	}
	return &gridT{width: width, height: height, data: data}
}

func (g *gridT) at(x, y int) *cell { return &g.data[y*g.width+x] }

func (g *gridT) set(x, y, ch int, color uint8, pers int) {
	*g.at(x, y) = cell{ch: ch, color: color, pers: pers}
}

// setKeep writes the glyph (when ch >= 0) and, only when takeColor is set,
// the color and persistence.
func (g *gridT) setKeep(x, y, ch int, takeColor bool, color uint8, pers int) {
	c := g.at(x, y)
	if ch >= 0 {
		c.ch = ch
	}
	if takeColor {
		c.color = color
		c.pers = pers
	}
}

// vline draws a vertical lane segment in rows (from, to) exclusive,
// merging with whatever glyphs are already present.
func (g *gridT) vline(from, to, column int, color uint8, pers int) {
	x := column * 2
	for y := from + 1; y < to; y++ {
		c := g.at(x, y)
		take := pers < c.pers
		switch c.ch {
		case model.GlyphDot, model.GlyphCircle:
		case model.GlyphHor, model.GlyphHorU, model.GlyphHorD:
			g.setKeep(x, y, model.GlyphCross, true, color, pers)
		case model.GlyphCross, model.GlyphVer, model.GlyphVerL, model.GlyphVerR:
			g.setKeep(x, y, -1, take, color, pers)
		case model.GlyphLD, model.GlyphLU:
			g.setKeep(x, y, model.GlyphVerL, take, color, pers)
		case model.GlyphRD, model.GlyphRU:
			g.setKeep(x, y, model.GlyphVerR, take, color, pers)
		default:
			g.setKeep(x, y, model.GlyphVer, take, color, pers)
		}
	}
}

// hline draws the horizontal part of a connector on row y between the cell
// columns of from and to, with corner glyphs at both ends and an arrow head
// on the target side of a merge.
func (g *gridT) hline(y, from, to int, merge bool, color uint8, pers int) {
	if from == to {
		return
	}
	from2, to2 := from*2, to*2

	if from < to {
		for x := from2 + 1; x < to2; x++ {
			if merge && x == to2-1 {
				g.set(x, y, model.GlyphArrR, color, pers)
				continue
			}
			c := g.at(x, y)
			take := pers < c.pers
			switch c.ch {
			case model.GlyphDot, model.GlyphCircle:
			case model.GlyphVer:
				g.setKeep(x, y, model.GlyphCross, false, color, pers)
			case model.GlyphHor, model.GlyphCross, model.GlyphHorU, model.GlyphHorD:
				g.setKeep(x, y, -1, take, color, pers)
			case model.GlyphLU, model.GlyphRU:
				g.setKeep(x, y, model.GlyphHorU, take, color, pers)
			case model.GlyphLD, model.GlyphRD:
				g.setKeep(x, y, model.GlyphHorD, take, color, pers)
			default:
				g.setKeep(x, y, model.GlyphHor, take, color, pers)
			}
		}

		left := g.at(from2, y)
		take := pers < left.pers
		switch left.ch {
		case model.GlyphDot, model.GlyphCircle:
		case model.GlyphVer:
			g.setKeep(from2, y, model.GlyphVerR, take, color, pers)
		case model.GlyphVerL:
			g.setKeep(from2, y, model.GlyphCross, false, color, pers)
		case model.GlyphVerR:
		case model.GlyphHor, model.GlyphLU:
			g.setKeep(from2, y, model.GlyphHorU, take, color, pers)
		default:
			g.setKeep(from2, y, model.GlyphRD, take, color, pers)
		}

		right := g.at(to2, y)
		take = pers < right.pers
		switch right.ch {
		case model.GlyphDot, model.GlyphCircle:
		case model.GlyphVer:
			g.setKeep(to2, y, model.GlyphVerL, false, color, pers)
		case model.GlyphVerL, model.GlyphHorU:
			g.setKeep(to2, y, -1, take, color, pers)
		case model.GlyphHor, model.GlyphRU:
			g.setKeep(to2, y, model.GlyphHorU, take, color, pers)
		default:
			g.setKeep(to2, y, model.GlyphLU, take, color, pers)
		}
	} else {
		for x := to2 + 1; x < from2; x++ {
			if merge && x == to2+1 {
				g.set(x, y, model.GlyphArrL, color, pers)
				continue
			}
			c := g.at(x, y)
			take := pers < c.pers
			switch c.ch {
			case model.GlyphDot, model.GlyphCircle:
			case model.GlyphVer:
				g.setKeep(x, y, model.GlyphCross, false, color, pers)
			case model.GlyphHor, model.GlyphCross, model.GlyphHorU, model.GlyphHorD:
				g.setKeep(x, y, -1, take, color, pers)
			case model.GlyphLU, model.GlyphRU:
				g.setKeep(x, y, model.GlyphHorU, take, color, pers)
			case model.GlyphLD, model.GlyphRD:
				g.setKeep(x, y, model.GlyphHorD, take, color, pers)
			default:
				g.setKeep(x, y, model.GlyphHor, take, color, pers)
			}
		}

		left := g.at(to2, y)
		take := pers < left.pers
		switch left.ch {
		case model.GlyphDot, model.GlyphCircle:
		case model.GlyphVer:
			g.setKeep(to2, y, model.GlyphVerR, false, color, pers)
		case model.GlyphVerR:
			g.setKeep(to2, y, -1, take, color, pers)
		case model.GlyphHor, model.GlyphLU:
			g.setKeep(to2, y, model.GlyphHorU, take, color, pers)
		default:
			g.setKeep(to2, y, model.GlyphRU, take, color, pers)
		}

		right := g.at(from2, y)
		take = pers < right.pers
		switch right.ch {
		case model.GlyphDot, model.GlyphCircle:
		case model.GlyphVer:
			g.setKeep(from2, y, model.GlyphVerL, take, color, pers)
		case model.GlyphVerR:
			g.setKeep(from2, y, model.GlyphCross, false, color, pers)
		case model.GlyphVerL:
			g.setKeep(from2, y, -1, take, color, pers)
		case model.GlyphHor, model.GlyphRD:
			g.setKeep(from2, y, model.GlyphHorD, take, color, pers)
		default:
			g.setKeep(from2, y, model.GlyphLD, take, color, pers)
		}
	}
}

// printGrid serializes the grid and the per-row text into output lines.
func printGrid(chars model.Characters, grid *gridT, textLines []string, colored bool, paint styler) []string {
	lines := make([]string, 0, grid.height)
	for row := 0; row < grid.height; row++ {
		var sb strings.Builder
		for x := 0; x < grid.width; x++ {
			c := grid.at(x, row)
			glyph := string(chars.Glyph(c.ch))
			if colored && c.ch != model.GlyphSpace {
				sb.WriteString(paint(c.color, glyph))
			} else {
				sb.WriteString(glyph)
			}
		}
		if row < len(textLines) && textLines[row] != "" {
			sb.WriteByte(' ')
			sb.WriteString(textLines[row])
		}
		lines = append(lines, sb.String())
	}
	return lines
}
