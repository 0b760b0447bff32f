// Package svg renders an assigned, column-packed commit graph as a fixed
// grid SVG document: lanes become line and path elements, commit markers
// circles, and the formatted commit text becomes text elements using the
// model's SVG color palette.
package svg

import (
	"bytes"
	"fmt"

	"github.com/git-graph/git-graph/pkg/core/format"
	"github.com/git-graph/git-graph/pkg/core/graph"
	"github.com/git-graph/git-graph/pkg/core/layout"
)

// cellSize is the pixel pitch of the commit grid, both axes.
const cellSize = 15.0

// Options configures an SVG render pass.
type Options struct {
	Format format.Spec
	// Debug additionally draws each branch's commit range as a thick
	// highlight line under its lane.
	Debug bool
}

// Render produces a complete SVG document for g.
func Render(g *graph.Graph, opts Options) ([]byte, error) {
	var body bytes.Buffer

	maxColumn := 0

	if opts.Debug {
		for i := range g.AllBranches {
			b := &g.AllBranches[i]
			if !b.HasRange() || b.Visual.Column < 0 {
				continue
			}
			writeLine(&body, b.RangeStart, b.Visual.Column, b.RangeEnd, b.Visual.Column, "cyan", 5)
		}
	}

	for idx := range g.Commits {
		info := &g.Commits[idx]
		if info.BranchTrace < 0 {
			continue
		}
		branch := &g.AllBranches[info.BranchTrace]
		branchColor := branch.Visual.SVGColor
		if branch.Visual.Column > maxColumn {
			maxColumn = branch.Visual.Column
		}

		for p := 0; p < 2 && p < len(info.Parents); p++ {
			parIdx, ok := g.Index[info.Parents[p]]
			if !ok {
				continue
			}
			parInfo := &g.Commits[parIdx]
			if parInfo.BranchTrace < 0 {
				continue
			}
			parBranch := &g.AllBranches[parInfo.BranchTrace]

			color := branchColor
			if info.IsMerge {
				color = parBranch.Visual.SVGColor
			}

			if branch.Visual.Column == parBranch.Visual.Column {
				writeLine(&body, idx, branch.Visual.Column, parIdx, parBranch.Visual.Column, color, 1)
			} else {
				splitIdx := layout.DeviateIndex(g.Commits, g.AllBranches, g.Index, idx, parIdx, info.IsMerge)
				writePath(&body, idx, branch.Visual.Column, parIdx, parBranch.Visual.Column, splitIdx, color)
			}
		}

		writeDot(&body, idx, branch.Visual.Column, branchColor, !info.IsMerge)
	}

	textX := cellSize * float64(maxColumn+2)
	for idx := range g.Commits {
		info := &g.Commits[idx]
		if info.BranchTrace < 0 {
			continue
		}
		if err := writeText(&body, g, idx, textX, opts.Format); err != nil {
			return nil, err
		}
	}

	xMax, yMax := commitCoord(len(g.Commits)+1, maxColumn+1)
	xMax += 40 * cellSize // room for the text column

	var doc bytes.Buffer
	fmt.Fprintf(&doc, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %s %s" width="%s" height="%s">`+"\n",
		num(xMax), num(yMax), num(xMax), num(yMax))
	doc.Write(body.Bytes())
	doc.WriteString("</svg>\n")
	return doc.Bytes(), nil
}

// num formats a coordinate without a trailing ".0" for round values, to keep
// the document compact.
func num(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.1f", v)
}

func commitCoord(index, column int) (float64, float64) {
	return cellSize * float64(column+1), cellSize * float64(index+1)
}

func writeDot(buf *bytes.Buffer, index, column int, color string, filled bool) {
	x, y := commitCoord(index, column)
	fill := color
	if !filled {
		fill = "white"
	}
	fmt.Fprintf(buf, `<circle cx="%s" cy="%s" r="4" fill="%s" stroke="%s" stroke-width="1"/>`+"\n",
		num(x), num(y), fill, color)
}

func writeLine(buf *bytes.Buffer, index1, column1, index2, column2 int, color string, width int) {
	x1, y1 := commitCoord(index1, column1)
	x2, y2 := commitCoord(index2, column2)
	fmt.Fprintf(buf, `<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s" stroke-width="%d"/>`+"\n",
		num(x1), num(y1), num(x2), num(y2), color, width)
}

// writePath draws a cross-column connector: vertical to the turn row, two
// quadratic curves through the bend, vertical to the parent.
func writePath(buf *bytes.Buffer, index1, column1, index2, column2, splitIdx int, color string) {
	x0, y0 := commitCoord(index1, column1)
	x1, y1 := commitCoord(splitIdx, column1)
	x2, y2 := commitCoord(splitIdx+1, column2)
	x3, y3 := commitCoord(index2, column2)

	mx, my := 0.5*(x1+x2), 0.5*(y1+y2)

	fmt.Fprintf(buf,
		`<path d="M%s,%s L%s,%s Q%s,%s %s,%s Q%s,%s %s,%s L%s,%s" fill="none" stroke="%s" stroke-width="1"/>`+"\n",
		num(x0), num(y0),
		num(x1), num(y1),
		num(x1), num(my), num(mx), num(my),
		num(x2), num(my), num(x2), num(y2),
		num(x3), num(y3),
		color)
}

func writeText(buf *bytes.Buffer, g *graph.Graph, idx int, x float64, spec format.Spec) error {
	info := &g.Commits[idx]
	parents := make([]string, len(info.Parents))
	for i, p := range info.Parents {
		parents[i] = p.String()
	}
	c := format.Commit{
		Hash:         info.Hash.String(),
		ParentHashes: parents,
		Author:       format.Person{Name: info.Author.Name, Email: info.Author.Email, When: info.Author.When},
		Committer:    format.Person{Name: info.Committer.Name, Email: info.Committer.Email, When: info.Committer.When},
		Summary:      info.Summary,
		Body:         info.Body,
		Refs:         refsPlain(g, info),
	}
	lines, err := format.Format(c, spec, nil, nil)
	if err != nil {
		lines = []string{info.Hash.String() + " " + info.Summary}
	}
	if len(lines) == 0 {
		return nil
	}

	color := g.AllBranches[info.BranchTrace].Visual.SVGColor
	_, y := commitCoord(idx, 0)
	fmt.Fprintf(buf, `<text x="%s" y="%s" font-family="monospace" font-size="10" fill="%s">%s</text>`+"\n",
		num(x), num(y+3), color, escape(lines[0]))
	return nil
}

// refsPlain builds the uncolored decoration string for the text column.
func refsPlain(g *graph.Graph, info *graph.CommitInfo) string {
	var out string
	if len(info.Branches) > 0 {
		out += " ("
		for i, br := range info.Branches {
			if i > 0 {
				out += ", "
			}
			out += g.AllBranches[br].Name
		}
		out += ")"
	}
	if len(info.Tags) > 0 {
		out += " ["
		for i, tg := range info.Tags {
			if i > 0 {
				out += ", "
			}
			name := g.AllBranches[tg].Name
			if len(name) > 5 {
				name = name[5:]
			}
			out += name
		}
		out += "]"
	}
	return out
}

func escape(s string) string {
	var buf bytes.Buffer
	for _, r := range s {
		switch r {
		case '&':
			buf.WriteString("&amp;")
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		default:
			buf.WriteRune(r)
		}
	}
	return buf.String()
}
