// Package format turns a commit into display text: a preset
// (oneline/short/medium/full) or a template string built from git-style
// placeholders and modifiers. It knows nothing about
// Git object stores or grids; callers supply a plain Commit and get back
// the wrapped lines to place next to a grid row.
package format

import (
	"fmt"
	"strings"
	"time"

	gerrors "github.com/git-graph/git-graph/pkg/errors"
)

// Person is a commit's author or committer identity.
type Person struct {
	Name  string
	Email string
	When  time.Time
}

// Commit is the plain record the formatter consumes. Refs is the
// already-rendered decoration string (e.g. "HEAD -> master, tag: v1.0"),
// computed by the caller from the graph's branch/tag assignment.
type Commit struct {
	Hash         string
	ParentHashes []string
	Author       Person
	Committer    Person
	Summary      string
	Body         string
	Refs         string
}

// Preset names a built-in format; PresetTemplate means Spec.Template holds
// a placeholder string instead.
type Preset int

const (
	PresetOneLine Preset = iota
	PresetShort
	PresetMedium
	PresetFull
	PresetTemplate
)

// Spec is a resolved --format value.
type Spec struct {
	Preset   Preset
	Template string
}

// ParseSpec resolves a --format argument, accepting the preset names and
// their first-letter abbreviations; anything else is a template.
func ParseSpec(s string) Spec {
	switch s {
	case "oneline", "o":
		return Spec{Preset: PresetOneLine}
	case "short", "s":
		return Spec{Preset: PresetShort}
	case "medium", "m":
		return Spec{Preset: PresetMedium}
	case "full", "f":
		return Spec{Preset: PresetFull}
	default:
		return Spec{Preset: PresetTemplate, Template: s}
	}
}

// Wrap controls text wrapping: lines longer than Width are broken on word
// boundaries, with Indent1 prefixing the first physical line and Indent2
// every continuation line of the same logical line. Width <= 0 disables
// wrapping entirely.
type Wrap struct {
	Width           int
	Indent1, Indent2 string
}

const (
	fullDateLayout  = "Mon Jan 2 15:04:05 2006 -0700"
	shortDateLayout = "2006-01-02"
)

// Format renders commit per spec, returning the (possibly wrapped) display
// lines. colorHash, if non-nil, styles a hash string before it is written
// (the terminal renderer passes the branch's color; the SVG renderer
// passes nil).
func Format(c Commit, spec Spec, wrap *Wrap, colorHash func(string) string) ([]string, error) {
	switch spec.Preset {
	case PresetOneLine:
		return formatOneline(c, wrap, colorHash), nil
	case PresetTemplate:
		return formatTemplate(spec.Template, c, wrap, colorHash)
	default:
		return formatPreset(c, spec.Preset, wrap, colorHash), nil
	}
}

// Validate reports whether spec's template (if any) is well-formed, without
// needing a real commit. The CLI calls this eagerly so a bad --format fails
// fast with ErrCodeBadFormatSpec instead of surfacing the
// error only once rendering begins.
func Validate(spec Spec) error {
	if spec.Preset != PresetTemplate {
		return nil
	}
	_, err := formatTemplate(spec.Template, Commit{}, nil, nil)
	return err
}

func short(hash string) string {
	if len(hash) < 7 {
		return hash
	}
	return hash[:7]
}

func shortJoin(hashes []string) string {
	out := make([]string, len(hashes))
	for i, h := range hashes {
		out[i] = short(h)
	}
	return strings.Join(out, " ")
}

func formatOneline(c Commit, wrap *Wrap, colorHash func(string) string) []string {
	hash := short(c.Hash)
	if colorHash != nil {
		hash = colorHash(hash)
	}
	line := hash + c.Refs + " " + c.Summary
	if wrap == nil || wrap.Width <= 0 {
		return []string{line}
	}
	return wrapText(line, wrap.Width, wrap.Indent1, wrap.Indent2)
}

// formatPreset renders the `git log`-style short/medium/full presets: a
// header block (commit/Merge/Author/[Commit]/[Date], gated by preset) then
// a blank line and the indented commit message.
func formatPreset(c Commit, preset Preset, wrap *Wrap, colorHash func(string) string) []string {
	var out []string

	hash := c.Hash
	if colorHash != nil {
		hash = colorHash(hash)
	}
	appendWrapped(&out, "commit "+hash+c.Refs, wrap)

	if len(c.ParentHashes) > 1 {
		appendWrapped(&out, fmt.Sprintf("Merge: %s %s", short(c.ParentHashes[0]), short(c.ParentHashes[1])), wrap)
	}
	appendWrapped(&out, fmt.Sprintf("Author: %s <%s>", c.Author.Name, c.Author.Email), wrap)
	if preset > PresetMedium {
		appendWrapped(&out, fmt.Sprintf("Commit: %s <%s>", c.Committer.Name, c.Committer.Email), wrap)
	}
	if preset > PresetShort {
		appendWrapped(&out, "Date:   "+c.Author.When.Format(fullDateLayout), wrap)
	}

	out = append(out, "")
	if preset == PresetShort {
		appendWrapped(&out, "    "+c.Summary, wrap)
		out = append(out, "")
		return out
	}

	lines := []string{c.Summary}
	if c.Body != "" {
		lines = append(lines, "")
		lines = append(lines, strings.Split(c.Body, "\n")...)
	}
	trailingBlank := true
	for _, line := range lines {
		if line == "" {
			out = append(out, line)
		} else {
			appendWrapped(&out, "    "+line, wrap)
		}
		trailingBlank = strings.TrimSpace(line) == ""
	}
	if !trailingBlank {
		out = append(out, "")
	}
	return out
}

// placeholderNames lists every recognized template placeholder, matched
// greedily against the text right after '%' (and an optional mode char).
var placeholderNames = []string{"an", "ae", "ad", "as", "cn", "ce", "cd", "cs", "n", "H", "h", "P", "p", "d", "s", "b", "B"}

// matchPlaceholder tries to parse a placeholder token at the start of s
// (which must begin with '%'). ok is true on a full match. When ok is
// false but attempted is true, s looked like a placeholder (a letter
// immediately follows '%' or its mode char) but named nothing recognized -
// that is a format-spec error, not literal text.
func matchPlaceholder(s string) (name string, mode byte, tokenLen int, ok bool, attempted bool) {
	if len(s) < 2 || s[0] != '%' {
		return "", 0, 0, false, false
	}
	idx := 1
	switch s[1] {
	case ' ', '+', '-':
		mode = s[1]
		idx = 2
	}
	if idx >= len(s) || !isLetter(s[idx]) {
		return "", 0, 0, false, false
	}
	rest := s[idx:]
	for _, n := range placeholderNames {
		if strings.HasPrefix(rest, n) {
			return n, mode, idx + len(n), true, true
		}
	}
	return "", 0, 0, false, true
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// formatTemplate is the placeholder engine behind a custom --format
// string: %n flushes the current line; %H/%h/%P/%p
// write hashes; %d/%s/%b/%B are "conditional" placeholders whose ' '/'+'/'-'
// modifiers are gated on the value being empty; every other placeholder's
// ' '/'+' modifiers are unconditional and '-' is a no-op.
func formatTemplate(tmpl string, c Commit, wrap *Wrap, colorHash func(string) string) ([]string, error) {
	var lines []string
	var cur strings.Builder

	flush := func() {
		appendWrapped(&lines, cur.String(), wrap)
		cur.Reset()
	}

	i := 0
	for i < len(tmpl) {
		if tmpl[i] != '%' {
			cur.WriteByte(tmpl[i])
			i++
			continue
		}
		if strings.HasPrefix(tmpl[i:], "%%") {
			// "%%" is a literal percent sign.
			cur.WriteByte('%')
			i += 2
			continue
		}
		name, mode, tokenLen, ok, attempted := matchPlaceholder(tmpl[i:])
		if !ok {
			if attempted {
				return nil, gerrors.New(gerrors.ErrCodeBadFormatSpec, "unknown placeholder in format spec %q at position %d", tmpl, i)
			}
			cur.WriteByte(tmpl[i])
			i++
			continue
		}
		i += tokenLen

		if name == "n" {
			flush()
			continue
		}

		value, conditional := placeholderValue(name, c, colorHash)
		applyMode(&lines, &cur, mode, value, conditional, wrap)
	}
	if cur.Len() > 0 {
		flush()
	}
	return lines, nil
}

func placeholderValue(name string, c Commit, colorHash func(string) string) (value string, conditional bool) {
	switch name {
	case "H":
		if colorHash != nil {
			return colorHash(c.Hash), false
		}
		return c.Hash, false
	case "h":
		if colorHash != nil {
			return colorHash(short(c.Hash)), false
		}
		return short(c.Hash), false
	case "P":
		return strings.Join(c.ParentHashes, " "), false
	case "p":
		return shortJoin(c.ParentHashes), false
	case "d":
		return c.Refs, true
	case "s":
		return c.Summary, true
	case "an":
		return c.Author.Name, false
	case "ae":
		return c.Author.Email, false
	case "ad":
		return c.Author.When.Format(fullDateLayout), false
	case "as":
		return c.Author.When.Format(shortDateLayout), false
	case "cn":
		return c.Committer.Name, false
	case "ce":
		return c.Committer.Email, false
	case "cd":
		return c.Committer.When.Format(fullDateLayout), false
	case "cs":
		return c.Committer.When.Format(shortDateLayout), false
	case "b", "B":
		return c.Body, true
	default:
		return "", false
	}
}

// applyMode writes value into cur after acting on mode: ' ' prepends a
// space, '+' flushes cur as a completed line first, '-' strips a trailing
// empty line from lines. For a conditional placeholder, ' ' and '+' only
// fire when value is non-empty, and '-' only fires when it is empty.
func applyMode(lines *[]string, cur *strings.Builder, mode byte, value string, conditional bool, wrap *Wrap) {
	empty := value == ""
	switch mode {
	case ' ':
		if !conditional || !empty {
			cur.WriteByte(' ')
		}
	case '+':
		if !conditional || !empty {
			appendWrapped(lines, cur.String(), wrap)
			cur.Reset()
		}
	case '-':
		if conditional && empty {
			stripTrailingEmpty(lines)
		}
	}

	// A multi-line expansion (the commit body, typically) flushes one
	// output line per embedded newline; renderers pair each returned line
	// with one grid row, so a raw newline must never survive inside one.
	for i, part := range strings.Split(value, "\n") {
		if i > 0 {
			appendWrapped(lines, cur.String(), wrap)
			cur.Reset()
		}
		cur.WriteString(part)
	}
}

func stripTrailingEmpty(lines *[]string) {
	if n := len(*lines); n > 0 && (*lines)[n-1] == "" {
		*lines = (*lines)[:n-1]
	}
}

func appendWrapped(lines *[]string, s string, wrap *Wrap) {
	if s == "" || wrap == nil || wrap.Width <= 0 {
		*lines = append(*lines, s)
		return
	}
	*lines = append(*lines, wrapText(s, wrap.Width, wrap.Indent1, wrap.Indent2)...)
}

// wrapText greedily wraps s on word boundaries to width, prefixing the
// first physical line with indent1 and every continuation line with
// indent2.
func wrapText(s string, width int, indent1, indent2 string) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return []string{s}
	}

	var lines []string
	line := indent1
	atStart := true
	for _, word := range words {
		candidate := word
		if !atStart {
			candidate = line + " " + word
		} else {
			candidate = line + word
		}
		if !atStart && len([]rune(candidate)) > width {
			lines = append(lines, line)
			line = indent2 + word
		} else {
			line = candidate
		}
		atStart = false
	}
	lines = append(lines, line)
	return lines
}
