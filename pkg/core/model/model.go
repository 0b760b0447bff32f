// Package model holds the user-supplied branch classification used by the
// rest of the pipeline: which refs are persistent, which column band they
// sit in, and which colors they render with.
package model

import (
	"fmt"
	"regexp"
	"strings"

	gerrors "github.com/git-graph/git-graph/pkg/errors"
)

// ColorMatch pairs a regex pattern with the cyclic color list used when it matches.
type ColorMatch struct {
	Pattern string   `toml:"pattern"`
	Colors  []string `toml:"colors"`
}

// ColorSet is the ordered match list plus a fallback cycle for unmatched branches.
type ColorSet struct {
	Matches []ColorMatch `toml:"matches"`
	Unknown []string     `toml:"unknown"`
}

// Definition is the TOML-serializable form of a branching model. It exists
// separately from Settings because regexp.Regexp does not round-trip through
// TOML; Compile turns a Definition into a Settings.
type Definition struct {
	Persistence   []string `toml:"persistence"`
	Order         []string `toml:"order"`
	TerminalColors ColorSet `toml:"terminal_colors"`
	SVGColors      ColorSet `toml:"svg_colors"`
	IncludeRemote  bool     `toml:"include_remote"`
}

// compiledColor is a ColorMatch with its pattern compiled.
type compiledColor struct {
	re     *regexp.Regexp
	colors []string
}

// Settings is the compiled, ready-to-use form of a Definition.
type Settings struct {
	Persistence []*regexp.Regexp
	Order       []*regexp.Regexp

	terminalColors  []compiledColor
	terminalUnknown []string
	svgColors       []compiledColor
	svgUnknown      []string

	IncludeRemote bool

	// counters track per-pattern cyclic color assignment, and a single
	// counter for the unknown fallback cycle. Stored on Settings so a
	// single model instance produces deterministic, stable assignment
	// across a whole discovery pass as long as branches are visited in a
	// stable order.
	termCounters map[int]int
	termUnknownN int
	svgCounters  map[int]int
	svgUnknownN  int
}

// Compile validates every regex in def and returns a ready-to-use Settings.
// An invalid pattern fails with InvalidModel, naming the offending pattern.
func Compile(def Definition) (*Settings, error) {
	s := &Settings{
		IncludeRemote: def.IncludeRemote,
		termCounters:  map[int]int{},
		svgCounters:   map[int]int{},
	}

	var err error
	if s.Persistence, err = compileList(def.Persistence); err != nil {
		return nil, err
	}
	if s.Order, err = compileList(def.Order); err != nil {
		return nil, err
	}
	if s.terminalColors, err = compileColorSet(def.TerminalColors); err != nil {
		return nil, err
	}
	s.terminalUnknown = def.TerminalColors.Unknown
	if s.svgColors, err = compileColorSet(def.SVGColors); err != nil {
		return nil, err
	}
	s.svgUnknown = def.SVGColors.Unknown

	return s, nil
}

func compileList(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, gerrors.Wrap(gerrors.ErrCodeInvalidModel, err, "invalid pattern %q", p)
		}
		out = append(out, re)
	}
	return out, nil
}

func compileColorSet(cs ColorSet) ([]compiledColor, error) {
	out := make([]compiledColor, 0, len(cs.Matches))
	for _, m := range cs.Matches {
		re, err := regexp.Compile(m.Pattern)
		if err != nil {
			return nil, gerrors.Wrap(gerrors.ErrCodeInvalidModel, err, "invalid color pattern %q", m.Pattern)
		}
		out = append(out, compiledColor{re: re, colors: m.Colors})
	}
	return out, nil
}

// MatchIndex returns the zero-based index of the first pattern in list that
// matches name, or len(list) if none match. This is the "first match wins"
// contract shared by persistence and order classification.
func MatchIndex(list []*regexp.Regexp, name string) int {
	for i, re := range list {
		if re.MatchString(name) {
			return i
		}
	}
	return len(list)
}

// PersistenceIndex returns the persistence rank of name: lower is more persistent.
// fork/-prefixed inferred self-merge branches never participate in
// persistence matching; they are classified by order and colors only.
func (s *Settings) PersistenceIndex(name string) int {
	if strings.HasPrefix(name, "fork/") {
		return len(s.Persistence)
	}
	return MatchIndex(s.Persistence, name)
}

// OrderGroup returns the order-group (left-to-right column band) of name.
func (s *Settings) OrderGroup(name string) int {
	return MatchIndex(s.Order, name)
}

// TerminalColor returns the next color in the cyclic assignment for name's
// matching terminal-color pattern, or the next unknown-cycle color if no
// pattern matches.
func (s *Settings) TerminalColor(name string) string {
	return assign(s.terminalColors, s.terminalUnknown, name, s.termCounters, &s.termUnknownN)
}

// SVGColor is the SVG-palette equivalent of TerminalColor.
func (s *Settings) SVGColor(name string) string {
	return assign(s.svgColors, s.svgUnknown, name, s.svgCounters, &s.svgUnknownN)
}

func assign(set []compiledColor, unknown []string, name string, counters map[int]int, unknownN *int) string {
	for i, cc := range set {
		if cc.re.MatchString(name) {
			if len(cc.colors) == 0 {
				return ""
			}
			idx := counters[i] % len(cc.colors)
			counters[i]++
			return cc.colors[idx]
		}
	}
	if len(unknown) == 0 {
		return ""
	}
	idx := *unknownN % len(unknown)
	*unknownN++
	return unknown[idx]
}

// Characters is a style's fixed glyph table, indexed by the named byte
// constants below. It is purely a lookup table: grid topology never depends
// on which Characters is active.
type Characters struct {
	glyphs [16]rune
}

// Glyph indices into Characters.glyphs, the fixed 16-character table layout
// shared by every style.
const (
	GlyphSpace = iota
	GlyphDot
	GlyphCircle
	GlyphVer
	GlyphHor
	GlyphCross
	GlyphRU
	GlyphRD
	GlyphLD
	GlyphLU
	GlyphVerL
	GlyphVerR
	GlyphHorU
	GlyphHorD
	GlyphArrL
	GlyphArrR
)

// Glyph returns the rune for the given glyph index.
func (c Characters) Glyph(idx int) rune {
	return c.glyphs[idx]
}

func newCharacters(s string) Characters {
	var c Characters
	i := 0
	for _, r := range s {
		if i >= len(c.glyphs) {
			break
		}
		c.glyphs[i] = r
		i++
	}
	return c
}

// CharactersThin is the default style with thin box-drawing lines.
func CharactersThin() Characters { return newCharacters(" ●○│─┼└┌┐┘┤├┴┬<>") }

// CharactersRound uses rounded corner glyphs.
func CharactersRound() Characters { return newCharacters(" ●○│─┼╰╭╮╯┤├┴┬<>") }

// CharactersBold uses heavy box-drawing lines.
func CharactersBold() Characters { return newCharacters(" ●○┃━╋┗┏┓┛┫┣┻┳<>") }

// CharactersDouble uses double box-drawing lines.
func CharactersDouble() Characters { return newCharacters(" ●○║═╬╚╔╗╝╣╠╩╦<>") }

// CharactersASCII uses only plain ASCII characters.
func CharactersASCII() Characters { return newCharacters(" *o|-+'..'||++<>") }

// ParseStyle resolves a style name (including first-letter abbreviations) to
// its Characters table.
func ParseStyle(name string) (Characters, error) {
	switch name {
	case "normal", "thin", "n", "t", "":
		return CharactersThin(), nil
	case "round", "r":
		return CharactersRound(), nil
	case "bold", "b":
		return CharactersBold(), nil
	case "double", "d":
		return CharactersDouble(), nil
	case "ascii", "a":
		return CharactersASCII(), nil
	default:
		return Characters{}, gerrors.New(gerrors.ErrCodeBadArgument,
			"unknown style %q, must be one of [normal|thin, round, bold, double, ascii]", name)
	}
}

// MergePatterns holds the ordered regexes used to recover a branch name from
// a merge commit's summary line. Order matters: first match wins.
type MergePatterns struct {
	patterns []*regexp.Regexp
}

// DefaultMergePatterns returns the built-in merge-summary patterns, in the
// order they are tried.
func DefaultMergePatterns() MergePatterns {
	raw := []string{
		`^Merge branch '(.+)' into '.+'$`,           // GitLab pull request
		`^Merge branch '(.+)' into .+$`,              // Git default
		`^Merge branch '(.+)'$`,                       // Git default into main branch
		`^Merge pull request #[0-9]+ from .[^/]+/(.+)$`, // GitHub pull request
		`^Merge branch '(.+)' of .+$`,                 // GitHub pull request (from fork)
		`^Merged in (.+) \(pull request #[0-9]+\)$`,   // BitBucket pull request
	}
	out := make([]*regexp.Regexp, len(raw))
	for i, p := range raw {
		out[i] = regexp.MustCompile(p)
	}
	return MergePatterns{patterns: out}
}

// ParseBranchName extracts a branch name from a merge-commit summary, trying
// each pattern in order. Returns ok=false if nothing matched; a summary no
// pattern recognizes is not an error, just not a merge worth inferring from.
func (m MergePatterns) ParseBranchName(summary string) (name string, ok bool) {
	for _, re := range m.patterns {
		if g := re.FindStringSubmatch(summary); g != nil {
			return g[1], true
		}
	}
	return "", false
}

// String implements fmt.Stringer for debug logging.
func (d Definition) String() string {
	return fmt.Sprintf("Definition{persistence=%d order=%d}", len(d.Persistence), len(d.Order))
}
