package model

// The three built-in branching models shipped with the tool.

// GitFlow returns the definition for the git-flow branching model: a
// long-lived master/main and develop, with feature/release/hotfix/bugfix
// prefixes layered around them.
func GitFlow() Definition {
	return Definition{
		Persistence: []string{
			`^(master|main)$`,
			`^(develop|dev)$`,
			`^feature.*$`,
			`^release.*$`,
			`^hotfix.*$`,
			`^bugfix.*$`,
		},
		Order: []string{
			`^(master|main)$`,
			`^(hotfix|release).*$`,
			`^(develop|dev)$`,
		},
		TerminalColors: ColorSet{
			Matches: []ColorMatch{
				{Pattern: `^(master|main)$`, Colors: []string{"bright_blue"}},
				{Pattern: `^(develop|dev)$`, Colors: []string{"bright_yellow"}},
				{Pattern: `^(feature|fork/).*$`, Colors: []string{"bright_magenta", "bright_cyan"}},
				{Pattern: `^release.*$`, Colors: []string{"bright_green"}},
				{Pattern: `^(bugfix|hotfix).*$`, Colors: []string{"bright_red"}},
				{Pattern: `^tags/.*$`, Colors: []string{"bright_green"}},
			},
			Unknown: []string{"white"},
		},
		SVGColors: ColorSet{
			Matches: []ColorMatch{
				{Pattern: `^(master|main)$`, Colors: []string{"blue"}},
				{Pattern: `^(develop|dev)$`, Colors: []string{"orange"}},
				{Pattern: `^(feature|fork/).*$`, Colors: []string{"purple", "turquoise"}},
				{Pattern: `^release.*$`, Colors: []string{"green"}},
				{Pattern: `^(bugfix|hotfix).*$`, Colors: []string{"red"}},
				{Pattern: `^tags/.*$`, Colors: []string{"green"}},
			},
			Unknown: []string{"gray"},
		},
		IncludeRemote: true,
	}
}

// Simple returns a minimal model that only distinguishes master/main from
// tags; everything else falls into the unknown color cycle.
func Simple() Definition {
	return Definition{
		Persistence: []string{`^(master|main)$`},
		Order:       []string{`^tags/.*$`, `^(master|main)$`},
		TerminalColors: ColorSet{
			Matches: []ColorMatch{
				{Pattern: `^(master|main)$`, Colors: []string{"bright_blue"}},
				{Pattern: `^tags/.*$`, Colors: []string{"bright_green"}},
			},
			Unknown: []string{"bright_yellow", "bright_green", "bright_red", "bright_magenta", "bright_cyan"},
		},
		SVGColors: ColorSet{
			Matches: []ColorMatch{
				{Pattern: `^(master|main)$`, Colors: []string{"blue"}},
				{Pattern: `^tags/.*$`, Colors: []string{"green"}},
			},
			Unknown: []string{"orange", "green", "red", "purple", "turquoise"},
		},
		IncludeRemote: true,
	}
}

// None returns a model with no defined branch roles at all: every branch
// lands in the unknown color cycle, in discovery order.
func None() Definition {
	return Definition{
		Persistence: nil,
		Order:       nil,
		TerminalColors: ColorSet{
			Unknown: []string{"bright_blue", "bright_yellow", "bright_green", "bright_red", "bright_magenta", "bright_cyan"},
		},
		SVGColors: ColorSet{
			Unknown: []string{"blue", "orange", "green", "red", "purple", "turquoise"},
		},
		IncludeRemote: true,
	}
}

// Builtins maps model name to its Definition, in the order create_config
// writes them to disk.
func Builtins() []struct {
	Name string
	Def  Definition
} {
	return []struct {
		Name string
		Def  Definition
	}{
		{"git-flow", GitFlow()},
		{"simple", Simple()},
		{"none", None()},
	}
}
