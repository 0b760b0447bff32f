package model

import "testing"

func compileOrFail(t *testing.T, def Definition) *Settings {
	t.Helper()
	s, err := Compile(def)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	return s
}

func TestGitFlowPersistence(t *testing.T) {
	s := compileOrFail(t, GitFlow())

	tests := []struct {
		name string
		want int
	}{
		{"master", 0},
		{"main", 0},
		{"develop", 1},
		{"dev", 1},
		{"feature/x", 2},
		{"release/1.0", 3},
		{"hotfix/y", 4},
		{"bugfix/z", 5},
		{"something-else", 6}, // len(Persistence)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.PersistenceIndex(tt.name); got != tt.want {
				t.Errorf("PersistenceIndex(%q) = %d, want %d", tt.name, got, tt.want)
			}
		})
	}
}

func TestForkBranchesNeverGetPersistence(t *testing.T) {
	s := compileOrFail(t, GitFlow())
	// fork/master would otherwise match the master persistence pattern if
	// stripped, but per the resolved open question it must never match.
	if got := s.PersistenceIndex("fork/master"); got != len(s.Persistence) {
		t.Errorf("PersistenceIndex(fork/master) = %d, want %d (no persistence for fork/ branches)", got, len(s.Persistence))
	}
}

func TestGitFlowOrderGroup(t *testing.T) {
	s := compileOrFail(t, GitFlow())
	if g := s.OrderGroup("master"); g != 0 {
		t.Errorf("OrderGroup(master) = %d, want 0", g)
	}
	if g := s.OrderGroup("release/1.0"); g != 1 {
		t.Errorf("OrderGroup(release/1.0) = %d, want 1", g)
	}
	if g := s.OrderGroup("develop"); g != 2 {
		t.Errorf("OrderGroup(develop) = %d, want 2", g)
	}
	if g := s.OrderGroup("feature/x"); g != 3 {
		t.Errorf("OrderGroup(feature/x) = %d, want 3 (no match -> len(Order))", g)
	}
}

func TestColorCycling(t *testing.T) {
	s := compileOrFail(t, GitFlow())
	// feature/* cycles bright_magenta, bright_cyan, bright_magenta, ...
	got := []string{
		s.TerminalColor("feature/a"),
		s.TerminalColor("feature/b"),
		s.TerminalColor("feature/c"),
	}
	want := []string{"bright_magenta", "bright_cyan", "bright_magenta"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("color[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestColorUnknownFallsBackToCycle(t *testing.T) {
	s := compileOrFail(t, Simple())
	got := []string{
		s.TerminalColor("feature/a"),
		s.TerminalColor("feature/b"),
		s.TerminalColor("feature/c"),
	}
	want := []string{"bright_yellow", "bright_green", "bright_red"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("color[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestParseStyleAbbreviations(t *testing.T) {
	tests := []struct {
		in   string
		want rune
	}{
		{"normal", '●'},
		{"n", '●'},
		{"round", '●'},
		{"bold", '●'},
		{"double", '●'},
		{"ascii", '*'},
		{"a", '*'},
	}
	for _, tt := range tests {
		c, err := ParseStyle(tt.in)
		if err != nil {
			t.Fatalf("ParseStyle(%q) error = %v", tt.in, err)
		}
		if got := c.Glyph(GlyphDot); got != tt.want {
			t.Errorf("ParseStyle(%q).Glyph(GlyphDot) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseStyleUnknown(t *testing.T) {
	if _, err := ParseStyle("nonsense"); err == nil {
		t.Error("ParseStyle(nonsense) expected error, got nil")
	}
}

func TestAsciiGlyphsAreAllASCII(t *testing.T) {
	c := CharactersASCII()
	for i := 0; i < 16; i++ {
		if g := c.Glyph(i); g > 127 {
			t.Errorf("ASCII glyph[%d] = %q is not ASCII", i, g)
		}
	}
}

func TestMergePatternsOrderedFirstMatchWins(t *testing.T) {
	m := DefaultMergePatterns()

	tests := []struct {
		summary  string
		wantName string
		wantOK   bool
	}{
		{"Merge branch 'feature/x' into 'main'", "feature/x", true},
		{"Merge branch 'feature/x' into main", "feature/x", true},
		{"Merge branch 'feature/x'", "feature/x", true},
		{"Merge pull request #42 from someuser/feature/y", "feature/y", true},
		{"Merge branch 'feature/z' of https://example.com/repo", "feature/z", true},
		{"Merged in feature/w (pull request #7)", "feature/w", true},
		{"not a merge summary at all", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.summary, func(t *testing.T) {
			name, ok := m.ParseBranchName(tt.summary)
			if ok != tt.wantOK {
				t.Fatalf("ParseBranchName(%q) ok = %v, want %v", tt.summary, ok, tt.wantOK)
			}
			if ok && name != tt.wantName {
				t.Errorf("ParseBranchName(%q) = %q, want %q", tt.summary, name, tt.wantName)
			}
		})
	}
}

func TestCompileInvalidPattern(t *testing.T) {
	_, err := Compile(Definition{Persistence: []string{"("}})
	if err == nil {
		t.Fatal("Compile() with invalid regex expected error, got nil")
	}
}
