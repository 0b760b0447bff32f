package format

import (
	"fmt"
	"strings"
	"testing"
	"time"

	gerrors "github.com/git-graph/git-graph/pkg/errors"
)

var when = time.Date(2021, 3, 14, 9, 26, 53, 0, time.UTC)

func testCommit() Commit {
	return Commit{
		Hash:         "0123456789abcdef0123456789abcdef01234567",
		ParentHashes: []string{"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"},
		Author:       Person{Name: "Ada", Email: "ada@example.com", When: when},
		Committer:    Person{Name: "Grace", Email: "grace@example.com", When: when.Add(time.Hour)},
		Summary:      "add the thing",
		Body:         "with details",
		Refs:         " (master)",
	}
}

func render(t *testing.T, template string, c Commit) []string {
	t.Helper()
	lines, err := Format(c, Spec{Preset: PresetTemplate, Template: template}, nil, nil)
	if err != nil {
		t.Fatalf("Format(%q): %v", template, err)
	}
	return lines
}

func ExampleFormat() {
	c := Commit{
		Hash:    "0123456789abcdef0123456789abcdef01234567",
		Summary: "add the thing",
		Author:  Person{Name: "Ada", When: time.Date(2021, 3, 14, 9, 26, 53, 0, time.UTC)},
	}
	lines, _ := Format(c, ParseSpec("%h %as %s"), nil, nil)
	fmt.Println(lines[0])
	// Output: 0123456 2021-03-14 add the thing
}

func TestParseSpecPresets(t *testing.T) {
	tests := []struct {
		in   string
		want Preset
	}{
		{"oneline", PresetOneLine},
		{"o", PresetOneLine},
		{"short", PresetShort},
		{"s", PresetShort},
		{"medium", PresetMedium},
		{"m", PresetMedium},
		{"full", PresetFull},
		{"f", PresetFull},
	}
	for _, tt := range tests {
		if got := ParseSpec(tt.in); got.Preset != tt.want {
			t.Errorf("ParseSpec(%q) = %v, want %v", tt.in, got.Preset, tt.want)
		}
	}
	if got := ParseSpec("%h %s"); got.Preset != PresetTemplate || got.Template != "%h %s" {
		t.Errorf("ParseSpec template = %+v", got)
	}
}

func TestPlaceholders(t *testing.T) {
	c := testCommit()
	tests := []struct {
		template string
		want     []string
	}{
		{"%H", []string{c.Hash}},
		{"%h", []string{c.Hash[:7]}},
		{"%P", []string{c.ParentHashes[0]}},
		{"%p", []string{"aaaaaaa"}},
		{"%s", []string{"add the thing"}},
		{"%b", []string{"with details"}},
		{"%d", []string{" (master)"}},
		{"%an <%ae>", []string{"Ada <ada@example.com>"}},
		{"%cn <%ce>", []string{"Grace <grace@example.com>"}},
		{"%as", []string{"2021-03-14"}},
		{"%cs", []string{"2021-03-14"}},
		{"a%nb", []string{"a", "b"}},
		{"100%% sure", []string{"100% sure"}},
	}
	for _, tt := range tests {
		t.Run(tt.template, func(t *testing.T) {
			got := render(t, tt.template, c)
			if len(got) != len(tt.want) {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("line %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

// %h is %H's first seven characters; formatting %H round-trips the id.
func TestHashRoundTrip(t *testing.T) {
	c := testCommit()
	full := render(t, "%H", c)[0]
	short := render(t, "%h", c)[0]
	if full != c.Hash {
		t.Errorf("%%H = %q, want %q", full, c.Hash)
	}
	if short != full[:7] {
		t.Errorf("%%h = %q, want %q", short, full[:7])
	}
}

func TestModifiers(t *testing.T) {
	c := testCommit()
	empty := c
	empty.Summary = ""

	// '+' flushes a new line only when the expansion is non-empty.
	if got := render(t, "a%+s", c); len(got) != 2 || got[0] != "a" || got[1] != "add the thing" {
		t.Errorf("%%+s non-empty = %q", got)
	}
	if got := render(t, "a%+s", empty); len(got) != 1 || got[0] != "a" {
		t.Errorf("%%+s empty = %q", got)
	}

	// ' ' prepends a space only when the expansion is non-empty.
	if got := render(t, "x% s", c); got[0] != "x add the thing" {
		t.Errorf("%% s non-empty = %q", got)
	}
	if got := render(t, "x% s", empty); got[0] != "x" {
		t.Errorf("%% s empty = %q", got)
	}

	// '-' deletes a preceding blank line only when the expansion is empty.
	if got := render(t, "a%n%n%-s", empty); len(got) != 1 || got[0] != "a" {
		t.Errorf("%%-s empty = %q", got)
	}
	if got := render(t, "a%n%n%-s", c); len(got) != 3 || got[2] != "add the thing" {
		t.Errorf("%%-s non-empty = %q", got)
	}
}

// A body with embedded newlines expands to one output line per physical
// line; the renderers pair every returned line with a grid row, so a raw
// newline must never survive inside a single element.
func TestMultiLineBodyFlushesPerLine(t *testing.T) {
	c := testCommit()
	c.Body = "line one\nline two"

	for _, template := range []string{"%b", "%B"} {
		got := render(t, template, c)
		want := []string{"line one", "line two"}
		if len(got) != len(want) {
			t.Fatalf("%s = %q, want %q", template, got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("%s line %d = %q, want %q", template, i, got[i], want[i])
			}
		}
	}

	// Text before the placeholder stays on the body's first line.
	got := render(t, "body: %b", c)
	if len(got) != 2 || got[0] != "body: line one" || got[1] != "line two" {
		t.Errorf("prefixed %%b = %q", got)
	}

	c.Body = "one\n\nthree"
	got = render(t, "%b", c)
	if len(got) != 3 || got[1] != "" {
		t.Errorf("blank interior body lines should be preserved: %q", got)
	}
}

func TestUnknownPlaceholderFails(t *testing.T) {
	_, err := Format(testCommit(), Spec{Preset: PresetTemplate, Template: "%q"}, nil, nil)
	if err == nil {
		t.Fatal("expected error for unknown placeholder")
	}
	if !gerrors.Is(err, gerrors.ErrCodeBadFormatSpec) {
		t.Errorf("expected BadFormatSpec, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	if err := Validate(ParseSpec("oneline")); err != nil {
		t.Errorf("preset should validate: %v", err)
	}
	if err := Validate(ParseSpec("%h %s")); err != nil {
		t.Errorf("good template should validate: %v", err)
	}
	if err := Validate(ParseSpec("%zz")); err == nil {
		t.Error("bad template should fail validation")
	}
}

func TestOneline(t *testing.T) {
	got, err := Format(testCommit(), Spec{Preset: PresetOneLine}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := "0123456 (master) add the thing"
	if len(got) != 1 || got[0] != want {
		t.Errorf("oneline = %q, want %q", got, want)
	}
}

func TestMediumPreset(t *testing.T) {
	got, err := Format(testCommit(), Spec{Preset: PresetMedium}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	joined := strings.Join(got, "\n")
	for _, want := range []string{
		"commit 0123456789abcdef0123456789abcdef01234567 (master)",
		"Author: Ada <ada@example.com>",
		"Date:   Sun Mar 14 09:26:53 2021 +0000",
		"    add the thing",
		"    with details",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("medium output missing %q in:\n%s", want, joined)
		}
	}
	if strings.Contains(joined, "Commit: Grace") {
		t.Error("medium output should not include the committer line")
	}
}

func TestWrapText(t *testing.T) {
	got := wrapText("one two three", 7, "", "  ")
	want := []string{"one two", "  three"}
	if len(got) != len(want) {
		t.Fatalf("wrapText = %q, want %q", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestFormatWithWrap(t *testing.T) {
	c := testCommit()
	c.Summary = strings.Repeat("word ", 20)
	c.Refs = ""
	wrap := &Wrap{Width: 20, Indent2: "        "}
	got, err := Format(c, Spec{Preset: PresetOneLine}, wrap, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) < 2 {
		t.Fatalf("expected wrapped continuation lines, got %q", got)
	}
	for _, line := range got[1:] {
		if !strings.HasPrefix(line, "        ") {
			t.Errorf("continuation line %q should carry the indent", line)
		}
	}
}
