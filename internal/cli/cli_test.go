package cli

import (
	"bytes"
	"slices"
	"testing"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	c := New(&bytes.Buffer{}, LogInfo)
	root := c.RootCommand()

	want := []string{
		"seed", "arrange", "validate", "simulate", "render",
		"template", "module", "assets", "version", "serve", "cache", "completion",
	}
	var got []string
	for _, cmd := range root.Commands() {
		got = append(got, cmd.Name())
	}
	for _, name := range want {
		if !slices.Contains(got, name) {
			t.Errorf("missing subcommand %q", name)
		}
	}
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{"svg"}},
		{"svg", []string{"svg"}},
		{"svg,png,report", []string{"svg", "png", "report"}},
	}
	for _, tt := range tests {
		if got := parseFormats(tt.in); !slices.Equal(got, tt.want) {
			t.Errorf("parseFormats(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestExtensionFor(t *testing.T) {
	if got := extensionFor("report"); got != "txt" {
		t.Errorf("extensionFor(report) = %q, want txt", got)
	}
	if got := extensionFor("svg"); got != "svg" {
		t.Errorf("extensionFor(svg) = %q, want svg", got)
	}
}

func TestSplitIDs(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"a", []string{"a"}},
		{"a, b ,c", []string{"a", "b", "c"}},
		{",,a,", []string{"a"}},
	}
	for _, tt := range tests {
		if got := splitIDs(tt.in); !slices.Equal(got, tt.want) {
			t.Errorf("splitIDs(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseDropPoint(t *testing.T) {
	p, err := parseDropPoint("120, 80")
	if err != nil {
		t.Fatalf("parseDropPoint: %v", err)
	}
	if p.X != 120 || p.Y != 80 {
		t.Errorf("point = %+v", p)
	}

	for _, bad := range []string{"", "12", "a,b", "1,2,3"} {
		if _, err := parseDropPoint(bad); err == nil {
			t.Errorf("parseDropPoint(%q) accepted", bad)
		}
	}
}
