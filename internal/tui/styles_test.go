package tui

import (
	"strings"
	"testing"
)

func TestTagStyleStable(t *testing.T) {
	for _, tag := range []string{"go", "Go", "travel", ""} {
		rendered := TagStyle(tag).Render(tag)
		if !strings.Contains(rendered, tag) {
			t.Errorf("TagStyle(%q).Render = %q", tag, rendered)
		}
	}
	if TagStyle("go").GetForeground() != TagStyle("GO").GetForeground() {
		t.Error("TagStyle should ignore case")
	}
}

func TestRenderTags(t *testing.T) {
	out := renderTags([]string{"go", "cli"})
	if !strings.Contains(out, "#go") || !strings.Contains(out, "#cli") {
		t.Errorf("renderTags = %q", out)
	}
	if renderTags(nil) != "" {
		t.Error("renderTags(nil) should be empty")
	}
}

func TestShimmerLogoContainsLetters(t *testing.T) {
	for _, frame := range []int{0, 17, 400} {
		out := renderShimmerLogo(frame)
		for _, ch := range "SOCIALBLOG" {
			if !strings.ContainsRune(out, ch) {
				t.Fatalf("frame %d: logo missing %q", frame, ch)
			}
		}
	}
}

func TestHelpEntryFormat(t *testing.T) {
	out := helpEntry("q", "quit")
	if !strings.Contains(out, "q") || !strings.Contains(out, "quit") {
		t.Errorf("helpEntry = %q", out)
	}
}

func TestHelpViewListsKeys(t *testing.T) {
	out := helpView("v1.2.3")
	for _, want := range []string{"v1.2.3", "open post", "copy text", "switch login / signup"} {
		if !strings.Contains(out, want) {
			t.Errorf("helpView missing %q", want)
		}
	}
}
