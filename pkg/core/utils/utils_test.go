package utils

import (
	"strings"
	"testing"
)

type summaryPayload struct {
	Summary   string   `json:"summary"`
	KeyPoints []string `json:"key_points"`
}

func TestSmartParse(t *testing.T) {
	inputs := map[string]string{
		"plain":    `{"summary": "ok", "key_points": ["a"]}`,
		"fenced":   "```json\n{\"summary\": \"ok\", \"key_points\": [\"a\"]}\n```",
		"trailing": `{"summary": "ok", "key_points": ["a",],}`,
	}
	for name, in := range inputs {
		var p summaryPayload
		if _, err := SmartParse(in, &p); err != nil {
			t.Errorf("%s: unexpected error %v", name, err)
			continue
		}
		if p.Summary != "ok" || len(p.KeyPoints) != 1 || p.KeyPoints[0] != "a" {
			t.Errorf("%s: unexpected payload %+v", name, p)
		}
	}
}

func TestParseHJSON(t *testing.T) {
	out, err := ParseHJSON("{\n  # comment\n  summary: ok\n}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != `{"summary":"ok"}` {
		t.Errorf("unexpected json %s", out)
	}
}

func TestSmartParse_Empty(t *testing.T) {
	var p summaryPayload
	if _, err := SmartParse("   ", &p); err == nil {
		t.Error("expected error for empty input")
	}
}

func TestCleanMarkdown(t *testing.T) {
	tests := map[string]string{
		"```markdown\n# Title\n```": "# Title",
		"```\nbody\n```":            "body",
		"  plain  ":                 "plain",
		"```":                       "```",
	}
	for in, want := range tests {
		if got := CleanMarkdown(in); got != want {
			t.Errorf("CleanMarkdown(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestRenderMarkdownHTML(t *testing.T) {
	html, err := RenderMarkdownHTML("**Remuneração** total\n\n- item")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(html, "<strong>Remuneração</strong>") || !strings.Contains(html, "<li>item</li>") {
		t.Errorf("unexpected html %q", html)
	}
	html, _ = RenderMarkdownHTML("<script>alert(1)</script>")
	if strings.Contains(html, "<script>") {
		t.Errorf("raw html must not pass through: %q", html)
	}
}
