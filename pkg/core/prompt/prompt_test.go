package prompt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestBuiltinSummaryPrompt(t *testing.T) {
	r := NewRegistry()
	pt, err := r.GetPrompt(PromptIDs.SummaryFRESection)
	if err != nil {
		t.Fatalf("expected built-in summary prompt: %v", err)
	}
	out, err := RenderUserPrompt(pt, NewContext().Set("Company", "PETROBRAS S.A.").Set("Item", "8.4").Set("Text", "remuneração"))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "PETROBRAS S.A.") || !strings.Contains(out, "8.4") {
		t.Errorf("unexpected render %q", out)
	}
	if _, err := RenderUserPrompt(pt, NewContext().Set("Company", "X")); err == nil {
		t.Error("expected error for missing template variables")
	}
}

func TestLoadDirectory_OverridesBuiltin(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "summary"), 0o755); err != nil {
		t.Fatal(err)
	}
	body := `{"system_prompt":"custom","user_prompt_template":"{{.Text}}"}`
	if err := os.WriteFile(filepath.Join(dir, "summary", "fre_section.json"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	r := NewRegistry()
	if err := r.LoadDirectory(dir); err != nil {
		t.Fatalf("LoadDirectory: %v", err)
	}
	pt, err := r.GetPrompt(PromptIDs.SummaryFRESection)
	if err != nil {
		t.Fatal(err)
	}
	if pt.SystemPrompt != "custom" || pt.Category != "summary" {
		t.Errorf("expected override from file, got %+v", pt)
	}
}

func TestLoadDirectory_Missing(t *testing.T) {
	r := NewRegistry()
	if err := r.LoadDirectory(filepath.Join(t.TempDir(), "nope")); err != nil {
		t.Errorf("missing dir should not fail: %v", err)
	}
	if r.Count() != 1 {
		t.Errorf("expected only built-ins, got %d", r.Count())
	}
}

func TestLoadDirectory_BadJSON(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0o644)
	if err := NewRegistry().LoadDirectory(dir); err == nil {
		t.Error("expected parse error")
	}
}
