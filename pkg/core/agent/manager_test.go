package agent

import (
	"context"
	"testing"

	"fre_viewer/pkg/core/llm"
)

type mockProvider struct {
	name      string
	lastModel string
}

func (p *mockProvider) GenerateResponse(ctx context.Context, prompt, systemPrompt string, options map[string]interface{}) (string, error) {
	p.lastModel, _ = options["model"].(string)
	return p.name + ":" + prompt, nil
}

func (p *mockProvider) AdaptInstructions(raw string) string { return raw }

func newTestManager(cfg Config) (*Manager, *mockProvider, *mockProvider) {
	a, b := &mockProvider{name: "a"}, &mockProvider{name: "b"}
	return NewManagerWithProviders(cfg, map[string]llm.Provider{"a": a, "b": b}), a, b
}

func TestGetProvider_OverrideThenActive(t *testing.T) {
	m, _, _ := newTestManager(Config{
		ActiveProvider: "a",
		Agents:         map[string]AgentConfig{AgentSummarizer: {Provider: "b", Model: "m1"}},
	})

	out, err := m.ExecutePrompt(context.Background(), AgentSummarizer, "x", "", nil)
	if err != nil || out != "b:x" {
		t.Errorf("expected override provider b, got %q (%v)", out, err)
	}
	out, _ = m.ExecutePrompt(context.Background(), "other", "x", "", nil)
	if out != "a:x" {
		t.Errorf("expected active provider a, got %q", out)
	}
}

func TestExecutePrompt_AgentModel(t *testing.T) {
	m, _, b := newTestManager(Config{
		ActiveProvider: "a",
		Agents:         map[string]AgentConfig{AgentSummarizer: {Provider: "b", Model: "m1"}},
	})
	m.ExecutePrompt(context.Background(), AgentSummarizer, "x", "", nil)
	if b.lastModel != "m1" {
		t.Errorf("expected model m1, got %q", b.lastModel)
	}
	m.ExecutePrompt(context.Background(), AgentSummarizer, "x", "", map[string]interface{}{"model": "m2"})
	if b.lastModel != "m2" {
		t.Errorf("explicit option should win, got %q", b.lastModel)
	}
}

func TestGetProvider_NoneConfigured(t *testing.T) {
	m, _, _ := newTestManager(Config{})
	if _, err := m.GetProvider(AgentSummarizer); err == nil {
		t.Error("expected error with no active provider")
	}
	if err := m.SetGlobalProvider("missing"); err == nil {
		t.Error("expected error for unknown provider")
	}
	if err := m.SetGlobalProvider("b"); err != nil {
		t.Fatalf("SetGlobalProvider: %v", err)
	}
	if m.GetActiveProvider() != "b" {
		t.Errorf("expected b, got %s", m.GetActiveProvider())
	}
	if got := m.Available(); len(got) != 2 || got[0] != "a" {
		t.Errorf("unexpected available list %v", got)
	}
}

func TestDefaultProviders(t *testing.T) {
	for _, name := range []string{"gemini", "gemini-legacy", "deepseek", "qwen"} {
		if DefaultProviders()[name] == nil {
			t.Errorf("missing default provider %s", name)
		}
	}
}
