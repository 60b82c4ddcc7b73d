package summary

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"fre_viewer/pkg/core/llm"
	"fre_viewer/pkg/core/prompt"
)

type mockExecutor struct {
	ExecuteFunc func(agentType, userPrompt, systemPrompt string) (string, error)
	provider    string
}

func (m *mockExecutor) ExecutePrompt(ctx context.Context, agentType, rawPrompt, rawSystemPrompt string, options map[string]interface{}) (string, error) {
	return m.ExecuteFunc(agentType, rawPrompt, rawSystemPrompt)
}

func (m *mockExecutor) GetActiveProvider() string { return m.provider }

func TestUnavailable(t *testing.T) {
	var s Summarizer = Unavailable{}
	if _, err := s.Summarize(context.Background(), "texto"); !errors.Is(err, ErrSummarizationUnavailable) {
		t.Errorf("expected ErrSummarizationUnavailable, got %v", err)
	}
	if Name(s) != "none" {
		t.Errorf("expected name none, got %s", Name(s))
	}
}

const section = `A remuneração dos administradores é composta por salário fixo e remuneração variável.
O conselho de administração aprova anualmente o montante global da remuneração dos administradores.
A diretoria estatutária recebe bônus vinculado a metas de desempenho da companhia.
Não há planos de remuneração baseados em ações para o conselho fiscal neste exercício.
Os benefícios incluem plano de saúde e previdência privada para a diretoria estatutária.
Tabela 1 2 3.
O comitê de remuneração revisa a política de remuneração dos administradores a cada ano.`

func TestExtractive_PicksSentencesInOrder(t *testing.T) {
	e := &ExtractiveSummarizer{Sentences: 2}
	res, err := e.SummarizeDocument(context.Background(), Subject{}, section)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := strings.Count(res.Text, "."); n != 2 {
		t.Errorf("expected 2 sentences, got %d in %q", n, res.Text)
	}
	if strings.Contains(res.Text, "Tabela") {
		t.Errorf("fragments should be filtered: %q", res.Text)
	}
	if len(res.KeyPoints) == 0 || res.KeyPoints[0] != "remuneração" {
		t.Errorf("expected remuneração as top term, got %v", res.KeyPoints)
	}

	again, _ := e.SummarizeDocument(context.Background(), Subject{}, section)
	if again.Text != res.Text {
		t.Error("extractive summary must be deterministic")
	}
}

func TestExtractive_Empty(t *testing.T) {
	e := &ExtractiveSummarizer{}
	if _, err := e.Summarize(context.Background(), " \n "); !errors.Is(err, ErrSummarizationUnavailable) {
		t.Errorf("expected ErrSummarizationUnavailable, got %v", err)
	}
	out, err := e.Summarize(context.Background(), "curto")
	if err != nil || out != "curto" {
		t.Errorf("short text should be returned as is, got %q (%v)", out, err)
	}
}

func TestLLM_ParsesJSON(t *testing.T) {
	var gotPrompt string
	exec := &mockExecutor{provider: "deepseek", ExecuteFunc: func(agentType, userPrompt, systemPrompt string) (string, error) {
		gotPrompt = userPrompt
		if !strings.Contains(systemPrompt, "JSON") {
			return "", fmt.Errorf("system prompt missing")
		}
		return "```json\n{\"summary\": \"Resumo.\", \"key_points\": [\"fixo\", \"variável\"]}\n```", nil
	}}
	s := NewLLMSummarizer(exec, prompt.NewRegistry(), 0)

	res, err := s.SummarizeDocument(context.Background(), Subject{Company: "VALE S.A.", Item: "8.4"}, section)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Text != "Resumo." || len(res.KeyPoints) != 2 {
		t.Errorf("unexpected result %+v", res)
	}
	if !strings.Contains(gotPrompt, "VALE S.A.") || !strings.Contains(gotPrompt, "8.4") {
		t.Errorf("prompt missing subject: %q", gotPrompt)
	}
	if Name(s) != "llm:deepseek" {
		t.Errorf("unexpected name %s", Name(s))
	}
}

func TestLLM_PlainTextFallback(t *testing.T) {
	exec := &mockExecutor{ExecuteFunc: func(string, string, string) (string, error) {
		return "A companhia paga salário fixo e bônus.", nil
	}}
	out, err := NewLLMSummarizer(exec, prompt.NewRegistry(), 0).Summarize(context.Background(), section)
	if err != nil || out != "A companhia paga salário fixo e bônus." {
		t.Errorf("expected prose fallback, got %q (%v)", out, err)
	}
}

func TestLLM_FailuresAreUnavailable(t *testing.T) {
	exec := &mockExecutor{ExecuteFunc: func(string, string, string) (string, error) {
		return "", fmt.Errorf("deepseek: %w", llm.ErrMissingAPIKey)
	}}
	_, err := NewLLMSummarizer(exec, prompt.NewRegistry(), 0).Summarize(context.Background(), section)
	if !errors.Is(err, ErrSummarizationUnavailable) {
		t.Errorf("expected ErrSummarizationUnavailable, got %v", err)
	}

	if _, err := NewLLMSummarizer(nil, nil, 0).Summarize(context.Background(), section); !errors.Is(err, ErrSummarizationUnavailable) {
		t.Errorf("nil executor: expected ErrSummarizationUnavailable, got %v", err)
	}
	if _, err := NewLLMSummarizer(exec, nil, 0).Summarize(context.Background(), ""); !errors.Is(err, ErrSummarizationUnavailable) {
		t.Errorf("empty text: expected ErrSummarizationUnavailable, got %v", err)
	}
}
