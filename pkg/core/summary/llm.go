package summary

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"fre_viewer/pkg/core/agent"
	"fre_viewer/pkg/core/llm"
	"fre_viewer/pkg/core/prompt"
	"fre_viewer/pkg/core/utils"
)

// Executor sends a prompt for an agent type; *agent.Manager satisfies it.
type Executor interface {
	ExecutePrompt(ctx context.Context, agentType string, rawPrompt string, rawSystemPrompt string, options map[string]interface{}) (string, error)
	GetActiveProvider() string
}

// LLMSummarizer asks the configured LLM provider for a JSON summary.
type LLMSummarizer struct {
	exec     Executor
	registry *prompt.Registry
	maxChars int
}

// NewLLMSummarizer builds a summarizer on exec. A nil registry uses the global one;
// maxChars bounds the text placed in the prompt (<= 0 means 60000).
func NewLLMSummarizer(exec Executor, registry *prompt.Registry, maxChars int) *LLMSummarizer {
	if registry == nil {
		registry = prompt.Get()
	}
	if maxChars <= 0 {
		maxChars = 60_000
	}
	return &LLMSummarizer{exec: exec, registry: registry, maxChars: maxChars}
}

var _ Executor = (*agent.Manager)(nil)

func (s *LLMSummarizer) Name() string {
	if s.exec == nil {
		return "llm"
	}
	return "llm:" + s.exec.GetActiveProvider()
}

func (s *LLMSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	res, err := s.SummarizeDocument(ctx, Subject{}, text)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

type llmPayload struct {
	Summary   string   `json:"summary"`
	KeyPoints []string `json:"key_points"`
}

func (s *LLMSummarizer) SummarizeDocument(ctx context.Context, subject Subject, text string) (Result, error) {
	if s.exec == nil {
		return Result{}, ErrSummarizationUnavailable
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Result{}, fmt.Errorf("%w: empty text", ErrSummarizationUnavailable)
	}
	if len(text) > s.maxChars {
		text = strings.ToValidUTF8(text[:s.maxChars], "")
	}

	pt, err := s.registry.GetPrompt(prompt.PromptIDs.SummaryFRESection)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrSummarizationUnavailable, err)
	}
	company := subject.Company
	if company == "" {
		company = "(unspecified)"
	}
	item := string(subject.Item)
	if item == "" {
		item = "(unspecified)"
	}
	userPrompt, err := prompt.RenderUserPrompt(pt, prompt.NewContext().
		Set("Company", company).
		Set("Item", item).
		Set("Text", text))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrSummarizationUnavailable, err)
	}

	raw, err := s.exec.ExecutePrompt(ctx, agent.AgentSummarizer, userPrompt, pt.SystemPrompt, map[string]interface{}{
		"response_format": map[string]interface{}{"type": "json_object"},
	})
	if err != nil {
		if !errors.Is(err, llm.ErrMissingAPIKey) {
			log.Printf("[Summary] Provider call failed: %v", err)
		}
		return Result{}, fmt.Errorf("%w: %v", ErrSummarizationUnavailable, err)
	}

	var payload llmPayload
	if _, err := utils.SmartParse(raw, &payload); err == nil && strings.TrimSpace(payload.Summary) != "" {
		return Result{Text: strings.TrimSpace(payload.Summary), KeyPoints: payload.KeyPoints}, nil
	}

	// model ignored the JSON instruction; use its prose
	plain := utils.CleanMarkdown(raw)
	if plain == "" {
		return Result{}, fmt.Errorf("%w: empty model response", ErrSummarizationUnavailable)
	}
	return Result{Text: plain}, nil
}
