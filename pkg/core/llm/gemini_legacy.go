package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const defaultGeminiLegacyModel = "gemini-1.5-flash"

// GeminiLegacyProvider talks to Gemini through the older generative-ai-go SDK. It is
// kept for API keys that are only provisioned for the v1beta generative language API.
type GeminiLegacyProvider struct {
	APIKey string
	Model  string
}

var _ Provider = (*GeminiLegacyProvider)(nil)

func (p *GeminiLegacyProvider) GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error) {
	apiKey := stringOption(options, "api_key", p.APIKey)
	if apiKey == "" {
		apiKey = firstEnv("GEMINI_API_KEY", "GOOGLE_API_KEY")
	}
	if apiKey == "" {
		return "", fmt.Errorf("gemini-legacy: %w (set GEMINI_API_KEY)", ErrMissingAPIKey)
	}

	modelName := p.Model
	if modelName == "" {
		modelName = defaultGeminiLegacyModel
	}
	modelName = stringOption(options, "model", modelName)

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return "", fmt.Errorf("failed to create Gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.2)

	fullPrompt := prompt
	if systemPrompt != "" {
		fullPrompt = fmt.Sprintf("%s\n\nTask: %s", systemPrompt, prompt)
	}

	resp, err := model.GenerateContent(ctx, genai.Text(fullPrompt))
	if err != nil {
		return "", fmt.Errorf("gemini-legacy generation failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini-legacy returned no candidates")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	return strings.TrimSpace(sb.String()), nil
}

func (p *GeminiLegacyProvider) AdaptInstructions(raw string) string {
	return raw
}
