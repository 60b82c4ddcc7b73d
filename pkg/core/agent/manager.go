package agent

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"

	"fre_viewer/pkg/core/llm"
)

// AgentSummarizer is the agent type used for FRE section summaries.
const AgentSummarizer = "summarizer"

type Config struct {
	ActiveProvider string                 `yaml:"active_provider"`
	Agents         map[string]AgentConfig `yaml:"agents"`
}

type AgentConfig struct {
	Provider    string `yaml:"provider"` // Optional override
	Model       string `yaml:"model"`
	Description string `yaml:"description"`
}

// Manager routes agent prompts to the configured provider.
type Manager struct {
	mu        sync.RWMutex
	config    Config
	providers map[string]llm.Provider
}

// DefaultProviders returns the built-in provider set keyed by name.
func DefaultProviders() map[string]llm.Provider {
	return map[string]llm.Provider{
		"gemini":        &llm.GeminiProvider{},
		"gemini-legacy": &llm.GeminiLegacyProvider{},
		"deepseek":      &llm.DeepSeekProvider{},
		"qwen":          &llm.QwenProvider{},
	}
}

func NewManager(config Config) *Manager {
	return NewManagerWithProviders(config, DefaultProviders())
}

// NewManagerWithProviders is NewManager with an explicit provider set.
func NewManagerWithProviders(config Config, providers map[string]llm.Provider) *Manager {
	return &Manager{config: config, providers: providers}
}

// GetProvider returns the provider for agentType: its override first, then the
// active provider. An empty or unknown active provider is an error.
func (m *Manager) GetProvider(agentType string) (llm.Provider, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if agentConfig, ok := m.config.Agents[agentType]; ok && agentConfig.Provider != "" {
		if p, ok := m.providers[agentConfig.Provider]; ok {
			return p, nil
		}
		log.Printf("[Agent] Override provider %q for %s not registered, using active provider", agentConfig.Provider, agentType)
	}

	if m.config.ActiveProvider == "" {
		return nil, fmt.Errorf("no llm provider configured")
	}
	if p, ok := m.providers[m.config.ActiveProvider]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("provider %s not found", m.config.ActiveProvider)
}

// ExecutePrompt adapts instructions for the agent's provider and sends the prompt.
func (m *Manager) ExecutePrompt(ctx context.Context, agentType string, rawPrompt string, rawSystemPrompt string, options map[string]interface{}) (string, error) {
	provider, err := m.GetProvider(agentType)
	if err != nil {
		return "", err
	}

	m.mu.RLock()
	model := m.config.Agents[agentType].Model
	m.mu.RUnlock()
	if model != "" {
		merged := make(map[string]interface{}, len(options)+1)
		for k, v := range options {
			merged[k] = v
		}
		if _, ok := merged["model"]; !ok {
			merged["model"] = model
		}
		options = merged
	}

	return provider.GenerateResponse(ctx, rawPrompt, provider.AdaptInstructions(rawSystemPrompt), options)
}

func (m *Manager) SetGlobalProvider(newProvider string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.providers[newProvider]; !ok {
		return fmt.Errorf("provider %s not found", newProvider)
	}
	m.config.ActiveProvider = newProvider
	log.Printf("[Agent] Global provider set to: %s", newProvider)
	return nil
}

func (m *Manager) GetActiveProvider() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config.ActiveProvider
}

// Available lists registered provider names, sorted.
func (m *Manager) Available() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.providers))
	for k := range m.providers {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
