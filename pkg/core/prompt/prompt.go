// Package prompt holds the prompt templates sent to LLM providers. Templates live as
// JSON files under resources/prompts and can be edited without a rebuild; a built-in
// copy of each template the code depends on is registered at startup.
package prompt

// PromptTemplate is a reusable prompt with metadata.
type PromptTemplate struct {
	ID             string           `json:"id"`       // e.g. "summary.fre_section"
	Name           string           `json:"name"`
	Category       string           `json:"category"` // first folder under prompts/
	Description    string           `json:"description"`
	SystemPrompt   string           `json:"system_prompt"`
	UserPromptTmpl string           `json:"user_prompt_template"` // text/template source
	Variables      []PromptVariable `json:"variables"`
	Version        string           `json:"version"`
}

// PromptVariable documents a template variable.
type PromptVariable struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
	Default     string `json:"default"`
}

// PromptExecutionContext holds runtime values for template substitution.
type PromptExecutionContext struct {
	Variables map[string]interface{}
}

func NewContext() *PromptExecutionContext {
	return &PromptExecutionContext{Variables: make(map[string]interface{})}
}

// Set adds a variable and returns the context for chaining.
func (c *PromptExecutionContext) Set(key string, value interface{}) *PromptExecutionContext {
	c.Variables[key] = value
	return c
}
