package prompt

// PromptIDs contains all known prompt identifiers
var PromptIDs = struct {
	SummaryFRESection string
}{
	SummaryFRESection: "summary.fre_section",
}

const freSectionSystemPrompt = `You are a financial analyst reading a section of a Brazilian "Formulário de Referência" (FRE) filed with the CVM.
Summarize the section faithfully, in the same language as the document. Do not invent figures.
Respond ONLY with a JSON object of the form {"summary": "<3-6 sentences>", "key_points": ["<point>", "..."]}.`

const freSectionUserTemplate = `Company: {{.Company}}
Report item: {{.Item}}

Section text:
{{.Text}}`

func builtins() []*PromptTemplate {
	return []*PromptTemplate{
		{
			ID:             PromptIDs.SummaryFRESection,
			Name:           "FRE section summary",
			Category:       "summary",
			Description:    "Summarizes one item of a company's FRE into a short paragraph and key points",
			SystemPrompt:   freSectionSystemPrompt,
			UserPromptTmpl: freSectionUserTemplate,
			Variables: []PromptVariable{
				{Name: "Company", Type: "string", Required: true},
				{Name: "Item", Type: "string", Required: true},
				{Name: "Text", Type: "string", Required: true},
			},
			Version: "builtin",
		},
	}
}

// GetSummaryPrompt returns the FRE section summary template from the global registry.
func GetSummaryPrompt() (*PromptTemplate, error) {
	return Get().GetPrompt(PromptIDs.SummaryFRESection)
}
