package utils

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// CleanMarkdown strips surrounding whitespace and an outer code fence (``` or
// ```lang) so model output is plain text or Markdown ready for rendering.
func CleanMarkdown(input string) string {
	cleaned := strings.TrimSpace(input)
	if !strings.HasPrefix(cleaned, "```") || !strings.HasSuffix(cleaned, "```") || len(cleaned) < 6 {
		return cleaned
	}
	cleaned = strings.TrimSuffix(strings.TrimPrefix(cleaned, "```"), "```")
	// drop the info string (```markdown, ```json)
	if nl := strings.IndexByte(cleaned, '\n'); nl >= 0 && !strings.ContainsAny(cleaned[:nl], " {[\"") {
		cleaned = cleaned[nl+1:]
	}
	return strings.TrimSpace(cleaned)
}

// RenderMarkdownHTML converts Markdown to HTML. Raw HTML in the input is escaped by
// goldmark's default renderer.
func RenderMarkdownHTML(input string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(CleanMarkdown(input)), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
