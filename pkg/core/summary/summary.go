// Package summary turns the text of an FRE section into a short summary. Backends are
// pluggable; callers that only need a paragraph use Summarizer, richer backends also
// implement DocumentSummarizer.
package summary

import (
	"context"
	"errors"

	"fre_viewer/pkg/models"
)

// ErrSummarizationUnavailable is returned when no backend is configured or the
// backend cannot produce a summary. It never affects document retrieval.
var ErrSummarizationUnavailable = errors.New("summarization unavailable")

// Summarizer condenses free text.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// Subject identifies what is being summarized, for prompt context.
type Subject struct {
	Company string
	Item    models.ReportItem
}

// Result is a summary plus optional bullet points.
type Result struct {
	Text      string
	KeyPoints []string
}

// DocumentSummarizer is implemented by backends that use the subject and return key points.
type DocumentSummarizer interface {
	Summarizer
	SummarizeDocument(ctx context.Context, subject Subject, text string) (Result, error)
}

// Name returns a backend's name for display, or "unknown".
func Name(s Summarizer) string {
	if n, ok := s.(interface{ Name() string }); ok {
		return n.Name()
	}
	return "unknown"
}

// Unavailable is the backend used when summarization is switched off.
type Unavailable struct{}

func (Unavailable) Summarize(context.Context, string) (string, error) {
	return "", ErrSummarizationUnavailable
}

func (Unavailable) Name() string { return "none" }
