package pipeline

import (
	"context"
	"errors"

	"fre_viewer/pkg/core/catalog"
	"fre_viewer/pkg/core/portal"
	"fre_viewer/pkg/core/summary"
)

// User-facing outcome labels.
const (
	OutcomeOK              = "ok"
	OutcomeNotFound        = "not_found"
	OutcomeLinkAbsent      = "link_absent"
	OutcomeUnknownItem     = "unknown_item"
	OutcomeFieldMissing    = "field_missing"
	OutcomeHTTPError       = "http_error"
	OutcomeTimeout         = "timeout"
	OutcomeDecodeError     = "decode_error"
	OutcomeDataUnavailable = "data_unavailable"
	OutcomeNoSummary       = "summarization_unavailable"
	OutcomeSuperseded      = "superseded"
	OutcomeCanceled        = "canceled"
	OutcomeError           = "error"
)

// Outcome maps a pipeline error to its label.
func Outcome(err error) string {
	if err == nil {
		return OutcomeOK
	}
	switch {
	case errors.Is(err, ErrSuperseded):
		return OutcomeSuperseded
	case errors.Is(err, context.Canceled):
		return OutcomeCanceled
	case errors.Is(err, catalog.ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, ErrLinkAbsent):
		return OutcomeLinkAbsent
	case errors.Is(err, portal.ErrUnknownItem):
		return OutcomeUnknownItem
	case errors.Is(err, catalog.ErrDataUnavailable), errors.Is(err, catalog.ErrSchemaMismatch):
		return OutcomeDataUnavailable
	case errors.Is(err, summary.ErrSummarizationUnavailable):
		return OutcomeNoSummary
	}
	if reason, ok := portal.ReasonOf(err); ok {
		return string(reason)
	}
	return OutcomeError
}
