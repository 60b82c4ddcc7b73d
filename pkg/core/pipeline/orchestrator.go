// Package pipeline wires the FRE stages together: catalog lookup, identity resolution,
// variant URL construction and artifact fetch, plus optional summarization.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"fre_viewer/pkg/core/catalog"
	"fre_viewer/pkg/core/pdftext"
	"fre_viewer/pkg/core/portal"
	"fre_viewer/pkg/core/summary"
	"fre_viewer/pkg/models"
)

// ErrLinkAbsent means the latest catalog record has no usable document link.
var ErrLinkAbsent = errors.New("document link absent")

// ErrHistoryDisabled is returned by RecentRequests when no listing backend is configured.
var ErrHistoryDisabled = errors.New("request history not configured")

// CatalogProvider returns the current catalog snapshot; *catalog.Cache satisfies it.
type CatalogProvider interface {
	Get(ctx context.Context) (*catalog.Catalog, error)
	Invalidate()
}

// ArtifactFetcher downloads and decodes one variant; *portal.Fetcher satisfies it.
type ArtifactFetcher interface {
	Fetch(ctx context.Context, variant models.DocumentVariant) ([]byte, error)
}

// HistoryRecorder persists retrieval attempts; *store.HistoryRepo satisfies it.
type HistoryRecorder interface {
	Record(ctx context.Context, req models.DocumentRequest) error
}

// HistoryLister is implemented by recorders that can list what they stored.
type HistoryLister interface {
	ListRecent(ctx context.Context, company string, limit int) ([]models.DocumentRequest, error)
}

// SummaryStore caches summaries by document, item and backend; *store.SummaryCache satisfies it.
type SummaryStore interface {
	Get(ctx context.Context, sequentialID string, item models.ReportItem, backend string) (*models.Summary, error)
	Put(ctx context.Context, s models.Summary) error
}

// TextExtractor turns artifact bytes into plain text.
type TextExtractor func(data []byte) (string, error)

// Orchestrator runs the pipeline. It is safe for concurrent use.
type Orchestrator struct {
	catalog    CatalogProvider
	builder    *portal.Builder
	fetcher    ArtifactFetcher
	summarizer summary.Summarizer
	history    HistoryRecorder
	summaries  SummaryStore
	extract    TextExtractor
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithSummarizer sets the summarization backend. Without one, Summarize always fails
// with summary.ErrSummarizationUnavailable.
func WithSummarizer(s summary.Summarizer) Option {
	return func(o *Orchestrator) { o.summarizer = s }
}

// WithHistory records every GetDocument attempt.
func WithHistory(h HistoryRecorder) Option {
	return func(o *Orchestrator) { o.history = h }
}

// WithSummaryStore caches summaries across requests.
func WithSummaryStore(s SummaryStore) Option {
	return func(o *Orchestrator) { o.summaries = s }
}

// WithTextExtractor replaces the PDF text extractor.
func WithTextExtractor(fn TextExtractor) Option {
	return func(o *Orchestrator) { o.extract = fn }
}

// NewOrchestrator creates an orchestrator over the given stages.
func NewOrchestrator(cat CatalogProvider, builder *portal.Builder, fetcher ArtifactFetcher, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		catalog: cat,
		builder: builder,
		fetcher: fetcher,
		extract: func(data []byte) (string, error) { return pdftext.Extract(data, 0) },
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Items returns the report items the builder recognizes.
func (o *Orchestrator) Items() []models.ReportItem {
	return o.builder.Table().Items()
}

// ListCompanies returns the sorted company list. When the catalog cannot be loaded it
// returns an empty, non-nil list together with the error.
func (o *Orchestrator) ListCompanies(ctx context.Context) ([]string, error) {
	cat, err := o.catalog.Get(ctx)
	if err != nil {
		log.Printf("[Pipeline] Catalog unavailable: %v", err)
		return []string{}, err
	}
	return cat.Companies(), nil
}

// Enrichment returns the secondary dataset rows for company.
func (o *Orchestrator) Enrichment(ctx context.Context, company string) ([]models.EnrichmentRecord, error) {
	cat, err := o.catalog.Get(ctx)
	if err != nil {
		return nil, err
	}
	if !cat.HasCompany(company) {
		return nil, fmt.Errorf("%w: %q", catalog.ErrNotFound, company)
	}
	return cat.Enrichment(company), nil
}

// Refresh drops the cached catalog and loads it again, returning the new company count.
func (o *Orchestrator) Refresh(ctx context.Context) (int, error) {
	o.catalog.Invalidate()
	cat, err := o.catalog.Get(ctx)
	if err != nil {
		return 0, err
	}
	log.Printf("[Pipeline] Catalog refreshed: %d companies, %d rows", len(cat.Companies()), cat.Len())
	return len(cat.Companies()), nil
}

// ResolveVariant runs the catalog, resolver and builder stages. Apart from the catalog
// load it touches no network.
func (o *Orchestrator) ResolveVariant(ctx context.Context, company string, item models.ReportItem) (models.DocumentVariant, models.CatalogRecord, error) {
	if !o.builder.Table().Recognized(item) {
		return models.DocumentVariant{}, models.CatalogRecord{}, fmt.Errorf("%w: %q", portal.ErrUnknownItem, item)
	}

	cat, err := o.catalog.Get(ctx)
	if err != nil {
		return models.DocumentVariant{}, models.CatalogRecord{}, err
	}

	rec, err := cat.LatestRecord(company)
	if err != nil {
		return models.DocumentVariant{}, models.CatalogRecord{}, err
	}

	id, ok := portal.ResolveIdentity(rec.DocumentLink)
	if !ok {
		return models.DocumentVariant{}, rec, fmt.Errorf("%w: %s (version %d)", ErrLinkAbsent, rec.CompanyName, rec.Version)
	}

	variant, err := o.builder.Build(id, item)
	if err != nil {
		return models.DocumentVariant{}, rec, err
	}
	return variant, rec, nil
}

// GetDocument runs all four stages for one company and item.
func (o *Orchestrator) GetDocument(ctx context.Context, company string, item models.ReportItem) (*models.Artifact, error) {
	reqID := uuid.NewString()
	start := time.Now()
	// history rows are keyed by the catalog name whatever the outcome
	key := catalog.NormalizeName(company)

	variant, rec, err := o.ResolveVariant(ctx, company, item)
	if err != nil {
		o.logOutcome(reqID, company, item, err)
		o.record(ctx, reqID, key, item, variant, 0, err)
		return nil, err
	}

	data, err := o.fetcher.Fetch(ctx, variant)
	if err != nil {
		o.logOutcome(reqID, company, item, err)
		o.record(ctx, reqID, key, item, variant, 0, err)
		return nil, err
	}

	artifact := &models.Artifact{
		Company:  rec.CompanyName,
		Item:     item,
		Variant:  variant,
		Data:     data,
		Filename: models.ArtifactFilename(rec.CompanyName, item),
		MIMEType: models.PDFMimeType,
	}
	log.Printf("[Pipeline] %s %s item %s: %d bytes in %s", reqID[:8], rec.CompanyName, item, artifact.Size(), time.Since(start).Round(time.Millisecond))
	o.record(ctx, reqID, key, item, variant, artifact.Size(), nil)
	return artifact, nil
}

// Summarize extracts the artifact text and summarizes it. Every failure wraps
// summary.ErrSummarizationUnavailable; retrieval is never affected.
func (o *Orchestrator) Summarize(ctx context.Context, artifact *models.Artifact) (*models.Summary, error) {
	if o.summarizer == nil {
		return nil, summary.ErrSummarizationUnavailable
	}
	if artifact == nil || artifact.Size() == 0 {
		return nil, fmt.Errorf("%w: no document", summary.ErrSummarizationUnavailable)
	}
	backend := summary.Name(o.summarizer)

	if o.summaries != nil {
		cached, err := o.summaries.Get(ctx, artifact.Variant.SequentialID, artifact.Item, backend)
		if err != nil {
			log.Printf("[Pipeline] Summary cache read failed: %v", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	text, err := o.extract(artifact.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", summary.ErrSummarizationUnavailable, err)
	}

	var res summary.Result
	if ds, ok := o.summarizer.(summary.DocumentSummarizer); ok {
		res, err = ds.SummarizeDocument(ctx, summary.Subject{Company: artifact.Company, Item: artifact.Item}, text)
	} else {
		res.Text, err = o.summarizer.Summarize(ctx, text)
	}
	if err != nil {
		if errors.Is(err, summary.ErrSummarizationUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", summary.ErrSummarizationUnavailable, err)
	}

	s := &models.Summary{
		Company:      artifact.Company,
		Item:         artifact.Item,
		SequentialID: artifact.Variant.SequentialID,
		Text:         strings.TrimSpace(res.Text),
		KeyPoints:    res.KeyPoints,
		Backend:      backend,
	}
	if o.summaries != nil && s.SequentialID != "" {
		if err := o.summaries.Put(ctx, *s); err != nil {
			log.Printf("[Pipeline] Summary cache write failed: %v", err)
		}
	}
	return s, nil
}

// RecentRequests lists recorded retrievals when the history backend supports it.
// company is matched after name normalization; empty lists every company.
func (o *Orchestrator) RecentRequests(ctx context.Context, company string, limit int) ([]models.DocumentRequest, error) {
	lister, ok := o.history.(HistoryLister)
	if !ok {
		return nil, ErrHistoryDisabled
	}
	return lister.ListRecent(ctx, catalog.NormalizeName(company), limit)
}

func (o *Orchestrator) logOutcome(reqID, company string, item models.ReportItem, err error) {
	switch outcome := Outcome(err); outcome {
	case OutcomeNotFound, OutcomeLinkAbsent, OutcomeFieldMissing, OutcomeCanceled:
		log.Printf("[Pipeline] %s %s item %s: %s", reqID[:8], company, item, outcome)
	default:
		log.Printf("[Pipeline] %s %s item %s failed (%s): %v", reqID[:8], company, item, outcome, err)
	}
}

func (o *Orchestrator) record(ctx context.Context, reqID, company string, item models.ReportItem, variant models.DocumentVariant, size int, err error) {
	if o.history == nil {
		return
	}
	// a cancelled request still deserves its history row
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	req := models.DocumentRequest{
		ID:           reqID,
		Company:      company,
		Item:         item,
		SequentialID: variant.SequentialID,
		URL:          variant.URL,
		Outcome:      Outcome(err),
		Bytes:        size,
		RequestedAt:  time.Now().UTC(),
	}
	if recErr := o.history.Record(ctx, req); recErr != nil {
		log.Printf("[Pipeline] %s history write failed: %v", reqID[:8], recErr)
	}
}
