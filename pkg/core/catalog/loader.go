package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"

	"fre_viewer/pkg/core/ingest"
	"fre_viewer/pkg/models"
)

// Column names of the FRE catalog.
const (
	ColCNPJ           = "CNPJ_CIA"
	ColReferenceDate  = "DT_REFER"
	ColVersion        = "VERSAO"
	ColCompanyName    = "DENOM_CIA"
	ColDocumentID     = "ID_DOC"
	ColSubmissionDate = "DT_RECEB"
	ColDocumentLink   = "LINK_DOC"
)

// DefaultSourceURL is the 2024 FRE archive on the CVM open-data portal.
const DefaultSourceURL = "https://dados.cvm.gov.br/dados/CIA_ABERTA/DOC/FRE/DADOS/fre_cia_aberta_2024.zip"

var dateLayouts = []string{"2006-01-02", "02/01/2006", "2006-01-02 15:04:05"}

// Options configures where and how the catalog is read.
type Options struct {
	URL       string
	Member    string // zip member; empty picks fre_cia_aberta_<year>.csv
	Encoding  string // latin1 (default), windows-1252, utf-8
	Delimiter rune   // default ';'

	EnrichmentURL        string
	EnrichmentMember     string
	EnrichmentNameColumn string
}

// Loader fetches and parses the catalog. It keeps no state between loads.
type Loader struct {
	client *ingest.Client
	opts   Options
}

// NewLoader creates a loader; a nil client gets ingest defaults.
func NewLoader(client *ingest.Client, opts Options) *Loader {
	if client == nil {
		client = ingest.NewClient()
	}
	if opts.URL == "" {
		opts.URL = DefaultSourceURL
	}
	return &Loader{client: client, opts: opts}
}

// Load fetches the source and builds a fresh Catalog. Failures to fetch or parse the
// whole source wrap ErrDataUnavailable; missing columns wrap ErrSchemaMismatch.
// Enrichment problems are logged and the catalog is returned without it.
func (l *Loader) Load(ctx context.Context) (*Catalog, error) {
	start := time.Now()

	body, err := l.client.Get(ctx, l.opts.URL, "text/csv, application/zip, */*")
	if err != nil {
		return nil, fmt.Errorf("%w: fetch %s: %w", ErrDataUnavailable, l.opts.URL, err)
	}

	reader, err := openTable(body, l.opts.Member)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDataUnavailable, err)
	}

	records, dropped, err := ParseRecords(reader, l.opts.Encoding, l.opts.Delimiter)
	if err != nil {
		return nil, err
	}
	if dropped > 0 {
		log.Printf("[Catalog] Skipped %d malformed rows from %s", dropped, l.opts.URL)
	}

	cat := NewCatalog(records, dropped)

	if l.opts.EnrichmentURL != "" {
		rows, err := l.loadEnrichment(ctx)
		if err != nil {
			log.Printf("[Catalog] Enrichment unavailable, continuing without it: %v", err)
		} else {
			cat = cat.WithEnrichment(rows)
		}
	}

	log.Printf("[Catalog] Loaded %d records (%d companies) in %v", cat.Len(), len(cat.Companies()), time.Since(start).Round(time.Millisecond))
	return cat, nil
}

// ParseRecords reads FRE rows from r. Rows that cannot be parsed are skipped and
// counted; only a broken header or an unreadable stream fails the whole parse.
func ParseRecords(r io.Reader, encodingName string, delimiter rune) ([]models.CatalogRecord, int, error) {
	enc, err := lookupEncoding(encodingName)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrDataUnavailable, err)
	}

	t, err := newTable(r, enc, delimiter)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrDataUnavailable, err)
	}
	if missing := t.require(ColCompanyName, ColVersion, ColDocumentLink); len(missing) > 0 {
		return nil, 0, fmt.Errorf("%w: missing columns %s", ErrSchemaMismatch, strings.Join(missing, ", "))
	}

	var records []models.CatalogRecord
	dropped := 0
	for {
		row, err := t.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, errMalformedRow) {
			dropped++
			continue
		}
		if err != nil {
			return nil, 0, fmt.Errorf("%w: read rows: %w", ErrDataUnavailable, err)
		}

		rec, ok := parseRecord(t, row)
		if !ok {
			dropped++
			continue
		}
		records = append(records, rec)
	}
	return records, dropped, nil
}

func parseRecord(t *table, row []string) (models.CatalogRecord, bool) {
	raw := t.field(row, ColCompanyName)
	name := NormalizeName(raw)
	if name == "" {
		return models.CatalogRecord{}, false
	}

	version, err := strconv.Atoi(t.field(row, ColVersion))
	if err != nil {
		return models.CatalogRecord{}, false
	}

	refDate, ok := parseDate(t.field(row, ColReferenceDate))
	if !ok {
		return models.CatalogRecord{}, false
	}
	recvDate, ok := parseDate(t.field(row, ColSubmissionDate))
	if !ok {
		return models.CatalogRecord{}, false
	}

	return models.CatalogRecord{
		CNPJ:           t.field(row, ColCNPJ),
		CompanyName:    name,
		RawCompanyName: raw,
		Version:        version,
		ReferenceDate:  refDate,
		SubmissionDate: recvDate,
		DocumentID:     t.field(row, ColDocumentID),
		DocumentLink:   t.field(row, ColDocumentLink),
	}, true
}

// parseDate accepts an empty cell as the zero time; a non-empty cell must parse.
func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, true
	}
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}
