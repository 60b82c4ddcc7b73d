package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"fre_viewer/pkg/models"
)

// Name columns tried, in order, when the enrichment dataset does not configure one.
var enrichmentNameColumns = []string{"Nome_Companhia", "Nome_Empresa", ColCompanyName}

func (l *Loader) loadEnrichment(ctx context.Context) ([]models.EnrichmentRecord, error) {
	body, err := l.client.Get(ctx, l.opts.EnrichmentURL, "text/csv, application/zip, */*")
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", l.opts.EnrichmentURL, err)
	}
	reader, err := openTable(body, l.opts.EnrichmentMember)
	if err != nil {
		return nil, err
	}
	rows, dropped, err := ParseEnrichment(reader, l.opts.Encoding, l.opts.Delimiter, l.opts.EnrichmentNameColumn)
	if err != nil {
		return nil, err
	}
	if dropped > 0 {
		log.Printf("[Catalog] Skipped %d malformed enrichment rows", dropped)
	}
	return rows, nil
}

// ParseEnrichment reads the compensation-plans dataset. Every column is kept verbatim in
// Fields; the company name column is normalized for the join with the catalog.
func ParseEnrichment(r io.Reader, encodingName string, delimiter rune, nameColumn string) ([]models.EnrichmentRecord, int, error) {
	enc, err := lookupEncoding(encodingName)
	if err != nil {
		return nil, 0, err
	}
	t, err := newTable(r, enc, delimiter)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrDataUnavailable, err)
	}

	col := nameColumn
	if col == "" {
		for _, candidate := range enrichmentNameColumns {
			if t.has(candidate) {
				col = candidate
				break
			}
		}
	}
	if col == "" || !t.has(col) {
		return nil, 0, fmt.Errorf("%w: no company name column in enrichment dataset", ErrSchemaMismatch)
	}

	header := t.headerNames()
	var out []models.EnrichmentRecord
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

		name := NormalizeName(t.field(row, col))
		if name == "" {
			dropped++
			continue
		}
		fields := make(map[string]string, len(header))
		for i, h := range header {
			fields[h] = row[i]
		}
		out = append(out, models.EnrichmentRecord{CompanyName: name, Fields: fields})
	}
	return out, dropped, nil
}

// headerNames lists the (uppercased) header in column order.
func (t *table) headerNames() []string {
	names := make([]string, t.width)
	for name, i := range t.columns {
		names[i] = name
	}
	for i, n := range names {
		if n == "" {
			names[i] = fmt.Sprintf("COL_%d", i)
		}
	}
	return names
}
