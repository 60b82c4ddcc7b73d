// Package catalog loads the CVM FRE open-data catalog and answers company lookups.
//
// A Catalog is an immutable snapshot built from exactly one load of the remote source.
package catalog

import (
	"fmt"
	"sort"
	"strconv"

	"fre_viewer/pkg/models"
)

// Catalog is the loaded reference dataset of company filing records.
type Catalog struct {
	byCompany  map[string][]models.CatalogRecord // newest first
	companies  []string
	enrichment map[string][]models.EnrichmentRecord
	total      int
	dropped    int
}

// Empty returns a catalog without records. It is what callers see when loading failed.
func Empty() *Catalog {
	return NewCatalog(nil, 0)
}

// NewCatalog indexes records by normalized company name. dropped is the number of
// source rows rejected by the parser, kept for diagnostics.
func NewCatalog(records []models.CatalogRecord, dropped int) *Catalog {
	c := &Catalog{
		byCompany: make(map[string][]models.CatalogRecord),
		total:     len(records),
		dropped:   dropped,
	}

	for _, rec := range records {
		name := NormalizeName(rec.CompanyName)
		if name == "" {
			continue
		}
		rec.CompanyName = name
		c.byCompany[name] = append(c.byCompany[name], rec)
	}

	for name, recs := range c.byCompany {
		sort.SliceStable(recs, func(i, j int) bool { return newer(recs[i], recs[j]) })
		c.byCompany[name] = recs
	}

	c.companies = c.sortedCompanies()
	return c
}

// WithEnrichment returns a copy of the catalog joined with a secondary dataset.
// The receiver is left untouched.
func (c *Catalog) WithEnrichment(rows []models.EnrichmentRecord) *Catalog {
	out := &Catalog{
		byCompany:  c.byCompany,
		enrichment: make(map[string][]models.EnrichmentRecord),
		total:      c.total,
		dropped:    c.dropped,
	}
	for name, recs := range c.enrichment {
		out.enrichment[name] = recs
	}
	for _, row := range rows {
		name := NormalizeName(row.CompanyName)
		if name == "" {
			continue
		}
		row.CompanyName = name
		out.enrichment[name] = append(out.enrichment[name], row)
	}
	out.companies = out.sortedCompanies()
	return out
}

func (c *Catalog) sortedCompanies() []string {
	seen := make(map[string]struct{}, len(c.byCompany)+len(c.enrichment))
	for name := range c.byCompany {
		seen[name] = struct{}{}
	}
	for name := range c.enrichment {
		seen[name] = struct{}{}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Companies returns the sorted, de-duplicated, normalized company names, including
// companies known only to the enrichment dataset.
func (c *Catalog) Companies() []string {
	out := make([]string, len(c.companies))
	copy(out, c.companies)
	return out
}

// LatestRecord returns the record with the highest version for company.
// Ties on version go to the later submission date, then the later reference date,
// then the higher document id, then the first row encountered.
func (c *Catalog) LatestRecord(company string) (models.CatalogRecord, error) {
	recs := c.byCompany[NormalizeName(company)]
	if len(recs) == 0 {
		return models.CatalogRecord{}, fmt.Errorf("%w: %q", ErrNotFound, company)
	}
	return recs[0], nil
}

// Records returns every version filed by company, newest first.
func (c *Catalog) Records(company string) []models.CatalogRecord {
	recs := c.byCompany[NormalizeName(company)]
	out := make([]models.CatalogRecord, len(recs))
	copy(out, recs)
	return out
}

// Enrichment returns the secondary rows joined to company, if any.
func (c *Catalog) Enrichment(company string) []models.EnrichmentRecord {
	rows := c.enrichment[NormalizeName(company)]
	out := make([]models.EnrichmentRecord, len(rows))
	copy(out, rows)
	return out
}

// HasCompany reports whether company appears in either dataset.
func (c *Catalog) HasCompany(company string) bool {
	name := NormalizeName(company)
	_, inCatalog := c.byCompany[name]
	_, inEnrichment := c.enrichment[name]
	return inCatalog || inEnrichment
}

// Len is the number of accepted catalog rows.
func (c *Catalog) Len() int { return c.total }

// Dropped is the number of malformed rows skipped while loading.
func (c *Catalog) Dropped() int { return c.dropped }

func newer(a, b models.CatalogRecord) bool {
	if a.Version != b.Version {
		return a.Version > b.Version
	}
	if !a.SubmissionDate.Equal(b.SubmissionDate) {
		return a.SubmissionDate.After(b.SubmissionDate)
	}
	if !a.ReferenceDate.Equal(b.ReferenceDate) {
		return a.ReferenceDate.After(b.ReferenceDate)
	}
	return compareDocumentID(a.DocumentID, b.DocumentID) > 0
}

// compareDocumentID compares numerically when both ids are integers.
func compareDocumentID(a, b string) int {
	ai, errA := strconv.ParseInt(a, 10, 64)
	bi, errB := strconv.ParseInt(b, 10, 64)
	if errA == nil && errB == nil {
		switch {
		case ai > bi:
			return 1
		case ai < bi:
			return -1
		}
		return 0
	}
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	}
	return 0
}
