package models

import (
	"regexp"
	"strings"
	"time"
)

// PDFMimeType is the content type of every artifact served by the portal.
const PDFMimeType = "application/pdf"

// ReportItem is an FRE section selector such as "8.1" or "8.4".
type ReportItem string

// CatalogRecord is one row of the FRE open-data catalog (company x filing version).
type CatalogRecord struct {
	CNPJ           string    `json:"cnpj,omitempty"`
	CompanyName    string    `json:"company_name"`     // normalized
	RawCompanyName string    `json:"raw_company_name"` // as published
	Version        int       `json:"version"`
	ReferenceDate  time.Time `json:"reference_date"`
	SubmissionDate time.Time `json:"submission_date"`
	DocumentID     string    `json:"document_id,omitempty"`
	DocumentLink   string    `json:"document_link,omitempty"`
}

// HasLink reports whether the record carries a document link.
func (r CatalogRecord) HasLink() bool {
	return strings.TrimSpace(r.DocumentLink) != ""
}

// DocumentIdentity is the opaque sequential identifier of an FRE document on the portal.
type DocumentIdentity struct {
	SequentialID string `json:"sequential_id"`
}

// DocumentVariant addresses one section of one FRE document.
type DocumentVariant struct {
	SequentialID string     `json:"sequential_id"`
	Item         ReportItem `json:"item"`
	SectionCode  string     `json:"section_code"`
	URL          string     `json:"url"`
}

// Artifact is a decoded PDF retrieved from the portal.
type Artifact struct {
	Company  string          `json:"company"`
	Item     ReportItem      `json:"item"`
	Variant  DocumentVariant `json:"variant"`
	Data     []byte          `json:"-"`
	Filename string          `json:"filename"`
	MIMEType string          `json:"mime_type"`
}

// Size returns the payload length in bytes.
func (a *Artifact) Size() int {
	return len(a.Data)
}

var unsafeFilenameChars = regexp.MustCompile(`[\s/\\:]+`)

// ArtifactFilename derives the download name for a company/item pair,
// e.g. "FRE_PETROLEO_BRASILEIRO_S.A._PETROBRAS_8.4.pdf".
func ArtifactFilename(company string, item ReportItem) string {
	name := unsafeFilenameChars.ReplaceAllString(strings.TrimSpace(company), "_")
	it := unsafeFilenameChars.ReplaceAllString(strings.TrimSpace(string(item)), "_")
	return "FRE_" + name + "_" + it + ".pdf"
}

// EnrichmentRecord is one row of the secondary compensation-plans dataset.
type EnrichmentRecord struct {
	CompanyName string            `json:"company_name"`
	Fields      map[string]string `json:"fields"`
}

// Summary is the result of summarizing an artifact.
type Summary struct {
	Company      string     `json:"company"`
	Item         ReportItem `json:"item"`
	SequentialID string     `json:"sequential_id,omitempty"`
	Text         string     `json:"text"`
	KeyPoints    []string   `json:"key_points,omitempty"`
	Backend      string     `json:"backend"`
}

// DocumentRequest is one retrieval attempt, as recorded in the request history.
type DocumentRequest struct {
	ID           string     `json:"id"`
	Company      string     `json:"company"`
	Item         ReportItem `json:"item"`
	SequentialID string     `json:"sequential_id,omitempty"`
	URL          string     `json:"url,omitempty"`
	Outcome      string     `json:"outcome"`
	Bytes        int        `json:"bytes"`
	RequestedAt  time.Time  `json:"requested_at"`
}
