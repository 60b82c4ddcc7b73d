package portal

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"fre_viewer/pkg/models"
)

// DefaultBaseURL is the FRE viewer page of the RAD portal.
const DefaultBaseURL = "https://www.rad.cvm.gov.br/ENET/frmExibirArquivoFRE.aspx"

// ExtraParam is a fixed query parameter appended after the codes, in order.
type ExtraParam struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

// SectionTable maps report items to portal section ("quadro") codes. It is data: the
// observed items only distinguish 8.4 from everything else, so nothing is derived.
type SectionTable struct {
	BaseURL        string                       `yaml:"base_url"`
	GroupCode      string                       `yaml:"group_code"`
	DocumentType   string                       `yaml:"document_type"`
	DefaultSection string                       `yaml:"default_section"`
	Sections       map[models.ReportItem]string `yaml:"sections"`
	ExtraParams    []ExtraParam                 `yaml:"extra_params"`
}

// DefaultSectionTable returns the codes observed on the portal.
func DefaultSectionTable() SectionTable {
	return SectionTable{
		BaseURL:        DefaultBaseURL,
		GroupCode:      "8000",
		DocumentType:   "9",
		DefaultSection: "8030",
		Sections: map[models.ReportItem]string{
			"8.1": "8030",
			"8.4": "8120",
		},
		ExtraParams: []ExtraParam{
			{Name: "Tipo"},
			{Name: "RelatorioRevisaoEspecial"},
		},
	}
}

// Items returns the recognized items, sorted.
func (t SectionTable) Items() []models.ReportItem {
	items := make([]models.ReportItem, 0, len(t.Sections))
	for it := range t.Sections {
		items = append(items, it)
	}
	sort.Slice(items, func(i, j int) bool { return items[i] < items[j] })
	return items
}

// Recognized reports whether item belongs to the table.
func (t SectionTable) Recognized(item models.ReportItem) bool {
	_, ok := t.Sections[item]
	return ok
}

// SectionFor returns the section code of a recognized item. A recognized item with an
// empty code falls back to DefaultSection.
func (t SectionTable) SectionFor(item models.ReportItem) (string, error) {
	code, ok := t.Sections[item]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownItem, item)
	}
	if code == "" {
		code = t.DefaultSection
	}
	return code, nil
}

// Validate checks the table is usable before any URL is built.
func (t SectionTable) Validate() error {
	if t.BaseURL == "" {
		return fmt.Errorf("section table: base_url is empty")
	}
	if _, err := url.Parse(t.BaseURL); err != nil {
		return fmt.Errorf("section table: base_url: %w", err)
	}
	if t.GroupCode == "" || t.DocumentType == "" {
		return fmt.Errorf("section table: group_code and document_type are required")
	}
	if len(t.Sections) == 0 {
		return fmt.Errorf("section table: no items configured")
	}
	for item, code := range t.Sections {
		if code == "" && t.DefaultSection == "" {
			return fmt.Errorf("section table: item %q has no section and there is no default", item)
		}
	}
	return nil
}

// Builder constructs variant URLs. It never touches the network.
type Builder struct {
	table SectionTable
}

// NewBuilder validates table and returns a builder over a private copy of it.
func NewBuilder(table SectionTable) (*Builder, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}
	cp := table
	cp.Sections = make(map[models.ReportItem]string, len(table.Sections))
	for k, v := range table.Sections {
		cp.Sections[k] = v
	}
	cp.ExtraParams = append([]ExtraParam(nil), table.ExtraParams...)
	return &Builder{table: cp}, nil
}

// Table returns the builder's section table.
func (b *Builder) Table() SectionTable {
	return b.table
}

// Build returns the portal URL for one section of a document. Parameter order is fixed,
// so equal inputs always give byte-identical URLs.
func (b *Builder) Build(id models.DocumentIdentity, item models.ReportItem) (models.DocumentVariant, error) {
	if strings.TrimSpace(id.SequentialID) == "" {
		return models.DocumentVariant{}, fmt.Errorf("build variant: empty sequential id")
	}
	section, err := b.table.SectionFor(item)
	if err != nil {
		return models.DocumentVariant{}, err
	}

	var q strings.Builder
	writeParam(&q, SequentialIDParam, id.SequentialID)
	writeParam(&q, "CodigoGrupo", b.table.GroupCode)
	writeParam(&q, "CodigoQuadro", section)
	for _, p := range b.table.ExtraParams {
		writeParam(&q, p.Name, p.Value)
	}
	writeParam(&q, "CodTipoDocumento", b.table.DocumentType)

	sep := "?"
	if strings.Contains(b.table.BaseURL, "?") {
		sep = "&"
	}

	return models.DocumentVariant{
		SequentialID: id.SequentialID,
		Item:         item,
		SectionCode:  section,
		URL:          b.table.BaseURL + sep + q.String(),
	}, nil
}

func writeParam(sb *strings.Builder, name, value string) {
	if sb.Len() > 0 {
		sb.WriteByte('&')
	}
	sb.WriteString(url.QueryEscape(name))
	sb.WriteByte('=')
	sb.WriteString(url.QueryEscape(value))
}
