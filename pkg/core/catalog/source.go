package catalog

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	zipMagic = []byte("PK\x03\x04")

	// fre_cia_aberta_2024.csv, as opposed to fre_cia_aberta_remuneracao_..._2024.csv
	mainMemberPattern = regexp.MustCompile(`^fre_cia_aberta_\d{4}\.csv$`)
)

// lookupEncoding maps a configured encoding name to a decoder. Empty means latin1,
// which is what dados.cvm.gov.br publishes.
func lookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), "_", "-")) {
	case "", "latin1", "latin-1", "iso-8859-1", "iso8859-1":
		return charmap.ISO8859_1, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	case "utf-8", "utf8":
		return unicode.UTF8, nil
	}
	return nil, fmt.Errorf("unsupported encoding %q", name)
}

// openTable returns a reader over the delimited text inside body. Zip archives are
// unpacked: member wins if set, otherwise the main FRE member, otherwise the first .csv.
func openTable(body []byte, member string) (io.Reader, error) {
	if !bytes.HasPrefix(body, zipMagic) {
		return bytes.NewReader(body), nil
	}

	zr, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}

	var chosen *zip.File
	var firstCSV *zip.File
	for _, f := range zr.File {
		base := path.Base(f.Name)
		if member != "" {
			if base == member || f.Name == member {
				chosen = f
				break
			}
			continue
		}
		if !strings.EqualFold(path.Ext(base), ".csv") {
			continue
		}
		if firstCSV == nil {
			firstCSV = f
		}
		if mainMemberPattern.MatchString(strings.ToLower(base)) {
			chosen = f
			break
		}
	}
	if chosen == nil && member == "" {
		chosen = firstCSV
	}
	if chosen == nil {
		if member != "" {
			return nil, fmt.Errorf("zip member %q not found", member)
		}
		return nil, errors.New("zip contains no csv member")
	}

	rc, err := chosen.Open()
	if err != nil {
		return nil, fmt.Errorf("open zip member %s: %w", chosen.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read zip member %s: %w", chosen.Name, err)
	}
	return bytes.NewReader(data), nil
}

// table is a decoded delimited file: a header index plus a row iterator.
type table struct {
	reader  *csv.Reader
	columns map[string]int
	width   int
}

func newTable(r io.Reader, enc encoding.Encoding, delimiter rune) (*table, error) {
	if delimiter == 0 {
		delimiter = ';'
	}
	cr := csv.NewReader(transform.NewReader(r, enc.NewDecoder()))
	cr.Comma = delimiter
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty table")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToUpper(strings.TrimSpace(stripBOM(h)))
		if _, dup := cols[h]; !dup {
			cols[h] = i
		}
	}
	return &table{reader: cr, columns: cols, width: len(header)}, nil
}

// require returns the names in want that the header lacks.
func (t *table) require(want ...string) []string {
	var missing []string
	for _, w := range want {
		if _, ok := t.columns[strings.ToUpper(w)]; !ok {
			missing = append(missing, w)
		}
	}
	return missing
}

func (t *table) has(col string) bool {
	_, ok := t.columns[strings.ToUpper(col)]
	return ok
}

// field reads col from row; absent columns read as "".
func (t *table) field(row []string, col string) string {
	i, ok := t.columns[strings.ToUpper(col)]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// next returns the next row. A malformed row yields errMalformedRow and the table
// can keep reading; any other non-EOF error is fatal.
func (t *table) next() ([]string, error) {
	row, err := t.reader.Read()
	if err != nil {
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			return nil, fmt.Errorf("%w: line %d: %v", errMalformedRow, parseErr.Line, parseErr.Err)
		}
		return nil, err
	}
	if len(row) != t.width {
		return nil, fmt.Errorf("%w: %d fields, want %d", errMalformedRow, len(row), t.width)
	}
	return row, nil
}

var errMalformedRow = errors.New("malformed row")

// stripBOM drops a UTF-8 byte order mark, whether decoded as UTF-8 or as latin1.
func stripBOM(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	return strings.TrimPrefix(s, "\u00ef\u00bb\u00bf")
}
