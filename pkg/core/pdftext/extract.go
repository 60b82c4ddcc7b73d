// Package pdftext pulls plain text out of an in-memory PDF for summarization.
package pdftext

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// DefaultMaxChars caps extracted text; FRE sections rarely need more for a summary.
const DefaultMaxChars = 120_000

// ErrNoText is returned when the PDF parsed but yielded no text (e.g. scanned pages).
var ErrNoText = errors.New("pdf contains no extractable text")

// Extract returns the text of every page, separated by blank lines, truncated to
// maxChars (<= 0 means DefaultMaxChars). Malformed documents return an error instead
// of panicking.
func Extract(data []byte, maxChars int) (text string, err error) {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	if len(data) == 0 {
		return "", fmt.Errorf("extract pdf text: empty document")
	}

	// ledongthuc/pdf panics on some malformed xref tables
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("extract pdf text: malformed document: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}

	var b strings.Builder
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		content = strings.TrimSpace(content)
		if content == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		if b.Len()+len(content) >= maxChars {
			b.WriteString(truncate(content, maxChars-b.Len()))
			break
		}
		b.WriteString(content)
	}

	if strings.TrimSpace(b.String()) == "" {
		return "", ErrNoText
	}
	return b.String(), nil
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	for n > 0 && !isRuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
