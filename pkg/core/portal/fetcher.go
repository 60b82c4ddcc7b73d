package portal

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"log"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"fre_viewer/pkg/core/ingest"
	"fre_viewer/pkg/models"
)

// DefaultContentFieldID is the hidden input the ASP.NET page fills with the base64 PDF.
const DefaultContentFieldID = "hdnConteudoArquivo"

// Fetcher downloads a variant page and decodes the embedded PDF. It performs a single
// attempt; retrying is left to the user.
type Fetcher struct {
	client  *ingest.Client
	fieldID string
}

// NewFetcher creates a fetcher. Empty fieldID uses DefaultContentFieldID.
func NewFetcher(client *ingest.Client, fieldID string) *Fetcher {
	if client == nil {
		client = ingest.NewClient()
	}
	if fieldID == "" {
		fieldID = DefaultContentFieldID
	}
	return &Fetcher{client: client, fieldID: fieldID}
}

// Fetch returns the decoded artifact bytes, or a *FetchError.
func (f *Fetcher) Fetch(ctx context.Context, variant models.DocumentVariant) ([]byte, error) {
	body, err := f.client.Get(ctx, variant.URL, "text/html,application/xhtml+xml")
	if err != nil {
		return nil, classifyTransport(variant.URL, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &FetchError{Reason: ReasonFieldMissing, URL: variant.URL, Err: err}
	}

	value, ok := hiddenValue(doc, f.fieldID)
	if !ok {
		return nil, &FetchError{Reason: ReasonFieldMissing, URL: variant.URL}
	}

	data, err := decodePayload(value)
	if err != nil {
		return nil, &FetchError{Reason: ReasonDecodeError, URL: variant.URL, Err: err}
	}

	if !bytes.HasPrefix(data, []byte("%PDF")) {
		log.Printf("[Portal] Payload for %s (item %s) does not start with a PDF header", variant.SequentialID, variant.Item)
	}
	return data, nil
}

func classifyTransport(url string, err error) error {
	if ingest.IsTimeout(err) {
		return &FetchError{Reason: ReasonTimeout, URL: url, Err: err}
	}
	var statusErr *ingest.StatusError
	if errors.As(err, &statusErr) {
		return &FetchError{Reason: ReasonHTTPError, URL: url, StatusCode: statusErr.StatusCode, Err: err}
	}
	return &FetchError{Reason: ReasonHTTPError, URL: url, Err: err}
}

// hiddenValue finds the input by id and returns its trimmed, non-empty value.
func hiddenValue(doc *goquery.Document, id string) (string, bool) {
	var value string
	found := false
	doc.Find("input").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if got, _ := s.Attr("id"); got != id {
			return true
		}
		value, found = s.Attr("value")
		return false
	})
	value = strings.TrimSpace(value)
	return value, found && value != ""
}

// decodePayload accepts padded, unpadded and URL-safe base64; whitespace is ignored.
func decodePayload(value string) ([]byte, error) {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\r', '\t':
			return -1
		}
		return r
	}, value)

	var firstErr error
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		data, err := enc.DecodeString(clean)
		if err == nil {
			return data, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}
