package catalog

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"golang.org/x/text/encoding/charmap"

	"fre_viewer/pkg/core/ingest"
)

const freHeader = "CNPJ_CIA;DT_REFER;VERSAO;DENOM_CIA;ID_DOC;DT_RECEB;LINK_DOC\n"

func latin1(t *testing.T, s string) []byte {
	t.Helper()
	b, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(s))
	if err != nil {
		t.Fatalf("encode latin1: %v", err)
	}
	return b
}

func zipped(t *testing.T, files map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create: %v", err)
		}
		w.Write(data)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func serve(t *testing.T, status int, body []byte) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if r.Header.Get("User-Agent") != ingest.UserAgent {
			t.Errorf("expected browser User-Agent, got %q", r.Header.Get("User-Agent"))
		}
		w.WriteHeader(status)
		w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestParseRecords_TolerantRows(t *testing.T) {
	csv := freHeader +
		"00.000.000/0001-91;2024-01-01;1;Companhia Energética SA;100;2024-05-31;https://host/page?NumeroSequencialDocumento=100\n" +
		"00.000.000/0001-91;2024-01-01;x;Broken version SA;101;2024-05-31;https://host/page?NumeroSequencialDocumento=101\n" +
		"00.000.000/0001-91;2024-01-01;2;Too;few\n" +
		"00.000.000/0001-91;not-a-date;2;Bad Date SA;102;2024-05-31;\n" +
		"11.111.111/0001-11;2024-01-01;2;Sem Link S/A;103;2024-06-30;\n"

	records, dropped, err := ParseRecords(bytes.NewReader(latin1(t, csv)), "latin1", ';')
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dropped != 3 {
		t.Errorf("expected 3 dropped rows, got %d", dropped)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].CompanyName != "COMPANHIA ENERGÉTICA S.A." {
		t.Errorf("expected latin1-decoded normalized name, got %q", records[0].CompanyName)
	}
	if records[0].RawCompanyName != "Companhia Energética SA" {
		t.Errorf("expected raw name preserved, got %q", records[0].RawCompanyName)
	}
	if records[1].HasLink() {
		t.Error("empty LINK_DOC must be kept as a record without link")
	}
}

func TestParseRecords_SchemaMismatch(t *testing.T) {
	_, _, err := ParseRecords(strings.NewReader("CNPJ_CIA;DENOM_CIA\n1;ACME\n"), "utf-8", ';')
	if !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
	if !strings.Contains(err.Error(), "VERSAO") || !strings.Contains(err.Error(), "LINK_DOC") {
		t.Errorf("expected missing columns named, got %v", err)
	}
}

func TestLoader_ZipSource(t *testing.T) {
	main := freHeader +
		"1;2024-01-01;1;Example Corp;1;2024-01-10;https://host/page?NumeroSequencialDocumento=12345\n" +
		"1;2024-01-01;2;Example Corp;2;2024-02-10;https://host/page?NumeroSequencialDocumento=12399\n"
	other := "X;Y\n1;2\n"
	body := zipped(t, map[string][]byte{
		"fre_cia_aberta_remuneracao_2024.csv": latin1(t, other),
		"fre_cia_aberta_2024.csv":             latin1(t, main),
	})
	srv, _ := serve(t, http.StatusOK, body)

	loader := NewLoader(ingest.NewClient(), Options{URL: srv.URL + "/fre.zip"})
	cat, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := cat.LatestRecord("EXAMPLE CORP")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Version != 2 || !strings.HasSuffix(got.DocumentLink, "=12399") {
		t.Errorf("expected version 2 record, got %+v", got)
	}
}

func TestLoader_HTTP404IsDataUnavailable(t *testing.T) {
	srv, _ := serve(t, http.StatusNotFound, []byte("nope"))

	loader := NewLoader(ingest.NewClient(), Options{URL: srv.URL})
	cat, err := loader.Load(context.Background())
	if !errors.Is(err, ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable, got %v", err)
	}
	if cat != nil {
		t.Error("expected no catalog on failure")
	}
	var statusErr *ingest.StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusNotFound {
		t.Errorf("expected wrapped 404 status error, got %v", err)
	}
}

func TestLoader_EnrichmentFailureIsNotFatal(t *testing.T) {
	main, _ := serve(t, http.StatusOK, []byte(freHeader+"1;2024-01-01;1;ACME SA;1;2024-01-10;\n"))
	broken, _ := serve(t, http.StatusInternalServerError, nil)

	cat, err := NewLoader(nil, Options{URL: main.URL, Encoding: "utf-8", EnrichmentURL: broken.URL}).Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cat.Companies()) != 1 {
		t.Errorf("expected catalog without enrichment, got %v", cat.Companies())
	}
}

func TestLoader_Enrichment(t *testing.T) {
	main, _ := serve(t, http.StatusOK, []byte(freHeader+"1;2024-01-01;1;ACME SA;1;2024-01-10;\n"))
	plans, _ := serve(t, http.StatusOK, []byte("Nome_Companhia;Plano\nAcme S/A;Opcoes 2024\nZeta SA;Acoes restritas\n"))

	cat, err := NewLoader(nil, Options{URL: main.URL, Encoding: "utf-8", EnrichmentURL: plans.URL}).Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := cat.Companies(); len(got) != 2 || got[0] != "ACME S.A." || got[1] != "ZETA S.A." {
		t.Errorf("expected union of both datasets, got %v", got)
	}
	rows := cat.Enrichment("ACME S.A.")
	if len(rows) != 1 || rows[0].Fields["PLANO"] != "Opcoes 2024" {
		t.Errorf("expected joined enrichment row, got %+v", rows)
	}
}

type countingSource struct {
	calls int32
	fail  bool
}

func (s *countingSource) Load(ctx context.Context) (*Catalog, error) {
	n := atomic.AddInt32(&s.calls, 1)
	if s.fail {
		return nil, ErrDataUnavailable
	}
	return NewCatalog(nil, int(n)), nil
}

func TestCache_ProcessLifetimeSnapshot(t *testing.T) {
	src := &countingSource{}
	cache := NewCache(src)

	first, err := cache.Get(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, _ := cache.Get(context.Background())
	if first != second {
		t.Error("expected the same snapshot on repeated Get")
	}
	if atomic.LoadInt32(&src.calls) != 1 {
		t.Errorf("expected 1 load, got %d", src.calls)
	}

	cache.Invalidate()
	third, _ := cache.Get(context.Background())
	if third == first || third.Dropped() != 2 {
		t.Error("expected a fresh snapshot after Invalidate")
	}
}

func TestCache_FailuresAreNotCached(t *testing.T) {
	src := &countingSource{fail: true}
	cache := NewCache(src)

	if _, err := cache.Get(context.Background()); !errors.Is(err, ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable, got %v", err)
	}
	if _, ok := cache.Peek(); ok {
		t.Error("failed load must not populate the cache")
	}

	src.fail = false
	if _, err := cache.Get(context.Background()); err != nil {
		t.Fatalf("expected recovery after failure, got %v", err)
	}
	if atomic.LoadInt32(&src.calls) != 2 {
		t.Errorf("expected 2 loads, got %d", src.calls)
	}
}
