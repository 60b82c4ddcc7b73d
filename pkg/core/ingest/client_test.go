package ingest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestGet_SendsIdentity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != UserAgent {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Write([]byte(r.Header.Get("Accept")))
	}))
	defer srv.Close()

	body, err := NewClient().Get(context.Background(), srv.URL, "text/csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(body) != "text/csv" {
		t.Errorf("expected accept header echoed, got %q", body)
	}
}

func TestGet_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewClient().Get(context.Background(), srv.URL, "")
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusNotFound {
		t.Fatalf("expected StatusError 404, got %v", err)
	}
	if !strings.Contains(se.Error(), "404") {
		t.Errorf("unexpected message %q", se.Error())
	}
}

func TestGet_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClient(WithTimeout(30 * time.Millisecond))
	if c.Timeout() != 30*time.Millisecond {
		t.Errorf("expected configured timeout, got %s", c.Timeout())
	}
	_, err := c.Get(context.Background(), srv.URL, "")
	if !errors.Is(err, ErrTimeout) || !IsTimeout(err) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestOptions_IgnoreZeroValues(t *testing.T) {
	c := NewClient(WithTimeout(0), WithUserAgent(""), WithRateLimit(0, 0))
	if c.Timeout() != DefaultTimeout || c.userAgent != UserAgent || c.rateLimiter != nil {
		t.Errorf("zero options must keep defaults: %+v", c)
	}
	c = NewClient(WithRateLimit(5, 0))
	if c.rateLimiter == nil || c.rateLimiter.Burst() != 1 {
		t.Error("expected limiter with burst 1")
	}
}

func TestOptions_OrderAndIsolation(t *testing.T) {
	shared := &http.Client{Timeout: time.Minute}

	before := NewClient(WithTimeout(5*time.Second), WithHTTPClient(shared))
	after := NewClient(WithHTTPClient(shared), WithTimeout(5*time.Second))
	for name, c := range map[string]*Client{"before": before, "after": after} {
		if c.Timeout() != 5*time.Second {
			t.Errorf("%s: expected 5s timeout, got %s", name, c.Timeout())
		}
	}
	if shared.Timeout != time.Minute {
		t.Errorf("caller's client was modified: timeout %s", shared.Timeout)
	}
	if NewClient(WithHTTPClient(shared)).Timeout() != time.Minute {
		t.Error("without WithTimeout the supplied client's timeout is kept")
	}
}
