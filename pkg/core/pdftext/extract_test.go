package pdftext

import (
	"strings"
	"testing"
)

func TestExtract_RejectsGarbage(t *testing.T) {
	if _, err := Extract(nil, 0); err == nil {
		t.Error("expected error for empty document")
	}
	if _, err := Extract([]byte("definitely not a pdf"), 0); err == nil {
		t.Error("expected error for non-PDF bytes")
	}
	if _, err := Extract([]byte("%PDF-1.4\n%%EOF"), 0); err == nil {
		t.Error("expected error for truncated PDF")
	}
}

func TestTruncate_KeepsRuneBoundaries(t *testing.T) {
	s := "ação"
	for n := 0; n <= len(s)+1; n++ {
		got := truncate(s, n)
		if !strings.HasPrefix(s, got) {
			t.Fatalf("truncate(%q, %d) = %q is not a prefix", s, n, got)
		}
		if len(got) > n {
			t.Errorf("truncate(%q, %d) returned %d bytes", s, n, len(got))
		}
		if !isValidPrefix(got) {
			t.Errorf("truncate(%q, %d) split a rune: %q", s, n, got)
		}
	}
}

func isValidPrefix(s string) bool {
	for _, r := range s {
		if r == '�' {
			return false
		}
	}
	return true
}
