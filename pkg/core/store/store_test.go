package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"fre_viewer/pkg/models"
)

func TestSummaryCache_FileRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewSummaryCache(nil, t.TempDir())

	got, err := c.Get(ctx, "131398", "8.4", "llm:gemini")
	if err != nil || got != nil {
		t.Fatalf("expected clean miss, got %v, %v", got, err)
	}

	s := models.Summary{Company: "VALE S.A.", Item: "8.4", SequentialID: "131398", Text: "Resumo", Backend: "llm:gemini"}
	if err := c.Put(ctx, s); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err = c.Get(ctx, "131398", "8.4", "llm:gemini")
	if err != nil || got == nil || got.Text != "Resumo" {
		t.Fatalf("expected hit, got %+v, %v", got, err)
	}
	if other, _ := c.Get(ctx, "131398", "8.4", "extractive"); other != nil {
		t.Error("entries must be keyed by backend")
	}
}

func TestSummaryCache_RequiresSequentialID(t *testing.T) {
	c := NewSummaryCache(nil, t.TempDir())
	if err := c.Put(context.Background(), models.Summary{Text: "x"}); err == nil {
		t.Error("expected error without sequential id")
	}
}

func TestSummaryCache_PathIsSanitized(t *testing.T) {
	c := NewSummaryCache(nil, "/tmp/cache")
	p := c.path("../../etc", "8.4", "llm:x/y")
	if p != "/tmp/cache/..-..-etc_8.4_llm-x-y.json" {
		t.Errorf("unexpected path %s", p)
	}
}

func TestHistoryRepo_NoPool(t *testing.T) {
	r := NewHistoryRepo(nil)
	if err := r.Record(context.Background(), models.DocumentRequest{}); err == nil {
		t.Error("expected error without pool")
	}
	if _, err := r.ListRecent(context.Background(), "", 10); err == nil {
		t.Error("expected error without pool")
	}
}

func TestWithDefaults(t *testing.T) {
	req := withDefaults(models.DocumentRequest{ID: "not-a-uuid"})
	if _, err := uuid.Parse(req.ID); err != nil {
		t.Errorf("expected generated uuid, got %q", req.ID)
	}
	if time.Since(req.RequestedAt) > time.Minute {
		t.Errorf("expected RequestedAt to be set, got %v", req.RequestedAt)
	}

	id := uuid.NewString()
	if got := withDefaults(models.DocumentRequest{ID: id}); got.ID != id {
		t.Errorf("valid id must be kept, got %s", got.ID)
	}
}
