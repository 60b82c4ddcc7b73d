package config

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fre_viewer/pkg/core/agent"
)

func TestHandleConfig_GetAndSwitch(t *testing.T) {
	h := NewHandler(agent.NewManager(agent.Config{ActiveProvider: "gemini"}), "llm")

	rec := httptest.NewRecorder()
	h.HandleConfig(rec, httptest.NewRequest(http.MethodGet, "/api/config", nil))
	var resp Response
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.ActiveProvider != "gemini" || len(resp.Available) != 4 || resp.Backend != "llm" {
		t.Errorf("unexpected state %+v", resp)
	}

	rec = httptest.NewRecorder()
	h.HandleConfig(rec, httptest.NewRequest(http.MethodPost, "/api/config", strings.NewReader(`{"provider":"qwen"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if h.AgentMgr.GetActiveProvider() != "qwen" {
		t.Errorf("expected qwen, got %s", h.AgentMgr.GetActiveProvider())
	}

	rec = httptest.NewRecorder()
	h.HandleConfig(rec, httptest.NewRequest(http.MethodPost, "/api/config", strings.NewReader(`{"provider":"openai"}`)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown provider, got %d", rec.Code)
	}
}
