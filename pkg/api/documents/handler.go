// Package documents exposes the FRE pipeline over HTTP.
package documents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"fre_viewer/pkg/core/pipeline"
	"fre_viewer/pkg/core/utils"
	"fre_viewer/pkg/models"
)

// SessionHeader lets an interactive client opt into supersede semantics: a newer
// request with the same header value cancels the older one.
const SessionHeader = "X-FRE-Session"

const (
	// DefaultSessionTTL is how long an idle session is kept.
	DefaultSessionTTL = 15 * time.Minute
	// DefaultMaxSessions caps the number of tracked sessions.
	DefaultMaxSessions = 1024
)

type sessionEntry struct {
	s        *pipeline.Session
	lastUsed time.Time
}

// Handler holds dependencies for document endpoints
type Handler struct {
	Pipeline    *pipeline.Orchestrator
	SessionTTL  time.Duration
	MaxSessions int

	mu       sync.Mutex
	sessions map[string]*sessionEntry
	now      func() time.Time
}

// NewHandler creates a new documents handler
func NewHandler(p *pipeline.Orchestrator) *Handler {
	return &Handler{
		Pipeline:    p,
		SessionTTL:  DefaultSessionTTL,
		MaxSessions: DefaultMaxSessions,
		sessions:    make(map[string]*sessionEntry),
		now:         time.Now,
	}
}

// Register mounts every endpoint on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/companies", h.HandleCompanies)
	mux.HandleFunc("/api/items", h.HandleItems)
	mux.HandleFunc("/api/document", h.HandleDocument)
	mux.HandleFunc("/api/document/url", h.HandleDocumentURL)
	mux.HandleFunc("/api/summary", h.HandleSummary)
	mux.HandleFunc("/api/enrichment", h.HandleEnrichment)
	mux.HandleFunc("/api/catalog/refresh", h.HandleRefresh)
	mux.HandleFunc("/api/history", h.HandleHistory)
	mux.HandleFunc("/api/session", h.HandleSession)
}

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

type SummaryRequest struct {
	Company string            `json:"company"`
	Item    models.ReportItem `json:"item"`
}

type SummaryResponse struct {
	Company   string            `json:"company"`
	Item      models.ReportItem `json:"item"`
	Backend   string            `json:"backend"`
	Summary   string            `json:"summary"`
	KeyPoints []string          `json:"key_points,omitempty"`
	HTML      string            `json:"html"`
}

func cors(w http.ResponseWriter, methods string) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", methods)
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+SessionHeader)
}

// preflight writes CORS headers and reports whether the request is done (OPTIONS) or
// was rejected for its method.
func preflight(w http.ResponseWriter, r *http.Request, method string) bool {
	cors(w, method+", OPTIONS")
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return true
	}
	if r.Method != method {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return true
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	outcome := pipeline.Outcome(err)
	writeJSON(w, StatusFor(outcome), errorResponse{Error: err.Error(), Reason: outcome})
}

// StatusFor maps a pipeline outcome to an HTTP status.
func StatusFor(outcome string) int {
	switch outcome {
	case pipeline.OutcomeOK:
		return http.StatusOK
	case pipeline.OutcomeNotFound, pipeline.OutcomeLinkAbsent, pipeline.OutcomeFieldMissing:
		return http.StatusNotFound
	case pipeline.OutcomeUnknownItem:
		return http.StatusBadRequest
	case pipeline.OutcomeHTTPError, pipeline.OutcomeDecodeError:
		return http.StatusBadGateway
	case pipeline.OutcomeTimeout:
		return http.StatusGatewayTimeout
	case pipeline.OutcomeDataUnavailable, pipeline.OutcomeNoSummary:
		return http.StatusServiceUnavailable
	case pipeline.OutcomeSuperseded:
		return http.StatusConflict
	case pipeline.OutcomeCanceled:
		return 499 // client closed request
	}
	return http.StatusInternalServerError
}

func documentParams(r *http.Request) (string, models.ReportItem, error) {
	company := strings.TrimSpace(r.URL.Query().Get("company"))
	item := models.ReportItem(strings.TrimSpace(r.URL.Query().Get("item")))
	if company == "" || item == "" {
		return "", "", fmt.Errorf("company and item are required")
	}
	return company, item, nil
}

// session returns the Session named by the request header, creating it if needed.
// It returns nil without a header, or when every tracked session is busy and the
// cap is reached; such requests run without supersede semantics.
func (h *Handler) session(r *http.Request) *pipeline.Session {
	id := strings.TrimSpace(r.Header.Get(SessionHeader))
	if id == "" {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	now := h.now()
	if e, ok := h.sessions[id]; ok {
		e.lastUsed = now
		return e.s
	}

	h.evictLocked(now)
	if h.MaxSessions > 0 && len(h.sessions) >= h.MaxSessions {
		log.Printf("[API] Session limit %d reached, serving %q without a session", h.MaxSessions, id)
		return nil
	}
	e := &sessionEntry{s: h.Pipeline.NewSession(), lastUsed: now}
	h.sessions[id] = e
	return e.s
}

// touch marks a session as used when its request finishes, so the TTL runs from
// the end of the last request.
func (h *Handler) touch(r *http.Request) {
	id := strings.TrimSpace(r.Header.Get(SessionHeader))
	if id == "" {
		return
	}
	h.mu.Lock()
	if e, ok := h.sessions[id]; ok {
		e.lastUsed = h.now()
	}
	h.mu.Unlock()
}

// evictLocked drops idle sessions past their TTL. If the map is still full, the least
// recently used idle session goes too. Busy sessions are never evicted.
func (h *Handler) evictLocked(now time.Time) {
	for id, e := range h.sessions {
		if h.SessionTTL > 0 && now.Sub(e.lastUsed) > h.SessionTTL && !e.s.Busy() {
			delete(h.sessions, id)
		}
	}
	if h.MaxSessions <= 0 || len(h.sessions) < h.MaxSessions {
		return
	}
	oldest := ""
	for id, e := range h.sessions {
		if e.s.Busy() {
			continue
		}
		if oldest == "" || e.lastUsed.Before(h.sessions[oldest].lastUsed) {
			oldest = id
		}
	}
	if oldest != "" {
		delete(h.sessions, oldest)
	}
}

// SessionCount is the number of tracked sessions.
func (h *Handler) SessionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

func (h *Handler) getDocument(ctx context.Context, r *http.Request, company string, item models.ReportItem) (*models.Artifact, error) {
	if s := h.session(r); s != nil {
		defer h.touch(r)
		return s.GetDocument(ctx, company, item)
	}
	return h.Pipeline.GetDocument(ctx, company, item)
}

func (h *Handler) HandleCompanies(w http.ResponseWriter, r *http.Request) {
	if preflight(w, r, http.MethodGet) {
		return
	}
	companies, err := h.Pipeline.ListCompanies(r.Context())
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"companies": companies,
			"count":     0,
			"error":     err.Error(),
			"reason":    pipeline.Outcome(err),
		})
		return
	}
	if q := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("q"))); q != "" {
		filtered := companies[:0]
		for _, c := range companies {
			if strings.Contains(c, q) {
				filtered = append(filtered, c)
			}
		}
		companies = filtered
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"companies": companies, "count": len(companies)})
}

func (h *Handler) HandleItems(w http.ResponseWriter, r *http.Request) {
	if preflight(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": h.Pipeline.Items()})
}

// HandleDocument streams the PDF. ?inline=1 asks the browser to display it.
func (h *Handler) HandleDocument(w http.ResponseWriter, r *http.Request) {
	if preflight(w, r, http.MethodGet) {
		return
	}
	company, item, err := documentParams(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Reason: "bad_request"})
		return
	}

	artifact, err := h.getDocument(r.Context(), r, company, item)
	if err != nil {
		writeError(w, err)
		return
	}

	disposition := "attachment"
	if r.URL.Query().Get("inline") == "1" {
		disposition = "inline"
	}
	w.Header().Set("Content-Type", artifact.MIMEType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, artifact.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(artifact.Size()))
	w.Header().Set("X-FRE-Source-URL", artifact.Variant.URL)
	w.WriteHeader(http.StatusOK)
	w.Write(artifact.Data)
}

func (h *Handler) HandleDocumentURL(w http.ResponseWriter, r *http.Request) {
	if preflight(w, r, http.MethodGet) {
		return
	}
	company, item, err := documentParams(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Reason: "bad_request"})
		return
	}
	variant, rec, err := h.Pipeline.ResolveVariant(r.Context(), company, item)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"variant": variant, "record": rec})
}

func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	if preflight(w, r, http.MethodPost) {
		return
	}
	var req SummaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Company) == "" || req.Item == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "company and item are required", Reason: "bad_request"})
		return
	}

	artifact, err := h.getDocument(r.Context(), r, req.Company, req.Item)
	if err != nil {
		writeError(w, err)
		return
	}

	var s *models.Summary
	if sess := h.session(r); sess != nil {
		s, err = sess.Summarize(r.Context(), artifact)
		h.touch(r)
	} else {
		s, err = h.Pipeline.Summarize(r.Context(), artifact)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	markdown := s.Text
	if len(s.KeyPoints) > 0 {
		markdown += "\n\n- " + strings.Join(s.KeyPoints, "\n- ")
	}
	html, err := utils.RenderMarkdownHTML(markdown)
	if err != nil {
		log.Printf("[API] Markdown render failed: %v", err)
	}
	writeJSON(w, http.StatusOK, SummaryResponse{
		Company:   s.Company,
		Item:      s.Item,
		Backend:   s.Backend,
		Summary:   s.Text,
		KeyPoints: s.KeyPoints,
		HTML:      html,
	})
}

func (h *Handler) HandleEnrichment(w http.ResponseWriter, r *http.Request) {
	if preflight(w, r, http.MethodGet) {
		return
	}
	company := strings.TrimSpace(r.URL.Query().Get("company"))
	if company == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "company is required", Reason: "bad_request"})
		return
	}
	rows, err := h.Pipeline.Enrichment(r.Context(), company)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"company": company, "rows": rows})
}

func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	if preflight(w, r, http.MethodPost) {
		return
	}
	n, err := h.Pipeline.Refresh(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"companies": n})
}

func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	if preflight(w, r, http.MethodGet) {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	list, err := h.Pipeline.RecentRequests(r.Context(), r.URL.Query().Get("company"), limit)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, pipeline.ErrHistoryDisabled) {
			status = http.StatusNotImplemented
		}
		writeJSON(w, status, errorResponse{Error: err.Error(), Reason: "history_unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"requests": list})
}

// HandleSession ends a session: DELETE aborts its request in flight and forgets it.
func (h *Handler) HandleSession(w http.ResponseWriter, r *http.Request) {
	if preflight(w, r, http.MethodDelete) {
		return
	}
	id := strings.TrimSpace(r.Header.Get(SessionHeader))
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: SessionHeader + " header is required", Reason: "bad_request"})
		return
	}

	h.mu.Lock()
	e, ok := h.sessions[id]
	delete(h.sessions, id)
	h.mu.Unlock()

	if ok {
		e.s.Cancel()
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"session": id, "ended": ok})
}
