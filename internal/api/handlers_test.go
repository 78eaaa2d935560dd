package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alertstack/triage-engine/internal/audit"
	"github.com/alertstack/triage-engine/internal/config"
	"github.com/alertstack/triage-engine/internal/engine"
	"github.com/alertstack/triage-engine/internal/models"
	"github.com/alertstack/triage-engine/internal/patterns"
	"github.com/alertstack/triage-engine/internal/services"
	"github.com/alertstack/triage-engine/internal/session"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Default()

	table, err := patterns.NewTable("", nil)
	if err != nil {
		t.Fatalf("pattern table: %v", err)
	}
	pipeline := engine.NewPipeline(&cfg, table, nil, nil)
	auditor := audit.NewEngine(cfg.Thresholds, cfg.Resources, nil)
	sessions, err := session.NewStore(cfg.Sessions, auditor.NewRegister, nil)
	if err != nil {
		t.Fatalf("session store: %v", err)
	}
	service := services.NewTriageService(nil, nil, pipeline, auditor, sessions)

	return NewServer(cfg.Server, service, nil)
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestAskEndpoint(t *testing.T) {
	srv := newTestServer(t)

	now := time.Now()
	alerts := make([]map[string]any, 0, 12)
	for i := 0; i < 12; i++ {
		alerts = append(alerts, map[string]any{
			"timestamp":   now.Add(time.Duration(i) * time.Second).Format(time.RFC3339),
			"resource_id": "PRODDB1",
			"severity":    "CRITICAL",
			"message":     "ORA-01653: unable to extend table SALES.ORDERS",
		})
	}

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/ask", map[string]any{
		"question":        "what is wrong with PRODDB1",
		"target_resource": "PRODDB1",
		"alerts":          alerts,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp models.QueryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Answer == "" {
		t.Fatalf("empty answer")
	}
	if resp.SessionID == "" {
		t.Fatalf("session id not allocated")
	}
	if resp.Noise.TotalAlerts != 12 {
		t.Fatalf("alerts not passed through: %d", resp.Noise.TotalAlerts)
	}
}

func TestAskRequiresQuestion(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/ask", map[string]any{
		"target_resource": "PRODDB1",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestAskRejectsMalformedWindow(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/ask", map[string]any{
		"question": "how many alerts",
		"start":    "yesterday",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestResetSession(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/ask", map[string]any{
		"session_id": "sess-reset",
		"question":   "how many alerts are there",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("ask status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/sessions/sess-reset", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("stats status = %d", rec.Code)
	}
	var stats struct {
		Queries int `json:"queries"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.Queries != 1 {
		t.Fatalf("queries = %d, want 1", stats.Queries)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/sessions/sess-reset/reset", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("reset status = %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/sessions/never-created/reset", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("reset of unknown session status = %d", rec.Code)
	}
}

func TestHypothesisTestRequiresPattern(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/hypotheses/test", map[string]any{
		"hypothesis": map[string]any{"id": "h-1"},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestFeedback(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/feedback", map[string]any{
		"pattern_id": "TABLESPACE_EXHAUSTION",
		"success":    true,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/feedback", map[string]any{"success": true})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("status field = %q", body["status"])
	}
}
