package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alertstack/triage-engine/internal/audit"
	"github.com/alertstack/triage-engine/internal/config"
	"github.com/alertstack/triage-engine/internal/models"
	"github.com/alertstack/triage-engine/internal/repo"
	"github.com/alertstack/triage-engine/internal/session"
)

type analyzerStub struct {
	lastReq models.QueryRequest
	resp    *models.QueryResponse
	err     error
}

func (a *analyzerStub) Analyze(_ context.Context, req models.QueryRequest) (*models.QueryResponse, error) {
	a.lastReq = req
	if a.err != nil {
		return nil, a.err
	}
	resp := *a.resp
	resp.Noise.TotalAlerts = len(req.Alerts)
	return &resp, nil
}

func (a *analyzerStub) TestHypothesis(models.Hypothesis, []models.Alert) models.HypothesisTest {
	return models.HypothesisTest{Outcome: models.TestUntestable}
}

func (a *analyzerStub) RecordFeedback(context.Context, string, bool) error {
	return nil
}

func newTestService(t *testing.T, stub *analyzerStub, source repo.AlertSource) *TriageService {
	t.Helper()
	cfg := config.Default()
	auditor := audit.NewEngine(cfg.Thresholds, cfg.Resources, nil)
	sessions, err := session.NewStore(cfg.Sessions, auditor.NewRegister, nil)
	if err != nil {
		t.Fatalf("session store: %v", err)
	}
	return NewTriageService(nil, source, stub, auditor, sessions)
}

func stubResponse() *models.QueryResponse {
	return &models.QueryResponse{
		AnalysisID: "a-1",
		Answer:     "Tablespace exhaustion on PRODDB1.",
		AnswerType: models.AnswerDiagnosis,
		Decision: models.Decision{
			SelectedPattern: "TABLESPACE_EXHAUSTION",
			Certainty:       models.CertaintyProbable,
			Urgency:         models.UrgencyHigh,
		},
		Confidence: models.ConfidenceReport{Score: 0.7, Level: models.ConfidenceMedium},
		Noise:      models.NoiseSummary{UniqueIncidents: 1},
	}
}

func TestAskFetchesDataAndAudits(t *testing.T) {
	source := &repo.StaticSource{
		Alerts: []models.Alert{
			{Timestamp: time.Now(), Resource: "PRODDB1", Severity: models.SeverityCritical, Message: "ORA-01653"},
		},
	}
	stub := &analyzerStub{resp: stubResponse()}
	svc := newTestService(t, stub, source)

	resp, err := svc.Ask(context.Background(), models.QueryRequest{
		Question:       "what is wrong?",
		TargetResource: "PRODDB1",
	}, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("ask: %v", err)
	}

	if len(stub.lastReq.Alerts) != 1 {
		t.Fatalf("alerts not materialized: %d", len(stub.lastReq.Alerts))
	}
	if !resp.Audit.Passed {
		t.Fatalf("audit should pass: %+v", resp.Audit)
	}
	if resp.AnalysisID != "a-1" {
		t.Fatalf("response not returned: %+v", resp)
	}
}

func TestAskStrictCountAnswerStaysBare(t *testing.T) {
	stub := &analyzerStub{resp: &models.QueryResponse{
		AnalysisID: "a-2",
		Answer:     "There are 165,837 CRITICAL alerts across 3 incidents.",
		AnswerType: models.AnswerCount,
		Noise:      models.NoiseSummary{UniqueIncidents: 3},
	}}
	svc := newTestService(t, stub, nil)

	alerts := make([]models.Alert, 4)
	for i := range alerts {
		alerts[i] = models.Alert{Resource: "DB1", Severity: models.SeverityCritical, Message: "x"}
	}

	resp, err := svc.Ask(context.Background(), models.QueryRequest{
		Question: "Give only the number of CRITICAL alerts",
		Audience: models.AudienceDBA,
		Alerts:   alerts,
	}, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if resp.Answer != "165837" {
		t.Fatalf("strict answer reformatted: %q", resp.Answer)
	}
	if resp.Audit.TrustMode != models.TrustStrict {
		t.Fatalf("trust mode = %s", resp.Audit.TrustMode)
	}
}

func TestAskFollowUpInheritsTarget(t *testing.T) {
	stub := &analyzerStub{resp: stubResponse()}
	svc := newTestService(t, stub, nil)

	first, err := svc.Ask(context.Background(), models.QueryRequest{
		Question:       "diagnose PRODDB1 please",
		TargetResource: "PRODDB1",
		Alerts:         []models.Alert{{Resource: "PRODDB1", Severity: models.SeverityWarning, Message: "x"}},
	}, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("first ask: %v", err)
	}

	_, err = svc.Ask(context.Background(), models.QueryRequest{
		SessionID: first.SessionID,
		Question:  "is it getting worse",
		Alerts:    []models.Alert{{Resource: "PRODDB1", Severity: models.SeverityWarning, Message: "x"}},
	}, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("second ask: %v", err)
	}
	if stub.lastReq.TargetResource != "PRODDB1" {
		t.Fatalf("follow-up target = %q, want PRODDB1", stub.lastReq.TargetResource)
	}
}

func TestAskPipelineErrorWrapped(t *testing.T) {
	stub := &analyzerStub{err: errors.New("boom")}
	svc := newTestService(t, stub, nil)

	_, err := svc.Ask(context.Background(), models.QueryRequest{Question: "q"}, time.Time{}, time.Time{})
	if err == nil || !strings.Contains(err.Error(), "analysis failed") {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestResetSession(t *testing.T) {
	stub := &analyzerStub{resp: stubResponse()}
	svc := newTestService(t, stub, nil)

	if _, err := svc.Ask(context.Background(), models.QueryRequest{
		SessionID: "s-1",
		Question:  "how many alerts",
		Alerts:    []models.Alert{{Resource: "DB1", Severity: models.SeverityInfo, Message: "x"}},
	}, time.Time{}, time.Time{}); err != nil {
		t.Fatalf("ask: %v", err)
	}

	if !svc.ResetSession("s-1") {
		t.Fatalf("reset should find session")
	}
	if svc.ResetSession("does-not-exist") {
		t.Fatalf("reset of unknown session should report false")
	}
}
