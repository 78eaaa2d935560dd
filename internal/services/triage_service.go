package services

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/alertstack/triage-engine/internal/audit"
	"github.com/alertstack/triage-engine/internal/metrics"
	"github.com/alertstack/triage-engine/internal/models"
	"github.com/alertstack/triage-engine/internal/repo"
	"github.com/alertstack/triage-engine/internal/report"
	"github.com/alertstack/triage-engine/internal/session"
	"github.com/alertstack/triage-engine/internal/utils"
)

// Analyzer runs the diagnostic pipeline for one question.
type Analyzer interface {
	Analyze(ctx context.Context, req models.QueryRequest) (*models.QueryResponse, error)
	TestHypothesis(hypothesis models.Hypothesis, additional []models.Alert) models.HypothesisTest
	RecordFeedback(ctx context.Context, patternID string, success bool) error
}

var followUpRe = regexp.MustCompile(`\b(it|this|that|again|still)\b`)

// TriageService orchestrates one question end to end: session resolution,
// data materialization, pipeline analysis, the self-audit gate, and audience
// formatting.
type TriageService struct {
	logger    *slog.Logger
	source    repo.AlertSource
	pipeline  Analyzer
	auditor   *audit.Engine
	sessions  *session.Store
	formatter *report.Formatter
	latencies *utils.LatencyTracker
}

// NewTriageService constructs the service facade.
func NewTriageService(logger *slog.Logger, source repo.AlertSource, pipeline Analyzer, auditor *audit.Engine, sessions *session.Store) *TriageService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TriageService{
		logger:    logger,
		source:    source,
		pipeline:  pipeline,
		auditor:   auditor,
		sessions:  sessions,
		formatter: report.NewFormatter(),
		latencies: utils.NewLatencyTracker(1024),
	}
}

// Ask answers one question. Data may be shipped inline on the request;
// otherwise it is fetched from the configured source for the given window.
func (s *TriageService) Ask(ctx context.Context, req models.QueryRequest, start, end time.Time) (*models.QueryResponse, error) {
	if s.pipeline == nil {
		return nil, utils.NewAppError("triage.ask", "pipeline not configured", nil)
	}

	sess := s.sessions.GetOrCreate(req.SessionID)
	req.SessionID = sess.ID
	req.Context = sess.Context()

	s.resolveTarget(&req, sess)

	if err := s.materialize(ctx, &req, start, end); err != nil {
		return nil, err
	}

	began := time.Now()
	resp, err := s.pipeline.Analyze(ctx, req)
	duration := time.Since(began)
	if err != nil {
		metrics.ObserveQuery(duration, metrics.OutcomeError)
		s.logger.Error("pipeline analysis failed", slog.Any("error", err))
		return nil, utils.NewAppError("triage.ask", "analysis failed", err)
	}
	s.latencies.Observe(duration)
	metrics.ObserveQuery(duration, metrics.OutcomeSuccess)
	if count := s.latencies.Count(); count >= 20 && count%20 == 0 {
		s.logger.Info("query latency", slog.Duration("p95", s.latencies.Percentile(95)), slog.Int("samples", count))
	}

	outcome := s.auditor.Review(sess.Facts, audit.Input{
		Question:  req.Question,
		Answer:    resp.Answer,
		DataCount: len(req.Alerts) + len(req.Metrics),
		Target:    req.TargetResource,
		Count:     countForAudit(req, resp),
	})
	resp.SessionID = sess.ID
	resp.Answer = outcome.Answer
	resp.Audit = outcome.Report
	for _, v := range outcome.Report.Violations {
		metrics.CountAuditViolation(violationKind(v))
	}

	// Audience rendering never applies in strict mode: a bare-number answer
	// must leave exactly as the audit gate produced it.
	if req.Audience != "" && resp.Audit.TrustMode != models.TrustStrict {
		resp.Answer = s.formatter.Format(req.Audience, resp)
	}

	sess.UpdateContext(req.TargetResource, resp.Decision.SelectedPattern, findings(resp))
	metrics.SetActiveSessions(s.sessions.Len())

	return resp, nil
}

// TestHypothesis re-evaluates a hypothesis against additional alerts.
func (s *TriageService) TestHypothesis(hypothesis models.Hypothesis, additional []models.Alert) models.HypothesisTest {
	return s.pipeline.TestHypothesis(hypothesis, additional)
}

// RecordFeedback forwards operator confirmation of a diagnosis to the
// learning store.
func (s *TriageService) RecordFeedback(ctx context.Context, patternID string, success bool) error {
	if err := s.pipeline.RecordFeedback(ctx, patternID, success); err != nil {
		return utils.NewAppError("triage.feedback", "feedback not recorded", err)
	}
	return nil
}

// SessionStats summarises one conversation's audit bookkeeping.
type SessionStats struct {
	SessionID   string    `json:"session_id"`
	Queries     int       `json:"queries"`
	Facts       int       `json:"facts"`
	Corrections int       `json:"corrections"`
	CreatedAt   time.Time `json:"created_at"`
}

// SessionStats reports counters for a live session.
func (s *TriageService) SessionStats(id string) (SessionStats, bool) {
	sess, ok := s.sessions.Get(id)
	if !ok {
		return SessionStats{}, false
	}
	return SessionStats{
		SessionID:   sess.ID,
		Queries:     sess.Queries(),
		Facts:       sess.Facts.Len(),
		Corrections: len(sess.Facts.Corrections()),
		CreatedAt:   sess.CreatedAt,
	}, true
}

// ResetSession clears a conversation's facts and context.
func (s *TriageService) ResetSession(id string) bool {
	ok := s.sessions.Reset(id)
	metrics.SetActiveSessions(s.sessions.Len())
	return ok
}

// LatencyP95 returns the current p95 query latency.
func (s *TriageService) LatencyP95() time.Duration {
	return s.latencies.Percentile(95)
}

func (s *TriageService) resolveTarget(req *models.QueryRequest, sess *session.Session) {
	if req.TargetResource != "" {
		return
	}
	if target := s.auditor.Scopes().ExtractTarget(req.Question); target != "" {
		req.TargetResource = target
		return
	}
	// follow-up questions inherit the previous turn's target
	if followUpRe.MatchString(strings.ToLower(req.Question)) {
		req.TargetResource = sess.Context().LastTarget
	}
}

func (s *TriageService) materialize(ctx context.Context, req *models.QueryRequest, start, end time.Time) error {
	if len(req.Alerts) > 0 || s.source == nil {
		return nil
	}
	alerts, err := s.source.FetchAlerts(ctx, req.TargetResource, start, end)
	if err != nil {
		return utils.NewAppError("triage.materialize", "alert fetch failed", err)
	}
	req.Alerts = alerts

	metricsData, err := s.source.FetchMetrics(ctx, req.TargetResource, start, end)
	if err != nil {
		// metrics only sharpen evidence; analysis proceeds without them
		s.logger.Warn("metric fetch failed", slog.Any("error", err))
		return nil
	}
	req.Metrics = metricsData
	return nil
}

// countForAudit extracts the numeric claim a count answer makes, so the
// audit stage can check it against conversation facts.
func countForAudit(req models.QueryRequest, resp *models.QueryResponse) *float64 {
	if resp.AnswerType != models.AnswerCount {
		return nil
	}
	question := strings.ToLower(req.Question)
	var value float64
	switch {
	case strings.Contains(question, "critical"):
		for _, alert := range req.Alerts {
			if alert.Severity == models.SeverityCritical {
				value++
			}
		}
	case strings.Contains(question, "incident"):
		value = float64(resp.Noise.UniqueIncidents)
	default:
		value = float64(resp.Noise.TotalAlerts)
	}
	return &value
}

func violationKind(violation string) string {
	if idx := strings.Index(violation, ":"); idx > 0 {
		return violation[:idx]
	}
	return "UNKNOWN"
}

func findings(resp *models.QueryResponse) []string {
	var out []string
	for _, item := range resp.Decision.PrimaryEvidence {
		out = append(out, item.Description)
		if len(out) == 3 {
			break
		}
	}
	return out
}
