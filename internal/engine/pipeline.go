package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/alertstack/triage-engine/internal/config"
	"github.com/alertstack/triage-engine/internal/models"
	"github.com/alertstack/triage-engine/internal/patterns"
)

// Pipeline orchestrates the triage flow: correlation, temporal
// classification, priority, hypotheses, evidence, decision and confidence.
type Pipeline struct {
	logger     *slog.Logger
	correlator *Correlator
	priority   *Prioritizer
	hypotheses *HypothesisGenerator
	evidence   *EvidenceCollector
	decisions  *DecisionEngine
	confidence *ConfidenceScorer
	learning   patterns.LearningStore
}

// NewPipeline constructs the full triage pipeline. The learning store may be
// nil; outcomes are then not recorded.
func NewPipeline(cfg *config.Config, table *patterns.Table, learning patterns.LearningStore, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		logger:     logger,
		correlator: NewCorrelator(logger),
		priority:   NewPrioritizer(cfg.Thresholds, cfg.Resources),
		hypotheses: NewHypothesisGenerator(table, logger),
		evidence:   NewEvidenceCollector(cfg.Thresholds, logger),
		decisions:  NewDecisionEngine(table, logger),
		confidence: NewConfidenceScorer(cfg.Thresholds.PredictionCeiling),
		learning:   learning,
	}
}

// Analyze runs one question through the full triage flow. Data problems
// degrade the answer, they never abort it.
func (p *Pipeline) Analyze(ctx context.Context, req models.QueryRequest) (*models.QueryResponse, error) {
	answerType := ClassifyAnswerType(req.Question)

	clusters := p.correlator.Correlate(req.Alerts)
	ClassifyTemporal(clusters)
	p.priority.Assign(clusters)
	noise := Noise(len(req.Alerts), clusters)

	hypotheses := p.hypotheses.Generate(req.Alerts)

	evidence := make(map[string]models.EvidencePackage, len(hypotheses))
	for _, h := range hypotheses {
		evidence[h.ID] = p.evidence.Collect(h, req.Alerts, req.Metrics, req.TargetResource)
	}

	decision := p.decisions.Decide(hypotheses, evidence)

	confidence := p.scoreConfidence(hypotheses, evidence, decision, answerType)

	var risk *models.OutageRisk
	if answerType == models.AnswerPrediction && req.TargetResource != "" {
		r := OutageRisk(req.TargetResource, req.Alerts, clusters)
		risk = &r
	}

	resp := &models.QueryResponse{
		AnalysisID: uuid.New().String(),
		AnswerType: answerType,
		Decision:   decision,
		Confidence: confidence,
		Incidents:  clusters,
		Hypotheses: hypotheses,
		Noise:      noise,
		Risk:       risk,
	}
	resp.Answer = p.draftAnswer(req, resp)

	p.recordOutcome(ctx, decision)

	p.logger.Info("analysis complete",
		"analysis_id", resp.AnalysisID,
		"answer_type", answerType,
		"alerts", len(req.Alerts),
		"incidents", len(clusters),
		"pattern", decision.SelectedPattern,
		"certainty", decision.Certainty)
	return resp, nil
}

// TestHypothesis re-checks one generated hypothesis against extra alerts.
func (p *Pipeline) TestHypothesis(hypothesis models.Hypothesis, additional []models.Alert) models.HypothesisTest {
	return p.hypotheses.Test(hypothesis, additional)
}

// RecordFeedback stores operator confirmation for a past decision so the
// learning store can reweight the pattern.
func (p *Pipeline) RecordFeedback(ctx context.Context, patternID string, success bool) error {
	if p.learning == nil {
		return nil
	}
	return p.learning.RecordOutcome(ctx, patternID, success)
}

func (p *Pipeline) scoreConfidence(hypotheses []models.Hypothesis, evidence map[string]models.EvidencePackage, decision models.Decision, answerType models.AnswerType) models.ConfidenceReport {
	for _, h := range hypotheses {
		if h.PatternID == decision.SelectedPattern {
			return p.confidence.Score(h, evidence[h.ID], answerType)
		}
	}
	return models.ConfidenceReport{
		Level:          models.ConfidenceVeryLow,
		Recommendation: "Investigation inconclusive - escalate",
	}
}

func (p *Pipeline) recordOutcome(ctx context.Context, decision models.Decision) {
	if p.learning == nil || decision.Certainty == models.CertaintyInconclusive {
		return
	}
	success := decision.Certainty == models.CertaintyDefinitive || decision.Certainty == models.CertaintyProbable
	if err := p.learning.RecordOutcome(ctx, decision.SelectedPattern, success); err != nil {
		p.logger.Warn("failed to record triage outcome", slog.Any("error", err))
	}
}

// draftAnswer renders the pre-audit answer text for the detected answer
// type. Audience formatting and the audit gate run downstream.
func (p *Pipeline) draftAnswer(req models.QueryRequest, resp *models.QueryResponse) string {
	switch resp.AnswerType {
	case models.AnswerCount:
		return p.draftCountAnswer(req, resp)
	case models.AnswerPrediction:
		return p.draftPredictionAnswer(req, resp)
	default:
		return p.draftDiagnosisAnswer(req, resp)
	}
}

func (p *Pipeline) draftCountAnswer(req models.QueryRequest, resp *models.QueryResponse) string {
	question := strings.ToLower(req.Question)
	critical := 0
	for _, alert := range req.Alerts {
		if alert.Severity == models.SeverityCritical {
			critical++
		}
	}

	if strings.Contains(question, "critical") {
		return fmt.Sprintf("%d CRITICAL alerts observed across %d incidents.",
			critical, resp.Noise.UniqueIncidents)
	}
	if strings.Contains(question, "incident") {
		return fmt.Sprintf("%d distinct incidents identified from %d alerts.",
			resp.Noise.UniqueIncidents, resp.Noise.TotalAlerts)
	}
	return fmt.Sprintf("%d alerts analyzed, %d of them CRITICAL, collapsing into %d incidents.",
		resp.Noise.TotalAlerts, critical, resp.Noise.UniqueIncidents)
}

func (p *Pipeline) draftPredictionAnswer(req models.QueryRequest, resp *models.QueryResponse) string {
	if resp.Risk == nil {
		return "Insufficient data to estimate outage risk. No resource specified or no history available."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Outage risk for %s is estimated at %d/100 (%s). This is a probabilistic indicator, not a guarantee.",
		resp.Risk.Resource, resp.Risk.Score, resp.Risk.Level)
	for _, reason := range resp.Risk.Reasons {
		b.WriteString(" ")
		b.WriteString(reason)
		b.WriteString(".")
	}
	return b.String()
}

func (p *Pipeline) draftDiagnosisAnswer(req models.QueryRequest, resp *models.QueryResponse) string {
	var b strings.Builder
	if req.TargetResource != "" {
		fmt.Fprintf(&b, "Analysis for %s: ", strings.ToUpper(req.TargetResource))
	}
	b.WriteString(resp.Decision.Rationale)
	b.WriteString(".")
	fmt.Fprintf(&b, " Certainty: %s. Urgency: %s.", resp.Decision.Certainty, resp.Decision.Urgency)
	if resp.Decision.Recommendation != "" {
		fmt.Fprintf(&b, " Recommended: %s.", resp.Decision.Recommendation)
	}
	if top := topIncident(resp.Incidents); top != nil {
		fmt.Fprintf(&b, " Leading incident: %s on %s (%d alerts, %s, %s).",
			top.Signature.ErrorSignature, top.Resource, top.AlertCount(), top.Pattern, top.Priority)
	}
	return b.String()
}

func topIncident(clusters []*models.IncidentCluster) *models.IncidentCluster {
	if len(clusters) == 0 {
		return nil
	}
	return clusters[0]
}

// ClassifyAnswerType infers what shape of claim the question demands.
func ClassifyAnswerType(question string) models.AnswerType {
	q := strings.ToLower(question)

	countMarkers := []string{"how many", "count", "number of", "total alerts"}
	for _, marker := range countMarkers {
		if strings.Contains(q, marker) {
			return models.AnswerCount
		}
	}

	predictionMarkers := []string{"will ", "predict", "going to", "outage risk", "fail next", "about to fail", "likely to fail"}
	for _, marker := range predictionMarkers {
		if strings.Contains(q, marker) {
			return models.AnswerPrediction
		}
	}

	return models.AnswerDiagnosis
}
