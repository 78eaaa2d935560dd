package engine

import (
	"strings"
	"testing"

	"github.com/alertstack/triage-engine/internal/models"
)

func strongPackage(id, pattern string) models.EvidencePackage {
	return models.EvidencePackage{
		HypothesisID: id,
		PatternID:    pattern,
		Strength:     models.EvidenceStrong,
		Items: []models.EvidenceItem{
			{Source: "ora_error", Description: "ORA-1653 occurred 47 times", Weight: 1.4, Relevance: "PRIMARY"},
			{Source: "alert_count", Description: "1,200 total alerts in dataset", Weight: 1.2},
			{Source: "metric_threshold", Description: "storage peaked at 98.7", Weight: 0.85},
		},
		TotalWeight:     3.45,
		ConfidenceBoost: 0.15,
	}
}

func TestDecideDefinitive(t *testing.T) {
	d := NewDecisionEngine(testTable(t), nil)
	hypotheses := []models.Hypothesis{
		{ID: "H1", PatternID: "TABLESPACE_EXHAUSTION", Probability: 0.9, EvidenceFor: []string{"ORA-1653 found 47 times"}},
		{ID: "H2", PatternID: "IO_BOTTLENECK", Probability: 0.2},
	}
	evidence := map[string]models.EvidencePackage{
		"H1": strongPackage("H1", "TABLESPACE_EXHAUSTION"),
		"H2": {HypothesisID: "H2", PatternID: "IO_BOTTLENECK", Strength: models.EvidenceInsufficient},
	}

	decision := d.Decide(hypotheses, evidence)
	if decision.SelectedPattern != "TABLESPACE_EXHAUSTION" {
		t.Fatalf("selected = %s", decision.SelectedPattern)
	}
	if decision.Certainty != models.CertaintyDefinitive {
		t.Fatalf("certainty = %s, want DEFINITIVE (score %v)", decision.Certainty, decision.Confidence)
	}
	if decision.Urgency != models.UrgencyHigh {
		t.Fatalf("urgency = %s, want HIGH", decision.Urgency)
	}
	if !strings.Contains(decision.Rationale, "Selected Tablespace Exhaustion") {
		t.Fatalf("rationale missing selection: %s", decision.Rationale)
	}
	if !strings.Contains(decision.Rationale, "Key evidence") {
		t.Fatalf("rationale missing evidence: %s", decision.Rationale)
	}
}

func TestDecideCloseAlternativeBlocksDefinitive(t *testing.T) {
	d := NewDecisionEngine(testTable(t), nil)
	hypotheses := []models.Hypothesis{
		{ID: "H1", PatternID: "TABLESPACE_EXHAUSTION", Probability: 0.9},
		{ID: "H2", PatternID: "UNDO_PRESSURE", Probability: 0.85},
	}
	evidence := map[string]models.EvidencePackage{
		"H1": strongPackage("H1", "TABLESPACE_EXHAUSTION"),
		"H2": strongPackage("H2", "UNDO_PRESSURE"),
	}

	decision := d.Decide(hypotheses, evidence)
	if decision.Certainty == models.CertaintyDefinitive {
		t.Fatalf("close alternative should block DEFINITIVE")
	}
	if len(decision.Alternatives) == 0 {
		t.Fatalf("expected alternatives listed")
	}
	if !strings.Contains(decision.Rationale, "Ruled out") {
		t.Fatalf("rationale should name ruled-out candidates: %s", decision.Rationale)
	}
}

func TestDecideContradictionPenalty(t *testing.T) {
	d := NewDecisionEngine(testTable(t), nil)
	h := []models.Hypothesis{{ID: "H1", PatternID: "TABLESPACE_EXHAUSTION", Probability: 0.9}}

	clean := strongPackage("H1", "TABLESPACE_EXHAUSTION")
	contradicted := strongPackage("H1", "TABLESPACE_EXHAUSTION")
	contradicted.Contradictions = []string{"Recovery indicator: CLEAR", "Storage at 30% - not critically full"}

	cleanScore := d.Decide(h, map[string]models.EvidencePackage{"H1": clean}).Confidence
	penalized := d.Decide(h, map[string]models.EvidencePackage{"H1": contradicted}).Confidence
	if penalized >= cleanScore {
		t.Fatalf("contradictions should lower score: %v vs %v", penalized, cleanScore)
	}
}

func TestDecideEmptyHypotheses(t *testing.T) {
	d := NewDecisionEngine(testTable(t), nil)

	decision := d.Decide(nil, nil)
	if decision.Certainty != models.CertaintyInconclusive {
		t.Fatalf("certainty = %s, want INCONCLUSIVE", decision.Certainty)
	}
	if decision.Recommendation == "" {
		t.Fatalf("inconclusive decision needs a recommendation")
	}
	if decision.Urgency != models.UrgencyLow {
		t.Fatalf("urgency = %s, want LOW", decision.Urgency)
	}
}

func TestDecideCriticalPatternUrgency(t *testing.T) {
	d := NewDecisionEngine(testTable(t), nil)
	hypotheses := []models.Hypothesis{{ID: "H1", PatternID: "INTERNAL_ERROR", Probability: 0.5}}
	evidence := map[string]models.EvidencePackage{
		"H1": {HypothesisID: "H1", PatternID: "INTERNAL_ERROR", Strength: models.EvidenceWeak},
	}

	decision := d.Decide(hypotheses, evidence)
	if decision.Urgency != models.UrgencyCritical {
		t.Fatalf("internal errors are always critical urgency, got %s", decision.Urgency)
	}
}

func TestConfidenceScorer(t *testing.T) {
	s := NewConfidenceScorer(0.60)
	h := models.Hypothesis{ID: "H1", PatternID: "TABLESPACE_EXHAUSTION", Probability: 0.9}
	pkg := strongPackage("H1", "TABLESPACE_EXHAUSTION")

	report := s.Score(h, pkg, models.AnswerDiagnosis)
	if report.Level == models.ConfidenceVeryLow {
		t.Fatalf("strong evidence should not be VERY_LOW: %+v", report)
	}
	if report.Capped {
		t.Fatalf("diagnosis answers are never capped")
	}

	capped := s.Score(h, pkg, models.AnswerPrediction)
	if !capped.Capped {
		t.Fatalf("prediction should be capped: %+v", capped)
	}
	if capped.Score > 0.59+1e-9 {
		t.Fatalf("capped score = %v, want <= 0.59", capped.Score)
	}
}

func TestConfidenceLevels(t *testing.T) {
	cases := []struct {
		score float64
		want  models.ConfidenceLevel
	}{
		{0.85, models.ConfidenceHigh},
		{0.65, models.ConfidenceMedium},
		{0.45, models.ConfidenceLow},
		{0.10, models.ConfidenceVeryLow},
	}
	for _, tc := range cases {
		if got := confidenceLevel(tc.score); got != tc.want {
			t.Errorf("level(%v) = %s, want %s", tc.score, got, tc.want)
		}
	}
}
