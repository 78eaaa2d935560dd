package engine

import (
	"testing"

	"github.com/alertstack/triage-engine/internal/models"
	"github.com/alertstack/triage-engine/internal/patterns"
)

func testTable(t *testing.T) *patterns.Table {
	t.Helper()
	table, err := patterns.NewTable("", nil)
	if err != nil {
		t.Fatalf("new table: %v", err)
	}
	return table
}

func tablespaceAlerts(n int, severity models.Severity) []models.Alert {
	alerts := make([]models.Alert, 0, n)
	for i := 0; i < n; i++ {
		alerts = append(alerts, models.Alert{
			Resource: "PRODDB",
			Severity: severity,
			Message:  "ORA-01653: unable to extend tablespace USERS",
		})
	}
	return alerts
}

func TestGenerateHypothesesRanksTablespaceFirst(t *testing.T) {
	gen := NewHypothesisGenerator(testTable(t), nil)

	hypotheses := gen.Generate(tablespaceAlerts(5, models.SeverityWarning))
	if len(hypotheses) == 0 {
		t.Fatalf("expected hypotheses")
	}
	if hypotheses[0].PatternID != "TABLESPACE_EXHAUSTION" {
		t.Fatalf("top hypothesis = %s, want TABLESPACE_EXHAUSTION", hypotheses[0].PatternID)
	}
	if hypotheses[0].ID != "H1" {
		t.Fatalf("top hypothesis ID = %s, want H1", hypotheses[0].ID)
	}
	if hypotheses[0].Probability <= 0 || hypotheses[0].Probability > 0.99 {
		t.Fatalf("probability out of range: %v", hypotheses[0].Probability)
	}
	if len(hypotheses[0].RequiredChecks) == 0 {
		t.Fatalf("expected required checks carried from pattern")
	}
}

func TestGenerateHypothesesCriticalEscalation(t *testing.T) {
	gen := NewHypothesisGenerator(testTable(t), nil)

	calm := gen.Generate(tablespaceAlerts(5, models.SeverityWarning))
	loud := gen.Generate(tablespaceAlerts(11, models.SeverityCritical))
	if len(calm) == 0 || len(loud) == 0 {
		t.Fatalf("expected hypotheses in both runs")
	}
	if loud[0].Probability <= calm[0].Probability {
		t.Fatalf("critical volume should escalate probability: %v vs %v",
			loud[0].Probability, calm[0].Probability)
	}
}

func TestGenerateHypothesesEmpty(t *testing.T) {
	gen := NewHypothesisGenerator(testTable(t), nil)
	if hypotheses := gen.Generate(nil); hypotheses != nil {
		t.Fatalf("expected no hypotheses for empty input, got %d", len(hypotheses))
	}
}

func TestGenerateHypothesesProbabilityCap(t *testing.T) {
	gen := NewHypothesisGenerator(testTable(t), nil)
	hypotheses := gen.Generate(tablespaceAlerts(500, models.SeverityCritical))
	for _, h := range hypotheses {
		if h.Probability > 0.99 {
			t.Fatalf("probability exceeds cap: %v", h.Probability)
		}
	}
}

func TestTestHypothesisSupported(t *testing.T) {
	gen := NewHypothesisGenerator(testTable(t), nil)
	hypotheses := gen.Generate(tablespaceAlerts(3, models.SeverityWarning))
	if len(hypotheses) == 0 {
		t.Fatalf("expected hypotheses")
	}

	result := gen.Test(hypotheses[0], tablespaceAlerts(2, models.SeverityWarning))
	if result.Outcome != models.TestSupported {
		t.Fatalf("outcome = %s, want SUPPORTED", result.Outcome)
	}
	if result.UpdatedProbability <= result.OriginalProbability {
		t.Fatalf("probability should rise: %v -> %v",
			result.OriginalProbability, result.UpdatedProbability)
	}
	if result.UpdatedProbability > result.OriginalProbability+0.2+1e-9 {
		t.Fatalf("adjustment exceeds cap: %v -> %v",
			result.OriginalProbability, result.UpdatedProbability)
	}
}

func TestTestHypothesisUntestable(t *testing.T) {
	gen := NewHypothesisGenerator(testTable(t), nil)
	h := models.Hypothesis{ID: "H1", PatternID: "TABLESPACE_EXHAUSTION", Probability: 0.5}

	result := gen.Test(h, nil)
	if result.Outcome != models.TestUntestable {
		t.Fatalf("outcome = %s, want UNTESTABLE", result.Outcome)
	}
	if result.UpdatedProbability != 0.5 {
		t.Fatalf("probability should not change: %v", result.UpdatedProbability)
	}
}
