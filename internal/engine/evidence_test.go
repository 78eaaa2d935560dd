package engine

import (
	"strings"
	"testing"
	"time"

	"github.com/alertstack/triage-engine/internal/config"
	"github.com/alertstack/triage-engine/internal/models"
)

func testCollector() *EvidenceCollector {
	cfg := config.Default()
	return NewEvidenceCollector(cfg.Thresholds, nil)
}

func TestCollectORAEvidencePrimaryRelevance(t *testing.T) {
	c := testCollector()
	h := models.Hypothesis{ID: "H1", PatternID: "TABLESPACE_EXHAUSTION"}
	alerts := tablespaceAlerts(4, models.SeverityWarning)

	pkg := c.Collect(h, alerts, nil, "")
	var found *models.EvidenceItem
	for i := range pkg.Items {
		if pkg.Items[i].Source == "ora_error" {
			found = &pkg.Items[i]
			break
		}
	}
	if found == nil {
		t.Fatalf("expected ora_error evidence, got %+v", pkg.Items)
	}
	if found.Relevance != "PRIMARY" {
		t.Fatalf("ORA-01653 should be primary for tablespace pattern, got %s", found.Relevance)
	}
	if found.Weight <= weightORAError {
		t.Fatalf("weight should scale above base with count: %v", found.Weight)
	}
}

func TestCollectIrrelevantCodeIsWeak(t *testing.T) {
	c := testCollector()
	h := models.Hypothesis{ID: "H1", PatternID: "CPU_SATURATION"}
	alerts := tablespaceAlerts(1, models.SeverityWarning)

	pkg := c.Collect(h, alerts, nil, "")
	for _, item := range pkg.Items {
		if item.Source == "ora_error" && item.Relevance != "SECONDARY" {
			t.Fatalf("ORA-01653 should be secondary for CPU pattern: %+v", item)
		}
	}
}

func TestCollectBurstEvidence(t *testing.T) {
	c := testCollector()
	base := time.Date(2026, 3, 1, 14, 0, 0, 0, time.UTC)
	alerts := make([]models.Alert, 0, 12)
	for i := 0; i < 12; i++ {
		alerts = append(alerts, models.Alert{
			Timestamp: base.Add(time.Duration(i) * 10 * time.Second),
			Resource:  "PRODDB",
			Severity:  models.SeverityCritical,
			Message:   "session spike",
		})
	}

	pkg := c.Collect(models.Hypothesis{ID: "H1", PatternID: "CPU_SATURATION"}, alerts, nil, "")
	foundBurst := false
	for _, item := range pkg.Items {
		if item.Source == "time_correlation" {
			foundBurst = true
			if !strings.Contains(item.Description, "12 alerts") {
				t.Fatalf("burst description missing count: %s", item.Description)
			}
		}
	}
	if !foundBurst {
		t.Fatalf("expected burst evidence, got %+v", pkg.Items)
	}
}

func TestCollectContradictions(t *testing.T) {
	c := testCollector()
	alerts := []models.Alert{
		{Resource: "PRODDB", Severity: models.SeverityClear, Message: "tablespace alert cleared"},
	}
	metrics := []models.Metric{
		{Resource: "PRODDB", Name: "storage_used_pct", Value: 30},
	}

	pkg := c.Collect(models.Hypothesis{ID: "H1", PatternID: "TABLESPACE_EXHAUSTION"}, alerts, metrics, "")
	if len(pkg.Contradictions) != 2 {
		t.Fatalf("expected recovery + storage contradictions, got %v", pkg.Contradictions)
	}
}

func TestCollectMetricThresholdAndTrend(t *testing.T) {
	c := testCollector()
	metrics := make([]models.Metric, 0, 6)
	for i := 0; i < 6; i++ {
		metrics = append(metrics, models.Metric{
			Resource: "PRODDB",
			Name:     "tablespace_used_pct",
			Value:    70 + float64(i)*5,
		})
	}

	pkg := c.Collect(models.Hypothesis{ID: "H1", PatternID: "TABLESPACE_EXHAUSTION"}, nil, metrics, "")
	sources := make(map[string]int)
	for _, item := range pkg.Items {
		sources[item.Source]++
	}
	if sources["metric_threshold"] != 1 {
		t.Fatalf("expected one threshold breach, got %+v", sources)
	}
	if sources["metric_trend"] != 1 {
		t.Fatalf("expected one trend item, got %+v", sources)
	}
}

func TestCollectStrengthBands(t *testing.T) {
	c := testCollector()

	strong := c.Collect(models.Hypothesis{ID: "H1", PatternID: "TABLESPACE_EXHAUSTION"},
		tablespaceAlerts(200, models.SeverityCritical), nil, "")
	if strong.Strength != models.EvidenceStrong {
		t.Fatalf("strength = %s, want STRONG (weight %v)", strong.Strength, strong.TotalWeight)
	}
	if strong.ConfidenceBoost != 0.15 {
		t.Fatalf("boost = %v, want 0.15", strong.ConfidenceBoost)
	}

	insufficient := c.Collect(models.Hypothesis{ID: "H1", PatternID: "CPU_SATURATION"}, nil, nil, "")
	if insufficient.Strength != models.EvidenceInsufficient {
		t.Fatalf("strength = %s, want INSUFFICIENT", insufficient.Strength)
	}
}

func TestCollectTargetFilter(t *testing.T) {
	c := testCollector()
	alerts := append(tablespaceAlerts(3, models.SeverityCritical),
		models.Alert{Resource: "OTHERDB", Severity: models.SeverityClear, Message: "resolved"})

	pkg := c.Collect(models.Hypothesis{ID: "H1", PatternID: "TABLESPACE_EXHAUSTION"}, alerts, nil, "PRODDB")
	if len(pkg.Contradictions) != 0 {
		t.Fatalf("contradiction from filtered-out resource leaked: %v", pkg.Contradictions)
	}
}

func TestValidateEvidence(t *testing.T) {
	empty := ValidateEvidence(nil)
	if empty.Valid {
		t.Fatalf("empty evidence should not validate")
	}

	items := []models.EvidenceItem{
		{Source: "ora_error", Weight: 0.95, Relevance: "PRIMARY"},
		{Source: "alert_count", Weight: 0.8},
	}
	result := ValidateEvidence(items)
	if !result.Valid {
		t.Fatalf("expected valid evidence: %+v", result)
	}
	if result.QualityScore != 1.0 {
		t.Fatalf("quality should cap at 1.0, got %v", result.QualityScore)
	}
	if result.SourceDiversity != 2 || !result.HasPrimary {
		t.Fatalf("unexpected validation detail: %+v", result)
	}
}

func TestLinearSlope(t *testing.T) {
	if slope := linearSlope([]float64{1, 2, 3, 4, 5}); slope != 1 {
		t.Fatalf("slope = %v, want 1", slope)
	}
	if slope := linearSlope([]float64{5, 5, 5, 5, 5}); slope != 0 {
		t.Fatalf("flat slope = %v, want 0", slope)
	}
}
