package engine

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/alertstack/triage-engine/internal/config"
	"github.com/alertstack/triage-engine/internal/models"
)

var oraCodeAllRe = regexp.MustCompile(`ORA-\d+`)

func oraDigitsAll(message string) []string {
	return oraCodeAllRe.FindAllString(message, -1)
}

// codeRelevant compares ORA codes ignoring zero padding, so ORA-00600 in a
// message matches the canonical ORA-600.
func codeRelevant(code string, relevant []string) bool {
	observed := strings.TrimLeft(strings.TrimPrefix(code, "ORA-"), "0")
	for _, r := range relevant {
		if strings.TrimPrefix(r, "ORA-") == observed {
			return true
		}
	}
	return false
}

// Evidence source weights.
const (
	weightORAError        = 0.95
	weightMetricThreshold = 0.85
	weightMetricTrend     = 0.70
	weightAlertCount      = 0.80
	weightTimeCorrelation = 0.75
	weightIrrelevantCode  = 0.3
)

// oraRelevance maps each pattern to the codes treated as primary evidence.
var oraRelevance = map[string][]string{
	"TABLESPACE_EXHAUSTION": {"ORA-1653", "ORA-1652", "ORA-1654", "ORA-1688"},
	"MEMORY_EXHAUSTION":     {"ORA-4031", "ORA-4030"},
	"INTERNAL_ERROR":        {"ORA-600", "ORA-7445"},
	"NETWORK_ISSUE":         {"ORA-12170", "ORA-12154", "ORA-12541"},
	"UNDO_PRESSURE":         {"ORA-1555", "ORA-30036"},
	"LOCK_CONTENTION":       {"ORA-60", "ORA-54"},
}

// metricThresholds maps each pattern to breach levels keyed by metric-name
// substring.
var metricThresholds = map[string]map[string]float64{
	"TABLESPACE_EXHAUSTION": {"storage": 85, "tablespace": 85},
	"MEMORY_EXHAUSTION":     {"memory": 85, "pga": 90, "sga": 90},
	"CPU_SATURATION":        {"cpu": 80, "load": 4.0},
	"IO_BOTTLENECK":         {"io_latency": 20, "iops": 1000},
}

// EvidenceCollector builds a scored evidence package per hypothesis from
// alerts and metric samples.
type EvidenceCollector struct {
	burstWindow time.Duration
	burstCount  int
	logger      *slog.Logger
}

// NewEvidenceCollector constructs a collector with configured burst
// detection parameters.
func NewEvidenceCollector(thresholds config.ThresholdConfig, logger *slog.Logger) *EvidenceCollector {
	if logger == nil {
		logger = slog.Default()
	}
	return &EvidenceCollector{
		burstWindow: thresholds.BurstWindow,
		burstCount:  thresholds.BurstCount,
		logger:      logger,
	}
}

// Collect gathers corroborating and contradicting evidence for one
// hypothesis, optionally filtered to a target resource.
func (c *EvidenceCollector) Collect(hypothesis models.Hypothesis, alerts []models.Alert, metrics []models.Metric, target string) models.EvidencePackage {
	if target != "" {
		alerts = filterAlertsByResource(alerts, target)
		metrics = filterMetricsByResource(metrics, target)
	}

	items := make([]models.EvidenceItem, 0)
	items = append(items, c.collectORAEvidence(alerts, hypothesis.PatternID)...)
	items = append(items, c.collectMetricEvidence(metrics, hypothesis.PatternID)...)
	items = append(items, c.collectFrequencyEvidence(alerts)...)
	items = append(items, c.collectBurstEvidence(alerts)...)

	contradictions := c.findContradictions(alerts, metrics, hypothesis.PatternID)

	totalWeight := 0.0
	for _, item := range items {
		totalWeight += item.Weight
	}
	penalty := float64(len(contradictions)) * 0.1

	var strength models.EvidenceStrength
	var boost float64
	switch {
	case totalWeight > 2.0 && len(contradictions) == 0:
		strength = models.EvidenceStrong
		boost = 0.15
	case totalWeight > 1.0:
		strength = models.EvidenceModerate
		boost = 0.08 - penalty
	case totalWeight > 0.5:
		strength = models.EvidenceWeak
		boost = 0.03 - penalty
	default:
		strength = models.EvidenceInsufficient
		boost = -0.05
	}

	return models.EvidencePackage{
		HypothesisID:    hypothesis.ID,
		PatternID:       hypothesis.PatternID,
		Strength:        strength,
		Items:           items,
		Contradictions:  contradictions,
		TotalWeight:     totalWeight,
		ConfidenceBoost: boost,
	}
}

func (c *EvidenceCollector) collectORAEvidence(alerts []models.Alert, patternID string) []models.EvidenceItem {
	counts := make(map[string]int)
	for _, alert := range alerts {
		message := strings.ToUpper(alert.Message)
		for _, m := range oraDigitsAll(message) {
			counts[m]++
		}
	}
	if len(counts) == 0 {
		return nil
	}

	relevant := oraRelevance[patternID]
	codes := make([]string, 0, len(counts))
	for code := range counts {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	items := make([]models.EvidenceItem, 0, len(codes))
	for _, code := range codes {
		count := counts[code]
		weight := weightIrrelevantCode
		relevance := "SECONDARY"
		if codeRelevant(code, relevant) {
			weight = weightORAError
			relevance = "PRIMARY"
		}
		scale := 1 + minFloat(float64(count)/100, 1)
		items = append(items, models.EvidenceItem{
			Source:      "ora_error",
			Description: fmt.Sprintf("%s occurred %d times", code, count),
			Weight:      weight * scale,
			Relevance:   relevance,
		})
	}
	return items
}

func (c *EvidenceCollector) collectMetricEvidence(metrics []models.Metric, patternID string) []models.EvidenceItem {
	if len(metrics) == 0 {
		return nil
	}
	thresholds := metricThresholds[patternID]

	grouped := make(map[string][]float64)
	for _, m := range metrics {
		name := strings.ToLower(m.Name)
		if name == "" {
			name = "unknown"
		}
		grouped[name] = append(grouped[name], m.Value)
	}

	names := make([]string, 0, len(grouped))
	for name := range grouped {
		names = append(names, name)
	}
	sort.Strings(names)

	items := make([]models.EvidenceItem, 0)
	for _, name := range names {
		values := grouped[name]
		maxVal := values[0]
		for _, v := range values {
			if v > maxVal {
				maxVal = v
			}
		}

		for key, threshold := range thresholds {
			if strings.Contains(name, key) && maxVal > threshold {
				items = append(items, models.EvidenceItem{
					Source:      "metric_threshold",
					Description: fmt.Sprintf("%s peaked at %.1f (threshold: %g)", name, maxVal, threshold),
					Weight:      weightMetricThreshold,
				})
			}
		}

		if len(values) >= 5 {
			slope := linearSlope(values)
			if slope > 0.1 {
				items = append(items, models.EvidenceItem{
					Source:      "metric_trend",
					Description: fmt.Sprintf("%s showing increasing trend (slope: %.3f)", name, slope),
					Weight:      weightMetricTrend,
				})
			}
		}
	}
	return items
}

func (c *EvidenceCollector) collectFrequencyEvidence(alerts []models.Alert) []models.EvidenceItem {
	items := make([]models.EvidenceItem, 0, 2)

	total := len(alerts)
	if total > 100 {
		items = append(items, models.EvidenceItem{
			Source:      "alert_count",
			Description: fmt.Sprintf("%d total alerts in dataset", total),
			Weight:      weightAlertCount * minFloat(float64(total)/1000, 1.5),
		})
	}

	critical := 0
	for _, alert := range alerts {
		if alert.Severity == models.SeverityCritical {
			critical++
		}
	}
	if critical > 10 {
		items = append(items, models.EvidenceItem{
			Source:      "alert_count",
			Description: fmt.Sprintf("%d CRITICAL severity alerts", critical),
			Weight:      weightAlertCount * 1.2,
		})
	}
	return items
}

// collectBurstEvidence scans for windows holding burstCount or more alerts.
// The scan advances past each detected window so overlapping bursts are not
// double counted.
func (c *EvidenceCollector) collectBurstEvidence(alerts []models.Alert) []models.EvidenceItem {
	times := make([]time.Time, 0, len(alerts))
	for _, alert := range alerts {
		if !alert.Timestamp.IsZero() {
			times = append(times, alert.Timestamp)
		}
	}
	if len(times) < 2 {
		return nil
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

	bestCount := 0
	var bestStart time.Time
	i := 0
	for i < len(times) {
		windowEnd := times[i].Add(c.burstWindow)
		count := 1
		j := i + 1
		for j < len(times) && !times[j].After(windowEnd) {
			count++
			j++
		}
		if count >= c.burstCount && count > bestCount {
			bestCount = count
			bestStart = times[i]
		}
		if j > i+1 {
			i = j
		} else {
			i++
		}
	}

	if bestCount == 0 {
		return nil
	}
	return []models.EvidenceItem{{
		Source: "time_correlation",
		Description: fmt.Sprintf("Alert burst: %d alerts in %s at %s",
			bestCount, c.burstWindow, bestStart.Format("15:04")),
		Weight: weightTimeCorrelation,
	}}
}

func (c *EvidenceCollector) findContradictions(alerts []models.Alert, metrics []models.Metric, patternID string) []string {
	contradictions := make([]string, 0)

	for _, alert := range alerts {
		message := strings.ToUpper(alert.Message)
		if alert.Severity == models.SeverityClear || strings.Contains(message, "RESOLVED") || strings.Contains(message, "RECOVERED") {
			contradictions = append(contradictions, fmt.Sprintf("Recovery indicator: %s", alert.Severity))
			break
		}
	}

	if patternID == "TABLESPACE_EXHAUSTION" {
		for _, m := range metrics {
			name := strings.ToLower(m.Name)
			if (strings.Contains(name, "storage") || strings.Contains(name, "tablespace")) && m.Value < 50 {
				contradictions = append(contradictions, fmt.Sprintf("Storage at %g%% - not critically full", m.Value))
				break
			}
		}
	}

	if len(contradictions) > 3 {
		contradictions = contradictions[:3]
	}
	return contradictions
}

// ValidationResult grades a collected evidence set.
type ValidationResult struct {
	Valid           bool    `json:"valid"`
	QualityScore    float64 `json:"quality_score"`
	EvidenceCount   int     `json:"evidence_count"`
	SourceDiversity int     `json:"source_diversity"`
	HasPrimary      bool    `json:"has_primary_evidence"`
	Recommendation  string  `json:"recommendation"`
}

// ValidateEvidence checks whether an evidence set is diverse and strong
// enough to support a conclusion.
func ValidateEvidence(items []models.EvidenceItem) ValidationResult {
	if len(items) == 0 {
		return ValidationResult{Recommendation: "Gather more evidence before concluding"}
	}

	sources := make(map[string]struct{})
	hasPrimary := false
	totalWeight := 0.0
	for _, item := range items {
		sources[item.Source] = struct{}{}
		if item.Relevance == "PRIMARY" {
			hasPrimary = true
		}
		totalWeight += item.Weight
	}

	quality := totalWeight + float64(len(sources))*0.1
	if hasPrimary {
		quality += 0.2
	}
	if quality > 1.0 {
		quality = 1.0
	}

	recommendation := "Gather more evidence before concluding"
	if quality > 0.6 {
		recommendation = "Evidence sufficient for conclusion"
	}

	return ValidationResult{
		Valid:           quality > 0.3,
		QualityScore:    quality,
		EvidenceCount:   len(items),
		SourceDiversity: len(sources),
		HasPrimary:      hasPrimary,
		Recommendation:  recommendation,
	}
}

func filterAlertsByResource(alerts []models.Alert, target string) []models.Alert {
	upper := strings.ToUpper(target)
	filtered := make([]models.Alert, 0, len(alerts))
	for _, alert := range alerts {
		if strings.Contains(strings.ToUpper(alert.Resource), upper) {
			filtered = append(filtered, alert)
		}
	}
	return filtered
}

func filterMetricsByResource(metrics []models.Metric, target string) []models.Metric {
	upper := strings.ToUpper(target)
	filtered := make([]models.Metric, 0, len(metrics))
	for _, m := range metrics {
		if strings.Contains(strings.ToUpper(m.Resource), upper) {
			filtered = append(filtered, m)
		}
	}
	return filtered
}

// linearSlope fits a least-squares line over sample index and returns its
// slope.
func linearSlope(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	xMean := float64(n-1) / 2
	yMean := 0.0
	for _, v := range values {
		yMean += v
	}
	yMean /= float64(n)

	numerator := 0.0
	denominator := 0.0
	for i, v := range values {
		dx := float64(i) - xMean
		numerator += dx * (v - yMean)
		denominator += dx * dx
	}
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
