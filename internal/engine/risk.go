package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/alertstack/triage-engine/internal/models"
)

// OutageRisk scores the probability (0-100) that a resource is heading for
// an outage, from critical alert pressure, incident frequency, shrinking
// gaps between incidents, and severity progression. It is an indicator, not
// an outcome claim.
func OutageRisk(resource string, alerts []models.Alert, clusters []*models.IncidentCluster) models.OutageRisk {
	upper := strings.ToUpper(resource)
	score := 0
	reasons := make([]string, 0, 4)
	breakdown := make(map[string]int, 4)

	targetAlerts := make([]models.Alert, 0)
	criticalCount := 0
	for _, alert := range alerts {
		if !strings.Contains(strings.ToUpper(alert.Resource), upper) {
			continue
		}
		targetAlerts = append(targetAlerts, alert)
		if alert.Severity == models.SeverityCritical {
			criticalCount++
		}
	}

	criticalScore := int(minFloat(25, float64(criticalCount)*2.5))
	score += criticalScore
	breakdown["critical_alerts"] = criticalScore
	switch {
	case criticalCount >= 50:
		reasons = append(reasons, fmt.Sprintf("CRITICAL: %d critical alerts detected", criticalCount))
	case criticalCount >= 20:
		reasons = append(reasons, fmt.Sprintf("HIGH: %d critical alerts indicate repeated failures", criticalCount))
	case criticalCount >= 5:
		reasons = append(reasons, fmt.Sprintf("MEDIUM: %d critical alerts suggest instability", criticalCount))
	}

	targetClusters := make([]*models.IncidentCluster, 0)
	for _, cluster := range clusters {
		if strings.Contains(strings.ToUpper(cluster.Resource), upper) {
			targetClusters = append(targetClusters, cluster)
		}
	}

	incidentScore := int(minFloat(25, float64(len(targetClusters))*0.25))
	score += incidentScore
	breakdown["incident_frequency"] = incidentScore
	switch n := len(targetClusters); {
	case n >= 100:
		reasons = append(reasons, fmt.Sprintf("CRITICAL: %d separate incidents in system", n))
	case n >= 50:
		reasons = append(reasons, fmt.Sprintf("HIGH: %d incidents indicate recurring issues", n))
	case n >= 5:
		reasons = append(reasons, fmt.Sprintf("MEDIUM: %d incidents show pattern of failures", n))
	}

	gapScore := 0
	if len(targetClusters) >= 3 {
		gapScore = scoreTimeGaps(incidentGaps(targetClusters))
	}
	score += gapScore
	breakdown["time_gaps"] = gapScore
	switch {
	case gapScore >= 20:
		reasons = append(reasons, "CRITICAL: Incidents accelerating (gaps shrinking)")
	case gapScore >= 15:
		reasons = append(reasons, "HIGH: Time between incidents decreasing")
	case gapScore >= 10:
		reasons = append(reasons, "MEDIUM: Unstable incident pattern detected")
	}

	progressionScore := scoreSeverityProgression(targetAlerts)
	score += progressionScore
	breakdown["severity_progression"] = progressionScore
	switch {
	case progressionScore >= 20:
		reasons = append(reasons, "CRITICAL: Severity escalating over time")
	case progressionScore >= 10:
		reasons = append(reasons, "MEDIUM: Alert severity increasing")
	}

	if score > 100 {
		score = 100
	}

	var level models.RiskLevel
	switch {
	case score >= 80:
		level = models.RiskCritical
		reasons = append(reasons, "FINAL: Imminent failure risk - immediate action required")
	case score >= 60:
		level = models.RiskHigh
		reasons = append(reasons, "FINAL: Significant outage risk - escalate to DBA team")
	case score >= 40:
		level = models.RiskMedium
		reasons = append(reasons, "FINAL: Moderate risk - monitor closely and plan maintenance")
	default:
		level = models.RiskLow
		reasons = append(reasons, "FINAL: Low risk - continue standard monitoring")
	}

	return models.OutageRisk{
		Resource:  resource,
		Score:     score,
		Level:     level,
		Reasons:   reasons,
		Breakdown: breakdown,
	}
}

// incidentGaps returns minutes between consecutive incidents, ordered by
// first occurrence.
func incidentGaps(clusters []*models.IncidentCluster) []float64 {
	windowed := make([]*models.IncidentCluster, 0, len(clusters))
	for _, c := range clusters {
		if c.HasWindow() {
			windowed = append(windowed, c)
		}
	}
	if len(windowed) < 2 {
		return nil
	}
	sort.Slice(windowed, func(i, j int) bool {
		return windowed[i].FirstSeen.Before(windowed[j].FirstSeen)
	})

	gaps := make([]float64, 0, len(windowed)-1)
	for i := 1; i < len(windowed); i++ {
		gap := windowed[i].FirstSeen.Sub(windowed[i-1].LastSeen)
		gaps = append(gaps, gap.Minutes())
	}
	return gaps
}

// scoreTimeGaps rewards shrinking gaps between incidents.
func scoreTimeGaps(gaps []float64) int {
	if len(gaps) < 2 {
		return 0
	}

	half := len(gaps) / 2
	early := gaps[:half]
	late := gaps[half:]

	avgEarly := average(early)
	avgLate := average(late)

	score := 0
	if avgEarly > 0 {
		reduction := (avgEarly - avgLate) / avgEarly
		switch {
		case reduction >= 0.70:
			score += 25
		case reduction >= 0.50:
			score += 20
		case reduction >= 0.30:
			score += 15
		case reduction >= 0.10:
			score += 10
		}
	}

	if len(late) > 0 {
		minGap := late[0]
		for _, g := range late {
			if g < minGap {
				minGap = g
			}
		}
		if minGap < 60 {
			score += 5
		}
	}

	if score > 25 {
		score = 25
	}
	return score
}

// scoreSeverityProgression rewards alert severity escalating between the
// first and second half of the window.
func scoreSeverityProgression(alerts []models.Alert) int {
	if len(alerts) < 3 {
		return 0
	}

	sorted := append([]models.Alert(nil), alerts...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	half := len(sorted) / 2
	earlyAvg := averageSeverity(sorted[:half])
	lateAvg := averageSeverity(sorted[half:])

	switch {
	case lateAvg > earlyAvg*1.3:
		return 20
	case lateAvg > earlyAvg*1.15:
		return 15
	case lateAvg > earlyAvg:
		return 10
	default:
		return 0
	}
}

func averageSeverity(alerts []models.Alert) float64 {
	if len(alerts) == 0 {
		return 0
	}
	rank := map[models.Severity]float64{
		models.SeverityInfo:     1,
		models.SeverityWarning:  2,
		models.SeverityCritical: 3,
	}
	sum := 0.0
	for _, a := range alerts {
		r, ok := rank[a.Severity]
		if !ok {
			r = 1
		}
		sum += r
	}
	return sum / float64(len(alerts))
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
