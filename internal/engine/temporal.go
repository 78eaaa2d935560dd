package engine

import (
	"time"

	"github.com/alertstack/triage-engine/internal/models"
)

// ClassifyTemporal labels each cluster's behaviour over time. Clusters
// without derivable timestamps stay unknown.
func ClassifyTemporal(clusters []*models.IncidentCluster) {
	for _, cluster := range clusters {
		cluster.Pattern = classifyCluster(cluster)
	}
}

func classifyCluster(cluster *models.IncidentCluster) models.TemporalPattern {
	if !cluster.HasWindow() {
		return models.PatternUnknown
	}

	duration := cluster.Duration()
	count := cluster.AlertCount()

	hours := duration.Hours()
	if hours < 0.01 {
		hours = 0.01
	}
	rate := float64(count) / hours

	switch {
	case duration < time.Hour && count < 10:
		return models.PatternTransient
	case rate > 100:
		return models.PatternEscalating
	case duration > 24*time.Hour:
		return models.PatternPersistent
	default:
		return models.PatternContinuous
	}
}
