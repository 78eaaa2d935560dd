package engine

import (
	"log/slog"
	"sort"

	"github.com/alertstack/triage-engine/internal/extractors"
	"github.com/alertstack/triage-engine/internal/models"
)

// Correlator groups raw alerts into incident clusters keyed by
// resource|signature|category.
type Correlator struct {
	extractor *extractors.SignatureExtractor
	logger    *slog.Logger
}

// NewCorrelator constructs a correlator.
func NewCorrelator(logger *slog.Logger) *Correlator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Correlator{
		extractor: extractors.NewSignatureExtractor(),
		logger:    logger,
	}
}

// Correlate clusters alerts by signature. The result is ordered by alert
// count descending, with signature key as a deterministic tie-break.
func (c *Correlator) Correlate(alerts []models.Alert) []*models.IncidentCluster {
	if len(alerts) == 0 {
		return nil
	}

	clusters := make(map[string]*models.IncidentCluster)
	for _, alert := range alerts {
		sig := c.extractor.Extract(alert)
		key := sig.Key()
		cluster, ok := clusters[key]
		if !ok {
			cluster = models.NewIncidentCluster(sig)
			clusters[key] = cluster
		}
		cluster.AddAlert(alert)
	}

	ordered := make([]*models.IncidentCluster, 0, len(clusters))
	for _, cluster := range clusters {
		ordered = append(ordered, cluster)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].AlertCount() != ordered[j].AlertCount() {
			return ordered[i].AlertCount() > ordered[j].AlertCount()
		}
		return ordered[i].Signature.Key() < ordered[j].Signature.Key()
	})

	c.logger.Debug("alerts correlated",
		"alerts", len(alerts), "clusters", len(ordered))
	return ordered
}

// Noise summarises how much of the alert volume is duplication.
func Noise(totalAlerts int, clusters []*models.IncidentCluster) models.NoiseSummary {
	summary := models.NoiseSummary{
		TotalAlerts:     totalAlerts,
		UniqueIncidents: len(clusters),
	}
	if totalAlerts == 0 || len(clusters) == 0 {
		return summary
	}
	summary.NoiseRatio = 1 - float64(len(clusters))/float64(totalAlerts)
	summary.DedupFactor = float64(totalAlerts) / float64(len(clusters))
	return summary
}
