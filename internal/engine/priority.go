package engine

import (
	"strings"

	"github.com/alertstack/triage-engine/internal/config"
	"github.com/alertstack/triage-engine/internal/models"
)

// Prioritizer assigns P1/P2/P3 triage levels from cluster volume, category
// and temporal behaviour.
type Prioritizer struct {
	p1Critical   int
	p2Critical   int
	p2Volume     int
	p1Categories map[string]struct{}
	p2Categories map[string]struct{}
	severeCodes  []string
}

// NewPrioritizer builds a prioritizer from configured thresholds.
func NewPrioritizer(thresholds config.ThresholdConfig, resources config.ResourcesConfig) *Prioritizer {
	p := &Prioritizer{
		p1Critical:   thresholds.P1CriticalCount,
		p2Critical:   thresholds.P2CriticalCount,
		p2Volume:     thresholds.P2VolumeCount,
		p1Categories: make(map[string]struct{}),
		p2Categories: make(map[string]struct{}),
		severeCodes:  resources.SevereCodes,
	}
	for _, c := range resources.P1Categories {
		p.p1Categories[strings.ToLower(c)] = struct{}{}
	}
	for _, c := range resources.P2Categories {
		p.p2Categories[strings.ToLower(c)] = struct{}{}
	}
	return p
}

// Assign sets the priority on every cluster.
func (p *Prioritizer) Assign(clusters []*models.IncidentCluster) {
	for _, cluster := range clusters {
		cluster.Priority = p.classify(cluster)
	}
}

func (p *Prioritizer) classify(cluster *models.IncidentCluster) models.Priority {
	critical := cluster.CriticalCount()
	category := strings.ToLower(cluster.Category)
	_, p1Category := p.p1Categories[category]
	_, p2Category := p.p2Categories[category]

	severeSignature := false
	for _, code := range p.severeCodes {
		if strings.Contains(cluster.Signature.ErrorSignature, code) {
			severeSignature = true
			break
		}
	}

	switch {
	case critical >= p.p1Critical,
		cluster.Pattern == models.PatternEscalating,
		p1Category && critical > 10,
		severeSignature:
		return models.PriorityP1
	case critical >= p.p2Critical,
		cluster.Pattern == models.PatternPersistent,
		p2Category && critical > 0,
		cluster.AlertCount() >= p.p2Volume:
		return models.PriorityP2
	default:
		return models.PriorityP3
	}
}
