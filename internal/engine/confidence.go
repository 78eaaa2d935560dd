package engine

import (
	"github.com/alertstack/triage-engine/internal/models"
)

// Confidence factor weights.
var confidenceWeights = map[string]float64{
	"hypothesis_strength":   0.3,
	"evidence_quality":      0.35,
	"evidence_quantity":     0.2,
	"contradiction_penalty": 0.15,
}

var evidenceQuality = map[models.EvidenceStrength]float64{
	models.EvidenceStrong:       0.9,
	models.EvidenceModerate:     0.7,
	models.EvidenceWeak:         0.4,
	models.EvidenceInsufficient: 0.2,
}

// ConfidenceScorer blends hypothesis probability, evidence quality and
// contradiction pressure into one bounded trust score.
type ConfidenceScorer struct {
	// predictionCeiling caps scores on predictive answers.
	predictionCeiling float64
}

// NewConfidenceScorer constructs a scorer with the configured prediction
// ceiling.
func NewConfidenceScorer(predictionCeiling float64) *ConfidenceScorer {
	return &ConfidenceScorer{predictionCeiling: predictionCeiling}
}

// Score computes the confidence report for one hypothesis and its evidence.
func (s *ConfidenceScorer) Score(hypothesis models.Hypothesis, pkg models.EvidencePackage, answerType models.AnswerType) models.ConfidenceReport {
	factors := map[string]float64{
		"hypothesis_strength": hypothesis.Probability,
		"evidence_quantity":   minFloat(float64(pkg.Count())/10, 1.0),
	}

	quality, ok := evidenceQuality[pkg.Strength]
	if !ok {
		quality = 0.4
	}
	factors["evidence_quality"] = quality

	penalty := 1 - float64(len(pkg.Contradictions))*0.15
	if penalty < 0 {
		penalty = 0
	}
	factors["contradiction_penalty"] = penalty

	score := 0.0
	for name, weight := range confidenceWeights {
		score += factors[name] * weight
	}

	report := models.ConfidenceReport{
		Score:   score,
		Factors: factors,
	}

	// Predictive answers never exceed the ceiling.
	if answerType == models.AnswerPrediction && report.Score > s.predictionCeiling-0.01 {
		report.Score = s.predictionCeiling - 0.01
		report.Capped = true
	}

	report.Level = confidenceLevel(report.Score)
	report.Recommendation = confidenceRecommendation(report.Level)
	return report
}

func confidenceLevel(score float64) models.ConfidenceLevel {
	switch {
	case score >= 0.8:
		return models.ConfidenceHigh
	case score >= 0.6:
		return models.ConfidenceMedium
	case score >= 0.4:
		return models.ConfidenceLow
	default:
		return models.ConfidenceVeryLow
	}
}

func confidenceRecommendation(level models.ConfidenceLevel) string {
	switch level {
	case models.ConfidenceHigh:
		return "Proceed with recommended actions"
	case models.ConfidenceMedium:
		return "Verify key evidence before acting"
	case models.ConfidenceLow:
		return "Gather more evidence"
	default:
		return "Investigation inconclusive - escalate"
	}
}
