package engine

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/alertstack/triage-engine/internal/extractors"
	"github.com/alertstack/triage-engine/internal/models"
	"github.com/alertstack/triage-engine/internal/patterns"
)

// HypothesisGenerator proposes ranked root-cause candidates by matching
// observed symptoms against the failure-pattern table.
type HypothesisGenerator struct {
	table  *patterns.Table
	logger *slog.Logger
}

// NewHypothesisGenerator constructs a generator over the given pattern table.
func NewHypothesisGenerator(table *patterns.Table, logger *slog.Logger) *HypothesisGenerator {
	if logger == nil {
		logger = slog.Default()
	}
	return &HypothesisGenerator{table: table, logger: logger}
}

const maxHypotheses = 10

// Generate builds hypotheses from alert symptoms. An empty alert batch
// yields an empty list, never an error.
func (g *HypothesisGenerator) Generate(alerts []models.Alert) []models.Hypothesis {
	if len(alerts) == 0 {
		return nil
	}

	symptoms := extractors.ExtractSymptoms(alerts)

	type match struct {
		pattern  patterns.FailurePattern
		score    int
		evidence []string
	}
	matches := make([]match, 0)

	for _, pattern := range g.table.Patterns() {
		score := 0
		evidence := make([]string, 0)

		for _, symptom := range pattern.Symptoms {
			if strings.HasPrefix(symptom, "ORA-") {
				if count := countCode(symptoms.ORACodes, symptom); count > 0 {
					score += count * 10
					evidence = append(evidence, fmt.Sprintf("%s found %d times", symptom, count))
				}
				continue
			}
			if count := symptoms.Keywords[strings.ToLower(symptom)]; count > 0 {
				score += count * 2
				evidence = append(evidence, fmt.Sprintf("'%s' keyword in %d alerts", symptom, count))
			}
			upper := strings.ToUpper(symptom)
			for _, msg := range symptoms.RawMessages {
				if strings.Contains(msg, upper) {
					score++
				}
			}
		}

		if score > 0 {
			matches = append(matches, match{pattern: pattern, score: score, evidence: evidence})
		}
	}

	escalated := symptoms.CriticalCount() > 10
	hypotheses := make([]models.Hypothesis, 0, len(matches))
	for _, m := range matches {
		probability := float64(m.score) / 100
		if probability > 0.99 {
			probability = 0.99
		}
		probability *= m.pattern.Weight
		if escalated {
			probability *= 1.2
			if probability > 0.99 {
				probability = 0.99
			}
		}

		if len(m.evidence) > 5 {
			m.evidence = m.evidence[:5]
		}

		hypotheses = append(hypotheses, models.Hypothesis{
			PatternID:       m.pattern.ID,
			Title:           m.pattern.Title,
			Probability:     probability,
			EvidenceFor:     m.evidence,
			EvidenceAgainst: evidenceAgainst(m.pattern.ID, symptoms),
			RequiredChecks:  m.pattern.RequiredChecks,
		})
	}

	sort.SliceStable(hypotheses, func(i, j int) bool {
		if hypotheses[i].Probability != hypotheses[j].Probability {
			return hypotheses[i].Probability > hypotheses[j].Probability
		}
		return hypotheses[i].PatternID < hypotheses[j].PatternID
	})
	if len(hypotheses) > maxHypotheses {
		hypotheses = hypotheses[:maxHypotheses]
	}
	for i := range hypotheses {
		hypotheses[i].ID = fmt.Sprintf("H%d", i+1)
	}

	g.logger.Debug("hypotheses generated",
		"alerts", len(alerts), "candidates", len(hypotheses))
	return hypotheses
}

// Test re-evaluates a hypothesis against additional alerts and reports how
// its probability shifts.
func (g *HypothesisGenerator) Test(hypothesis models.Hypothesis, additional []models.Alert) models.HypothesisTest {
	result := models.HypothesisTest{
		HypothesisID:        hypothesis.ID,
		OriginalProbability: hypothesis.Probability,
		UpdatedProbability:  hypothesis.Probability,
	}
	if len(additional) == 0 {
		result.Outcome = models.TestUntestable
		return result
	}

	pattern, ok := g.table.Get(hypothesis.PatternID)
	if !ok {
		result.Outcome = models.TestUntestable
		return result
	}

	symptoms := extractors.ExtractSymptoms(additional)
	for _, symptom := range pattern.Symptoms {
		if strings.HasPrefix(symptom, "ORA-") {
			if count := countCode(symptoms.ORACodes, symptom); count > 0 {
				result.SupportCount += count
				result.NewEvidence = append(result.NewEvidence, fmt.Sprintf("SUPPORTS: %s found", symptom))
			}
			continue
		}
		if count := symptoms.Keywords[strings.ToLower(symptom)]; count > 0 {
			result.SupportCount += count
			result.NewEvidence = append(result.NewEvidence, fmt.Sprintf("SUPPORTS: '%s' found", symptom))
		}
	}

	switch {
	case result.SupportCount > result.RefuteCount:
		adjustment := 0.1 * float64(result.SupportCount-result.RefuteCount)
		if adjustment > 0.2 {
			adjustment = 0.2
		}
		result.UpdatedProbability = hypothesis.Probability + adjustment
		if result.UpdatedProbability > 0.99 {
			result.UpdatedProbability = 0.99
		}
		result.Outcome = models.TestSupported
	case result.RefuteCount > result.SupportCount:
		adjustment := 0.1 * float64(result.RefuteCount-result.SupportCount)
		if adjustment > 0.3 {
			adjustment = 0.3
		}
		result.UpdatedProbability = hypothesis.Probability - adjustment
		if result.UpdatedProbability < 0.05 {
			result.UpdatedProbability = 0.05
		}
		result.Outcome = models.TestRefuted
	default:
		result.Outcome = models.TestInconclusive
	}
	return result
}

// countCode sums occurrences of a canonical ORA code, tolerating
// zero-padded variants observed in messages (ORA-600 vs ORA-00600).
func countCode(codes map[string]int, canonical string) int {
	digits := strings.TrimPrefix(canonical, "ORA-")
	total := 0
	for code, count := range codes {
		observed := strings.TrimLeft(strings.TrimPrefix(code, "ORA-"), "0")
		if observed == digits {
			total += count
		}
	}
	return total
}

// evidenceAgainst lists observations that cut against well-known patterns.
func evidenceAgainst(patternID string, symptoms *extractors.Symptoms) []string {
	switch patternID {
	case "TABLESPACE_EXHAUSTION":
		if symptoms.Keywords["archive"] == 0 {
			return []string{"No archive log issues observed"}
		}
	case "MEMORY_EXHAUSTION":
		if symptoms.Keywords["cpu"] > symptoms.Keywords["memory"] {
			return []string{"CPU issues more prominent than memory"}
		}
	}
	return nil
}
