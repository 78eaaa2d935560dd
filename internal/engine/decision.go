package engine

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/alertstack/triage-engine/internal/models"
	"github.com/alertstack/triage-engine/internal/patterns"
)

// Evidence strength multipliers applied to the decision score.
var strengthMultipliers = map[models.EvidenceStrength]float64{
	models.EvidenceStrong:       1.3,
	models.EvidenceModerate:     1.0,
	models.EvidenceWeak:         0.7,
	models.EvidenceInsufficient: 0.4,
}

// DecisionEngine fuses hypotheses and evidence into one ranked, rationalised
// decision.
type DecisionEngine struct {
	table  *patterns.Table
	logger *slog.Logger
}

// NewDecisionEngine constructs a decision engine over the pattern table.
func NewDecisionEngine(table *patterns.Table, logger *slog.Logger) *DecisionEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &DecisionEngine{table: table, logger: logger}
}

type candidate struct {
	hypothesis models.Hypothesis
	evidence   models.EvidencePackage
	score      float64
}

// Decide selects the best-supported hypothesis. An empty hypothesis list
// yields an INCONCLUSIVE decision, never an error.
func (d *DecisionEngine) Decide(hypotheses []models.Hypothesis, evidence map[string]models.EvidencePackage) models.Decision {
	if len(hypotheses) == 0 {
		return inconclusiveDecision("No hypotheses generated")
	}

	candidates := make([]candidate, 0, len(hypotheses))
	for _, h := range hypotheses {
		pkg := evidence[h.ID]
		candidates = append(candidates, candidate{
			hypothesis: h,
			evidence:   pkg,
			score:      d.score(h, pkg),
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	best := candidates[0]

	// Alternatives within 80% of the top score weaken certainty.
	close := make([]candidate, 0)
	for _, c := range candidates[1:] {
		if len(close) == 4 {
			break
		}
		if c.score > best.score*0.8 {
			close = append(close, c)
		}
	}

	evidenceCount := best.evidence.Count()
	var certainty models.Certainty
	switch {
	case best.score >= 0.80 && evidenceCount >= 3 && len(close) == 0:
		certainty = models.CertaintyDefinitive
	case best.score >= 0.60 && evidenceCount >= 2:
		certainty = models.CertaintyProbable
	case best.score >= 0.40:
		certainty = models.CertaintyPossible
	default:
		certainty = models.CertaintyInconclusive
	}

	alternatives := make([]models.Alternative, 0, 3)
	for _, c := range close {
		if len(alternatives) == 3 {
			break
		}
		alternatives = append(alternatives, models.Alternative{
			PatternID: c.hypothesis.PatternID,
			Score:     c.score,
		})
	}

	primary := best.evidence.Items
	if len(primary) > 5 {
		primary = primary[:5]
	}

	decision := models.Decision{
		SelectedPattern: best.hypothesis.PatternID,
		Confidence:      best.score,
		Certainty:       certainty,
		Rationale:       d.rationale(best, close),
		Alternatives:    alternatives,
		Urgency:         d.urgency(best.hypothesis.PatternID, best.score),
		PrimaryEvidence: primary,
		Contradictions:  best.evidence.Contradictions,
	}

	d.logger.Debug("decision made",
		"pattern", decision.SelectedPattern,
		"confidence", decision.Confidence,
		"certainty", decision.Certainty)
	return decision
}

func (d *DecisionEngine) score(h models.Hypothesis, pkg models.EvidencePackage) float64 {
	strengthFactor, ok := strengthMultipliers[pkg.Strength]
	if !ok {
		strengthFactor = 0.7
	}

	countFactor := 1.0 + float64(pkg.Count())*0.05
	if countFactor > 1.5 {
		countFactor = 1.5
	}

	risk := d.table.RiskMultiplier(h.PatternID)
	penalty := float64(len(pkg.Contradictions)) * 0.1

	score := h.Probability*strengthFactor*countFactor*risk - penalty
	return clamp01(score)
}

func (d *DecisionEngine) urgency(patternID string, score float64) models.Urgency {
	pattern, ok := d.table.Get(patternID)
	switch {
	case ok && pattern.Critical:
		return models.UrgencyCritical
	case ok && pattern.HighImpact && score > 0.7:
		return models.UrgencyHigh
	case score > 0.6:
		return models.UrgencyMedium
	default:
		return models.UrgencyLow
	}
}

func (d *DecisionEngine) rationale(best candidate, close []candidate) string {
	parts := make([]string, 0, 4)
	parts = append(parts, fmt.Sprintf("Selected %s (confidence: %.0f%%)",
		titleCase(best.hypothesis.PatternID), best.score*100))

	if len(best.evidence.Items) > 0 {
		top := best.evidence.Items
		if len(top) > 3 {
			top = top[:3]
		}
		descriptions := make([]string, 0, len(top))
		for _, item := range top {
			descriptions = append(descriptions, item.Description)
		}
		parts = append(parts, "Key evidence: "+strings.Join(descriptions, "; "))
	}

	if len(close) > 0 {
		names := make([]string, 0, 2)
		for _, c := range close {
			if len(names) == 2 {
				break
			}
			names = append(names, c.hypothesis.PatternID)
		}
		parts = append(parts, fmt.Sprintf("Ruled out: %s (lower evidence support)", strings.Join(names, ", ")))
	}

	if len(best.hypothesis.EvidenceFor) > 0 {
		supporting := best.hypothesis.EvidenceFor
		if len(supporting) > 2 {
			supporting = supporting[:2]
		}
		parts = append(parts, "Supporting factors: "+strings.Join(supporting, ", "))
	}

	return strings.Join(parts, ". ")
}

func inconclusiveDecision(reason string) models.Decision {
	return models.Decision{
		SelectedPattern: "INCONCLUSIVE",
		Certainty:       models.CertaintyInconclusive,
		Rationale:       "Unable to make decision: " + reason,
		Urgency:         models.UrgencyLow,
		Recommendation:  "Gather more evidence or provide additional context",
	}
}

// titleCase renders SNAKE_CASE pattern identifiers as readable titles.
func titleCase(id string) string {
	words := strings.Split(strings.ToLower(id), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
