// Package report renders a pipeline response for a given audience. One
// formatter with a strategy per audience replaces per-callsite branching.
package report

import (
	"fmt"
	"strings"

	"github.com/alertstack/triage-engine/internal/models"
)

// Formatter renders responses per audience.
type Formatter struct {
	strategies map[models.Audience]func(*models.QueryResponse) string
}

// NewFormatter builds a formatter with the built-in audience strategies.
func NewFormatter() *Formatter {
	f := &Formatter{}
	f.strategies = map[models.Audience]func(*models.QueryResponse) string{
		models.AudienceDBA:       f.formatDBA,
		models.AudienceExecutive: f.formatExecutive,
		models.AudienceAuditor:   f.formatAuditor,
	}
	return f
}

// Format renders the response for the audience. Unknown or empty audiences
// get the DBA rendering.
func (f *Formatter) Format(audience models.Audience, resp *models.QueryResponse) string {
	strategy, ok := f.strategies[audience]
	if !ok {
		strategy = f.formatDBA
	}
	return strategy(resp)
}

func (f *Formatter) formatDBA(resp *models.QueryResponse) string {
	var b strings.Builder
	b.WriteString(resp.Answer)

	if len(resp.Decision.PrimaryEvidence) > 0 {
		b.WriteString("\n\nEvidence:")
		for _, item := range resp.Decision.PrimaryEvidence {
			fmt.Fprintf(&b, "\n  - [%s] %s (weight %.2f)", item.Source, item.Description, item.Weight)
		}
	}
	if len(resp.Decision.Contradictions) > 0 {
		b.WriteString("\nContradicting signals:")
		for _, c := range resp.Decision.Contradictions {
			b.WriteString("\n  - " + c)
		}
	}
	if len(resp.Hypotheses) > 0 && len(resp.Hypotheses[0].RequiredChecks) > 0 {
		b.WriteString("\nVerification queries:")
		for _, check := range resp.Hypotheses[0].RequiredChecks {
			b.WriteString("\n  " + check)
		}
	}
	return b.String()
}

func (f *Formatter) formatExecutive(resp *models.QueryResponse) string {
	var b strings.Builder

	switch resp.Decision.Certainty {
	case models.CertaintyInconclusive:
		b.WriteString("Status: investigation ongoing, no confirmed root cause yet.")
	default:
		fmt.Fprintf(&b, "Status: likely cause identified (%s), urgency %s.",
			readablePattern(resp.Decision.SelectedPattern), resp.Decision.Urgency)
	}

	if resp.Noise.TotalAlerts > 0 {
		fmt.Fprintf(&b, "\nImpact: %d alerts condensed to %d distinct incident(s).",
			resp.Noise.TotalAlerts, resp.Noise.UniqueIncidents)
	}
	if top := topPriority(resp.Incidents); top != "" {
		fmt.Fprintf(&b, "\nHighest priority: %s.", top)
	}
	fmt.Fprintf(&b, "\nConfidence: %s.", resp.Confidence.Level)
	if resp.Risk != nil {
		fmt.Fprintf(&b, "\nOutage risk indicator for %s: %d/100 (%s).",
			resp.Risk.Resource, resp.Risk.Score, resp.Risk.Level)
	}
	return b.String()
}

func (f *Formatter) formatAuditor(resp *models.QueryResponse) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Analysis %s", resp.AnalysisID)
	fmt.Fprintf(&b, "\nTrust mode: %s; audit passed: %v", resp.Audit.TrustMode, resp.Audit.Passed)
	if len(resp.Audit.Violations) > 0 {
		b.WriteString("\nViolations:")
		for _, v := range resp.Audit.Violations {
			b.WriteString("\n  - " + v)
		}
	}
	if len(resp.Audit.Corrections) > 0 {
		b.WriteString("\nCorrections:")
		for _, c := range resp.Audit.Corrections {
			b.WriteString("\n  - " + c)
		}
	}
	fmt.Fprintf(&b, "\nAlerts examined: %d; unique incidents: %d",
		resp.Noise.TotalAlerts, resp.Noise.UniqueIncidents)
	fmt.Fprintf(&b, "\nDecision: %s (certainty %s, confidence %.2f)",
		resp.Decision.SelectedPattern, resp.Decision.Certainty, resp.Decision.Confidence)
	b.WriteString("\n\n" + resp.Answer)
	return b.String()
}

func topPriority(incidents []*models.IncidentCluster) string {
	best := ""
	for _, inc := range incidents {
		p := string(inc.Priority)
		if best == "" || p < best {
			best = p
		}
	}
	return best
}

func readablePattern(id string) string {
	if id == "" {
		return "unknown"
	}
	return strings.ToLower(strings.ReplaceAll(id, "_", " "))
}
