// Package audit gates every answer before it leaves the pipeline: it checks
// the answer against the question's trust-mode contract, the requested
// resource scope, and the facts already stated this conversation.
package audit

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync/atomic"

	"github.com/alertstack/triage-engine/internal/config"
	"github.com/alertstack/triage-engine/internal/models"
)

var (
	bareNumberRe = regexp.MustCompile(`^\d+$`)
	digitsRe     = regexp.MustCompile(`\d+`)
	forOnlyRe    = regexp.MustCompile(`for\s+([a-z0-9_]+)\s+only`)
)

// Input is one answer candidate submitted for review.
type Input struct {
	Question string
	Answer   string
	// DataCount is the number of records backing the answer.
	DataCount int
	// Target is the resource the question was resolved to, if any.
	Target string
	// Count is the numeric claim the answer makes, when it makes one.
	Count *float64
}

// Outcome carries the possibly rewritten answer and the audit report.
type Outcome struct {
	Answer string
	Report models.AuditReport
}

// Engine performs the self-audit pass. It is stateless across sessions; the
// per-conversation state lives in the FactRegister handed to Review.
type Engine struct {
	scopes    *ScopeDetector
	tolerance float64
	floor     float64
	logger    *slog.Logger

	audits      atomic.Int64
	corrections atomic.Int64
}

// NewEngine builds the audit engine from the configured tolerances and
// standby relationships.
func NewEngine(thresholds config.ThresholdConfig, resources config.ResourcesConfig, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		scopes:    NewScopeDetector(resources.StandbyPairs),
		tolerance: thresholds.NumericTolerance,
		floor:     thresholds.NumericToleranceFloor,
		logger:    logger,
	}
}

// NewRegister creates a fact register wired to this engine's tolerances.
// One register per conversation.
func (e *Engine) NewRegister() *FactRegister {
	return NewFactRegister(e.tolerance, e.floor)
}

// Scopes exposes the scope detector for callers that resolve targets before
// running the pipeline.
func (e *Engine) Scopes() *ScopeDetector {
	return e.scopes
}

// Stats reports lifetime audit counters.
func (e *Engine) Stats() (audits, corrections int64) {
	return e.audits.Load(), e.corrections.Load()
}

// Review validates an answer against its question. Violations are repaired
// in place where a deterministic fix exists (extracting the bare number,
// disclosing a related standby, reconciling a numeric contradiction) and the
// fix is recorded as a correction; anything unrepairable fails the audit and
// downgrades the answer.
func (e *Engine) Review(register *FactRegister, in Input) Outcome {
	e.audits.Add(1)

	answer := in.Answer
	var violations, corrections []string

	mode := DetectTrustMode(in.Question, in.DataCount > 0)

	scope := e.scopes.Detect(in.Question)
	target := in.Target
	if target == "" {
		target = e.scopes.ExtractTarget(in.Question)
	}
	// A named resource narrows an environment question to that resource.
	if target != "" && scope == ScopeEnvironment {
		scope = ScopeDatabase
	}

	// Answer-shape contract first: in strict mode nothing else matters
	// until the shape is right.
	if mode == models.TrustStrict {
		contractViolations := checkStrictContract(in.Question, answer)
		if len(contractViolations) > 0 {
			if fixed, ok := extractBareNumber(answer); ok && wantsBareNumber(in.Question) {
				answer = fixed
				corrections = append(corrections, "extracted bare number to satisfy strict contract")
			} else {
				violations = append(violations, contractViolations...)
			}
		}
	}

	if ok, reason := e.scopes.Validate(answer, scope, target); !ok {
		// The only repairable leak is the known standby counterpart; every
		// other leak has no deterministic fix and must fail the audit.
		standby := ""
		if target != "" && (scope == ScopePrimary || scope == ScopeDatabase) {
			standby = e.scopes.StandbyFor(target)
		}
		if standby != "" && containsWord(strings.ToUpper(answer), standby) {
			answer = answer + "\n\nScope note: " + standby + " is a related standby of " +
				strings.ToUpper(target) + " and is outside the requested scope."
			corrections = append(corrections, "disclosed related standby "+standby)
			// The disclosure only repairs the standby mention; any further
			// leak still fails.
			if ok, reason := e.scopes.Validate(answer, scope, target); !ok {
				violations = append(violations, "SCOPE_VIOLATION: "+reason)
			}
		} else {
			violations = append(violations, "SCOPE_VIOLATION: "+reason)
		}
	}

	if register != nil && in.Count != nil {
		key := countKey(target)
		contradicts, existing := register.CheckNumber("count", key, *in.Count, scope)
		if contradicts {
			oldVal := formatCount(existing.Number)
			newVal := formatCount(*in.Count)
			if mode != models.TrustStrict {
				answer = answer + "\n\nNote: earlier this conversation the count for " + key +
					" was stated as " + oldVal + "; current data shows " + newVal +
					". Both values are retained; the difference may be due to scope or filter changes."
			}
			register.RecordCorrection(key, oldVal, newVal, "numeric contradiction disclosed")
			corrections = append(corrections, fmt.Sprintf("reconciled %s: %s vs %s", key, oldVal, newVal))
			e.corrections.Add(1)
		}
	}

	if in.DataCount == 0 && mode != models.TrustStrict && !disclosesNoData(answer) {
		violations = append(violations, "CONFIDENCE_VIOLATION: answer asserts findings with no backing data")
	}

	passed := len(violations) == 0
	if !passed {
		answer = e.downgrade(in.Question, answer, mode, violations)
		if mode != models.TrustStrict {
			mode = models.TrustSafe
		}
	}

	// A fact becomes part of the conversation only once its claim actually
	// reached the user.
	if passed && register != nil && in.Count != nil {
		register.RegisterNumber("count", countKey(target), *in.Count, scope, in.Question)
	}

	if len(corrections) > 0 {
		e.logger.Debug("audit corrections applied",
			"question", in.Question,
			"corrections", len(corrections))
	}

	return Outcome{
		Answer: answer,
		Report: models.AuditReport{
			Passed:      passed,
			TrustMode:   mode,
			Violations:  violations,
			Corrections: corrections,
		},
	}
}

func countKey(target string) string {
	if target == "" {
		return "environment:count"
	}
	return strings.ToUpper(target) + ":count"
}

func formatCount(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}

// disclosesNoData reports whether the answer already tells the user it rests
// on little or no data, making an unbacked claim impossible.
func disclosesNoData(answer string) bool {
	lower := strings.ToLower(answer)
	for _, ind := range []string{
		"no data", "no alerts", "no incidents", "no matching", "no hypotheses",
		"0 alerts", "0 incidents", "insufficient data", "inconclusive", "cannot",
	} {
		if strings.Contains(lower, ind) {
			return true
		}
	}
	return false
}

func wantsBareNumber(question string) bool {
	q := strings.ToLower(question)
	for _, marker := range []string{"only the number", "only number", "number only", "count only", "exact count", "just the number", "just the count", "only the count", "only the total"} {
		if strings.Contains(q, marker) {
			return true
		}
	}
	return false
}

func checkStrictContract(question, answer string) []string {
	var violations []string
	q := strings.ToLower(question)
	trimmed := strings.TrimSpace(answer)

	if wantsBareNumber(question) && !bareNumberRe.MatchString(trimmed) {
		preview := trimmed
		if len(preview) > 50 {
			preview = preview[:50]
		}
		violations = append(violations,
			"CONTRACT_VIOLATION: bare number requested but answer is '"+preview+"'")
	}

	if strings.Contains(q, "yes or no") || strings.Contains(q, "yes/no") {
		lower := strings.ToLower(trimmed)
		if !strings.HasPrefix(lower, "yes") && !strings.HasPrefix(lower, "no") {
			violations = append(violations,
				"CONTRACT_VIOLATION: yes/no question but answer does not start with yes or no")
		}
	}

	if m := forOnlyRe.FindStringSubmatch(q); m != nil {
		target := strings.ToUpper(m[1])
		if !strings.Contains(strings.ToUpper(answer), target) {
			violations = append(violations,
				"CONTRACT_VIOLATION: asked for "+target+" only but the answer never mentions it")
		}
	}

	return violations
}

// extractBareNumber pulls the most significant number out of a prose answer.
func extractBareNumber(answer string) (string, bool) {
	numbers := digitsRe.FindAllString(strings.ReplaceAll(answer, ",", ""), -1)
	if len(numbers) == 0 {
		return "", false
	}
	best := ""
	for _, n := range numbers {
		if numericLess(best, n) {
			best = n
		}
	}
	return best, true
}

func numericLess(a, b string) bool {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

func (e *Engine) downgrade(question, answer string, mode models.TrustMode, violations []string) string {
	reason := "insufficient data"
	if len(violations) > 0 {
		reason = violations[0]
	}
	switch mode {
	case models.TrustStrict:
		if fixed, ok := extractBareNumber(answer); ok {
			return fixed
		}
		return "cannot determine: " + reason
	default:
		return "I cannot answer this reliably with the available data. Reason: " + reason +
			". Additional metrics or a wider alert window would be needed for a trustworthy answer."
	}
}
