package models

// Hypothesis is a candidate root-cause explanation proposed from symptoms,
// created fresh per query and never persisted.
type Hypothesis struct {
	ID              string   `json:"id"`
	PatternID       string   `json:"pattern_id"`
	Title           string   `json:"title"`
	Probability     float64  `json:"probability"`
	EvidenceFor     []string `json:"evidence_for,omitempty"`
	EvidenceAgainst []string `json:"evidence_against,omitempty"`
	RequiredChecks  []string `json:"required_checks,omitempty"`
}

// EvidenceStrength bands the accumulated evidence weight.
type EvidenceStrength string

const (
	EvidenceStrong       EvidenceStrength = "STRONG"
	EvidenceModerate     EvidenceStrength = "MODERATE"
	EvidenceWeak         EvidenceStrength = "WEAK"
	EvidenceInsufficient EvidenceStrength = "INSUFFICIENT"
)

// EvidenceItem is one scored observation gathered for a hypothesis.
type EvidenceItem struct {
	Source      string  `json:"source"`
	Description string  `json:"description"`
	Weight      float64 `json:"weight"`
	Relevance   string  `json:"relevance,omitempty"`
}

// EvidencePackage is the scored corroborating/contradicting set for one
// hypothesis.
type EvidencePackage struct {
	HypothesisID    string           `json:"hypothesis_id"`
	PatternID       string           `json:"pattern_id"`
	Strength        EvidenceStrength `json:"strength"`
	Items           []EvidenceItem   `json:"items,omitempty"`
	Contradictions  []string         `json:"contradictions,omitempty"`
	TotalWeight     float64          `json:"total_weight"`
	ConfidenceBoost float64          `json:"confidence_boost"`
}

// Count returns the number of collected evidence items.
func (p EvidencePackage) Count() int {
	return len(p.Items)
}

// TestOutcome labels the result of re-testing a hypothesis against new data.
type TestOutcome string

const (
	TestSupported    TestOutcome = "SUPPORTED"
	TestRefuted      TestOutcome = "REFUTED"
	TestInconclusive TestOutcome = "INCONCLUSIVE"
	TestUntestable   TestOutcome = "UNTESTABLE"
)

// HypothesisTest reports how additional evidence shifted a hypothesis.
type HypothesisTest struct {
	HypothesisID       string      `json:"hypothesis_id"`
	Outcome            TestOutcome `json:"outcome"`
	SupportCount       int         `json:"support_count"`
	RefuteCount        int         `json:"refute_count"`
	NewEvidence        []string    `json:"new_evidence,omitempty"`
	OriginalProbability float64    `json:"original_probability"`
	UpdatedProbability float64     `json:"updated_probability"`
}
