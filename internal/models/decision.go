package models

// Certainty grades how conclusive a fused decision is.
type Certainty string

const (
	CertaintyDefinitive   Certainty = "DEFINITIVE"
	CertaintyProbable     Certainty = "PROBABLE"
	CertaintyPossible     Certainty = "POSSIBLE"
	CertaintyInconclusive Certainty = "INCONCLUSIVE"
)

// Urgency grades how fast operators should act on a decision.
type Urgency string

const (
	UrgencyLow      Urgency = "LOW"
	UrgencyMedium   Urgency = "MEDIUM"
	UrgencyHigh     Urgency = "HIGH"
	UrgencyCritical Urgency = "CRITICAL"
)

// Alternative is a ruled-out candidate kept for transparency.
type Alternative struct {
	PatternID string  `json:"pattern_id"`
	Score     float64 `json:"score"`
}

// Decision is the fused, immutable outcome of one pipeline run.
type Decision struct {
	SelectedPattern string         `json:"selected_pattern"`
	Confidence      float64        `json:"confidence"`
	Certainty       Certainty      `json:"certainty"`
	Rationale       string         `json:"rationale"`
	Alternatives    []Alternative  `json:"alternatives,omitempty"`
	Urgency         Urgency        `json:"urgency"`
	PrimaryEvidence []EvidenceItem `json:"primary_evidence,omitempty"`
	Contradictions  []string       `json:"contradictions,omitempty"`
	Recommendation  string         `json:"recommendation,omitempty"`
}

// ConfidenceLevel is the coarse trust band reported to the user.
type ConfidenceLevel string

const (
	ConfidenceHigh    ConfidenceLevel = "HIGH"
	ConfidenceMedium  ConfidenceLevel = "MEDIUM"
	ConfidenceLow     ConfidenceLevel = "LOW"
	ConfidenceVeryLow ConfidenceLevel = "VERY_LOW"
)

// ConfidenceReport carries the blended score and its level.
type ConfidenceReport struct {
	Score          float64            `json:"score"`
	Level          ConfidenceLevel    `json:"level"`
	Factors        map[string]float64 `json:"factors,omitempty"`
	Capped         bool               `json:"capped,omitempty"`
	Recommendation string             `json:"recommendation,omitempty"`
}

// RiskLevel grades the outage risk indicator.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// OutageRisk is a probabilistic 0-100 risk indicator for one resource. It is
// never a deterministic outcome claim.
type OutageRisk struct {
	Resource  string         `json:"resource"`
	Score     int            `json:"score"`
	Level     RiskLevel      `json:"level"`
	Reasons   []string       `json:"reasons,omitempty"`
	Breakdown map[string]int `json:"breakdown,omitempty"`
}

// NoiseSummary separates alert noise from unique incident signal.
type NoiseSummary struct {
	TotalAlerts     int     `json:"total_alerts"`
	UniqueIncidents int     `json:"unique_incidents"`
	NoiseRatio      float64 `json:"noise_ratio"`
	DedupFactor     float64 `json:"dedup_factor"`
}
