package models

// TrustMode is the answer-shape contract implied by a question.
type TrustMode string

const (
	TrustNormal TrustMode = "NORMAL"
	TrustStrict TrustMode = "STRICT"
	TrustSafe   TrustMode = "SAFE"
)

// AnswerType classifies what kind of claim the answer makes.
type AnswerType string

const (
	AnswerDiagnosis  AnswerType = "diagnosis"
	AnswerCount      AnswerType = "count"
	AnswerPrediction AnswerType = "prediction"
)

// Audience selects the formatting strategy for the rendered answer.
type Audience string

const (
	AudienceDBA       Audience = "DBA"
	AudienceExecutive Audience = "EXECUTIVE"
	AudienceAuditor   Audience = "AUDITOR"
)

// QueryContext carries prior-turn context from the question-understanding layer.
type QueryContext struct {
	LastTarget   string   `json:"last_target,omitempty"`
	LastCause    string   `json:"last_cause,omitempty"`
	LastFindings []string `json:"last_findings,omitempty"`
}

// QueryRequest is one question handed to the pipeline, with data already
// materialized by the ingestion collaborator.
type QueryRequest struct {
	SessionID      string       `json:"session_id,omitempty"`
	Question       string       `json:"question"`
	TargetResource string       `json:"target_resource,omitempty"`
	Audience       Audience     `json:"audience,omitempty"`
	Context        QueryContext `json:"context,omitempty"`
	Alerts         []Alert      `json:"alerts,omitempty"`
	Metrics        []Metric     `json:"metrics,omitempty"`
}

// AuditReport summarises the self-audit gate outcome for one answer.
type AuditReport struct {
	Passed      bool      `json:"passed"`
	TrustMode   TrustMode `json:"trust_mode"`
	Violations  []string  `json:"violations,omitempty"`
	Corrections []string  `json:"corrections,omitempty"`
}

// QueryResponse is the pipeline's complete output for one question.
type QueryResponse struct {
	AnalysisID string           `json:"analysis_id"`
	SessionID  string           `json:"session_id,omitempty"`
	Answer     string           `json:"answer"`
	AnswerType AnswerType       `json:"answer_type"`
	Decision   Decision         `json:"decision"`
	Confidence ConfidenceReport `json:"confidence"`
	Audit      AuditReport      `json:"audit"`
	Incidents  []*IncidentCluster `json:"incidents,omitempty"`
	Hypotheses []Hypothesis     `json:"hypotheses,omitempty"`
	Noise      NoiseSummary     `json:"noise"`
	Risk       *OutageRisk      `json:"risk,omitempty"`
}
