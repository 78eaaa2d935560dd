package models

import "time"

// Severity captures alert impact levels as reported by the monitoring source.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityWarning  Severity = "WARNING"
	SeverityInfo     Severity = "INFO"
	// SeverityClear marks recovery notifications; treated as a
	// contradiction signal by the evidence collector.
	SeverityClear Severity = "CLEAR"
)

// Alert is one raw, immutable alert record handed over by the ingestion layer.
type Alert struct {
	Timestamp time.Time `json:"timestamp"`
	Resource  string    `json:"resource_id"`
	Severity  Severity  `json:"severity"`
	Message   string    `json:"message"`
	Category  string    `json:"category,omitempty"`
}

// Metric is a normalized metric sample, used only by evidence collection.
type Metric struct {
	Time     time.Time `json:"time"`
	Resource string    `json:"resource_id"`
	Name     string    `json:"name"`
	Category string    `json:"category,omitempty"`
	Severity Severity  `json:"severity,omitempty"`
	Value    float64   `json:"value"`
}
