package models

import (
	"fmt"
	"time"
)

// Signature is the clustering key derived from an alert: normalized resource,
// structured error signature (or fallback token), and inferred category.
type Signature struct {
	Resource       string `json:"resource"`
	ErrorSignature string `json:"error_signature"`
	Category       string `json:"category"`
}

// Key returns the canonical string form used for grouping.
func (s Signature) Key() string {
	return fmt.Sprintf("%s|%s|%s", s.Resource, s.ErrorSignature, s.Category)
}

// TemporalPattern labels how an incident behaves over time.
type TemporalPattern string

const (
	PatternTransient  TemporalPattern = "transient"
	PatternContinuous TemporalPattern = "continuous"
	PatternPersistent TemporalPattern = "persistent"
	PatternEscalating TemporalPattern = "escalating"
	PatternUnknown    TemporalPattern = "unknown"
)

// Priority is the DBA triage level assigned to an incident cluster.
type Priority string

const (
	PriorityP1 Priority = "P1"
	PriorityP2 Priority = "P2"
	PriorityP3 Priority = "P3"
)

// IncidentCluster owns the alerts sharing one signature. It is mutable while
// correlation runs and treated as frozen once pattern and priority are set.
type IncidentCluster struct {
	Signature Signature       `json:"signature"`
	Resource  string          `json:"resource"`
	Category  string          `json:"category"`
	Alerts    []Alert         `json:"-"`
	FirstSeen time.Time       `json:"first_seen"`
	LastSeen  time.Time       `json:"last_seen"`
	Pattern   TemporalPattern `json:"pattern"`
	Priority  Priority        `json:"priority"`
}

// NewIncidentCluster creates an empty cluster for the given signature.
func NewIncidentCluster(sig Signature) *IncidentCluster {
	return &IncidentCluster{
		Signature: sig,
		Resource:  sig.Resource,
		Category:  sig.Category,
		Pattern:   PatternUnknown,
		Priority:  PriorityP3,
	}
}

// AddAlert appends an alert and widens the first/last seen window.
func (c *IncidentCluster) AddAlert(alert Alert) {
	c.Alerts = append(c.Alerts, alert)
	if alert.Timestamp.IsZero() {
		return
	}
	if c.FirstSeen.IsZero() || alert.Timestamp.Before(c.FirstSeen) {
		c.FirstSeen = alert.Timestamp
	}
	if c.LastSeen.IsZero() || alert.Timestamp.After(c.LastSeen) {
		c.LastSeen = alert.Timestamp
	}
}

// AlertCount reports the number of member alerts.
func (c *IncidentCluster) AlertCount() int {
	return len(c.Alerts)
}

// CriticalCount reports the number of CRITICAL member alerts.
func (c *IncidentCluster) CriticalCount() int {
	count := 0
	for _, a := range c.Alerts {
		if a.Severity == SeverityCritical {
			count++
		}
	}
	return count
}

// Duration returns the observed incident span, or zero when timestamps are
// not derivable.
func (c *IncidentCluster) Duration() time.Duration {
	if c.FirstSeen.IsZero() || c.LastSeen.IsZero() {
		return 0
	}
	return c.LastSeen.Sub(c.FirstSeen)
}

// HasWindow reports whether both first and last seen could be derived.
func (c *IncidentCluster) HasWindow() bool {
	return !c.FirstSeen.IsZero() && !c.LastSeen.IsZero()
}
