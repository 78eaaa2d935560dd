package extractors

import (
	"regexp"
	"strings"

	"github.com/alertstack/triage-engine/internal/models"
)

var symptomKeywords = []string{
	"tablespace", "memory", "cpu", "disk", "listener",
	"timeout", "connection", "lag", "standby", "lock",
	"deadlock", "archive", "undo", "rollback", "internal",
}

var oraDigitsRe = regexp.MustCompile(`ORA-(\d+)`)

// Symptoms is the multiset of observations pulled from a batch of alerts.
// Hypothesis matching works entirely off this structure.
type Symptoms struct {
	ORACodes       map[string]int
	Keywords       map[string]int
	SeverityCounts map[models.Severity]int
	Resources      map[string]int
	RawMessages    []string
}

// CriticalCount returns the number of CRITICAL alerts observed.
func (s *Symptoms) CriticalCount() int {
	return s.SeverityCounts[models.SeverityCritical]
}

// Total returns the number of alerts the symptoms were drawn from.
func (s *Symptoms) Total() int {
	return len(s.RawMessages)
}

// ExtractSymptoms folds alert messages into code counts, keyword counts and
// a severity histogram.
func ExtractSymptoms(alerts []models.Alert) *Symptoms {
	symptoms := &Symptoms{
		ORACodes:       make(map[string]int),
		Keywords:       make(map[string]int),
		SeverityCounts: make(map[models.Severity]int),
		Resources:      make(map[string]int),
	}

	for _, alert := range alerts {
		message := strings.ToUpper(alert.Message)
		severity := alert.Severity
		if severity == "" {
			severity = models.SeverityInfo
		}
		resource := strings.ToUpper(alert.Resource)
		if resource == "" {
			resource = "UNKNOWN"
		}

		for _, m := range oraDigitsRe.FindAllStringSubmatch(message, -1) {
			symptoms.ORACodes["ORA-"+m[1]]++
		}

		lower := strings.ToLower(message)
		for _, kw := range symptomKeywords {
			if strings.Contains(lower, kw) {
				symptoms.Keywords[kw]++
			}
		}

		symptoms.SeverityCounts[severity]++
		symptoms.Resources[resource]++
		symptoms.RawMessages = append(symptoms.RawMessages, message)
	}

	return symptoms
}
