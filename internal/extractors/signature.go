package extractors

import (
	"regexp"
	"strings"

	"github.com/alertstack/triage-engine/internal/models"
)

// oraPattern maps a known Oracle error regex to its canonical signature and
// inferred category.
type oraPattern struct {
	re       *regexp.Regexp
	code     string
	category string
}

var oraPatterns = []oraPattern{
	{regexp.MustCompile(`(?i)ORA-0*1555\b`), "ORA-1555", "standby"},
	{regexp.MustCompile(`(?i)ORA-0*4031\b`), "ORA-4031", "memory"},
	{regexp.MustCompile(`(?i)ORA-0*600\b`), "ORA-600", "critical"},
	{regexp.MustCompile(`(?i)ORA-0*7445\b`), "ORA-7445", "critical"},
	{regexp.MustCompile(`(?i)ORA-0*1578\b`), "ORA-1578", "datafile"},
	{regexp.MustCompile(`(?i)ORA-0*1110\b`), "ORA-1110", "datafile"},
	{regexp.MustCompile(`(?i)ORA-0*255\b`), "ORA-255", "archiver"},
	{regexp.MustCompile(`(?i)ORA-0*16038\b`), "ORA-16038", "archiver"},
	{regexp.MustCompile(`(?i)ORA-0*19804\b`), "ORA-19804", "storage"},
	{regexp.MustCompile(`(?i)ORA-0*27090\b`), "ORA-27090", "storage"},
	{regexp.MustCompile(`(?i)ORA-0*12541\b`), "ORA-12541", "network"},
	{regexp.MustCompile(`(?i)ORA-0*12543\b`), "ORA-12543", "network"},
	{regexp.MustCompile(`(?i)ORA-0*16\d{3}\b`), "ORA-16xxx", "standby"},
	{regexp.MustCompile(`(?i)TNS-\d+`), "TNS-error", "network"},
}

var (
	oraCodeRe  = regexp.MustCompile(`(ORA-\d+)`)
	tnsCodeRe  = regexp.MustCompile(`(TNS-\d+)`)
	rmanCodeRe = regexp.MustCompile(`(RMAN-\d+)`)

	trailingIDRe = regexp.MustCompile(`[_-]?\d+$`)
)

// messageSignaturePatterns back the keyword fallback for alerts without a
// structured error code.
var messageSignaturePatterns = []struct {
	re  *regexp.Regexp
	sig string
}{
	{regexp.MustCompile(`(?i)archiver|archive log`), "ARCHIVER"},
	{regexp.MustCompile(`(?i)standby|data guard|dataguard|apply|gap`), "STANDBY"},
	{regexp.MustCompile(`(?i)tablespace|datafile|storage`), "STORAGE"},
	{regexp.MustCompile(`(?i)memory|pga|sga|shared pool`), "MEMORY"},
	{regexp.MustCompile(`(?i)session|process|connection`), "SESSION"},
	{regexp.MustCompile(`(?i)redo|log switch|redo log`), "REDO"},
}

// SignatureExtractor derives deterministic clustering signatures from raw
// alerts.
type SignatureExtractor struct{}

// NewSignatureExtractor constructs the extractor.
func NewSignatureExtractor() *SignatureExtractor {
	return &SignatureExtractor{}
}

// Extract returns the full clustering signature for one alert.
func (e *SignatureExtractor) Extract(alert models.Alert) models.Signature {
	return models.Signature{
		Resource:       NormalizeResource(alert.Resource),
		ErrorSignature: ExtractErrorSignature(alert.Message),
		Category:       InferCategory(alert),
	}
}

// NormalizeResource uppercases a resource name and strips trailing numeric
// instance suffixes so node-level variants of the same database group
// together.
func NormalizeResource(name string) string {
	if name == "" {
		return "UNKNOWN"
	}
	normalized := strings.ToUpper(strings.TrimSpace(name))
	normalized = trailingIDRe.ReplaceAllString(normalized, "")
	if normalized == "" {
		return "UNKNOWN"
	}
	return normalized
}

// ExtractErrorSignature derives the error signature for clustering: a known
// Oracle code, any ORA/TNS/RMAN code, a keyword token, or a bounded message
// prefix as last resort.
func ExtractErrorSignature(message string) string {
	msg := strings.ToUpper(strings.TrimSpace(message))
	if msg == "" {
		return "UNKNOWN"
	}

	for _, p := range oraPatterns {
		if p.re.MatchString(msg) {
			return p.code
		}
	}
	if m := oraCodeRe.FindString(msg); m != "" {
		return m
	}
	if m := tnsCodeRe.FindString(msg); m != "" {
		return m
	}
	if m := rmanCodeRe.FindString(msg); m != "" {
		return m
	}

	for _, p := range messageSignaturePatterns {
		if p.re.MatchString(msg) {
			return p.sig
		}
	}

	if len(msg) > 30 {
		msg = msg[:30]
	}
	return strings.TrimSpace(msg)
}

// InferCategory returns the alert category, preferring the explicit field and
// falling back to message keywords.
func InferCategory(alert models.Alert) string {
	if alert.Category != "" {
		return strings.ToUpper(strings.TrimSpace(alert.Category))
	}

	msg := strings.ToUpper(alert.Message)
	switch {
	case strings.Contains(msg, "STANDBY"), strings.Contains(msg, "DATA GUARD"), strings.Contains(msg, "DATAGUARD"):
		return "STANDBY"
	case strings.Contains(msg, "ARCHIVE"):
		return "ARCHIVER"
	case strings.Contains(msg, "REDO"):
		return "REDO"
	case strings.Contains(msg, "TABLESPACE"), strings.Contains(msg, "DATAFILE"):
		return "STORAGE"
	case strings.Contains(msg, "MEMORY"), strings.Contains(msg, "PGA"), strings.Contains(msg, "SGA"):
		return "MEMORY"
	case strings.Contains(msg, "SESSION"), strings.Contains(msg, "PROCESS"):
		return "SESSION"
	}
	return "GENERAL"
}
