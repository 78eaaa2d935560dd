package audit

import (
	"fmt"
	"regexp"
	"strings"
)

// Scope names the resource boundary an answer must respect.
const (
	ScopePrimary     = "primary"
	ScopeStandby     = "standby"
	ScopeDatabase    = "database"
	ScopeEnvironment = "environment"
)

var (
	primaryNameRe = regexp.MustCompile(`\b[A-Z]+STB\b`)
	standbyNameRe = regexp.MustCompile(`\b[A-Z]+STBN\b`)

	targetPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\bFOR\s+([A-Z][A-Z0-9_]*[0-9_][A-Z0-9_]*|[A-Z]+(?:STB|STBN|DB))\b`),
		regexp.MustCompile(`\bON\s+([A-Z][A-Z0-9_]*[0-9_][A-Z0-9_]*|[A-Z]+(?:STB|STBN|DB))\b`),
		regexp.MustCompile(`\b([A-Z][A-Z0-9_]*(?:STB|STBN|DB))\b`),
	}
)

// ScopeDetector resolves the scope a question asks about and validates
// answers against it, including known primary/standby name pairs.
type ScopeDetector struct {
	standbyPairs map[string]string
}

// NewScopeDetector builds a detector over the configured primary-to-standby
// name relationships.
func NewScopeDetector(standbyPairs map[string]string) *ScopeDetector {
	pairs := make(map[string]string, len(standbyPairs))
	for primary, standby := range standbyPairs {
		pairs[strings.ToUpper(primary)] = strings.ToUpper(standby)
	}
	return &ScopeDetector{standbyPairs: pairs}
}

// StandbyFor returns the standby counterpart of a primary database name.
// Unknown names fall back to the name with an N suffix.
func (d *ScopeDetector) StandbyFor(primary string) string {
	upper := strings.ToUpper(primary)
	if standby, ok := d.standbyPairs[upper]; ok {
		return standby
	}
	return upper + "N"
}

// Detect infers the requested scope from the question text.
func (d *ScopeDetector) Detect(question string) string {
	q := strings.ToLower(question)

	for _, ind := range []string{"primary only", "exclude standby", "not standby", "without standby"} {
		if strings.Contains(q, ind) {
			return ScopePrimary
		}
	}
	for _, ind := range []string{"standby only", "standby database", "only standby"} {
		if strings.Contains(q, ind) {
			return ScopeStandby
		}
	}

	upper := strings.ToUpper(question)
	if standbyNameRe.MatchString(upper) {
		return ScopeStandby
	}
	if primaryNameRe.MatchString(upper) {
		return ScopePrimary
	}
	if d.mentionsKnownDatabase(upper) {
		return ScopeDatabase
	}
	return ScopeEnvironment
}

func (d *ScopeDetector) mentionsKnownDatabase(upperQuestion string) bool {
	for primary, standby := range d.standbyPairs {
		if strings.Contains(upperQuestion, primary) || strings.Contains(upperQuestion, standby) {
			return true
		}
	}
	return false
}

// ExtractTarget pulls the database name a question is about, if any.
func (d *ScopeDetector) ExtractTarget(question string) string {
	upper := strings.ToUpper(question)
	for primary := range d.standbyPairs {
		if containsWord(upper, primary) {
			return primary
		}
	}
	for _, re := range targetPatterns {
		if m := re.FindStringSubmatch(upper); m != nil {
			return m[1]
		}
	}
	return ""
}

func containsWord(haystack, word string) bool {
	idx := strings.Index(haystack, word)
	for idx >= 0 {
		before := idx == 0 || !isWordByte(haystack[idx-1])
		after := idx+len(word) >= len(haystack) || !isWordByte(haystack[idx+len(word)])
		if before && after {
			return true
		}
		next := strings.Index(haystack[idx+1:], word)
		if next < 0 {
			return false
		}
		idx += 1 + next
	}
	return false
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')
}

// Validate checks that an answer stays inside the expected scope. It returns
// false with a reason when out-of-scope resources leak in.
func (d *ScopeDetector) Validate(answer, expectedScope, targetDB string) (bool, string) {
	upper := strings.ToUpper(answer)

	switch expectedScope {
	case ScopePrimary, ScopeDatabase:
		if targetDB != "" {
			standby := d.StandbyFor(targetDB)
			if containsWord(upper, standby) && !strings.Contains(upper, "RELATED STANDBY") {
				return false, fmt.Sprintf("standby (%s) mentioned in %s-only scope", standby, strings.ToUpper(targetDB))
			}
		}
		if expectedScope == ScopePrimary {
			for _, ind := range []string{"STANDBY DATA", "INCLUDING STANDBY"} {
				if strings.Contains(upper, ind) {
					return false, "standby data referenced in primary-only scope"
				}
			}
		}
		if targetDB != "" {
			for _, ind := range []string{"ENVIRONMENT-WIDE", "ALL DATABASES"} {
				if strings.Contains(upper, ind) {
					return false, fmt.Sprintf("environment-wide data shown for %s-specific query", strings.ToUpper(targetDB))
				}
			}
		}
	case ScopeStandby:
		if strings.Contains(upper, "PRIMARY") && !strings.Contains(upper, "NOT PRIMARY") {
			return false, "primary data referenced in standby-only scope"
		}
	}
	return true, ""
}
