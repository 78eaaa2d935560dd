package audit

import (
	"regexp"
	"strings"

	"github.com/alertstack/triage-engine/internal/models"
)

// Strict mode: the question demands a bare value and forbids inference.
var strictTriggers = []*regexp.Regexp{
	regexp.MustCompile(`give\s+(?:me\s+)?only\s+(?:the\s+)?number`),
	regexp.MustCompile(`exact\s+count`),
	regexp.MustCompile(`for\s+(?:the\s+)?audit`),
	regexp.MustCompile(`only\s+(?:the\s+)?(?:number|count|total)`),
	regexp.MustCompile(`number\s+only`),
	regexp.MustCompile(`just\s+(?:the\s+)?(?:number|count)`),
	regexp.MustCompile(`yes\s+or\s+no`),
	regexp.MustCompile(`yes/no`),
	regexp.MustCompile(`facts\s+only`),
	regexp.MustCompile(`count\s+only`),
	regexp.MustCompile(`which\s+database`),
}

// Matched against the raw question: an uppercase severity in a how-many
// question signals an exact-count request.
var strictRawTriggers = []*regexp.Regexp{
	regexp.MustCompile(`how\s+many\s+[A-Z]+\s+alerts`),
}

// Safe mode: the question asks for certainty no diagnostic system can give.
var safeTriggers = []*regexp.Regexp{
	regexp.MustCompile(`what\s+will\s+happen`),
	regexp.MustCompile(`predict\s+(?:the\s+)?exact`),
	regexp.MustCompile(`guarantee`),
	regexp.MustCompile(`100%\s+(?:sure|certain)`),
}

// DetectTrustMode derives the answer-shape contract from the question text
// and from whether any data backs the answer.
func DetectTrustMode(question string, dataAvailable bool) models.TrustMode {
	q := strings.ToLower(question)

	for _, re := range strictTriggers {
		if re.MatchString(q) {
			return models.TrustStrict
		}
	}
	for _, re := range strictRawTriggers {
		if re.MatchString(question) {
			return models.TrustStrict
		}
	}

	if !dataAvailable {
		return models.TrustSafe
	}
	for _, re := range safeTriggers {
		if re.MatchString(q) {
			return models.TrustSafe
		}
	}
	return models.TrustNormal
}
