package caersparser

import (
	"strings"

	"github.com/giygas/caers-api/caersparser/entities"
)

// Outcome phrases per severity tier. A tier matches when the outcome contains
// any one of its phrases.
var (
	seriousPhrases = []string{
		"hospitalization",
		"disability",
		"congenital anomaly",
		"other serious or important medical event",
	}
	emergencyPhrases = []string{
		"visited emergency room",
		"other serious outcome",
	}
)

// Score maps a lowercased CASE_OUTCOME description to a severity.
// The highest matching tier wins. An empty outcome scores as the text "nan".
func Score(outcome string) entities.Severity {
	if outcome == "" {
		outcome = "nan"
	}

	switch {
	case strings.Contains(outcome, "death"):
		return entities.SeverityDeath
	case strings.Contains(outcome, "life threatening"):
		return entities.SeverityLifeThreatening
	case containsAny(outcome, seriousPhrases):
		return entities.SeveritySerious
	case containsAny(outcome, emergencyPhrases):
		return entities.SeverityEmergencyRoom
	default:
		return entities.SeverityOther
	}
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
