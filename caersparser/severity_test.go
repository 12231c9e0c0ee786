package caersparser

import (
	"testing"

	"github.com/giygas/caers-api/caersparser/entities"
)

func TestScore(t *testing.T) {
	testCases := []struct {
		name     string
		outcome  string
		expected entities.Severity
	}{
		{"death", "death", entities.SeverityDeath},
		{"death wins over hospitalization", "hospitalization, death", entities.SeverityDeath},
		{"life threatening", "life threatening, hospitalization", entities.SeverityLifeThreatening},
		{"hospitalization", "hospitalization", entities.SeveritySerious},
		{"disability", "disability", entities.SeveritySerious},
		{"congenital anomaly", "congenital anomaly", entities.SeveritySerious},
		{"other serious event", "other serious or important medical event", entities.SeveritySerious},
		{"emergency room", "visited emergency room", entities.SeverityEmergencyRoom},
		{"other serious outcome", "other serious outcome", entities.SeverityEmergencyRoom},
		{"visited doctor", "visited a health care provider", entities.SeverityOther},
		{"non-serious", "non-serious injuries/ illness", entities.SeverityOther},
		{"n/a text", "n/a", entities.SeverityOther},
		{"empty", "", entities.SeverityOther},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Score(tc.outcome); got != tc.expected {
				t.Errorf("Expected severity %d for %q, got %d", tc.expected, tc.outcome, got)
			}
		})
	}
}

func TestScoreMatchesEveryPhraseOfATier(t *testing.T) {
	// Each phrase must score on its own, not only the first of its tier
	for _, phrase := range seriousPhrases {
		if got := Score("recovered, " + phrase); got != entities.SeveritySerious {
			t.Errorf("Expected %q to score %d, got %d", phrase, entities.SeveritySerious, got)
		}
	}
	for _, phrase := range emergencyPhrases {
		if got := Score(phrase + ", recovered"); got != entities.SeverityEmergencyRoom {
			t.Errorf("Expected %q to score %d, got %d", phrase, entities.SeverityEmergencyRoom, got)
		}
	}
}

func TestScoreIsCaseSensitive(t *testing.T) {
	// Outcomes are lowercased by Clean before scoring
	if got := Score("Death"); got != entities.SeverityOther {
		t.Errorf("Expected uncleaned outcome to score %d, got %d", entities.SeverityOther, got)
	}
}
