package caersparser

import (
	"strings"

	"github.com/giygas/caers-api/caersparser/entities"
)

// CleanStats counts rows removed by Clean, by reason.
type CleanStats struct {
	MissingProduct int
	MissingOutcome int
	Exemptions     int
}

// Removed returns the total number of rows dropped.
func (s CleanStats) Removed() int {
	return s.MissingProduct + s.MissingOutcome + s.Exemptions
}

// Clean drops rows without a product or outcome and rows for the redacted
// "EXEMPTION 4" product, then lowercases product and outcome text.
// Only empty cells count as missing: an outcome of "N/A" is kept as text.
// Clean never adds rows and running it on its own output removes nothing.
func Clean(records []entities.Record) ([]entities.Record, CleanStats) {
	var stats CleanStats
	cleaned := make([]entities.Record, 0, len(records))

	for _, record := range records {
		product := strings.TrimSpace(record.Product)
		outcome := strings.TrimSpace(record.Outcome)

		switch {
		case product == "":
			stats.MissingProduct++
			continue
		case outcome == "":
			stats.MissingOutcome++
			continue
		case strings.EqualFold(product, ExemptionSentinel):
			stats.Exemptions++
			continue
		}

		record.Product = strings.ToLower(product)
		record.Outcome = strings.ToLower(outcome)
		cleaned = append(cleaned, record)
	}

	return cleaned, stats
}

// Derive fills in the severity score and age bracket of every record.
// Records must already be cleaned, since scoring matches lowercase phrases.
func Derive(records []entities.Record) {
	for i := range records {
		records[i].Severity = Score(records[i].Outcome)
		records[i].Bracket = Bracket(records[i].Age)
	}
}
