package entities

import "time"

// ProductAggregate holds per-product statistics over suspect records.
type ProductAggregate struct {
	Product      string             `json:"product"`
	Count        int                `json:"occurrences"`
	SeveritySum  int                `json:"severitySum"`
	MeanSeverity float64            `json:"meanSeverity"`
	ByBracket    map[AgeBracket]int `json:"byAgeGroup"`
}

// LoadStats counts what the reader and cleaner did to the raw table.
type LoadStats struct {
	RowsRead          int `json:"rowsRead"`
	MalformedRows     int `json:"malformedRows"`
	MissingProduct    int `json:"missingProduct"`
	MissingOutcome    int `json:"missingOutcome"`
	Exemptions        int `json:"exemptions"`
	UnparseableAges   int `json:"unparseableAges"`
	UnknownUnits      int `json:"unknownUnits"`
	RowsKept          int `json:"rowsKept"`
	SuspectRows       int `json:"suspectRows"`
	ConcomitantRows   int `json:"concomitantRows"`
	UnmatchedSuspects int `json:"unmatchedSuspects"`
}

// Dataset is the immutable result of one pipeline run.
type Dataset struct {
	Records    []Record                    `json:"records"`
	Aggregates map[string]ProductAggregate `json:"aggregates"`
	Stats      LoadStats                   `json:"stats"`
	Source     string                      `json:"source"`
	BuiltAt    time.Time                   `json:"builtAt"`
}
