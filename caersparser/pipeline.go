package caersparser

import (
	"fmt"
	"io"
	"time"

	"github.com/giygas/caers-api/caersparser/entities"
	"github.com/giygas/caers-api/logging"
)

// BuildDataset runs clean, derive, split/join and aggregate over raw
// records. stats carries the reader counters and is completed here.
func BuildDataset(records []entities.Record, stats entities.LoadStats) *entities.Dataset {
	cleaned, cleanStats := Clean(records)
	stats.MissingProduct = cleanStats.MissingProduct
	stats.MissingOutcome = cleanStats.MissingOutcome
	stats.Exemptions = cleanStats.Exemptions
	stats.RowsKept = len(cleaned)

	Derive(cleaned)

	suspects, concomitants := Split(cleaned)
	stats.SuspectRows = len(suspects)
	stats.ConcomitantRows = len(concomitants)

	joined, unmatched := JoinConcomitants(suspects, CollapseConcomitants(concomitants))
	stats.UnmatchedSuspects = unmatched

	aggregates := Aggregate(joined)
	Broadcast(joined, aggregates)

	if cleanStats.Removed() > 0 {
		logging.Info("CAERS clean statistics",
			"missing_product", cleanStats.MissingProduct,
			"missing_outcome", cleanStats.MissingOutcome,
			"exemptions", cleanStats.Exemptions,
			"rows_kept", stats.RowsKept)
	}

	return &entities.Dataset{
		Records:    joined,
		Aggregates: aggregates,
		Stats:      stats,
		BuiltAt:    time.Now(),
	}
}

// ParseReader reads and processes a CAERS export from r.
func ParseReader(r io.Reader) (*entities.Dataset, error) {
	records, stats, err := ReadRecords(r)
	if err != nil {
		return nil, err
	}
	return BuildDataset(records, stats), nil
}

// ParseFile reads and processes the CAERS export at path.
func ParseFile(path string) (*entities.Dataset, error) {
	start := time.Now()

	records, stats, err := LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	dataset := BuildDataset(records, stats)
	dataset.Source = path

	logging.Info("CAERS dataset built",
		"source", path,
		"rows_read", stats.RowsRead,
		"suspect_records", len(dataset.Records),
		"products", len(dataset.Aggregates),
		"duration", time.Since(start).String())

	return dataset, nil
}
