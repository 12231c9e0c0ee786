package caersparser

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/giygas/caers-api/caersparser/entities"
)

func TestParseReaderSuspectWithConcomitant(t *testing.T) {
	input := "REPORT_ID,PRODUCT,PRODUCT_TYPE,CASE_OUTCOME,PATIENT_AGE,AGE_UNITS\n" +
		"1,Aspirin,SUSPECT,Death,70,year(s)\n" +
		"1,Vitamin C,CONCOMITANT,N/A,NA,NA\n"

	dataset, err := ParseReader(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(dataset.Records) != 1 {
		t.Fatalf("Expected 1 suspect record, got %d", len(dataset.Records))
	}

	record := dataset.Records[0]
	if record.Product != "aspirin" {
		t.Errorf("Expected product aspirin, got %q", record.Product)
	}
	if record.Severity != entities.SeverityDeath {
		t.Errorf("Expected severity 5, got %d", record.Severity)
	}
	if record.Bracket != entities.BracketSenior {
		t.Errorf("Expected bracket senior, got %q", record.Bracket)
	}
	if record.Concomitants != "vitamin c" {
		t.Errorf("Expected concomitants %q, got %q", "vitamin c", record.Concomitants)
	}
	if record.Occurrences != 1 || record.MeanSeverity != 5.0 {
		t.Errorf("Expected broadcast 1/5.0, got %d/%f", record.Occurrences, record.MeanSeverity)
	}

	agg, ok := dataset.Aggregates["aspirin"]
	if !ok {
		t.Fatal("Expected an aggregate for aspirin")
	}
	if agg.Count != 1 || agg.MeanSeverity != 5.0 {
		t.Errorf("Expected aggregate 1/5.0, got %d/%f", agg.Count, agg.MeanSeverity)
	}
	if _, ok := dataset.Aggregates["vitamin c"]; ok {
		t.Error("Expected no aggregate for a concomitant-only product")
	}

	stats := dataset.Stats
	if stats.RowsRead != 2 || stats.RowsKept != 2 || stats.SuspectRows != 1 || stats.ConcomitantRows != 1 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
}

func TestParseReaderDropsRowsBeforeJoin(t *testing.T) {
	input := "REPORT_ID,PRODUCT,PRODUCT_TYPE,CASE_OUTCOME,PATIENT_AGE,AGE_UNITS\n" +
		"1,Aspirin,SUSPECT,Hospitalization,40,year(s)\n" +
		"1,EXEMPTION 4,CONCOMITANT,Hospitalization,40,year(s)\n" +
		"2,Aspirin,SUSPECT,,40,year(s)\n" +
		"3,,SUSPECT,Death,40,year(s)\n" +
		"4,Aspirin,SUSPECT,Recovered,,\n"

	dataset, err := ParseReader(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	stats := dataset.Stats
	if stats.Exemptions != 1 || stats.MissingOutcome != 1 || stats.MissingProduct != 1 {
		t.Errorf("Unexpected drop counts: %+v", stats)
	}
	if stats.UnmatchedSuspects != 2 {
		t.Errorf("Expected 2 unmatched suspects, got %d", stats.UnmatchedSuspects)
	}

	agg := dataset.Aggregates["aspirin"]
	if agg.Count != 2 {
		t.Errorf("Expected aspirin count 2, got %d", agg.Count)
	}
	if agg.MeanSeverity != 2.0 {
		t.Errorf("Expected mean severity 2.0, got %f", agg.MeanSeverity)
	}
	if agg.ByBracket[entities.BracketMiddleAge] != 1 || agg.ByBracket[entities.BracketNotAvailable] != 1 {
		t.Errorf("Unexpected bracket breakdown: %v", agg.ByBracket)
	}
	for _, record := range dataset.Records {
		if record.HasConcomitants {
			t.Errorf("Expected the exemption row not to be joined, got %+v", record)
		}
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "caers.csv")
	input := "REPORT_ID,PRODUCT,PRODUCT_TYPE,CASE_OUTCOME,PATIENT_AGE,AGE_UNITS\n" +
		"1,Aspirin,SUSPECT,Death,70,year(s)\n"
	if err := os.WriteFile(path, []byte(input), 0o644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	dataset, err := ParseFile(path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if dataset.Source != path {
		t.Errorf("Expected source %q, got %q", path, dataset.Source)
	}
	if dataset.BuiltAt.IsZero() {
		t.Error("Expected BuiltAt to be set")
	}
}

func TestParseFileMissingColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "caers.csv")
	if err := os.WriteFile(path, []byte("REPORT_ID,PRODUCT\n1,Aspirin\n"), 0o644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	_, err := ParseFile(path)

	var missing *MissingFieldError
	if !errors.As(err, &missing) {
		t.Fatalf("Expected MissingFieldError through the wrap, got %v", err)
	}
	if !strings.Contains(err.Error(), "CASE_OUTCOME") {
		t.Errorf("Expected error to name CASE_OUTCOME, got %q", err.Error())
	}
}
