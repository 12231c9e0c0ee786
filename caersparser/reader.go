package caersparser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/giygas/caers-api/caersparser/entities"
	"github.com/giygas/caers-api/logging"
	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// LoadFile opens a CAERS export and reads every row into a Record.
func LoadFile(path string) ([]entities.Record, entities.LoadStats, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, entities.LoadStats{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("Failed to close CAERS file", "path", path, "error", err)
		}
	}()

	return ReadRecords(file)
}

// ReadRecords reads a header-row CSV into Records. Ages are parsed and
// normalized to years here; text is left as found. A missing required
// column returns a *MissingFieldError and no records.
func ReadRecords(r io.Reader) ([]entities.Record, entities.LoadStats, error) {
	var stats entities.LoadStats

	// FDA exports are a mix of UTF-8 and Latin-1, so read the whole body first
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, stats, fmt.Errorf("failed to read input: %w", err)
	}
	body = bytes.TrimPrefix(body, utf8BOM)

	var src io.Reader
	if utf8.Valid(body) {
		src = bytes.NewReader(body)
	} else {
		logging.Debug("Input is not valid UTF-8, decoding as ISO-8859-1")
		src = charmap.ISO8859_1.NewDecoder().Reader(bytes.NewReader(body))
	}

	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, stats, &MissingFieldError{Columns: RequiredColumns}
		}
		return nil, stats, fmt.Errorf("failed to read header: %w", err)
	}

	index := indexHeader(header)
	if missing := missingColumns(index); len(missing) > 0 {
		return nil, stats, &MissingFieldError{Columns: missing}
	}

	var records []entities.Record
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		stats.RowsRead++

		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			stats.MalformedRows++
			logging.Debug("Skipping malformed CSV row", "line", parseErr.Line, "error", parseErr.Err)
			continue
		}
		if err != nil {
			return nil, stats, fmt.Errorf("failed to read row %d: %w", stats.RowsRead, err)
		}

		record := entities.Record{
			ReportID:     index.get(row, ColReportID),
			Product:      index.get(row, ColProduct),
			ProductCode:  index.get(row, ColProductCode),
			Description:  index.get(row, ColDescription),
			Role:         entities.ParseRole(index.get(row, ColProductType)),
			Outcome:      index.get(row, ColOutcome),
			Symptoms:     index.get(row, ColSymptoms),
			Sex:          strings.ToLower(index.get(row, ColSex)),
			DateReceived: index.get(row, ColDateReceived),
			DateEvent:    index.get(row, ColDateEvent),
			RawAge:       index.get(row, ColPatientAge),
			AgeUnit:      index.get(row, ColAgeUnits),
		}

		age, err := ParseAge(record.RawAge)
		var ageErr *UnparseableAgeError
		if errors.As(err, &ageErr) {
			stats.UnparseableAges++
			logging.Debug("Treating patient age as missing", "report_id", record.ReportID, "error", err)
		}

		age, err = NormalizeAge(age, record.AgeUnit)
		var unitErr *UnknownUnitError
		if errors.As(err, &unitErr) {
			stats.UnknownUnits++
			logging.Debug("Keeping patient age as years", "report_id", record.ReportID, "error", err)
		}
		record.Age = age

		records = append(records, record)
	}

	if stats.MalformedRows > 0 || stats.UnparseableAges > 0 || stats.UnknownUnits > 0 {
		logging.Info("CAERS read skip statistics",
			"malformed_rows", stats.MalformedRows,
			"unparseable_ages", stats.UnparseableAges,
			"unknown_units", stats.UnknownUnits,
			"total_rows", stats.RowsRead,
			"records_parsed", len(records))
	}

	return records, stats, nil
}

type headerIndex map[string]int

func indexHeader(header []string) headerIndex {
	index := make(headerIndex, len(header))
	for i, name := range header {
		name = strings.ToUpper(strings.TrimSpace(name))
		if _, seen := index[name]; !seen {
			index[name] = i
		}
	}
	return index
}

// get returns the trimmed cell for column, or "" when the column is absent
// or the row is short.
func (h headerIndex) get(row []string, column string) string {
	i, ok := h[column]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func missingColumns(index headerIndex) []string {
	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	return missing
}
