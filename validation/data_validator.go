// Package validation provides data validation functionality for the CAERS API.
package validation

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/giygas/caers-api/caersparser/entities"
	"github.com/giygas/caers-api/interfaces"
)

// maxListedItems caps the example lists carried in the quality report
const maxListedItems = 10

// Pre-compiled regex patterns for performance optimization
var (
	// Product names: letters, digits, spaces and the punctuation CAERS uses
	inputRegex = regexp.MustCompile(`^[\p{L}0-9\s\-\.\+',&()/%#:]+$`)

	reportIDRegex = regexp.MustCompile(`^[0-9A-Za-z\-]{1,20}$`)

	// strings.Contains is faster than regex for these patterns
	dangerousPatterns = []string{
		"<script", "</script>", "javascript:", "vbscript:", "onload=", "onerror=",
		"eval(", "expression(",
		"union select", "drop table", "delete from", "insert into", "--", "/*", "*/",
		"`", "$(", "${",
		"../", "..\\", "%2e%2e", "file://",
	}
)

// DataValidatorImpl implements the interfaces.DataValidator interface
type DataValidatorImpl struct{}

// NewDataValidator creates a new data validator
func NewDataValidator() interfaces.DataValidator {
	return &DataValidatorImpl{}
}

// ReportDataQuality generates a data quality report with all issues found
func (v *DataValidatorImpl) ReportDataQuality(dataset *entities.Dataset) *interfaces.DataQualityReport {
	report := &interfaces.DataQualityReport{
		ReportsWithManySuspects: []string{},
		SeverityHistogram:       make(map[int]int),
		AgeGroupHistogram:       make(map[string]int),
		InconsistentAggregates:  []string{},
	}
	if dataset == nil {
		return report
	}
	report.Load = dataset.Stats

	suspectsPerReport := make(map[string]int)
	recordsPerProduct := make(map[string]int)

	// Check 1: per-record counters and histograms
	for _, record := range dataset.Records {
		if !record.Age.Valid {
			report.RecordsWithoutAge++
		}
		if record.ReportID == "" {
			report.RecordsWithoutReportID++
		} else {
			suspectsPerReport[record.ReportID]++
		}
		report.SeverityHistogram[int(record.Severity)]++
		report.AgeGroupHistogram[string(record.Bracket)]++
		recordsPerProduct[record.Product]++
	}

	// Check 2: reports naming more than one suspect product (store first 10)
	var many []string
	for reportID, n := range suspectsPerReport {
		if n > 1 {
			many = append(many, reportID)
		}
	}
	slices.Sort(many)
	if len(many) > maxListedItems {
		many = many[:maxListedItems]
	}
	report.ReportsWithManySuspects = append(report.ReportsWithManySuspects, many...)

	// Check 3: aggregates must match the records they were built from
	var inconsistent []string
	for product, agg := range dataset.Aggregates {
		if agg.Count < 1 || agg.Count != recordsPerProduct[product] {
			inconsistent = append(inconsistent, product)
		}
	}
	slices.Sort(inconsistent)
	report.InconsistentAggregates = append(report.InconsistentAggregates, inconsistent...)

	return report
}

// ValidateInput validates user-supplied product names
func (v *DataValidatorImpl) ValidateInput(input string) error {
	if strings.TrimSpace(input) == "" {
		return fmt.Errorf("input cannot be empty")
	}

	if len(input) < 2 {
		return fmt.Errorf("input too short: minimum 2 characters")
	}

	if len(input) > 120 {
		return fmt.Errorf("input too long: maximum 120 characters")
	}

	lowerInput := strings.ToLower(input)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lowerInput, pattern) {
			return fmt.Errorf("input contains potentially dangerous content")
		}
	}

	if !inputRegex.MatchString(input) {
		return fmt.Errorf("input contains invalid characters")
	}

	if v.hasExcessiveRepetition(input) {
		return fmt.Errorf("input contains excessive character repetition")
	}

	return nil
}

// ValidateReportID validates report identifiers
func (v *DataValidatorImpl) ValidateReportID(input string) (string, error) {
	trimmedInput := strings.TrimSpace(input)
	if trimmedInput == "" {
		return "", fmt.Errorf("input cannot be empty")
	}

	// Reject if original input contained whitespace
	if len(input) != len(trimmedInput) {
		return "", fmt.Errorf("input contains invalid characters")
	}

	if !reportIDRegex.MatchString(trimmedInput) {
		return "", fmt.Errorf("report id must be 1 to 20 letters, digits or hyphens")
	}

	return trimmedInput, nil
}

// hasExcessiveRepetition checks for the same character repeated more than 10 times
func (v *DataValidatorImpl) hasExcessiveRepetition(input string) bool {
	for i := 0; i < len(input)-10; i++ {
		allSame := true
		for j := 1; j <= 10; j++ {
			if input[i] != input[i+j] {
				allSame = false
				break
			}
		}
		if allSame {
			return true
		}
	}
	return false
}
