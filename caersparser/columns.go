// Package caersparser reads CAERS product-based exports and turns them into
// scored, bracketed and aggregated records.
package caersparser

// CSV header names. These are the only place column names appear; everything
// downstream works on entities.Record.
const (
	ColReportID     = "REPORT_ID"
	ColProduct      = "PRODUCT"
	ColProductType  = "PRODUCT_TYPE"
	ColOutcome      = "CASE_OUTCOME"
	ColPatientAge   = "PATIENT_AGE"
	ColAgeUnits     = "AGE_UNITS"
	ColProductCode  = "PRODUCT_CODE"
	ColDescription  = "DESCRIPTION"
	ColSymptoms     = "CASE_MEDDRA_PREFERRED_TERMS"
	ColSex          = "SEX"
	ColDateReceived = "DATE_FDA_FIRST_RECEIVED_REPORT"
	ColDateEvent    = "DATE_EVENT"
)

// RequiredColumns must all be present in the header row.
var RequiredColumns = []string{
	ColProduct,
	ColOutcome,
	ColProductType,
	ColReportID,
	ColPatientAge,
	ColAgeUnits,
}

// ExemptionSentinel is the product name FDA uses for redacted products.
const ExemptionSentinel = "EXEMPTION 4"
