// Package interfaces defines core abstractions for the CAERS API
// to improve testability, maintainability, and separation of concerns.
package interfaces

import (
	"net/http"
	"time"

	"github.com/giygas/caers-api/caersparser/entities"
)

// DataQualityReport provides a summary of data quality issues found in the
// last published dataset
type DataQualityReport struct {
	Load                    entities.LoadStats `json:"load"`
	RecordsWithoutAge       int                `json:"recordsWithoutAge"`
	RecordsWithoutReportID  int                `json:"recordsWithoutReportId"`
	ReportsWithManySuspects []string           `json:"reportsWithManySuspects"`
	SeverityHistogram       map[int]int        `json:"severityHistogram"`
	AgeGroupHistogram       map[string]int     `json:"ageGroupHistogram"`
	InconsistentAggregates  []string           `json:"inconsistentAggregates"`
}

// DataStore defines the contract for data storage operations.
// It provides thread-safe access to the processed dataset
// with atomic operations for zero-downtime updates.
type DataStore interface {
	// Data retrieval methods
	GetRecords() []entities.Record
	GetAggregates() map[string]entities.ProductAggregate
	GetRankedProducts() []entities.ProductAggregate
	GetReportsMap() map[string][]entities.Record
	GetDataQualityReport() *DataQualityReport
	GetLastUpdated() time.Time
	IsUpdating() bool
	GetServerStartTime() time.Time

	// Data update methods
	UpdateData(dataset *entities.Dataset, report *DataQualityReport)
	BeginUpdate() bool
	EndUpdate()
}

// Parser defines the contract for turning the CAERS export into a dataset.
type Parser interface {
	// ParseDataset loads, cleans, scores, joins and aggregates the export
	ParseDataset() (*entities.Dataset, error)

	// Source names the file being parsed
	Source() string
}

// Scheduler defines the contract for job scheduling and health monitoring.
// It manages automated data refreshes.
type Scheduler interface {
	// Lifecycle management
	Start() error
	Stop()
}

// HTTPHandler defines the contract for HTTP request handlers.
// It provides a consistent interface for all API endpoints.
type HTTPHandler interface {
	ServeProducts(w http.ResponseWriter, r *http.Request)
	FindProduct(w http.ResponseWriter, r *http.Request)
	FindReport(w http.ResponseWriter, r *http.Request)
	ServeChartData(w http.ResponseWriter, r *http.Request)
	ServeChartPNG(w http.ResponseWriter, r *http.Request)
	ServeQuality(w http.ResponseWriter, r *http.Request)
	HealthCheck(w http.ResponseWriter, r *http.Request)
}

// HealthChecker defines the contract for health check functionality.
// It provides system health monitoring and reporting.
type HealthChecker interface {
	// HealthCheck returns current health status, data and the HTTP status to use
	HealthCheck() (status string, details map[string]any, httpStatus int)

	// CalculateNextUpdate returns the next scheduled update time
	CalculateNextUpdate() time.Time
}

// DataValidator defines the contract for data validation operations.
type DataValidator interface {
	// ReportDataQuality generates a data quality report for a dataset
	ReportDataQuality(dataset *entities.Dataset) *DataQualityReport

	// ValidateInput validates user-supplied product names
	ValidateInput(input string) error

	// ValidateReportID validates report identifiers
	ValidateReportID(input string) (string, error)
}
