// Package data provides thread-safe data storage and management for the CAERS API.
// It includes the DataContainer struct with atomic operations for zero-downtime updates
// and thread-safe access methods for records, aggregates and report lookups.
package data

import (
	"sync/atomic"
	"time"

	"github.com/giygas/caers-api/caersparser"
	"github.com/giygas/caers-api/caersparser/entities"
	"github.com/giygas/caers-api/interfaces"
	"github.com/giygas/caers-api/logging"
)

// Compile-time check to ensure DataContainer implements DataStore
var _ interfaces.DataStore = (*DataContainer)(nil)

// DataContainer holds all the data with atomic pointers for zero-downtime updates
type DataContainer struct {
	records         atomic.Value // []entities.Record
	aggregates      atomic.Value // map[string]entities.ProductAggregate
	rankedProducts  atomic.Value // []entities.ProductAggregate
	reportsMap      atomic.Value // map[string][]entities.Record
	qualityReport   atomic.Value // *interfaces.DataQualityReport
	lastUpdated     atomic.Value // time.Time
	updating        atomic.Bool
	serverStartTime atomic.Value // time.Time
}

// NewDataContainer creates a new DataContainer with empty data
func NewDataContainer() *DataContainer {
	dc := &DataContainer{}
	dc.records.Store(make([]entities.Record, 0))
	dc.aggregates.Store(make(map[string]entities.ProductAggregate))
	dc.rankedProducts.Store(make([]entities.ProductAggregate, 0))
	dc.reportsMap.Store(make(map[string][]entities.Record))
	dc.qualityReport.Store(&interfaces.DataQualityReport{})
	dc.lastUpdated.Store(time.Time{})
	dc.serverStartTime.Store(time.Time{})
	return dc
}

// Thread-safe getters with type check

// GetRecords returns the joined suspect records
func (dc *DataContainer) GetRecords() []entities.Record {
	if v := dc.records.Load(); v != nil {
		if records, ok := v.([]entities.Record); ok {
			return records
		}
	}

	logging.Warn("Records list is empty or invalid")
	return []entities.Record{}
}

// GetAggregates returns the per-product aggregates keyed by product name
func (dc *DataContainer) GetAggregates() map[string]entities.ProductAggregate {
	if v := dc.aggregates.Load(); v != nil {
		if aggregates, ok := v.(map[string]entities.ProductAggregate); ok {
			return aggregates
		}
	}

	logging.Warn("Aggregates map is empty or invalid")
	return make(map[string]entities.ProductAggregate)
}

// GetRankedProducts returns the aggregates ordered by occurrences
func (dc *DataContainer) GetRankedProducts() []entities.ProductAggregate {
	if v := dc.rankedProducts.Load(); v != nil {
		if ranked, ok := v.([]entities.ProductAggregate); ok {
			return ranked
		}
	}

	logging.Warn("Ranked products list is empty or invalid")
	return []entities.ProductAggregate{}
}

// GetReportsMap returns suspect records grouped by report id for O(1) lookups
func (dc *DataContainer) GetReportsMap() map[string][]entities.Record {
	if v := dc.reportsMap.Load(); v != nil {
		if reportsMap, ok := v.(map[string][]entities.Record); ok {
			return reportsMap
		}
	}

	logging.Warn("Reports map is empty or invalid")
	return make(map[string][]entities.Record)
}

// GetDataQualityReport returns the quality report of the last update
func (dc *DataContainer) GetDataQualityReport() *interfaces.DataQualityReport {
	if v := dc.qualityReport.Load(); v != nil {
		if report, ok := v.(*interfaces.DataQualityReport); ok {
			return report
		}
	}

	logging.Warn("Data quality report is empty or invalid")
	return &interfaces.DataQualityReport{}
}

// GetLastUpdated returns the timestamp of the last data update
func (dc *DataContainer) GetLastUpdated() time.Time {
	if v := dc.lastUpdated.Load(); v != nil {
		if lastUpdated, ok := v.(time.Time); ok {
			return lastUpdated
		}
	}

	logging.Warn("Could not get the last updated value")
	return time.Time{}
}

// IsUpdating returns true if a data update is currently in progress
func (dc *DataContainer) IsUpdating() bool {
	return dc.updating.Load()
}

// SetServerStartTime sets the server start time
func (dc *DataContainer) SetServerStartTime(startTime time.Time) {
	dc.serverStartTime.Store(startTime)
}

// GetServerStartTime returns the server start time
func (dc *DataContainer) GetServerStartTime() time.Time {
	if v := dc.serverStartTime.Load(); v != nil {
		if startTime, ok := v.(time.Time); ok {
			return startTime
		}
	}

	logging.Warn("Could not get the server start time value")
	return time.Time{}
}

// UpdateData atomically replaces the published dataset. The lookup views are
// built before any store so readers never see a half-built set.
func (dc *DataContainer) UpdateData(dataset *entities.Dataset, report *interfaces.DataQualityReport) {
	if dataset == nil {
		logging.Warn("Ignoring nil dataset update")
		return
	}
	if report == nil {
		report = &interfaces.DataQualityReport{Load: dataset.Stats}
	}

	records := dataset.Records
	if records == nil {
		records = make([]entities.Record, 0)
	}
	aggregates := dataset.Aggregates
	if aggregates == nil {
		aggregates = make(map[string]entities.ProductAggregate)
	}

	reportsMap := make(map[string][]entities.Record)
	for _, record := range records {
		reportsMap[record.ReportID] = append(reportsMap[record.ReportID], record)
	}
	ranked := caersparser.RankAggregates(aggregates)

	// Atomic swap (zero downtime replacement)
	dc.records.Store(records)
	dc.aggregates.Store(aggregates)
	dc.rankedProducts.Store(ranked)
	dc.reportsMap.Store(reportsMap)
	dc.qualityReport.Store(report)
	dc.lastUpdated.Store(time.Now())
}

// BeginUpdate marks the start of a data update operation
// Returns true if update can proceed, false if another update is in progress
func (dc *DataContainer) BeginUpdate() bool {
	return dc.updating.CompareAndSwap(false, true)
}

// EndUpdate marks the end of a data update operation
func (dc *DataContainer) EndUpdate() {
	dc.updating.Store(false)
}
