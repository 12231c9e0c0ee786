// Package handlers provides HTTP request handlers for the CAERS API endpoints.
// This file implements the HTTPHandler interface with dependency injection.
package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/giygas/caers-api/caersparser/entities"
	"github.com/giygas/caers-api/chart"
	"github.com/giygas/caers-api/interfaces"
	"github.com/giygas/caers-api/logging"
	"github.com/go-chi/chi/v5"
)

// Compile-time check to ensure HTTPHandlerImpl implements HTTPHandler
var _ interfaces.HTTPHandler = (*HTTPHandlerImpl)(nil)

// ProductsPageSize is the number of aggregates per /products page
const ProductsPageSize = 20

// maxProductNameLength bounds the /products/{name} lookup key
const maxProductNameLength = 200

// HTTPHandlerImpl implements the interfaces.HTTPHandler interface
type HTTPHandlerImpl struct {
	dataStore     interfaces.DataStore
	validator     interfaces.DataValidator
	healthChecker interfaces.HealthChecker
	threshold     int
}

// NewHTTPHandler creates a new HTTP handler with injected dependencies.
// threshold is the occurrence count products must exceed to be charted.
func NewHTTPHandler(dataStore interfaces.DataStore, validator interfaces.DataValidator,
	healthChecker interfaces.HealthChecker, threshold int) *HTTPHandlerImpl {
	return &HTTPHandlerImpl{
		dataStore:     dataStore,
		validator:     validator,
		healthChecker: healthChecker,
		threshold:     threshold,
	}
}

// RespondWithJSON writes a JSON response
func (h *HTTPHandlerImpl) RespondWithJSON(w http.ResponseWriter, code int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if lastUpdated := h.dataStore.GetLastUpdated(); !lastUpdated.IsZero() {
		w.Header().Set("Last-Modified", lastUpdated.UTC().Format(http.TimeFormat))
	}
	w.WriteHeader(code)
	if _, err := w.Write(data); err != nil {
		logging.Warn("Failed to write response", "error", err)
	}
}

// RespondWithError writes a JSON error response
func (h *HTTPHandlerImpl) RespondWithError(w http.ResponseWriter, code int, message string) {
	h.RespondWithJSON(w, code, map[string]any{
		"error":   http.StatusText(code),
		"message": message,
		"code":    code,
	})
}

// ServeProducts returns the ranked product aggregates, paginated.
// The optional q parameter keeps products whose name contains it.
func (h *HTTPHandlerImpl) ServeProducts(w http.ResponseWriter, r *http.Request) {
	page := 1
	if pageStr := r.URL.Query().Get("page"); pageStr != "" {
		p, err := strconv.Atoi(pageStr)
		if err != nil || p < 1 {
			logging.Warn("Unusual user input", "page", pageStr)
			h.RespondWithError(w, http.StatusBadRequest, "Invalid page number")
			return
		}
		page = p
	}

	products := h.dataStore.GetRankedProducts()

	if q := r.URL.Query().Get("q"); q != "" {
		if err := h.validator.ValidateInput(q); err != nil {
			h.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		term := strings.ToLower(strings.TrimSpace(q))
		filtered := make([]entities.ProductAggregate, 0)
		for _, agg := range products {
			if strings.Contains(agg.Product, term) {
				filtered = append(filtered, agg)
			}
		}
		products = filtered
	}

	totalItems := len(products)
	maxPage := max(1, (totalItems+ProductsPageSize-1)/ProductsPageSize)
	if page > maxPage {
		h.RespondWithError(w, http.StatusNotFound, "Page not found")
		return
	}

	start := (page - 1) * ProductsPageSize
	end := min(start+ProductsPageSize, totalItems)

	h.RespondWithJSON(w, http.StatusOK, map[string]any{
		"data":       products[start:end],
		"page":       page,
		"pageSize":   ProductsPageSize,
		"totalItems": totalItems,
		"maxPage":    maxPage,
	})
}

// FindProduct returns one product aggregate by exact (case-insensitive) name
func (h *HTTPHandlerImpl) FindProduct(w http.ResponseWriter, r *http.Request) {
	// Exact map lookup: any product name the dataset holds must be reachable
	name := strings.ToLower(strings.TrimSpace(pathParam(r, "name")))
	if name == "" {
		h.RespondWithError(w, http.StatusBadRequest, "Missing product name")
		return
	}
	if len(name) > maxProductNameLength {
		h.RespondWithError(w, http.StatusBadRequest, "Product name too long")
		return
	}

	agg, exists := h.dataStore.GetAggregates()[name]
	if !exists {
		h.RespondWithError(w, http.StatusNotFound, "Product not found")
		return
	}

	h.RespondWithJSON(w, http.StatusOK, agg)
}

// FindReport returns the joined suspect records of one report
func (h *HTTPHandlerImpl) FindReport(w http.ResponseWriter, r *http.Request) {
	reportID, err := h.validator.ValidateReportID(pathParam(r, "reportID"))
	if err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, exists := h.dataStore.GetReportsMap()[reportID]
	if !exists {
		h.RespondWithError(w, http.StatusNotFound, "Report not found")
		return
	}

	h.RespondWithJSON(w, http.StatusOK, map[string]any{
		"reportId": reportID,
		"records":  records,
	})
}

// ServeChartData returns the bars of the chart as JSON
func (h *HTTPHandlerImpl) ServeChartData(w http.ResponseWriter, r *http.Request) {
	opts, ok := h.chartOptions(w, r)
	if !ok {
		return
	}

	h.RespondWithJSON(w, http.StatusOK, chart.Build(h.dataStore.GetRecords(), opts))
}

// ServeChartPNG renders the chart as a PNG image
func (h *HTTPHandlerImpl) ServeChartPNG(w http.ResponseWriter, r *http.Request) {
	opts, ok := h.chartOptions(w, r)
	if !ok {
		return
	}

	data := chart.Build(h.dataStore.GetRecords(), opts)

	var buf bytes.Buffer
	if err := chart.RenderPNG(&buf, data, chart.DefaultRenderOptions()); err != nil {
		logging.Error("Failed to render chart", "error", err)
		h.RespondWithError(w, http.StatusInternalServerError, "Failed to render chart")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		logging.Warn("Failed to write chart", "error", err)
	}
}

// chartOptions reads the sex and age_group filters. It writes the error
// response itself and returns false when a filter is invalid.
func (h *HTTPHandlerImpl) chartOptions(w http.ResponseWriter, r *http.Request) (chart.Options, bool) {
	opts := chart.Options{Threshold: h.threshold}
	query := r.URL.Query()

	if sex := strings.TrimSpace(query.Get("sex")); sex != "" {
		if err := h.validator.ValidateInput(sex); err != nil {
			h.RespondWithError(w, http.StatusBadRequest, "Invalid sex filter")
			return opts, false
		}
		opts.Sex = sex
	}

	if group := query.Get("age_group"); group != "" {
		bracket, ok := entities.ParseAgeBracket(group)
		if !ok {
			h.RespondWithError(w, http.StatusBadRequest, "Unknown age group")
			return opts, false
		}
		opts.AgeGroup = bracket
	}

	return opts, true
}

// ServeQuality returns the data quality report of the last refresh
func (h *HTTPHandlerImpl) ServeQuality(w http.ResponseWriter, r *http.Request) {
	h.RespondWithJSON(w, http.StatusOK, h.dataStore.GetDataQualityReport())
}

// HealthCheck returns server health information
func (h *HTTPHandlerImpl) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status, data, httpStatus := h.healthChecker.HealthCheck()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	var uptime time.Duration
	if start := h.dataStore.GetServerStartTime(); !start.IsZero() {
		uptime = time.Since(start)
	}

	h.RespondWithJSON(w, httpStatus, map[string]any{
		"status":         status,
		"data":           data,
		"uptime_seconds": uptime.Seconds(),
		"system": map[string]any{
			"goroutines": runtime.NumGoroutine(),
			"alloc_mb":   int(m.Alloc / 1024 / 1024),
			"num_gc":     m.NumGC,
		},
	})
}

// pathParam returns the unescaped chi URL parameter
func pathParam(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	if unescaped, err := url.PathUnescape(raw); err == nil {
		return unescaped
	}
	return raw
}
