// Package metrics provides Prometheus metrics for the HTTP server and the
// CAERS refresh pipeline. All metrics are registered with the default
// registry during package initialization.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Total number of rate limiter buckets",
		},
	)

	DatasetRefreshDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "caers_refresh_duration_seconds",
			Help:    "Time taken to load and process the CAERS export",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	DatasetRefreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "caers_refresh_total",
			Help: "Dataset refreshes by result",
		},
		[]string{"result"},
	)

	DatasetRecords = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "caers_records",
			Help: "Row counts of the published dataset by stage",
		},
		[]string{"stage"},
	)

	DatasetProducts = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "caers_products",
			Help: "Distinct suspect products in the published dataset",
		},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(RateLimiterBucketsTotal)
	prometheus.MustRegister(DatasetRefreshDuration)
	prometheus.MustRegister(DatasetRefreshTotal)
	prometheus.MustRegister(DatasetRecords)
	prometheus.MustRegister(DatasetProducts)
}
