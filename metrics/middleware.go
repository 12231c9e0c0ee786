package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/giygas/caers-api/caersparser/entities"
	"github.com/go-chi/chi/v5"
)

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Metrics records request count, latency and in-flight gauge per route pattern
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		HTTPRequestInFlight.Inc()
		defer HTTPRequestInFlight.Dec()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		// Use the route pattern so path parameters don't explode cardinality
		path := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}

		HTTPRequestTotals.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// ObserveRefresh records the outcome of one dataset refresh
func ObserveRefresh(duration time.Duration, err error) {
	DatasetRefreshDuration.Observe(duration.Seconds())
	if err != nil {
		DatasetRefreshTotal.WithLabelValues("error").Inc()
		return
	}
	DatasetRefreshTotal.WithLabelValues("success").Inc()
}

// RecordDataset publishes the row counts of a freshly built dataset
func RecordDataset(dataset *entities.Dataset) {
	if dataset == nil {
		return
	}
	DatasetRecords.WithLabelValues("read").Set(float64(dataset.Stats.RowsRead))
	DatasetRecords.WithLabelValues("kept").Set(float64(dataset.Stats.RowsKept))
	DatasetRecords.WithLabelValues("suspect").Set(float64(dataset.Stats.SuspectRows))
	DatasetRecords.WithLabelValues("concomitant").Set(float64(dataset.Stats.ConcomitantRows))
	DatasetProducts.Set(float64(len(dataset.Aggregates)))
}
