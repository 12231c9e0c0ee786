package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/giygas/caers-api/caersparser/entities"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

// gathered returns the value of the sample of name whose labels include want
func gathered(t *testing.T, name string, want map[string]string) (float64, bool) {
	t.Helper()

	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Failed to gather metrics: %v", err)
	}

	for _, family := range families {
		if family.GetName() != name {
			continue
		}
	metricLoop:
		for _, metric := range family.GetMetric() {
			labels := make(map[string]string)
			for _, pair := range metric.GetLabel() {
				labels[pair.GetName()] = pair.GetValue()
			}
			for k, v := range want {
				if labels[k] != v {
					continue metricLoop
				}
			}
			switch {
			case metric.GetCounter() != nil:
				return metric.GetCounter().GetValue(), true
			case metric.GetGauge() != nil:
				return metric.GetGauge().GetValue(), true
			case metric.GetHistogram() != nil:
				return float64(metric.GetHistogram().GetSampleCount()), true
			}
		}
	}
	return 0, false
}

func TestRecordDataset(t *testing.T) {
	RecordDataset(&entities.Dataset{
		Stats: entities.LoadStats{RowsRead: 10, RowsKept: 8, SuspectRows: 5, ConcomitantRows: 3},
		Aggregates: map[string]entities.ProductAggregate{
			"aspirin": {}, "zinc": {},
		},
	})

	expected := map[string]float64{"read": 10, "kept": 8, "suspect": 5, "concomitant": 3}
	for stage, want := range expected {
		got, ok := gathered(t, "caers_records", map[string]string{"stage": stage})
		if !ok || got != want {
			t.Errorf("Expected caers_records{stage=%q} = %v, got %v (found %v)", stage, want, got, ok)
		}
	}

	if got, _ := gathered(t, "caers_products", nil); got != 2 {
		t.Errorf("Expected 2 products, got %v", got)
	}

	// A nil dataset leaves the gauges alone
	RecordDataset(nil)
	if got, _ := gathered(t, "caers_products", nil); got != 2 {
		t.Errorf("Expected products unchanged after nil dataset, got %v", got)
	}
}

func TestObserveRefresh(t *testing.T) {
	success, _ := gathered(t, "caers_refresh_total", map[string]string{"result": "success"})
	failure, _ := gathered(t, "caers_refresh_total", map[string]string{"result": "error"})
	observed, _ := gathered(t, "caers_refresh_duration_seconds", nil)

	ObserveRefresh(time.Second, nil)
	ObserveRefresh(2*time.Second, errors.New("boom"))

	if got, _ := gathered(t, "caers_refresh_total", map[string]string{"result": "success"}); got != success+1 {
		t.Errorf("Expected success count %v, got %v", success+1, got)
	}
	if got, _ := gathered(t, "caers_refresh_total", map[string]string{"result": "error"}); got != failure+1 {
		t.Errorf("Expected error count %v, got %v", failure+1, got)
	}
	if got, _ := gathered(t, "caers_refresh_duration_seconds", nil); got != observed+2 {
		t.Errorf("Expected %v observations, got %v", observed+2, got)
	}
}

func TestMetricsMiddlewareUsesRoutePattern(t *testing.T) {
	router := chi.NewRouter()
	router.Use(Metrics)
	router.Get("/reports/{reportID}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	labels := map[string]string{"method": http.MethodGet, "path": "/reports/{reportID}", "status": "404"}
	before, _ := gathered(t, "http_request_total", labels)

	for _, id := range []string{"1", "2", "3"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/reports/"+id, nil))
	}

	if got, _ := gathered(t, "http_request_total", labels); got != before+3 {
		t.Errorf("Expected %v requests under the route pattern, got %v", before+3, got)
	}
}
