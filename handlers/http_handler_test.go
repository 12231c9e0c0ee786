package handlers

import (
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/giygas/caers-api/caersparser/entities"
	"github.com/giygas/caers-api/chart"
	"github.com/giygas/caers-api/data"
	"github.com/giygas/caers-api/validation"
	"github.com/go-chi/chi/v5"
	"github.com/google/go-cmp/cmp"
)

// stubHealthChecker answers with a fixed status
type stubHealthChecker struct {
	status string
	code   int
}

func (s stubHealthChecker) HealthCheck() (string, map[string]any, int) {
	return s.status, map[string]any{"records": 3}, s.code
}

func (s stubHealthChecker) CalculateNextUpdate() time.Time {
	return time.Time{}
}

func testRecords() []entities.Record {
	return []entities.Record{
		{ReportID: "100", Product: "aspirin", Sex: "female", Bracket: entities.BracketSenior, Severity: 5, Occurrences: 3, Concomitants: "vitamin c, zinc"},
		{ReportID: "101", Product: "aspirin", Sex: "male", Bracket: entities.BracketSenior, Severity: 1, Occurrences: 3},
		{ReportID: "102", Product: "aspirin", Sex: "female", Bracket: entities.BracketKids, Severity: 3, Occurrences: 3},
		{ReportID: "102", Product: "fish oil", Sex: "female", Bracket: entities.BracketKids, Severity: 2, Occurrences: 1},
	}
}

func setupHandler(t *testing.T) (*HTTPHandlerImpl, *data.DataContainer) {
	t.Helper()

	dc := data.NewDataContainer()
	records := testRecords()
	dc.UpdateData(&entities.Dataset{
		Records: records,
		Aggregates: map[string]entities.ProductAggregate{
			"aspirin":  {Product: "aspirin", Count: 3, SeveritySum: 9, MeanSeverity: 3, ByBracket: map[entities.AgeBracket]int{entities.BracketSenior: 2, entities.BracketKids: 1}},
			"fish oil": {Product: "fish oil", Count: 1, SeveritySum: 2, MeanSeverity: 2, ByBracket: map[entities.AgeBracket]int{entities.BracketKids: 1}},
		},
	}, nil)

	handler := NewHTTPHandler(dc, validation.NewDataValidator(), stubHealthChecker{status: "healthy", code: http.StatusOK}, 2)
	return handler, dc
}

func newRouter(h *HTTPHandlerImpl) http.Handler {
	router := chi.NewRouter()
	router.Get("/products", h.ServeProducts)
	router.Get("/products/{name}", h.FindProduct)
	router.Get("/reports/{reportID}", h.FindReport)
	router.Get("/chart", h.ServeChartData)
	router.Get("/chart.png", h.ServeChartPNG)
	router.Get("/quality", h.ServeQuality)
	router.Get("/health", h.HealthCheck)
	return router
}

func doRequest(t *testing.T, handler http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("Failed to decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestServeProducts(t *testing.T) {
	h, _ := setupHandler(t)
	rec := doRequest(t, newRouter(h), "/products")

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Expected JSON content type, got %q", ct)
	}
	if rec.Header().Get("Last-Modified") == "" {
		t.Error("Expected a Last-Modified header")
	}

	body := decode[struct {
		Data       []entities.ProductAggregate `json:"data"`
		Page       int                         `json:"page"`
		PageSize   int                         `json:"pageSize"`
		TotalItems int                         `json:"totalItems"`
		MaxPage    int                         `json:"maxPage"`
	}](t, rec)

	if body.TotalItems != 2 || body.MaxPage != 1 || body.Page != 1 || body.PageSize != ProductsPageSize {
		t.Errorf("Unexpected paging: %+v", body)
	}
	if len(body.Data) != 2 || body.Data[0].Product != "aspirin" || body.Data[1].Product != "fish oil" {
		t.Errorf("Expected products ranked by count, got %+v", body.Data)
	}
}

func TestServeProductsQueryAndPaging(t *testing.T) {
	h, _ := setupHandler(t)
	router := newRouter(h)

	testCases := []struct {
		target       string
		expectedCode int
		expectedLen  int
	}{
		{"/products?q=fish", http.StatusOK, 1},
		{"/products?q=FISH", http.StatusOK, 1},
		{"/products?q=nothing", http.StatusOK, 0},
		{"/products?page=1", http.StatusOK, 2},
		{"/products?page=2", http.StatusNotFound, -1},
		{"/products?page=0", http.StatusBadRequest, -1},
		{"/products?page=abc", http.StatusBadRequest, -1},
		{"/products?q=%3Cscript%3E", http.StatusBadRequest, -1},
	}

	for _, tc := range testCases {
		t.Run(tc.target, func(t *testing.T) {
			rec := doRequest(t, router, tc.target)
			if rec.Code != tc.expectedCode {
				t.Fatalf("Expected status %d, got %d: %s", tc.expectedCode, rec.Code, rec.Body.String())
			}
			if tc.expectedLen < 0 {
				return
			}
			body := decode[struct {
				Data []entities.ProductAggregate `json:"data"`
			}](t, rec)
			if len(body.Data) != tc.expectedLen {
				t.Errorf("Expected %d products, got %d", tc.expectedLen, len(body.Data))
			}
		})
	}
}

func TestServeProductsPagination(t *testing.T) {
	dc := data.NewDataContainer()
	aggregates := make(map[string]entities.ProductAggregate)
	for i := 0; i < 45; i++ {
		name := "product " + strconv.Itoa(i)
		aggregates[name] = entities.ProductAggregate{Product: name, Count: 1}
	}
	dc.UpdateData(&entities.Dataset{Aggregates: aggregates}, nil)
	h := NewHTTPHandler(dc, validation.NewDataValidator(), stubHealthChecker{}, 0)

	rec := doRequest(t, newRouter(h), "/products?page=3")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	body := decode[struct {
		Data    []entities.ProductAggregate `json:"data"`
		MaxPage int                         `json:"maxPage"`
	}](t, rec)
	if body.MaxPage != 3 {
		t.Errorf("Expected 3 pages, got %d", body.MaxPage)
	}
	if len(body.Data) != 5 {
		t.Errorf("Expected 5 products on the last page, got %d", len(body.Data))
	}
}

func TestFindProduct(t *testing.T) {
	h, _ := setupHandler(t)
	router := newRouter(h)

	rec := doRequest(t, router, "/products/Fish%20Oil")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	agg := decode[entities.ProductAggregate](t, rec)
	expected := entities.ProductAggregate{
		Product:      "fish oil",
		Count:        1,
		SeveritySum:  2,
		MeanSeverity: 2,
		ByBracket:    map[entities.AgeBracket]int{entities.BracketKids: 1},
	}
	if diff := cmp.Diff(expected, agg); diff != "" {
		t.Errorf("Aggregate mismatch (-want +got):\n%s", diff)
	}

	if rec := doRequest(t, router, "/products/ginseng"); rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for an unknown product, got %d", rec.Code)
	}
	if rec := doRequest(t, router, "/products/"+strings.Repeat("a", 201)); rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for a too-long name, got %d", rec.Code)
	}
}

func TestFindProductUnusualNames(t *testing.T) {
	names := []string{
		"airborne®",
		"5-hour energy!",
		`"natural" tea`,
		"hydroxycut*",
		"super-b--complex",
		"c",
	}

	aggregates := make(map[string]entities.ProductAggregate)
	for _, name := range names {
		aggregates[name] = entities.ProductAggregate{Product: name, Count: 1}
	}
	dc := data.NewDataContainer()
	dc.UpdateData(&entities.Dataset{Aggregates: aggregates}, nil)
	router := newRouter(NewHTTPHandler(dc, validation.NewDataValidator(), stubHealthChecker{}, 0))

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			rec := doRequest(t, router, "/products/"+url.PathEscape(name))
			if rec.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
			}
			if agg := decode[entities.ProductAggregate](t, rec); agg.Product != name {
				t.Errorf("Expected product %q, got %q", name, agg.Product)
			}
		})
	}
}

func TestFindReport(t *testing.T) {
	h, _ := setupHandler(t)
	router := newRouter(h)

	rec := doRequest(t, router, "/reports/102")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	body := decode[struct {
		ReportID string            `json:"reportId"`
		Records  []entities.Record `json:"records"`
	}](t, rec)
	if body.ReportID != "102" || len(body.Records) != 2 {
		t.Errorf("Expected 2 records for report 102, got %+v", body)
	}

	if rec := doRequest(t, router, "/reports/999"); rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for an unknown report, got %d", rec.Code)
	}
	if rec := doRequest(t, router, "/reports/1;2"); rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for an invalid report id, got %d", rec.Code)
	}
}

func TestServeChartData(t *testing.T) {
	h, _ := setupHandler(t)
	router := newRouter(h)

	rec := doRequest(t, router, "/chart")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	got := decode[chart.Data](t, rec)
	expected := chart.Data{
		Threshold: 2,
		Products:  []string{"aspirin"},
		AgeGroups: []entities.AgeBracket{entities.BracketSenior, entities.BracketKids},
		Bars: []chart.Bar{
			{Product: "aspirin", AgeGroup: entities.BracketSenior, Occurrences: 3, Records: 2},
			{Product: "aspirin", AgeGroup: entities.BracketKids, Occurrences: 3, Records: 1},
		},
	}
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("Chart data mismatch (-want +got):\n%s", diff)
	}
}

func TestServeChartDataFilters(t *testing.T) {
	h, _ := setupHandler(t)
	router := newRouter(h)

	// aspirin has 3 records overall but only 2 female ones, at threshold 2
	rec := doRequest(t, router, "/chart?sex=female")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if got := decode[chart.Data](t, rec); len(got.Bars) != 0 {
		t.Errorf("Expected no bars once occurrences are recounted for the filter, got %+v", got.Bars)
	}

	rec = doRequest(t, router, "/chart?age_group=middle%20age")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	if rec := doRequest(t, router, "/chart?age_group=toddlers"); rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for an unknown age group, got %d", rec.Code)
	}
	if rec := doRequest(t, router, "/chart?sex=%3Cscript%3E"); rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for an invalid sex filter, got %d", rec.Code)
	}
}

func TestServeChartPNG(t *testing.T) {
	h, _ := setupHandler(t)
	rec := doRequest(t, newRouter(h), "/chart.png")

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Expected image/png, got %q", ct)
	}
	if _, err := png.Decode(rec.Body); err != nil {
		t.Errorf("Expected a valid PNG, got %v", err)
	}
}

func TestServeQuality(t *testing.T) {
	h, _ := setupHandler(t)
	rec := doRequest(t, newRouter(h), "/quality")

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	body := decode[map[string]any](t, rec)
	if _, ok := body["load"]; !ok {
		t.Errorf("Expected a load section, got %v", body)
	}
}

func TestHealthCheck(t *testing.T) {
	h, dc := setupHandler(t)
	dc.SetServerStartTime(time.Now().Add(-time.Minute))

	rec := doRequest(t, newRouter(h), "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	body := decode[map[string]any](t, rec)
	if body["status"] != "healthy" {
		t.Errorf("Expected healthy, got %v", body["status"])
	}
	if uptime, _ := body["uptime_seconds"].(float64); uptime < 60 {
		t.Errorf("Expected uptime of at least 60s, got %v", body["uptime_seconds"])
	}
	if _, ok := body["system"].(map[string]any); !ok {
		t.Errorf("Expected system stats, got %v", body["system"])
	}
}

func TestHealthCheckUnhealthy(t *testing.T) {
	dc := data.NewDataContainer()
	h := NewHTTPHandler(dc, validation.NewDataValidator(), stubHealthChecker{status: "unhealthy", code: http.StatusServiceUnavailable}, 0)

	rec := doRequest(t, newRouter(h), "/health")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", rec.Code)
	}
}

func TestRespondWithError(t *testing.T) {
	h, _ := setupHandler(t)
	rec := httptest.NewRecorder()

	h.RespondWithError(rec, http.StatusTeapot, "short and stout")

	body := decode[map[string]any](t, rec)
	if body["error"] != http.StatusText(http.StatusTeapot) || body["message"] != "short and stout" || body["code"] != float64(http.StatusTeapot) {
		t.Errorf("Unexpected error body: %v", body)
	}
}
