package scheduler

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/giygas/caers-api/caersparser/entities"
	"github.com/giygas/caers-api/data"
)

// mockParser returns a fixed dataset or error and counts calls
type mockParser struct {
	dataset *entities.Dataset
	err     error
	calls   atomic.Int32
}

func (m *mockParser) ParseDataset() (*entities.Dataset, error) {
	m.calls.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	return m.dataset, nil
}

func (m *mockParser) Source() string {
	return "mock.csv"
}

func testDataset(products ...string) *entities.Dataset {
	dataset := &entities.Dataset{Aggregates: make(map[string]entities.ProductAggregate)}
	for i, product := range products {
		dataset.Records = append(dataset.Records, entities.Record{ReportID: string(rune('a' + i)), Product: product, Severity: 3})
		dataset.Aggregates[product] = entities.ProductAggregate{Product: product, Count: 1, SeveritySum: 3, MeanSeverity: 3}
	}
	return dataset
}

func TestNewSchedulerDefaults(t *testing.T) {
	s := NewScheduler(data.NewDataContainer(), &mockParser{}, Options{})

	if s.opts.RefreshTimes != DefaultRefreshTimes {
		t.Errorf("Expected default refresh times, got %q", s.opts.RefreshTimes)
	}
	if s.opts.Debounce != 2*time.Second {
		t.Errorf("Expected 2s debounce, got %v", s.opts.Debounce)
	}
}

func TestRefresh(t *testing.T) {
	dc := data.NewDataContainer()
	parser := &mockParser{dataset: testDataset("aspirin", "zinc")}
	s := NewScheduler(dc, parser, Options{})

	if err := s.Refresh(); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(dc.GetRecords()) != 2 {
		t.Errorf("Expected 2 records published, got %d", len(dc.GetRecords()))
	}
	if len(dc.GetAggregates()) != 2 {
		t.Errorf("Expected 2 aggregates published, got %d", len(dc.GetAggregates()))
	}
	if dc.GetLastUpdated().IsZero() {
		t.Error("Expected last updated to be set")
	}
	if dc.IsUpdating() {
		t.Error("Expected the update flag cleared after refresh")
	}
	if report := dc.GetDataQualityReport(); report.SeverityHistogram[3] != 2 {
		t.Errorf("Expected the quality report published, got %+v", report)
	}
}

func TestRefreshFailureKeepsPreviousData(t *testing.T) {
	dc := data.NewDataContainer()
	parser := &mockParser{dataset: testDataset("aspirin")}
	s := NewScheduler(dc, parser, Options{})

	if err := s.Refresh(); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	lastUpdated := dc.GetLastUpdated()

	parser.err = errors.New("file vanished")
	if err := s.Refresh(); err == nil {
		t.Fatal("Expected an error from the failing parser")
	}

	if len(dc.GetRecords()) != 1 {
		t.Errorf("Expected the previous dataset to stay published, got %d records", len(dc.GetRecords()))
	}
	if !dc.GetLastUpdated().Equal(lastUpdated) {
		t.Error("Expected last updated unchanged after a failed refresh")
	}
	if dc.IsUpdating() {
		t.Error("Expected the update flag cleared after a failed refresh")
	}
}

func TestRefreshSkipsWhileUpdating(t *testing.T) {
	dc := data.NewDataContainer()
	parser := &mockParser{dataset: testDataset("aspirin")}
	s := NewScheduler(dc, parser, Options{})

	dc.BeginUpdate()
	defer dc.EndUpdate()

	if err := s.Refresh(); err != nil {
		t.Fatalf("Expected a skipped refresh to return nil, got %v", err)
	}
	if parser.calls.Load() != 0 {
		t.Errorf("Expected the parser not to be called, got %d calls", parser.calls.Load())
	}
}

func TestStartAndStop(t *testing.T) {
	dc := data.NewDataContainer()
	parser := &mockParser{dataset: testDataset("aspirin")}
	s := NewScheduler(dc, parser, Options{RefreshTimes: "03:00"})

	if err := s.Start(); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	defer s.Stop()

	if parser.calls.Load() != 1 {
		t.Errorf("Expected one initial load, got %d", parser.calls.Load())
	}
	if len(dc.GetRecords()) != 1 {
		t.Errorf("Expected the initial dataset published, got %d records", len(dc.GetRecords()))
	}

	// Stop must be safe to call twice
	s.Stop()
}

func TestStartFailsOnInitialLoad(t *testing.T) {
	parser := &mockParser{err: errors.New("missing required column(s): PRODUCT")}
	s := NewScheduler(data.NewDataContainer(), parser, Options{})

	err := s.Start()
	if err == nil {
		t.Fatal("Expected Start to fail")
	}
	if !errors.Is(err, parser.err) {
		t.Errorf("Expected the parser error to be wrapped, got %v", err)
	}
}

func TestCalculateNextUpdate(t *testing.T) {
	loc := time.UTC
	testCases := []struct {
		name         string
		now          time.Time
		refreshTimes string
		expected     time.Time
	}{
		{"before first", time.Date(2026, 3, 10, 5, 0, 0, 0, loc), "06:00;18:00", time.Date(2026, 3, 10, 6, 0, 0, 0, loc)},
		{"between", time.Date(2026, 3, 10, 12, 0, 0, 0, loc), "06:00;18:00", time.Date(2026, 3, 10, 18, 0, 0, 0, loc)},
		{"after last", time.Date(2026, 3, 10, 19, 0, 0, 0, loc), "06:00;18:00", time.Date(2026, 3, 11, 6, 0, 0, 0, loc)},
		{"exactly at a time", time.Date(2026, 3, 10, 6, 0, 0, 0, loc), "06:00;18:00", time.Date(2026, 3, 10, 18, 0, 0, 0, loc)},
		{"unsorted input", time.Date(2026, 3, 10, 7, 0, 0, 0, loc), "18:00;06:00;09:30", time.Date(2026, 3, 10, 9, 30, 0, 0, loc)},
		{"month rollover", time.Date(2026, 3, 31, 23, 0, 0, 0, loc), "06:00", time.Date(2026, 4, 1, 6, 0, 0, 0, loc)},
		{"invalid falls back", time.Date(2026, 3, 10, 12, 0, 0, 0, loc), "noon", time.Date(2026, 3, 10, 18, 0, 0, 0, loc)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CalculateNextUpdate(tc.now, tc.refreshTimes); !got.Equal(tc.expected) {
				t.Errorf("Expected %v, got %v", tc.expected, got)
			}
		})
	}
}

func TestParseRefreshTimes(t *testing.T) {
	got := parseRefreshTimes("18:00; 06:30;25:00;bad;12:5x")
	expected := []int{6*60 + 30, 18 * 60}

	if len(got) != len(expected) {
		t.Fatalf("Expected %v, got %v", expected, got)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("Expected %v, got %v", expected, got)
		}
	}
}
