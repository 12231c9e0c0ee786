// Package scheduler provides automated data refresh scheduling and health monitoring
// for the CAERS API. It runs cron-based refreshes, reloads the export when it
// changes on disk, and coordinates data swaps with the data container using
// dependency injection.
package scheduler

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/giygas/caers-api/interfaces"
	"github.com/giygas/caers-api/logging"
	"github.com/giygas/caers-api/metrics"
	"github.com/giygas/caers-api/validation"
	"github.com/go-co-op/gocron"
)

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

// DefaultRefreshTimes are the daily refresh times used when none are given
const DefaultRefreshTimes = "06:00;18:00"

// Options configures a Scheduler
type Options struct {
	RefreshTimes string // gocron At() times
	WatchFile    bool   // reload when the parser source changes on disk
	Debounce     time.Duration
}

// Scheduler handles data refreshes and health monitoring using dependency injection
type Scheduler struct {
	dataStore interfaces.DataStore
	parser    interfaces.Parser
	validator interfaces.DataValidator
	scheduler *gocron.Scheduler
	opts      Options
	watcher   *FileWatcher
	stopOnce  sync.Once
	stop      chan struct{}
}

// NewScheduler creates a new scheduler instance with injected dependencies
func NewScheduler(dataStore interfaces.DataStore, parser interfaces.Parser, opts Options) *Scheduler {
	if opts.RefreshTimes == "" {
		opts.RefreshTimes = DefaultRefreshTimes
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 2 * time.Second
	}

	return &Scheduler{
		dataStore: dataStore,
		parser:    parser,
		validator: validation.NewDataValidator(),
		scheduler: gocron.NewScheduler(time.Local),
		opts:      opts,
		stop:      make(chan struct{}),
	}
}

// Start performs the initial load, then schedules refreshes and health monitoring
func (s *Scheduler) Start() error {
	if err := s.Refresh(); err != nil {
		logging.Error("Failed to perform initial data load", "error", err)
		return fmt.Errorf("initial data load failed: %w", err)
	}

	_, err := s.scheduler.Every(1).Days().At(s.opts.RefreshTimes).Do(func() {
		if err := s.Refresh(); err != nil {
			logging.Error("Failed to refresh data", "error", err)
		}
	})
	if err != nil {
		logging.Error("Failed to schedule refreshes", "error", err)
		return fmt.Errorf("failed to schedule refreshes: %w", err)
	}

	s.scheduler.StartAsync()

	if s.opts.WatchFile {
		watcher, err := NewFileWatcher(s.parser.Source(), s.opts.Debounce, func() {
			if err := s.Refresh(); err != nil {
				logging.Error("Failed to reload changed file", "error", err)
			}
		})
		if err != nil {
			// Scheduled refreshes still work without the watcher
			logging.Warn("File watcher disabled", "source", s.parser.Source(), "error", err)
		} else {
			s.watcher = watcher
		}
	}

	s.startHealthMonitoring()

	return nil
}

// Stop stops the scheduler, the file watcher and health monitoring
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.scheduler.Stop()
		if s.watcher != nil {
			if err := s.watcher.Close(); err != nil {
				logging.Warn("Failed to close file watcher", "error", err)
			}
		}
		close(s.stop)
	})
}

// Refresh runs the pipeline and publishes the result. Overlapping calls are
// skipped. On failure the previously published dataset stays in place.
func (s *Scheduler) Refresh() error {
	if !s.dataStore.BeginUpdate() {
		logging.Info("Refresh already in progress, skipping...")
		return nil
	}
	defer s.dataStore.EndUpdate()

	logging.Info(fmt.Sprintf("Starting dataset refresh at: %s", time.Now().Format(time.RFC3339)))
	start := time.Now()

	dataset, err := s.parser.ParseDataset()
	metrics.ObserveRefresh(time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", s.parser.Source(), err)
	}

	report := s.validator.ReportDataQuality(dataset)

	if len(report.InconsistentAggregates) > 0 {
		logging.Error("Aggregates inconsistent with records",
			"count", len(report.InconsistentAggregates),
			"products", report.InconsistentAggregates,
		)
	}

	if len(report.ReportsWithManySuspects) > 0 {
		logging.Info("Reports naming several suspect products",
			"sample", report.ReportsWithManySuspects,
		)
	}

	if report.RecordsWithoutAge > 0 {
		logging.Info("Suspect records without a usable age", "count", report.RecordsWithoutAge)
	}

	s.dataStore.UpdateData(dataset, report)
	metrics.RecordDataset(dataset)

	logging.Info("Dataset refresh completed",
		"duration", time.Since(start).String(),
		"record_count", len(dataset.Records),
		"product_count", len(dataset.Aggregates))

	return nil
}

// startHealthMonitoring warns when the data has not been refreshed for a day
func (s *Scheduler) startHealthMonitoring() {
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				lastUpdate := s.dataStore.GetLastUpdated()
				if time.Since(lastUpdate) > 25*time.Hour {
					logging.Warn("Data hasn't been refreshed in over 25 hours")
				}
			}
		}
	}()
}

// CalculateNextUpdate returns the next time after now listed in refreshTimes
// ("HH:MM;HH:MM"). Unparseable entries are ignored; with none left the
// default times are used.
func CalculateNextUpdate(now time.Time, refreshTimes string) time.Time {
	minutes := parseRefreshTimes(refreshTimes)
	if len(minutes) == 0 {
		minutes = parseRefreshTimes(DefaultRefreshTimes)
	}

	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	for _, m := range minutes {
		candidate := midnight.Add(time.Duration(m) * time.Minute)
		if candidate.After(now) {
			return candidate
		}
	}

	tomorrow := midnight.AddDate(0, 0, 1)
	return tomorrow.Add(time.Duration(minutes[0]) * time.Minute)
}

// parseRefreshTimes returns the minutes after midnight of each entry, sorted
func parseRefreshTimes(refreshTimes string) []int {
	var minutes []int
	for _, entry := range strings.Split(refreshTimes, ";") {
		hh, mm, ok := strings.Cut(strings.TrimSpace(entry), ":")
		if !ok {
			continue
		}
		h, errH := strconv.Atoi(hh)
		m, errM := strconv.Atoi(mm)
		if errH != nil || errM != nil || h < 0 || h > 23 || m < 0 || m > 59 {
			continue
		}
		minutes = append(minutes, h*60+m)
	}
	sort.Ints(minutes)
	return minutes
}
