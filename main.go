package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/giygas/caers-api/caersparser"
	"github.com/giygas/caers-api/config"
	"github.com/giygas/caers-api/data"
	"github.com/giygas/caers-api/handlers"
	"github.com/giygas/caers-api/health"
	"github.com/giygas/caers-api/logging"
	"github.com/giygas/caers-api/scheduler"
	"github.com/giygas/caers-api/server"
	"github.com/giygas/caers-api/validation"
	"github.com/joho/godotenv"
)

func main() {
	verbose := flag.Bool("verbose", false, "log at info level even in the test environment")
	flag.Parse()

	// A missing .env is fine, the environment may already be set
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file loaded", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	logging.InitLoggerWithConfig(cfg, *verbose)
	defer func() {
		if err := logging.Close(); err != nil {
			slog.Error("Failed to close log file", "error", err)
		}
	}()

	startTime := time.Now()
	dataContainer := data.NewDataContainer()
	dataContainer.SetServerStartTime(startTime)

	parser := caersparser.NewCAERSParser(cfg.DataFile, cfg.DataURL)
	sched := scheduler.NewScheduler(dataContainer, parser, scheduler.Options{
		RefreshTimes: cfg.RefreshTimes,
		WatchFile:    cfg.WatchFile && cfg.DataURL == "",
	})

	if err := sched.Start(); err != nil {
		var missing *caersparser.MissingFieldError
		if errors.As(err, &missing) {
			logging.Error("CAERS export is missing required columns", "columns", missing.Columns)
		} else {
			logging.Error("Failed to start scheduler", "error", err)
		}
		os.Exit(1)
	}

	healthChecker := health.NewHealthChecker(dataContainer, cfg.RefreshTimes)
	validator := validation.NewDataValidator()
	handler := handlers.NewHTTPHandler(dataContainer, validator, healthChecker, cfg.OccurrenceThreshold)

	srv := server.NewServer(cfg, handler)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sched.Stop()
	if err := srv.Shutdown(ctx); err != nil {
		logging.Error("Shutdown failed", "error", err)
	}

	logging.Info("Server stopped", "uptime", server.FormatUptime(time.Since(startTime)))
}
