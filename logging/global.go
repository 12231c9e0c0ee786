package logging

import (
	"log/slog"
	"os"
	"strings"

	"github.com/giygas/caers-api/config"
)

type LoggingService struct {
	Logger         *slog.Logger
	RotatingLogger *RotatingLogger
}

var DefaultLoggingService *LoggingService

// InitLogger initializes the global logger with console output only.
// An empty logDir skips the rotating file, which is what tests use.
func InitLogger(logDir string) {
	if logDir == "" {
		DefaultLoggingService = &LoggingService{
			Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			})),
		}
		slog.SetDefault(DefaultLoggingService.Logger)
		return
	}

	logger, rotating := setupLogger(logDir, 4, 100*1024*1024, slog.LevelInfo)
	DefaultLoggingService = &LoggingService{Logger: logger, RotatingLogger: rotating}
	slog.SetDefault(DefaultLoggingService.Logger)
}

// InitLoggerWithConfig initializes the global logger from the app configuration
func InitLoggerWithConfig(cfg *config.Config, verbose bool) {
	consoleLevel := GetConsoleLogLevel(cfg.Env, cfg.LogLevel, verbose)
	logger, rotating := setupLogger(cfg.LogDir, cfg.LogRetentionWeeks, cfg.MaxLogFileSize, consoleLevel)
	DefaultLoggingService = &LoggingService{Logger: logger, RotatingLogger: rotating}
	slog.SetDefault(DefaultLoggingService.Logger)
}

// Close releases the rotating log file, if any
func Close() error {
	if DefaultLoggingService == nil || DefaultLoggingService.RotatingLogger == nil {
		return nil
	}
	return DefaultLoggingService.RotatingLogger.Close()
}

// parseLogLevel maps a LOG_LEVEL string to a slog level, defaulting to info
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// GetConsoleLogLevel picks the console level. Tests stay quiet unless verbose;
// prod and staging default to warn; an explicit LOG_LEVEL wins elsewhere.
func GetConsoleLogLevel(env config.Environment, logLevel string, verbose bool) slog.Level {
	if env == config.EnvTest {
		if verbose {
			return slog.LevelInfo
		}
		return slog.LevelError
	}

	if logLevel != "" {
		return parseLogLevel(logLevel)
	}

	switch env {
	case config.EnvProduction, config.EnvStaging:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// GetFileLogLevel returns the file level; the file always keeps debug output
func GetFileLogLevel() slog.Level {
	return slog.LevelDebug
}

// Package-level functions for direct access

func Info(msg string, args ...any) {
	if DefaultLoggingService == nil || DefaultLoggingService.Logger == nil {
		fallbackLogger(slog.LevelInfo).Info(msg, args...)
		return
	}
	DefaultLoggingService.Logger.Info(msg, args...)
}

func Error(msg string, args ...any) {
	if DefaultLoggingService == nil || DefaultLoggingService.Logger == nil {
		fallbackLogger(slog.LevelError).Error(msg, args...)
		return
	}
	DefaultLoggingService.Logger.Error(msg, args...)
}

func Warn(msg string, args ...any) {
	if DefaultLoggingService == nil || DefaultLoggingService.Logger == nil {
		fallbackLogger(slog.LevelWarn).Warn(msg, args...)
		return
	}
	DefaultLoggingService.Logger.Warn(msg, args...)
}

func Debug(msg string, args ...any) {
	if DefaultLoggingService == nil || DefaultLoggingService.Logger == nil {
		// Debug output before initialization is dropped
		return
	}
	DefaultLoggingService.Logger.Debug(msg, args...)
}

// fallbackLogger is the console logger used before initialization
func fallbackLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// Logger returns the configured logger, or the slog default before initialization
func Logger() *slog.Logger {
	if DefaultLoggingService == nil || DefaultLoggingService.Logger == nil {
		return slog.Default()
	}
	return DefaultLoggingService.Logger
}
