package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/config"
	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/constants"
	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/utils/securelog"
)

var (
	// rotator is the production file sink, closed by CloseLogger
	rotator   *lumberjack.Logger
	rotatorMu sync.Mutex
)

// InitLogger initializes the application logger with the given configuration.
// Every sink is wrapped by the redacting writer, so events built with the
// plain zerolog API are scrubbed as well.
func InitLogger(cfg *config.AppConfig) {
	if err := SetLogLevel(cfg.Logging.Level); err != nil {
		// Default to info level if invalid
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	output := buildOutput(cfg)

	log.Logger = zerolog.New(securelog.NewWriter(output, nil)).
		With().
		Timestamp().
		Str("app", cfg.App.Name).
		Str("version", cfg.App.Version).
		Str("env", cfg.App.Environment).
		Logger()

	log.Info().Str("level", GetLogLevel()).Msg("Logger initialized")
}

// buildOutput selects the sink: console in development, stdout plus a rotated
// file in production, plain JSON on stdout otherwise.
func buildOutput(cfg *config.AppConfig) io.Writer {
	if strings.ToLower(cfg.Logging.Format) == "console" && !cfg.App.IsProduction() {
		return zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
			NoColor:    false, // Enable colors for development
		}
	}

	if !cfg.App.IsProduction() || cfg.Logging.File == "" {
		return os.Stdout
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0o750); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create log directory, logging to stdout only: %v\n", err)
		return os.Stdout
	}

	rotatorMu.Lock()
	defer rotatorMu.Unlock()
	if rotator != nil {
		_ = rotator.Close()
	}
	rotator = &lumberjack.Logger{
		Filename:   cfg.Logging.File,
		MaxSize:    cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAge:     cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	}

	return io.MultiWriter(os.Stdout, rotator)
}

// CloseLogger flushes and closes the rotated log file, if any.
func CloseLogger() error {
	rotatorMu.Lock()
	defer rotatorMu.Unlock()
	if rotator == nil {
		return nil
	}
	err := rotator.Close()
	rotator = nil
	return err
}

// RequestLogger creates a logger with request-specific context
func RequestLogger(requestID, userID, method, path string) zerolog.Logger {
	logger := log.With().
		Str(constants.RequestIDContextKey, requestID).
		Str("method", method).
		Str("path", path)

	if userID != "" {
		logger = logger.Str(constants.UserIDContextKey, userID)
	}

	return logger.Logger()
}

// LogHTTPRequest logs an HTTP request with request details. The caller is
// identified by its hashed identity, never by its address.
func LogHTTPRequest(requestID, method, path, identityHash, userAgent string, statusCode int, latency time.Duration) {
	// Only log some paths at debug level to reduce noise
	if path == constants.HealthPath || path == constants.DefaultMetricsPath {
		if zerolog.GlobalLevel() > zerolog.DebugLevel {
			return
		}
	}

	event := log.Debug()

	// Elevate error responses to warning/error level
	if statusCode >= 400 && statusCode < 500 {
		event = log.Warn()
	} else if statusCode >= 500 {
		event = log.Error()
	} else if strings.HasPrefix(path, constants.APIBasePath) && path != constants.HealthPath {
		// Log API requests at info level
		event = log.Info()
	}

	event.
		Str(constants.RequestIDContextKey, requestID).
		Str("method", method).
		Str("path", path).
		Str("identity", identityHash).
		Str("user_agent", userAgent).
		Int("status", statusCode).
		Dur("latency", latency).
		Msg("HTTP Request")
}

// LogPanic logs a recovered panic value with a scrubbed stack trace on the
// given request logger
func LogPanic(logger zerolog.Logger, recovered interface{}, stack []byte) {
	logger.Error().
		Str("panic", securelog.SanitizeString(fmt.Sprint(recovered))).
		Str("stack", securelog.SanitizeString(string(stack))).
		Msg("Panic recovered in request handler")
}

// LogDBQuery logs a database query for debugging. Arguments are never logged,
// only their count.
func LogDBQuery(query string, args []interface{}, duration time.Duration, err error) {
	event := log.Debug()
	if err != nil {
		event = log.Error().Err(err)
	}

	event.
		Str("query", query).
		Int("arg_count", len(args)).
		Dur("duration", duration).
		Msg("Database query executed")
}

// GetLogLevel returns the current global log level as a string
func GetLogLevel() string {
	return zerolog.GlobalLevel().String()
}

// SetLogLevel updates the global log level
func SetLogLevel(level string) error {
	parsedLevel, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("invalid log level: %s", level)
	}

	zerolog.SetGlobalLevel(parsedLevel)
	return nil
}
