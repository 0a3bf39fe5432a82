package utils

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LoggerConfig configures the process-wide logger.
type LoggerConfig struct {
	Level   string // debug, info, warn, error
	Format  string // json, console
	Dir     string // when set, JSON logs are also appended to Dir/app-<date>.log
	Service string
}

// InitLogger configures the global zerolog logger. It returns a closer for
// the log file, if one was opened.
func InitLogger(cfg LoggerConfig) (io.Closer, error) {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))
	zerolog.TimeFieldFormat = time.RFC3339

	var output io.Writer = os.Stdout
	if cfg.Format == "console" {
		output = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	var file *os.File
	if cfg.Dir != "" {
		if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create logs directory: %v", err)
		}
		name := filepath.Join(cfg.Dir, fmt.Sprintf("app-%s.log", time.Now().Format("2006-01-02")))
		f, err := os.OpenFile(name, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %v", err)
		}
		file = f
		output = zerolog.MultiLevelWriter(output, f)
	}

	log.Logger = zerolog.New(output).With().
		Timestamp().
		Str("service", cfg.Service).
		Logger()

	if file == nil {
		return io.NopCloser(nil), nil
	}
	return file, nil
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Logger returns the global structured logger for call sites that attach
// fields.
func Logger() *zerolog.Logger {
	return &log.Logger
}

// LoggerFromContext returns the request-scoped logger stored in ctx, or the
// global logger when there is none.
func LoggerFromContext(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &log.Logger
}

// LogInfo logs an informational message
func LogInfo(format string, v ...interface{}) {
	log.Info().Msgf(format, v...)
}

// LogWarn logs a warning
func LogWarn(format string, v ...interface{}) {
	log.Warn().Msgf(format, v...)
}

// LogError logs an error message
func LogError(format string, v ...interface{}) {
	log.Error().Msgf(format, v...)
}

// LogDebug logs a debug message
func LogDebug(format string, v ...interface{}) {
	log.Debug().Msgf(format, v...)
}

// LogRequest logs HTTP request details
func LogRequest(requestID, method, path, ip string, status int, duration time.Duration) {
	event := log.Info()
	if status >= 500 {
		event = log.Error()
	} else if status >= 400 {
		event = log.Warn()
	}
	event.
		Str("request_id", requestID).
		Str("method", method).
		Str("path", path).
		Str("ip", ip).
		Int("status", status).
		Dur("duration", duration).
		Msg("http.request")
}

// LogErrorWithStack logs an error with stack trace
func LogErrorWithStack(err error, stack []byte) {
	log.Error().Err(err).Str("stack", string(stack)).Msg("panic recovered")
}

// RedactEmail masks the local part of an email address for logs.
func RedactEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return "[redacted]"
	}
	user := parts[0]
	if len(user) > 2 {
		user = user[:2] + "***"
	} else {
		user = "***"
	}
	return user + "@" + parts[1]
}
