package config

import (
	"io"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
)

// SetupLogger logs human-readable text to stderr and JSON to logFile.
// With quiet set, stderr only receives errors so command output stays
// clean while the file keeps every record at level.
// The returned func closes the file.
func SetupLogger(logFile string, level slog.Level, quiet bool) (*slog.Logger, func() error) {
	stderrLevel := level
	if quiet {
		stderrLevel = slog.LevelError
	}
	console := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: stderrLevel})

	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		logger := slog.New(console)
		logger.Warn("log file unavailable, logging to stderr only", "file", logFile, "error", err)
		return logger, func() error { return nil }
	}

	return newFanout(console, f, level), f.Close
}

// SetupLoggerWithWriters builds the same fanout over arbitrary writers (tests).
func SetupLoggerWithWriters(stderr, file io.Writer, level slog.Level) *slog.Logger {
	return newFanout(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}), file, level)
}

func newFanout(console slog.Handler, file io.Writer, level slog.Level) *slog.Logger {
	jsonHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level})
	return slog.New(slogmulti.Fanout(console, jsonHandler))
}

// DiscardLogger returns a logger that drops every record.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
