package config

import (
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
)

const logFileMode = 0o644

// SetupLogger builds the process logger: human-readable text on stderr,
// fanned out to a JSON copy appended to logFile for machine consumption.
// The returned cleanup closes the file handle.
//
// When the log file cannot be opened the logger degrades to stderr only;
// losing the file copy should not keep the process from starting.
func SetupLogger(logFile string, level slog.Level) (*slog.Logger, func() error) {
	opts := &slog.HandlerOptions{Level: level}
	stderrHandler := slog.NewTextHandler(os.Stderr, opts)

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFileMode)
	if err != nil {
		slog.Error("log file unavailable, logging to stderr only", "file", logFile, "error", err)
		return slog.New(stderrHandler), func() error { return nil }
	}

	logger := slog.New(slogmulti.Fanout(
		stderrHandler,
		slog.NewJSONHandler(file, opts),
	))
	return logger, file.Close
}
