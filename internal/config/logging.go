package config

import (
	"io"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
	"golang.org/x/term"
)

// SetupLogger creates a dual-output logger: text to stderr, JSON to file.
// Stderr switches to JSON when it is not a terminal so piped output stays
// machine-readable. Returns the logger and a cleanup function to close the
// file.
func SetupLogger(logFile string, level slog.Level) (*slog.Logger, func() error) {
	return setupLogger(stderrHandler(os.Stderr, term.IsTerminal(int(os.Stderr.Fd())), level), logFile, level)
}

// SetupFileLogger logs to logFile only, for when a full-screen view owns the
// terminal.
func SetupFileLogger(logFile string, level slog.Level) (*slog.Logger, func() error) {
	return setupLogger(nil, logFile, level)
}

func stderrHandler(w io.Writer, tty bool, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if tty {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

func setupLogger(console slog.Handler, logFile string, level slog.Level) (*slog.Logger, func() error) {
	noop := func() error { return nil }

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		if console == nil {
			return slog.New(slog.NewTextHandler(io.Discard, nil)), noop
		}
		// Fall back to stderr-only if file fails
		slog.New(console).Error("failed to open log file, using stderr only", "error", err, "file", logFile)
		return slog.New(console), noop
	}

	fileHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level})
	if console == nil {
		return slog.New(fileHandler), file.Close
	}
	return slog.New(slogmulti.Fanout(console, fileHandler)), file.Close
}

// SetupLoggerWithWriters creates a logger with custom writers (for testing).
func SetupLoggerWithWriters(stderr, file io.Writer, level slog.Level) *slog.Logger {
	fileHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level})
	return slog.New(slogmulti.Fanout(stderrHandler(stderr, true, level), fileHandler))
}
