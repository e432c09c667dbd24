// Package config loads journal viewer settings from the environment.
package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds all configuration values.
type Config struct {
	// Backend connection
	BackendURL    string
	ClientTimeout time.Duration

	// Jobs
	PollInterval time.Duration
	SortKey      string

	// Browser
	UpdateInterval time.Duration
	Instrument     string

	// User-defined sources
	SourcesFile string

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// Load reads configuration from environment variables.
func Load() Config {
	return Config{
		BackendURL:    getEnv("JV_BACKEND_URL", "http://127.0.0.1:5000"),
		ClientTimeout: parseDuration(getEnv("JV_CLIENT_TIMEOUT", ""), 5*time.Minute),

		PollInterval: parseDuration(getEnv("JV_POLL_INTERVAL", ""), time.Second),
		SortKey:      getEnv("JV_SORT_KEY", "run_number"),

		UpdateInterval: parseDuration(getEnv("JV_UPDATE_INTERVAL", ""), 0),
		Instrument:     getEnv("JV_INSTRUMENT", "MARI"),

		SourcesFile: getEnv("JV_SOURCES_FILE", defaultSourcesFile()),

		LogFile:  getEnv("JV_LOG_FILE", "/tmp/jv.log"),
		LogLevel: parseLogLevel(getEnv("JV_LOG_LEVEL", "INFO")),
	}
}

func defaultSourcesFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "jv", "sources.yaml")
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func parseDuration(s string, defaultVal time.Duration) time.Duration {
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		slog.Warn("ignoring invalid duration", "value", s, "default", defaultVal)
		return defaultVal
	}
	return d
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
