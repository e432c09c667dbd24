package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"JV_BACKEND_URL", "JV_CLIENT_TIMEOUT", "JV_POLL_INTERVAL", "JV_SORT_KEY", "JV_UPDATE_INTERVAL", "JV_LOG_LEVEL"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "http://127.0.0.1:5000", cfg.BackendURL)
	assert.Equal(t, 5*time.Minute, cfg.ClientTimeout)
	assert.Equal(t, time.Second, cfg.PollInterval)
	assert.Equal(t, "run_number", cfg.SortKey)
	assert.Zero(t, cfg.UpdateInterval)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JV_BACKEND_URL", "http://127.0.0.1:6000")
	t.Setenv("JV_POLL_INTERVAL", "250ms")
	t.Setenv("JV_UPDATE_INTERVAL", "30s")
	t.Setenv("JV_LOG_LEVEL", "debug")

	cfg := Load()
	assert.Equal(t, "http://127.0.0.1:6000", cfg.BackendURL)
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 30*time.Second, cfg.UpdateInterval)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestParseDurationInvalidFallsBack(t *testing.T) {
	assert.Equal(t, time.Second, parseDuration("soon", time.Second))
	assert.Equal(t, time.Second, parseDuration("-5s", time.Second))
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.in))
		})
	}
}

func TestSetupLoggerWithWriters(t *testing.T) {
	var stderr, file bytes.Buffer
	logger := SetupLoggerWithWriters(&stderr, &file, slog.LevelInfo)

	logger.Info("job accepted", "source", "ISIS")
	logger.Debug("hidden")

	assert.Contains(t, stderr.String(), "job accepted")
	assert.NotContains(t, stderr.String(), "hidden")

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(file.String())), &entry))
	assert.Equal(t, "ISIS", entry["source"])
}

func TestSetupFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jv.log")
	logger, cleanup := SetupFileLogger(path, slog.LevelDebug)
	logger.Debug("poll", "job_id", "abc12345")
	require.NoError(t, cleanup())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"job_id":"abc12345"`)
}

func TestStderrHandlerFormat(t *testing.T) {
	var buf bytes.Buffer
	slog.New(stderrHandler(&buf, false, slog.LevelInfo)).Info("piped")
	assert.True(t, strings.HasPrefix(buf.String(), "{"), "non-terminal output is JSON")

	buf.Reset()
	slog.New(stderrHandler(&buf, true, slog.LevelInfo)).Info("tty")
	assert.Contains(t, buf.String(), "msg=tty")
}
