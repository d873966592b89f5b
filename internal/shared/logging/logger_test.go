package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nemanja-m/scatter/internal/shared/config"
)

func TestSlogLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLogger(slog.LevelInfo, "json", &buf)

	logger.Debug("hidden")
	logger.Info("Dispatching task", "task", "count_words", "workers", 4)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	require.Equal(t, "Dispatching task", entry["msg"])
	require.Equal(t, "count_words", entry["task"])
	require.Equal(t, float64(4), entry["workers"])
	require.True(t, strings.HasSuffix(entry["time"].(string), "Z"))
}

func TestSlogLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLogger(slog.LevelDebug, "text", &buf)
	logger.Debug("Worker fault", "task", "sum")
	require.Contains(t, buf.String(), "msg=\"Worker fault\"")
	require.Contains(t, buf.String(), "task=sum")
}

func TestZapLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewZapLogger("warn", "json", &buf)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("Partial failure absorbed", "failures", 1)

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, "Partial failure absorbed")
	require.Contains(t, out, `"failures":1`)
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.LoggingConfig
		wantErr bool
	}{
		{name: "default backend", cfg: config.LoggingConfig{Level: "info", Format: "json"}},
		{name: "slog text", cfg: config.LoggingConfig{Level: "debug", Format: "text", Backend: "slog"}},
		{name: "zap", cfg: config.LoggingConfig{Level: "info", Backend: "zap"}},
		{name: "nop", cfg: config.LoggingConfig{Backend: "nop"}},
		{name: "bad level", cfg: config.LoggingConfig{Level: "loud"}, wantErr: true},
		{name: "bad zap level", cfg: config.LoggingConfig{Level: "loud", Backend: "zap"}, wantErr: true},
		{name: "unknown backend", cfg: config.LoggingConfig{Backend: "syslog"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg, &bytes.Buffer{})
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, logger)
		})
	}
}
