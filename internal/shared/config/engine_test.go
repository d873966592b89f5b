package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadEngine_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadEngine("")
	require.NoError(t, err)

	require.Equal(t, 0, cfg.Engine.Workers)
	require.Equal(t, "shared", cfg.Engine.Mode)
	require.Equal(t, "expect_all", cfg.Engine.Policy)
	require.Equal(t, "SCATTER_WORKER", cfg.Isolated.EnvMarker)
	require.Empty(t, cfg.Isolated.Executable)
	require.Equal(t, "info", cfg.Logging.Level)
	require.Equal(t, "json", cfg.Logging.Format)
	require.Equal(t, "slog", cfg.Logging.Backend)
	require.False(t, cfg.Metrics.Enabled)
}

func TestLoadEngine_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scatter.yaml")
	content := `
engine:
  workers: 8
  mode: isolated
  policy: expect_any
logging:
  level: debug
  format: text
  backend: zap
metrics:
  enabled: true
  textfile: /tmp/scatter.prom
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadEngine(path)
	require.NoError(t, err)

	require.Equal(t, 8, cfg.Engine.Workers)
	require.Equal(t, "isolated", cfg.Engine.Mode)
	require.Equal(t, "expect_any", cfg.Engine.Policy)
	require.Equal(t, "debug", cfg.Logging.Level)
	require.Equal(t, "text", cfg.Logging.Format)
	require.Equal(t, "zap", cfg.Logging.Backend)
	require.True(t, cfg.Metrics.Enabled)
	require.Equal(t, "/tmp/scatter.prom", cfg.Metrics.Textfile)
	// untouched keys keep their defaults
	require.Equal(t, "SCATTER_WORKER", cfg.Isolated.EnvMarker)
}

func TestLoadEngine_ConfigDirLookup(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "config"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "config", "scatter.yaml"),
		[]byte("engine:\n  workers: 3\n"),
		0o644,
	))
	t.Chdir(dir)

	cfg, err := LoadEngine("")
	require.NoError(t, err)
	require.Equal(t, 3, cfg.Engine.Workers)
}

func TestLoadEngine_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SCATTER_ENGINE_WORKERS", "5")
	t.Setenv("SCATTER_ENGINE_MODE", "isolated")
	t.Setenv("SCATTER_LOGGING_LEVEL", "warn")

	cfg, err := LoadEngine("")
	require.NoError(t, err)
	require.Equal(t, 5, cfg.Engine.Workers)
	require.Equal(t, "isolated", cfg.Engine.Mode)
	require.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadEngine_MissingExplicitFile(t *testing.T) {
	_, err := LoadEngine(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
