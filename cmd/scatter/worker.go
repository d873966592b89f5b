package main

import (
	"log/slog"
	"os"

	"github.com/nemanja-m/scatter/examples/bench"
	"github.com/nemanja-m/scatter/examples/grep"
	"github.com/nemanja-m/scatter/examples/wordcount"
	"github.com/nemanja-m/scatter/internal/shared/config"
	"github.com/nemanja-m/scatter/internal/shared/logging"
	"github.com/nemanja-m/scatter/pkg/isolated"
	"github.com/nemanja-m/scatter/pkg/jobs"
)

const markerEnv = "SCATTER_ISOLATED_ENV_MARKER"

func workerMarker() string {
	if marker := os.Getenv(markerEnv); marker != "" {
		return marker
	}
	return isolated.DefaultEnvMarker
}

// newRegistry builds the task set shared by the driver and its workers.
func newRegistry() (*jobs.Registry, error) {
	reg := jobs.NewRegistry()
	for _, register := range []func(*jobs.Registry) error{
		wordcount.Register,
		grep.Register,
		bench.Register,
	} {
		if err := register(reg); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// workerEnv passes the resolved settings a worker needs to its process, so
// it does not depend on finding the same config file.
func workerEnv(cfg *config.EngineConfig) []string {
	return []string{
		markerEnv + "=" + cfg.Isolated.EnvMarker,
		"SCATTER_LOGGING_LEVEL=" + cfg.Logging.Level,
		"SCATTER_LOGGING_FORMAT=" + cfg.Logging.Format,
		"SCATTER_LOGGING_BACKEND=" + cfg.Logging.Backend,
	}
}

func serveWorker() {
	cfg, err := config.LoadEngine("")
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging, os.Stderr)
	if err != nil {
		slog.Error("Failed to create logger", "error", err)
		os.Exit(1)
	}

	reg, err := newRegistry()
	if err != nil {
		logger.Fatal("Failed to register tasks", "error", err)
	}

	isolated.Main(reg, logger)
}
