package main

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/nemanja-m/scatter/internal/shared/config"
	"github.com/nemanja-m/scatter/internal/shared/logging"
	"github.com/nemanja-m/scatter/pkg/core"
	"github.com/nemanja-m/scatter/pkg/engine"
	"github.com/nemanja-m/scatter/pkg/isolated"
	"github.com/nemanja-m/scatter/pkg/metrics"
)

var (
	cfgFile     string
	workers     int
	mode        string
	policy      string
	logLevel    string
	metricsFile string
)

var rootCmd = &cobra.Command{
	Use:   "scatter",
	Short: "Scatter a function call across workers and gather the results",
	Long: `scatter splits one argument of a call into partitions, runs the call on
each partition concurrently, either on goroutines or in isolated worker
processes, and reduces the partial results into one value.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 0, "worker count (0 uses the number of CPUs)")
	rootCmd.PersistentFlags().StringVar(&mode, "mode", "", "execution mode (shared, isolated)")
	rootCmd.PersistentFlags().StringVar(&policy, "policy", "", "success policy (expect_all, expect_any, super_lax)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "write Prometheus metrics to this file on exit")

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// app is everything a subcommand needs, built from the config file and the
// global flags.
type app struct {
	cfg      *config.EngineConfig
	logger   logging.Logger
	engine   *engine.Engine
	policy   core.SuccessPolicy
	registry *prometheus.Registry
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.LoadEngine(cfgFile)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("workers") {
		cfg.Engine.Workers = workers
	}
	if flags.Changed("mode") {
		cfg.Engine.Mode = mode
	}
	if flags.Changed("policy") {
		cfg.Engine.Policy = policy
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = logLevel
	}
	if flags.Changed("metrics-file") {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Textfile = metricsFile
	}

	logger, err := logging.New(cfg.Logging, os.Stderr)
	if err != nil {
		return nil, err
	}

	execMode, err := core.ParseMode(cfg.Engine.Mode)
	if err != nil {
		return nil, err
	}
	successPolicy, err := core.ParsePolicy(cfg.Engine.Policy)
	if err != nil {
		return nil, err
	}

	reg, err := newRegistry()
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, policy: successPolicy}

	var recorder metrics.Recorder = metrics.NewNopRecorder()
	if cfg.Metrics.Enabled {
		a.registry = prometheus.NewRegistry()
		prom, err := metrics.NewPrometheusRecorder(a.registry)
		if err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
		recorder = prom
	}

	a.engine = engine.NewEngine(engine.Config{
		Workers:  cfg.Engine.Workers,
		Mode:     execMode,
		Registry: reg,
		Logger:   logger,
		Metrics:  recorder,
		Isolated: isolated.Config{
			Executable: cfg.Isolated.Executable,
			EnvMarker:  cfg.Isolated.EnvMarker,
			Env:        workerEnv(cfg),
		},
	})
	return a, nil
}

// flushMetrics writes the collected metrics to the configured textfile.
func (a *app) flushMetrics() error {
	if a.registry == nil || a.cfg.Metrics.Textfile == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(a.cfg.Metrics.Textfile, a.registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	a.logger.Info("Metrics written", "path", a.cfg.Metrics.Textfile)
	return nil
}
