package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nemanja-m/scatter/internal/shared/logging"
	"github.com/nemanja-m/scatter/pkg/core"
	"github.com/nemanja-m/scatter/pkg/isolated"
	"github.com/nemanja-m/scatter/pkg/jobs"
	"github.com/nemanja-m/scatter/pkg/local"
	"github.com/nemanja-m/scatter/pkg/metrics"
)

// Config holds engine-wide defaults. Zero values select NumCPU workers,
// shared mode, an empty registry and no-op observability.
type Config struct {
	Workers  int
	Mode     core.ExecutionMode
	Registry *jobs.Registry
	Logger   logging.Logger
	Metrics  metrics.Recorder
	Isolated isolated.Config
}

type Engine struct {
	config      Config
	dispatchers map[core.ExecutionMode]core.Dispatcher
}

func NewEngine(config Config) *Engine {
	if config.Mode == core.ModeDefault {
		config.Mode = core.ModeShared
	}
	if config.Registry == nil {
		config.Registry = jobs.NewRegistry()
	}
	if config.Logger == nil {
		config.Logger = logging.NewNopLogger()
	}
	if config.Metrics == nil {
		config.Metrics = metrics.NewNopRecorder()
	}

	return &Engine{
		config: config,
		dispatchers: map[core.ExecutionMode]core.Dispatcher{
			core.ModeShared:   local.NewDispatcher(),
			core.ModeIsolated: isolated.NewDispatcher(config.Isolated, config.Logger),
		},
	}
}

func (e *Engine) Registry() *jobs.Registry {
	return e.config.Registry
}

// Distribute validates task and returns a function with the signature of
// task.Func that scatters every call across workers and gathers the
// results.
func (e *Engine) Distribute(task core.TaskConfig) (core.Func, error) {
	resolved, err := e.resolve(task)
	if err != nil {
		return nil, err
	}
	return func(args core.Args) (any, error) {
		return e.invoke(resolved, args)
	}, nil
}

// Run performs a single distributed call of task.
func (e *Engine) Run(task core.TaskConfig, args core.Args) (any, error) {
	resolved, err := e.resolve(task)
	if err != nil {
		return nil, err
	}
	return e.invoke(resolved, args)
}

// Plan returns the bundles and pool size a call of task with args would
// use, without running anything.
func (e *Engine) Plan(task core.TaskConfig, args core.Args) ([]core.Args, int, error) {
	resolved, err := e.resolve(task)
	if err != nil {
		return nil, 0, err
	}
	return core.Plan(resolved, args)
}

func (e *Engine) resolve(task core.TaskConfig) (core.TaskConfig, error) {
	if err := task.Validate(); err != nil {
		return task, err
	}
	if task.Mode == core.ModeDefault {
		task.Mode = e.config.Mode
	}
	if task.NumWorkers <= 0 {
		task.NumWorkers = e.config.Workers
	}
	if task.Mode == core.ModeIsolated && !e.config.Registry.Has(task.Name) {
		return task, &core.ConfigurationError{
			Task:   task.Name,
			Reason: "isolated tasks must be registered so worker processes can resolve them",
		}
	}
	return task, nil
}

func (e *Engine) invoke(task core.TaskConfig, args core.Args) (any, error) {
	start := time.Now()
	invocationID := uuid.NewString()

	bundles, workers, err := core.Plan(task, args)
	if err != nil {
		return nil, err
	}

	e.config.Logger.Info("Dispatching task",
		"task", task.Name,
		"invocation_id", invocationID,
		"mode", task.Mode.String(),
		"bundles", len(bundles),
		"workers", workers,
	)
	e.config.Metrics.Invocation(task.Name, task.Mode.String(), len(bundles), workers)

	dispatcher, ok := e.dispatchers[task.Mode]
	if !ok {
		return nil, fmt.Errorf("no dispatcher for mode %s", task.Mode)
	}
	outcomes := dispatcher.Dispatch(task, bundles, workers)

	failures := 0
	for _, o := range outcomes {
		e.config.Metrics.Outcome(task.Name, o.Failed(), o.Elapsed)
		if o.Failed() {
			failures++
			e.config.Logger.Debug("Worker fault",
				"task", task.Name,
				"invocation_id", invocationID,
				"worker", o.Worker,
				"type", o.Fault.Type,
				"error", o.Fault.Message,
			)
		}
	}

	result, err := core.Aggregate(outcomes, task.Reducer, task.Policy)
	var failure *core.AggregatedFailure
	if errors.As(err, &failure) {
		failure.InvocationID = invocationID
	}
	elapsed := time.Since(start)
	e.config.Metrics.Completed(task.Name, task.Policy.String(), err, elapsed)

	if err != nil {
		e.config.Logger.Error("Task failed",
			"task", task.Name,
			"invocation_id", invocationID,
			"policy", task.Policy.String(),
			"failures", failures,
			"error", err,
		)
		return nil, err
	}
	if failures > 0 {
		e.config.Logger.Warn("Partial failure absorbed",
			"task", task.Name,
			"invocation_id", invocationID,
			"policy", task.Policy.String(),
			"failures", failures,
		)
	}

	e.config.Logger.Info("Task completed",
		"task", task.Name,
		"invocation_id", invocationID,
		"successes", len(outcomes)-failures,
		"failures", failures,
		"elapsed", elapsed,
	)
	return result, nil
}
