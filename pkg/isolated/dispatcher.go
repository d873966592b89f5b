package isolated

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nemanja-m/scatter/internal/shared/logging"
	"github.com/nemanja-m/scatter/pkg/core"
	"github.com/nemanja-m/scatter/pkg/local"
)

// Dispatcher runs bundles in child processes, one long-lived process per
// pool slot. Arguments and results cross the process boundary encoded, so
// every concrete type inside them must be registered with RegisterType.
type Dispatcher struct {
	cfg    Config
	logger logging.Logger
}

func NewDispatcher(cfg Config, logger logging.Logger) *Dispatcher {
	return &Dispatcher{cfg: cfg, logger: logger}
}

func (d *Dispatcher) Dispatch(task core.TaskConfig, bundles []core.Args, workers int) []core.Outcome {
	var (
		mu       sync.Mutex
		outcomes = make([]core.Outcome, 0, len(bundles))
	)

	cfg, err := d.cfg.withDefaults()
	if err != nil {
		for _, bundle := range bundles {
			outcomes = append(outcomes, transportOutcome("WorkerStartError", err, task.Name, bundle, "", 0))
		}
		return outcomes
	}

	pool := local.NewPool(workers)
	// Each slot only touches its own entry.
	procs := make([]*process, pool.Size())

	pool.Start()
	for i, bundle := range bundles {
		req := Request{Seq: uint64(i), Task: task.Name, Args: bundle}
		pool.Submit(func(slot int) {
			out := d.call(cfg, procs, slot, req)
			mu.Lock()
			outcomes = append(outcomes, out)
			mu.Unlock()
		})
	}
	pool.Close()

	for _, p := range procs {
		if p == nil {
			continue
		}
		if err := p.Close(); err != nil {
			d.logger.Warn("Worker process exited", "pid", p.PID(), "error", err)
			continue
		}
		d.logger.Debug("Worker process exited", "pid", p.PID())
	}
	return outcomes
}

func (d *Dispatcher) call(cfg Config, procs []*process, slot int, req Request) core.Outcome {
	start := time.Now()

	p := procs[slot]
	if p == nil {
		started, err := startProcess(cfg, slot)
		if err != nil {
			d.logger.Error("Failed to start worker", "slot", slot, "error", err)
			return transportOutcome("WorkerStartError", err, req.Task, req.Args, local.WorkerID(0, slot), 0)
		}
		d.logger.Debug("Spawned worker process", "slot", slot, "pid", started.PID())
		procs[slot] = started
		p = started
	}

	worker := local.WorkerID(p.PID(), slot)
	out, err := p.Call(req)
	switch {
	case err == nil:
		return out
	case errors.Is(err, ErrEncode):
		d.logger.Warn("Arguments not transferable", "task", req.Task, "worker", worker, "error", err)
		out = transportOutcome("EncodeError", err, req.Task, req.Args, worker, p.PID())
	default:
		exitErr := p.Kill()
		procs[slot] = nil
		d.logger.Error("Worker crashed", "task", req.Task, "worker", worker, "error", err, "exit", exitErr)
		if exitErr != nil {
			err = fmt.Errorf("%w (%v)", err, exitErr)
		}
		out = transportOutcome("WorkerCrash", err, req.Task, req.Args, worker, p.PID())
	}
	out.Elapsed = time.Since(start)
	return out
}

func transportOutcome(kind string, err error, task string, args core.Args, worker string, pid int) core.Outcome {
	return core.Outcome{
		Worker: worker,
		Fault:  newFault(kind, err.Error(), task, args, worker, pid),
	}
}
