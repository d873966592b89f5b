package isolated

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/nemanja-m/scatter/internal/shared/logging"
	"github.com/nemanja-m/scatter/pkg/core"
	"github.com/nemanja-m/scatter/pkg/jobs"
	"github.com/nemanja-m/scatter/pkg/local"
)

// Serve answers requests read from r until r is closed. Each request runs
// the named task from reg; faults travel back as part of the response.
// Serve returns nil when the parent closes the stream between requests.
func Serve(reg *jobs.Registry, r io.Reader, w io.Writer, logger logging.Logger) error {
	var (
		in     = bufio.NewReader(r)
		out    = bufio.NewWriter(w)
		pid    = os.Getpid()
		worker = local.WorkerID(pid, workerSlot())
	)

	logger.Debug("Worker started", "worker", worker, "tasks", reg.List())

	for {
		var req Request
		if err := ReadFrame(in, &req); err != nil {
			if errors.Is(err, io.EOF) {
				logger.Debug("Worker input closed", "worker", worker)
				return nil
			}
			return fmt.Errorf("read request: %w", err)
		}

		resp := Response{Seq: req.Seq, Outcome: run(reg, req, worker)}
		err := WriteFrame(out, resp)
		if errors.Is(err, ErrEncode) {
			logger.Warn("Result not transferable", "worker", worker, "task", req.Task, "error", err)
			resp.Outcome = core.Outcome{
				Worker:  worker,
				Elapsed: resp.Outcome.Elapsed,
				Fault:   newFault("EncodeError", err.Error(), req.Task, req.Args, worker, pid),
			}
			err = WriteFrame(out, resp)
		}
		if err != nil {
			return fmt.Errorf("write response: %w", err)
		}
		if err := out.Flush(); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
	}
}

func run(reg *jobs.Registry, req Request, worker string) core.Outcome {
	fn, err := reg.Get(req.Task)
	if err != nil {
		return core.Outcome{
			Worker: worker,
			Fault:  newFault("UnknownTask", err.Error(), req.Task, req.Args, worker, os.Getpid()),
		}
	}
	return core.Execute(req.Task, fn, req.Args, worker)
}

// Main serves as a worker on stdin and stdout and exits. Anything the tasks
// print to os.Stdout is redirected to stderr so it cannot corrupt the
// response stream.
func Main(reg *jobs.Registry, logger logging.Logger) {
	stdout := os.Stdout
	os.Stdout = os.Stderr

	if err := Serve(reg, os.Stdin, stdout, logger); err != nil {
		logger.Error("Worker stopped", "error", err)
		os.Exit(1)
	}
	os.Exit(0)
}

func workerSlot() int {
	slot, err := strconv.Atoi(os.Getenv(slotEnv))
	if err != nil {
		return 0
	}
	return slot
}

func newFault(kind, msg, task string, args core.Args, worker string, pid int) *core.WorkerFault {
	return &core.WorkerFault{
		Type:     kind,
		Message:  msg,
		Function: task,
		Inputs:   args,
		Worker:   worker,
		PID:      pid,
	}
}
