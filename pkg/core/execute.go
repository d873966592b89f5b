package core

import (
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/pkg/errors"
)

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// Execute runs fn with args on behalf of worker and turns whatever goes
// wrong, returned error, panic or runtime.Goexit, into a fault. It never
// panics itself and always returns.
func Execute(task string, fn Func, args Args, worker string) Outcome {
	result := make(chan Outcome, 1)
	go run(task, fn, args, worker, result)
	return <-result
}

// run sends exactly one outcome on result. fn runs on its own goroutine so
// that a Goexit ends only that goroutine, not the caller's.
func run(task string, fn Func, args Args, worker string, result chan<- Outcome) {
	start := time.Now()
	out := Outcome{Worker: worker}
	returned := false

	defer func() {
		if r := recover(); r != nil {
			out.Value = nil
			out.Fault = &WorkerFault{
				Type:    fmt.Sprintf("panic(%T)", r),
				Message: fmt.Sprint(r),
				Trace:   splitTrace(string(debug.Stack())),
			}
		} else if !returned {
			out.Value = nil
			out.Fault = &WorkerFault{
				Type:    "Goexit",
				Message: "task called runtime.Goexit before returning",
				Trace:   splitTrace(string(debug.Stack())),
			}
		}
		if out.Fault != nil {
			out.Fault.Function = task
			out.Fault.Inputs = args
			out.Fault.Worker = worker
			out.Fault.PID = os.Getpid()
		}
		out.Elapsed = time.Since(start)
		result <- out
	}()

	value, err := fn(args)
	returned = true
	if err != nil {
		out.Fault = faultFromError(err)
		return
	}
	out.Value = value
}

func faultFromError(err error) *WorkerFault {
	fault := &WorkerFault{
		Type:    fmt.Sprintf("%T", errors.Cause(err)),
		Message: err.Error(),
	}

	var st stackTracer
	if errors.As(err, &st) {
		fault.Trace = splitTrace(fmt.Sprintf("%+v", st.StackTrace()))
	} else {
		fault.Trace = splitTrace(string(debug.Stack()))
	}
	return fault
}

func splitTrace(s string) []string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return lines
}
