package core

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
)

// ConfigurationError is returned before any work is dispatched when a task
// or its divisible argument cannot be resolved.
type ConfigurationError struct {
	Task   string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Task == "" {
		return "configuration error: " + e.Reason
	}
	return fmt.Sprintf("configuration error in task %s: %s", e.Task, e.Reason)
}

func configErrorf(task, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Task: task, Reason: fmt.Sprintf(format, args...)}
}

// WorkerFault describes a failure captured while a worker ran one bundle.
// It carries enough to rerun the failing bundle on its own.
type WorkerFault struct {
	Type     string   `json:"type"`
	Message  string   `json:"value"`
	Trace    []string `json:"tb"`
	Function string   `json:"function"`
	Inputs   Args     `json:"function_inputs"`
	Worker   string   `json:"worker"`
	PID      int      `json:"pid"`
}

func (f *WorkerFault) Error() string {
	return fmt.Sprintf("%s failed on worker %s: %s: %s", f.Function, f.Worker, f.Type, f.Message)
}

// AggregatedFailure is returned when the success policy rejects the
// outcomes of an invocation. It lists every captured fault. InvocationID,
// when set, matches the invocation_id of the engine's log events.
type AggregatedFailure struct {
	Faults       []*WorkerFault
	InvocationID string
}

func (e *AggregatedFailure) Error() string {
	var sb strings.Builder
	rendered, err := sonic.MarshalIndent(e.Faults, "", "    ")
	if err == nil {
		sb.Write(rendered)
	} else {
		// Inputs may hold values JSON cannot represent.
		for i, f := range e.Faults {
			if i > 0 {
				sb.WriteByte('\n')
			}
			sb.WriteString(f.Error())
		}
	}
	fmt.Fprintf(&sb, "\n%d workers raised faults", len(e.Faults))
	if e.InvocationID != "" {
		fmt.Fprintf(&sb, " in invocation %s", e.InvocationID)
	}
	return sb.String()
}

func (e *AggregatedFailure) Unwrap() []error {
	errs := make([]error, len(e.Faults))
	for i, f := range e.Faults {
		errs[i] = f
	}
	return errs
}
