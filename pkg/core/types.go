package core

import (
	"fmt"
	"strings"
	"time"
)

// Func is a task body. Every distributed task has this shape so that the
// wrapped function can be called exactly like the original one.
type Func func(args Args) (any, error)

// Divider splits the value of the divisible argument into at most parts
// disjoint sub-values that together reconstitute the original value.
type Divider func(value any, parts int) ([]any, error)

// Reducer merges the values returned by successful workers.
type Reducer func(values []any) (any, error)

type SuccessPolicy int

const (
	// ExpectAll succeeds only if every bundle succeeds.
	ExpectAll SuccessPolicy = iota
	// ExpectAny succeeds if at least one bundle succeeds or nothing failed.
	ExpectAny
	// SuperLax never fails, whatever the workers did.
	SuperLax
)

func (p SuccessPolicy) String() string {
	switch p {
	case ExpectAll:
		return "expect_all"
	case ExpectAny:
		return "expect_any"
	case SuperLax:
		return "super_lax"
	}
	return fmt.Sprintf("SuccessPolicy(%d)", int(p))
}

func ParsePolicy(s string) (SuccessPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "expect_all", "all":
		return ExpectAll, nil
	case "expect_any", "any":
		return ExpectAny, nil
	case "super_lax", "lax":
		return SuperLax, nil
	}
	return 0, fmt.Errorf("unknown success policy: %s", s)
}

type ExecutionMode int

const (
	// ModeDefault defers to the engine's configured mode.
	ModeDefault ExecutionMode = iota
	// ModeShared runs bundles on goroutines of the calling process.
	ModeShared
	// ModeIsolated runs bundles in child processes with their own memory.
	ModeIsolated
)

func (m ExecutionMode) String() string {
	switch m {
	case ModeDefault:
		return "default"
	case ModeShared:
		return "shared"
	case ModeIsolated:
		return "isolated"
	}
	return fmt.Sprintf("ExecutionMode(%d)", int(m))
}

func ParseMode(s string) (ExecutionMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default":
		return ModeDefault, nil
	case "shared", "threads", "in_process":
		return ModeShared, nil
	case "isolated", "processes":
		return ModeIsolated, nil
	}
	return 0, fmt.Errorf("unknown execution mode: %s", s)
}

type PartitionMode int

const (
	// Inferred picks the mode from the rest of the config: Undivided without
	// a mapped argument, Chunked with a divider, ElementWise otherwise.
	Inferred PartitionMode = iota
	// Undivided runs the call once with its original arguments, even when a
	// mapped argument is set.
	Undivided
	// Chunked hands the divisible value to a Divider and runs one bundle per chunk.
	Chunked
	// ElementWise runs one bundle per element of the divisible value. Each
	// bundle receives a single element, not a one-element slice.
	ElementWise
)

func (m PartitionMode) String() string {
	switch m {
	case Inferred:
		return "inferred"
	case Undivided:
		return "undivided"
	case Chunked:
		return "chunked"
	case ElementWise:
		return "elementwise"
	}
	return fmt.Sprintf("PartitionMode(%d)", int(m))
}

// TaskConfig describes how a function is scattered and gathered. It is
// fixed when the task is distributed and read-only afterwards.
type TaskConfig struct {
	Name       string
	Func       Func
	MappedArg  *Binding
	Partition  PartitionMode
	Divider    Divider
	Reducer    Reducer
	NumWorkers int
	Policy     SuccessPolicy
	Mode       ExecutionMode
}

// Validate checks the configuration and resolves an Inferred partition mode.
// An explicit mode is never rewritten.
func (c *TaskConfig) Validate() error {
	if c.Name == "" {
		return configErrorf("", "task name must be specified")
	}
	if c.Func == nil {
		return configErrorf(c.Name, "task function must be specified")
	}
	if c.Policy < ExpectAll || c.Policy > SuperLax {
		return configErrorf(c.Name, "invalid success policy %s", c.Policy)
	}
	if c.Mode < ModeDefault || c.Mode > ModeIsolated {
		return configErrorf(c.Name, "invalid execution mode %s", c.Mode)
	}
	if c.Partition < Inferred || c.Partition > ElementWise {
		return configErrorf(c.Name, "invalid partition mode %s", c.Partition)
	}

	if c.Partition == Inferred {
		switch {
		case c.MappedArg == nil:
			c.Partition = Undivided
		case c.Divider != nil:
			c.Partition = Chunked
		default:
			c.Partition = ElementWise
		}
	}

	switch c.Partition {
	case Chunked:
		if c.Divider == nil {
			return configErrorf(c.Name, "chunked partitioning requires a divider")
		}
	default:
		if c.Divider != nil {
			return configErrorf(c.Name, "divider is only used with chunked partitioning, got %s", c.Partition)
		}
	}

	if c.Partition != Undivided {
		if c.MappedArg == nil {
			return configErrorf(c.Name, "%s partitioning requires a mapped argument", c.Partition)
		}
		if c.MappedArg.Position < 0 && c.MappedArg.Key == "" {
			return configErrorf(c.Name, "mapped argument %q has neither a position nor a key", c.MappedArg.Name)
		}
	}
	return nil
}

// Outcome is what a single worker produced for one bundle.
type Outcome struct {
	Value   any
	Fault   *WorkerFault
	Worker  string
	Elapsed time.Duration
}

func (o Outcome) Failed() bool {
	return o.Fault != nil
}

// Dispatcher runs every bundle on a pool of at most workers units and blocks
// until all of them have completed. Outcomes are in completion order.
type Dispatcher interface {
	Dispatch(task TaskConfig, bundles []Args, workers int) []Outcome
}
