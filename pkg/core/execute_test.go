package core

import (
	stderrors "errors"
	"os"
	"runtime"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type validationError struct {
	field string
}

func (e *validationError) Error() string {
	return "invalid " + e.field
}

func TestExecute_Success(t *testing.T) {
	out := Execute("double", func(args Args) (any, error) {
		n, err := args.IntAt(0)
		return n * 2, err
	}, NewArgs(21), "1/0")

	require.False(t, out.Failed())
	require.Equal(t, 42, out.Value)
	require.Equal(t, "1/0", out.Worker)
}

func TestExecute_Error(t *testing.T) {
	args := NewArgs("input")
	out := Execute("task", func(Args) (any, error) {
		return "partial", stderrors.New("failed")
	}, args, "1/2")

	require.True(t, out.Failed())
	require.Nil(t, out.Value)
	require.Equal(t, "*errors.errorString", out.Fault.Type)
	require.Equal(t, "failed", out.Fault.Message)
	require.Equal(t, "task", out.Fault.Function)
	require.Equal(t, args, out.Fault.Inputs)
	require.Equal(t, "1/2", out.Fault.Worker)
	require.Equal(t, os.Getpid(), out.Fault.PID)
	require.NotEmpty(t, out.Fault.Trace)
}

func TestExecute_StackCarryingError(t *testing.T) {
	out := Execute("task", func(Args) (any, error) {
		return nil, errors.Wrap(&validationError{field: "text"}, "parse")
	}, NewArgs(), "w")

	require.True(t, out.Failed())
	require.Equal(t, "*core.validationError", out.Fault.Type)
	require.Equal(t, "parse: invalid text", out.Fault.Message)
	require.True(t, strings.Contains(strings.Join(out.Fault.Trace, "\n"), "TestExecute_StackCarryingError"))
}

func TestExecute_Panic(t *testing.T) {
	tests := []struct {
		name     string
		fn       Func
		wantType string
		wantMsg  string
	}{
		{
			name:     "string panic",
			fn:       func(Args) (any, error) { panic("boom") },
			wantType: "panic(string)",
			wantMsg:  "boom",
		},
		{
			name:     "error panic",
			fn:       func(Args) (any, error) { panic(&validationError{field: "x"}) },
			wantType: "panic(*core.validationError)",
			wantMsg:  "invalid x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out Outcome
			require.NotPanics(t, func() {
				out = Execute("task", tt.fn, NewArgs(), "w")
			})
			require.True(t, out.Failed())
			require.Equal(t, tt.wantType, out.Fault.Type)
			require.Equal(t, tt.wantMsg, out.Fault.Message)
			require.NotEmpty(t, out.Fault.Trace)
			require.Equal(t, "task", out.Fault.Function)
		})
	}
}

func TestExecute_Goexit(t *testing.T) {
	args := NewArgs(2)
	var out Outcome
	require.NotPanics(t, func() {
		out = Execute("quit", func(Args) (any, error) {
			runtime.Goexit()
			return 1, nil
		}, args, "w")
	})

	require.True(t, out.Failed())
	require.Nil(t, out.Value)
	require.Equal(t, "Goexit", out.Fault.Type)
	require.Equal(t, "quit", out.Fault.Function)
	require.Equal(t, args, out.Fault.Inputs)
	require.Equal(t, "w", out.Fault.Worker)
}
