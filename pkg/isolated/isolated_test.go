package isolated

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nemanja-m/scatter/internal/shared/logging"
	"github.com/nemanja-m/scatter/pkg/core"
	"github.com/nemanja-m/scatter/pkg/jobs"
)

type opaque struct {
	N int
}

// The test binary doubles as the worker executable.
func TestMain(m *testing.M) {
	if IsWorker() {
		Main(testRegistry(), logging.NewNopLogger())
	}
	os.Exit(m.Run())
}

func testRegistry() *jobs.Registry {
	reg := jobs.NewRegistry()
	reg.MustRegister("double", func(args core.Args) (any, error) {
		n, err := args.IntAt(0)
		if err != nil {
			return nil, err
		}
		return n * 2, nil
	})
	reg.MustRegister("fail", func(core.Args) (any, error) {
		return nil, errors.New("bad input")
	})
	reg.MustRegister("exit_on_zero", func(args core.Args) (any, error) {
		n, err := args.IntAt(0)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			os.Exit(3)
		}
		return n, nil
	})
	reg.MustRegister("chatty", func(core.Args) (any, error) {
		fmt.Println("noise on stdout")
		return "ok", nil
	})
	reg.MustRegister("opaque", func(core.Args) (any, error) {
		return opaque{N: 1}, nil
	})
	reg.MustRegister("pid", func(core.Args) (any, error) {
		return os.Getpid(), nil
	})
	return reg
}

func bundlesOf(values ...any) []core.Args {
	bundles := make([]core.Args, len(values))
	for i, v := range values {
		bundles[i] = core.NewArgs(v)
	}
	return bundles
}

func newTestDispatcher() *Dispatcher {
	return NewDispatcher(Config{Stderr: io.Discard}, logging.NewNopLogger())
}

func TestReadFrame_Truncated(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, Request{Seq: 7, Task: "double", Args: core.NewArgs(21)}))

	var req Request
	err := ReadFrame(bytes.NewReader(buf.Bytes()[:buf.Len()-1]), &req)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)

	err = ReadFrame(bytes.NewReader(nil), &req)
	require.ErrorIs(t, err, io.EOF)
}

func TestWriteFrame_UnregisteredType(t *testing.T) {
	var buf bytes.Buffer
	err := WriteFrame(&buf, Request{Task: "double", Args: core.NewArgs(opaque{N: 1})})
	require.ErrorIs(t, err, ErrEncode)
	require.Zero(t, buf.Len())
}

func TestServe(t *testing.T) {
	var in bytes.Buffer
	requests := []Request{
		{Seq: 0, Task: "double", Args: core.NewArgs(21)},
		{Seq: 1, Task: "fail"},
		{Seq: 2, Task: "missing"},
		{Seq: 3, Task: "opaque"},
		{Seq: 4, Task: "double", Args: core.NewArgs([]any{"x"})},
	}
	for _, req := range requests {
		require.NoError(t, WriteFrame(&in, req))
	}

	var out bytes.Buffer
	require.NoError(t, Serve(testRegistry(), &in, &out, logging.NewNopLogger()))

	var responses []Response
	for {
		var resp Response
		err := ReadFrame(&out, &resp)
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		responses = append(responses, resp)
	}
	require.Len(t, responses, len(requests))

	require.Equal(t, uint64(0), responses[0].Seq)
	require.False(t, responses[0].Outcome.Failed())
	require.Equal(t, 42, responses[0].Outcome.Value)

	require.Equal(t, "bad input", responses[1].Outcome.Fault.Message)
	require.Equal(t, "fail", responses[1].Outcome.Fault.Function)

	require.Equal(t, "UnknownTask", responses[2].Outcome.Fault.Type)

	require.Equal(t, "EncodeError", responses[3].Outcome.Fault.Type)

	require.True(t, responses[4].Outcome.Failed())
	require.Equal(t, core.NewArgs([]any{"x"}), responses[4].Outcome.Fault.Inputs)
}

func TestDispatcher_Dispatch(t *testing.T) {
	task := core.TaskConfig{Name: "double"}
	outcomes := newTestDispatcher().Dispatch(task, bundlesOf(1, 2, 3, 4), 2)
	require.Len(t, outcomes, 4)

	var values []int
	for _, o := range outcomes {
		require.False(t, o.Failed(), "unexpected fault: %v", o.Fault)
		require.False(t, strings.HasPrefix(o.Worker, fmt.Sprintf("%d/", os.Getpid())))
		values = append(values, o.Value.(int))
	}
	slices.Sort(values)
	require.Equal(t, []int{2, 4, 6, 8}, values)
}

func TestDispatcher_ReusesProcessPerSlot(t *testing.T) {
	task := core.TaskConfig{Name: "pid"}
	outcomes := newTestDispatcher().Dispatch(task, bundlesOf(1, 2, 3, 4, 5, 6, 7, 8), 2)
	require.Len(t, outcomes, 8)

	pids := map[int]bool{}
	for _, o := range outcomes {
		require.False(t, o.Failed())
		pids[o.Value.(int)] = true
	}
	require.LessOrEqual(t, len(pids), 2)
	require.NotContains(t, pids, os.Getpid())
}

func TestDispatcher_FaultsTravelBack(t *testing.T) {
	outcomes := newTestDispatcher().Dispatch(core.TaskConfig{Name: "fail"}, bundlesOf(1), 1)
	require.Len(t, outcomes, 1)

	fault := outcomes[0].Fault
	require.NotNil(t, fault)
	require.Equal(t, "bad input", fault.Message)
	require.Equal(t, core.NewArgs(1), fault.Inputs)
	require.NotEqual(t, os.Getpid(), fault.PID)
	require.NotEmpty(t, fault.Trace)
}

func TestDispatcher_CrashIsContained(t *testing.T) {
	task := core.TaskConfig{Name: "exit_on_zero"}
	outcomes := newTestDispatcher().Dispatch(task, bundlesOf(0, 1, 2, 3), 1)
	require.Len(t, outcomes, 4)

	var crashes, values int
	for _, o := range outcomes {
		if o.Failed() {
			require.Equal(t, "WorkerCrash", o.Fault.Type)
			require.Equal(t, core.NewArgs(0), o.Fault.Inputs)
			crashes++
			continue
		}
		values += o.Value.(int)
	}
	require.Equal(t, 1, crashes)
	require.Equal(t, 6, values)
}

func TestDispatcher_StdoutNoiseIsHarmless(t *testing.T) {
	outcomes := newTestDispatcher().Dispatch(core.TaskConfig{Name: "chatty"}, bundlesOf(1, 2), 1)
	require.Len(t, outcomes, 2)
	for _, o := range outcomes {
		require.False(t, o.Failed())
		require.Equal(t, "ok", o.Value)
	}
}

func TestDispatcher_UnencodableArguments(t *testing.T) {
	outcomes := newTestDispatcher().Dispatch(core.TaskConfig{Name: "double"}, bundlesOf(opaque{N: 1}, 5), 1)
	require.Len(t, outcomes, 2)

	var encodeErrors int
	for _, o := range outcomes {
		if o.Failed() {
			require.Equal(t, "EncodeError", o.Fault.Type)
			encodeErrors++
			continue
		}
		require.Equal(t, 10, o.Value)
	}
	require.Equal(t, 1, encodeErrors)
}

func TestDispatcher_MissingExecutable(t *testing.T) {
	d := NewDispatcher(Config{
		Executable: filepath.Join(t.TempDir(), "missing"),
		Stderr:     io.Discard,
	}, logging.NewNopLogger())

	outcomes := d.Dispatch(core.TaskConfig{Name: "double"}, bundlesOf(1, 2), 2)
	require.Len(t, outcomes, 2)
	for _, o := range outcomes {
		require.True(t, o.Failed())
		require.Equal(t, "WorkerStartError", o.Fault.Type)
	}
}
