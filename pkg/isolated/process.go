package isolated

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"

	"github.com/nemanja-m/scatter/pkg/core"
)

// process is the parent's handle on one worker. It is used by a single
// pool slot at a time.
type process struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	in     *bufio.Writer
	out    *bufio.Reader
	slot   int
	exited bool
}

func startProcess(cfg Config, slot int) (*process, error) {
	cmd := exec.Command(cfg.Executable, cfg.Args...)
	cmd.Env = append(os.Environ(), cfg.EnvMarker+"=1", slotEnv+"="+strconv.Itoa(slot))
	cmd.Env = append(cmd.Env, cfg.Env...)
	cmd.Stderr = cfg.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open worker stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open worker stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start worker: %w", err)
	}

	return &process{
		cmd:   cmd,
		stdin: stdin,
		in:    bufio.NewWriter(stdin),
		out:   bufio.NewReader(stdout),
		slot:  slot,
	}, nil
}

func (p *process) PID() int {
	return p.cmd.Process.Pid
}

// Call sends one request and waits for its response. An error wrapping
// ErrEncode leaves the process usable; any other error means the worker
// is gone or out of sync and must be killed.
func (p *process) Call(req Request) (core.Outcome, error) {
	if err := WriteFrame(p.in, req); err != nil {
		return core.Outcome{}, err
	}
	if err := p.in.Flush(); err != nil {
		return core.Outcome{}, fmt.Errorf("send request: %w", err)
	}

	var resp Response
	if err := ReadFrame(p.out, &resp); err != nil {
		return core.Outcome{}, fmt.Errorf("receive response: %w", err)
	}
	if resp.Seq != req.Seq {
		return core.Outcome{}, fmt.Errorf("response %d does not match request %d", resp.Seq, req.Seq)
	}
	return resp.Outcome, nil
}

// Close ends the worker's input and waits for it to exit.
func (p *process) Close() error {
	if p.exited {
		return nil
	}
	p.exited = true
	p.stdin.Close()
	return p.cmd.Wait()
}

// Kill stops the worker and returns how it exited.
func (p *process) Kill() error {
	if p.exited {
		return nil
	}
	p.exited = true
	p.stdin.Close()
	_ = p.cmd.Process.Kill()
	return p.cmd.Wait()
}
