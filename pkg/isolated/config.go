package isolated

import (
	"io"
	"os"
)

// DefaultEnvMarker is the environment variable that tells a re-executed
// binary to serve as a worker instead of running its normal main.
const DefaultEnvMarker = "SCATTER_WORKER"

// slotEnv carries the pool slot a worker process serves.
const slotEnv = "SCATTER_WORKER_SLOT"

type Config struct {
	// Executable defaults to the running binary.
	Executable string
	// Args are passed to every worker process.
	Args []string
	// Env is appended to the parent's environment.
	Env []string
	// EnvMarker defaults to DefaultEnvMarker.
	EnvMarker string
	// Stderr receives worker diagnostics. Defaults to os.Stderr.
	Stderr io.Writer
}

func (c Config) withDefaults() (Config, error) {
	if c.EnvMarker == "" {
		c.EnvMarker = DefaultEnvMarker
	}
	if c.Stderr == nil {
		c.Stderr = os.Stderr
	}
	if c.Executable == "" {
		exe, err := os.Executable()
		if err != nil {
			return c, err
		}
		c.Executable = exe
	}
	return c, nil
}

// IsWorker reports whether the process was started as a worker under the
// default marker.
func IsWorker() bool {
	return IsWorkerFor(DefaultEnvMarker)
}

func IsWorkerFor(marker string) bool {
	return os.Getenv(marker) == "1"
}

