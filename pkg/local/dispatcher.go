package local

import (
	"fmt"
	"os"
	"sync"

	"github.com/nemanja-m/scatter/pkg/core"
)

// Dispatcher runs bundles on goroutines of the current process. Bundles
// share the address space, so nothing is copied or encoded.
type Dispatcher struct{}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

func (d *Dispatcher) Dispatch(task core.TaskConfig, bundles []core.Args, workers int) []core.Outcome {
	var (
		mu       sync.Mutex
		outcomes = make([]core.Outcome, 0, len(bundles))
		pid      = os.Getpid()
	)

	pool := NewPool(workers)
	pool.Start()
	for _, bundle := range bundles {
		pool.Submit(func(worker int) {
			out := core.Execute(task.Name, task.Func, bundle, WorkerID(pid, worker))
			mu.Lock()
			outcomes = append(outcomes, out)
			mu.Unlock()
		})
	}
	pool.Close()

	return outcomes
}

func WorkerID(pid, slot int) string {
	return fmt.Sprintf("%d/%d", pid, slot)
}
