package main

import (
	"github.com/nemanja-m/scatter/pkg/isolated"
)

func main() {
	// Re-executed worker processes never reach the command line parser.
	if isolated.IsWorkerFor(workerMarker()) {
		serveWorker()
	}
	Execute()
}
