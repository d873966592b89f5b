package local

import "sync"

// Task is a unit of work. It receives the slot of the pool worker running
// it, in [0, Size()).
type Task func(worker int)

type Pool struct {
	numWorkers int
	tasks      chan Task
	once       sync.Once
	wg         sync.WaitGroup
}

func NewPool(numWorkers int) *Pool {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	return &Pool{
		numWorkers: numWorkers,
		tasks:      make(chan Task, numWorkers),
	}
}

func (p *Pool) Size() int {
	return p.numWorkers
}

func (p *Pool) Start() {
	p.once.Do(func() {
		for worker := range p.numWorkers {
			p.spawn(worker)
		}
	})
}

// spawn starts the worker for slot. A worker whose task ends its goroutine
// with runtime.Goexit is replaced so the slot keeps draining tasks.
func (p *Pool) spawn(worker int) {
	p.wg.Add(1)
	go func() {
		drained := false
		defer func() {
			if !drained {
				p.spawn(worker)
			}
			p.wg.Done()
		}()
		for task := range p.tasks {
			if task != nil {
				task(worker)
			}
		}
		drained = true
	}()
}

func (p *Pool) Submit(task Task) {
	p.tasks <- task
}

// Close stops accepting tasks and waits for the submitted ones to finish.
func (p *Pool) Close() {
	close(p.tasks)
	p.wg.Wait()
}
