package jobs

import (
	"fmt"
	"slices"
	"sync"

	"github.com/nemanja-m/scatter/pkg/core"
)

// Registry maps task names to functions. Isolated workers resolve the task
// of each request here, so the parent and its child processes must build
// the same registry.
type Registry struct {
	mu    sync.RWMutex
	tasks map[string]core.Func
}

func NewRegistry() *Registry {
	return &Registry{tasks: make(map[string]core.Func)}
}

func (r *Registry) Register(name string, fn core.Func) error {
	if name == "" {
		return fmt.Errorf("task name must not be empty")
	}
	if fn == nil {
		return fmt.Errorf("task function must not be nil: %s", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tasks[name]; exists {
		return fmt.Errorf("task already registered: %s", name)
	}
	r.tasks[name] = fn
	return nil
}

func (r *Registry) MustRegister(name string, fn core.Func) {
	if err := r.Register(name, fn); err != nil {
		panic(err)
	}
}

func (r *Registry) Get(name string) (core.Func, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, exists := r.tasks[name]
	if !exists {
		return nil, fmt.Errorf("task not found: %s", name)
	}
	return fn, nil
}

func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.tasks[name]
	return exists
}

func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tasks))
	for name := range r.tasks {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
