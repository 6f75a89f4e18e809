package procpool

import (
	"fmt"
	"sort"
	"sync"
)

// TaskFunc is the signature of a registered task. It runs inside a
// worker process; anything it mutates outside its arguments and
// return value is invisible to the submitter.
type TaskFunc func(args ...any) (any, error)

// registry maps task names to functions. Parent and worker children
// run the same binary, so registering before WorkerMain keeps both
// sides in sync.
type registry struct {
	mu    sync.RWMutex
	tasks map[string]TaskFunc
}

var defaultRegistry = &registry{tasks: make(map[string]TaskFunc)}

// Register adds a task function under name. Registering the same
// name twice is an error.
func Register(name string, fn TaskFunc) error {
	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()

	if _, exists := defaultRegistry.tasks[name]; exists {
		return fmt.Errorf("procpool: task %q already registered", name)
	}
	defaultRegistry.tasks[name] = fn
	return nil
}

// MustRegister is Register that panics on error. Intended for
// package init wiring.
func MustRegister(name string, fn TaskFunc) {
	if err := Register(name, fn); err != nil {
		panic(err)
	}
}

// Registered reports whether a task name is known.
func Registered(name string) bool {
	defaultRegistry.mu.RLock()
	defer defaultRegistry.mu.RUnlock()
	_, ok := defaultRegistry.tasks[name]
	return ok
}

// Tasks returns the registered task names, sorted.
func Tasks() []string {
	defaultRegistry.mu.RLock()
	defer defaultRegistry.mu.RUnlock()

	names := make([]string, 0, len(defaultRegistry.tasks))
	for name := range defaultRegistry.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lookupTask(name string) (TaskFunc, bool) {
	defaultRegistry.mu.RLock()
	defer defaultRegistry.mu.RUnlock()
	fn, ok := defaultRegistry.tasks[name]
	return fn, ok
}
