// Package debounce implements trailing-edge call coalescing: each
// call resets a timer, and only the last call within the wait
// window actually fires.
package debounce

import (
	"sync"
	"time"
)

// Debouncer coalesces calls to a no-argument function. Safe for
// concurrent use.
type Debouncer struct {
	mu    sync.Mutex
	wait  time.Duration
	fn    func()
	timer *time.Timer
}

// New returns a debouncer that fires fn once no Call has arrived
// for wait.
func New(wait time.Duration, fn func()) *Debouncer {
	return &Debouncer{wait: wait, fn: fn}
}

// Call schedules fn after the wait window, cancelling any pending
// schedule. fn runs on a timer goroutine.
func (d *Debouncer) Call() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.wait, d.fn)
}

// Stop cancels any pending fire. It does not wait for a running fn
// to return.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Of is a Debouncer that forwards the most recent argument to fn:
// last call wins, arguments included.
type Of[T any] struct {
	mu    sync.Mutex
	wait  time.Duration
	fn    func(T)
	arg   T
	timer *time.Timer
}

// NewOf returns a debouncer for a single-argument function.
func NewOf[T any](wait time.Duration, fn func(T)) *Of[T] {
	return &Of[T]{wait: wait, fn: fn}
}

// Call schedules fn(v) after the wait window. A later Call replaces
// both the schedule and the argument.
func (d *Of[T]) Call(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.arg = v
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.wait, func() {
		d.mu.Lock()
		arg := d.arg
		d.mu.Unlock()
		d.fn(arg)
	})
}

// Stop cancels any pending fire.
func (d *Of[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
