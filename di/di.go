// Package di provides minimal building blocks for wiring object
// graphs: factory combinators for transient and singleton values,
// and a Resource capability for values with scoped setup/teardown.
//
// There is no reflection and no container. Factories close over
// their dependencies; a Scope tracks acquired resources and
// disposes them in reverse order on close.
package di

import (
	"context"
	"sync"

	"go.uber.org/multierr"
)

// Factory produces a value of T. A Factory may be called any number
// of times; combinators below control how often the underlying
// constructor actually runs.
type Factory[T any] func() (T, error)

// Value returns a Factory that always yields v.
func Value[T any](v T) Factory[T] {
	return func() (T, error) { return v, nil }
}

// Transient returns a Factory that runs the constructor on every
// resolve. It is the identity combinator, named for symmetry with
// Singleton.
func Transient[T any](f Factory[T]) Factory[T] {
	return f
}

// Singleton returns a Factory that runs the constructor once and
// caches the value (and its error). Safe for concurrent use.
func Singleton[T any](f Factory[T]) Factory[T] {
	var (
		once sync.Once
		v    T
		err  error
	)
	return func() (T, error) {
		once.Do(func() { v, err = f() })
		return v, err
	}
}

// Resource describes a value with scoped setup and teardown.
// Release receives the scope's outcome error so a disposer can
// distinguish clean exit from failure.
type Resource[T any] struct {
	Acquire func(ctx context.Context) (T, error)
	Release func(v T, outcome error) error
}

// Disposer tears one acquired resource down.
type Disposer func(outcome error) error

// Setup acquires the resource and returns it with its disposer.
func (r Resource[T]) Setup(ctx context.Context) (T, Disposer, error) {
	v, err := r.Acquire(ctx)
	if err != nil {
		var zero T
		return zero, nil, err
	}
	dispose := func(outcome error) error {
		if r.Release == nil {
			return nil
		}
		return r.Release(v, outcome)
	}
	return v, dispose, nil
}

// Scope tracks acquired resources and disposes them in reverse
// acquisition order.
type Scope struct {
	mu        sync.Mutex
	disposers []Disposer
	closed    bool
}

// NewScope returns an empty scope.
func NewScope() *Scope { return &Scope{} }

// Acquire sets the resource up inside the scope. The scope's Close
// will dispose it after every resource acquired later.
func Acquire[T any](ctx context.Context, s *Scope, r Resource[T]) (T, error) {
	v, dispose, err := r.Setup(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	s.mu.Lock()
	s.disposers = append(s.disposers, dispose)
	s.mu.Unlock()
	return v, nil
}

// Close disposes every acquired resource in reverse order, passing
// outcome to each disposer, and returns the release errors
// aggregated. Subsequent calls are no-ops.
func (s *Scope) Close(outcome error) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	disposers := s.disposers
	s.disposers = nil
	s.mu.Unlock()

	var err error
	for i := len(disposers) - 1; i >= 0; i-- {
		err = multierr.Append(err, disposers[i](outcome))
	}
	return err
}
