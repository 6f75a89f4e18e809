package procpool

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// future is a single-assignment completion cell. Closing done is
// the thread-safe handoff between the pool's notification goroutine
// and whoever is blocked in Join or suspended in Await.
type future struct {
	done   chan struct{}
	once   sync.Once
	result any
	err    error
}

func newFuture() *future {
	return &future{done: make(chan struct{})}
}

func (f *future) settle(result any, err error) {
	f.once.Do(func() {
		f.result = result
		f.err = err
		close(f.done)
	})
}

// completer is the capability the pool needs from a handle: settle
// it with a completed job copy or reject it with a pool failure.
// Both handle flavors implement it; the pool never cares which.
type completer interface {
	complete(job *Job)
	fail(err error)
}

// Handle is the blocking observer of one submitted job.
//
// The handle holds the submitter's copy of the job until the
// completion callback swaps in the copy mutated by the worker.
type Handle struct {
	mu   sync.Mutex
	job  *Job
	task *future // nil until Submit wires the dispatch
	log  *zap.Logger
}

func newHandle(job *Job, log *zap.Logger) *Handle {
	return &Handle{job: job, log: log}
}

// JobID is stable for the lifetime of the handle.
func (h *Handle) JobID() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.job.ID
}

// Stats returns the job's timing record. Before completion it holds
// only the submission timestamp; the completed copy carries start
// and finish. Fails with ErrNotSubmitted when the job never went
// through Submit.
func (h *Handle) Stats() (*JobStats, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.job.Stats == nil {
		return nil, ErrNotSubmitted
	}
	return h.job.Stats, nil
}

// Join blocks the calling goroutine until the pool delivers this
// job's outcome, then returns the result or the surfaced error.
//
// If the pool is closed while the job is still outstanding, Join
// blocks forever; see the package documentation on teardown.
func (h *Handle) Join() (any, error) {
	h.mu.Lock()
	task := h.task
	h.mu.Unlock()
	if task == nil {
		return nil, ErrNotSubmitted
	}
	<-task.done
	return task.result, task.err
}

func (h *Handle) String() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return "(handle) " + h.job.String()
}

func (h *Handle) wire(task *future) {
	h.mu.Lock()
	h.task = task
	h.mu.Unlock()
}

// complete is invoked by the pool's notification goroutine with the
// post-execution copy of the job. The worker entry point records
// task failures on the job instead of re-raising them, so failed
// jobs arrive here too; the job's own Err decides how the future
// settles.
func (h *Handle) complete(job *Job) {
	h.mu.Lock()
	h.job = job
	task := h.task
	log := h.log
	h.mu.Unlock()

	log.Debug("job finished",
		zap.Int64("job_id", job.ID),
		zap.String("task", job.Task),
		zap.Duration("elapsed", job.Stats.Elapsed()),
	)

	if task == nil {
		return
	}
	if job.Err != nil {
		task.settle(nil, job.Err)
		return
	}
	task.settle(job.Result, nil)
}

// fail is invoked by the pool's notification goroutine for failures
// of the pool machinery itself. The error must be a *JobFailedError;
// anything else is a contract violation and gets wrapped so the
// waiter still resolves.
func (h *Handle) fail(err error) {
	var jfe *JobFailedError
	if !errors.As(err, &jfe) {
		h.mu.Lock()
		job := h.job
		h.mu.Unlock()
		jfe = &JobFailedError{
			Job:   job,
			Inner: fmt.Errorf("procpool: unexpected error type %T: %w", err, err),
		}
	}

	h.mu.Lock()
	h.job = jfe.Job
	task := h.task
	log := h.log
	h.mu.Unlock()

	log.Debug("job failed",
		zap.Int64("job_id", jfe.Job.ID),
		zap.String("task", jfe.Job.Task),
		zap.Duration("elapsed", jfe.Job.Stats.Elapsed()),
		zap.Error(jfe.Inner),
	)

	if task == nil {
		return
	}
	task.settle(nil, jfe.Inner)
}

// AsyncHandle is the awaitable flavor of Handle. It adds a
// select-able completion channel and a context-aware Await on top
// of the shared completion cell, so awaiting suspends only the
// calling goroutine.
type AsyncHandle struct {
	*Handle
}

func newAsyncHandle(job *Job, log *zap.Logger) *AsyncHandle {
	return &AsyncHandle{Handle: newHandle(job, log)}
}

// Done returns a channel closed when the job's outcome is
// delivered. It never closes for a job orphaned by Close. Before
// submission wiring it returns nil, which blocks forever in a
// select; use Await to get the precondition error instead.
func (h *AsyncHandle) Done() <-chan struct{} {
	h.mu.Lock()
	task := h.task
	h.mu.Unlock()
	if task == nil {
		return nil
	}
	return task.done
}

// Await suspends the calling goroutine until the job completes or
// ctx is done, whichever comes first. Sibling goroutines keep
// running; nothing is blocked at the OS level.
func (h *AsyncHandle) Await(ctx context.Context) (any, error) {
	h.mu.Lock()
	task := h.task
	h.mu.Unlock()
	if task == nil {
		return nil, ErrNotSubmitted
	}
	select {
	case <-task.done:
		return task.result, task.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
