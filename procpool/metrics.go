package procpool

import (
	"sync/atomic"
	"time"
)

// Outcome classifies a delivered job for metrics purposes.
type Outcome string

const (
	// OutcomeOK means the task ran and returned a result.
	OutcomeOK Outcome = "ok"

	// OutcomeUserError means the task returned an error or panicked.
	OutcomeUserError Outcome = "user_error"

	// OutcomePoolError means the pool machinery failed the job
	// (worker crash, codec failure).
	OutcomePoolError Outcome = "pool_error"
)

// Metrics defines hooks used by the pool to report submission,
// completion, and worker lifecycle activity.
//
// Implementations must be safe for concurrent use.
// All methods are expected to be lightweight and non-blocking.
type Metrics interface {

	// IncSubmitted increments the submitted jobs counter.
	IncSubmitted()

	// IncCompleted increments the completed jobs counter for the
	// given outcome. elapsed is the job's execution duration; zero
	// when the job never ran.
	IncCompleted(outcome Outcome, elapsed time.Duration)

	// IncWorkerRestarts increments the worker respawn counter.
	IncWorkerRestarts()

	// SetQueueDepth records the current dispatch queue length.
	SetQueueDepth(n int64)
}

// AtomicMetrics is a lock-free Metrics implementation backed by
// atomics.
//
// Writes are optimized for hot paths.
// Reads are intended for cold-path observation.
type AtomicMetrics struct {
	submitted atomic.Uint64

	_ [56]byte // padding to avoid false sharing

	completedOK        atomic.Uint64
	completedUserError atomic.Uint64
	completedPoolError atomic.Uint64
	workerRestarts     atomic.Uint64
	queueDepth         atomic.Int64
}

// Submitted returns the total number of submitted jobs.
func (m *AtomicMetrics) Submitted() uint64 { return m.submitted.Load() }

// Completed returns the total number of jobs delivered with the
// given outcome.
func (m *AtomicMetrics) Completed(outcome Outcome) uint64 {
	switch outcome {
	case OutcomeOK:
		return m.completedOK.Load()
	case OutcomeUserError:
		return m.completedUserError.Load()
	case OutcomePoolError:
		return m.completedPoolError.Load()
	}
	return 0
}

// WorkerRestarts returns the total number of worker respawns.
func (m *AtomicMetrics) WorkerRestarts() uint64 { return m.workerRestarts.Load() }

// QueueDepth returns the last recorded dispatch queue length.
func (m *AtomicMetrics) QueueDepth() int64 { return m.queueDepth.Load() }

func (m *AtomicMetrics) IncSubmitted() { m.submitted.Add(1) }

func (m *AtomicMetrics) IncCompleted(outcome Outcome, _ time.Duration) {
	switch outcome {
	case OutcomeOK:
		m.completedOK.Add(1)
	case OutcomeUserError:
		m.completedUserError.Add(1)
	case OutcomePoolError:
		m.completedPoolError.Add(1)
	}
}

func (m *AtomicMetrics) IncWorkerRestarts() { m.workerRestarts.Add(1) }

func (m *AtomicMetrics) SetQueueDepth(n int64) { m.queueDepth.Store(n) }

//------------- NoopMetrics ----------------------------------

// NoopMetrics is a Metrics implementation that discards all metric
// updates. It is the default when Options.Metrics is unset.
type NoopMetrics struct{}

func (NoopMetrics) IncSubmitted()                          {}
func (NoopMetrics) IncCompleted(Outcome, time.Duration)    {}
func (NoopMetrics) IncWorkerRestarts()                     {}
func (NoopMetrics) SetQueueDepth(int64)                    {}
