package procpool

import (
	"fmt"
	"time"
)

// JobStats records the timing of one unit of work.
//
// SubmittedAt is stamped once by Submit and never changes.
// StartedAt and FinishedAt are stamped by the worker entry point,
// each at most once, start before finish.
type JobStats struct {
	SubmittedAt time.Time
	StartedAt   *time.Time
	FinishedAt  *time.Time
}

// Elapsed returns the execution duration of the job.
//
// It is zero until both StartedAt and FinishedAt are set.
func (s *JobStats) Elapsed() time.Duration {
	if s == nil || s.StartedAt == nil || s.FinishedAt == nil {
		return 0
	}
	return s.FinishedAt.Sub(*s.StartedAt)
}

// Job is one serializable unit of work.
//
// The submitter keeps the copy it built at Submit time; the worker
// executes an independent copy decoded on the other side of the
// process boundary. Result and Err are populated only on the copy
// delivered back by the completion callback.
type Job struct {
	// ID is pool-scoped, unique, and strictly increasing in
	// submission order.
	ID int64

	// Task names a function in the task registry. Parent and worker
	// children must register the same names.
	Task string

	// Args are handed to the task function in order. They are gob
	// encoded across the process boundary; concrete types beyond the
	// predeclared set must be registered with RegisterType.
	Args []any

	// Stats must be populated before the job reaches a worker.
	Stats *JobStats

	Result any
	Err    error
}

// Name identifies the job for logging.
func (j *Job) Name() string { return j.Task }

func (j *Job) String() string {
	return fmt.Sprintf("job %d - %s", j.ID, j.Task)
}

// copy returns a shallow copy. The pool fails a copy, not the
// submitter's own object, when a job dies to a pool-level failure.
func (j *Job) copy() *Job {
	c := *j
	return &c
}

// JobFailedError wraps a failure together with the job that
// produced it. Job carries the state known at failure time.
type JobFailedError struct {
	Job   *Job
	Inner error
}

func (e *JobFailedError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Job, e.Inner)
}

func (e *JobFailedError) Unwrap() error { return e.Inner }
