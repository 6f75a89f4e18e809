package procpool

import "errors"

var (
	// ErrPoolClosed is returned by Submit after Close.
	ErrPoolClosed = errors.New("procpool: pool closed")

	// ErrNotSubmitted is returned when a handle's stats or outcome
	// are requested before the job went through Submit.
	ErrNotSubmitted = errors.New("procpool: job was not properly submitted to worker pool")

	// ErrStatsMissing is recorded on a job that reached the worker
	// entry point without submission stats.
	ErrStatsMissing = errors.New("procpool: job has no stats; not properly submitted")

	// ErrUnknownTask is returned by Submit (and recorded by workers)
	// for a task name absent from the registry.
	ErrUnknownTask = errors.New("procpool: unknown task")
)

// reportInternalError reports a non-job-bound pool failure, such as
// a worker process dying or a codec breakdown.
// If no handler is registered, the error is silently ignored.
func (p *Pool) reportInternalError(err error) {
	if p.opts.OnInternalError != nil {
		p.opts.OnInternalError(err)
	}
}

// notifyJobDone fires the completion observer hook, if any.
// The hook receives the post-execution copy of the job after the
// handle's own callbacks have run.
func (p *Pool) notifyJobDone(job *Job) {
	if p.opts.OnJobDone != nil {
		p.opts.OnJobDone(job)
	}
}
