// Package procpool dispatches units of work to a fixed pool of
// isolated worker OS processes.
//
// Design goals
//
// The package is designed around the following principles:
//
//   - Full process isolation: a job cannot corrupt the submitter's
//     address space, leak memory into it, or take it down by crashing
//   - Non-blocking submission: Submit returns a handle immediately
//   - Two completion flavors: a blocking Join and a cooperative
//     Await that suspends only the calling goroutine
//   - Fail-fast teardown: Close kills outstanding work instead of
//     draining it
//
// Architecture overview
//
// The pool is composed of three loosely coupled layers:
//
//  1. Submission (Pool.Submit)
//     Allocates a job id, stamps submission stats, creates the
//     handle, and enqueues the job. Never blocks on worker
//     availability; the internal queue is unbounded.
//
//  2. Dispatch (dispatcher goroutine + per-worker loops)
//     A single dispatcher goroutine feeds queued jobs to idle
//     workers. Each worker process is driven by its own loop
//     goroutine that encodes the job onto the child's stdin, reads
//     the completed job back from its stdout, and fires the
//     handle's completion callbacks. Completion callbacks therefore
//     run on a pool-internal goroutine, never on the submitter's.
//
//  3. Execution (worker child processes)
//     The pool re-execs the host binary with a marker environment
//     variable. Hosts must call WorkerMain first thing in main; in a
//     child it runs the job loop and never returns. Task functions
//     are referenced by registered name so that parent and child
//     share the same registry.
//
// Job identity across the process boundary
//
// A job crosses into the worker by value (gob serialization). The
// submitter keeps its pre-execution copy; the completion callback
// delivers a fresh, independently mutated copy. Mutations performed
// by the worker are visible only through that delivered copy.
//
// Error handling
//
// The pool distinguishes between two classes of errors:
//
//   - Job errors: the task function returned an error or panicked.
//     The worker records them on the job and returns normally; the
//     handle surfaces them from Join and Await.
//   - Pool errors: codec failures, worker crashes, and other
//     failures of the machinery itself. They reject the handle via
//     the failure callback and are reported to OnInternalError.
//
// A worker process that dies is respawned with capped exponential
// backoff; the job it was running fails rather than hanging.
//
// Teardown
//
// Close terminates the pool immediately: worker processes are
// killed, not drained. Handles still unresolved at that point never
// complete — Join on such a handle blocks forever and Await returns
// only when its context does. Callers must join or await every
// handle they care about before closing the pool.
package procpool
