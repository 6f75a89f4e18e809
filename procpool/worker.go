package procpool

import (
	"fmt"
	"io"
	"os"
	"time"
)

// workerEnvVar marks a process as a pool worker child. The pool
// sets it when re-execing the host binary; WorkerMain checks it.
const workerEnvVar = "GOEXT_PROCPOOL_WORKER"

// EvaluateJob is the worker entry point. It stamps StartedAt, runs
// the job's task with its args, and records the outcome on the job:
// Result on success, a JobFailedError in Err on task error or
// panic. It never propagates the failure itself — FinishedAt is
// stamped unconditionally and the mutated job is returned either
// way. A job arriving without stats fails the precondition and is
// returned unstarted.
func EvaluateJob(job *Job) *Job {
	if job.Stats == nil {
		job.Err = &JobFailedError{Job: job, Inner: ErrStatsMissing}
		return job
	}

	started := time.Now()
	job.Stats.StartedAt = &started
	defer func() {
		finished := time.Now()
		job.Stats.FinishedAt = &finished
	}()

	fn, ok := lookupTask(job.Task)
	if !ok {
		job.Err = &JobFailedError{Job: job, Inner: fmt.Errorf("%w: %q", ErrUnknownTask, job.Task)}
		return job
	}

	result, err := runTask(fn, job.Args)
	if err != nil {
		job.Err = &JobFailedError{Job: job, Inner: err}
		return job
	}
	job.Result = result
	return job
}

// runTask invokes fn with panic recovery so a panicking task takes
// down neither the worker loop nor, transitively, the pool.
func runTask(fn TaskFunc, args []any) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return fn(args...)
}

// WorkerMain turns the current process into a pool worker when it
// was spawned as one. Hosts must call it first thing in main, after
// task registration:
//
//	func main() {
//		tasks.RegisterAll()
//		procpool.WorkerMain()
//		// normal program follows
//	}
//
// In the parent it returns false immediately. In a worker child it
// runs the job loop until the parent closes the pipe, then exits
// the process; it never returns.
func WorkerMain() bool {
	if os.Getenv(workerEnvVar) == "" {
		return false
	}

	// Stdout is the reply channel to the parent. Point the global
	// at stderr so a task that prints cannot corrupt the stream.
	out := os.Stdout
	os.Stdout = os.Stderr

	workerLoop(os.Stdin, out)
	os.Exit(0)
	return true
}

// workerLoop decodes jobs, evaluates them, and encodes the mutated
// copies back, until the input stream ends.
func workerLoop(r io.Reader, w io.Writer) {
	codec := newJobCodec(r, w)
	for {
		job, err := codec.read()
		if err != nil {
			if err != io.EOF {
				fmt.Fprintf(os.Stderr, "procpool worker: decode: %v\n", err)
			}
			return
		}
		if err := codec.write(EvaluateJob(job)); err != nil {
			fmt.Fprintf(os.Stderr, "procpool worker: encode: %v\n", err)
			return
		}
	}
}
