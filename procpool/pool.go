package procpool

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	boff "github.com/Andrej220/go-utils/backoff"
	"go.uber.org/zap"
)

// pending pairs a queued job with the handle waiting on it.
type pending struct {
	job *Job
	h   completer
}

// Pool dispatches jobs to a fixed set of worker processes.
//
// A pool moves through two states only: open (accepting Submit
// calls) and closed (Close ran, workers killed). There is no
// draining state; see the package documentation on teardown.
type Pool struct {
	opts Options
	log  *zap.Logger
	exe  string

	jobID  atomic.Int64
	queued atomic.Int64

	submitCh chan *pending
	workCh   chan *pending

	mu      sync.Mutex
	workers map[int]*workerProc

	closed   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a pool and spawns its worker processes. The host
// binary must call WorkerMain at the top of main for the spawned
// children to become workers.
func New(opts Options) (*Pool, error) {
	opts.FillDefaults()

	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("procpool: locate executable: %w", err)
	}

	p := &Pool{
		opts:     opts,
		log:      opts.Logger,
		exe:      exe,
		submitCh: make(chan *pending, 64),
		workCh:   make(chan *pending),
		workers:  make(map[int]*workerProc, opts.Workers),
		closed:   make(chan struct{}),
	}

	for i := 0; i < opts.Workers; i++ {
		w, err := spawnWorker(exe, i)
		if err != nil {
			for _, running := range p.workers {
				running.kill()
			}
			return nil, fmt.Errorf("procpool: spawn worker %d: %w", i, err)
		}
		p.workers[i] = w
	}

	p.wg.Add(1)
	go p.dispatch()
	for i := 0; i < opts.Workers; i++ {
		p.wg.Add(1)
		go p.workerLoop(i)
	}

	p.log.Debug("worker pool created", zap.Int("workers", opts.Workers))
	return p, nil
}

// Submit allocates the next job id, stamps submission stats, and
// enqueues the job for dispatch. It returns the handle immediately;
// it never waits for a worker. The task name must be registered and
// the pool open.
func (p *Pool) Submit(task string, args ...any) (*AsyncHandle, error) {
	select {
	case <-p.closed:
		return nil, ErrPoolClosed
	default:
	}
	if !Registered(task) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTask, task)
	}

	job := &Job{
		ID:    p.jobID.Add(1),
		Task:  task,
		Args:  args,
		Stats: &JobStats{SubmittedAt: time.Now()},
	}
	h := newAsyncHandle(job, p.log)
	h.wire(newFuture())

	p.log.Debug("submitting job",
		zap.Int64("job_id", job.ID),
		zap.String("task", job.Task),
	)
	p.opts.Metrics.IncSubmitted()

	select {
	case p.submitCh <- &pending{job: job, h: h}:
		return h, nil
	case <-p.closed:
		return nil, ErrPoolClosed
	}
}

// Close forcibly terminates the pool: worker processes are killed
// immediately and in-flight jobs are destroyed, not drained. Any
// handle still unresolved never completes. Safe to call more than
// once.
func (p *Pool) Close() {
	p.stopOnce.Do(func() {
		close(p.closed)
		p.mu.Lock()
		for _, w := range p.workers {
			w.kill()
		}
		p.mu.Unlock()
	})
	p.wg.Wait()
	p.log.Debug("worker pool terminated")
}

// Workers returns the configured worker process count.
func (p *Pool) Workers() int { return p.opts.Workers }

// QueueDepth returns the number of jobs waiting for a worker.
func (p *Pool) QueueDepth() int64 { return p.queued.Load() }

// dispatch moves jobs from the submit channel through the unbounded
// FIFO to idle workers. It is the only goroutine touching the
// queue.
func (p *Pool) dispatch() {
	defer p.wg.Done()
	queue := newFifoQueue()
	for {
		var workCh chan *pending
		head := queue.Peek()
		if head != nil {
			workCh = p.workCh
		}
		select {
		case <-p.closed:
			return
		case pend := <-p.submitCh:
			queue.Push(pend)
			p.recordQueueDepth(queue.Len())
		case workCh <- head:
			queue.Pop()
			p.recordQueueDepth(queue.Len())
		}
	}
}

func (p *Pool) recordQueueDepth(n int) {
	p.queued.Store(int64(n))
	p.opts.Metrics.SetQueueDepth(int64(n))
}

// workerLoop drives one worker process: it takes the next job from
// the dispatcher, round-trips it through the child, and fires the
// handle's completion callbacks. Callbacks therefore run on this
// goroutine, never on the submitter's.
func (p *Pool) workerLoop(id int) {
	defer p.wg.Done()
	for {
		select {
		case <-p.closed:
			return
		case pend := <-p.workCh:
			p.execute(id, pend)
		}
	}
}

func (p *Pool) execute(id int, pend *pending) {
	w := p.worker(id)
	if w == nil {
		// Close won the race after dispatch handed us the job.
		return
	}

	if err := w.codec.write(pend.job); err != nil {
		p.handleWorkerFailure(id, w, pend, fmt.Errorf("send job: %w", err))
		return
	}
	reply, err := w.codec.read()
	if err != nil {
		p.handleWorkerFailure(id, w, pend, fmt.Errorf("read reply: %w", err))
		return
	}
	p.deliver(pend, reply)
}

// deliver completes the handle with the worker's copy of the job.
// Jobs whose task failed arrive here too: the worker records the
// failure on the job instead of raising it, so the success path is
// where user errors surface.
func (p *Pool) deliver(pend *pending, reply *Job) {
	outcome := OutcomeOK
	if reply.Err != nil {
		outcome = OutcomeUserError
	}
	pend.h.complete(reply)
	p.opts.Metrics.IncCompleted(outcome, reply.Stats.Elapsed())
	p.notifyJobDone(reply)
}

// handleWorkerFailure rejects the in-flight job with a pool-level
// failure and respawns the worker. During Close the job is dropped
// instead: its handle stays unresolved, per the teardown contract.
func (p *Pool) handleWorkerFailure(id int, w *workerProc, pend *pending, cause error) {
	w.kill()

	select {
	case <-p.closed:
		return
	default:
	}

	err := fmt.Errorf("procpool: worker %d failed during %s: %w", id, pend.job, cause)
	if tail := w.stderrTail(); tail != "" {
		err = fmt.Errorf("%w\nworker stderr:\n%s", err, tail)
	}
	p.reportInternalError(err)

	failed := pend.job.copy()
	failed.Err = &JobFailedError{Job: failed, Inner: err}
	pend.h.fail(failed.Err)
	p.opts.Metrics.IncCompleted(OutcomePoolError, 0)
	p.notifyJobDone(failed)

	p.respawn(id)
}

// respawn replaces a dead worker process, backing off exponentially
// between attempts. Gives up only when the pool closes.
func (p *Pool) respawn(id int) {
	bo := boff.New(p.opts.RespawnInitial, p.opts.RespawnMax, time.Now().UnixNano())
	for {
		timer := time.NewTimer(bo.Next())
		select {
		case <-p.closed:
			timer.Stop()
			return
		case <-timer.C:
		}

		w, err := spawnWorker(p.exe, id)
		if err != nil {
			p.reportInternalError(fmt.Errorf("procpool: respawn worker %d: %w", id, err))
			continue
		}

		p.mu.Lock()
		if p.isClosed() {
			p.mu.Unlock()
			w.kill()
			return
		}
		p.workers[id] = w
		p.mu.Unlock()

		p.opts.Metrics.IncWorkerRestarts()
		p.log.Debug("worker respawned", zap.Int("worker", id))
		return
	}
}

func (p *Pool) worker(id int) *workerProc {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.workers[id]
}

func (p *Pool) isClosed() bool {
	select {
	case <-p.closed:
		return true
	default:
		return false
	}
}
