package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/EvanAranda/go-ext/di"
	"github.com/EvanAranda/go-ext/internal/ledger"
	"github.com/EvanAranda/go-ext/logx"
	"github.com/EvanAranda/go-ext/procpool"
)

// Daemon is the jobd runtime: a worker pool, a job ledger, an HTTP
// API, and cron-driven schedules.
type Daemon struct {
	Config  Config
	Pool    *procpool.Pool
	Ledger  *ledger.Store
	scope   *di.Scope
	log     *zap.Logger
	metrics *promMetrics

	// runIDs maps a live job id to its ledger run id until the
	// completion observer records the outcome.
	runIDs sync.Map
}

// poolResource exposes the worker pool as a scoped resource.
// Release always force-terminates; the pool has no graceful
// shutdown to offer.
func poolResource(opts procpool.Options) di.Resource[*procpool.Pool] {
	return di.Resource[*procpool.Pool]{
		Acquire: func(ctx context.Context) (*procpool.Pool, error) {
			return procpool.New(opts)
		},
		Release: func(p *procpool.Pool, _ error) error {
			p.Close()
			return nil
		},
	}
}

func ledgerResource(path string) di.Resource[*ledger.Store] {
	return di.Resource[*ledger.Store]{
		Acquire: func(ctx context.Context) (*ledger.Store, error) {
			return ledger.Open(path)
		},
		Release: func(s *ledger.Store, _ error) error {
			return s.Close()
		},
	}
}

// New builds a daemon from cfg: logging is configured, then the
// ledger and pool are acquired in a scope that Run (or Close) tears
// down in reverse.
func New(cfg Config) (*Daemon, error) {
	if err := logx.Setup(cfg.Logging); err != nil {
		return nil, err
	}

	d := &Daemon{
		Config:  cfg,
		scope:   di.NewScope(),
		log:     logx.Named("daemon"),
		metrics: newPromMetrics(),
	}

	ctx := context.Background()
	store, err := di.Acquire(ctx, d.scope, ledgerResource(cfg.Ledger.Path))
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	d.Ledger = store

	pool, err := di.Acquire(ctx, d.scope, poolResource(procpool.Options{
		Workers:         cfg.Pool.Workers,
		Logger:          logx.Named("procpool"),
		Metrics:         d.metrics,
		OnJobDone:       d.onJobDone,
		OnInternalError: d.onInternalError,
	}))
	if err != nil {
		d.scope.Close(err)
		return nil, fmt.Errorf("start pool: %w", err)
	}
	d.Pool = pool

	return d, nil
}

// Close releases the daemon's resources. The pool is killed, not
// drained.
func (d *Daemon) Close() error {
	return d.scope.Close(nil)
}

// Run serves the HTTP API and schedules until ctx is done or a
// SIGINT/SIGTERM arrives, then tears everything down.
func (d *Daemon) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched, err := d.startSchedules()
	if err != nil {
		d.scope.Close(err)
		return err
	}

	srv := &http.Server{
		Addr:    d.Config.API.Addr(),
		Handler: d.Handler(),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d.log.Info("api listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		sched.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	d.log.Info("shutting down")
	return errors.Join(err, d.scope.Close(err))
}

// Submit records the job in the ledger and dispatches it to the
// pool. The run id identifies the job across restarts; the handle
// is live only within this process.
func (d *Daemon) Submit(task string, args ...any) (string, *procpool.AsyncHandle, error) {
	h, err := d.Pool.Submit(task, args...)
	if err != nil {
		return "", nil, err
	}

	runID := uuid.NewString()
	d.runIDs.Store(h.JobID(), runID)
	if err := d.Ledger.RecordSubmitted(runID, h.JobID(), task, time.Now()); err != nil {
		d.log.Error("record submission", zap.String("run_id", runID), zap.Error(err))
	}
	return runID, h, nil
}

// onJobDone runs on a pool-internal goroutine for every delivered
// job, success or failure, and lands the outcome in the ledger.
func (d *Daemon) onJobDone(job *procpool.Job) {
	v, ok := d.runIDs.LoadAndDelete(job.ID)
	if !ok {
		return
	}
	runID := v.(string)
	if err := d.Ledger.RecordCompleted(runID, job); err != nil {
		d.log.Error("record completion", zap.String("run_id", runID), zap.Error(err))
	}
}

func (d *Daemon) onInternalError(err error) {
	d.log.Error("pool internal error", zap.Error(err))
}
