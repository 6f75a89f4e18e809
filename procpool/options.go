package procpool

import (
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/EvanAranda/go-ext/logx"
)

const (
	defaultRespawnInitial = 200 * time.Millisecond
	defaultRespawnMax     = 5 * time.Second
)

// Options configure a worker Pool.
//
// All zero values are replaced with sensible defaults in FillDefaults.
type Options struct {
	// Workers is the number of worker processes to spawn.
	// Defaults to runtime.GOMAXPROCS(0).
	Workers int

	// Logger receives the pool's lifecycle and per-job debug lines.
	Logger *zap.Logger

	// Metrics receives submission and completion activity.
	// Defaults to NoopMetrics.
	Metrics Metrics

	// OnJobDone observes every delivered job after its handle's
	// callbacks have run. The job is the post-execution copy; a
	// non-nil Err marks a failed job. Runs on a pool-internal
	// goroutine.
	OnJobDone func(*Job)

	// OnInternalError receives pool-internal failures such as a
	// worker process dying. Runs on a pool-internal goroutine.
	OnInternalError func(error)

	// RespawnInitial and RespawnMax bound the exponential backoff
	// between respawns of a crashing worker process.
	RespawnInitial time.Duration
	RespawnMax     time.Duration
}

func (o *Options) FillDefaults() {
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if o.Logger == nil {
		o.Logger = logx.Named("procpool")
	}
	if o.Metrics == nil {
		o.Metrics = NoopMetrics{}
	}
	if o.RespawnInitial <= 0 {
		o.RespawnInitial = defaultRespawnInitial
	}
	if o.RespawnMax <= 0 {
		o.RespawnMax = defaultRespawnMax
	}
}
