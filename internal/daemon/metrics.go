package daemon

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/EvanAranda/go-ext/procpool"
)

// Prometheus metrics for the pool, exposed on /metrics.

var jobsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "goext",
	Name:      "jobs_submitted_total",
	Help:      "Total jobs submitted to the worker pool.",
})

var jobsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "goext",
	Name:      "jobs_completed_total",
	Help:      "Total jobs delivered, by outcome.",
}, []string{"outcome"})

var jobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "goext",
	Name:      "job_duration_seconds",
	Help:      "Job execution duration in seconds.",
	Buckets:   prometheus.DefBuckets,
}, []string{"outcome"})

var workerRestarts = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "goext",
	Name:      "worker_restarts_total",
	Help:      "Total worker process respawns.",
})

var queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "goext",
	Name:      "queue_depth",
	Help:      "Jobs waiting for a worker.",
})

// promMetrics implements procpool.Metrics on top of the package's
// Prometheus collectors. The pool's own AtomicMetrics is kept
// alongside for cheap /api/status reads.
type promMetrics struct {
	atomics *procpool.AtomicMetrics
}

func newPromMetrics() *promMetrics {
	return &promMetrics{atomics: &procpool.AtomicMetrics{}}
}

func (m *promMetrics) IncSubmitted() {
	m.atomics.IncSubmitted()
	jobsSubmitted.Inc()
}

func (m *promMetrics) IncCompleted(outcome procpool.Outcome, elapsed time.Duration) {
	m.atomics.IncCompleted(outcome, elapsed)
	jobsCompleted.WithLabelValues(string(outcome)).Inc()
	jobDuration.WithLabelValues(string(outcome)).Observe(elapsed.Seconds())
}

func (m *promMetrics) IncWorkerRestarts() {
	m.atomics.IncWorkerRestarts()
	workerRestarts.Inc()
}

func (m *promMetrics) SetQueueDepth(n int64) {
	m.atomics.SetQueueDepth(n)
	queueDepth.Set(float64(n))
}
