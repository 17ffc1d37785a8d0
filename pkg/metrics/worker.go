package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// WorkerMetrics records outcomes of worker cycles and per-record processing.
type WorkerMetrics struct {
	cycleDuration *prometheus.HistogramVec
	processed     *prometheus.CounterVec
}

// NewWorkerMetrics registers the worker metrics on the provided registerer.
func NewWorkerMetrics(reg prometheus.Registerer) *WorkerMetrics {
	if reg == nil {
		return &WorkerMetrics{}
	}
	cycleDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "worker_cycle_duration_seconds",
		Help:    "Duration of worker cycles in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	processed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "worker_records_total",
		Help: "Question events processed by terminal outcome.",
	}, []string{"job", "outcome"})
	reg.MustRegister(cycleDuration, processed)
	return &WorkerMetrics{
		cycleDuration: cycleDuration,
		processed:     processed,
	}
}

// ObserveCycle records the duration for the named job's cycle.
func (w *WorkerMetrics) ObserveCycle(job string, duration time.Duration) {
	if w == nil || w.cycleDuration == nil {
		return
	}
	w.cycleDuration.WithLabelValues(normalizeLabel(job)).Observe(duration.Seconds())
}

// IncDone increments the DONE outcome counter for the named job.
func (w *WorkerMetrics) IncDone(job string) {
	w.incOutcome(job, "done")
}

// IncFailed increments the FAILED outcome counter for the named job.
func (w *WorkerMetrics) IncFailed(job string) {
	w.incOutcome(job, "failed")
}

func (w *WorkerMetrics) incOutcome(job, outcome string) {
	if w == nil || w.processed == nil {
		return
	}
	w.processed.WithLabelValues(normalizeLabel(job), outcome).Inc()
}

func normalizeLabel(job string) string {
	if job == "" {
		return "unknown"
	}
	return job
}
