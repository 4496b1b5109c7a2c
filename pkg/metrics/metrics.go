package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// EngineMetrics records outcomes of reconciliation operations.
type EngineMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
	retries  *prometheus.CounterVec
}

// NewEngineMetrics registers the engine metrics on the provided registerer.
func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	if reg == nil {
		return &EngineMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "engine_op_duration_seconds",
		Help:    "Duration of reconciliation operations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "engine_op_success",
		Help: "Successful reconciliation operations.",
	}, []string{"op"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "engine_op_failure",
		Help: "Failed reconciliation operations.",
	}, []string{"op", "code"})
	retries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "engine_op_retries",
		Help: "Optimistic-concurrency retries during reconciliation operations.",
	}, []string{"op"})
	reg.MustRegister(duration, success, failure, retries)
	return &EngineMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
		retries:  retries,
	}
}

// ObserveDuration records the duration for the named operation.
func (e *EngineMetrics) ObserveDuration(op string, duration time.Duration) {
	if e == nil || e.duration == nil {
		return
	}
	e.duration.WithLabelValues(normalizeLabel(op)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named operation.
func (e *EngineMetrics) IncSuccess(op string) {
	if e == nil || e.success == nil {
		return
	}
	e.success.WithLabelValues(normalizeLabel(op)).Inc()
}

// IncFailure increments the failure counter for the named operation and
// error code.
func (e *EngineMetrics) IncFailure(op, code string) {
	if e == nil || e.failure == nil {
		return
	}
	e.failure.WithLabelValues(normalizeLabel(op), normalizeLabel(code)).Inc()
}

// IncRetry increments the retry counter for the named operation.
func (e *EngineMetrics) IncRetry(op string) {
	if e == nil || e.retries == nil {
		return
	}
	e.retries.WithLabelValues(normalizeLabel(op)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
