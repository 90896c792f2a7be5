package stack

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records orchestrator activity.
type Metrics struct {
	operations     *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	destroyRetries *prometheus.CounterVec
}

// NewMetrics creates the orchestrator metrics and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "safehaven",
				Subsystem: "stack",
				Name:      "operations_total",
				Help:      "Total number of backend operations by step and result",
			},
			[]string{"stack", "step", "result"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "safehaven",
				Subsystem: "stack",
				Name:      "operation_duration_seconds",
				Help:      "Duration of backend operations in seconds",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~68min
			},
			[]string{"step"},
		),
		destroyRetries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "safehaven",
				Subsystem: "stack",
				Name:      "destroy_retries_total",
				Help:      "Total number of destroy retries caused by transient conflicts",
			},
			[]string{"stack"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.operations, m.duration, m.destroyRetries)
	}
	return m
}

func (m *Metrics) observe(stack string, step Step, result string, started time.Time) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(stack, string(step), result).Inc()
	m.duration.WithLabelValues(string(step)).Observe(time.Since(started).Seconds())
}

func (m *Metrics) destroyRetry(stack string) {
	if m == nil {
		return
	}
	m.destroyRetries.WithLabelValues(stack).Inc()
}
