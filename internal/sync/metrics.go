// ABOUTME: Prometheus metrics for sync operations.
// ABOUTME: Counts outcomes per operation and records operation latency.
package sync

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	resultSuccess = "success"
	resultError   = "error"
	resultBusy    = "busy"
)

// Metrics holds the sync collectors. A nil *Metrics records nothing.
type Metrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them on reg when it is
// not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "habits",
				Subsystem: "sync",
				Name:      "operations_total",
				Help:      "Sync operations by operation and result.",
			},
			[]string{"op", "result"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "habits",
				Subsystem: "sync",
				Name:      "duration_seconds",
				Help:      "Latency of completed sync operations.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"op"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.operations, m.duration)
	}
	return m
}

func (m *Metrics) observe(op, result string, d time.Duration) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(op, result).Inc()
	if result != resultBusy {
		m.duration.WithLabelValues(op).Observe(d.Seconds())
	}
}
