package server

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/runebook/runebook/internal/sandbox"
)

// Metrics holds the server's Prometheus collectors.
type Metrics struct {
	Registry *prometheus.Registry

	ExecutionsTotal    *prometheus.CounterVec
	ExecutionsRejected prometheus.Counter
	ExecutionDuration  prometheus.Histogram
	ExecutionsInFlight prometheus.Gauge
}

// NewMetrics builds a registry with the execution collectors registered.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		ExecutionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "runebook",
			Name:      "executions_total",
			Help:      "Completed sandbox executions by terminal status.",
		}, []string{"status"}),
		ExecutionsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "runebook",
			Name:      "executions_rejected_total",
			Help:      "Submissions refused because no worker slot freed up in time.",
		}),
		ExecutionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "runebook",
			Name:      "execution_duration_seconds",
			Help:      "Wall-clock duration of sandbox executions.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		ExecutionsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "runebook",
			Name:      "executions_in_flight",
			Help:      "Executions currently queued or running.",
		}),
	}

	m.Registry.MustRegister(
		m.ExecutionsTotal,
		m.ExecutionsRejected,
		m.ExecutionDuration,
		m.ExecutionsInFlight,
	)
	return m
}

// ObserveExecution records one completed execution.
func (m *Metrics) ObserveExecution(o *sandbox.Outcome) {
	m.ExecutionsTotal.WithLabelValues(string(o.Status)).Inc()
	m.ExecutionDuration.Observe(o.Duration.Seconds())
}
