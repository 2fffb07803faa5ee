// Package observability exposes Prometheus metrics for the monitoring runs
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "port_weather"

// Metrics holds all collectors published by the monitor.
type Metrics struct {
	FetchResults  *prometheus.CounterVec
	PortsAtRisk   *prometheus.GaugeVec
	Notifications *prometheus.CounterVec
	RunDuration   prometheus.Histogram
	RunsTotal     prometheus.Counter
}

// NewMetrics creates and registers all collectors with the default registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.FetchResults,
		m.PortsAtRisk,
		m.Notifications,
		m.RunDuration,
		m.RunsTotal,
	)
	return m
}

// NewMetricsForTesting creates all collectors without registering them, so
// parallel tests never collide on the default registry.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FetchResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_results_total",
			Help:      "Forecast download outcomes by result (success, skip, fail).",
		}, []string{"result"}),
		PortsAtRisk: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ports_at_risk",
			Help:      "Ports at each non-safe risk level after the latest run.",
		}, []string{"level"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Alert dispatch outcomes by result (sent, failed, skipped).",
		}, []string{"result"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of a full monitoring run.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		RunsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Completed monitoring runs.",
		}),
	}
}
