// Package metrics exposes Prometheus instrumentation for the monitor.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds the monitor's instruments, registered on an owned registry so
// tests can create isolated instances.
type Metrics struct {
	Registry *prometheus.Registry

	ChecksTotal     *prometheus.CounterVec
	CheckErrors     *prometheus.CounterVec
	ChangesTotal    *prometheus.CounterVec
	AlertsTotal     *prometheus.CounterVec
	DeliveriesTotal *prometheus.CounterVec
	DeliveryErrors  *prometheus.CounterVec
	RunDuration     prometheus.Histogram
	RunsTotal       *prometheus.CounterVec
}

// New creates and registers all instruments.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		Registry: reg,
		ChecksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "zeus", Name: "checks_total",
			Help: "Protocol checks performed.",
		}, []string{"protocol"}),
		CheckErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "zeus", Name: "check_errors_total",
			Help: "Protocol checks that failed before persistence.",
		}, []string{"protocol"}),
		ChangesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "zeus", Name: "changes_total",
			Help: "Checks whose content fingerprint differed from the baseline.",
		}, []string{"protocol"}),
		AlertsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "zeus", Name: "alerts_total",
			Help: "Alerts generated, by type and severity.",
		}, []string{"type", "severity"}),
		DeliveriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "zeus", Name: "deliveries_total",
			Help: "Successful alert deliveries by channel.",
		}, []string{"channel"}),
		DeliveryErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "zeus", Name: "delivery_errors_total",
			Help: "Failed alert deliveries by channel.",
		}, []string{"channel"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "zeus", Name: "run_duration_seconds",
			Help:    "Wall time of one full monitoring cycle.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "zeus", Name: "runs_total",
			Help: "Monitoring cycles by terminal status.",
		}, []string{"status"}),
	}
	reg.MustRegister(
		m.ChecksTotal, m.CheckErrors, m.ChangesTotal,
		m.AlertsTotal, m.DeliveriesTotal, m.DeliveryErrors,
		m.RunDuration, m.RunsTotal,
	)
	return m
}
