// Package metrics exposes Prometheus instrumentation for TCO runs.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "ev_tco_"

	// StatusSuccess labels a run that produced a result.
	StatusSuccess = "success"
	// StatusError labels a run that was rejected or failed.
	StatusError = "error"
)

var (
	registerOnce sync.Once

	runsTotal   *prometheus.CounterVec
	runDuration *prometheus.HistogramVec
	exportTotal *prometheus.CounterVec
)

// Init registers the metrics with the default registry. Observers are no-ops
// until Init has been called.
func Init() {
	registerOnce.Do(func() {
		runsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "runs_total",
				Help: "Total TCO runs by source and status",
			},
			[]string{"source", "status"},
		)
		runDuration = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "run_duration_seconds",
				Help:    "TCO run latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source"},
		)
		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "exports_total",
				Help: "Total report exports by format and status",
			},
			[]string{"format", "status"},
		)

		prometheus.MustRegister(runsTotal, runDuration, exportTotal)
	})
}

// ObserveRun records the outcome and latency of a run.
func ObserveRun(source, status string, duration time.Duration) {
	if status == "" {
		status = StatusSuccess
	}
	if runsTotal != nil {
		runsTotal.WithLabelValues(source, status).Inc()
	}
	if runDuration != nil {
		runDuration.WithLabelValues(source).Observe(duration.Seconds())
	}
}

// IncExport counts a report export.
func IncExport(format, status string) {
	if status == "" {
		status = StatusSuccess
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, status).Inc()
	}
}
