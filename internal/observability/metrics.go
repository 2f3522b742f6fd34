package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// monitoring service.
type Metrics struct {
	ReadingsIngested *prometheus.CounterVec // labels: source={http,kafka}
	IngestErrors     *prometheus.CounterVec // labels: source={http,kafka}

	// Daily job metrics.
	JobRuns          *prometheus.CounterVec // labels: status={completed,skipped_no_data,failed}
	JobCoalesced     prometheus.Counter
	JobDuration      prometheus.Histogram
	LastCompletedRun prometheus.Gauge

	SchedulerRunning prometheus.Gauge
	ClassifierLoaded prometheus.Gauge
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		ReadingsIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "water_monitor",
			Name:      "readings_ingested_total",
			Help:      "Total sensor readings accepted, by ingest source.",
		}, []string{"source"}),
		IngestErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "water_monitor",
			Name:      "ingest_errors_total",
			Help:      "Total rejected or failed reading submissions, by ingest source.",
		}, []string{"source"}),
		JobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "water_monitor",
			Name:      "job_runs_total",
			Help:      "Daily prediction job runs by terminal status.",
		}, []string{"status"}),
		JobCoalesced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "water_monitor",
			Name:      "job_coalesced_total",
			Help:      "Triggers that attached to an already in-flight run for the same date.",
		}),
		JobDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "water_monitor",
			Name:      "job_duration_seconds",
			Help:      "Duration of a complete aggregate-classify-upsert run.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5},
		}),
		LastCompletedRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "water_monitor",
			Name:      "last_completed_run_timestamp_seconds",
			Help:      "Unix time of the most recent completed daily job run.",
		}),
		SchedulerRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "water_monitor",
			Name:      "scheduler_running",
			Help:      "1 when the daily scheduler loop is active, 0 when shut down.",
		}),
		ClassifierLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "water_monitor",
			Name:      "classifier_loaded",
			Help:      "1 when the classifier artifact is loaded and serving predictions.",
		}),
	}

	prometheus.MustRegister(
		m.ReadingsIngested,
		m.IngestErrors,
		m.JobRuns,
		m.JobCoalesced,
		m.JobDuration,
		m.LastCompletedRun,
		m.SchedulerRunning,
		m.ClassifierLoaded,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		ReadingsIngested: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "water_monitor", Name: "readings_ingested_total"}, []string{"source"}),
		IngestErrors:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "water_monitor", Name: "ingest_errors_total"}, []string{"source"}),
		JobRuns:          prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "water_monitor", Name: "job_runs_total"}, []string{"status"}),
		JobCoalesced:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "water_monitor", Name: "job_coalesced_total"}),
		JobDuration:      prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "water_monitor", Name: "job_duration_seconds"}),
		LastCompletedRun: prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "water_monitor", Name: "last_completed_run_timestamp_seconds"}),
		SchedulerRunning: prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "water_monitor", Name: "scheduler_running"}),
		ClassifierLoaded: prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "water_monitor", Name: "classifier_loaded"}),
	}
}
