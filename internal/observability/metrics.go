package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and gauges for the ingestion
// pipeline and background jobs.
type Metrics struct {
	RecordsIngested *prometheus.CounterVec   // labels: source
	RecordsSkipped  *prometheus.CounterVec   // labels: source, reason={filtered,error}
	FetchErrors     *prometheus.CounterVec   // labels: source
	PollDuration    *prometheus.HistogramVec // labels: source
	JobRuns         *prometheus.CounterVec   // labels: job, outcome={success,error}
	ArchivedRecords prometheus.Counter
	PollersRunning  prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the
// default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RecordsIngested,
		m.RecordsSkipped,
		m.FetchErrors,
		m.PollDuration,
		m.JobRuns,
		m.ArchivedRecords,
		m.PollersRunning,
	)
	return m
}

// NewMetricsForTesting creates Metrics without touching the default
// registry, so parallel tests don't hit "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RecordsIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "alertachile",
			Name:      "records_ingested_total",
			Help:      "Normalized emergencies submitted for upsert, by source.",
		}, []string{"source"}),
		RecordsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "alertachile",
			Name:      "records_skipped_total",
			Help:      "Records dropped before upsert, by source and reason.",
		}, []string{"source", "reason"}),
		FetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "alertachile",
			Name:      "fetch_errors_total",
			Help:      "Upstream fetch failures, by source.",
		}, []string{"source"}),
		PollDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "alertachile",
			Name:      "poll_duration_seconds",
			Help:      "Duration of a full fetch-normalize-submit cycle.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"source"}),
		JobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "alertachile",
			Name:      "job_runs_total",
			Help:      "Background job executions, by job and outcome.",
		}, []string{"job", "outcome"}),
		ArchivedRecords: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "alertachile",
			Name:      "archived_records_total",
			Help:      "Emergencies moved to the archive by the retention job.",
		}),
		PollersRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "alertachile",
			Name:      "pollers_running",
			Help:      "Number of active source pollers.",
		}),
	}
}
