package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// route density pipeline.
type Metrics struct {
	RunsTotal       prometheus.Counter
	RunFailures     prometheus.Counter
	PipelineRunning prometheus.Gauge

	StageDuration *prometheus.HistogramVec // label: stage
	StageFailures *prometheus.CounterVec   // label: stage

	PingsExtracted    *prometheus.CounterVec // label: window={primary,extended}
	TracksBuilt       prometheus.Gauge
	RecordsPublished  prometheus.Gauge
	DataQualityErrors *prometheus.CounterVec // label: stage
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RunsTotal,
		m.RunFailures,
		m.PipelineRunning,
		m.StageDuration,
		m.StageFailures,
		m.PingsExtracted,
		m.TracksBuilt,
		m.RecordsPublished,
		m.DataQualityErrors,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RunsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "snow_telemetry",
			Name:      "runs_total",
			Help:      "Total pipeline runs started.",
		}),
		RunFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "snow_telemetry",
			Name:      "run_failures_total",
			Help:      "Total pipeline runs that aborted.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "snow_telemetry",
			Name:      "pipeline_running",
			Help:      "1 while a run is in progress.",
		}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "snow_telemetry",
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"stage"}),
		StageFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "snow_telemetry",
			Name:      "stage_failures_total",
			Help:      "Stage executions that ended in error.",
		}, []string{"stage"}),
		PingsExtracted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "snow_telemetry",
			Name:      "pings_extracted_total",
			Help:      "AVL pings admitted per extract window.",
		}, []string{"window"}),
		TracksBuilt: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "snow_telemetry",
			Name:      "tracks_built",
			Help:      "Vehicle tracks built in the last run.",
		}),
		RecordsPublished: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "snow_telemetry",
			Name:      "records_published",
			Help:      "Route records published in the last run.",
		}),
		DataQualityErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "snow_telemetry",
			Name:      "data_quality_errors_total",
			Help:      "Records skipped for data-quality reasons, by stage.",
		}, []string{"stage"}),
	}
}
