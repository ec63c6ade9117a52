// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Run lifecycle metrics
	RunsStarted   prometheus.Counter
	RunsCompleted prometheus.Counter
	RunsFailed    prometheus.Counter

	// Pipeline metrics
	TradesProcessed    prometheus.Counter
	TradesSkipped      prometheus.Counter
	RowsDropped        *prometheus.CounterVec
	SimulationDuration prometheus.Histogram
	PhaseDuration      *prometheus.HistogramVec

	// Server metrics
	WSClients prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "cashlab"
	}

	return &Metrics{
		RunsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "runs",
			Name:      "started_total",
			Help:      "Total number of analysis runs started",
		}),
		RunsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "runs",
			Name:      "completed_total",
			Help:      "Total number of analysis runs completed",
		}),
		RunsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "runs",
			Name:      "failed_total",
			Help:      "Total number of analysis runs failed",
		}),

		TradesProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "trades_processed_total",
			Help:      "Total number of trades simulated",
		}),
		TradesSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "trades_skipped_total",
			Help:      "Total number of trades skipped during recalculation",
		}),
		RowsDropped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "rows_dropped_total",
			Help:      "Total number of input rows dropped by the normalizer, by reason",
		}, []string{"reason"}),
		SimulationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "simulation_duration_seconds",
			Help:      "Simulation execution duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		PhaseDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "phase_duration_seconds",
			Help:      "Pipeline phase duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		}, []string{"phase"}),

		WSClients: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "ws_clients",
			Help:      "Number of connected WebSocket clients",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordRunStarted increments the runs started counter.
func RecordRunStarted() {
	DefaultMetrics.RunsStarted.Inc()
}

// RecordRunCompleted increments the runs completed counter.
func RecordRunCompleted() {
	DefaultMetrics.RunsCompleted.Inc()
}

// RecordRunFailed increments the runs failed counter.
func RecordRunFailed() {
	DefaultMetrics.RunsFailed.Inc()
}

// RecordTradesProcessed adds to the trades processed counter.
func RecordTradesProcessed(n int) {
	DefaultMetrics.TradesProcessed.Add(float64(n))
}

// RecordTradesSkipped adds to the trades skipped counter.
func RecordTradesSkipped(n int) {
	DefaultMetrics.TradesSkipped.Add(float64(n))
}

// RecordRowsDropped adds to the dropped rows counter for one reason.
func RecordRowsDropped(reason string, n int) {
	if n == 0 {
		return
	}
	DefaultMetrics.RowsDropped.WithLabelValues(reason).Add(float64(n))
}

// RecordSimulationDuration records a simulation duration.
func RecordSimulationDuration(seconds float64) {
	DefaultMetrics.SimulationDuration.Observe(seconds)
}

// RecordPhaseDuration records one pipeline phase duration.
func RecordPhaseDuration(phase string, seconds float64) {
	DefaultMetrics.PhaseDuration.WithLabelValues(phase).Observe(seconds)
}
