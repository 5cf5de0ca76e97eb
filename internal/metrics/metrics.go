// Package metrics provides Prometheus metrics collection for the demand dashboard.
// It defines the prediction, page and dataset metrics exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prediction outcomes used as the "outcome" label.
const (
	OutcomeSuccess    = "success"
	OutcomeIncomplete = "incomplete"
	OutcomeError      = "error"
)

// Metrics holds all Prometheus metrics for the dashboard.
type Metrics struct {
	// Prediction metrics
	PredictionsTotal  *prometheus.CounterVec // Predictions by model and outcome
	PredictionLatency prometheus.Histogram   // Handler latency in seconds

	// Presentation metrics
	PageViews *prometheus.CounterVec // Page renders by page name
	WSClients prometheus.Gauge       // Open prediction websocket connections

	// Data metrics
	DatasetRows prometheus.Gauge     // Rows in the loaded dataset
	ArtifactAge *prometheus.GaugeVec // Seconds since each artifact file was written

	// System metrics
	ErrorsTotal prometheus.Counter // Total number of errors encountered
}

// New creates and registers all Prometheus metrics using the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry (useful for testing).
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		PredictionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "predictions_total",
			Help: "Total number of prediction requests by model and outcome",
		}, []string{"model", "outcome"}),
		PredictionLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "prediction_latency_seconds",
			Help:    "Prediction latency in seconds (scaling and model evaluation)",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}),
		PageViews: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "page_views_total",
			Help: "Total number of dashboard page renders",
		}, []string{"page"}),
		WSClients: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ws_clients",
			Help: "Number of connected prediction websocket clients",
		}),
		DatasetRows: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dataset_rows",
			Help: "Number of rows in the loaded dataset",
		}),
		ArtifactAge: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "artifact_age_seconds",
			Help: "Age of each model artifact in seconds",
		}, []string{"artifact"}),
		ErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors encountered",
		}),
	}
}

// ErrorRate returns the share of prediction requests that ended in a computation error.
// Returns 0 if no predictions have been recorded.
func ErrorRate(gatherer prometheus.Gatherer) float64 {
	var total, failed float64

	metricFamilies, err := gatherer.Gather()
	if err != nil {
		return 0
	}

	for _, mf := range metricFamilies {
		if mf.GetName() != "predictions_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			v := m.GetCounter().GetValue()
			total += v
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "outcome" && lp.GetValue() == OutcomeError {
					failed += v
				}
			}
		}
	}

	// Avoid division by zero
	if total == 0 {
		return 0
	}

	return failed / total
}
