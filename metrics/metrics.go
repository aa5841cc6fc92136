// Package metrics exposes Prometheus instrumentation for the prediction pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "cyberlaw"

// Metrics holds all pipeline metrics. A nil *Metrics is valid and records nothing.
type Metrics struct {
	PredictionsTotal        *prometheus.CounterVec
	PredictionDuration      prometheus.Histogram
	EnrichmentFailuresTotal prometheus.Counter
	ReportsRenderedTotal    prometheus.Counter
	ModelTrainingsTotal     prometheus.Counter
}

// New creates the metrics and registers them on reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PredictionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Predictions served, by predicted section.",
		}, []string{"section"}),
		PredictionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "prediction_duration_seconds",
			Help:      "End-to-end prediction latency including enrichment.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}),
		EnrichmentFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrichment_failures_total",
			Help:      "Procedure lookups that degraded to an error message.",
		}),
		ReportsRenderedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_rendered_total",
			Help:      "Reports written to the artifact store.",
		}),
		ModelTrainingsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_trainings_total",
			Help:      "Classifier trainings performed because no artifact was cached.",
		}),
	}

	reg.MustRegister(
		m.PredictionsTotal,
		m.PredictionDuration,
		m.EnrichmentFailuresTotal,
		m.ReportsRenderedTotal,
		m.ModelTrainingsTotal,
	)
	return m
}

// ObservePrediction records one completed prediction
func (m *Metrics) ObservePrediction(section string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.PredictionsTotal.WithLabelValues(section).Inc()
	m.PredictionDuration.Observe(elapsed.Seconds())
}

// EnrichmentFailed records a degraded procedure lookup
func (m *Metrics) EnrichmentFailed() {
	if m == nil {
		return
	}
	m.EnrichmentFailuresTotal.Inc()
}

// ReportRendered records a stored report
func (m *Metrics) ReportRendered() {
	if m == nil {
		return
	}
	m.ReportsRenderedTotal.Inc()
}

// ModelTrained records a fresh classifier training
func (m *Metrics) ModelTrained() {
	if m == nil {
		return
	}
	m.ModelTrainingsTotal.Inc()
}
