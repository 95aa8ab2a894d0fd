// Package metrics provides Prometheus metrics for the prediction service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager holds every metric the service exposes. A dedicated registry
// keeps the default Go collector noise out of the scrape.
type Manager struct {
	registry *prometheus.Registry

	predictions        *prometheus.CounterVec
	predictionErrors   prometheus.Counter
	simulationDuration *prometheus.HistogramVec
	simulationTrials   *prometheus.HistogramVec

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// NewManager creates a metrics manager with its own registry.
func NewManager() *Manager {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Manager{
		registry: registry,
		predictions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scorecast",
			Name:      "predictions_total",
			Help:      "Predictions generated, by model type.",
		}, []string{"model"}),
		predictionErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "scorecast",
			Name:      "prediction_errors_total",
			Help:      "Prediction requests that failed.",
		}),
		simulationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "scorecast",
			Name:      "simulation_duration_seconds",
			Help:      "Wall-clock duration of simulation runs, by kind.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		simulationTrials: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "scorecast",
			Name:      "simulation_trials",
			Help:      "Completed trials per simulation run, by kind.",
			Buckets:   prometheus.ExponentialBuckets(10, 10, 5),
		}, []string{"kind"}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scorecast",
			Name:      "http_requests_total",
			Help:      "HTTP requests, by route and status code.",
		}, []string{"route", "code"}),
		httpRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "scorecast",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency, by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

// RecordPrediction counts one generated prediction.
func (m *Manager) RecordPrediction(model string) {
	m.predictions.WithLabelValues(model).Inc()
}

// RecordPredictionError counts one failed prediction request.
func (m *Manager) RecordPredictionError() {
	m.predictionErrors.Inc()
}

// RecordSimulation records the duration and completed trial count of one
// simulation run.
func (m *Manager) RecordSimulation(kind string, duration time.Duration, trials int) {
	m.simulationDuration.WithLabelValues(kind).Observe(duration.Seconds())
	m.simulationTrials.WithLabelValues(kind).Observe(float64(trials))
}

// RecordHTTPRequest records one served request.
func (m *Manager) RecordHTTPRequest(route, code string, duration time.Duration) {
	m.httpRequests.WithLabelValues(route, code).Inc()
	m.httpRequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// Handler returns the scrape endpoint for this manager's registry.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
