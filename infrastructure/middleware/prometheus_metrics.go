// Package middleware provides observability adapters for the evaluation
// pipeline.
package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ahrav/go-arena/internal/ports"
)

var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)

// PrometheusMetrics implements ports.MetricsCollector on Prometheus,
// exposing judge call volume, latency, and token consumption for one
// evaluation run.
type PrometheusMetrics struct {
	latency    *prometheus.HistogramVec
	counters   *prometheus.CounterVec
	histograms *prometheus.HistogramVec
}

// NewPrometheusMetrics registers the arena metrics with reg. Pass
// prometheus.DefaultRegisterer outside of tests.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	factory := promauto.With(reg)
	return &PrometheusMetrics{
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "arena_operation_duration_seconds",
				Help:    "Latency of evaluation operations (judge calls, loads, report writes).",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "model", "status"},
		),
		counters: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arena_events_total",
				Help: "Counts of evaluation events by metric name and status.",
			},
			[]string{"metric", "model", "status"},
		),
		histograms: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "arena_values",
				Help:    "Distributions of observed evaluation values by metric name.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"metric", "model", "status"},
		),
	}
}

// RecordLatency records an operation's execution time.
func (pm *PrometheusMetrics) RecordLatency(operation string, duration time.Duration, labels map[string]string) {
	pm.latency.WithLabelValues(operation, labelOr(labels, "model"), labelOr(labels, "status")).
		Observe(duration.Seconds())
}

// RecordCounter increments the named counter by value.
func (pm *PrometheusMetrics) RecordCounter(metric string, value float64, labels map[string]string) {
	pm.counters.WithLabelValues(metric, labelOr(labels, "model"), labelOr(labels, "status")).
		Add(value)
}

// RecordHistogram records value in the named distribution.
func (pm *PrometheusMetrics) RecordHistogram(metric string, value float64, labels map[string]string) {
	pm.histograms.WithLabelValues(metric, labelOr(labels, "model"), labelOr(labels, "status")).
		Observe(value)
}

func labelOr(labels map[string]string, key string) string {
	if v, ok := labels[key]; ok {
		return v
	}
	return "unknown"
}
