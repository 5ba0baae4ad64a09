package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsManager holds the photo client's Prometheus metrics.
type MetricsManager struct {
	Registry            *prometheus.Registry
	PhotoUploadsTotal   *prometheus.CounterVec
	PhotoDeletesTotal   *prometheus.CounterVec
	PhotoRejectionTotal *prometheus.CounterVec
	FlushDuration       prometheus.Histogram
	APILatency          *prometheus.HistogramVec
}

// NewMetricsManager registers the metrics on a private registry.
func NewMetricsManager(namespace string) *MetricsManager {
	registry := prometheus.NewRegistry()

	uploads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "photo_uploads_total",
		Help:      "Photo uploads by outcome.",
	}, []string{"outcome"})
	deletes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "photo_deletes_total",
		Help:      "Best-effort photo deletes by outcome.",
	}, []string{"outcome"})
	rejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "photo_rejections_total",
		Help:      "Candidate files rejected by the validator, by reason.",
	}, []string{"reason"})
	flushDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "photo_flush_duration_seconds",
		Help:      "Time spent flushing pending photos at submit.",
		Buckets:   prometheus.DefBuckets,
	})
	apiLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "api_request_latency_seconds",
		Help:      "Latency of backend API calls by method.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})

	registry.MustRegister(uploads, deletes, rejections, flushDuration, apiLatency)

	return &MetricsManager{
		Registry:            registry,
		PhotoUploadsTotal:   uploads,
		PhotoDeletesTotal:   deletes,
		PhotoRejectionTotal: rejections,
		FlushDuration:       flushDuration,
		APILatency:          apiLatency,
	}
}

// WriteTextfile dumps the registry in the node-exporter textfile format.
// photoctl is short-lived, so there is no /metrics endpoint to scrape.
func (m *MetricsManager) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("write metrics to %s: %w", path, err)
	}
	return nil
}
