package metrics

import (
	"github.com/Aleph-Alpha/admcodec/v1/observability"
	"github.com/prometheus/client_golang/prometheus"
)

// MetricsCollector is the contract of *Metrics: an operation observer plus
// factories for application-defined metrics registered under the same
// service label and namespace.
type MetricsCollector interface {
	observability.Observer

	// CreateCounter creates a new CounterVec metric and registers it.
	CreateCounter(name, help string, labels []string) *prometheus.CounterVec

	// CreateHistogram creates a new HistogramVec metric and registers it.
	CreateHistogram(name, help string, labels []string, buckets []float64) *prometheus.HistogramVec

	// CreateGauge creates a new GaugeVec metric and registers it.
	CreateGauge(name, help string, labels []string) *prometheus.GaugeVec
}

var _ MetricsCollector = (*Metrics)(nil)
