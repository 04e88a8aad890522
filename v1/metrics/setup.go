package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics encapsulates the Prometheus registry and HTTP server exposing the
// serializer's metrics.
//
// Metrics implements observability.Observer: pass it to codec.Engine,
// stream.Codec or store.Store and every operation they perform is counted
// and timed.
type Metrics struct {
	// Server defines the HTTP server used to expose the /metrics endpoint.
	Server *http.Server

	// Registry is the Prometheus registry where all metrics are registered.
	// Each service maintains its own isolated registry to prevent metric name collisions.
	Registry *prometheus.Registry

	registerer prometheus.Registerer
	namespace  string

	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	processedTotal    *prometheus.CounterVec
	fallbacksTotal    *prometheus.CounterVec
	unknownSubtypes   *prometheus.CounterVec
}

// NewMetrics initializes and returns a new instance of the Metrics struct.
// It sets up a dedicated Prometheus registry, wraps all metrics with a constant
// `service` label, registers the operation metrics and, if enabled, the
// default runtime collectors, and creates an HTTP server exposing /metrics.
//
// Example:
//
//	m := metrics.NewMetrics(metrics.Config{Address: ":9090", ServiceName: "field-sync"})
//	engine.WithObserver(m)
//	go m.Server.ListenAndServe()
func NewMetrics(cfg Config) *Metrics {
	if cfg.Namespace == "" {
		cfg.Namespace = DefaultNamespace
	}

	registry := prometheus.NewRegistry()

	// All metrics emitted by this service carry service="<cfg.ServiceName>".
	wrappedRegistry := prometheus.WrapRegistererWith(
		prometheus.Labels{"service": cfg.ServiceName},
		registry,
	)

	m := &Metrics{
		Registry:   registry,
		registerer: wrappedRegistry,
		namespace:  cfg.Namespace,
	}

	m.operationsTotal = createCounterVec(cfg.Namespace, "operations_total",
		"Total number of codec, stream and store operations", []string{"component", "operation", "status"})
	m.operationDuration = createHistogramVec(cfg.Namespace, "operation_duration_seconds",
		"Duration of codec, stream and store operations in seconds", []string{"component", "operation"}, prometheus.ExponentialBuckets(0.00001, 4, 12))
	m.processedTotal = createCounterVec(cfg.Namespace, "processed_total",
		"Bytes or records processed, as reported by each operation", []string{"component", "operation"})
	m.fallbacksTotal = createCounterVec(cfg.Namespace, "ancestor_fallbacks_total",
		"Values encoded as a registered ancestor because their own type is not registered", []string{"ancestor", "go_type"})
	m.unknownSubtypes = createCounterVec(cfg.Namespace, "unknown_discriminators_total",
		"Values decoded as their deepest known type because a discriminator was not recognised", []string{"base", "tag"})

	wrappedRegistry.MustRegister(
		m.operationsTotal,
		m.operationDuration,
		m.processedTotal,
		m.fallbacksTotal,
		m.unknownSubtypes,
	)

	if cfg.EnableDefaultCollectors {
		wrappedRegistry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			collectors.NewBuildInfoCollector(),
		)
	}

	m.Server = &http.Server{
		Addr:    cfg.Address,
		Handler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}
	return m
}
