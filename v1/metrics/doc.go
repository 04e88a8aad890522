// Package metrics exposes Prometheus metrics for the codec, stream and store
// packages and serves them on /metrics.
//
// *Metrics implements observability.Observer. Attached to the codec engine,
// the stream codecs and the store it maintains:
//
//	admcodec_operations_total{component,operation,status}
//	admcodec_operation_duration_seconds{component,operation}
//	admcodec_processed_total{component,operation}
//	admcodec_ancestor_fallbacks_total{ancestor,go_type}
//
// processed_total adds each operation's Size: bytes for encode, decode and
// store writes, records for sequence reads and writes. A rising
// ancestor_fallbacks_total means values of an unregistered Go type are being
// written as a registered ancestor and lose their extra fields.
//
// Every metric carries a constant "service" label from Config.ServiceName.
// With EnableDefaultCollectors the Go runtime and process collectors are
// registered as well.
//
// # Without fx
//
//	m := metrics.NewMetrics(metrics.Config{
//		Address:     ":9090",
//		ServiceName: "field-sync",
//	})
//	engine.WithObserver(m)
//	go m.Server.ListenAndServe()
//
// # With fx
//
// FXModule provides *Metrics, exposes it as the application's
// observability.Observer and starts and stops the HTTP server with the
// application. The codec, stream and store modules pick the observer up
// automatically.
//
// # Custom metrics
//
// CreateCounter, CreateHistogram and CreateGauge register vectors under the
// same namespace:
//
//	batches := m.CreateCounter("import_batches_total", "Imported batches.", []string{"source"})
//	batches.WithLabelValues("isoxml").Inc()
//
// All methods are safe for concurrent use.
package metrics
