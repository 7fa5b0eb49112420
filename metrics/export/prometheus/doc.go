// Package prometheus exposes goSession engine metrics as a client_golang
// prometheus.Collector.
//
// Register the collector on any prometheus.Registerer, or mount
// [PrometheusExporter.Handler] for a standalone /metrics endpoint. Counter
// names are gosession_*_total; latency histograms are
// gosession_*_latency_seconds.
//
// The collector never registers itself in the global registry.
package prometheus
