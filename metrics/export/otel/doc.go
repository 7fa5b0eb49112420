// Package otel exposes goSession engine metrics through an OpenTelemetry
// Meter.
//
// [NewOTelExporter] registers an Int64ObservableCounter per engine counter and
// an Int64ObservableGauge per latency histogram bucket. A single callback
// reads MetricsSnapshot on each collection cycle.
//
// The caller owns the MeterProvider; the exporter never mutates engine state.
package otel
