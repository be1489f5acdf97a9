// Package otel publishes roleverify engine metrics through an OpenTelemetry Meter.
//
// [NewOTelExporter] registers one Int64ObservableCounter per engine counter, an
// Int64ObservableGauge per reply latency bucket and one for active challenges.
// A single callback reads [roleverify.Engine.MetricsSnapshot] per collection.
//
// # What this package must NOT do
//
//   - Own the MeterProvider. Callers supply the Meter (see internal/telemetry).
//   - Mutate engine state.
package otel
