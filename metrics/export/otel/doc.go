// Package otel binds goSession engine metrics to OpenTelemetry instruments.
//
// [NewOTelExporter] registers an Int64ObservableCounter for each engine
// counter and an Int64ObservableGauge for each cumulative histogram bucket.
// One callback reads [goSession.Engine.MetricsSnapshot] per collection. The
// caller owns the MeterProvider.
package otel
