// Package prometheus exposes goSession engine metrics in Prometheus text
// exposition format.
//
// [NewPrometheusExporter] wraps an [goSession.Engine] and its Handler renders
// every gosession_*_total counter plus the login and authorize latency
// histograms. Nothing is registered globally; callers mount the Handler,
// typically through api.WithMetricsHandler.
package prometheus
