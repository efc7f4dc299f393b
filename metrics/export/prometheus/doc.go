// Package prometheus renders rentalAuth engine metrics in the Prometheus text
// exposition format.
//
// Related engine counters share one name with an outcome label, for example
// rentalauth_authenticate_total{outcome="revoked"}. Dropped lifecycle events
// carry an event label. The authentication filter latency is the histogram
// rentalauth_authenticate_latency_seconds. Nothing is registered globally:
// callers mount [PrometheusExporter.Handler] themselves.
package prometheus
