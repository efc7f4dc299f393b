// Package otel publishes rentalAuth engine metrics through an OpenTelemetry
// Meter supplied by the caller. One callback reads the engine snapshot per
// collection cycle; labelled families become attributes on one instrument.
package otel
