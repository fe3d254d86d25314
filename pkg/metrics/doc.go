// Package metrics exposes Prometheus collectors for an amplifier
// connection: lifecycle state, line traffic, decode and validation
// failures, and observer deliveries.
//
// A Collector is optional everywhere it is accepted; a nil *Collector
// records nothing.
package metrics
