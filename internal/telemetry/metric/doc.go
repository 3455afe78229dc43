// Package metric provides Prometheus metrics for zumi.
//
//   - prometheus.go: the service registry and the /metrics handler
//   - collector.go: a collector that mirrors the persisted operation counters
//
// Metrics are exposed at /metrics in Prometheus text format. Each Registry
// owns its prometheus.Registry, so tests and multiple servers in one
// process never collide on registration.
package metric
