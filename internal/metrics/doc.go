// Package metrics exposes client activity as Prometheus collectors.
//
// # Overview
//
// Metrics implements nt.Observer, so a client built with nt.WithObserver
// reports every refresh, publish and backend rejection here. Collectors are
// registered on an injected prometheus.Registerer; app.Run uses a private
// registry and serves it through Handler on metrics_addr.
//
// # Collectors
//
// All names carry the ntdash_ prefix.
//
//   - refreshes_total{pattern}: refreshes applied to a cache
//   - refresh_failures_total{pattern}: refreshes that failed
//   - merged_samples_total{pattern}: history samples folded into a cache
//   - cached_paths{pattern}: paths held by a cache after its last refresh
//   - refresh_latency_seconds{pattern}: time spent per refresh
//   - publishes_total{type}: values handed to the backend, by value type
//   - backend_rejections_total{command}: requests the backend refused
package metrics
