// Package metrics provides Prometheus metrics registry and recording utilities.
//
// This package centralizes the service's metrics:
//   - HTTP request metrics (duration, count, size)
//   - Provider call metrics (outcome, duration, retries, queue depth)
//   - Image search aggregation metrics
//   - Database query metrics
//
// All metrics are registered with the Prometheus default registry through
// promauto and exposed via the /metrics endpoint.
//
// Example usage:
//
//	import "wpdesk/internal/observability/metrics"
//
//	start := time.Now()
//	page, err := provider.Search(ctx, params)
//	metrics.RecordProviderRequest("pexels", "search", status, time.Since(start))
package metrics
