package metrics

import (
	"database/sql"
	"time"
)

// RecordProviderRequest records the outcome of one provider operation.
// status is "success" or the classified error code.
func RecordProviderRequest(provider, operation, status string, duration time.Duration) {
	ProviderRequestsTotal.WithLabelValues(provider, operation, status).Inc()
	ProviderRequestDuration.WithLabelValues(provider, operation).Observe(duration.Seconds())
}

// RecordProviderRetry records a retry scheduled after a classified failure.
func RecordProviderRetry(provider, code string) {
	ProviderRetriesTotal.WithLabelValues(provider, code).Inc()
}

// SetQueueDepth records the number of operations waiting in a provider queue.
func SetQueueDepth(provider string, depth int) {
	QueueDepth.WithLabelValues(provider).Set(float64(depth))
}

// RecordQueuePause records a queue pausing until the provider's rate-limit reset.
func RecordQueuePause(provider string) {
	QueueRateLimitPauses.WithLabelValues(provider).Inc()
}

// RecordImageSearch records an aggregated search: the images returned and
// which providers were isolated as failed.
func RecordImageSearch(results int, failed []string) {
	ImageSearchResults.Observe(float64(results))
	for _, p := range failed {
		ImageSearchProviderFailures.WithLabelValues(p).Inc()
	}
}

// UpdateSitesTotal updates the number of registered sites.
func UpdateSitesTotal(count int) {
	SitesTotal.Set(float64(count))
}

// RecordDBStats publishes the connection pool state.
func RecordDBStats(stats sql.DBStats) {
	DBConnectionsActive.Set(float64(stats.InUse))
	DBConnectionsIdle.Set(float64(stats.Idle))
}
