package ratelimit

// NoOpMetrics implements Metrics and discards everything.
//
// Used in tests and when no registry is configured.
type NoOpMetrics struct{}

// NewNoOpMetrics creates a new NoOpMetrics instance.
func NewNoOpMetrics() *NoOpMetrics {
	return &NoOpMetrics{}
}

// RecordAllowed is a no-op implementation.
func (m *NoOpMetrics) RecordAllowed(key string) {}

// RecordDenied is a no-op implementation.
func (m *NoOpMetrics) RecordDenied(key string) {}

// SetActiveKeys is a no-op implementation.
func (m *NoOpMetrics) SetActiveKeys(count int) {}

// RecordEviction is a no-op implementation.
func (m *NoOpMetrics) RecordEviction(count int) {}
