package ratelimit

import (
	"errors"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetrics implements Metrics using Prometheus.
//
// Exposed series:
//   - admission_requests_total{limiter,group,status}: decisions by key group and outcome
//   - admission_active_keys{limiter}: keys held in the store
//   - admission_evictions_total{limiter}: LRU evictions
//
// The limiter label distinguishes several limiters sharing one registry.
type PrometheusMetrics struct {
	limiter        string
	requestsTotal  *prometheus.CounterVec
	activeKeys     *prometheus.GaugeVec
	evictionsTotal *prometheus.CounterVec
}

var (
	admissionRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admission_requests_total",
			Help: "Admission decisions by limiter, key group and status",
		},
		[]string{"limiter", "group", "status"},
	)

	admissionActiveKeys = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "admission_active_keys",
			Help: "Current number of keys tracked by the limiter",
		},
		[]string{"limiter"},
	)

	admissionEvictions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admission_evictions_total",
			Help: "Total LRU evictions by limiter",
		},
		[]string{"limiter"},
	)
)

// NewPrometheusMetrics returns metrics labelled with the limiter name.
//
// The collectors are registered with reg on first use. When reg is nil a
// private registry is used, which keeps tests isolated from the default one.
func NewPrometheusMetrics(limiter string, reg prometheus.Registerer) *PrometheusMetrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	for _, c := range []prometheus.Collector{admissionRequests, admissionActiveKeys, admissionEvictions} {
		if err := reg.Register(c); err != nil {
			// already registered by another limiter on the same registry
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				panic(err)
			}
		}
	}

	return &PrometheusMetrics{
		limiter:        limiter,
		requestsTotal:  admissionRequests,
		activeKeys:     admissionActiveKeys,
		evictionsTotal: admissionEvictions,
	}
}

// RecordAllowed records an admitted request.
func (m *PrometheusMetrics) RecordAllowed(key string) {
	m.requestsTotal.WithLabelValues(m.limiter, KeyGroup(key), "allowed").Inc()
}

// RecordDenied records a rejected request.
func (m *PrometheusMetrics) RecordDenied(key string) {
	m.requestsTotal.WithLabelValues(m.limiter, KeyGroup(key), "denied").Inc()
}

// KeyGroup returns the part of a "group|client" key before the separator.
// Per-client keys would make the label unbounded.
func KeyGroup(key string) string {
	group, _, _ := strings.Cut(key, "|")
	return group
}

// SetActiveKeys records the number of keys in the store.
//
// Useful for alerting when approaching the store's MaxKeys.
func (m *PrometheusMetrics) SetActiveKeys(count int) {
	m.activeKeys.WithLabelValues(m.limiter).Set(float64(count))
}

// RecordEviction records keys evicted from the store.
//
// A high eviction rate usually means many distinct clients; consider raising MaxKeys.
func (m *PrometheusMetrics) RecordEviction(count int) {
	m.evictionsTotal.WithLabelValues(m.limiter).Add(float64(count))
}
