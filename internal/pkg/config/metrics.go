package config

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics reports how the last configuration load went.
type Metrics struct {
	loadTimestamp  prometheus.Gauge
	fallbacksTotal *prometheus.CounterVec
	fallbackActive prometheus.Gauge
}

// NewMetrics registers the configuration collectors for component with reg.
func NewMetrics(component string, reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		loadTimestamp: f.NewGauge(prometheus.GaugeOpts{
			Name: component + "_config_load_timestamp_seconds",
			Help: "Unix time of the last configuration load.",
		}),
		fallbacksTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: component + "_config_fallbacks_total",
			Help: "Settings that fell back to their default because the configured value was invalid.",
		}, []string{"key"}),
		fallbackActive: f.NewGauge(prometheus.GaugeOpts{
			Name: component + "_config_fallback_active",
			Help: "1 when the running configuration uses at least one fallback value.",
		}),
	}
}

// RecordFallback counts one fallback for key.
func (m *Metrics) RecordFallback(key string) {
	m.fallbacksTotal.WithLabelValues(key).Inc()
}

// RecordLoad stamps the load time and the fallback flag.
func (m *Metrics) RecordLoad(fallbackActive bool) {
	m.loadTimestamp.SetToCurrentTime()
	if fallbackActive {
		m.fallbackActive.Set(1)
	} else {
		m.fallbackActive.Set(0)
	}
}
