// Package http holds the root HTTP plumbing of the editor backend: health
// probes, request logging, panic recovery, timeouts and Prometheus metrics.
// Route handlers live in the images, sites, posts and mediaproxy subpackages.
package http

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"wpdesk/internal/infra/imageprovider"
	"wpdesk/internal/infra/queue"
)

const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp string                 `json:"timestamp"`
	Checks    map[string]CheckStatus `json:"checks"`
	Version   string                 `json:"version"`
}

// CheckStatus is the outcome of one health check.
type CheckStatus struct {
	Status  string         `json:"status"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// HealthHandler reports database reachability, which image providers have
// credentials, and the state of each provider request queue.
// Only the database decides the HTTP status; providers are informational.
type HealthHandler struct {
	DB        *sql.DB
	Version   string
	Providers *imageprovider.Registry
	Queues    []*queue.Queue
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]CheckStatus)
	healthy := true

	if h.DB != nil {
		dbCheck := h.checkDatabase(ctx)
		checks["database"] = dbCheck
		if dbCheck.Status == statusUnhealthy {
			healthy = false
		}
	} else {
		checks["database"] = CheckStatus{Status: statusUnhealthy, Message: "not configured"}
		healthy = false
	}

	if h.Providers != nil {
		checks["image_providers"] = h.checkProviders()
	}
	if len(h.Queues) > 0 {
		checks["queues"] = h.checkQueues()
	}

	status, code := statusHealthy, http.StatusOK
	if !healthy {
		status, code = statusUnhealthy, http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Version:   h.Version,
	}); err != nil {
		slog.Warn("health: failed to encode response", slog.Any("error", err))
	}
}

func (h *HealthHandler) checkDatabase(ctx context.Context) CheckStatus {
	if err := h.DB.PingContext(ctx); err != nil {
		return CheckStatus{Status: statusUnhealthy, Message: "database unreachable"}
	}

	stats := h.DB.Stats()
	details := map[string]any{
		"max_open_connections": stats.MaxOpenConnections,
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"wait_count":           stats.WaitCount,
		"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
	}

	if stats.MaxOpenConnections == 0 {
		return CheckStatus{Status: statusDegraded, Message: "connection pool max connections not configured", Details: details}
	}

	utilization := float64(stats.InUse) / float64(stats.MaxOpenConnections) * 100
	details["utilization_percent"] = utilization
	if utilization >= 80.0 {
		return CheckStatus{Status: statusDegraded, Message: "connection pool utilization above 80%", Details: details}
	}
	return CheckStatus{Status: statusHealthy, Details: details}
}

func (h *HealthHandler) checkProviders() CheckStatus {
	details := make(map[string]any)
	configured := 0
	for _, p := range h.Providers.All() {
		details[p.Name()] = map[string]any{"configured": p.Configured()}
		if p.Configured() {
			configured++
		}
	}
	if configured == 0 {
		return CheckStatus{Status: statusDegraded, Message: "no image provider has credentials", Details: details}
	}
	return CheckStatus{Status: statusHealthy, Details: details}
}

func (h *HealthHandler) checkQueues() CheckStatus {
	details := make(map[string]any)
	status := statusHealthy
	now := time.Now().Unix()
	for _, q := range h.Queues {
		st := q.State()
		info := map[string]any{"depth": q.Len()}
		if st.Known {
			info["limit"] = st.Limit
			info["remaining"] = st.Remaining
			info["reset_at"] = st.ResetAt
			if st.Remaining <= 0 && st.ResetAt > now {
				status = statusDegraded
			}
		}
		details[q.Name()] = info
	}
	return CheckStatus{Status: status, Details: details}
}

// ReadyHandler answers readiness probes: 200 once the database responds.
type ReadyHandler struct {
	DB *sql.DB
}

func (h *ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if h.DB == nil {
		http.Error(w, "database not configured", http.StatusServiceUnavailable)
		return
	}
	if err := h.DB.PingContext(ctx); err != nil {
		http.Error(w, "database not ready", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// LiveHandler answers liveness probes.
type LiveHandler struct{}

func (h *LiveHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("alive"))
}
