package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

const (
	healthy       = "healthy"
	unhealthy     = "unhealthy"
	notConfigured = "not configured"

	healthCheckTimeout = 5 * time.Second
)

// DatabasePinger is satisfied by *database.DB
type DatabasePinger interface {
	PingContext(ctx context.Context) error
}

// CachePinger is satisfied by *cache.Client
type CachePinger interface {
	Ping(ctx context.Context) error
}

// HealthChecker handles health check requests
type HealthChecker struct {
	db    DatabasePinger
	cache CachePinger
}

// NewHealthChecker creates a health checker. cache may be nil when Redis is
// not configured.
func NewHealthChecker(db DatabasePinger, cache CachePinger) *HealthChecker {
	return &HealthChecker{db: db, cache: cache}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthCheck handles the /healthz endpoint. Basic mode only says the
// process is serving; ?mode=extended pings every backing service.
func (h *HealthChecker) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    healthy,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	statusCode := http.StatusOK
	if r.URL.Query().Get("mode") == "extended" {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		checks := map[string]string{
			"database": checkDependency(ctx, h.db.PingContext),
			"redis":    notConfigured,
		}
		if h.cache != nil {
			checks["redis"] = checkDependency(ctx, h.cache.Ping)
		}

		for _, status := range checks {
			if status != healthy && status != notConfigured {
				response.Status = unhealthy
				statusCode = http.StatusServiceUnavailable
			}
		}
		response.Checks = checks
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(response)
}

func checkDependency(ctx context.Context, ping func(context.Context) error) string {
	if err := ping(ctx); err != nil {
		// connection details stay in the logs
		return unhealthy
	}
	return healthy
}
