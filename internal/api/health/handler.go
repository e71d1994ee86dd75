package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"stockwatch/internal/workers"
	"stockwatch/pkg/logger"
)

// Pinger is satisfied by *sqlx.DB
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Checker is satisfied by the redis adapter client
type Checker interface {
	Health(ctx context.Context) error
}

// WorkerHealthFunc reports background worker health
type WorkerHealthFunc func() []workers.WorkerHealth

// Handler provides health check endpoints
type Handler struct {
	log          *logger.Logger
	postgres     Pinger
	redis        Checker
	workerHealth WorkerHealthFunc
	startTime    time.Time
	serviceName  string
	version      string
}

// New creates a new health check handler. redis and workerHealth may be nil.
func New(
	log *logger.Logger,
	postgres Pinger,
	redis Checker,
	workerHealth WorkerHealthFunc,
	serviceName string,
	version string,
) *Handler {
	return &Handler{
		log:          log.With("component", "health"),
		postgres:     postgres,
		redis:        redis,
		workerHealth: workerHealth,
		startTime:    time.Now(),
		serviceName:  serviceName,
		version:      version,
	}
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status    string                     `json:"status"` // "healthy", "degraded", "unhealthy"
	Service   string                     `json:"service"`
	Version   string                     `json:"version"`
	Uptime    string                     `json:"uptime"`
	Timestamp string                     `json:"timestamp"`
	Checks    map[string]ComponentHealth `json:"checks"`
	Workers   []workers.WorkerHealth     `json:"workers,omitempty"`
}

// ComponentHealth represents health of a single component
type ComponentHealth struct {
	Status       string `json:"status"`
	ResponseTime string `json:"response_time,omitempty"`
	Error        string `json:"error,omitempty"`
}

// HandleLiveness returns 200 OK if service is running
func (h *Handler) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// HandleReadiness returns 503 unless every dependency answers
func (h *Handler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := h.runChecks(ctx)
	status := h.status(checks)

	statusCode := http.StatusOK
	for _, c := range checks {
		if c.Status != "healthy" {
			status.Status = "unhealthy"
			statusCode = http.StatusServiceUnavailable
			h.log.Warnw("Readiness check failed", "checks", checks)
			break
		}
	}

	writeJSON(w, statusCode, status)
}

// HandleHealth returns detailed status including worker run history.
// Postgres down is unhealthy; an optional dependency down is degraded.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	checks := h.runChecks(ctx)
	status := h.status(checks)
	if h.workerHealth != nil {
		status.Workers = h.workerHealth()
	}

	statusCode := http.StatusOK
	if checks["postgres"].Status != "healthy" {
		status.Status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	} else if rc, ok := checks["redis"]; ok && rc.Status != "healthy" {
		status.Status = "degraded"
	}

	writeJSON(w, statusCode, status)
}

func (h *Handler) status(checks map[string]ComponentHealth) HealthStatus {
	return HealthStatus{
		Status:    "healthy",
		Service:   h.serviceName,
		Version:   h.version,
		Uptime:    time.Since(h.startTime).String(),
		Timestamp: time.Now().Format(time.RFC3339),
		Checks:    checks,
	}
}

func (h *Handler) runChecks(ctx context.Context) map[string]ComponentHealth {
	checks := map[string]ComponentHealth{
		"postgres": h.check(ctx, "postgres", h.postgres.PingContext),
	}
	if h.redis != nil {
		checks["redis"] = h.check(ctx, "redis", h.redis.Health)
	}
	return checks
}

func (h *Handler) check(ctx context.Context, name string, ping func(context.Context) error) ComponentHealth {
	start := time.Now()
	err := ping(ctx)
	elapsed := time.Since(start)

	if err != nil {
		h.log.Errorw("Health check failed", "component_name", name, "error", err, "elapsed", elapsed)
		return ComponentHealth{
			Status:       "unhealthy",
			ResponseTime: elapsed.String(),
			Error:        err.Error(),
		}
	}

	return ComponentHealth{
		Status:       "healthy",
		ResponseTime: elapsed.String(),
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
