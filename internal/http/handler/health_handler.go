package handler

import (
	"net/http"
	"time"

	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/health"
	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/http/response"
)

type HealthHandler struct {
	env       string
	startedAt time.Time
	readiness *health.ProbeRunner
}

func NewHealthHandler(env string, readiness *health.ProbeRunner) *HealthHandler {
	return &HealthHandler{env: env, startedAt: time.Now(), readiness: readiness}
}

type healthBody struct {
	Success     bool    `json:"success"`
	Message     string  `json:"message"`
	Timestamp   string  `json:"timestamp"`
	Uptime      float64 `json:"uptime"`
	Environment string  `json:"environment"`
}

// API answers GET /api/health. Uptime is in seconds.
func (h *HealthHandler) API(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, healthBody{
		Success:     true,
		Message:     "Server is healthy!",
		Timestamp:   time.Now().UTC().Format(time.RFC3339Nano),
		Uptime:      time.Since(h.startedAt).Seconds(),
		Environment: h.env,
	})
}

func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.readiness == nil {
		response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": []any{}})
		return
	}
	ready, results := h.readiness.Ready(r.Context())
	if ready {
		response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": results})
		return
	}
	response.Error(w, r, http.StatusServiceUnavailable, "DEPENDENCY_UNREADY", "dependencies are not ready", map[string]any{"checks": results})
}
