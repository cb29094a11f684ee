package api

import (
	"context"
	"net/http"
	"time"
)

// ReadyChecker reports whether the recognition model can serve.
type ReadyChecker interface {
	Ready() bool
}

// HealthChecker is a pingable dependency.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type HealthResponse struct {
	Status        string            `json:"status"`
	Version       string            `json:"version"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	Checks        map[string]string `json:"checks"`
}

type HealthHandler struct {
	recognizer ReadyChecker
	store      HealthChecker
	db         HealthChecker
	version    string
	startTime  time.Time
}

// NewHealthHandler wires the health checks. db may be nil when attempt
// persistence is disabled; store may be nil in recognition-only deployments.
func NewHealthHandler(recognizer ReadyChecker, store, db HealthChecker, version string, startTime time.Time) *HealthHandler {
	return &HealthHandler{
		recognizer: recognizer,
		store:      store,
		db:         db,
		version:    version,
		startTime:  startTime,
	}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)
	status := "healthy"
	httpStatus := http.StatusOK

	// Model check. A missing model is fatal for the STT endpoints.
	if h.recognizer != nil && h.recognizer.Ready() {
		checks["vosk_model"] = "ok"
	} else {
		checks["vosk_model"] = "not_loaded"
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	// Object store check. TTS degrades without it, STT keeps working.
	if h.store != nil {
		if err := h.store.HealthCheck(r.Context()); err != nil {
			checks["object_store"] = "error"
			if status == "healthy" {
				status = "degraded"
			}
		} else {
			checks["object_store"] = "ok"
		}
	} else {
		checks["object_store"] = "not_configured"
	}

	// Database check, only when attempt persistence is on.
	if h.db != nil {
		if err := h.db.HealthCheck(r.Context()); err != nil {
			checks["database"] = "error"
			if status == "healthy" {
				status = "degraded"
			}
		} else {
			checks["database"] = "ok"
		}
	} else {
		checks["database"] = "not_configured"
	}

	WriteJSON(w, httpStatus, HealthResponse{
		Status:        status,
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Checks:        checks,
	})
}
