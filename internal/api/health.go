package api

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/snarg/yt-scribe/internal/backend"
	"github.com/snarg/yt-scribe/internal/store"
)

// HealthResponse reports service status and per-dependency checks.
type HealthResponse struct {
	Status        string            `json:"status"`
	Version       string            `json:"version"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	Services      []string          `json:"services"`
	Checks        map[string]string `json:"checks"`
}

// healthChecker is implemented by stores that can verify their backing
// connection (the Postgres driver). The file store has nothing to check.
type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

// connChecker is implemented by the optional MQTT publisher.
type connChecker interface {
	IsConnected() bool
}

type HealthHandler struct {
	store     store.Store
	mqtt      connChecker
	providers map[string]backend.Provider
	version   string
	startTime time.Time
}

func NewHealthHandler(st store.Store, mqtt connChecker, providers map[string]backend.Provider, version string, startTime time.Time) *HealthHandler {
	return &HealthHandler{
		store:     st,
		mqtt:      mqtt,
		providers: providers,
		version:   version,
		startTime: startTime,
	}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)
	status := "healthy"
	httpStatus := http.StatusOK

	// Store check
	if hc, ok := h.store.(healthChecker); ok {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		if err := hc.HealthCheck(ctx); err != nil {
			checks["store"] = "error"
			status = "unhealthy"
			httpStatus = http.StatusServiceUnavailable
		} else {
			checks["store"] = "ok"
		}
		cancel()
	} else {
		checks["store"] = "ok"
	}

	// MQTT check
	if h.mqtt != nil {
		if h.mqtt.IsConnected() {
			checks["mqtt"] = "ok"
		} else {
			checks["mqtt"] = "disconnected"
			if status == "healthy" {
				status = "degraded"
			}
		}
	} else {
		checks["mqtt"] = "not_configured"
	}

	services := make([]string, 0, len(h.providers))
	for name := range h.providers {
		services = append(services, name)
	}
	sort.Strings(services)

	WriteJSON(w, httpStatus, HealthResponse{
		Status:        status,
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Services:      services,
		Checks:        checks,
	})
}
