package health

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/lookinops/lookin-platform/pkg/mqtt"
	"github.com/lookinops/lookin-platform/pkg/redis"
)

// HubProbe reports whether the hub device answered its last poll.
type HubProbe func() bool

// Checker provides health check functionality for agents
type Checker struct {
	mqtt   mqtt.Client
	redis  redis.Client
	hub    HubProbe
	logger *slog.Logger
}

// NewChecker creates a new health checker with the given dependencies.
// Any dependency an agent does not carry may be nil.
func NewChecker(mqttClient mqtt.Client, redisClient redis.Client, hub HubProbe, logger *slog.Logger) *Checker {
	return &Checker{
		mqtt:   mqttClient,
		redis:  redisClient,
		hub:    hub,
		logger: logger,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp string    `json:"timestamp"`
	Services  *Services `json:"services,omitempty"`
}

// Services represents the status of external dependencies
type Services struct {
	Redis string `json:"redis"`
	MQTT  string `json:"mqtt"`
	Hub   string `json:"hub"`
}

// HandlerFunc returns an HTTP handler function for health checks.
// Returns 200 if the process is alive without checking dependencies,
// which keeps the probe cheap for the orchestrator.
func (h *Checker) HandlerFunc() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := HealthResponse{
			Status:    "ok",
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		if err := json.NewEncoder(w).Encode(response); err != nil {
			h.logger.Error("Failed to encode health response", "error", err)
		}
	}
}

// DetailedHandlerFunc returns a handler that checks all dependencies
func (h *Checker) DetailedHandlerFunc() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services := &Services{
			Redis: "unknown",
			MQTT:  "unknown",
			Hub:   "unknown",
		}

		if h.mqtt != nil && h.mqtt.IsConnected() {
			services.MQTT = "connected"
		} else {
			services.MQTT = "disconnected"
		}

		// Redis is not pinged here to keep the handler fast; presence
		// of a configured client is reported instead.
		if h.redis != nil {
			services.Redis = "connected"
		} else {
			services.Redis = "disconnected"
		}

		if h.hub != nil {
			if h.hub() {
				services.Hub = "reachable"
			} else {
				services.Hub = "unreachable"
			}
		}

		status := "healthy"
		statusCode := http.StatusOK

		if services.Redis == "disconnected" || services.MQTT == "disconnected" || services.Hub == "unreachable" {
			status = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		response := HealthResponse{
			Status:    status,
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			Services:  services,
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)

		if err := json.NewEncoder(w).Encode(response); err != nil {
			h.logger.Error("Failed to encode health response", "error", err)
		}
	}
}
