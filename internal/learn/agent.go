package learn

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lookinops/lookin-platform/internal/capture"
	"github.com/lookinops/lookin-platform/pkg/config"
	"github.com/lookinops/lookin-platform/pkg/mqtt"
	"github.com/lookinops/lookin-platform/pkg/redis"
)

// sessionMetaTTL bounds how long finished-session metadata stays
// queryable in Redis.
const sessionMetaTTL = 24 * time.Hour

// CommandStore persists a learned command. Satisfied by *remote.Sink.
type CommandStore interface {
	Store(ctx context.Context, remoteUUID, function string, signal *capture.Capture) error
}

// Archiver records finished sessions for later analysis. Satisfied by
// *archive.SessionStorage via its RecordResult method.
type Archiver interface {
	RecordResult(ctx context.Context, deviceID, remoteUUID, function string, result *SessionResult) error
}

// Request is the MQTT payload asking the agent to learn one command.
type Request struct {
	RemoteUUID string `json:"remote_uuid"`
	Function   string `json:"function"`
}

// Result is published once a session finishes, success or not.
type Result struct {
	SessionID    string `json:"session_id"`
	RemoteUUID   string `json:"remote_uuid"`
	Function     string `json:"function"`
	Status       string `json:"status"`
	Signal       string `json:"signal,omitempty"`
	FrequencyHz  int    `json:"frequency_hz,omitempty"`
	MatchCount   int    `json:"match_count,omitempty"`
	TotalSignals int    `json:"total_signals"`
	Error        string `json:"error,omitempty"`
}

// Result status values.
const (
	StatusLearned = "learned"
	StatusFailed  = "failed"
)

// Agent listens for learn requests, drives capture sessions against the
// hub and publishes the outcome. The hub handles one caller at a time,
// so sessions run strictly one after another.
type Agent struct {
	mqtt     mqtt.Client
	sensor   SensorSource
	store    CommandStore
	archiver Archiver
	cache    redis.Client
	cfg      *config.Config
	deviceID string
	logger   *slog.Logger

	sessionMu  sync.Mutex
	newSession func() *Session
}

// NewAgent creates a new learning agent with the given dependencies.
// The archiver may be nil when no Postgres archive is configured, and
// the cache may be nil to skip session metadata caching.
func NewAgent(mqttClient mqtt.Client, sensor SensorSource, store CommandStore, archiver Archiver, cache redis.Client, cfg *config.Config, deviceID string, logger *slog.Logger) *Agent {
	a := &Agent{
		mqtt:     mqttClient,
		sensor:   sensor,
		store:    store,
		archiver: archiver,
		cache:    cache,
		cfg:      cfg,
		deviceID: deviceID,
		logger:   logger,
	}
	a.newSession = func() *Session {
		return NewSession(a.sensor, a.cfg, a.logger)
	}
	return a
}

// Start starts the learning agent and begins accepting learn requests
func (a *Agent) Start(ctx context.Context) error {
	a.logger.Info("Starting learning agent",
		"service_name", a.cfg.ServiceName,
		"device_id", a.deviceID,
		"mqtt_broker", a.cfg.MQTTAddress())

	// Connect to MQTT broker
	if err := a.mqtt.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to MQTT: %w", err)
	}

	topic := mqtt.LearnRequestTopic(a.deviceID)
	if err := a.mqtt.Subscribe(topic, 1, func(msg mqtt.Message) {
		a.handleRequest(ctx, msg)
	}); err != nil {
		return fmt.Errorf("failed to subscribe to learn requests: %w", err)
	}

	a.logger.Info("Learning agent started and ready for requests", "topic", topic)

	// Block until context is cancelled
	<-ctx.Done()
	a.logger.Info("Learning agent stopping")

	return nil
}

// Stop gracefully stops the learning agent
func (a *Agent) Stop() error {
	a.logger.Info("Stopping learning agent")
	a.mqtt.Disconnect()
	return nil
}

// handleRequest runs one learning session for an incoming request
func (a *Agent) handleRequest(ctx context.Context, msg mqtt.Message) {
	if device := mqtt.DeviceFromTopic(msg.Topic()); device != a.deviceID {
		a.logger.Warn("Ignoring learn request addressed to another device",
			"topic", msg.Topic(),
			"device_id", a.deviceID)
		return
	}

	var req Request
	if err := json.Unmarshal(msg.Payload(), &req); err != nil {
		a.logger.Error("Failed to parse learn request", "topic", msg.Topic(), "error", err)
		return
	}
	if req.RemoteUUID == "" || req.Function == "" {
		a.logger.Error("Learn request missing remote_uuid or function",
			"payload", string(msg.Payload()))
		return
	}

	a.logger.Info("Learn request received",
		"remote", req.RemoteUUID,
		"function", req.Function)

	result := a.runSession(ctx, req)
	a.cacheSessionMeta(ctx, result)
	a.publishResult(result)
}

// cacheSessionMeta records the outcome of a finished session in Redis
// so operators can inspect recent sessions without the archive.
// Failures are non-fatal.
func (a *Agent) cacheSessionMeta(ctx context.Context, result *Result) {
	if a.cache == nil {
		return
	}

	key := redis.SessionMetaKey(result.SessionID)
	fields := map[string]interface{}{
		"status":        result.Status,
		"remote_uuid":   result.RemoteUUID,
		"function":      result.Function,
		"total_signals": result.TotalSignals,
		"match_count":   result.MatchCount,
		"error":         result.Error,
	}
	for field, value := range fields {
		if err := a.cache.HSet(ctx, key, field, value); err != nil {
			a.logger.Warn("Failed to cache session metadata",
				"session_id", result.SessionID, "error", err)
			return
		}
	}
	if err := a.cache.Expire(ctx, key, sessionMetaTTL); err != nil {
		a.logger.Warn("Failed to expire session metadata",
			"session_id", result.SessionID, "error", err)
	}
}

func (a *Agent) runSession(ctx context.Context, req Request) *Result {
	a.sessionMu.Lock()
	defer a.sessionMu.Unlock()

	session := a.newSession()

	result := &Result{
		SessionID:  session.ID,
		RemoteUUID: req.RemoteUUID,
		Function:   req.Function,
	}

	outcome, err := session.Run(ctx)
	if outcome != nil && a.archiver != nil {
		if archErr := a.archiver.RecordResult(ctx, a.deviceID, req.RemoteUUID, req.Function, outcome); archErr != nil {
			a.logger.Warn("Failed to archive session", "session_id", session.ID, "error", archErr)
		}
	}

	var failed *LearningFailedError
	switch {
	case err == nil:
		cmd := outcome.Command
		result.Status = StatusLearned
		result.Signal = cmd.Signal.String()
		result.FrequencyHz = cmd.Signal.FrequencyHz
		result.MatchCount = cmd.MatchCount
		result.TotalSignals = cmd.TotalSignals

		if storeErr := a.store.Store(ctx, req.RemoteUUID, req.Function, cmd.Signal); storeErr != nil {
			a.logger.Error("Failed to store learned command",
				"remote", req.RemoteUUID,
				"function", req.Function,
				"error", storeErr)
			result.Status = StatusFailed
			result.Error = storeErr.Error()
		}
	case errors.As(err, &failed):
		result.Status = StatusFailed
		result.TotalSignals = failed.TotalSignals
		result.Error = failed.Error()
	default:
		result.Status = StatusFailed
		result.Error = err.Error()
	}

	return result
}

func (a *Agent) publishResult(result *Result) {
	payload, err := json.Marshal(result)
	if err != nil {
		a.logger.Error("Failed to encode learn result", "error", err)
		return
	}

	topic := mqtt.LearnResultTopic(a.deviceID)
	if err := a.mqtt.Publish(topic, 1, false, payload); err != nil {
		a.logger.Error("Failed to publish learn result", "topic", topic, "error", err)
		return
	}

	a.logger.Info("Published learn result",
		"topic", topic,
		"session_id", result.SessionID,
		"status", result.Status)
}
