package climate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/lookinops/lookin-platform/pkg/config"
	"github.com/lookinops/lookin-platform/pkg/lookin"
	"github.com/lookinops/lookin-platform/pkg/mqtt"
	"github.com/lookinops/lookin-platform/pkg/redis"
)

// MeteoSource reads the hub's climate sensor. Satisfied by
// *lookin.Client.
type MeteoSource interface {
	MeteoSensor(ctx context.Context) (*lookin.MeteoReading, error)
}

// Agent polls the hub Meteo sensor on an interval and publishes each
// reading to MQTT while keeping a rolling history in Redis.
type Agent struct {
	mqtt     mqtt.Client
	redis    redis.Client
	source   MeteoSource
	storage  *Storage
	cfg      *config.Config
	deviceID string
	logger   *slog.Logger
}

// NewAgent creates a new climate agent with the given dependencies
func NewAgent(mqttClient mqtt.Client, redisClient redis.Client, source MeteoSource, cfg *config.Config, deviceID string, logger *slog.Logger) *Agent {
	return &Agent{
		mqtt:     mqttClient,
		redis:    redisClient,
		source:   source,
		storage:  NewStorage(redisClient, cfg, logger),
		cfg:      cfg,
		deviceID: deviceID,
		logger:   logger,
	}
}

// Start starts the climate agent's polling loop
func (a *Agent) Start(ctx context.Context) error {
	a.logger.Info("Starting climate agent",
		"service_name", a.cfg.ServiceName,
		"device_id", a.deviceID,
		"interval_sec", a.cfg.ClimateIntervalSec)

	// Connect to MQTT broker
	if err := a.mqtt.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to MQTT: %w", err)
	}

	// Verify Redis connection
	if err := a.redis.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}

	interval := time.Duration(a.cfg.ClimateIntervalSec) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Take one reading immediately so the platform is not blind for a
	// full interval after startup.
	a.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("Climate agent stopping")
			return nil
		case <-ticker.C:
			a.poll(ctx)
		}
	}
}

// Stop gracefully stops the climate agent
func (a *Agent) Stop() error {
	a.logger.Info("Stopping climate agent")

	a.mqtt.Disconnect()

	if err := a.redis.Close(); err != nil {
		a.logger.Error("Error closing Redis connection", "error", err)
		return err
	}

	return nil
}

// poll reads the Meteo sensor once and fans the reading out
func (a *Agent) poll(ctx context.Context) {
	meteo, err := a.source.MeteoSensor(ctx)
	if err != nil {
		if lookin.IsTransient(err) {
			a.logger.Warn("Transient Meteo read failure", "error", err)
		} else {
			a.logger.Error("Failed to read Meteo sensor", "error", err)
		}
		return
	}

	reading := &Reading{
		DeviceID:    a.deviceID,
		Location:    a.cfg.Location,
		Temperature: meteo.Temperature,
		Humidity:    meteo.Humidity,
		Pressure:    meteo.Pressure,
		CollectedAt: time.Now().Unix(),
	}

	if err := a.storage.StoreReading(ctx, reading); err != nil {
		a.logger.Error("Failed to store climate reading", "error", err)
		// Continue to publish even if storage fails
	}

	if err := a.publish(reading); err != nil {
		a.logger.Error("Failed to publish climate reading", "error", err)
	}

	a.logger.Info("Climate reading processed",
		"temperature", reading.Temperature,
		"humidity", reading.Humidity,
		"pressure", reading.Pressure)
}

// publish sends the reading to the device's climate topic
func (a *Agent) publish(reading *Reading) error {
	payload, err := json.Marshal(reading)
	if err != nil {
		return fmt.Errorf("failed to encode climate reading: %w", err)
	}

	topic := mqtt.ClimateTopic(a.deviceID)
	if err := a.mqtt.Publish(topic, 0, false, payload); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}
