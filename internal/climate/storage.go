// Package climate polls the hub's Meteo sensor and fans the readings
// out to MQTT and Redis for the rest of the platform.
package climate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/lookinops/lookin-platform/pkg/config"
	"github.com/lookinops/lookin-platform/pkg/redis"
)

const (
	// TTL for climate history; the sorted set also self-prunes by score.
	climateDataTTL = 24 * time.Hour

	// Max age for sorted set entries (24 hours in seconds)
	maxAgeSec = 24 * 60 * 60
)

// Reading is the stored and published form of one Meteo snapshot.
type Reading struct {
	DeviceID    string  `json:"device_id"`
	Location    string  `json:"location"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	Pressure    float64 `json:"pressure"`
	CollectedAt int64   `json:"collected_at"`
}

// Storage handles Redis storage operations for climate readings
type Storage struct {
	redis  redis.Client
	logger *slog.Logger
}

// NewStorage creates a new storage handler
func NewStorage(redisClient redis.Client, cfg *config.Config, logger *slog.Logger) *Storage {
	return &Storage{
		redis:  redisClient,
		logger: logger,
	}
}

// StoreReading appends a reading to the device's history sorted set and
// refreshes the metadata hash.
func (s *Storage) StoreReading(ctx context.Context, reading *Reading) error {
	key := redis.ClimateHistoryKey(reading.DeviceID)
	metaKey := redis.ClimateMetaKey(reading.DeviceID)

	jsonData, err := json.Marshal(reading)
	if err != nil {
		return fmt.Errorf("failed to marshal climate reading: %w", err)
	}

	// Add to sorted set with timestamp as score
	score := float64(reading.CollectedAt)
	if err := s.redis.ZAdd(ctx, key, score, jsonData); err != nil {
		return fmt.Errorf("failed to add climate reading to sorted set: %w", err)
	}

	// Update metadata
	if err := s.redis.HSet(ctx, metaKey, "last_update", strconv.FormatInt(reading.CollectedAt, 10)); err != nil {
		s.logger.Warn("Failed to update climate metadata", "device", reading.DeviceID, "error", err)
		// Don't fail the entire operation if metadata update fails
	}
	if err := s.redis.HSet(ctx, metaKey, "location", reading.Location); err != nil {
		s.logger.Warn("Failed to update climate metadata", "device", reading.DeviceID, "error", err)
	}

	// Clean old entries (older than 24 hours)
	maxAgeTimestamp := reading.CollectedAt - maxAgeSec
	if err := s.redis.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(maxAgeTimestamp, 10)); err != nil {
		s.logger.Warn("Failed to clean old climate readings", "device", reading.DeviceID, "error", err)
	}

	// Set TTL on both keys
	if err := s.redis.Expire(ctx, key, climateDataTTL); err != nil {
		return fmt.Errorf("failed to set TTL on climate history: %w", err)
	}
	if err := s.redis.Expire(ctx, metaKey, climateDataTTL); err != nil {
		s.logger.Warn("Failed to set TTL on climate metadata", "device", reading.DeviceID, "error", err)
	}

	count, err := s.redis.ZCard(ctx, key)
	if err != nil {
		s.logger.Warn("Failed to get climate buffer size", "device", reading.DeviceID, "error", err)
	} else {
		s.logger.Debug("Stored climate reading",
			"device", reading.DeviceID,
			"temperature", reading.Temperature,
			"buffer_size", count)
	}

	return nil
}

// History returns the readings stored for a device between two unix
// timestamps, oldest first.
func (s *Storage) History(ctx context.Context, deviceID string, from, to int64) ([]*Reading, error) {
	key := redis.ClimateHistoryKey(deviceID)

	members, err := s.redis.ZRangeByScoreWithScores(ctx, key, float64(from), float64(to))
	if err != nil {
		return nil, fmt.Errorf("failed to read climate history: %w", err)
	}

	readings := make([]*Reading, 0, len(members))
	for _, m := range members {
		var reading Reading
		if err := json.Unmarshal([]byte(m.Member), &reading); err != nil {
			s.logger.Warn("Skipping unreadable climate entry", "device", deviceID, "error", err)
			continue
		}
		readings = append(readings, &reading)
	}
	return readings, nil
}
