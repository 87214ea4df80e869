package remote

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lookinops/lookin-platform/internal/capture"
	"github.com/lookinops/lookin-platform/pkg/lookin"
	"github.com/lookinops/lookin-platform/pkg/redis"
)

// FunctionWriter is the slice of the hub API the sink needs. Satisfied
// by *lookin.Client.
type FunctionWriter interface {
	Function(ctx context.Context, uuid, name string) (*lookin.FunctionDetail, error)
	CreateFunction(ctx context.Context, uuid, name, functionType string, signals []lookin.FunctionSignal) error
	UpdateFunction(ctx context.Context, uuid, name, functionType string, signals []lookin.FunctionSignal) error
}

// Sink persists a learned command: onto the hub's virtual remote when
// the device cooperates, into the auxiliary file when the write fails
// transiently, and into Redis as a cache either way. Non-transient hub
// errors are returned as is, since retrying or stashing them locally
// would hide a real problem such as a bad remote UUID.
type Sink struct {
	hub      FunctionWriter
	aux      *AuxStore
	cache    redis.Client
	deviceID string
	logger   *slog.Logger
}

// cacheTTL keeps stale commands from lingering in Redis forever; the
// hub remains the source of truth.
const cacheTTL = 30 * 24 * time.Hour

func NewSink(hub FunctionWriter, aux *AuxStore, cache redis.Client, deviceID string, logger *slog.Logger) *Sink {
	return &Sink{
		hub:      hub,
		aux:      aux,
		cache:    cache,
		deviceID: deviceID,
		logger:   logger,
	}
}

// Store writes a learned signal as function on the given remote,
// creating or updating depending on whether the function exists.
func (s *Sink) Store(ctx context.Context, remoteUUID, function string, signal *capture.Capture) error {
	raw := lookin.RawSignal{
		Frequency: "38000",
		Signal:    signal.String(),
	}
	if signal.FrequencyHz != 0 {
		raw.Frequency = fmt.Sprintf("%d", signal.FrequencyHz)
	}
	signals := []lookin.FunctionSignal{{Raw: raw}}

	err := s.writeFunction(ctx, remoteUUID, function, signals)
	switch {
	case err == nil:
		s.logger.Info("Stored learned command on hub",
			"remote", remoteUUID,
			"function", function)
	case lookin.IsTransient(err) && s.aux != nil:
		s.logger.Warn("Hub write failed, saving to auxiliary data file",
			"remote", remoteUUID,
			"function", function,
			"error", err)
		if auxErr := s.aux.Save(remoteUUID, function, raw); auxErr != nil {
			return fmt.Errorf("hub write failed (%v) and aux save failed: %w", err, auxErr)
		}
	default:
		return fmt.Errorf("failed to store function %s on remote %s: %w", function, remoteUUID, err)
	}

	if s.cache != nil {
		key := redis.LearnedCommandKey(s.deviceID, remoteUUID, function)
		if cacheErr := s.cache.Set(ctx, key, raw.Signal, cacheTTL); cacheErr != nil {
			// Cache misses are survivable; the command is already durable.
			s.logger.Warn("Failed to cache learned command", "key", key, "error", cacheErr)
		}
	}

	return nil
}

// CachedFunctions lists function names held in the Redis cache for a
// remote. Pass "*" as the remote UUID to cover every remote on this
// device.
func (s *Sink) CachedFunctions(ctx context.Context, remoteUUID string) ([]string, error) {
	if s.cache == nil {
		return nil, nil
	}

	keys, err := s.cache.Keys(ctx, redis.LearnedCommandPattern(s.deviceID, remoteUUID))
	if err != nil {
		return nil, fmt.Errorf("failed to list cached commands: %w", err)
	}

	names := make([]string, 0, len(keys))
	for _, key := range keys {
		parts := strings.SplitN(key, ":", 4)
		if len(parts) != 4 {
			continue
		}
		names = append(names, parts[3])
	}
	return names, nil
}

// FlushAll retries hub writes for every stashed function across all
// remotes in the auxiliary file.
func (s *Sink) FlushAll(ctx context.Context) (int, error) {
	if s.aux == nil {
		return 0, nil
	}

	uuids, err := s.aux.Remotes()
	if err != nil {
		return 0, err
	}

	total := 0
	for _, uuid := range uuids {
		flushed, err := s.FlushAux(ctx, uuid)
		total += flushed
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// FlushAux retries hub writes for every function stashed in the
// auxiliary file for a remote, removing entries that make it through.
func (s *Sink) FlushAux(ctx context.Context, remoteUUID string) (int, error) {
	if s.aux == nil {
		return 0, nil
	}

	names, err := s.aux.Functions(remoteUUID)
	if err != nil {
		return 0, err
	}

	flushed := 0
	for _, name := range names {
		raw, ok, err := s.aux.Load(remoteUUID, name)
		if err != nil {
			return flushed, err
		}
		if !ok {
			continue
		}

		if err := s.writeFunction(ctx, remoteUUID, name, []lookin.FunctionSignal{{Raw: raw}}); err != nil {
			if lookin.IsTransient(err) {
				s.logger.Warn("Hub still unreachable, keeping aux entry",
					"remote", remoteUUID, "function", name)
				continue
			}
			return flushed, fmt.Errorf("failed to flush function %s: %w", name, err)
		}

		if err := s.aux.Delete(remoteUUID, name); err != nil {
			return flushed, err
		}
		flushed++
	}

	if flushed > 0 {
		s.logger.Info("Flushed auxiliary functions to hub",
			"remote", remoteUUID, "count", flushed)
	}
	return flushed, nil
}

func (s *Sink) writeFunction(ctx context.Context, remoteUUID, function string, signals []lookin.FunctionSignal) error {
	_, err := s.hub.Function(ctx, remoteUUID, function)
	if err == nil {
		return s.hub.UpdateFunction(ctx, remoteUUID, function, lookin.FunctionTypeSingle, signals)
	}
	if lookin.IsTransient(err) {
		return err
	}
	return s.hub.CreateFunction(ctx, remoteUUID, function, lookin.FunctionTypeSingle, signals)
}
