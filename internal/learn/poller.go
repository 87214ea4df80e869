package learn

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/lookinops/lookin-platform/internal/capture"
	"github.com/lookinops/lookin-platform/pkg/lookin"
)

// SensorSource reads the current state of a hub IR sensor. It is
// satisfied by *lookin.Client.
type SensorSource interface {
	IRSensor(ctx context.Context) (*lookin.IRReading, error)
}

// PollerConfig bounds a capture session.
type PollerConfig struct {
	// PollInterval is the spacing between sensor reads.
	PollInterval time.Duration

	// MaxDuration ends the session after this much wall time even when
	// fewer than MaxSignals captures arrived.
	MaxDuration time.Duration

	// MaxSignals ends the session once this many captures were
	// collected. Zero means no count limit.
	MaxSignals int
}

// CollectSummary describes what happened during a session, for
// diagnostics and for the failure report when nothing usable arrived.
type CollectSummary struct {
	Polls           int
	Captures        int
	Duplicates      int
	Malformed       int
	TransientFaults int
}

// Poller repeatedly reads an IR sensor and turns fresh readings into
// captures.
type Poller struct {
	source SensorSource
	cfg    PollerConfig
	logger *slog.Logger
}

func NewPoller(source SensorSource, cfg PollerConfig, logger *slog.Logger) *Poller {
	return &Poller{source: source, cfg: cfg, logger: logger}
}

// Collect polls the sensor until the duration elapses, the signal count
// limit is reached or the context is cancelled, whichever comes first.
// Transient hub failures and unparseable readings are counted and
// skipped rather than aborting the session. A reading whose update
// stamp equals the previous accepted reading's stamp is the same
// physical press still sitting in the sensor buffer and is dropped.
//
// Cancellation is not an error: whatever was collected so far is
// returned. Only a non-transient hub failure aborts.
func (p *Poller) Collect(ctx context.Context) ([]*capture.Capture, CollectSummary, error) {
	deadline := time.Now().Add(p.cfg.MaxDuration)

	var (
		captures []*capture.Capture
		summary  CollectSummary
		lastSeen string
	)

	// Interval zero means poll back to back; the ticker still needs a
	// positive period.
	interval := p.cfg.PollInterval
	if interval <= 0 {
		interval = time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		summary.Polls++

		reading, err := p.source.IRSensor(ctx)
		switch {
		case err == nil:
			c, parseErr := capture.FromReading(reading)
			switch {
			case parseErr == nil && reading.Updated != "" && reading.Updated == lastSeen:
				summary.Duplicates++
			case parseErr == nil:
				lastSeen = reading.Updated
				captures = append(captures, c)
				summary.Captures++
				p.logger.Debug("Captured IR signal",
					"samples", c.Len(),
					"updated", c.Updated,
					"count", len(captures))
			case errors.Is(parseErr, capture.ErrEmptyReading):
				// Sensor idle, nothing pressed since the last read.
			default:
				summary.Malformed++
				p.logger.Warn("Skipping malformed IR reading", "error", parseErr)
			}
		case lookin.IsTransient(err):
			summary.TransientFaults++
			p.logger.Warn("Transient sensor read failure", "error", err)
		case ctx.Err() != nil:
			return captures, summary, nil
		default:
			return captures, summary, err
		}

		if p.cfg.MaxSignals > 0 && len(captures) >= p.cfg.MaxSignals {
			return captures, summary, nil
		}
		if !time.Now().Before(deadline) {
			return captures, summary, nil
		}

		select {
		case <-ctx.Done():
			return captures, summary, nil
		case <-ticker.C:
		}
	}
}
