package learn

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lookinops/lookin-platform/pkg/config"
)

// Session runs one learning attempt end to end: capture, grouping,
// selection. Sessions are single use.
type Session struct {
	ID         string
	poller     *Poller
	aggregator *Aggregator
	selector   *Selector
	logger     *slog.Logger
}

// SessionResult is everything a session produced, kept for reporting
// and archival even when selection failed.
type SessionResult struct {
	SessionID string
	Command   *LearnedCommand
	Clusters  []*Cluster
	Summary   CollectSummary
	StartedAt time.Time
	Duration  time.Duration
}

// NewSession wires a session from service configuration. The sensor
// source is passed separately so tests can substitute a scripted one.
func NewSession(source SensorSource, cfg *config.Config, logger *slog.Logger) *Session {
	id := uuid.New().String()
	logger = logger.With("session_id", id)

	matcher := NewMatcher(MatcherConfig{
		SampleTolerance: cfg.LearnSampleTolerance,
	})

	return &Session{
		ID: id,
		poller: NewPoller(source, PollerConfig{
			PollInterval: time.Duration(cfg.LearnPollIntervalSec) * time.Second,
			MaxDuration:  time.Duration(cfg.LearnDurationSec) * time.Second,
			MaxSignals:   cfg.LearnMaxSignals,
		}, logger),
		aggregator: NewAggregator(matcher, AggregatorConfig{
			MatchThreshold:     cfg.LearnMatchThreshold,
			RequireEqualLength: cfg.LearnRequireEqualLength,
		}),
		selector: NewSelector(SelectorConfig{
			MinClusterSize: cfg.LearnMinClusterSize,
		}),
		logger: logger,
	}
}

// Run executes the session. When no command can be selected the result
// still carries the clusters and summary, and the error is a
// *LearningFailedError wrapped with session context.
func (s *Session) Run(ctx context.Context) (*SessionResult, error) {
	start := time.Now()
	s.logger.Info("Learning session started")

	captures, summary, err := s.poller.Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("capture phase: %w", err)
	}

	s.logger.Info("Capture phase complete",
		"polls", summary.Polls,
		"captures", summary.Captures,
		"duplicates", summary.Duplicates,
		"malformed", summary.Malformed,
		"transient_faults", summary.TransientFaults)

	clusters := s.aggregator.Aggregate(captures)
	for i, cl := range clusters {
		s.logger.Debug("Signal group",
			"group", i,
			"size", cl.Size(),
			"samples", cl.Representative.Len())
	}

	result := &SessionResult{
		SessionID: s.ID,
		Clusters:  clusters,
		Summary:   summary,
		StartedAt: start,
		Duration:  time.Since(start),
	}

	command, err := s.selector.Select(clusters)
	if err != nil {
		s.logger.Warn("Learning session failed",
			"signals", summary.Captures,
			"groups", len(clusters),
			"error", err)
		return result, fmt.Errorf("session %s: %w", s.ID, err)
	}

	result.Command = command
	s.logger.Info("Learning session succeeded",
		"matches", command.MatchCount,
		"signals", command.TotalSignals,
		"samples", command.Signal.Len(),
		"duration", result.Duration)

	return result, nil
}
