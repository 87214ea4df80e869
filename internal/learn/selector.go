package learn

import (
	"fmt"

	"github.com/lookinops/lookin-platform/internal/capture"
)

// LearnedCommand is the outcome of a successful learning session: the
// representative signal of the winning cluster plus how well supported
// it was.
type LearnedCommand struct {
	Signal       *capture.Capture
	MatchCount   int
	TotalSignals int
}

// LearningFailedError reports that no cluster reached the minimum
// support. TotalSignals tells the caller how much was captured, so a
// zero can be distinguished from a noisy session.
type LearningFailedError struct {
	TotalSignals   int
	MinClusterSize int
	LargestCluster int
}

func (e *LearningFailedError) Error() string {
	if e.TotalSignals == 0 {
		return "learning failed: no signals captured"
	}
	return fmt.Sprintf("learning failed: largest group has %d of %d signals, need %d matching",
		e.LargestCluster, e.TotalSignals, e.MinClusterSize)
}

// SelectorConfig controls which cluster, if any, wins a session.
type SelectorConfig struct {
	// MinClusterSize is the smallest cluster that can be accepted as a
	// learned command. Below two, a lone stray capture would win.
	MinClusterSize int
}

// Selector picks the learned command out of an aggregated session.
type Selector struct {
	cfg SelectorConfig
}

func NewSelector(cfg SelectorConfig) *Selector {
	return &Selector{cfg: cfg}
}

// Select returns the representative of the largest cluster meeting the
// minimum size. Ties go to the cluster opened earliest, which is the one
// whose representative was captured first. When no cluster qualifies the
// error is a *LearningFailedError.
func (s *Selector) Select(clusters []*Cluster) (*LearnedCommand, error) {
	total := 0
	for _, cl := range clusters {
		total += cl.Size()
	}

	var best *Cluster
	for _, cl := range clusters {
		if best == nil || cl.Size() > best.Size() {
			best = cl
		}
	}

	if best == nil || best.Size() < s.cfg.MinClusterSize {
		largest := 0
		if best != nil {
			largest = best.Size()
		}
		return nil, &LearningFailedError{
			TotalSignals:   total,
			MinClusterSize: s.cfg.MinClusterSize,
			LargestCluster: largest,
		}
	}

	return &LearnedCommand{
		Signal:       best.Representative,
		MatchCount:   best.Size(),
		TotalSignals: total,
	}, nil
}
