package learn

import (
	"github.com/lookinops/lookin-platform/internal/capture"
)

// AggregatorConfig controls how scored captures are grouped.
type AggregatorConfig struct {
	// MatchThreshold is the minimum similarity score against a cluster
	// representative for a capture to join that cluster.
	MatchThreshold float64

	// RequireEqualLength additionally rejects membership when the
	// capture and representative differ in sample count, regardless
	// of score.
	RequireEqualLength bool
}

// Cluster is a group of captures judged to be repetitions of the same
// command. The representative is the first capture assigned to the
// cluster and is the signal reported when the cluster wins selection.
type Cluster struct {
	Representative *capture.Capture
	Members        []*capture.Capture
}

// Size returns the member count, representative included.
func (c *Cluster) Size() int {
	return len(c.Members)
}

// Aggregator groups captures by similarity to fixed representatives.
type Aggregator struct {
	matcher *Matcher
	cfg     AggregatorConfig
}

func NewAggregator(matcher *Matcher, cfg AggregatorConfig) *Aggregator {
	return &Aggregator{matcher: matcher, cfg: cfg}
}

// Aggregate assigns each capture, in input order, to the existing
// cluster whose representative scores highest against it, provided
// that score clears the threshold; exact score ties go to the
// earliest-created cluster. A capture matching no representative opens
// a new cluster as its representative. Representatives never change
// once a cluster is opened, so the grouping is deterministic for a
// given input order.
func (a *Aggregator) Aggregate(captures []*capture.Capture) []*Cluster {
	var clusters []*Cluster

	for _, c := range captures {
		best := -1
		bestScore := 0.0
		for i, cl := range clusters {
			score, ok := a.score(c, cl.Representative)
			if !ok {
				continue
			}
			if best < 0 || score > bestScore {
				best = i
				bestScore = score
			}
		}
		if best >= 0 {
			clusters[best].Members = append(clusters[best].Members, c)
			continue
		}
		clusters = append(clusters, &Cluster{
			Representative: c,
			Members:        []*capture.Capture{c},
		})
	}

	return clusters
}

func (a *Aggregator) score(c, rep *capture.Capture) (float64, bool) {
	score, sameLen := a.matcher.Similarity(c, rep)
	if a.cfg.RequireEqualLength && !sameLen {
		return 0, false
	}
	return score, score >= a.cfg.MatchThreshold
}
