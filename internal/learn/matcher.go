// Package learn implements the IR command learning pipeline: it polls
// captured signals from a hub sensor, scores them pairwise, groups
// near-identical captures and selects the command the user was teaching.
package learn

import (
	"math"

	"github.com/lookinops/lookin-platform/internal/capture"
)

// MatcherConfig controls per-sample comparison of two captures.
type MatcherConfig struct {
	// SampleTolerance is the maximum relative magnitude difference for
	// two samples at the same position to count as matching.
	SampleTolerance float64
}

// Matcher scores pairs of captures. Scoring is symmetric and a capture
// always scores 1.0 against itself.
type Matcher struct {
	cfg MatcherConfig
}

func NewMatcher(cfg MatcherConfig) *Matcher {
	return &Matcher{cfg: cfg}
}

// Similarity returns the fraction of sample positions at which the two
// sequences agree, over the length of the longer sequence, plus whether
// the sequences have equal length. Positions past the end of the shorter
// sequence never match.
//
// Two samples agree when they carry the same sign (mark vs space) and
// their relative magnitude difference ||a|-|b|| / (|a|+|b|) is within
// the configured tolerance. A pair of zero samples agrees exactly.
func (m *Matcher) Similarity(a, b *capture.Capture) (float64, bool) {
	la, lb := a.Len(), b.Len()
	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 1.0, la == lb
	}

	shortest := la
	if lb < shortest {
		shortest = lb
	}

	matched := 0
	for i := 0; i < shortest; i++ {
		if m.samplesMatch(a.Sequence[i], b.Sequence[i]) {
			matched++
		}
	}

	return float64(matched) / float64(longest), la == lb
}

func (m *Matcher) samplesMatch(a, b int) bool {
	if a == 0 && b == 0 {
		return true
	}
	// Marks are positive, spaces negative. A mark never matches a space
	// regardless of magnitude.
	if (a > 0) != (b > 0) {
		return false
	}

	ma, mb := math.Abs(float64(a)), math.Abs(float64(b))
	return math.Abs(ma-mb)/(ma+mb) <= m.cfg.SampleTolerance
}
