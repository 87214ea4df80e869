package learn

import (
	"math"
	"testing"

	"github.com/lookinops/lookin-platform/internal/capture"
)

func seq(samples ...int) *capture.Capture {
	return &capture.Capture{Sequence: samples}
}

func TestSimilarity(t *testing.T) {
	m := NewMatcher(MatcherConfig{SampleTolerance: 0.10})

	tests := []struct {
		name       string
		a, b       *capture.Capture
		wantScore  float64
		wantEqLen  bool
	}{
		{
			name:      "identical sequences",
			a:         seq(8980, -4470, 550, -600),
			b:         seq(8980, -4470, 550, -600),
			wantScore: 1.0,
			wantEqLen: true,
		},
		{
			name:      "within tolerance jitter",
			a:         seq(9000, -4500, 550),
			b:         seq(8900, -4400, 560),
			wantScore: 1.0,
			wantEqLen: true,
		},
		{
			name:      "one sample out of tolerance",
			a:         seq(9000, -4500, 550, -600),
			b:         seq(9000, -4500, 1200, -600),
			wantScore: 0.75,
			wantEqLen: true,
		},
		{
			name:      "sign mismatch never matches",
			a:         seq(550, -550),
			b:         seq(550, 550),
			wantScore: 0.5,
			wantEqLen: true,
		},
		{
			name:      "length mismatch penalizes tail",
			a:         seq(8980, -4470, 550, -600, 550, -45000),
			b:         seq(8980, -4470, 550),
			wantScore: 0.5,
			wantEqLen: false,
		},
		{
			name:      "both empty",
			a:         seq(),
			b:         seq(),
			wantScore: 1.0,
			wantEqLen: true,
		},
		{
			name:      "empty against non-empty",
			a:         seq(),
			b:         seq(550, -600),
			wantScore: 0.0,
			wantEqLen: false,
		},
		{
			name:      "boundary exactly at tolerance",
			a:         seq(1100),
			b:         seq(900),
			wantScore: 1.0,
			wantEqLen: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, eqLen := m.Similarity(tt.a, tt.b)
			if math.Abs(score-tt.wantScore) > 1e-9 {
				t.Errorf("Similarity() score = %v, want %v", score, tt.wantScore)
			}
			if eqLen != tt.wantEqLen {
				t.Errorf("Similarity() equal length = %v, want %v", eqLen, tt.wantEqLen)
			}
		})
	}
}

func TestSimilaritySymmetric(t *testing.T) {
	m := NewMatcher(MatcherConfig{SampleTolerance: 0.10})

	pairs := [][2]*capture.Capture{
		{seq(8980, -4470, 550, -600), seq(9100, -4400, 540)},
		{seq(550, -600, 550), seq(550, -600, 550, -45000)},
		{seq(1000, -1000), seq(-1000, 1000)},
	}

	for _, p := range pairs {
		ab, abLen := m.Similarity(p[0], p[1])
		ba, baLen := m.Similarity(p[1], p[0])
		if ab != ba || abLen != baLen {
			t.Errorf("Similarity not symmetric: (%v,%v) vs (%v,%v)", ab, abLen, ba, baLen)
		}
	}
}

func TestSimilaritySelf(t *testing.T) {
	m := NewMatcher(MatcherConfig{SampleTolerance: 0.10})

	c := seq(8980, -4470, 550, -600, 550, -45000)
	score, eqLen := m.Similarity(c, c)
	if score != 1.0 || !eqLen {
		t.Errorf("self similarity = (%v,%v), want (1.0,true)", score, eqLen)
	}
}

func TestSimilarityZeroTolerance(t *testing.T) {
	m := NewMatcher(MatcherConfig{SampleTolerance: 0})

	score, _ := m.Similarity(seq(1000, -500), seq(1000, -500))
	if score != 1.0 {
		t.Errorf("exact sequences at zero tolerance = %v, want 1.0", score)
	}

	score, _ = m.Similarity(seq(1000), seq(1001))
	if score != 0.0 {
		t.Errorf("off-by-one at zero tolerance = %v, want 0.0", score)
	}
}
