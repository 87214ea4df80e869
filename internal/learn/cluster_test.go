package learn

import (
	"testing"

	"github.com/lookinops/lookin-platform/internal/capture"
)

func newTestAggregator(threshold float64, equalLen bool) *Aggregator {
	m := NewMatcher(MatcherConfig{SampleTolerance: 0.10})
	return NewAggregator(m, AggregatorConfig{
		MatchThreshold:     threshold,
		RequireEqualLength: equalLen,
	})
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name      string
		captures  []*capture.Capture
		wantSizes []int
	}{
		{
			name:      "no captures",
			captures:  nil,
			wantSizes: nil,
		},
		{
			name:      "single capture single cluster",
			captures:  []*capture.Capture{seq(8980, -4470, 550)},
			wantSizes: []int{1},
		},
		{
			name: "identical repetitions merge",
			captures: []*capture.Capture{
				seq(8980, -4470, 550, -600),
				seq(8980, -4470, 550, -600),
				seq(8980, -4470, 550, -600),
			},
			wantSizes: []int{3},
		},
		{
			name: "two distinct commands split",
			captures: []*capture.Capture{
				seq(8980, -4470, 550, -600),
				seq(4500, -4500, 550, -1650),
				seq(8980, -4470, 550, -600),
			},
			wantSizes: []int{2, 1},
		},
		{
			name: "jitter within tolerance stays together",
			captures: []*capture.Capture{
				seq(9000, -4500, 550, -600),
				seq(8950, -4460, 545, -610),
				seq(9020, -4480, 555, -595),
			},
			wantSizes: []int{3},
		},
		{
			name: "truncated capture opens its own cluster",
			captures: []*capture.Capture{
				seq(8980, -4470, 550, -600),
				seq(8980, -4470),
				seq(8980, -4470, 550, -600),
			},
			wantSizes: []int{2, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := newTestAggregator(0.98, true)

			clusters := agg.Aggregate(tt.captures)
			if len(clusters) != len(tt.wantSizes) {
				t.Fatalf("Aggregate() clusters = %d, want %d", len(clusters), len(tt.wantSizes))
			}
			for i, want := range tt.wantSizes {
				if clusters[i].Size() != want {
					t.Errorf("cluster %d size = %d, want %d", i, clusters[i].Size(), want)
				}
			}
		})
	}
}

func TestAggregateRepresentativeIsFirstMember(t *testing.T) {
	agg := newTestAggregator(0.98, true)

	first := seq(9000, -4500, 550, -600)
	captures := []*capture.Capture{
		first,
		seq(8950, -4460, 545, -610),
		seq(9020, -4480, 555, -595),
	}

	clusters := agg.Aggregate(captures)
	if len(clusters) != 1 {
		t.Fatalf("Aggregate() clusters = %d, want 1", len(clusters))
	}
	if clusters[0].Representative != first {
		t.Error("representative is not the first assigned capture")
	}
	if clusters[0].Members[0] != first {
		t.Error("first member is not the first assigned capture")
	}
}

func TestAggregateJoinsBestMatchingCluster(t *testing.T) {
	// Both representatives clear the threshold, but the later cluster
	// scores higher (0.75 vs 0.50): the capture belongs there, not in
	// the first cluster that happens to match.
	m := NewMatcher(MatcherConfig{SampleTolerance: 0.10})
	agg := NewAggregator(m, AggregatorConfig{MatchThreshold: 0.5, RequireEqualLength: true})

	a := seq(1000, -1000, 500, -500)
	b := seq(9000, -9000, 500, -2000)
	sample := seq(9000, -1000, 500, -2000)

	clusters := agg.Aggregate([]*capture.Capture{a, b, sample})
	if len(clusters) != 2 {
		t.Fatalf("Aggregate() clusters = %d, want 2", len(clusters))
	}
	if clusters[0].Size() != 1 || clusters[1].Size() != 2 {
		t.Errorf("cluster sizes = [%d %d], want [1 2]",
			clusters[0].Size(), clusters[1].Size())
	}
}

func TestAggregateTieGoesToEarliestCluster(t *testing.T) {
	// The capture scores exactly 0.75 against both representatives, so
	// the earlier cluster wins the tie.
	m := NewMatcher(MatcherConfig{SampleTolerance: 0.10})
	agg := NewAggregator(m, AggregatorConfig{MatchThreshold: 0.7, RequireEqualLength: true})

	a := seq(1000, -1000, 500, -500)
	b := seq(1000, -1000, 2000, -2000)
	sample := seq(1000, -1000, 500, -2000)

	clusters := agg.Aggregate([]*capture.Capture{a, b, sample})
	if len(clusters) != 2 {
		t.Fatalf("Aggregate() clusters = %d, want 2", len(clusters))
	}
	if clusters[0].Size() != 2 || clusters[1].Size() != 1 {
		t.Errorf("cluster sizes = [%d %d], want [2 1]",
			clusters[0].Size(), clusters[1].Size())
	}
}

func TestAggregateEqualLengthGate(t *testing.T) {
	long := seq(1000, -1000, 1000, -1000, 1000, -1000, 1000, -1000, 1000, -1000)
	short := seq(1000, -1000, 1000, -1000, 1000, -1000, 1000, -1000, 1000)

	// Nine of ten positions agree, so the score clears a 0.90 threshold
	// and only the length gate separates the two.
	strict := newTestAggregator(0.90, true)
	if got := len(strict.Aggregate([]*capture.Capture{long, short})); got != 2 {
		t.Errorf("strict length gate: clusters = %d, want 2", got)
	}

	loose := newTestAggregator(0.90, false)
	if got := len(loose.Aggregate([]*capture.Capture{long, short})); got != 1 {
		t.Errorf("without length gate: clusters = %d, want 1", got)
	}
}

func TestAggregateDeterministic(t *testing.T) {
	agg := newTestAggregator(0.98, true)

	captures := []*capture.Capture{
		seq(8980, -4470, 550, -600),
		seq(4500, -4500, 550, -1650),
		seq(8980, -4470, 550, -600),
		seq(4500, -4500, 550, -1650),
		seq(8980, -4470, 550, -600),
	}

	first := agg.Aggregate(captures)
	second := agg.Aggregate(captures)

	if len(first) != len(second) {
		t.Fatalf("cluster counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Size() != second[i].Size() {
			t.Errorf("cluster %d size differs: %d vs %d", i, first[i].Size(), second[i].Size())
		}
		if first[i].Representative != second[i].Representative {
			t.Errorf("cluster %d representative differs", i)
		}
	}
}
