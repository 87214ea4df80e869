package capture

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lookinops/lookin-platform/pkg/lookin"
)

var (
	// ErrEmptyReading means the sensor was idle: no raw timing data yet
	ErrEmptyReading = errors.New("empty sensor reading")

	// ErrMalformedReading means the raw timing string could not be parsed
	ErrMalformedReading = errors.New("malformed sensor reading")
)

// Capture is one successfully parsed IR sensor reading. Sequence holds the
// signed timing trace in microseconds: positive samples are marks, negative
// samples are spaces, and the firmware terminates every trace with a large
// negative end marker. A Capture is immutable once created.
type Capture struct {
	Sequence    []int
	CapturedAt  time.Time
	FrequencyHz int
	// Updated is the hub's own timestamp for the reading, kept so the
	// poller can tell a fresh signal from a re-read of the same one.
	Updated string
}

// FromReading parses one IR sensor reading into a Capture. Protocol hints
// and the repetition flag on the reading are informational only and do not
// affect the parsed sequence.
func FromReading(reading *lookin.IRReading) (*Capture, error) {
	if reading == nil || strings.TrimSpace(reading.Raw) == "" {
		return nil, ErrEmptyReading
	}

	fields := strings.Fields(reading.Raw)
	sequence := make([]int, 0, len(fields))
	for _, field := range fields {
		sample, err := strconv.Atoi(field)
		if err != nil {
			return nil, fmt.Errorf("%w: bad sample %q: %v", ErrMalformedReading, field, err)
		}
		sequence = append(sequence, sample)
	}

	return &Capture{
		Sequence:   sequence,
		CapturedAt: time.Now().UTC(),
		Updated:    reading.Updated,
	}, nil
}

// Len returns the number of samples in the capture
func (c *Capture) Len() int {
	return len(c.Sequence)
}

// String renders the sequence back into the hub's whitespace-separated form
func (c *Capture) String() string {
	parts := make([]string, 0, len(c.Sequence))
	for _, sample := range c.Sequence {
		parts = append(parts, strconv.Itoa(sample))
	}
	return strings.Join(parts, " ")
}
