// Package archive keeps a durable record of learning sessions in
// PostgreSQL, with a pgvector signature per learned signal so similar
// commands can be found across sessions and devices.
package archive

import (
	"math"

	"github.com/pgvector/pgvector-go"

	"github.com/lookinops/lookin-platform/internal/capture"
)

// SignatureDims is the fixed dimensionality of signal signatures. IR
// sequences vary in length, so they are resampled onto this many
// buckets before storage.
const SignatureDims = 64

// Signature converts a capture into a fixed-length vector. Each bucket
// averages the signed samples it covers, then the whole vector is
// scaled to unit norm so cosine distance compares shape rather than
// carrier timing magnitude.
func Signature(c *capture.Capture) pgvector.Vector {
	out := make([]float32, SignatureDims)
	n := c.Len()
	if n == 0 {
		return pgvector.NewVector(out)
	}

	counts := make([]int, SignatureDims)
	for i, sample := range c.Sequence {
		bucket := i * SignatureDims / n
		if bucket >= SignatureDims {
			bucket = SignatureDims - 1
		}
		out[bucket] += float32(sample)
		counts[bucket]++
	}
	for i := range out {
		if counts[i] > 0 {
			out[i] /= float32(counts[i])
		}
	}

	var norm float64
	for _, v := range out {
		norm += float64(v) * float64(v)
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range out {
			out[i] = float32(float64(out[i]) / norm)
		}
	}

	return pgvector.NewVector(out)
}
