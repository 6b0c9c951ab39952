package similarity

import (
	"errors"
	"math"
)

var (
	ErrLengthMismatch = errors.New("vectors have different lengths")
	ErrZeroMagnitude  = errors.New("vector has zero magnitude")
)

// Cosine returns the cosine similarity of two equal-length vectors, in
// [-1, 1]. Callers must guarantee valid input: candidates without
// embeddings are filtered upstream and never reach this function.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, ErrLengthMismatch
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0, ErrZeroMagnitude
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))

	// Clamp accumulated float error back into the valid range
	if sim > 1 {
		sim = 1
	} else if sim < -1 {
		sim = -1
	}
	return sim, nil
}
