package vectorizer

import (
	"math"

	"github.com/insurdesk/concierge/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

// CosineSimilarity returns the normalized dot product of a and b. It fails
// when the lengths differ and returns 0 when either vector has no magnitude.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, goerr.Wrap(model.ErrValidation, "vector dimensions differ",
			goerr.V("a", len(a)),
			goerr.V("b", len(b)),
		)
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0, nil
	}

	return dot / denom, nil
}

// Normalize returns v scaled to unit length, or v unchanged if it is zero
func Normalize(v []float32) []float32 {
	raw := make([]float64, len(v))
	for i, x := range v {
		raw[i] = float64(x)
	}
	return normalize(raw)
}
