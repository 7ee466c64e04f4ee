package vectorizer

import (
	"context"
	"crypto/sha512"
	"encoding/binary"
	"math"

	"github.com/insurdesk/concierge/pkg/domain/interfaces"
	"github.com/insurdesk/concierge/pkg/domain/model"
)

// windowBytes is one 8-hex-character window of the digest
const windowBytes = 4

// Hash maps text to a deterministic unit-length vector of
// model.EmbeddingDimension elements. The vector is a repeatable fingerprint,
// not a semantic embedding.
//
// The SHA-384 digest is cut into 12 windows of 32 bits; dimension i takes
// window i mod 12, mapped linearly from [0, 0xFFFFFFFF] to [-1, 1].
func Hash(text string) []float32 {
	digest := sha512.Sum384([]byte(text))
	windows := len(digest) / windowBytes

	raw := make([]float64, model.EmbeddingDimension)
	for i := range raw {
		w := i % windows
		v := binary.BigEndian.Uint32(digest[w*windowBytes : (w+1)*windowBytes])
		raw[i] = float64(v)/math.MaxUint32*2 - 1
	}

	return normalize(raw)
}

// BatchHash applies Hash to each text, preserving order
func BatchHash(texts []string) [][]float32 {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = Hash(text)
	}
	return vectors
}

// normalize scales raw to unit length. An all-zero vector is returned as is.
func normalize(raw []float64) []float32 {
	var sum float64
	for _, v := range raw {
		sum += v * v
	}
	magnitude := math.Sqrt(sum)

	out := make([]float32, len(raw))
	for i, v := range raw {
		if magnitude == 0 {
			out[i] = float32(v)
			continue
		}
		out[i] = float32(v / magnitude)
	}
	return out
}

// HashVectorizer serves Hash through the Vectorizer and BatchEmbedder
// interfaces so it can be swapped for a real embedding model
type HashVectorizer struct{}

var (
	_ interfaces.Vectorizer    = HashVectorizer{}
	_ interfaces.BatchEmbedder = HashVectorizer{}
)

// NewHash returns the deterministic hash vectorizer
func NewHash() HashVectorizer {
	return HashVectorizer{}
}

func (HashVectorizer) Vectorize(_ context.Context, text string) ([]float32, error) {
	return Hash(text), nil
}

func (HashVectorizer) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	return BatchHash(texts), nil
}

func (HashVectorizer) Dimension() int {
	return model.EmbeddingDimension
}
