package interfaces

import "context"

// Vectorizer turns query text into a vector of Dimension() elements
type Vectorizer interface {
	Vectorize(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// BatchEmbedder embeds many texts in one call. The output is index aligned
// with texts.
type BatchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}
