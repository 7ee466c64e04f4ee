package vectorizer

import (
	"context"

	"github.com/insurdesk/concierge/pkg/domain/interfaces"
	"github.com/insurdesk/concierge/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

// EmbeddingClient is the embedding part of gollem.LLMClient
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, dimension int, input []string) ([][]float64, error)
}

// LLMVectorizer requests embeddings from an LLM provider (Gemini via gollem)
// and normalizes them so stored vectors stay unit length
type LLMVectorizer struct {
	client    EmbeddingClient
	dimension int
}

var (
	_ interfaces.Vectorizer    = (*LLMVectorizer)(nil)
	_ interfaces.BatchEmbedder = (*LLMVectorizer)(nil)
)

// NewLLM wraps client. The requested dimension is model.EmbeddingDimension.
func NewLLM(client EmbeddingClient) (*LLMVectorizer, error) {
	if client == nil {
		return nil, goerr.New("embedding client is required")
	}
	return &LLMVectorizer{
		client:    client,
		dimension: model.EmbeddingDimension,
	}, nil
}

func (v *LLMVectorizer) Dimension() int {
	return v.dimension
}

func (v *LLMVectorizer) Vectorize(ctx context.Context, text string) ([]float32, error) {
	vectors, err := v.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (v *LLMVectorizer) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	embeddings, err := v.client.GenerateEmbedding(ctx, v.dimension, texts)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate embedding", goerr.V("count", len(texts)))
	}
	if len(embeddings) != len(texts) {
		return nil, goerr.Wrap(model.ErrBatchMismatch, "embedding count differs from input",
			goerr.V("expected", len(texts)),
			goerr.V("actual", len(embeddings)),
		)
	}

	vectors := make([][]float32, len(embeddings))
	for i, embedding := range embeddings {
		if len(embedding) != v.dimension {
			return nil, goerr.Wrap(model.ErrBatchMismatch, "unexpected embedding dimension",
				goerr.V("index", i),
				goerr.V("expected", v.dimension),
				goerr.V("actual", len(embedding)),
			)
		}
		vectors[i] = normalize(embedding)
	}

	return vectors, nil
}
