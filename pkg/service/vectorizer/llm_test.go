package vectorizer_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/insurdesk/concierge/pkg/domain/model"
	"github.com/insurdesk/concierge/pkg/service/vectorizer"
	"github.com/m-mizutani/gt"
)

type fakeEmbeddingClient struct {
	calls      int
	dimensions []int
	fn         func(input []string) ([][]float64, error)
}

func (f *fakeEmbeddingClient) GenerateEmbedding(ctx context.Context, dimension int, input []string) ([][]float64, error) {
	f.calls++
	f.dimensions = append(f.dimensions, dimension)
	return f.fn(input)
}

func constantEmbeddings(value float64, dim int) func(input []string) ([][]float64, error) {
	return func(input []string) ([][]float64, error) {
		out := make([][]float64, len(input))
		for i := range input {
			out[i] = make([]float64, dim)
			for j := range out[i] {
				out[i][j] = value
			}
		}
		return out, nil
	}
}

func TestLLMVectorizer(t *testing.T) {
	ctx := context.Background()

	t.Run("requests configured dimension and normalizes", func(t *testing.T) {
		client := &fakeEmbeddingClient{fn: constantEmbeddings(2.0, model.EmbeddingDimension)}
		v, err := vectorizer.NewLLM(client)
		gt.NoError(t, err).Required()

		vectors, err := v.EmbedBatch(ctx, []string{"a", "b"})
		gt.NoError(t, err).Required()
		gt.Array(t, vectors).Length(2).Required()
		gt.Value(t, client.dimensions[0]).Equal(model.EmbeddingDimension)
		gt.Bool(t, math.Abs(magnitude(vectors[0])-1) < 1e-5).True()
	})

	t.Run("empty batch does not call client", func(t *testing.T) {
		client := &fakeEmbeddingClient{fn: constantEmbeddings(1, model.EmbeddingDimension)}
		v, err := vectorizer.NewLLM(client)
		gt.NoError(t, err).Required()

		vectors, err := v.EmbedBatch(ctx, nil)
		gt.NoError(t, err)
		gt.Array(t, vectors).Length(0)
		gt.Value(t, client.calls).Equal(0)
	})

	t.Run("count mismatch", func(t *testing.T) {
		client := &fakeEmbeddingClient{fn: func(input []string) ([][]float64, error) {
			return [][]float64{make([]float64, model.EmbeddingDimension)}, nil
		}}
		v, err := vectorizer.NewLLM(client)
		gt.NoError(t, err).Required()

		_, err = v.EmbedBatch(ctx, []string{"a", "b"})
		gt.Error(t, err).Is(model.ErrBatchMismatch)
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		client := &fakeEmbeddingClient{fn: constantEmbeddings(1, 768)}
		v, err := vectorizer.NewLLM(client)
		gt.NoError(t, err).Required()

		_, err = v.Vectorize(ctx, "a")
		gt.Error(t, err).Is(model.ErrBatchMismatch)
	})

	t.Run("client error is wrapped", func(t *testing.T) {
		boom := errors.New("quota exceeded")
		client := &fakeEmbeddingClient{fn: func(input []string) ([][]float64, error) { return nil, boom }}
		v, err := vectorizer.NewLLM(client)
		gt.NoError(t, err).Required()

		_, err = v.Vectorize(ctx, "a")
		gt.Error(t, err).Is(boom)
	})

	t.Run("nil client rejected", func(t *testing.T) {
		_, err := vectorizer.NewLLM(nil)
		gt.Error(t, err)
	})
}
