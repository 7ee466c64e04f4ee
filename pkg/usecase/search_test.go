package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/insurdesk/concierge/pkg/domain/interfaces"
	"github.com/insurdesk/concierge/pkg/domain/model"
	"github.com/insurdesk/concierge/pkg/domain/types"
	"github.com/insurdesk/concierge/pkg/repository/memory"
	"github.com/insurdesk/concierge/pkg/service/vectorizer"
	"github.com/insurdesk/concierge/pkg/usecase"
	"github.com/m-mizutani/gt"
)

func seedVectorized(t *testing.T, repo interfaces.Repository, texts ...string) {
	t.Helper()
	ctx := context.Background()
	for _, text := range texts {
		_, err := repo.Knowledge().Create(ctx, &model.KnowledgeEntry{
			SourceType: types.SourceTypeFAQ,
			TextChunk:  text,
			Metadata:   model.Metadata{"text": text},
		})
		gt.NoError(t, err).Required()
	}

	uc := usecase.New(repo)
	result := uc.Indexing.Run(ctx, types.SourceTypeFAQ)
	gt.Bool(t, result.Success).True()
	gt.Value(t, result.Processed).Equal(len(texts))
}

func TestSearch_Validation(t *testing.T) {
	uc := usecase.New(memory.New())
	ctx := context.Background()

	testCases := []struct {
		name  string
		query string
		limit int
	}{
		{name: "empty query", query: "", limit: 5},
		{name: "blank query", query: "  ", limit: 5},
		{name: "limit above max", query: "claims", limit: 21},
		{name: "negative limit", query: "claims", limit: -1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := uc.Search.Search(ctx, tc.query, tc.limit)
			gt.Error(t, err).Is(model.ErrValidation)
		})
	}
}

func TestSearch_EmptyCorpus(t *testing.T) {
	uc := usecase.New(memory.New())

	resp, err := uc.Search.Search(context.Background(), "anything", 0)
	gt.NoError(t, err).Required()
	gt.Value(t, resp.TotalResults).Equal(0)
	gt.Array(t, resp.Results).Length(0)
	gt.Value(t, resp.Query).Equal("anything")
}

func TestSearch_ExactPhraseRanksFirst(t *testing.T) {
	repo := memory.New()
	texts := []string{
		"What is covered by my home policy?",
		"How do I file a claim?",
		"Premium calculation details",
		"How do I update my payment method?",
		"Where can I download my policy documents?",
		"How long does claim review take?",
		"Can I add a driver to my auto policy?",
	}
	seedVectorized(t, repo, texts...)

	uc := usecase.New(repo)
	const phrase = "How long does claim review take?"
	resp, err := uc.Search.Search(context.Background(), phrase, 5)
	gt.NoError(t, err).Required()

	gt.Array(t, resp.Results).Length(5).Required()
	gt.Value(t, resp.TotalResults).Equal(5)
	gt.Value(t, resp.Results[0].TextChunk).Equal(phrase)

	query := vectorizer.Hash(phrase)
	prev := 2.0
	for _, r := range resp.Results {
		score, err := vectorizer.CosineSimilarity(query, vectorizer.Hash(r.TextChunk))
		gt.NoError(t, err).Required()
		gt.Bool(t, score <= prev+1e-6).True()
		prev = score
	}
}

func TestSearch_ClaimFilingScenario(t *testing.T) {
	const (
		a = "What is covered?"
		b = "How do I file a claim?"
		c = "Premium calculation details"
	)
	repo := memory.New()
	seedVectorized(t, repo, a, b, c)

	uc := usecase.New(repo)
	resp, err := uc.Search.Search(context.Background(), "claim filing process", 2)
	gt.NoError(t, err).Required()
	gt.Array(t, resp.Results).Length(2).Required()
	gt.Value(t, resp.Results[0].TextChunk).Equal(b)

	query := vectorizer.Hash("claim filing process")
	scoreOf := func(text string) float64 {
		s, err := vectorizer.CosineSimilarity(query, vectorizer.Hash(text))
		gt.NoError(t, err).Required()
		return s
	}
	gt.Bool(t, scoreOf(b) > scoreOf(a)).True()
	gt.Bool(t, scoreOf(b) > scoreOf(c)).True()
	gt.Value(t, resp.Results[1].TextChunk).Equal(a)
}

func TestSearch_ResultShape(t *testing.T) {
	repo := memory.New()
	seedVectorized(t, repo, "How do I file a claim?")

	uc := usecase.New(repo)
	resp, err := uc.Search.Search(context.Background(), "claims", 0)
	gt.NoError(t, err).Required()
	gt.Array(t, resp.Results).Length(1).Required()
	gt.Value(t, resp.Results[0].Metadata["text"]).Equal("How do I file a claim?")
}

func TestSearchByVector(t *testing.T) {
	repo := memory.New()
	seedVectorized(t, repo, "What is covered?", "How do I file a claim?")
	uc := usecase.New(repo)
	ctx := context.Background()

	t.Run("default query label", func(t *testing.T) {
		resp, err := uc.Search.SearchByVector(ctx, "", vectorizer.Hash("How do I file a claim?"), 1)
		gt.NoError(t, err).Required()
		gt.Value(t, resp.Query).Equal("Vector search")
		gt.Array(t, resp.Results).Length(1).Required()
		gt.Value(t, resp.Results[0].TextChunk).Equal("How do I file a claim?")
	})

	t.Run("wrong dimension", func(t *testing.T) {
		_, err := uc.Search.SearchByVector(ctx, "q", []float32{1, 0, 0}, 1)
		gt.Error(t, err).Is(model.ErrValidation)
	})
}

type failingRepository struct {
	interfaces.Repository
	knowledge *failingKnowledge
}

func (r *failingRepository) Knowledge() interfaces.KnowledgeRepository {
	return r.knowledge
}

type failingKnowledge struct {
	interfaces.KnowledgeRepository
	findErr   error
	updateErr error
}

func (k *failingKnowledge) FindByEmbedding(ctx context.Context, embedding []float32, limit int) ([]*model.KnowledgeEntry, error) {
	if k.findErr != nil {
		return nil, k.findErr
	}
	return k.KnowledgeRepository.FindByEmbedding(ctx, embedding, limit)
}

func (k *failingKnowledge) UpdateEmbeddings(ctx context.Context, updates []model.EmbeddingUpdate) error {
	if k.updateErr != nil {
		return k.updateErr
	}
	return k.KnowledgeRepository.UpdateEmbeddings(ctx, updates)
}

func newFailingRepository(findErr, updateErr error) *failingRepository {
	base := memory.New()
	return &failingRepository{
		Repository: base,
		knowledge: &failingKnowledge{
			KnowledgeRepository: base.Knowledge(),
			findErr:             findErr,
			updateErr:           updateErr,
		},
	}
}

func TestSearch_StorageFailure(t *testing.T) {
	repo := newFailingRepository(errors.New("connection reset"), nil)
	uc := usecase.New(repo)

	_, err := uc.Search.Search(context.Background(), "claims", 5)
	gt.Error(t, err).Is(model.ErrSearch)
	gt.Bool(t, errors.Is(err, model.ErrValidation)).False()
}

func TestSearchConfig_Validate(t *testing.T) {
	gt.NoError(t, usecase.DefaultSearchConfig().Validate())

	for _, cfg := range []usecase.SearchConfig{
		{DefaultLimit: 0, MaxLimit: 20},
		{DefaultLimit: 21, MaxLimit: 20},
		{DefaultLimit: 1, MaxLimit: 0},
	} {
		t.Run(fmt.Sprintf("%d/%d", cfg.DefaultLimit, cfg.MaxLimit), func(t *testing.T) {
			gt.Error(t, cfg.Validate()).Is(model.ErrValidation)
		})
	}
}
