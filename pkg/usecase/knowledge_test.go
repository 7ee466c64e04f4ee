package usecase_test

import (
	"context"
	"strings"
	"testing"

	"github.com/insurdesk/concierge/pkg/domain/model"
	"github.com/insurdesk/concierge/pkg/domain/types"
	"github.com/insurdesk/concierge/pkg/repository/memory"
	"github.com/insurdesk/concierge/pkg/usecase"
	"github.com/m-mizutani/gt"
)

const faqDocument = `Frequently asked questions

1. What is covered? Theft, fire and water damage are covered.
2. How do I file a claim? Use the claims form in the portal.
3. Can I pay monthly? Yes, monthly payments are available.
not a numbered line
`

func TestKnowledge_CRUD(t *testing.T) {
	uc := usecase.New(memory.New())
	ctx := context.Background()

	created, err := uc.Knowledge.Create(ctx, usecase.CreateKnowledgeInput{
		SourceType: types.SourceTypePolicy,
		TextChunk:  "Flood damage requires a rider.",
		Metadata:   model.Metadata{"section": "exclusions"},
	})
	gt.NoError(t, err).Required()
	gt.String(t, created.ID.String()).NotEqual("")
	gt.Bool(t, created.IsVectorized()).False()

	got, err := uc.Knowledge.Get(ctx, created.ID)
	gt.NoError(t, err).Required()
	gt.Value(t, got.TextChunk).Equal("Flood damage requires a rider.")
	gt.Value(t, got.Metadata["section"]).Equal("exclusions")

	list, err := uc.Knowledge.List(ctx, types.SourceTypePolicy)
	gt.NoError(t, err).Required()
	gt.Array(t, list).Length(1)

	gt.NoError(t, uc.Knowledge.Delete(ctx, created.ID)).Required()
	_, err = uc.Knowledge.Get(ctx, created.ID)
	gt.Error(t, err).Is(model.ErrNotFound)
	gt.Error(t, uc.Knowledge.Delete(ctx, created.ID)).Is(model.ErrNotFound)
}

func TestKnowledge_CreateValidation(t *testing.T) {
	uc := usecase.New(memory.New())
	ctx := context.Background()

	_, err := uc.Knowledge.Create(ctx, usecase.CreateKnowledgeInput{SourceType: types.SourceTypeFAQ, TextChunk: " "})
	gt.Error(t, err).Is(model.ErrValidation)

	_, err = uc.Knowledge.Create(ctx, usecase.CreateKnowledgeInput{SourceType: "FAQ!", TextChunk: "text"})
	gt.Error(t, err).Is(model.ErrValidation)
}

func TestKnowledge_SeedFAQ(t *testing.T) {
	ctx := context.Background()

	t.Run("seed creates entries", func(t *testing.T) {
		uc := usecase.New(memory.New())

		result, err := uc.Knowledge.SeedFAQ(ctx, types.SourceTypeFAQ, strings.NewReader(faqDocument), false)
		gt.NoError(t, err).Required()
		gt.Value(t, *result).Equal(model.SeedResult{Parsed: 3, Created: 3})

		entries, err := uc.Knowledge.List(ctx, types.SourceTypeFAQ)
		gt.NoError(t, err).Required()
		gt.Array(t, entries).Length(3).Required()
		gt.Value(t, entries[1].TextChunk).Equal("Question: How do I file a claim\nAnswer: Use the claims form in the portal.")
		gt.Value(t, entries[1].Metadata["original_id"]).Equal("faq-002")
		gt.Value(t, entries[1].Metadata["category"]).Equal("general")
	})

	t.Run("seeding twice is idempotent", func(t *testing.T) {
		uc := usecase.New(memory.New())

		_, err := uc.Knowledge.SeedFAQ(ctx, types.SourceTypeFAQ, strings.NewReader(faqDocument), false)
		gt.NoError(t, err).Required()
		result, err := uc.Knowledge.SeedFAQ(ctx, types.SourceTypeFAQ, strings.NewReader(faqDocument), false)
		gt.NoError(t, err).Required()
		gt.Value(t, result.Created).Equal(0)
		gt.Value(t, result.Skipped).Equal(3)

		status, err := uc.Indexing.Status(ctx, types.SourceTypeFAQ)
		gt.NoError(t, err).Required()
		gt.Value(t, status.Total).Equal(3)
	})

	t.Run("replace deletes existing entries", func(t *testing.T) {
		uc := usecase.New(memory.New())

		_, err := uc.Knowledge.SeedFAQ(ctx, types.SourceTypeFAQ, strings.NewReader(faqDocument), false)
		gt.NoError(t, err).Required()
		result, err := uc.Knowledge.SeedFAQ(ctx, types.SourceTypeFAQ, strings.NewReader(faqDocument), true)
		gt.NoError(t, err).Required()
		gt.Value(t, *result).Equal(model.SeedResult{Parsed: 3, Created: 3, Deleted: 3})

		status, err := uc.Indexing.Status(ctx, types.SourceTypeFAQ)
		gt.NoError(t, err).Required()
		gt.Value(t, status.Total).Equal(3)
	})

	t.Run("seed then index then search", func(t *testing.T) {
		uc := usecase.New(memory.New())

		_, err := uc.Knowledge.SeedFAQ(ctx, types.SourceTypeFAQ, strings.NewReader(faqDocument), false)
		gt.NoError(t, err).Required()
		gt.Bool(t, uc.Indexing.Run(ctx, types.SourceTypeFAQ).Success).True()

		resp, err := uc.Search.Search(ctx, "Question: Can I pay monthly\nAnswer: Yes, monthly payments are available.", 3)
		gt.NoError(t, err).Required()
		gt.Array(t, resp.Results).Length(3).Required()
		gt.Value(t, resp.Results[0].Metadata["original_id"]).Equal("faq-003")
	})
}
