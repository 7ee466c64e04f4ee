package usecase

import (
	"context"
	"io"
	"strings"

	"github.com/insurdesk/concierge/pkg/domain/interfaces"
	"github.com/insurdesk/concierge/pkg/domain/model"
	"github.com/insurdesk/concierge/pkg/domain/types"
	"github.com/insurdesk/concierge/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// CreateKnowledgeInput is the admin payload for a new entry
type CreateKnowledgeInput struct {
	SourceType types.SourceType
	TextChunk  string
	Metadata   model.Metadata
}

type KnowledgeUseCase struct {
	repo interfaces.Repository
}

func NewKnowledgeUseCase(repo interfaces.Repository) *KnowledgeUseCase {
	return &KnowledgeUseCase{repo: repo}
}

// Create stores an unvectorized entry; the indexing pipeline embeds it later
func (uc *KnowledgeUseCase) Create(ctx context.Context, input CreateKnowledgeInput) (*model.KnowledgeEntry, error) {
	if err := validateSourceType(input.SourceType); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.TextChunk) == "" {
		return nil, goerr.Wrap(model.ErrValidation, "text chunk is required")
	}

	created, err := uc.repo.Knowledge().Create(ctx, &model.KnowledgeEntry{
		SourceType: input.SourceType,
		TextChunk:  input.TextChunk,
		Metadata:   input.Metadata,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create knowledge", goerr.V(SourceTypeKey, input.SourceType))
	}
	return created, nil
}

func (uc *KnowledgeUseCase) Get(ctx context.Context, id model.KnowledgeID) (*model.KnowledgeEntry, error) {
	entry, err := uc.repo.Knowledge().Get(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get knowledge", goerr.V(KnowledgeIDKey, id))
	}
	return entry, nil
}

func (uc *KnowledgeUseCase) Delete(ctx context.Context, id model.KnowledgeID) error {
	if err := uc.repo.Knowledge().Delete(ctx, id); err != nil {
		return goerr.Wrap(err, "failed to delete knowledge", goerr.V(KnowledgeIDKey, id))
	}
	return nil
}

func (uc *KnowledgeUseCase) List(ctx context.Context, sourceType types.SourceType) ([]*model.KnowledgeEntry, error) {
	if err := validateSourceType(sourceType); err != nil {
		return nil, err
	}
	entries, err := uc.repo.Knowledge().List(ctx, sourceType)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list knowledge", goerr.V(SourceTypeKey, sourceType))
	}
	return entries, nil
}

// SeedFAQ loads numbered FAQ lines from r. Items whose original_id already
// exists under sourceType are skipped, so seeding twice creates nothing new.
// With replace set, the existing entries of sourceType are deleted first.
func (uc *KnowledgeUseCase) SeedFAQ(ctx context.Context, sourceType types.SourceType, r io.Reader, replace bool) (*model.SeedResult, error) {
	if err := validateSourceType(sourceType); err != nil {
		return nil, err
	}

	items, err := model.ParseFAQ(r)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse FAQ")
	}
	result := &model.SeedResult{Parsed: len(items)}

	existing, err := uc.repo.Knowledge().List(ctx, sourceType)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list existing knowledge", goerr.V(SourceTypeKey, sourceType))
	}

	known := make(map[string]struct{}, len(existing))
	if replace {
		for _, e := range existing {
			if err := uc.repo.Knowledge().Delete(ctx, e.ID); err != nil {
				return nil, goerr.Wrap(err, "failed to delete existing knowledge", goerr.V(KnowledgeIDKey, e.ID))
			}
			result.Deleted++
		}
	} else {
		for _, e := range existing {
			if id, ok := e.Metadata["original_id"].(string); ok {
				known[id] = struct{}{}
			}
		}
	}

	for _, item := range items {
		if _, ok := known[item.OriginalID()]; ok {
			result.Skipped++
			continue
		}
		if _, err := uc.repo.Knowledge().Create(ctx, item.ToKnowledgeEntry(sourceType)); err != nil {
			return nil, goerr.Wrap(err, "failed to create FAQ entry", goerr.V("faq_id", item.OriginalID()))
		}
		known[item.OriginalID()] = struct{}{}
		result.Created++
	}

	logging.From(ctx).Info("FAQ seeded",
		"source_type", sourceType.String(),
		"parsed", result.Parsed,
		"created", result.Created,
		"skipped", result.Skipped,
		"deleted", result.Deleted)

	return result, nil
}
