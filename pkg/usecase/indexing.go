package usecase

import (
	"context"
	"fmt"

	"github.com/insurdesk/concierge/pkg/domain/interfaces"
	"github.com/insurdesk/concierge/pkg/domain/model"
	"github.com/insurdesk/concierge/pkg/domain/types"
	"github.com/insurdesk/concierge/pkg/service/metrics"
	"github.com/insurdesk/concierge/pkg/service/vectorizer"
	"github.com/insurdesk/concierge/pkg/utils/errutil"
	"github.com/insurdesk/concierge/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

type IndexingUseCase struct {
	repo     interfaces.Repository
	embedder interfaces.BatchEmbedder
	locker   interfaces.Locker
	metrics  *metrics.Metrics
}

func NewIndexingUseCase(repo interfaces.Repository, embedder interfaces.BatchEmbedder, locker interfaces.Locker, m *metrics.Metrics) *IndexingUseCase {
	return &IndexingUseCase{
		repo:     repo,
		embedder: embedder,
		locker:   locker,
		metrics:  m,
	}
}

func indexingLockKey(sourceType types.SourceType) string {
	return "indexing:" + sourceType.String()
}

// Run vectorizes every pending entry of sourceType in one batch and writes
// the embeddings back atomically. A failure is reported in the result, never
// as a partial write.
func (uc *IndexingUseCase) Run(ctx context.Context, sourceType types.SourceType) *model.IndexResult {
	processed, pending, err := uc.run(ctx, sourceType)
	uc.metrics.ObserveIndexRun(sourceType, err == nil, processed)

	if err != nil {
		errutil.Handle(ctx, err, "Indexing run failed")
		return &model.IndexResult{
			Success:   false,
			Processed: 0,
			Failed:    pending,
			Errors:    []string{err.Error()},
		}
	}

	return &model.IndexResult{
		Success:   true,
		Processed: processed,
		Failed:    0,
		Errors:    []string{},
	}
}

func (uc *IndexingUseCase) run(ctx context.Context, sourceType types.SourceType) (processed, pending int, err error) {
	if err := validateSourceType(sourceType); err != nil {
		return 0, 0, err
	}
	if uc.embedder == nil {
		return 0, 0, goerr.New("no batch embedder configured")
	}

	unlock, err := uc.locker.Lock(ctx, indexingLockKey(sourceType))
	if err != nil {
		return 0, 0, goerr.Wrap(err, "failed to acquire indexing lock", goerr.V(SourceTypeKey, sourceType))
	}
	defer unlock()

	entries, err := uc.repo.Knowledge().ListPending(ctx, sourceType)
	if err != nil {
		return 0, 0, goerr.Wrap(err, "failed to list pending entries", goerr.V(SourceTypeKey, sourceType))
	}
	if len(entries) == 0 {
		logging.From(ctx).Info("No pending entries to index", "source_type", sourceType.String())
		return 0, 0, nil
	}
	pending = len(entries)

	texts := make([]string, len(entries))
	for i, e := range entries {
		texts[i] = e.TextChunk
	}

	logging.From(ctx).Info("Indexing pending entries",
		"source_type", sourceType.String(),
		"count", pending)

	vectors, err := uc.embedder.EmbedBatch(context.WithoutCancel(ctx), texts)
	if err != nil {
		return 0, pending, goerr.Wrap(err, "failed to embed batch",
			goerr.V(SourceTypeKey, sourceType),
			goerr.V("count", pending))
	}
	if len(vectors) != len(entries) {
		return 0, pending, goerr.Wrap(model.ErrBatchMismatch,
			fmt.Sprintf("expected %d vectors, got %d", len(entries), len(vectors)),
			goerr.V(SourceTypeKey, sourceType))
	}

	updates := make([]model.EmbeddingUpdate, len(entries))
	for i, e := range entries {
		if len(vectors[i]) != model.EmbeddingDimension {
			return 0, pending, goerr.Wrap(model.ErrBatchMismatch,
				fmt.Sprintf("vector %d has %d dimensions, want %d", i, len(vectors[i]), model.EmbeddingDimension),
				goerr.V(KnowledgeIDKey, e.ID))
		}
		// provider vectors are not guaranteed to be unit length
		updates[i] = model.EmbeddingUpdate{ID: e.ID, Embedding: vectorizer.Normalize(vectors[i])}
	}

	if err := uc.repo.Knowledge().UpdateEmbeddings(ctx, updates); err != nil {
		return 0, pending, goerr.Wrap(fmt.Errorf("%w: %w", model.ErrTransaction, err), "failed to write embeddings",
			goerr.V(SourceTypeKey, sourceType),
			goerr.V("count", pending))
	}

	logging.From(ctx).Info("Indexing completed",
		"source_type", sourceType.String(),
		"processed", pending)

	return pending, pending, nil
}

// Status counts entries of sourceType by vectorization state
func (uc *IndexingUseCase) Status(ctx context.Context, sourceType types.SourceType) (*model.IndexStatus, error) {
	if err := validateSourceType(sourceType); err != nil {
		return nil, err
	}

	status, err := uc.repo.Knowledge().CountStatus(ctx, sourceType)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to count index status", goerr.V(SourceTypeKey, sourceType))
	}
	return status, nil
}
