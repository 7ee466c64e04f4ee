package interfaces

import (
	"context"

	"github.com/insurdesk/concierge/pkg/domain/model"
	"github.com/insurdesk/concierge/pkg/domain/types"
)

// KnowledgeRepository persists knowledge entries and answers similarity
// queries over their embeddings
type KnowledgeRepository interface {
	// Create stores a new entry. An empty ID is replaced by a new UUID and
	// CreatedAt is set by the store.
	Create(ctx context.Context, entry *model.KnowledgeEntry) (*model.KnowledgeEntry, error)

	// Get retrieves an entry by ID; model.ErrNotFound if absent
	Get(ctx context.Context, id model.KnowledgeID) (*model.KnowledgeEntry, error)

	// Delete removes an entry by ID; model.ErrNotFound if absent
	Delete(ctx context.Context, id model.KnowledgeID) error

	// List returns every entry of a source type in insertion order
	List(ctx context.Context, sourceType types.SourceType) ([]*model.KnowledgeEntry, error)

	// ListPending returns entries of a source type without an embedding,
	// ordered by ID ascending
	ListPending(ctx context.Context, sourceType types.SourceType) ([]*model.KnowledgeEntry, error)

	// CountStatus counts entries of a source type by vectorization state
	CountStatus(ctx context.Context, sourceType types.SourceType) (*model.IndexStatus, error)

	// UpdateEmbeddings writes all updates or none of them
	UpdateEmbeddings(ctx context.Context, updates []model.EmbeddingUpdate) error

	// FindByEmbedding returns up to limit vectorized entries by ascending
	// cosine distance to embedding
	FindByEmbedding(ctx context.Context, embedding []float32, limit int) ([]*model.KnowledgeEntry, error)
}
