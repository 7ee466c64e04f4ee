package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/insurdesk/concierge/pkg/domain/model"
	"github.com/insurdesk/concierge/pkg/domain/types"
	"github.com/insurdesk/concierge/pkg/service/vectorizer"
	"github.com/m-mizutani/goerr/v2"
)

type storedEntry struct {
	entry *model.KnowledgeEntry
	seq   int64
}

type knowledgeRepository struct {
	mu      sync.RWMutex
	entries map[model.KnowledgeID]*storedEntry
	nextSeq int64
}

func newKnowledgeRepository() *knowledgeRepository {
	return &knowledgeRepository{
		entries: make(map[model.KnowledgeID]*storedEntry),
	}
}

func (r *knowledgeRepository) Create(ctx context.Context, entry *model.KnowledgeEntry) (*model.KnowledgeEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := entry.Clone()
	if created.ID == "" {
		created.ID = model.NewKnowledgeID()
	}
	if _, exists := r.entries[created.ID]; exists {
		return nil, goerr.New("knowledge already exists", goerr.V("id", created.ID))
	}
	created.CreatedAt = time.Now().UTC()

	r.nextSeq++
	r.entries[created.ID] = &storedEntry{entry: created, seq: r.nextSeq}
	return created.Clone(), nil
}

func (r *knowledgeRepository) Get(ctx context.Context, id model.KnowledgeID) (*model.KnowledgeEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, exists := r.entries[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "knowledge not found", goerr.V("id", id))
	}
	return stored.entry.Clone(), nil
}

func (r *knowledgeRepository) Delete(ctx context.Context, id model.KnowledgeID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[id]; !exists {
		return goerr.Wrap(ErrNotFound, "knowledge not found", goerr.V("id", id))
	}
	delete(r.entries, id)
	return nil
}

// sorted returns the stored entries matching filter in insertion order
func (r *knowledgeRepository) sorted(filter func(*model.KnowledgeEntry) bool) []*storedEntry {
	result := make([]*storedEntry, 0, len(r.entries))
	for _, stored := range r.entries {
		if filter(stored.entry) {
			result = append(result, stored)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].seq < result[j].seq
	})
	return result
}

func (r *knowledgeRepository) List(ctx context.Context, sourceType types.SourceType) ([]*model.KnowledgeEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.sorted(func(e *model.KnowledgeEntry) bool {
		return e.SourceType == sourceType
	})
	result := make([]*model.KnowledgeEntry, len(stored))
	for i, s := range stored {
		result[i] = s.entry.Clone()
	}
	return result, nil
}

func (r *knowledgeRepository) ListPending(ctx context.Context, sourceType types.SourceType) ([]*model.KnowledgeEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*model.KnowledgeEntry
	for _, stored := range r.entries {
		if stored.entry.SourceType == sourceType && !stored.entry.IsVectorized() {
			result = append(result, stored.entry.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (r *knowledgeRepository) CountStatus(ctx context.Context, sourceType types.SourceType) (*model.IndexStatus, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var status model.IndexStatus
	for _, stored := range r.entries {
		if stored.entry.SourceType != sourceType {
			continue
		}
		status.Total++
		if stored.entry.IsVectorized() {
			status.Vectorized++
		} else {
			status.Unvectorized++
		}
	}
	return &status, nil
}

func (r *knowledgeRepository) UpdateEmbeddings(ctx context.Context, updates []model.EmbeddingUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check every row before touching any so a failure leaves the store as is
	for _, u := range updates {
		if _, exists := r.entries[u.ID]; !exists {
			return goerr.Wrap(ErrNotFound, "knowledge not found", goerr.V("id", u.ID))
		}
	}

	for _, u := range updates {
		embedding := make([]float32, len(u.Embedding))
		copy(embedding, u.Embedding)
		r.entries[u.ID].entry.Embedding = embedding
	}
	return nil
}

func (r *knowledgeRepository) FindByEmbedding(ctx context.Context, embedding []float32, limit int) ([]*model.KnowledgeEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	type scored struct {
		entry *model.KnowledgeEntry
		seq   int64
		score float64
	}

	var candidates []scored
	for _, stored := range r.entries {
		if !stored.entry.IsVectorized() {
			continue
		}
		s, err := vectorizer.CosineSimilarity(embedding, stored.entry.Embedding)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to compare embeddings", goerr.V("id", stored.entry.ID))
		}
		candidates = append(candidates, scored{entry: stored.entry, seq: stored.seq, score: s})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].seq < candidates[j].seq
	})

	if limit > len(candidates) {
		limit = len(candidates)
	}
	if limit < 0 {
		limit = 0
	}

	result := make([]*model.KnowledgeEntry, limit)
	for i := 0; i < limit; i++ {
		result[i] = candidates[i].entry.Clone()
	}
	return result, nil
}
