package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/insurdesk/concierge/pkg/domain/types"
)

// EmbeddingDimension is the fixed length of every stored and queried vector
const EmbeddingDimension = 384

// KnowledgeID is a UUID-based identifier for KnowledgeEntry
type KnowledgeID string

// NewKnowledgeID generates a new UUID v4 KnowledgeID
func NewKnowledgeID() KnowledgeID {
	return KnowledgeID(uuid.New().String())
}

func (id KnowledgeID) String() string {
	return string(id)
}

// Metadata is an open attribute map attached to an entry. It is stored and
// returned as is.
type Metadata map[string]any

// Clone returns a shallow copy of m
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	copied := make(Metadata, len(m))
	for k, v := range m {
		copied[k] = v
	}
	return copied
}

// KnowledgeEntry is one searchable chunk of the support corpus.
// Embedding is nil until the bulk indexing pipeline fills it.
type KnowledgeEntry struct {
	ID         KnowledgeID
	SourceType types.SourceType
	TextChunk  string
	Embedding  []float32
	Metadata   Metadata
	CreatedAt  time.Time
}

// IsVectorized reports whether the entry already carries an embedding
func (k *KnowledgeEntry) IsVectorized() bool {
	return len(k.Embedding) > 0
}

// Clone returns a deep copy of the entry's embedding and a shallow copy of
// its metadata
func (k *KnowledgeEntry) Clone() *KnowledgeEntry {
	copied := &KnowledgeEntry{
		ID:         k.ID,
		SourceType: k.SourceType,
		TextChunk:  k.TextChunk,
		Metadata:   k.Metadata.Clone(),
		CreatedAt:  k.CreatedAt,
	}
	if k.Embedding != nil {
		copied.Embedding = make([]float32, len(k.Embedding))
		copy(copied.Embedding, k.Embedding)
	}
	return copied
}

// EmbeddingUpdate is one row of the pipeline's write-back
type EmbeddingUpdate struct {
	ID        KnowledgeID
	Embedding []float32
}
