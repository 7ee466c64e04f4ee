package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/insurdesk/concierge/pkg/domain/model"
	"github.com/insurdesk/concierge/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"gorm.io/gorm"
)

type knowledgeRow struct {
	ID string `gorm:"column:id;primaryKey"`
	// Seq is assigned by the database and breaks similarity ties in
	// insertion order
	Seq        int64     `gorm:"column:seq;->"`
	SourceType string    `gorm:"column:source_type"`
	TextChunk  string    `gorm:"column:text_chunk"`
	Embedding  pgVector  `gorm:"column:embedding;type:vector(384)"`
	Metadata   jsonMap   `gorm:"column:metadata;type:jsonb"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (knowledgeRow) TableName() string {
	return "knowledge_entries"
}

func toRow(k *model.KnowledgeEntry) *knowledgeRow {
	row := &knowledgeRow{
		ID:         k.ID.String(),
		SourceType: k.SourceType.String(),
		TextChunk:  k.TextChunk,
		Metadata:   jsonMap(k.Metadata),
		CreatedAt:  k.CreatedAt,
	}
	if k.IsVectorized() {
		row.Embedding = pgVector(k.Embedding)
	}
	return row
}

func fromRow(row *knowledgeRow) *model.KnowledgeEntry {
	k := &model.KnowledgeEntry{
		ID:         model.KnowledgeID(row.ID),
		SourceType: types.SourceType(row.SourceType),
		TextChunk:  row.TextChunk,
		Metadata:   model.Metadata(row.Metadata),
		CreatedAt:  row.CreatedAt,
	}
	if len(row.Embedding) > 0 {
		k.Embedding = []float32(row.Embedding)
	}
	return k
}

func fromRows(rows []knowledgeRow) []*model.KnowledgeEntry {
	entries := make([]*model.KnowledgeEntry, len(rows))
	for i := range rows {
		entries[i] = fromRow(&rows[i])
	}
	return entries
}

type knowledgeRepository struct {
	db *gorm.DB
}

func newKnowledgeRepository(db *gorm.DB) *knowledgeRepository {
	return &knowledgeRepository{db: db}
}

func (r *knowledgeRepository) Create(ctx context.Context, entry *model.KnowledgeEntry) (*model.KnowledgeEntry, error) {
	created := entry.Clone()
	if created.ID == "" {
		created.ID = model.NewKnowledgeID()
	}
	created.CreatedAt = time.Now().UTC()

	if err := r.db.WithContext(ctx).Create(toRow(created)).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to create knowledge", goerr.V("id", created.ID))
	}
	return created, nil
}

func (r *knowledgeRepository) Get(ctx context.Context, id model.KnowledgeID) (*model.KnowledgeEntry, error) {
	var row knowledgeRow
	if err := r.db.WithContext(ctx).Where("id = ?", id.String()).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, goerr.Wrap(ErrNotFound, "knowledge not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get knowledge", goerr.V("id", id))
	}
	return fromRow(&row), nil
}

func (r *knowledgeRepository) Delete(ctx context.Context, id model.KnowledgeID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id.String()).Delete(&knowledgeRow{})
	if res.Error != nil {
		return goerr.Wrap(res.Error, "failed to delete knowledge", goerr.V("id", id))
	}
	if res.RowsAffected == 0 {
		return goerr.Wrap(ErrNotFound, "knowledge not found", goerr.V("id", id))
	}
	return nil
}

func (r *knowledgeRepository) List(ctx context.Context, sourceType types.SourceType) ([]*model.KnowledgeEntry, error) {
	var rows []knowledgeRow
	if err := r.db.WithContext(ctx).
		Where("source_type = ?", sourceType.String()).
		Order("seq").
		Find(&rows).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to list knowledge", goerr.V("source_type", sourceType))
	}
	return fromRows(rows), nil
}

func (r *knowledgeRepository) ListPending(ctx context.Context, sourceType types.SourceType) ([]*model.KnowledgeEntry, error) {
	var rows []knowledgeRow
	if err := r.db.WithContext(ctx).
		Where("source_type = ? AND embedding IS NULL", sourceType.String()).
		Order("id").
		Find(&rows).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to list pending knowledge", goerr.V("source_type", sourceType))
	}
	return fromRows(rows), nil
}

func (r *knowledgeRepository) CountStatus(ctx context.Context, sourceType types.SourceType) (*model.IndexStatus, error) {
	var counts struct {
		Total      int64
		Vectorized int64
	}
	if err := r.db.WithContext(ctx).
		Raw(`SELECT COUNT(*) AS total, COUNT(embedding) AS vectorized FROM knowledge_entries WHERE source_type = ?`, sourceType.String()).
		Scan(&counts).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to count knowledge", goerr.V("source_type", sourceType))
	}

	return &model.IndexStatus{
		Total:        int(counts.Total),
		Vectorized:   int(counts.Vectorized),
		Unvectorized: int(counts.Total - counts.Vectorized),
	}, nil
}

// UpdateEmbeddings writes every row in one transaction. An update that
// matches no row rolls the whole batch back.
func (r *knowledgeRepository) UpdateEmbeddings(ctx context.Context, updates []model.EmbeddingUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, u := range updates {
			res := tx.Model(&knowledgeRow{}).
				Where("id = ?", u.ID.String()).
				Update("embedding", pgVector(u.Embedding))
			if res.Error != nil {
				return goerr.Wrap(res.Error, "failed to update embedding", goerr.V("id", u.ID))
			}
			if res.RowsAffected == 0 {
				return goerr.Wrap(ErrNotFound, "knowledge not found", goerr.V("id", u.ID))
			}
		}
		return nil
	})
	if err != nil {
		return goerr.Wrap(err, "failed to update embeddings", goerr.V("count", len(updates)))
	}
	return nil
}

func (r *knowledgeRepository) FindByEmbedding(ctx context.Context, embedding []float32, limit int) ([]*model.KnowledgeEntry, error) {
	var rows []knowledgeRow
	if err := r.db.WithContext(ctx).
		Raw(`SELECT id, seq, source_type, text_chunk, embedding, metadata, created_at
			FROM knowledge_entries
			WHERE embedding IS NOT NULL
			ORDER BY embedding <=> ?::vector, seq
			LIMIT ?`, pgVector(embedding), limit).
		Scan(&rows).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to run vector search", goerr.V("limit", limit))
	}
	return fromRows(rows), nil
}
