package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"github.com/insurdesk/concierge/pkg/domain/model"
	"github.com/insurdesk/concierge/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const knowledgeCollection = "knowledge_entries"

// knowledgeDoc is the Firestore document representation of model.KnowledgeEntry.
// Embedding is stored as firestore.Vector32 so that FindNearest vector search
// works. Firestore cannot filter on a missing field, so Vectorized mirrors
// whether Embedding is set.
type knowledgeDoc struct {
	ID         model.KnowledgeID  `firestore:"ID"`
	SourceType types.SourceType   `firestore:"SourceType"`
	TextChunk  string             `firestore:"TextChunk"`
	Embedding  firestore.Vector32 `firestore:"Embedding,omitempty"`
	Vectorized bool               `firestore:"Vectorized"`
	Metadata   map[string]any     `firestore:"Metadata"`
	CreatedAt  time.Time          `firestore:"CreatedAt"`
}

func toKnowledgeDoc(k *model.KnowledgeEntry) *knowledgeDoc {
	doc := &knowledgeDoc{
		ID:         k.ID,
		SourceType: k.SourceType,
		TextChunk:  k.TextChunk,
		Metadata:   k.Metadata,
		CreatedAt:  k.CreatedAt,
	}
	if k.IsVectorized() {
		doc.Embedding = firestore.Vector32(k.Embedding)
		doc.Vectorized = true
	}
	return doc
}

func fromKnowledgeDoc(d *knowledgeDoc) *model.KnowledgeEntry {
	k := &model.KnowledgeEntry{
		ID:         d.ID,
		SourceType: d.SourceType,
		TextChunk:  d.TextChunk,
		Metadata:   model.Metadata(d.Metadata),
		CreatedAt:  d.CreatedAt,
	}
	if len(d.Embedding) > 0 {
		k.Embedding = []float32(d.Embedding)
	}
	return k
}

func docToKnowledge(doc *firestore.DocumentSnapshot) (*model.KnowledgeEntry, error) {
	var d knowledgeDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, err
	}
	return fromKnowledgeDoc(&d), nil
}

type knowledgeRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newKnowledgeRepository(client *firestore.Client) *knowledgeRepository {
	return &knowledgeRepository{
		client: client,
	}
}

func (r *knowledgeRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(r.collectionPrefix + knowledgeCollection)
}

func (r *knowledgeRepository) Create(ctx context.Context, entry *model.KnowledgeEntry) (*model.KnowledgeEntry, error) {
	created := entry.Clone()
	if created.ID == "" {
		created.ID = model.NewKnowledgeID()
	}
	created.CreatedAt = time.Now().UTC()

	docRef := r.collection().Doc(created.ID.String())
	if _, err := docRef.Create(ctx, toKnowledgeDoc(created)); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return nil, goerr.Wrap(err, "knowledge already exists", goerr.V("id", created.ID))
		}
		return nil, goerr.Wrap(err, "failed to create knowledge", goerr.V("id", created.ID))
	}

	return created, nil
}

func (r *knowledgeRepository) Get(ctx context.Context, id model.KnowledgeID) (*model.KnowledgeEntry, error) {
	doc, err := r.collection().Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "knowledge not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get knowledge", goerr.V("id", id))
	}

	k, err := docToKnowledge(doc)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal knowledge", goerr.V("id", id))
	}

	return k, nil
}

func (r *knowledgeRepository) Delete(ctx context.Context, id model.KnowledgeID) error {
	docRef := r.collection().Doc(id.String())

	// Delete succeeds on a missing document unless Exists is required
	if _, err := docRef.Delete(ctx, firestore.Exists); err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(ErrNotFound, "knowledge not found", goerr.V("id", id))
		}
		return goerr.Wrap(err, "failed to delete knowledge", goerr.V("id", id))
	}

	return nil
}

func (r *knowledgeRepository) collect(iter *firestore.DocumentIterator) ([]*model.KnowledgeEntry, error) {
	defer iter.Stop()

	entries := make([]*model.KnowledgeEntry, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate knowledge entries")
		}

		k, err := docToKnowledge(doc)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal knowledge", goerr.V("doc", doc.Ref.ID))
		}
		entries = append(entries, k)
	}

	return entries, nil
}

func (r *knowledgeRepository) List(ctx context.Context, sourceType types.SourceType) ([]*model.KnowledgeEntry, error) {
	iter := r.collection().
		Where("SourceType", "==", string(sourceType)).
		OrderBy("CreatedAt", firestore.Asc).
		Documents(ctx)

	entries, err := r.collect(iter)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list knowledge", goerr.V("source_type", sourceType))
	}
	return entries, nil
}

func (r *knowledgeRepository) ListPending(ctx context.Context, sourceType types.SourceType) ([]*model.KnowledgeEntry, error) {
	iter := r.collection().
		Where("SourceType", "==", string(sourceType)).
		Where("Vectorized", "==", false).
		OrderBy("ID", firestore.Asc).
		Documents(ctx)

	entries, err := r.collect(iter)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list pending knowledge", goerr.V("source_type", sourceType))
	}
	return entries, nil
}

func (r *knowledgeRepository) count(ctx context.Context, q firestore.Query) (int, error) {
	const alias = "count"
	result, err := q.NewAggregationQuery().WithCount(alias).Get(ctx)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to run count query")
	}

	v, ok := result[alias].(*firestorepb.Value)
	if !ok {
		return 0, goerr.New("unexpected count result", goerr.V("result", result[alias]))
	}
	return int(v.GetIntegerValue()), nil
}

func (r *knowledgeRepository) CountStatus(ctx context.Context, sourceType types.SourceType) (*model.IndexStatus, error) {
	base := r.collection().Where("SourceType", "==", string(sourceType))

	total, err := r.count(ctx, base)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to count knowledge", goerr.V("source_type", sourceType))
	}
	vectorized, err := r.count(ctx, base.Where("Vectorized", "==", true))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to count vectorized knowledge", goerr.V("source_type", sourceType))
	}

	return &model.IndexStatus{
		Total:        total,
		Vectorized:   vectorized,
		Unvectorized: total - vectorized,
	}, nil
}

// UpdateEmbeddings runs in a single transaction, which Firestore caps at 500
// writes.
func (r *knowledgeRepository) UpdateEmbeddings(ctx context.Context, updates []model.EmbeddingUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	refs := make([]*firestore.DocumentRef, len(updates))
	for i, u := range updates {
		refs[i] = r.collection().Doc(u.ID.String())
	}

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snapshots, err := tx.GetAll(refs)
		if err != nil {
			return goerr.Wrap(err, "failed to read knowledge in transaction")
		}
		for i, snap := range snapshots {
			if !snap.Exists() {
				return goerr.Wrap(ErrNotFound, "knowledge not found", goerr.V("id", updates[i].ID))
			}
		}

		for i, u := range updates {
			if err := tx.Update(refs[i], []firestore.Update{
				{Path: "Embedding", Value: firestore.Vector32(u.Embedding)},
				{Path: "Vectorized", Value: true},
			}); err != nil {
				return goerr.Wrap(err, "failed to update embedding", goerr.V("id", u.ID))
			}
		}
		return nil
	})
	if err != nil {
		return goerr.Wrap(err, "failed to update embeddings", goerr.V("count", len(updates)))
	}

	return nil
}

// FindByEmbedding relies on Firestore's vector index; equal distances come
// back in index order rather than insertion order.
func (r *knowledgeRepository) FindByEmbedding(ctx context.Context, embedding []float32, limit int) ([]*model.KnowledgeEntry, error) {
	vq := r.collection().
		FindNearest("Embedding", firestore.Vector32(embedding), limit, firestore.DistanceMeasureCosine, nil)

	iter := vq.Documents(ctx)
	defer iter.Stop()

	entries := make([]*model.KnowledgeEntry, 0, limit)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate vector search results")
		}

		k, err := docToKnowledge(doc)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal knowledge from vector search")
		}
		entries = append(entries, k)
	}

	return entries, nil
}
