package cli

import (
	"testing"

	"github.com/insurdesk/concierge/pkg/domain/model"
	"github.com/insurdesk/concierge/pkg/domain/types"
	"github.com/m-mizutani/gt"
)

func TestGetIndexConfig(t *testing.T) {
	cfg := getIndexConfig()
	gt.Array(t, cfg.Collections).Length(1).Required()

	col := cfg.Collections[0]
	gt.Value(t, col.Name).Equal("knowledge_entries")
	gt.Array(t, col.Indexes).Length(3).Required()

	vec := col.Indexes[2].Fields[0]
	gt.Value(t, vec.Path).Equal("Embedding")
	gt.Value(t, vec.Vector).NotNil().Required()
	gt.Value(t, vec.Vector.Dimension).Equal(model.EmbeddingDimension)

	gt.NoError(t, cfg.Validate())
}

func TestPickSourceType(t *testing.T) {
	st, err := pickSourceType("", types.SourceTypeFAQ)
	gt.NoError(t, err).Required()
	gt.Value(t, st).Equal(types.SourceTypeFAQ)

	st, err = pickSourceType("policy", types.SourceTypeFAQ)
	gt.NoError(t, err).Required()
	gt.Value(t, st).Equal(types.SourceTypePolicy)

	_, err = pickSourceType("Bad Type", types.SourceTypeFAQ)
	gt.Error(t, err)
}
