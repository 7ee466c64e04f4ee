package memory

import (
	"github.com/insurdesk/concierge/pkg/domain/interfaces"
	"github.com/insurdesk/concierge/pkg/domain/model"
)

// ErrNotFound is returned (wrapped) for unknown IDs
var ErrNotFound = model.ErrNotFound

type Memory struct {
	knowledge *knowledgeRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		knowledge: newKnowledgeRepository(),
	}
}

func (m *Memory) Knowledge() interfaces.KnowledgeRepository {
	return m.knowledge
}

func (m *Memory) Close() error {
	return nil
}
