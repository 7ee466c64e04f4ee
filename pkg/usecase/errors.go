package usecase

import (
	"fmt"

	"github.com/insurdesk/concierge/pkg/domain/model"
	"github.com/insurdesk/concierge/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// Context keys for error values
const (
	SourceTypeKey  = "source_type"
	KnowledgeIDKey = "knowledge_id"
	LimitKey       = "limit"
)

// validateSourceType tags a malformed source type as a validation error
func validateSourceType(sourceType types.SourceType) error {
	if err := sourceType.Validate(); err != nil {
		return goerr.Wrap(fmt.Errorf("%w: %w", model.ErrValidation, err), "invalid source type",
			goerr.V(SourceTypeKey, sourceType))
	}
	return nil
}
