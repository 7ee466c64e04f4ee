package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/insurdesk/concierge/pkg/domain/interfaces"
	"github.com/insurdesk/concierge/pkg/domain/model"
	"github.com/insurdesk/concierge/pkg/service/metrics"
	"github.com/m-mizutani/goerr/v2"
)

const (
	DefaultSearchLimit = 5
	MaxSearchLimit     = 20

	// DefaultVectorQuery labels a vector search response that names no query
	DefaultVectorQuery = "Vector search"
)

// SearchConfig bounds the result count of a search
type SearchConfig struct {
	DefaultLimit int `toml:"default_limit"`
	MaxLimit     int `toml:"max_limit"`
}

func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		DefaultLimit: DefaultSearchLimit,
		MaxLimit:     MaxSearchLimit,
	}
}

func (c SearchConfig) Validate() error {
	if c.MaxLimit < 1 {
		return goerr.Wrap(model.ErrValidation, "max_limit must be at least 1", goerr.V("max_limit", c.MaxLimit))
	}
	if c.DefaultLimit < 1 || c.DefaultLimit > c.MaxLimit {
		return goerr.Wrap(model.ErrValidation, "default_limit must be between 1 and max_limit",
			goerr.V("default_limit", c.DefaultLimit),
			goerr.V("max_limit", c.MaxLimit))
	}
	return nil
}

type SearchUseCase struct {
	repo       interfaces.Repository
	vectorizer interfaces.Vectorizer
	config     SearchConfig
	metrics    *metrics.Metrics
}

func NewSearchUseCase(repo interfaces.Repository, v interfaces.Vectorizer, cfg SearchConfig, m *metrics.Metrics) *SearchUseCase {
	return &SearchUseCase{
		repo:       repo,
		vectorizer: v,
		config:     cfg,
		metrics:    m,
	}
}

// resolveLimit turns 0 into the default and rejects anything out of range
func (uc *SearchUseCase) resolveLimit(limit int) (int, error) {
	if limit == 0 {
		return uc.config.DefaultLimit, nil
	}
	if limit < 1 || limit > uc.config.MaxLimit {
		return 0, goerr.Wrap(model.ErrValidation, fmt.Sprintf("limit must be between 1 and %d", uc.config.MaxLimit),
			goerr.V(LimitKey, limit))
	}
	return limit, nil
}

// Search vectorizes query and returns the closest entries
func (uc *SearchUseCase) Search(ctx context.Context, query string, limit int) (*model.SearchResponse, error) {
	if strings.TrimSpace(query) == "" {
		return nil, goerr.Wrap(model.ErrValidation, "query is required")
	}
	limit, err := uc.resolveLimit(limit)
	if err != nil {
		return nil, err
	}

	vector, err := uc.vectorizer.Vectorize(ctx, query)
	if err != nil {
		return nil, goerr.Wrap(fmt.Errorf("%w: %w", model.ErrSearch, err), "failed to vectorize query")
	}

	uc.metrics.ObserveSearch("text")
	return uc.find(ctx, query, vector, limit)
}

// SearchByVector ranks entries against a caller supplied vector. An empty
// query is reported as DefaultVectorQuery.
func (uc *SearchUseCase) SearchByVector(ctx context.Context, query string, vector []float32, limit int) (*model.SearchResponse, error) {
	if len(vector) != uc.vectorizer.Dimension() {
		return nil, goerr.Wrap(model.ErrValidation, fmt.Sprintf("vector must have %d dimensions", uc.vectorizer.Dimension()),
			goerr.V("dimension", len(vector)))
	}
	limit, err := uc.resolveLimit(limit)
	if err != nil {
		return nil, err
	}
	if query == "" {
		query = DefaultVectorQuery
	}

	uc.metrics.ObserveSearch("vector")
	return uc.find(ctx, query, vector, limit)
}

func (uc *SearchUseCase) find(ctx context.Context, query string, vector []float32, limit int) (*model.SearchResponse, error) {
	entries, err := uc.repo.Knowledge().FindByEmbedding(ctx, vector, limit)
	if err != nil {
		return nil, goerr.Wrap(fmt.Errorf("%w: %w", model.ErrSearch, err), "failed to perform search",
			goerr.V(LimitKey, limit))
	}
	return model.NewSearchResponse(query, entries), nil
}
