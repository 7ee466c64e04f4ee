package usecase

import (
	"github.com/insurdesk/concierge/pkg/domain/interfaces"
	"github.com/insurdesk/concierge/pkg/service/lock"
	"github.com/insurdesk/concierge/pkg/service/metrics"
	"github.com/insurdesk/concierge/pkg/service/provider"
	"github.com/insurdesk/concierge/pkg/service/vectorizer"
)

type UseCases struct {
	repo         interfaces.Repository
	vectorizer   interfaces.Vectorizer
	embedder     interfaces.BatchEmbedder
	provider     provider.Service
	locker       interfaces.Locker
	metrics      *metrics.Metrics
	responder    ChatResponder
	searchConfig SearchConfig

	Search    *SearchUseCase
	Indexing  *IndexingUseCase
	Knowledge *KnowledgeUseCase
	// Gateway is nil when no provider is configured
	Gateway *GatewayUseCase
	// Chat is nil when neither a provider nor a responder is configured
	Chat *ChatUseCase
}

type Option func(*UseCases)

// WithVectorizer sets the query vectorizer. The hash vectorizer is used
// when none is given.
func WithVectorizer(v interfaces.Vectorizer) Option {
	return func(uc *UseCases) {
		uc.vectorizer = v
	}
}

// WithBatchEmbedder sets the embedding source of the indexing pipeline
func WithBatchEmbedder(e interfaces.BatchEmbedder) Option {
	return func(uc *UseCases) {
		uc.embedder = e
	}
}

func WithProvider(p provider.Service) Option {
	return func(uc *UseCases) {
		uc.provider = p
	}
}

func WithLocker(l interfaces.Locker) Option {
	return func(uc *UseCases) {
		uc.locker = l
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(uc *UseCases) {
		uc.metrics = m
	}
}

// WithChatResponder replaces the gateway as the chat strategy
func WithChatResponder(r ChatResponder) Option {
	return func(uc *UseCases) {
		uc.responder = r
	}
}

func WithSearchConfig(cfg SearchConfig) Option {
	return func(uc *UseCases) {
		uc.searchConfig = cfg
	}
}

func New(repo interfaces.Repository, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:         repo,
		searchConfig: DefaultSearchConfig(),
	}

	for _, opt := range opts {
		opt(uc)
	}

	if uc.vectorizer == nil {
		uc.vectorizer = vectorizer.NewHash()
	}
	if uc.embedder == nil {
		if e, ok := uc.vectorizer.(interfaces.BatchEmbedder); ok {
			uc.embedder = e
		}
	}
	if uc.locker == nil {
		uc.locker = lock.NewMemory()
	}

	uc.Search = NewSearchUseCase(repo, uc.vectorizer, uc.searchConfig, uc.metrics)
	uc.Indexing = NewIndexingUseCase(repo, uc.embedder, uc.locker, uc.metrics)
	uc.Knowledge = NewKnowledgeUseCase(repo)

	if uc.provider != nil {
		uc.Gateway = NewGatewayUseCase(uc.provider, uc.metrics)
	}

	responder := uc.responder
	if responder == nil && uc.Gateway != nil {
		responder = uc.Gateway
	}
	if responder != nil {
		uc.Chat = NewChatUseCase(responder)
	}

	return uc
}
