package config

import (
	"context"
	"fmt"

	"github.com/insurdesk/concierge/pkg/domain/interfaces"
	"github.com/insurdesk/concierge/pkg/service/provider"
	"github.com/insurdesk/concierge/pkg/service/vectorizer"
	"github.com/insurdesk/concierge/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

const (
	EmbeddingHash   = "hash"
	EmbeddingGemini = "gemini"

	IndexingEmbedderProvider = "provider"
	IndexingEmbedderLocal    = "local"
)

// Embedding selects the query vectorizer and the indexing embedder
type Embedding struct {
	backend          string
	indexingEmbedder string
	gemini           Gemini
}

func (e *Embedding) Flags() []cli.Flag {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "embedding-backend",
			Category:    "Embedding",
			Usage:       "Query vectorizer (hash, gemini)",
			Value:       EmbeddingHash,
			Sources:     cli.EnvVars("CONCIERGE_EMBEDDING_BACKEND"),
			Destination: &e.backend,
		},
		&cli.StringFlag{
			Name:        "indexing-embedder",
			Category:    "Embedding",
			Usage:       "Embedding source for indexing: provider (/vectorize-batch) or local (same as queries)",
			Value:       IndexingEmbedderProvider,
			Sources:     cli.EnvVars("CONCIERGE_INDEXING_EMBEDDER"),
			Destination: &e.indexingEmbedder,
		},
	}
	return append(flags, e.gemini.Flags()...)
}

// Embedders holds the configured pair
type Embedders struct {
	Vectorizer interfaces.Vectorizer
	Indexer    interfaces.BatchEmbedder
}

func (e *Embedding) backendName() string {
	if e.backend == "" {
		return EmbeddingHash
	}
	return e.backend
}

func mismatchWarning(backend string) string {
	return fmt.Sprintf("Indexing embeds through the provider while queries use the %s vectorizer; "+
		"stored and query vectors may not share an embedding space. Use --indexing-embedder=local to align them.", backend)
}

// Configure builds the vectorizer and the batch embedder. svc is only used
// when the indexing embedder is the provider.
func (e *Embedding) Configure(ctx context.Context, svc provider.Service) (*Embedders, error) {
	var v interfaces.Vectorizer
	var local interfaces.BatchEmbedder

	switch e.backend {
	case "", EmbeddingHash:
		h := vectorizer.NewHash()
		v, local = h, h

	case EmbeddingGemini:
		client, err := e.gemini.Configure(ctx)
		if err != nil {
			return nil, err
		}
		if client == nil {
			return nil, goerr.Wrap(ErrMissingFlag, "gemini-project is required for the gemini embedding backend",
				goerr.V(FlagKey, "gemini-project"))
		}
		llm, err := vectorizer.NewLLM(client)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create LLM vectorizer")
		}
		v, local = llm, llm
		logging.From(ctx).Info("Using Gemini embeddings", e.gemini.LogAttrs()...)

	default:
		return nil, goerr.Wrap(ErrInvalidBackend, "invalid embedding backend", goerr.V(BackendKey, e.backend))
	}

	out := &Embedders{Vectorizer: v}
	switch e.indexingEmbedder {
	case "", IndexingEmbedderProvider:
		if svc == nil {
			return nil, goerr.Wrap(ErrMissingFlag, "provider is required for the provider indexing embedder")
		}
		out.Indexer = svc
		logging.From(ctx).Warn(mismatchWarning(e.backendName()), "embedding_backend", e.backendName())

	case IndexingEmbedderLocal:
		out.Indexer = local

	default:
		return nil, goerr.Wrap(ErrInvalidBackend, "invalid indexing embedder", goerr.V(BackendKey, e.indexingEmbedder))
	}

	return out, nil
}
