package cli

import (
	"context"

	"github.com/insurdesk/concierge/pkg/cli/config"
	"github.com/insurdesk/concierge/pkg/domain/interfaces"
	"github.com/insurdesk/concierge/pkg/service/metrics"
	"github.com/insurdesk/concierge/pkg/usecase"
	"github.com/insurdesk/concierge/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// runtimeConfig gathers the flag groups shared by the commands that need
// the knowledge store and the embedding pipeline
type runtimeConfig struct {
	app       config.App
	repo      config.Repository
	provider  config.Provider
	embedding config.Embedding
	lock      config.Lock
}

func (r *runtimeConfig) Flags() []cli.Flag {
	var flags []cli.Flag
	flags = append(flags, r.app.Flags()...)
	flags = append(flags, r.repo.Flags()...)
	flags = append(flags, r.provider.Flags()...)
	flags = append(flags, r.embedding.Flags()...)
	flags = append(flags, r.lock.Flags()...)
	return flags
}

// runtime is the wired dependency set. Close releases the repository and
// the lock backend.
type runtime struct {
	app     *config.AppConfig
	repo    interfaces.Repository
	uc      *usecase.UseCases
	closers []func()
}

func (r *runtime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
}

func (r *runtimeConfig) build(ctx context.Context, m *metrics.Metrics, extra ...usecase.Option) (*runtime, error) {
	appCfg, err := r.app.Configure()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load app configuration")
	}

	rt := &runtime{app: appCfg}

	repo, err := r.repo.Configure(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize repository")
	}
	rt.repo = repo
	rt.closers = append(rt.closers, func() {
		if err := repo.Close(); err != nil {
			logging.Default().Error("failed to close repository", "error", err.Error())
		}
	})

	svc, err := r.provider.Configure(appCfg)
	if err != nil {
		rt.Close()
		return nil, goerr.Wrap(err, "failed to configure provider client")
	}

	embedders, err := r.embedding.Configure(ctx, svc)
	if err != nil {
		rt.Close()
		return nil, goerr.Wrap(err, "failed to configure embedding")
	}

	locker, closeLock, err := r.lock.Configure(ctx)
	if err != nil {
		rt.Close()
		return nil, goerr.Wrap(err, "failed to configure lock")
	}
	rt.closers = append(rt.closers, closeLock)

	opts := []usecase.Option{
		usecase.WithProvider(svc),
		usecase.WithVectorizer(embedders.Vectorizer),
		usecase.WithBatchEmbedder(embedders.Indexer),
		usecase.WithLocker(locker),
		usecase.WithMetrics(m),
		usecase.WithSearchConfig(appCfg.Search),
	}
	rt.uc = usecase.New(repo, append(opts, extra...)...)

	logging.From(ctx).Info("Runtime configured",
		"repository_backend", r.repo.Backend(),
		"provider_url", svc.URL(),
		"source_type", appCfg.SourceType().String())

	return rt, nil
}
