package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/insurdesk/concierge/pkg/cli/config"
	httpctrl "github.com/insurdesk/concierge/pkg/controller/http"
	"github.com/insurdesk/concierge/pkg/service/metrics"
	"github.com/insurdesk/concierge/pkg/service/worker"
	"github.com/insurdesk/concierge/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v3"
)

func cmdServe(version string) *cli.Command {
	var addr string
	var indexInterval time.Duration
	var rtCfg runtimeConfig
	var sentryCfg config.Sentry
	var chatCfg config.Chat

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("CONCIERGE_ADDR"),
			Destination: &addr,
		},
		&cli.DurationFlag{
			Name:        "indexing-interval",
			Category:    "Indexing",
			Usage:       "Run the indexing pipeline periodically (0 disables)",
			Sources:     cli.EnvVars("CONCIERGE_INDEXING_INTERVAL"),
			Destination: &indexInterval,
		},
	}

	flags = append(flags, rtCfg.Flags()...)
	flags = append(flags, sentryCfg.Flags()...)
	flags = append(flags, chatCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			flush, err := sentryCfg.Configure(version)
			if err != nil {
				return goerr.Wrap(err, "failed to configure sentry")
			}
			defer flush()

			chatOpts, err := chatCfg.Options()
			if err != nil {
				return goerr.Wrap(err, "failed to configure chat")
			}

			registry := prometheus.NewRegistry()
			registry.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			m := metrics.New(registry)

			rt, err := rtCfg.build(ctx, m, chatOpts...)
			if err != nil {
				return err
			}
			defer rt.Close()

			uc := rt.uc
			if uc.Gateway != nil {
				state := uc.Gateway.Start(ctx)
				logging.Default().Info("Gateway initialized", "state", state, "chat_mode", chatCfg.Mode())
			}

			var indexWorker *worker.IndexingWorker
			if indexInterval > 0 {
				indexWorker = worker.NewIndexingWorker(uc.Indexing, indexInterval, rt.app.SourceType())
				indexWorker.Start(ctx)
			}

			handler := httpctrl.New(uc,
				httpctrl.WithMetrics(m, registry),
				httpctrl.WithDefaultSourceType(rt.app.SourceType()),
			)
			server := &http.Server{
				Addr:              addr,
				Handler:           handler,
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				if indexWorker != nil {
					indexWorker.Stop()
				}

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}
