package worker

import (
	"context"
	"sync"
	"time"

	"github.com/insurdesk/concierge/pkg/domain/model"
	"github.com/insurdesk/concierge/pkg/domain/types"
	"github.com/insurdesk/concierge/pkg/utils/logging"
)

// Indexer runs one indexing pass for a source type
type Indexer interface {
	Run(ctx context.Context, sourceType types.SourceType) *model.IndexResult
}

// IndexingWorker vectorizes pending entries on a fixed interval so newly
// created knowledge becomes searchable without a manual run. Overlap with a
// manual run is prevented by the indexer's own lock.
type IndexingWorker struct {
	indexer     Indexer
	sourceTypes []types.SourceType
	interval    time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	stopOnce    sync.Once
}

// NewIndexingWorker creates a worker for the given source types
func NewIndexingWorker(indexer Indexer, interval time.Duration, sourceTypes ...types.SourceType) *IndexingWorker {
	return &IndexingWorker{
		indexer:     indexer,
		sourceTypes: sourceTypes,
		interval:    interval,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
}

// Start begins the background loop; it does not block server startup
func (w *IndexingWorker) Start(ctx context.Context) {
	logging.From(ctx).Info("Indexing worker starting",
		"interval", w.interval.String(),
		"source_types", w.sourceTypes)

	go w.run(ctx)
}

// Stop signals the worker and waits for the current pass to finish
func (w *IndexingWorker) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
	})
	<-w.doneCh
	logging.Default().Info("Indexing worker stopped")
}

func (w *IndexingWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.indexAll(ctx)

		case <-w.stopCh:
			return

		case <-ctx.Done():
			logging.From(ctx).Info("Indexing worker context cancelled")
			return
		}
	}
}

func (w *IndexingWorker) indexAll(ctx context.Context) {
	for _, st := range w.sourceTypes {
		started := time.Now()
		result := w.indexer.Run(ctx, st)

		// failures are already logged and reported by the indexer
		if result.Success && result.Processed > 0 {
			logging.From(ctx).Info("Indexing pass completed",
				"source_type", st.String(),
				"processed", result.Processed,
				"duration", time.Since(started).String())
		}
	}
}
