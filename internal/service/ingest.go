package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/raphaelgruber/coursechat-go/internal/corpus"
	"github.com/raphaelgruber/coursechat-go/internal/metrics"
)

// Ingestor runs corpus ingestion with timing metrics.
type Ingestor struct {
	store   *corpus.Store
	metrics *metrics.Collector
	logger  *slog.Logger
}

// NewIngestor wires an ingestion service.
func NewIngestor(store *corpus.Store, collector *metrics.Collector, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	if collector == nil {
		collector = metrics.NewCollector()
	}
	return &Ingestor{store: store, metrics: collector, logger: logger}
}

// SyncDirectory ingests all course documents under dir.
func (i *Ingestor) SyncDirectory(ctx context.Context, dir string, force bool) (corpus.SyncReport, error) {
	start := time.Now()
	report, err := i.store.SyncDirectory(ctx, dir, force)
	i.metrics.RecordTiming(metrics.OpIngest, time.Since(start))
	if err != nil {
		return report, err
	}

	i.logger.Info("corpus sync complete",
		"dir", dir,
		"added", report.Added,
		"skipped", report.Skipped,
		"chunks", report.Chunks,
		"failed", len(report.Failed))
	return report, nil
}
