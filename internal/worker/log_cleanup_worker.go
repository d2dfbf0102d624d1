package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/priceforge/priceforge_api/internal/repository"
)

// LogCleanupWorker prunes calculation logs past the retention window.
type LogCleanupWorker struct {
	logRepo   *repository.CalculationLogRepository
	interval  time.Duration
	retention time.Duration
}

// NewLogCleanupWorker constructs a LogCleanupWorker.
func NewLogCleanupWorker(
	logRepo *repository.CalculationLogRepository,
	interval time.Duration,
	retention time.Duration,
) *LogCleanupWorker {
	return &LogCleanupWorker{
		logRepo:   logRepo,
		interval:  interval,
		retention: retention,
	}
}

// Start begins the periodic cleanup loop until context is canceled.
func (w *LogCleanupWorker) Start(ctx context.Context) {
	log.Info().Dur("interval", w.interval).Dur("retention", w.retention).Msg("Starting log cleanup worker")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.run()
		case <-ctx.Done():
			log.Info().Msg("Log cleanup worker stopped")
			return
		}
	}
}

func (w *LogCleanupWorker) run() {
	cutoff := time.Now().UTC().Add(-w.retention)
	deleted, err := w.logRepo.DeleteOlderThan(cutoff)
	if err != nil {
		log.Error().Err(err).Msg("Failed to prune calculation logs")
		return
	}
	if deleted > 0 {
		log.Info().Int64("deleted", deleted).Time("cutoff", cutoff).Msg("Pruned calculation logs")
	}
}
