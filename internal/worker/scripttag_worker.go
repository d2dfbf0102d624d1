package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/priceforge/priceforge_api/internal/service"
)

// ScriptTagWorker periodically re-asserts the storefront script tag on every
// active shop, restoring it when a merchant removed it by hand.
type ScriptTagWorker struct {
	shops    *service.ShopService
	interval time.Duration
}

// NewScriptTagWorker constructs a ScriptTagWorker.
func NewScriptTagWorker(shops *service.ShopService, interval time.Duration) *ScriptTagWorker {
	return &ScriptTagWorker{
		shops:    shops,
		interval: interval,
	}
}

// Start begins the periodic reassertion loop until context is canceled.
func (w *ScriptTagWorker) Start(ctx context.Context) {
	log.Info().Dur("interval", w.interval).Msg("Starting script tag worker")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.run(ctx)
		case <-ctx.Done():
			log.Info().Msg("Script tag worker stopped")
			return
		}
	}
}

func (w *ScriptTagWorker) run(ctx context.Context) {
	refreshed, err := w.shops.RefreshScriptTags(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to refresh script tags")
		return
	}
	if refreshed > 0 {
		log.Info().Int("refreshed", refreshed).Msg("Reinstalled missing script tags")
	}
}
