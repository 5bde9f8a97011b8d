package cache

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/skywash/skywash-api/internal/models"
)

// Enricher is implemented by the service layer to run a full enrichment
// pass. Used by Warmer to avoid a circular dependency on the service
// package.
type Enricher interface {
	EnrichAll(ctx context.Context) ([]models.CityRecord, error)
}

// Warmer pre-warms the PM2.5 cache by running enrichment passes in the
// background, so the first /api/cities request after startup is served
// from fresh entries instead of paying per-city fetch latency.
type Warmer struct {
	enricher Enricher
	logger   *zap.Logger
}

// NewWarmer creates a Warmer that uses the given enricher and logger.
func NewWarmer(enricher Enricher, logger *zap.Logger) *Warmer {
	return &Warmer{enricher: enricher, logger: logger}
}

// Warm runs one enrichment pass to populate the cache. Per-city failures
// degrade silently inside the pass; only a wholesale failure is returned.
func (w *Warmer) Warm(ctx context.Context) error {
	start := time.Now()
	records, err := w.enricher.EnrichAll(ctx)
	if err != nil {
		return err
	}
	if w.logger != nil {
		live := 0
		for _, rec := range records {
			if rec.DataSource == models.SourceRealTime {
				live++
			}
		}
		w.logger.Info("cache warming complete",
			zap.Int("cities", len(records)),
			zap.Int("real_time", live),
			zap.Duration("duration", time.Since(start)))
	}
	return nil
}

// WarmPeriodic re-warms at the given interval until ctx is done. The
// initial pass is the caller's responsibility (run synchronously at
// startup), so the first tick here fires one full interval in.
func (w *Warmer) WarmPeriodic(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.Warm(ctx); err != nil && w.logger != nil {
				w.logger.Warn("periodic cache warm failed", zap.Error(err))
			}
		}
	}
}
