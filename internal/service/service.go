package service

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/skywash/skywash-api/internal/cache"
	"github.com/skywash/skywash-api/internal/citymap"
	"github.com/skywash/skywash-api/internal/client"
	"github.com/skywash/skywash-api/internal/dataset"
	"github.com/skywash/skywash-api/internal/models"
	"github.com/skywash/skywash-api/internal/observability"
	"github.com/skywash/skywash-api/internal/traffic"
)

// Summary reports the outcome of a forced refresh.
type Summary struct {
	Message         string `json:"message"`
	TotalCities     int    `json:"total_cities"`
	RealTimeSources int    `json:"real_time_sources"`
	StaticSources   int    `json:"static_sources"`
	Timestamp       string `json:"timestamp"`
}

// EnrichmentService runs the real-time enrichment pipeline: cache-aside
// PM2.5 lookups fanned out across all cities, merged positionally with
// the static baselines. Every per-city failure degrades that city alone
// to its baseline record.
type EnrichmentService struct {
	dataset *dataset.Dataset
	client  client.AirQualityClient
	store   cache.Store
	tracker *traffic.Tracker // optional outcome window for health checks
	logger  *zap.Logger
	clock   clockwork.Clock
}

// NewEnrichmentService creates an EnrichmentService. tracker may be nil;
// a nil clock defaults to the real clock.
func NewEnrichmentService(
	ds *dataset.Dataset,
	aq client.AirQualityClient,
	store cache.Store,
	tracker *traffic.Tracker,
	logger *zap.Logger,
	clock clockwork.Clock,
) *EnrichmentService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &EnrichmentService{
		dataset: ds,
		client:  aq,
		store:   store,
		tracker: tracker,
		logger:  logger,
		clock:   clock,
	}
}

// fetchOutcome is the typed result of one city's fetch attempt. Failure
// carries a stable reason for logs and metrics instead of an error that
// could leak out of the per-city boundary.
type fetchOutcome struct {
	pm25   float64
	ok     bool
	reason client.FailureReason
}

// EnrichAll produces one enriched record per city, in dataset order,
// regardless of how many individual fetches fail. The only error case is
// a wholesale one (no dataset wired); callers then serve StaticFallback.
func (s *EnrichmentService) EnrichAll(ctx context.Context) ([]models.CityRecord, error) {
	if s.dataset == nil {
		return nil, fmt.Errorf("enrich: no city dataset loaded")
	}
	start := time.Now()
	base := s.dataset.Records()
	results := make([]models.CityRecord, len(base))

	var wg sync.WaitGroup
	for i, rec := range base {
		wg.Add(1)
		go func(i int, rec models.CityRecord) {
			defer wg.Done()
			// A panic in one city's task must not take down the pass;
			// that city degrades like any other failure.
			defer func() {
				if r := recover(); r != nil {
					if s.logger != nil {
						s.logger.Error("enrichment task panicked",
							zap.String("city", rec.City), zap.Any("panic", r))
					}
					results[i] = s.staticCopy(rec)
					s.recordOutcome(models.SourceStatic)
				}
			}()
			results[i] = s.enrichOne(ctx, rec)
		}(i, rec)
	}
	wg.Wait()

	observability.EnrichmentPassesTotal.Inc()
	observability.EnrichmentDurationSeconds.Observe(time.Since(start).Seconds())
	return results, nil
}

// enrichOne merges one city's fetch outcome into a copy of its baseline.
func (s *EnrichmentService) enrichOne(ctx context.Context, rec models.CityRecord) models.CityRecord {
	out := s.fetchPM25(ctx, rec.City)
	if !out.ok {
		if s.logger != nil {
			s.logger.Debug("serving static fallback",
				zap.String("city", rec.City), zap.String("reason", string(out.reason)))
		}
		s.recordOutcome(models.SourceStatic)
		return s.staticCopy(rec)
	}

	rec.PM25 = round1(out.pm25)
	rec.DataSource = models.SourceRealTime
	rec.LastUpdated = s.clock.Now().UTC().Format(time.RFC3339)
	s.recordOutcome(models.SourceRealTime)
	return rec
}

// fetchPM25 resolves a city's current PM2.5 via cache-aside: fresh cache
// entry wins, otherwise one feed call keyed by the provider slug. The
// cache key stays on the display name so distinct cities sharing a slug
// keep separate entries.
func (s *EnrichmentService) fetchPM25(ctx context.Context, displayName string) fetchOutcome {
	key := cache.KeyForCity(displayName)

	cached, ok, err := s.store.Get(ctx, key)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("cache get failed", zap.String("city", displayName), zap.Error(err))
		}
	} else if ok {
		observability.CacheHitsTotal.Inc()
		return fetchOutcome{pm25: cached.PM25, ok: true}
	}

	slug := citymap.ProviderID(displayName)
	value, err := s.client.FetchPM25(ctx, slug)
	if err != nil {
		if s.logger != nil {
			s.logger.Debug("feed fetch failed",
				zap.String("city", displayName), zap.String("slug", slug), zap.Error(err))
		}
		return fetchOutcome{reason: client.Categorize(err)}
	}

	reading := cache.Reading{PM25: value, FetchedAt: s.clock.Now(), Source: cache.SourceWAQI}
	if err := s.store.Set(ctx, key, reading); err != nil && s.logger != nil {
		s.logger.Warn("cache set failed", zap.String("city", displayName), zap.Error(err))
	}
	return fetchOutcome{pm25: value, ok: true}
}

// Refresh clears the cache and runs a fresh enrichment pass, so every
// city gets a live fetch attempt. Two consecutive refreshes both hit the
// feed.
func (s *EnrichmentService) Refresh(ctx context.Context) (Summary, error) {
	if err := s.store.Clear(ctx); err != nil {
		// A failed clear degrades to a normal pass; stale entries age out.
		if s.logger != nil {
			s.logger.Warn("cache clear failed", zap.Error(err))
		}
	} else {
		observability.CacheClearsTotal.Inc()
	}

	records, err := s.EnrichAll(ctx)
	if err != nil {
		return Summary{}, err
	}

	live := 0
	for _, rec := range records {
		if rec.DataSource == models.SourceRealTime {
			live++
		}
	}
	if s.logger != nil {
		s.logger.Info("refresh complete",
			zap.Int("total", len(records)), zap.Int("real_time", live))
	}
	return Summary{
		Message:         "Data refreshed successfully",
		TotalCities:     len(records),
		RealTimeSources: live,
		StaticSources:   len(records) - live,
		Timestamp:       s.clock.Now().UTC().Format(time.RFC3339),
	}, nil
}

// StaticFallback returns the full dataset tagged static, for when an
// enrichment pass fails wholesale. Always one record per city, in order.
func (s *EnrichmentService) StaticFallback() []models.CityRecord {
	base := s.dataset.Records()
	for i := range base {
		base[i].DataSource = models.SourceStatic
		base[i].LastUpdated = models.LastUpdatedStatic
	}
	return base
}

func (s *EnrichmentService) staticCopy(rec models.CityRecord) models.CityRecord {
	rec.DataSource = models.SourceStatic
	rec.LastUpdated = models.LastUpdatedStatic
	return rec
}

func (s *EnrichmentService) recordOutcome(source string) {
	observability.EnrichmentResultsTotal.WithLabelValues(source).Inc()
	if source == models.SourceRealTime {
		s.tracker.RecordRealTime()
	} else {
		s.tracker.RecordStatic()
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
