package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/99minutos/parcel-tracker/internal/core/domain"
	"github.com/99minutos/parcel-tracker/internal/core/normalizer"
	"github.com/99minutos/parcel-tracker/internal/core/ports"
	"github.com/99minutos/parcel-tracker/internal/pkg/metrics"
)

// TrackingService is the gateway to the carrier: it serves results from the
// cache, calls the carrier on a miss and normalises what comes back.
type TrackingService struct {
	carrier    ports.CarrierClient
	cache      ports.TrackingCache
	normalizer *normalizer.Normalizer
	inflight   singleflight.Group
	now        func() time.Time
	log        zerolog.Logger
}

// NewTrackingService wires a TrackingService. now defaults to time.Now.
func NewTrackingService(
	carrier ports.CarrierClient,
	cache ports.TrackingCache,
	norm *normalizer.Normalizer,
	now func() time.Time,
	log zerolog.Logger,
) *TrackingService {
	if now == nil {
		now = time.Now
	}
	return &TrackingService{
		carrier:    carrier,
		cache:      cache,
		normalizer: norm,
		now:        now,
		log:        log,
	}
}

// Configured reports whether the carrier client has credentials.
func (s *TrackingService) Configured() bool {
	return s.carrier.Configured()
}

// FetchStatus returns the normalised tracking result for trackingNumber.
// Unless forceRefresh is set, a fresh cached result is returned without
// contacting the carrier. Concurrent misses for the same tracking number
// share a single carrier call; a caller whose ctx ends stops waiting without
// failing the others.
func (s *TrackingService) FetchStatus(ctx context.Context, trackingNumber string, forceRefresh bool) (*domain.TrackingResult, error) {
	if !forceRefresh {
		if cached, ok := s.lookup(ctx, trackingNumber); ok {
			return cached, nil
		}
	}

	// The shared call outlives any single caller; the carrier client bounds
	// it with its own deadline.
	ch := s.inflight.DoChan(trackingNumber, func() (any, error) {
		return s.fetch(context.WithoutCancel(ctx), trackingNumber)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*domain.TrackingResult), nil
	}
}

// FetchMany looks up each tracking number in turn. Lookups are never run in
// parallel so the carrier sees the same load as a single client. A failed
// lookup is logged and reported as an unknown result with empty history.
func (s *TrackingService) FetchMany(ctx context.Context, trackingNumbers []string, forceRefresh bool) map[string]*domain.TrackingResult {
	results := make(map[string]*domain.TrackingResult, len(trackingNumbers))
	for _, tn := range trackingNumbers {
		if _, done := results[tn]; done {
			continue
		}

		result, err := s.FetchStatus(ctx, tn, forceRefresh)
		if err != nil {
			s.log.Error().Err(err).Str("tracking_number", tn).Msg("batch lookup failed")
			result = domain.EmptyResult(s.now())
		}
		results[tn] = result
	}
	return results
}

// InvalidateCache drops the cached entry for trackingNumber, or the whole
// cache when trackingNumber is empty.
func (s *TrackingService) InvalidateCache(ctx context.Context, trackingNumber string) error {
	if trackingNumber == "" {
		if err := s.cache.Clear(ctx); err != nil {
			return fmt.Errorf("clear tracking cache: %w", err)
		}
		s.log.Info().Msg("tracking cache cleared")
		return nil
	}
	if err := s.cache.Invalidate(ctx, trackingNumber); err != nil {
		return fmt.Errorf("invalidate %s: %w", trackingNumber, err)
	}
	return nil
}

// CacheStats reports the current cache content.
func (s *TrackingService) CacheStats(ctx context.Context) (ports.CacheStats, error) {
	return s.cache.Stats(ctx)
}

func (s *TrackingService) lookup(ctx context.Context, trackingNumber string) (*domain.TrackingResult, bool) {
	cached, ok, err := s.cache.Get(ctx, trackingNumber)
	switch {
	case err != nil:
		metrics.TrackingCacheLookupsTotal.WithLabelValues("error").Inc()
		s.log.Warn().Err(err).Str("tracking_number", trackingNumber).Msg("cache lookup failed, calling carrier")
		return nil, false
	case ok:
		metrics.TrackingCacheLookupsTotal.WithLabelValues("hit").Inc()
		s.log.Debug().Str("tracking_number", trackingNumber).Msg("using cached tracking result")
		return cached, true
	default:
		metrics.TrackingCacheLookupsTotal.WithLabelValues("miss").Inc()
		return nil, false
	}
}

func (s *TrackingService) fetch(ctx context.Context, trackingNumber string) (*domain.TrackingResult, error) {
	if !s.carrier.Configured() {
		return nil, domain.ErrCarrierNotConfigured
	}

	resp, err := s.carrier.Track(ctx, trackingNumber)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", trackingNumber, err)
	}

	var result *domain.TrackingResult
	if resp == nil || len(resp.Events) == 0 {
		s.log.Info().Str("tracking_number", trackingNumber).Msg("carrier has no record")
		result = domain.EmptyResult(s.now())
	} else {
		result = &domain.TrackingResult{
			Status:      s.normalizer.MostRecentStatus(resp.Events),
			History:     s.normalizer.TransformEvents(resp.Events),
			LastUpdated: s.now(),
		}
		s.log.Info().
			Str("tracking_number", trackingNumber).
			Str("status", string(result.Status)).
			Int("events", len(result.History)).
			Msg("tracking result fetched")
	}

	if err := s.cache.Put(ctx, trackingNumber, result); err != nil {
		s.log.Warn().Err(err).Str("tracking_number", trackingNumber).Msg("failed to cache tracking result")
	}
	return result, nil
}
