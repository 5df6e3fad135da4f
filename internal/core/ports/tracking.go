package ports

import (
	"context"

	"github.com/99minutos/parcel-tracker/internal/core/domain"
)

// CarrierClient performs tracking lookups against the carrier API.
type CarrierClient interface {
	// Configured reports whether credentials are present. When false, Track
	// must not be called.
	Configured() bool
	// Track requests the full status history for one tracking number.
	// A tracking number unknown to the carrier yields a response with no
	// events and a nil error.
	Track(ctx context.Context, trackingNumber string) (*domain.CarrierTrackResponse, error)
}

// CacheStats summarises the live content of a TrackingCache.
type CacheStats struct {
	Size    int      `json:"size"`
	Entries []string `json:"entries"`
}

// TrackingCache memoises normalised results by tracking number for a fixed
// window. It is not durable storage.
type TrackingCache interface {
	// Get returns the cached result and true while the entry is fresh.
	Get(ctx context.Context, trackingNumber string) (*domain.TrackingResult, bool, error)
	Put(ctx context.Context, trackingNumber string, result *domain.TrackingResult) error
	Invalidate(ctx context.Context, trackingNumber string) error
	Clear(ctx context.Context) error
	Stats(ctx context.Context) (CacheStats, error)
}

// TrackingService fetches normalised tracking results for tracking numbers.
type TrackingService interface {
	FetchStatus(ctx context.Context, trackingNumber string, forceRefresh bool) (*domain.TrackingResult, error)
	// FetchMany never fails as a whole: tracking numbers whose lookup failed
	// map to an unknown result with empty history.
	FetchMany(ctx context.Context, trackingNumbers []string, forceRefresh bool) map[string]*domain.TrackingResult
	// InvalidateCache drops one entry, or every entry when trackingNumber is "".
	InvalidateCache(ctx context.Context, trackingNumber string) error
	CacheStats(ctx context.Context) (CacheStats, error)
	Configured() bool
}
