package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/99minutos/parcel-tracker/internal/core/domain"
	"github.com/99minutos/parcel-tracker/internal/core/ports"
)

const (
	trackingKeyPrefix = "tracking:"
	scanBatch         = 100
)

// TrackingCache stores normalised tracking results in Redis so that several
// API instances share one cache. Expiry is left to Redis.
// Every Get decodes a new *TrackingResult: callers within the window get
// equal values, not the same pointer as with cache.Memory.
// Key format: tracking:<tracking_number>
type TrackingCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTrackingCache creates a TrackingCache wrapping the given Redis client.
func NewTrackingCache(client *redis.Client, ttl time.Duration) *TrackingCache {
	return &TrackingCache{client: client, ttl: ttl}
}

func (c *TrackingCache) Get(ctx context.Context, trackingNumber string) (*domain.TrackingResult, bool, error) {
	raw, err := c.client.Get(ctx, c.key(trackingNumber)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("tracking cache get: %w", err)
	}

	var result domain.TrackingResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, false, fmt.Errorf("tracking cache decode: %w", err)
	}
	return &result, true, nil
}

func (c *TrackingCache) Put(ctx context.Context, trackingNumber string, result *domain.TrackingResult) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("tracking cache encode: %w", err)
	}
	return c.client.Set(ctx, c.key(trackingNumber), raw, c.ttl).Err()
}

func (c *TrackingCache) Invalidate(ctx context.Context, trackingNumber string) error {
	return c.client.Del(ctx, c.key(trackingNumber)).Err()
}

// Clear removes every tracking entry, leaving other keys alone.
func (c *TrackingCache) Clear(ctx context.Context) error {
	keys, err := c.keys(ctx)
	if err != nil {
		return err
	}
	for start := 0; start < len(keys); start += scanBatch {
		end := min(start+scanBatch, len(keys))
		if err := c.client.Del(ctx, keys[start:end]...).Err(); err != nil {
			return fmt.Errorf("tracking cache clear: %w", err)
		}
	}
	return nil
}

func (c *TrackingCache) Stats(ctx context.Context) (ports.CacheStats, error) {
	keys, err := c.keys(ctx)
	if err != nil {
		return ports.CacheStats{}, err
	}
	entries := make([]string, len(keys))
	for i, k := range keys {
		entries[i] = strings.TrimPrefix(k, trackingKeyPrefix)
	}
	slices.Sort(entries)
	return ports.CacheStats{Size: len(entries), Entries: entries}, nil
}

func (c *TrackingCache) keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := c.client.Scan(ctx, 0, trackingKeyPrefix+"*", scanBatch).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("tracking cache scan: %w", err)
	}
	return keys, nil
}

func (c *TrackingCache) key(trackingNumber string) string {
	return trackingKeyPrefix + trackingNumber
}

var _ ports.TrackingCache = (*TrackingCache)(nil)
