// Package cache provides the in-process tracking result cache.
package cache

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/99minutos/parcel-tracker/internal/core/domain"
	"github.com/99minutos/parcel-tracker/internal/core/ports"
)

// DefaultTTL is how long a tracking result stays valid after insertion.
const DefaultTTL = 5 * time.Minute

type entry struct {
	result     *domain.TrackingResult
	insertedAt time.Time
}

// Memory is a TrackingCache held in process memory. Entries expire by age
// only and are evicted lazily by Get; there is no background sweep.
type Memory struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemory returns an empty cache. ttl <= 0 uses DefaultTTL and a nil now
// uses time.Now.
func NewMemory(ttl time.Duration, now func() time.Time) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Memory{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     now,
	}
}

// Get returns the stored result while it is younger than the TTL. A stale
// entry is deleted and reported as a miss.
func (m *Memory) Get(_ context.Context, trackingNumber string) (*domain.TrackingResult, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[trackingNumber]
	if !ok {
		return nil, false, nil
	}
	if m.now().Sub(e.insertedAt) > m.ttl {
		delete(m.entries, trackingNumber)
		return nil, false, nil
	}
	return e.result, true, nil
}

func (m *Memory) Put(_ context.Context, trackingNumber string, result *domain.TrackingResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[trackingNumber] = entry{result: result, insertedAt: m.now()}
	return nil
}

func (m *Memory) Invalidate(_ context.Context, trackingNumber string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, trackingNumber)
	return nil
}

func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = make(map[string]entry)
	return nil
}

// Stats reports every stored key, including entries that have expired but
// not yet been evicted.
func (m *Memory) Stats(_ context.Context) (ports.CacheStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]string, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return ports.CacheStats{Size: len(keys), Entries: keys}, nil
}

// Len returns the number of stored entries.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

var _ ports.TrackingCache = (*Memory)(nil)
