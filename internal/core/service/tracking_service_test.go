package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/parcel-tracker/internal/core/domain"
	"github.com/99minutos/parcel-tracker/internal/core/normalizer"
	"github.com/99minutos/parcel-tracker/internal/core/ports"
	"github.com/99minutos/parcel-tracker/internal/infrastructure/thailandpost"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubCarrier struct {
	mu         sync.Mutex
	configured bool
	responses  map[string]*domain.CarrierTrackResponse
	errs       map[string]error
	calls      []string
	release    chan struct{} // if set, Track blocks until closed
	started    chan struct{} // if set, receives once per call
}

func newStubCarrier() *stubCarrier {
	return &stubCarrier{
		configured: true,
		responses:  make(map[string]*domain.CarrierTrackResponse),
		errs:       make(map[string]error),
	}
}

func (c *stubCarrier) Configured() bool { return c.configured }

func (c *stubCarrier) Track(ctx context.Context, tn string) (*domain.CarrierTrackResponse, error) {
	c.mu.Lock()
	c.calls = append(c.calls, tn)
	c.mu.Unlock()

	if c.started != nil {
		c.started <- struct{}{}
	}
	if c.release != nil {
		select {
		case <-c.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := c.errs[tn]; err != nil {
		return nil, err
	}
	if resp, ok := c.responses[tn]; ok {
		return resp, nil
	}
	return &domain.CarrierTrackResponse{}, nil
}

func (c *stubCarrier) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

type stubCache struct {
	mu      sync.Mutex
	entries map[string]*domain.TrackingResult
	getErr  error
	putErr  error
	cleared bool
}

func newStubCache() *stubCache {
	return &stubCache{entries: make(map[string]*domain.TrackingResult)}
}

func (c *stubCache) Get(_ context.Context, key string) (*domain.TrackingResult, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	r, ok := c.entries[key]
	return r, ok, nil
}

func (c *stubCache) Put(_ context.Context, key string, r *domain.TrackingResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.putErr != nil {
		return c.putErr
	}
	c.entries[key] = r
	return nil
}

func (c *stubCache) Invalidate(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func (c *stubCache) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*domain.TrackingResult)
	c.cleared = true
	return nil
}

func (c *stubCache) Stats(_ context.Context) (ports.CacheStats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	stats := ports.CacheStats{Size: len(c.entries)}
	for k := range c.entries {
		stats.Entries = append(stats.Entries, k)
	}
	return stats, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var trackingNow = time.Date(2026, time.January, 10, 8, 0, 0, 0, time.UTC)

func newTrackingSvc(carrier ports.CarrierClient, cache ports.TrackingCache) *TrackingService {
	now := func() time.Time { return trackingNow }
	return NewTrackingService(carrier, cache, normalizer.New(zerolog.Nop(), now), now, zerolog.Nop())
}

func deliveredResponse() *domain.CarrierTrackResponse {
	return &domain.CarrierTrackResponse{
		Events: []domain.CarrierEvent{
			{Barcode: "EP123456789TH", Status: "103", StatusDate: "20/07/2568 10:00:00+07:00", StatusDescription: "DEPOSIT", StatusDetail: "Bangkok"},
			{Barcode: "EP123456789TH", Status: "301", StatusDate: "21/07/2568 09:00:00+07:00", StatusDescription: "DELIVERY", StatusDetail: "Tokyo"},
		},
		TrackCount: domain.CarrierTrackCount{CountNumber: 12, TrackCountLimit: 1500},
	}
}

// ---------------------------------------------------------------------------
// FetchStatus tests
// ---------------------------------------------------------------------------

func TestTrackingService_FetchStatus_Delivered(t *testing.T) {
	carrier := newStubCarrier()
	carrier.responses["EP123456789TH"] = deliveredResponse()
	cache := newStubCache()
	svc := newTrackingSvc(carrier, cache)

	result, err := svc.FetchStatus(context.Background(), "EP123456789TH", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Status != domain.StatusDelivered {
		t.Errorf("expected delivered, got %q", result.Status)
	}
	if len(result.History) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(result.History))
	}
	if ts := result.History[0].Timestamp.Format(time.RFC3339); ts != "2025-07-20T10:00:00+07:00" {
		t.Errorf("unexpected first timestamp %s", ts)
	}
	if result.History[0].Location != "Bangkok" || result.History[0].Message != "DEPOSIT" {
		t.Errorf("unexpected first event: %+v", result.History[0])
	}
	if !result.LastUpdated.Equal(trackingNow) {
		t.Errorf("expected LastUpdated %v, got %v", trackingNow, result.LastUpdated)
	}
	if cache.entries["EP123456789TH"] != result {
		t.Error("expected result to be cached")
	}
}

func TestTrackingService_FetchStatus_CacheHitSkipsCarrier(t *testing.T) {
	carrier := newStubCarrier()
	carrier.responses["EP1"] = deliveredResponse()
	svc := newTrackingSvc(carrier, newStubCache())

	first, err := svc.FetchStatus(context.Background(), "EP1", false)
	if err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	second, err := svc.FetchStatus(context.Background(), "EP1", false)
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}

	if first != second {
		t.Error("expected the identical cached result")
	}
	if carrier.callCount() != 1 {
		t.Errorf("expected 1 carrier call, got %d", carrier.callCount())
	}
}

func TestTrackingService_FetchStatus_ForceRefreshBypassesCache(t *testing.T) {
	carrier := newStubCarrier()
	carrier.responses["EP1"] = deliveredResponse()
	svc := newTrackingSvc(carrier, newStubCache())

	if _, err := svc.FetchStatus(context.Background(), "EP1", false); err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	if _, err := svc.FetchStatus(context.Background(), "EP1", true); err != nil {
		t.Fatalf("forced fetch: %v", err)
	}

	if carrier.callCount() != 2 {
		t.Errorf("expected 2 carrier calls, got %d", carrier.callCount())
	}
}

func TestTrackingService_FetchStatus_NotConfigured(t *testing.T) {
	carrier := newStubCarrier()
	carrier.configured = false
	svc := newTrackingSvc(carrier, newStubCache())

	_, err := svc.FetchStatus(context.Background(), "EP1", false)

	if !errors.Is(err, domain.ErrCarrierNotConfigured) {
		t.Fatalf("expected ErrCarrierNotConfigured, got %v", err)
	}
	if carrier.callCount() != 0 {
		t.Errorf("carrier must not be called when not configured, got %d calls", carrier.callCount())
	}
}

func TestTrackingService_FetchStatus_NotConfiguredStillServesCache(t *testing.T) {
	carrier := newStubCarrier()
	carrier.configured = false
	cache := newStubCache()
	cached := &domain.TrackingResult{Status: domain.StatusInTransit, LastUpdated: trackingNow}
	cache.entries["EP1"] = cached
	svc := newTrackingSvc(carrier, cache)

	got, err := svc.FetchStatus(context.Background(), "EP1", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != cached {
		t.Error("expected cached result")
	}
}

func TestTrackingService_FetchStatus_NoRecordIsSuccess(t *testing.T) {
	carrier := newStubCarrier() // no response registered: empty events
	cache := newStubCache()
	svc := newTrackingSvc(carrier, cache)

	result, err := svc.FetchStatus(context.Background(), "EP404", false)
	if err != nil {
		t.Fatalf("expected success for unknown tracking number, got %v", err)
	}

	if result.Status != domain.StatusUnknown {
		t.Errorf("expected unknown, got %q", result.Status)
	}
	if result.History == nil || len(result.History) != 0 {
		t.Errorf("expected empty history, got %#v", result.History)
	}
	if !result.LastUpdated.Equal(trackingNow) {
		t.Errorf("expected LastUpdated %v, got %v", trackingNow, result.LastUpdated)
	}
	if _, ok := cache.entries["EP404"]; !ok {
		t.Error("expected empty result to be cached")
	}
}

func TestTrackingService_FetchStatus_ErrorIsNotCached(t *testing.T) {
	carrier := newStubCarrier()
	carrier.errs["EP1"] = domain.ErrCarrierTimeout
	cache := newStubCache()
	svc := newTrackingSvc(carrier, cache)

	_, err := svc.FetchStatus(context.Background(), "EP1", false)

	if !errors.Is(err, domain.ErrCarrierTimeout) {
		t.Fatalf("expected ErrCarrierTimeout, got %v", err)
	}
	if _, ok := cache.entries["EP1"]; ok {
		t.Error("failed lookup must not be cached")
	}
}

func TestTrackingService_FetchStatus_UpstreamTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	client := thailandpost.New(thailandpost.Config{
		URL:      srv.URL,
		Token:    "token",
		Language: "EN",
		Timeout:  50 * time.Millisecond,
	}, zerolog.Nop())
	cache := newStubCache()
	svc := newTrackingSvc(client, cache)

	_, err := svc.FetchStatus(context.Background(), "EP1", false)

	if !errors.Is(err, domain.ErrCarrierTimeout) {
		t.Fatalf("expected ErrCarrierTimeout, got %v", err)
	}
	if len(cache.entries) != 0 {
		t.Errorf("cache must stay empty after a timeout, got %d entries", len(cache.entries))
	}
}

func TestTrackingService_FetchStatus_CacheErrorsAreNotFatal(t *testing.T) {
	carrier := newStubCarrier()
	carrier.responses["EP1"] = deliveredResponse()
	cache := newStubCache()
	cache.getErr = errors.New("redis timeout")
	cache.putErr = errors.New("redis timeout")
	svc := newTrackingSvc(carrier, cache)

	result, err := svc.FetchStatus(context.Background(), "EP1", false)
	if err != nil {
		t.Fatalf("cache failures must not fail the lookup, got %v", err)
	}
	if result.Status != domain.StatusDelivered {
		t.Errorf("expected delivered, got %q", result.Status)
	}
}

func TestTrackingService_FetchStatus_CoalescesConcurrentMisses(t *testing.T) {
	carrier := newStubCarrier()
	carrier.responses["EP1"] = deliveredResponse()
	carrier.started = make(chan struct{}, 10)
	carrier.release = make(chan struct{})
	svc := newTrackingSvc(carrier, newStubCache())

	const callers = 5
	results := make([]*domain.TrackingResult, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := svc.FetchStatus(context.Background(), "EP1", false)
			if err != nil {
				t.Errorf("caller %d: %v", i, err)
			}
			results[i] = r
		}(i)
	}

	<-carrier.started
	time.Sleep(50 * time.Millisecond)
	close(carrier.release)
	wg.Wait()

	if carrier.callCount() != 1 {
		t.Errorf("expected 1 carrier call, got %d", carrier.callCount())
	}
	for i := 1; i < callers; i++ {
		if results[i] != results[0] {
			t.Errorf("caller %d received a different result", i)
		}
	}
}

func TestTrackingService_FetchStatus_CancelledCallerDoesNotFailOthers(t *testing.T) {
	carrier := newStubCarrier()
	carrier.responses["EP1"] = deliveredResponse()
	carrier.started = make(chan struct{}, 10)
	carrier.release = make(chan struct{})
	svc := newTrackingSvc(carrier, newStubCache())

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := svc.FetchStatus(ctxA, "EP1", false)
		errA <- err
	}()
	<-carrier.started

	type outcome struct {
		result *domain.TrackingResult
		err    error
	}
	doneB := make(chan outcome, 1)
	go func() {
		r, err := svc.FetchStatus(context.Background(), "EP1", false)
		doneB <- outcome{r, err}
	}()
	time.Sleep(30 * time.Millisecond)

	cancelA()
	select {
	case err := <-errA:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("cancelled caller: expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled caller kept waiting for the shared call")
	}

	close(carrier.release)
	select {
	case out := <-doneB:
		if out.err != nil {
			t.Fatalf("second caller must not inherit the cancellation, got %v", out.err)
		}
		if out.result.Status != domain.StatusDelivered {
			t.Errorf("expected delivered, got %q", out.result.Status)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("second caller did not complete")
	}

	if carrier.callCount() != 1 {
		t.Errorf("expected 1 carrier call, got %d", carrier.callCount())
	}
}

// ---------------------------------------------------------------------------
// FetchMany tests
// ---------------------------------------------------------------------------

func TestTrackingService_FetchMany_IsolatesFailures(t *testing.T) {
	carrier := newStubCarrier()
	carrier.responses["EP1"] = deliveredResponse()
	carrier.errs["EP2"] = &domain.UpstreamError{StatusCode: http.StatusBadGateway}
	carrier.responses["EP3"] = &domain.CarrierTrackResponse{
		Events: []domain.CarrierEvent{{Status: "201", StatusDate: "22/07/2568 07:00:00+07:00"}},
	}
	svc := newTrackingSvc(carrier, newStubCache())

	results := svc.FetchMany(context.Background(), []string{"EP1", "EP2", "EP3"}, false)

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results["EP1"].Status != domain.StatusDelivered {
		t.Errorf("EP1: expected delivered, got %q", results["EP1"].Status)
	}
	if results["EP3"].Status != domain.StatusInTransit {
		t.Errorf("EP3: expected in_transit, got %q", results["EP3"].Status)
	}
	degraded := results["EP2"]
	if degraded.Status != domain.StatusUnknown || len(degraded.History) != 0 {
		t.Errorf("EP2: expected degraded unknown result, got %+v", degraded)
	}
	if !degraded.LastUpdated.Equal(trackingNow) {
		t.Errorf("EP2: expected LastUpdated now, got %v", degraded.LastUpdated)
	}
}

func TestTrackingService_FetchMany_SequentialInInputOrder(t *testing.T) {
	carrier := newStubCarrier()
	svc := newTrackingSvc(carrier, newStubCache())

	svc.FetchMany(context.Background(), []string{"C", "A", "B", "A"}, true)

	want := []string{"C", "A", "B"}
	if len(carrier.calls) != len(want) {
		t.Fatalf("expected calls %v, got %v", want, carrier.calls)
	}
	for i := range want {
		if carrier.calls[i] != want[i] {
			t.Fatalf("expected calls %v, got %v", want, carrier.calls)
		}
	}
}

func TestTrackingService_FetchMany_NotConfiguredDegradesAll(t *testing.T) {
	carrier := newStubCarrier()
	carrier.configured = false
	svc := newTrackingSvc(carrier, newStubCache())

	results := svc.FetchMany(context.Background(), []string{"EP1", "EP2"}, false)

	for tn, r := range results {
		if r.Status != domain.StatusUnknown {
			t.Errorf("%s: expected unknown, got %q", tn, r.Status)
		}
	}
	if len(results) != 2 {
		t.Errorf("expected 2 results, got %d", len(results))
	}
}

// ---------------------------------------------------------------------------
// Cache management tests
// ---------------------------------------------------------------------------

func TestTrackingService_InvalidateCache(t *testing.T) {
	cache := newStubCache()
	cache.entries["EP1"] = &domain.TrackingResult{}
	cache.entries["EP2"] = &domain.TrackingResult{}
	svc := newTrackingSvc(newStubCarrier(), cache)

	if err := svc.InvalidateCache(context.Background(), "EP1"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, ok := cache.entries["EP1"]; ok {
		t.Error("EP1 should be gone")
	}
	if _, ok := cache.entries["EP2"]; !ok {
		t.Error("EP2 should remain")
	}

	if err := svc.InvalidateCache(context.Background(), ""); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if !cache.cleared || len(cache.entries) != 0 {
		t.Error("expected cache to be cleared")
	}
}

func TestTrackingService_CacheStats(t *testing.T) {
	cache := newStubCache()
	cache.entries["EP1"] = &domain.TrackingResult{}
	svc := newTrackingSvc(newStubCarrier(), cache)

	stats, err := svc.CacheStats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Size != 1 || len(stats.Entries) != 1 || stats.Entries[0] != "EP1" {
		t.Errorf("unexpected stats: %+v", stats)
	}
}
