package queue

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/parcel-tracker/internal/core/ports"
)

const defaultInterval = 15 * time.Minute

// Refresher re-syncs every stored parcel with the carrier on a fixed
// interval. A single worker runs the passes so carrier calls stay sequential.
type Refresher struct {
	service  ports.ParcelService
	interval time.Duration
	trigger  chan struct{}
	done     chan struct{}
	log      zerolog.Logger
}

// NewRefresher creates a Refresher. If interval <= 0, defaultInterval is used.
func NewRefresher(service ports.ParcelService, interval time.Duration, log zerolog.Logger) *Refresher {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Refresher{
		service:  service,
		interval: interval,
		trigger:  make(chan struct{}, 1),
		done:     make(chan struct{}),
		log:      log,
	}
}

// Start launches the worker goroutine. It stops when ctx is cancelled.
func (r *Refresher) Start(ctx context.Context) {
	go r.run(ctx)
}

// Trigger requests an immediate pass. Requests made while one is already
// pending are coalesced; the call never blocks.
func (r *Refresher) Trigger() {
	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

// Done is closed once the worker has exited.
func (r *Refresher) Done() <-chan struct{} {
	return r.done
}

func (r *Refresher) run(ctx context.Context) {
	defer close(r.done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.refresh(ctx, "interval")
		case <-r.trigger:
			r.refresh(ctx, "manual")
		}
	}
}

func (r *Refresher) refresh(ctx context.Context, reason string) {
	summary, err := r.service.RefreshAll(ctx)
	if err != nil {
		r.log.Error().Err(err).Str("reason", reason).Msg("parcel refresh pass failed")
		return
	}
	r.log.Info().
		Str("reason", reason).
		Int("total", summary.Total).
		Int("refreshed", summary.Refreshed).
		Int("failed", summary.Failed).
		Msg("parcel refresh pass finished")
}
