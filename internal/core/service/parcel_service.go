package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/99minutos/parcel-tracker/internal/core/domain"
	"github.com/99minutos/parcel-tracker/internal/core/ports"
	"github.com/99minutos/parcel-tracker/internal/pkg/metrics"
)

const (
	minTrackingNumberLen = 3
	defaultPageLimit     = 20
	maxPageLimit         = 100
)

type ParcelService struct {
	repo     ports.ParcelRepository
	tracking ports.TrackingService
	logger   zerolog.Logger
}

func NewParcelService(repo ports.ParcelRepository, tracking ports.TrackingService, logger zerolog.Logger) *ParcelService {
	return &ParcelService{repo: repo, tracking: tracking, logger: logger}
}

// CreateParcel registers a new parcel in pending_dispatch with no history.
func (s *ParcelService) CreateParcel(ctx context.Context, input ports.CreateParcelInput) (*domain.Parcel, error) {
	trackingNumber := strings.TrimSpace(input.TrackingNumber)
	if len(trackingNumber) < minTrackingNumberLen {
		return nil, fmt.Errorf("%w: tracking number must be at least %d characters", domain.ErrInvalidParcel, minTrackingNumberLen)
	}
	country := strings.TrimSpace(input.Country)
	if country == "" {
		return nil, fmt.Errorf("%w: destination country is required", domain.ErrInvalidParcel)
	}

	now := time.Now().UTC()
	parcel := &domain.Parcel{
		ID:             uuid.NewString(),
		TrackingNumber: trackingNumber,
		SenderName:     strings.TrimSpace(input.SenderName),
		Country:        country,
		Description:    strings.TrimSpace(input.Description),
		Status:         domain.StatusPendingDispatch,
		History:        []domain.TrackingEvent{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Create(ctx, parcel); err != nil {
		s.logger.Error().Err(err).Msg("failed to create parcel")
		return nil, err
	}

	metrics.ParcelsCreatedTotal.WithLabelValues(country).Inc()
	s.logger.Info().Str("parcel_id", parcel.ID).Str("tracking_number", trackingNumber).Msg("parcel created")
	return parcel, nil
}

func (s *ParcelService) GetParcel(ctx context.Context, id string) (*domain.Parcel, error) {
	return s.repo.FindByID(ctx, id)
}

// ListParcels returns a page of parcels. Limit defaults to 20 and is capped
// at 100.
func (s *ParcelService) ListParcels(ctx context.Context, input ports.ListParcelsInput) (*ports.ListParcelsResult, error) {
	if input.Status != "" && !domain.ParcelStatus(input.Status).Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidParcel, input.Status)
	}

	page := input.Page
	if page < 1 {
		page = 1
	}
	limit := input.Limit
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	items, total, err := s.repo.List(ctx, ports.ListParcelsFilter{
		Status: input.Status,
		Search: strings.TrimSpace(input.Search),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list parcels: %w", err)
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &ports.ListParcelsResult{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}, nil
}

// UpdateParcel changes the user-editable fields. Status and history are only
// changed by refreshes.
func (s *ParcelService) UpdateParcel(ctx context.Context, id string, update domain.ParcelUpdate) (*domain.Parcel, error) {
	if update.Country != nil {
		country := strings.TrimSpace(*update.Country)
		if country == "" {
			return nil, fmt.Errorf("%w: destination country is required", domain.ErrInvalidParcel)
		}
		update.Country = &country
	}
	if update.SenderName != nil {
		v := strings.TrimSpace(*update.SenderName)
		update.SenderName = &v
	}
	if update.Description != nil {
		v := strings.TrimSpace(*update.Description)
		update.Description = &v
	}

	return s.repo.Update(ctx, id, update, time.Now().UTC())
}

func (s *ParcelService) DeleteParcel(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("parcel_id", id).Msg("parcel deleted")
	return nil
}

// RefreshParcel bypasses the cache and merges the carrier's status and
// history into the stored parcel.
func (s *ParcelService) RefreshParcel(ctx context.Context, id string) (*domain.Parcel, error) {
	parcel, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	result, err := s.tracking.FetchStatus(ctx, parcel.TrackingNumber, true)
	if err != nil {
		metrics.ParcelRefreshesTotal.WithLabelValues("failed").Inc()
		s.logger.Warn().Err(err).Str("parcel_id", id).Str("tracking_number", parcel.TrackingNumber).Msg("refresh failed, keeping stored data")
		return nil, fmt.Errorf("refresh parcel %s: %w", id, err)
	}

	updated, err := s.repo.ApplyTracking(ctx, id, result.Status, result.History, time.Now().UTC())
	if err != nil {
		metrics.ParcelRefreshesTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("refresh parcel %s: %w", id, err)
	}

	metrics.ParcelRefreshesTotal.WithLabelValues("refreshed").Inc()
	return updated, nil
}

// RefreshAll walks every stored parcel in turn. Cached carrier results are
// reused; failed lookups leave the parcel untouched and are counted.
func (s *ParcelService) RefreshAll(ctx context.Context) (ports.RefreshSummary, error) {
	start := time.Now()
	defer func() { metrics.RefreshRunDuration.Observe(time.Since(start).Seconds()) }()

	parcels, _, err := s.repo.List(ctx, ports.ListParcelsFilter{})
	if err != nil {
		return ports.RefreshSummary{}, fmt.Errorf("refresh all: %w", err)
	}

	summary := ports.RefreshSummary{Total: len(parcels)}
	for _, p := range parcels {
		if err := ctx.Err(); err != nil {
			return summary, fmt.Errorf("refresh all: %w", err)
		}

		result, err := s.tracking.FetchStatus(ctx, p.TrackingNumber, false)
		if err == nil {
			_, err = s.repo.ApplyTracking(ctx, p.ID, result.Status, result.History, time.Now().UTC())
		}
		if err != nil {
			summary.Failed++
			metrics.ParcelRefreshesTotal.WithLabelValues("failed").Inc()
			s.logger.Warn().Err(err).Str("parcel_id", p.ID).Str("tracking_number", p.TrackingNumber).Msg("refresh failed, keeping stored data")
			continue
		}
		summary.Refreshed++
		metrics.ParcelRefreshesTotal.WithLabelValues("refreshed").Inc()
	}

	s.logger.Info().
		Int("total", summary.Total).
		Int("refreshed", summary.Refreshed).
		Int("failed", summary.Failed).
		Msg("refresh pass finished")
	return summary, nil
}
