package ports

import (
	"context"
	"time"

	"github.com/99minutos/parcel-tracker/internal/core/domain"
)

// ListParcelsFilter carries all query parameters for listing parcels.
type ListParcelsFilter struct {
	Status string // optional: filter by parcel status
	Search string // optional: partial match on tracking_number or sender_name
	Page   int    // 1-based
	Limit  int    // max rows per page; 0 = all
}

// ParcelRepository defines persistence operations for parcels.
type ParcelRepository interface {
	Create(ctx context.Context, p *domain.Parcel) error
	FindByID(ctx context.Context, id string) (*domain.Parcel, error)
	// List returns a page of parcels matching filter and the total count.
	List(ctx context.Context, filter ListParcelsFilter) ([]*domain.Parcel, int64, error)
	// Update applies the user-editable fields and returns the stored parcel.
	Update(ctx context.Context, id string, update domain.ParcelUpdate, at time.Time) (*domain.Parcel, error)
	// ApplyTracking replaces status and history only.
	ApplyTracking(ctx context.Context, id string, status domain.ParcelStatus, history []domain.TrackingEvent, at time.Time) (*domain.Parcel, error)
	Delete(ctx context.Context, id string) error
}

// CreateParcelInput carries all data needed to register a parcel.
type CreateParcelInput struct {
	TrackingNumber string
	SenderName     string
	Country        string
	Description    string
}

// ListParcelsInput carries all parameters for the list endpoint.
type ListParcelsInput struct {
	Status string
	Search string
	Page   int
	Limit  int
}

// ListParcelsResult is returned by ListParcels.
type ListParcelsResult struct {
	Items      []*domain.Parcel
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// RefreshSummary reports the outcome of a refresh pass over all parcels.
type RefreshSummary struct {
	Total     int `json:"total"`
	Refreshed int `json:"refreshed"`
	Failed    int `json:"failed"`
}

// ParcelService defines use-case operations for parcels.
type ParcelService interface {
	CreateParcel(ctx context.Context, input CreateParcelInput) (*domain.Parcel, error)
	GetParcel(ctx context.Context, id string) (*domain.Parcel, error)
	ListParcels(ctx context.Context, input ListParcelsInput) (*ListParcelsResult, error)
	UpdateParcel(ctx context.Context, id string, update domain.ParcelUpdate) (*domain.Parcel, error)
	DeleteParcel(ctx context.Context, id string) error
	// RefreshParcel pulls the latest carrier data for one parcel. On failure
	// the stored parcel is left as it was and the error is returned.
	RefreshParcel(ctx context.Context, id string) (*domain.Parcel, error)
	// RefreshAll refreshes every stored parcel sequentially, skipping failures.
	RefreshAll(ctx context.Context) (RefreshSummary, error)
}
