package handler

import (
	"time"

	"github.com/99minutos/parcel-tracker/internal/core/domain"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error     string `json:"error"`
	Retryable *bool  `json:"retryable,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// --- Parcels ---

type createParcelRequest struct {
	TrackingNumber string `json:"tracking_number" validate:"required,min=3"`
	SenderName     string `json:"sender_name"`
	Country        string `json:"country"         validate:"required"`
	Description    string `json:"description"`
}

// updateParcelRequest only touches the fields that are present.
type updateParcelRequest struct {
	SenderName  *string `json:"sender_name"`
	Country     *string `json:"country"     validate:"omitempty,min=1"`
	Description *string `json:"description"`
}

type trackingEventResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Location  string    `json:"location"`
	Message   string    `json:"message"`
}

type parcelLinks struct {
	Self     string `json:"self"`
	Refresh  string `json:"refresh"`
	Tracking string `json:"tracking"`
}

type parcelResponse struct {
	ID             string                  `json:"id"`
	TrackingNumber string                  `json:"tracking_number"`
	SenderName     string                  `json:"sender_name,omitempty"`
	Country        string                  `json:"country"`
	Description    string                  `json:"description,omitempty"`
	Status         domain.ParcelStatus     `json:"status"`
	History        []trackingEventResponse `json:"history"`
	CreatedAt      time.Time               `json:"created_at"`
	UpdatedAt      time.Time               `json:"updated_at"`
	Links          parcelLinks             `json:"_links"`
}

type paginationResponse struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

type listParcelsResponse struct {
	Data       []parcelResponse   `json:"data"`
	Pagination paginationResponse `json:"pagination"`
}

type refreshSummaryResponse struct {
	Total     int `json:"total"`
	Refreshed int `json:"refreshed"`
	Failed    int `json:"failed"`
}

// --- Tracking ---

type trackingResultResponse struct {
	TrackingNumber string                  `json:"tracking_number"`
	Status         domain.ParcelStatus     `json:"status"`
	History        []trackingEventResponse `json:"history"`
	LastUpdated    time.Time               `json:"last_updated"`
}

type batchTrackingRequest struct {
	TrackingNumbers []string `json:"tracking_numbers" validate:"required,min=1,max=50,dive,required"`
	ForceRefresh    bool     `json:"force_refresh"`
}

type batchTrackingResponse struct {
	Results map[string]trackingResultResponse `json:"results"`
}

type statusCodeResponse struct {
	Code   string              `json:"code"`
	Name   string              `json:"name"`
	Status domain.ParcelStatus `json:"status"`
}

type statusCodesResponse struct {
	Data []statusCodeResponse `json:"data"`
}

type cacheStatsResponse struct {
	Size    int      `json:"size"`
	Entries []string `json:"entries"`
}
