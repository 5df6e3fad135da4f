package handler

import (
	"github.com/99minutos/parcel-tracker/internal/core/domain"
	"github.com/99minutos/parcel-tracker/internal/core/normalizer"
	"github.com/99minutos/parcel-tracker/internal/core/ports"
)

// --- Request → Service input ---

func toCreateInput(req createParcelRequest) ports.CreateParcelInput {
	return ports.CreateParcelInput{
		TrackingNumber: req.TrackingNumber,
		SenderName:     req.SenderName,
		Country:        req.Country,
		Description:    req.Description,
	}
}

func toParcelUpdate(req updateParcelRequest) domain.ParcelUpdate {
	return domain.ParcelUpdate{
		SenderName:  req.SenderName,
		Country:     req.Country,
		Description: req.Description,
	}
}

// --- Service result → HTTP response ---

func toParcelResponse(p *domain.Parcel) parcelResponse {
	return parcelResponse{
		ID:             p.ID,
		TrackingNumber: p.TrackingNumber,
		SenderName:     p.SenderName,
		Country:        p.Country,
		Description:    p.Description,
		Status:         p.Status,
		History:        toHistoryResponse(p.History),
		CreatedAt:      p.CreatedAt.UTC(),
		UpdatedAt:      p.UpdatedAt.UTC(),
		Links: parcelLinks{
			Self:     "/v1/parcels/" + p.ID,
			Refresh:  "/v1/parcels/" + p.ID + "/refresh",
			Tracking: "/v1/tracking/" + p.TrackingNumber,
		},
	}
}

// toHistoryResponse keeps the carrier's offsets so clients see local times.
func toHistoryResponse(events []domain.TrackingEvent) []trackingEventResponse {
	out := make([]trackingEventResponse, len(events))
	for i, e := range events {
		out[i] = trackingEventResponse{
			Timestamp: e.Timestamp,
			Location:  e.Location,
			Message:   e.Message,
		}
	}
	return out
}

func toListResponse(r *ports.ListParcelsResult) listParcelsResponse {
	items := make([]parcelResponse, len(r.Items))
	for i, p := range r.Items {
		items[i] = toParcelResponse(p)
	}
	return listParcelsResponse{
		Data: items,
		Pagination: paginationResponse{
			Total:      r.Total,
			Page:       r.Page,
			Limit:      r.Limit,
			TotalPages: r.TotalPages,
		},
	}
}

func toTrackingResponse(trackingNumber string, r *domain.TrackingResult) trackingResultResponse {
	return trackingResultResponse{
		TrackingNumber: trackingNumber,
		Status:         r.Status,
		History:        toHistoryResponse(r.History),
		LastUpdated:    r.LastUpdated.UTC(),
	}
}

func toStatusCodesResponse(codes []normalizer.CodeInfo) statusCodesResponse {
	out := make([]statusCodeResponse, len(codes))
	for i, c := range codes {
		out[i] = statusCodeResponse{Code: c.Code, Name: c.Name, Status: c.Status}
	}
	return statusCodesResponse{Data: out}
}
