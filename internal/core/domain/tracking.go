package domain

import "time"

// ParcelStatus is the carrier-agnostic delivery state of a parcel.
type ParcelStatus string

const (
	StatusPendingDispatch      ParcelStatus = "pending_dispatch"
	StatusInTransit            ParcelStatus = "in_transit"
	StatusArrivedAtDestination ParcelStatus = "arrived_at_destination"
	StatusDelivered            ParcelStatus = "delivered"
	StatusReturned             ParcelStatus = "returned"
	StatusCustomsInspection    ParcelStatus = "customs_inspection"
	StatusUnknown              ParcelStatus = "unknown"
)

// AllStatuses lists every ParcelStatus in declaration order.
var AllStatuses = []ParcelStatus{
	StatusPendingDispatch,
	StatusInTransit,
	StatusArrivedAtDestination,
	StatusDelivered,
	StatusReturned,
	StatusCustomsInspection,
	StatusUnknown,
}

// Valid reports whether s is one of the known statuses.
func (s ParcelStatus) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// TrackingEvent is a single normalised entry in a parcel's history.
type TrackingEvent struct {
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
	Location  string    `json:"location" bson:"location"`
	Message   string    `json:"message" bson:"message"`
}

// TrackingResult is the normalised view of a carrier lookup.
// History keeps the order in which the carrier returned the events.
type TrackingResult struct {
	Status      ParcelStatus    `json:"status"`
	History     []TrackingEvent `json:"history"`
	LastUpdated time.Time       `json:"last_updated"`
}

// EmptyResult is the result for a tracking number the carrier has no record of.
func EmptyResult(now time.Time) *TrackingResult {
	return &TrackingResult{
		Status:      StatusUnknown,
		History:     []TrackingEvent{},
		LastUpdated: now,
	}
}
