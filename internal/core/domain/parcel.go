package domain

import "time"

// Parcel is a user-registered shipment whose status is kept in sync with
// the carrier.
type Parcel struct {
	ID             string          `json:"id" bson:"_id"`
	TrackingNumber string          `json:"tracking_number" bson:"tracking_number"`
	SenderName     string          `json:"sender_name,omitempty" bson:"sender_name,omitempty"`
	Country        string          `json:"country" bson:"country"`
	Description    string          `json:"description,omitempty" bson:"description,omitempty"`
	Status         ParcelStatus    `json:"status" bson:"status"`
	History        []TrackingEvent `json:"history" bson:"history"`
	CreatedAt      time.Time       `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" bson:"updated_at"`
}

// ParcelUpdate carries the user-editable fields of a parcel. Nil fields are
// left unchanged.
type ParcelUpdate struct {
	SenderName  *string
	Country     *string
	Description *string
}
