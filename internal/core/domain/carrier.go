package domain

// CarrierEvent is a raw Thailand Post tracking record as returned by the
// track endpoint. StatusDate uses the carrier's Buddhist Era format
// "DD/MM/BBBB hh:mm:ss+07:00".
type CarrierEvent struct {
	Barcode             string  `json:"barcode"`
	Status              string  `json:"status"`
	StatusDescription   string  `json:"status_description"`
	StatusDate          string  `json:"status_date"`
	StatusDetail        string  `json:"statusDetail"`
	Location            string  `json:"location"`
	Postcode            string  `json:"postcode"`
	DeliveryStatus      *string `json:"delivery_status"`
	DeliveryDescription *string `json:"delivery_description"`
	DeliveryDatetime    *string `json:"delivery_datetime"`
	ReceiverName        *string `json:"receiver_name"`
	Signature           *string `json:"signature"`
	OfficeName          *string `json:"office_name,omitempty"`
	OfficeTel           *string `json:"office_tel,omitempty"`
	CallCenterTel       string  `json:"call_center_tel,omitempty"`
}

// CarrierTrackCount is the daily quota reported alongside every response.
type CarrierTrackCount struct {
	TrackDate       string `json:"track_date"`
	CountNumber     int    `json:"count_number"`
	TrackCountLimit int    `json:"track_count_limit"`
}

// CarrierTrackResponse holds the events the carrier returned for one
// tracking number. Events is empty when the carrier has no record.
type CarrierTrackResponse struct {
	Events     []CarrierEvent
	TrackCount CarrierTrackCount
}
