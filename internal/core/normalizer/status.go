package normalizer

import (
	"slices"
	"strings"
	"time"

	"github.com/99minutos/parcel-tracker/internal/core/domain"
	"github.com/99minutos/parcel-tracker/internal/pkg/metrics"
)

const (
	fallbackLocation = "Unknown"
	fallbackMessage  = "Status update"
)

// carrierCodes is the carrier's published status vocabulary, grouped by the
// domain status each code maps to.
var carrierCodes = []struct {
	status domain.ParcelStatus
	codes  map[string]string
}{
	{domain.StatusPendingDispatch, map[string]string{
		"100": "ACCEPTANCE",
		"101": "DROP_OFF",
		"102": "PICK_UP",
		"103": "DEPOSIT",
		"700": "INFORMATION_RECEIVED",
	}},
	{domain.StatusInTransit, map[string]string{
		"200": "IN_TRANSIT",
		"201": "EXPORT_CENTER",
		"202": "IMPORT_CENTER",
		"203": "ARRIVAL_AT_OUTWARD_OE",
		"204": "DEPARTURE_FROM_OUTWARD_OE",
		"205": "ARRIVAL_AT_TRANSIT_OE",
		"206": "DEPARTURE_FROM_TRANSIT_OE",
		"207": "ARRIVAL_AT_INWARD_OE",
		"300": "OUT_FOR_DELIVERY",
	}},
	{domain.StatusArrivedAtDestination, map[string]string{
		"304": "AWAITING_COLLECTION",
	}},
	{domain.StatusDelivered, map[string]string{
		"301": "DELIVERY",
		"302": "SUCCESSFUL_DELIVERY",
		"402": "FINAL_DELIVERY",
	}},
	{domain.StatusReturned, map[string]string{
		"303": "UNSUCCESSFUL_DELIVERY",
		"400": "RETURN_TO_SENDER",
		"401": "RETURN",
		"600": "REFUSED",
		"601": "UNCLAIMED",
		"602": "UNDELIVERABLE",
	}},
	{domain.StatusCustomsInspection, map[string]string{
		"500": "HELD_BY_CUSTOMS",
		"501": "CUSTOMS_CLEARANCE",
	}},
}

// CodeInfo describes one entry of the status table.
type CodeInfo struct {
	Code   string              `json:"code"`
	Name   string              `json:"name"`
	Status domain.ParcelStatus `json:"status"`
}

// codeTable is built once and never modified.
var codeTable = func() map[string]CodeInfo {
	t := make(map[string]CodeInfo)
	for _, bucket := range carrierCodes {
		for code, name := range bucket.codes {
			t[code] = CodeInfo{Code: code, Name: name, Status: bucket.status}
		}
	}
	return t
}()

// MapCode returns the domain status for a carrier status code. Codes not in
// the table map to StatusUnknown. Surrounding whitespace is ignored.
func MapCode(code string) domain.ParcelStatus {
	if info, ok := codeTable[strings.TrimSpace(code)]; ok {
		return info.Status
	}
	return domain.StatusUnknown
}

// Describe returns the carrier's symbolic name for code, or "" if unmapped.
func Describe(code string) string {
	return codeTable[strings.TrimSpace(code)].Name
}

// Codes lists the status table ordered by code.
func Codes() []CodeInfo {
	out := make([]CodeInfo, 0, len(codeTable))
	for _, info := range codeTable {
		out = append(out, info)
	}
	slices.SortFunc(out, func(a, b CodeInfo) int { return strings.Compare(a.Code, b.Code) })
	return out
}

// StatusFor is MapCode plus an observation for codes missing from the table.
func (n *Normalizer) StatusFor(code string) domain.ParcelStatus {
	status := MapCode(code)
	if status == domain.StatusUnknown {
		code = strings.TrimSpace(code)
		metrics.UnmappedStatusCodesTotal.WithLabelValues(code).Inc()
		n.log.Warn().Str("code", code).Msg("unmapped carrier status code")
	}
	return status
}

// MostRecentStatus returns the status of the latest event. Events with equal
// timestamps keep their input order. An empty slice yields StatusUnknown.
func (n *Normalizer) MostRecentStatus(events []domain.CarrierEvent) domain.ParcelStatus {
	if len(events) == 0 {
		return domain.StatusUnknown
	}

	type dated struct {
		at   time.Time
		code string
	}
	sorted := make([]dated, len(events))
	for i, e := range events {
		sorted[i] = dated{at: n.ConvertDate(e.StatusDate), code: e.Status}
	}
	slices.SortStableFunc(sorted, func(a, b dated) int {
		return b.at.Compare(a.at)
	})

	return n.StatusFor(sorted[0].code)
}

// TransformEvents maps carrier events to tracking events one to one, in
// input order.
func (n *Normalizer) TransformEvents(events []domain.CarrierEvent) []domain.TrackingEvent {
	out := make([]domain.TrackingEvent, len(events))
	for i, e := range events {
		out[i] = domain.TrackingEvent{
			Timestamp: n.ConvertDate(e.StatusDate),
			Location:  firstNonEmpty(e.StatusDetail, e.Location, fallbackLocation),
			Message:   firstNonEmpty(e.StatusDescription, fallbackMessage),
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
