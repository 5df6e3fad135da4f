package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var ErrParcelNotFound = errors.New("parcel not found")
var ErrInvalidParcel = errors.New("invalid parcel")

// Carrier failures. Date conversion problems and unmapped status codes are
// not errors; they are reported through logs and metrics instead.
var (
	// ErrCarrierNotConfigured means no API token is set. Needs operator action.
	ErrCarrierNotConfigured = errors.New("carrier api is not configured")
	// ErrCarrierTimeout means the carrier did not answer before the deadline.
	ErrCarrierTimeout = errors.New("carrier api did not respond in time")
	// ErrCarrierUnavailable covers transport failures other than timeouts.
	ErrCarrierUnavailable = errors.New("carrier api request failed")
	// ErrMalformedResponse means the payload did not have the expected shape.
	ErrMalformedResponse = errors.New("malformed carrier response")
)

// UpstreamError is returned when the carrier answers with a non-2xx status
// or with an explicit failure flag in the body (StatusCode is then 200).
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("carrier api error: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("carrier api error: %d %s", e.StatusCode, e.Message)
}

// IsRetryable reports whether repeating the call may succeed without a fix
// on our side.
func IsRetryable(err error) bool {
	var ue *UpstreamError
	switch {
	case errors.Is(err, ErrCarrierTimeout), errors.Is(err, ErrCarrierUnavailable):
		return true
	case errors.As(err, &ue):
		return ue.StatusCode == http.StatusTooManyRequests || ue.StatusCode >= 500
	default:
		return false
	}
}
