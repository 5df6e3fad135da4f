package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/parcel-tracker/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
// Retryable is only set for carrier failures.
type errorResponse struct {
	Error     string `json:"error"`
	Retryable *bool  `json:"retryable,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, resp := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, resp)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{Error: fmt.Sprintf("%v", he.Message)}
	}

	switch {
	case errors.Is(err, domain.ErrParcelNotFound):
		return http.StatusNotFound, errorResponse{Error: "parcel not found"}
	case errors.Is(err, domain.ErrInvalidParcel):
		return http.StatusUnprocessableEntity, errorResponse{Error: err.Error()}
	}

	if code, ok := carrierStatus(err); ok {
		retryable := domain.IsRetryable(err)
		log.Warn().
			Err(err).
			Str("path", c.Path()).
			Bool("retryable", retryable).
			Msg("carrier lookup failed")
		return code, errorResponse{Error: err.Error(), Retryable: &retryable}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{Error: "internal server error"}
}

// carrierStatus maps carrier failures to gateway-style status codes.
func carrierStatus(err error) (int, bool) {
	var ue *domain.UpstreamError
	switch {
	case errors.Is(err, domain.ErrCarrierNotConfigured):
		return http.StatusServiceUnavailable, true
	case errors.Is(err, domain.ErrCarrierTimeout):
		return http.StatusGatewayTimeout, true
	case errors.As(err, &ue),
		errors.Is(err, domain.ErrCarrierUnavailable),
		errors.Is(err, domain.ErrMalformedResponse):
		return http.StatusBadGateway, true
	default:
		return 0, false
	}
}
