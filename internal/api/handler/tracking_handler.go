package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/parcel-tracker/internal/core/normalizer"
	"github.com/99minutos/parcel-tracker/internal/core/ports"
)

// TrackingHandler exposes direct carrier lookups and cache administration.
type TrackingHandler struct {
	service ports.TrackingService
}

func NewTrackingHandler(service ports.TrackingService) *TrackingHandler {
	return &TrackingHandler{service: service}
}

// Get handles GET /v1/tracking/:tracking_number.
//
// @Summary      Current status and history for a tracking number
// @Tags         tracking
// @Produce      json
// @Security     BearerAuth
// @Param        tracking_number  path      string  true   "Carrier tracking number"
// @Param        refresh          query     bool    false  "Bypass the cache"
// @Success      200              {object}  trackingResultResponse
// @Failure      502              {object}  errorResponse
// @Failure      503              {object}  errorResponse
// @Failure      504              {object}  errorResponse
// @Router       /v1/tracking/{tracking_number} [get]
func (h *TrackingHandler) Get(c echo.Context) error {
	trackingNumber := strings.TrimSpace(c.Param("tracking_number"))
	if trackingNumber == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "tracking number is required")
	}

	var refresh bool
	if err := echo.QueryParamsBinder(c).Bool("refresh", &refresh).BindError(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query parameters")
	}

	result, err := h.service.FetchStatus(c.Request().Context(), trackingNumber, refresh)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toTrackingResponse(trackingNumber, result))
}

// Batch handles POST /v1/tracking/batch. Lookups that fail come back as
// status unknown with an empty history; the request itself does not fail.
//
// @Summary      Look up several tracking numbers
// @Tags         tracking
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      batchTrackingRequest  true  "Tracking numbers"
// @Success      200   {object}  batchTrackingResponse
// @Failure      400   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/tracking/batch [post]
func (h *TrackingHandler) Batch(c echo.Context) error {
	var req batchTrackingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	results := h.service.FetchMany(c.Request().Context(), req.TrackingNumbers, req.ForceRefresh)

	resp := batchTrackingResponse{Results: make(map[string]trackingResultResponse, len(results))}
	for tn, r := range results {
		resp.Results[tn] = toTrackingResponse(tn, r)
	}
	return c.JSON(http.StatusOK, resp)
}

// StatusCodes handles GET /v1/tracking/status-codes.
//
// @Summary      Carrier status code table
// @Tags         tracking
// @Produce      json
// @Success      200  {object}  statusCodesResponse
// @Router       /v1/tracking/status-codes [get]
func (h *TrackingHandler) StatusCodes(c echo.Context) error {
	return c.JSON(http.StatusOK, toStatusCodesResponse(normalizer.Codes()))
}

// CacheStats handles GET /v1/tracking/cache.
//
// @Summary      Tracking cache contents
// @Tags         tracking
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  cacheStatsResponse
// @Failure      403  {object}  errorResponse
// @Router       /v1/tracking/cache [get]
func (h *TrackingHandler) CacheStats(c echo.Context) error {
	stats, err := h.service.CacheStats(c.Request().Context())
	if err != nil {
		return err
	}
	entries := stats.Entries
	if entries == nil {
		entries = []string{}
	}
	return c.JSON(http.StatusOK, cacheStatsResponse{Size: stats.Size, Entries: entries})
}

// ClearCache handles DELETE /v1/tracking/cache.
//
// @Summary      Drop every cached tracking result
// @Tags         tracking
// @Security     BearerAuth
// @Success      204
// @Failure      403  {object}  errorResponse
// @Router       /v1/tracking/cache [delete]
func (h *TrackingHandler) ClearCache(c echo.Context) error {
	if err := h.service.InvalidateCache(c.Request().Context(), ""); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// InvalidateCache handles DELETE /v1/tracking/cache/:tracking_number.
//
// @Summary      Drop one cached tracking result
// @Tags         tracking
// @Security     BearerAuth
// @Param        tracking_number  path  string  true  "Carrier tracking number"
// @Success      204
// @Failure      403  {object}  errorResponse
// @Router       /v1/tracking/cache/{tracking_number} [delete]
func (h *TrackingHandler) InvalidateCache(c echo.Context) error {
	trackingNumber := strings.TrimSpace(c.Param("tracking_number"))
	if trackingNumber == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "tracking number is required")
	}
	if err := h.service.InvalidateCache(c.Request().Context(), trackingNumber); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
