package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/parcel-tracker/internal/core/ports"
)

// RefreshTrigger schedules a background refresh pass without waiting for it.
type RefreshTrigger interface {
	Trigger()
}

// ParcelHandler handles HTTP requests for parcel records.
type ParcelHandler struct {
	service ports.ParcelService
	trigger RefreshTrigger
}

// NewParcelHandler creates a ParcelHandler. trigger may be nil when the
// background refresher is disabled.
func NewParcelHandler(service ports.ParcelService, trigger RefreshTrigger) *ParcelHandler {
	return &ParcelHandler{service: service, trigger: trigger}
}

// Create handles POST /v1/parcels.
//
// @Summary      Register a parcel
// @Tags         parcels
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createParcelRequest  true  "Parcel details"
// @Success      201   {object}  parcelResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/parcels [post]
func (h *ParcelHandler) Create(c echo.Context) error {
	var req createParcelRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	parcel, err := h.service.CreateParcel(c.Request().Context(), toCreateInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toParcelResponse(parcel))
}

// List handles GET /v1/parcels.
//
// @Summary      List parcels
// @Tags         parcels
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Filter by status"
// @Param        search  query     string  false  "Match tracking number or sender name"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Page size (default 20, max 100)"
// @Success      200     {object}  listParcelsResponse
// @Failure      400     {object}  errorResponse
// @Failure      422     {object}  errorResponse
// @Router       /v1/parcels [get]
func (h *ParcelHandler) List(c echo.Context) error {
	var in ports.ListParcelsInput
	err := echo.QueryParamsBinder(c).
		String("status", &in.Status).
		String("search", &in.Search).
		Int("page", &in.Page).
		Int("limit", &in.Limit).
		BindError()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query parameters")
	}

	result, err := h.service.ListParcels(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toListResponse(result))
}

// Get handles GET /v1/parcels/:id.
//
// @Summary      Get a parcel
// @Tags         parcels
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Parcel ID"
// @Success      200  {object}  parcelResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/parcels/{id} [get]
func (h *ParcelHandler) Get(c echo.Context) error {
	parcel, err := h.service.GetParcel(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toParcelResponse(parcel))
}

// Update handles PATCH /v1/parcels/:id.
//
// @Summary      Edit a parcel's sender, country or description
// @Tags         parcels
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string               true  "Parcel ID"
// @Param        body  body      updateParcelRequest  true  "Fields to change"
// @Success      200   {object}  parcelResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/parcels/{id} [patch]
func (h *ParcelHandler) Update(c echo.Context) error {
	var req updateParcelRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	parcel, err := h.service.UpdateParcel(c.Request().Context(), c.Param("id"), toParcelUpdate(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toParcelResponse(parcel))
}

// Delete handles DELETE /v1/parcels/:id.
//
// @Summary      Delete a parcel
// @Tags         parcels
// @Security     BearerAuth
// @Param        id   path  string  true  "Parcel ID"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Router       /v1/parcels/{id} [delete]
func (h *ParcelHandler) Delete(c echo.Context) error {
	if err := h.service.DeleteParcel(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Refresh handles POST /v1/parcels/:id/refresh. The carrier is always
// queried; on failure the stored parcel is unchanged.
//
// @Summary      Refresh one parcel from the carrier
// @Tags         parcels
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Parcel ID"
// @Success      200  {object}  parcelResponse
// @Failure      404  {object}  errorResponse
// @Failure      502  {object}  errorResponse
// @Failure      503  {object}  errorResponse
// @Failure      504  {object}  errorResponse
// @Router       /v1/parcels/{id}/refresh [post]
func (h *ParcelHandler) Refresh(c echo.Context) error {
	parcel, err := h.service.RefreshParcel(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toParcelResponse(parcel))
}

// RefreshAll handles POST /v1/parcels/refresh. With async=true and the
// background refresher running, the pass is scheduled and 202 is returned.
//
// @Summary      Refresh every parcel
// @Tags         parcels
// @Produce      json
// @Security     BearerAuth
// @Param        async  query     bool  false  "Schedule instead of waiting"
// @Success      200    {object}  refreshSummaryResponse
// @Success      202    {object}  messageResponse
// @Router       /v1/parcels/refresh [post]
func (h *ParcelHandler) RefreshAll(c echo.Context) error {
	var async bool
	if err := echo.QueryParamsBinder(c).Bool("async", &async).BindError(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query parameters")
	}

	if async && h.trigger != nil {
		h.trigger.Trigger()
		return c.JSON(http.StatusAccepted, messageResponse{Message: "refresh scheduled"})
	}

	summary, err := h.service.RefreshAll(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, refreshSummaryResponse{
		Total:     summary.Total,
		Refreshed: summary.Refreshed,
		Failed:    summary.Failed,
	})
}
