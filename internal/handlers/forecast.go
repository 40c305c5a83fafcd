package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pv_forecast/internal/forecast"
)

// @Summary      Calculate forecast
// @Description  Validates the form against the confirmed site and runs one calculation. Only one may be in flight.
// @Tags         forecast
// @Accept       json
// @Produce      json
// @Param        body  body      forecast.Fields  true  "Form values; empty loss fields fall back to defaults"
// @Success      200   {object}  service.View
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse  "calculation in progress"
// @Failure      422   {object}  errorResponse  "rejected by the forecast service"
// @Failure      502   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /api/v1/forecast [post]
// @Security     BearerAuth
func (h *Handler) submitForecast(c *gin.Context) {
	var fields forecast.Fields
	if !h.bindJSONOrBadRequest(c, &fields) {
		return
	}
	view, err := h.services.OnSubmit(c.Request.Context(), fields)
	if err != nil {
		h.respondError(c, "forecast_submit_failed", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// @Summary      Latest forecast
// @Tags         forecast
// @Produce      json
// @Success      200  {object}  service.View
// @Failure      404  {object}  errorResponse
// @Router       /api/v1/forecast/latest [get]
// @Security     BearerAuth
func (h *Handler) latestForecast(c *gin.Context) {
	view, err := h.services.Latest()
	if err != nil {
		h.respondError(c, "forecast_latest_missing", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"in_flight": h.services.InFlight(),
		"view":      view,
	})
}

// @Summary      Preview total losses
// @Tags         forecast
// @Accept       json
// @Produce      json
// @Param        body  body      forecast.Fields  true  "Loss and efficiency fields"
// @Success      200   {object}  service.LossPreview
// @Failure      400   {object}  errorResponse
// @Router       /api/v1/forecast/preview [post]
// @Security     BearerAuth
func (h *Handler) previewLosses(c *gin.Context) {
	var fields forecast.Fields
	if !h.bindJSONOrBadRequest(c, &fields) {
		return
	}
	p, err := h.services.Preview(fields)
	if err != nil {
		h.respondError(c, "forecast_preview_rejected", err)
		return
	}
	c.JSON(http.StatusOK, p)
}
