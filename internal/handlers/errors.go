package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"pv_forecast/internal/forecast"
	"pv_forecast/internal/geocode"
	"pv_forecast/internal/models"
	"pv_forecast/internal/service"
	"pv_forecast/internal/site"
)

// Error categories carried in every error body, besides the ones produced by
// forecast.Category.
const (
	categoryInput      = "input"
	categoryNoOp       = "no_op"
	categoryInProgress = "in_progress"
	categoryNotFound   = "not_found"
	categoryConnection = "connection"
	categoryInternal   = "internal"
)

// errorResponse is the JSON body of every failed API call.
type errorResponse struct {
	Error    string `json:"error"`
	Category string `json:"category"`
	Field    string `json:"field,omitempty"`
}

// classify maps a service error to its HTTP status and body.
func classify(err error) (int, errorResponse) {
	resp := errorResponse{Error: err.Error()}

	var fe *forecast.FieldError
	switch {
	case errors.As(err, &fe):
		resp.Category = categoryInput
		resp.Field = fe.Field
		return http.StatusBadRequest, resp
	case errors.Is(err, models.ErrOutOfRange):
		resp.Category = categoryInput
		resp.Field = forecast.FieldPosition
		return http.StatusBadRequest, resp
	case forecast.IsInputError(err),
		errors.Is(err, service.ErrInvalidQuery),
		errors.Is(err, geocode.ErrEmptyQuery):
		resp.Category = categoryInput
		return http.StatusBadRequest, resp
	case errors.Is(err, site.ErrNothingPending):
		resp.Category = categoryNoOp
		return http.StatusConflict, resp
	case errors.Is(err, service.ErrCalculationInProgress),
		errors.Is(err, service.ErrSearchInProgress):
		resp.Category = categoryInProgress
		return http.StatusConflict, resp
	case errors.Is(err, service.ErrNoForecast):
		resp.Category = categoryNotFound
		return http.StatusNotFound, resp
	case errors.Is(err, geocode.ErrUnavailable):
		resp.Category = categoryConnection
		return http.StatusServiceUnavailable, resp
	}

	resp.Category = forecast.Category(err)
	switch {
	case errors.Is(err, forecast.ErrTransport):
		return http.StatusServiceUnavailable, resp
	case errors.Is(err, forecast.ErrValidationRejected):
		return http.StatusUnprocessableEntity, resp
	case errors.Is(err, forecast.ErrServer),
		errors.Is(err, forecast.ErrEmptyForecast),
		errors.Is(err, forecast.ErrMalformedRecord):
		return http.StatusBadGateway, resp
	}

	resp.Category = categoryInternal
	return http.StatusInternalServerError, resp
}

// respondError writes the classified error. Server-side failures are logged
// under logKey; client mistakes are logged at info level.
func (h *Handler) respondError(c *gin.Context, logKey string, err error, kv ...interface{}) {
	code, resp := classify(err)
	if h.log != nil {
		fields := append([]interface{}{"err", err, "status", code, "category", resp.Category}, kv...)
		if code >= http.StatusInternalServerError {
			h.log.Errorw(logKey, fields...)
		} else {
			h.log.Infow(logKey, fields...)
		}
	}
	c.JSON(code, resp)
}

// bindJSONOrBadRequest tries to bind the request body into dst and writes a 400 JSON on failure.
// Returns false if the request was already handled (aborted), true otherwise.
func (h *Handler) bindJSONOrBadRequest(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		if h.log != nil {
			h.log.Infow("bad_request_body", "path", c.FullPath(), "err", err)
		}
		c.JSON(http.StatusBadRequest, errorResponse{Error: errInvalidBodyPref + err.Error(), Category: categoryInput})
		return false
	}
	return true
}
