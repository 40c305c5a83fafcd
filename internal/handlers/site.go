package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pv_forecast/internal/models"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK        = "ok"
	statusProposed  = "proposed"
	statusConfirmed = "confirmed"
	statusCanceled  = "canceled"

	errInvalidBodyPref = "invalid body: "
)

// positionRequest is the body of drag and manual commands.
type positionRequest struct {
	Lat *float64 `json:"lat" binding:"required"`
	Lon *float64 `json:"lon" binding:"required"`
}

func (r positionRequest) position() models.Position {
	return models.Position{Latitude: *r.Lat, Longitude: *r.Lon}
}

// PositionRequest is an exported model for Swagger docs of the site payloads.
type PositionRequest struct {
	// Latitude in degrees, [-90, 90]
	Lat float64 `json:"lat" example:"45.0703"`
	// Longitude in degrees, [-180, 180]
	Lon float64 `json:"lon" example:"7.6869"`
}

// respondWithState writes the gesture outcome together with the snapshot.
// A benign no-op answers 409 but still carries the unchanged state.
func (h *Handler) respondWithState(c *gin.Context, status, logKey string, st models.SiteState, err error) {
	if err != nil {
		code, resp := classify(err)
		if h.log != nil {
			h.log.Infow(logKey, "err", err, "status", code)
		}
		c.JSON(code, gin.H{"error": resp.Error, "category": resp.Category, "field": resp.Field, "state": st})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status, "state": st})
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Get site state
// @Tags         site
// @Produce      json
// @Success      200  {object}  models.SiteState
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/site [get]
// @Security     BearerAuth
func (h *Handler) getSite(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.State())
}

// @Summary      Marker dropped
// @Description  Proposes the drop point; the confirmed site is unchanged until confirm.
// @Tags         site
// @Accept       json
// @Produce      json
// @Param        body  body      PositionRequest  true  "Drop point"
// @Success      200   {object}  map[string]interface{}  "status, state"
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  map[string]string
// @Router       /api/v1/site/drag [post]
// @Security     BearerAuth
func (h *Handler) dragSite(c *gin.Context) {
	var req positionRequest
	if !h.bindJSONOrBadRequest(c, &req) {
		return
	}
	st, err := h.services.OnDragEnd(c.Request.Context(), req.position())
	h.respondWithState(c, statusProposed, "site_drag_rejected", st, err)
}

// @Summary      Confirm pending site
// @Tags         site
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status, state"
// @Failure      401  {object}  map[string]string
// @Failure      409  {object}  map[string]interface{}  "nothing pending"
// @Router       /api/v1/site/confirm [post]
// @Security     BearerAuth
func (h *Handler) confirmSite(c *gin.Context) {
	st, err := h.services.OnConfirm(c.Request.Context())
	h.respondWithState(c, statusConfirmed, "site_confirm_noop", st, err)
}

// @Summary      Cancel pending site
// @Tags         site
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status, state"
// @Failure      401  {object}  map[string]string
// @Failure      409  {object}  map[string]interface{}  "nothing pending"
// @Router       /api/v1/site/cancel [post]
// @Security     BearerAuth
func (h *Handler) cancelSite(c *gin.Context) {
	st, err := h.services.OnCancel(c.Request.Context())
	h.respondWithState(c, statusCanceled, "site_cancel_noop", st, err)
}

// @Summary      Set site manually
// @Description  Confirms typed coordinates directly, discarding any pending candidate.
// @Tags         site
// @Accept       json
// @Produce      json
// @Param        body  body      PositionRequest  true  "Coordinates"
// @Success      200   {object}  map[string]interface{}  "status, state"
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  map[string]string
// @Router       /api/v1/site/manual [post]
// @Security     BearerAuth
func (h *Handler) manualSite(c *gin.Context) {
	var req positionRequest
	if !h.bindJSONOrBadRequest(c, &req) {
		return
	}
	st, err := h.services.OnManualCoords(c.Request.Context(), req.position())
	h.respondWithState(c, statusConfirmed, "site_manual_rejected", st, err)
}
