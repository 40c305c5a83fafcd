package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pv_forecast/internal/geocode"
)

// selectRequest is the body of an address pick from the result list.
type selectRequest struct {
	Lat   *float64 `json:"lat" binding:"required"`
	Lon   *float64 `json:"lon" binding:"required"`
	Label string   `json:"label"`
}

// @Summary      Search address
// @Tags         geocode
// @Produce      json
// @Param        q    query     string  true  "Free-text address"  example(via roma 1, torino)
// @Success      200  {object}  map[string]interface{}  "count, results"
// @Failure      400  {object}  errorResponse
// @Failure      409  {object}  errorResponse  "search in progress"
// @Failure      503  {object}  errorResponse
// @Router       /api/v1/geocode/search [get]
// @Security     BearerAuth
func (h *Handler) searchAddress(c *gin.Context) {
	query := c.Query("q")
	results, err := h.services.Search(c.Request.Context(), query)
	if err != nil {
		h.respondError(c, "geocode_search_failed", err, "query", query)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":   len(results),
		"results": results,
	})
}

// @Summary      Select address
// @Description  Proposes the picked address as the candidate site; it still needs confirm.
// @Tags         geocode
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status, state"
// @Failure      400  {object}  errorResponse
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/geocode/select [post]
// @Security     BearerAuth
func (h *Handler) selectAddress(c *gin.Context) {
	var req selectRequest
	if !h.bindJSONOrBadRequest(c, &req) {
		return
	}
	p := positionRequest{Lat: req.Lat, Lon: req.Lon}.position()
	label := geocode.Truncate(req.Label, geocode.LabelMaxRunes)

	st, err := h.services.OnGeocodeSelect(c.Request.Context(), p, label)
	h.respondWithState(c, statusProposed, "geocode_select_rejected", st, err)
}
