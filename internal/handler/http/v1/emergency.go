package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shenikar/geofence_monitor/internal/models"
)

// @Summary Activate SOS
// @Description Raise an error-severity SOS alert at the given point and fan it out to the event sinks. Requires API key.
// @Tags Emergency
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param sos body EmergencyRequest true "SOS signal"
// @Success 200 {object} EmergencyResponse
// @Failure 400 {object} map[string]string "Invalid request body or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /emergency/sos [post]
func (h *Handler) raiseSOS(c *gin.Context) {
	var input EmergencyRequest
	log := h.logger.WithField("method", "raiseSOS")

	if !h.bindAndValidate(c, log, &input) {
		return
	}

	point := models.GeoPoint{Latitude: *input.Latitude, Longitude: *input.Longitude}
	alert, err := h.alertService.RaiseSOS(c.Request.Context(), input.EmployeeID, point, input.Message)
	if err != nil {
		h.respondError(c, log.WithField("employee_id", input.EmployeeID), err, "")
		return
	}
	c.JSON(http.StatusOK, EmergencyResponse{Success: true, AlertID: alert.ID})
}

// @Summary Share current location
// @Description Raise an info alert with the employee's current location and fan it out to the event sinks. Requires API key.
// @Tags Emergency
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param location body ShareLocationRequest true "Shared location"
// @Success 200 {object} EmergencyResponse
// @Failure 400 {object} map[string]string "Invalid request body or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /emergency/share-location [post]
func (h *Handler) shareLocation(c *gin.Context) {
	var input ShareLocationRequest
	log := h.logger.WithField("method", "shareLocation")

	if !h.bindAndValidate(c, log, &input) {
		return
	}

	point := models.GeoPoint{Latitude: *input.Latitude, Longitude: *input.Longitude}
	alert, err := h.alertService.ShareLocation(c.Request.Context(), input.EmployeeID, point, input.Address)
	if err != nil {
		h.respondError(c, log.WithField("employee_id", input.EmployeeID), err, "")
		return
	}
	c.JSON(http.StatusOK, EmergencyResponse{Success: true, AlertID: alert.ID})
}
