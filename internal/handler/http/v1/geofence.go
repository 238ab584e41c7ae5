package v1

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/shenikar/geofence_monitor/internal/models"
)

// @Summary Create a new geofence
// @Description Create a circular geofence with an active window and notification flags. Requires API key.
// @Tags Geofences
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param geofence body CreateGeofenceRequest true "Geofence creation request"
// @Success 201 {object} GeofenceResponse
// @Failure 400 {object} map[string]string "Invalid request body or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /geofences [post]
func (h *Handler) createGeofence(c *gin.Context) {
	var input CreateGeofenceRequest
	log := h.logger.WithField("method", "createGeofence")

	if !h.bindAndValidate(c, log, &input) {
		return
	}

	model, err := DTOToGeofenceModel(input)
	if err != nil {
		h.respondError(c, log, err, "")
		return
	}

	if err := h.geofenceService.CreateGeofence(c.Request.Context(), model); err != nil {
		h.respondError(c, log, err, "")
		return
	}
	c.JSON(http.StatusCreated, ModelToGeofenceResponse(model))
}

// @Summary Get a list of geofences
// @Description Get a paginated list of all geofences, including inactive ones. Requires API key.
// @Tags Geofences
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Number of items per page" default(20)
// @Success 200 {array} GeofenceResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /geofences [get]
func (h *Handler) listGeofences(c *gin.Context) {
	log := h.logger.WithField("method", "listGeofences")
	page, pageSize := pagination(c)

	geofences, err := h.geofenceService.ListGeofences(c.Request.Context(), page, pageSize)
	if err != nil {
		h.respondError(c, log, err, "")
		return
	}

	c.JSON(http.StatusOK, ModelsToGeofenceResponses(geofences))
}

// @Summary Get active geofences
// @Description Get the active geofence catalog. With lat, lng and radius only geofences intersecting that circle are returned. Requires API key.
// @Tags Geofences
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param lat query number false "Region center latitude"
// @Param lng query number false "Region center longitude"
// @Param radius query number false "Region radius in meters" default(0)
// @Success 200 {array} GeofenceResponse
// @Failure 400 {object} map[string]string "Invalid region"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /geofences/active [get]
func (h *Handler) listActiveGeofences(c *gin.Context) {
	log := h.logger.WithField("method", "listActiveGeofences")

	latStr, lngStr := c.Query("lat"), c.Query("lng")
	if latStr == "" && lngStr == "" {
		geofences, err := h.geofenceService.ListActive(c.Request.Context())
		if err != nil {
			h.respondError(c, log, err, "")
			return
		}
		c.JSON(http.StatusOK, ModelsToGeofenceResponses(geofences))
		return
	}

	lat, errLat := strconv.ParseFloat(latStr, 64)
	lng, errLng := strconv.ParseFloat(lngStr, 64)
	radius, errRadius := strconv.ParseFloat(c.DefaultQuery("radius", "0"), 64)
	if errLat != nil || errLng != nil || errRadius != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat, lng and radius must be numbers"})
		return
	}

	geofences, err := h.geofenceService.ListActiveInRegion(c.Request.Context(), models.GeoPoint{Latitude: lat, Longitude: lng}, radius)
	if err != nil {
		h.respondError(c, log, err, "")
		return
	}
	c.JSON(http.StatusOK, ModelsToGeofenceResponses(geofences))
}

// @Summary Get geofence by ID
// @Description Get a single geofence by its ID. Requires API key.
// @Tags Geofences
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Geofence ID"
// @Success 200 {object} GeofenceResponse
// @Failure 400 {object} map[string]string "Invalid geofence ID"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Geofence not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /geofences/{id} [get]
func (h *Handler) getGeofence(c *gin.Context) {
	id, ok := parseID(c, "geofence")
	if !ok {
		return
	}
	log := h.logger.WithField("method", "getGeofence").WithField("id", id)

	g, err := h.geofenceService.GetGeofence(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, log, err, "geofence not found")
		return
	}
	c.JSON(http.StatusOK, ModelToGeofenceResponse(g))
}

// @Summary Update an existing geofence
// @Description Replace the mutable fields of a geofence by ID. Requires API key.
// @Tags Geofences
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Geofence ID"
// @Param geofence body UpdateGeofenceRequest true "Geofence update request"
// @Success 200 {object} GeofenceResponse
// @Failure 400 {object} map[string]string "Invalid geofence ID or request body"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Geofence not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /geofences/{id} [put]
func (h *Handler) updateGeofence(c *gin.Context) {
	id, ok := parseID(c, "geofence")
	if !ok {
		return
	}
	log := h.logger.WithField("method", "updateGeofence").WithField("id", id)

	var input UpdateGeofenceRequest
	if !h.bindAndValidate(c, log, &input) {
		return
	}

	model, err := DTOUpdateToGeofenceModel(input)
	if err != nil {
		h.respondError(c, log, err, "")
		return
	}
	model.ID = id

	if err := h.geofenceService.UpdateGeofence(c.Request.Context(), model); err != nil {
		h.respondError(c, log, err, "geofence not found")
		return
	}
	c.JSON(http.StatusOK, ModelToGeofenceResponse(model))
}

// @Summary Deactivate or delete a geofence
// @Description Deactivate a geofence by its ID so it is no longer evaluated. With hard=true the geofence is removed. Requires API key.
// @Tags Geofences
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Geofence ID"
// @Param hard query bool false "Delete permanently" default(false)
// @Success 204 "No Content"
// @Failure 400 {object} map[string]string "Invalid geofence ID"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Geofence not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /geofences/{id} [delete]
func (h *Handler) deleteGeofence(c *gin.Context) {
	id, ok := parseID(c, "geofence")
	if !ok {
		return
	}
	hard, _ := strconv.ParseBool(c.DefaultQuery("hard", "false"))
	log := h.logger.WithField("method", "deleteGeofence").WithField("id", id).WithField("hard", hard)

	var err error
	if hard {
		err = h.geofenceService.DeleteGeofence(c.Request.Context(), id)
	} else {
		err = h.geofenceService.DeactivateGeofence(c.Request.Context(), id)
	}
	if err != nil {
		h.respondError(c, log, err, "geofence not found")
		return
	}

	c.Status(http.StatusNoContent)
}
