package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shenikar/geofence_monitor/internal/models"
)

// @Summary Submit an employee location
// @Description Evaluate one location sample against the active geofences. Returns the new membership states and the events emitted. Requires API key.
// @Tags Locations
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param location body LocationRequest true "Location sample"
// @Success 200 {object} LocationResponse
// @Failure 400 {object} map[string]string "Invalid request body or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /locations [post]
func (h *Handler) processLocation(c *gin.Context) {
	var input LocationRequest
	log := h.logger.WithField("method", "processLocation")

	if !h.bindAndValidate(c, log, &input) {
		return
	}

	sample := DTOToLocationSample(input, time.Now())
	res, err := h.monitorService.ProcessSample(c.Request.Context(), sample)
	if err != nil {
		h.respondError(c, log.WithField("employee_id", sample.SubjectID), err, "")
		return
	}

	c.JSON(http.StatusOK, SampleResultToResponse(sample.SubjectID, res))
}

// @Summary Submit a batch of employee locations
// @Description Evaluate many samples. Samples of one employee are applied in timestamp order; employees are processed in parallel. Per-sample failures are reported in the response. Requires API key.
// @Tags Locations
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param batch body BatchLocationRequest true "Location samples"
// @Success 200 {object} BatchLocationResponse
// @Failure 400 {object} map[string]string "Invalid request body or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /locations/batch [post]
func (h *Handler) processLocationBatch(c *gin.Context) {
	var input BatchLocationRequest
	log := h.logger.WithField("method", "processLocationBatch")

	if !h.bindAndValidate(c, log, &input) {
		return
	}

	now := time.Now()
	samples := make([]models.LocationSample, len(input.Locations))
	for i, loc := range input.Locations {
		samples[i] = DTOToLocationSample(loc, now)
	}

	res, err := h.monitorService.ProcessBatch(c.Request.Context(), samples)
	if err != nil {
		h.respondError(c, log, err, "")
		return
	}

	c.JSON(http.StatusOK, BatchResultToResponse(res))
}
