package v1

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shenikar/geofence_monitor/internal/models"
)

// @Summary Get a list of alerts
// @Description Get alerts newest first, optionally filtered by read status. Requires API key.
// @Tags Alerts
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param isRead query bool false "Filter by read status"
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Number of items per page" default(20)
// @Success 200 {array} AlertResponse
// @Failure 400 {object} map[string]string "Invalid isRead"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /alerts [get]
func (h *Handler) listAlerts(c *gin.Context) {
	log := h.logger.WithField("method", "listAlerts")

	var isRead *bool
	if raw, ok := c.GetQuery("isRead"); ok {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "isRead must be true or false"})
			return
		}
		isRead = &v
	}
	page, pageSize := pagination(c)

	alerts, err := h.alertService.ListAlerts(c.Request.Context(), isRead, page, pageSize)
	if err != nil {
		h.respondError(c, log, err, "")
		return
	}
	c.JSON(http.StatusOK, ModelsToAlertResponses(alerts))
}

// @Summary Create an alert
// @Description Create a manual alert. Severity defaults to info. Requires API key.
// @Tags Alerts
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param alert body CreateAlertRequest true "Alert data"
// @Success 201 {object} AlertResponse
// @Failure 400 {object} map[string]string "Invalid request body or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /alerts [post]
func (h *Handler) createAlert(c *gin.Context) {
	var input CreateAlertRequest
	log := h.logger.WithField("method", "createAlert")

	if !h.bindAndValidate(c, log, &input) {
		return
	}

	alert := DTOToAlertModel(input)
	if err := h.alertService.CreateAlert(c.Request.Context(), alert); err != nil {
		h.respondError(c, log, err, "")
		return
	}
	c.JSON(http.StatusCreated, ModelToAlertResponse(alert))
}

// @Summary Mark an alert as read
// @Description Mark an alert as read by its ID. Requires API key.
// @Tags Alerts
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Alert ID"
// @Success 204 "No Content"
// @Failure 400 {object} map[string]string "Invalid alert ID"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Alert not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /alerts/{id}/read [patch]
func (h *Handler) markAlertRead(c *gin.Context) {
	id, ok := parseID(c, "alert")
	if !ok {
		return
	}
	log := h.logger.WithField("method", "markAlertRead").WithField("id", id)

	if err := h.alertService.MarkAlertRead(c.Request.Context(), id); err != nil {
		h.respondError(c, log, err, "alert not found")
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Get attendance records
// @Description Get entry/exit records, optionally for one employee and one local calendar day (YYYY-MM-DD). Requires API key.
// @Tags Attendance
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param employeeId query string false "Employee ID"
// @Param date query string false "Day in YYYY-MM-DD"
// @Success 200 {array} AttendanceResponse
// @Failure 400 {object} map[string]string "Invalid date"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /attendance [get]
func (h *Handler) listAttendance(c *gin.Context) {
	log := h.logger.WithField("method", "listAttendance")

	filter := models.AttendanceFilter{EmployeeID: c.Query("employeeId")}
	if raw := c.Query("date"); raw != "" {
		loc := h.cfg.Location
		if loc == nil {
			loc = time.UTC
		}
		day, err := time.ParseInLocation(time.DateOnly, raw, loc)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be in YYYY-MM-DD format"})
			return
		}
		filter.Date = &day
	}

	records, err := h.monitorService.ListAttendance(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, log, err, "")
		return
	}
	c.JSON(http.StatusOK, ModelsToAttendanceResponses(records))
}

// @Summary Record attendance manually
// @Description Record a check_in/check_out (or entry/exit) mark. The geofence is optional; when given it must exist. Timestamp defaults to now. Requires API key.
// @Tags Attendance
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param record body AttendanceRequest true "Attendance mark"
// @Success 201 {object} AttendanceResponse
// @Failure 400 {object} map[string]string "Invalid request body or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Geofence not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /attendance [post]
func (h *Handler) createAttendance(c *gin.Context) {
	var input AttendanceRequest
	log := h.logger.WithField("method", "createAttendance")

	if !h.bindAndValidate(c, log, &input) {
		return
	}

	record := DTOToAttendanceModel(input)
	if err := h.monitorService.RecordAttendance(c.Request.Context(), record); err != nil {
		h.respondError(c, log.WithField("employee_id", record.EmployeeID), err, "geofence not found")
		return
	}
	c.JSON(http.StatusCreated, ModelToAttendanceResponse(record))
}

// @Summary Get monitoring statistics
// @Description Get the number of employees seen within the stats window and the number of unread alerts. Requires API key.
// @Tags Admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} StatsResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /stats [get]
func (h *Handler) getStats(c *gin.Context) {
	log := h.logger.WithField("method", "getStats")

	stats, err := h.monitorService.GetStats(c.Request.Context())
	if err != nil {
		h.respondError(c, log, err, "")
		return
	}

	c.JSON(http.StatusOK, StatsResponse{ActiveEmployees: stats.ActiveSubjects, UnreadAlerts: stats.UnreadAlerts})
}
