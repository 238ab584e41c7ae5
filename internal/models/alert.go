package models

import (
	"time"

	"github.com/google/uuid"
)

// Типы оповещений
const (
	AlertTypeGeofenceEntry    = "geofence_entry"
	AlertTypeGeofenceExit     = "geofence_exit"
	AlertTypeUnauthorizedExit = "unauthorized_exit"
	AlertTypeAfterHours       = "after_hours"
	AlertTypeSOS              = "sos_activated"
	AlertTypeLocationShared   = "location_shared"
)

// Уровни важности
const (
	SeverityInfo    = "info"
	SeveritySuccess = "success"
	SeverityWarning = "warning"
	SeverityError   = "error"
)

type Alert struct {
	ID         uuid.UUID  `json:"id"`
	Type       string     `json:"type"`
	Title      string     `json:"title"`
	Message    string     `json:"message"`
	Severity   string     `json:"severity"`
	EmployeeID string     `json:"employee_id,omitempty"`
	GeofenceID *uuid.UUID `json:"geofence_id,omitempty"`
	IsRead     bool       `json:"is_read"`
	Timestamp  time.Time  `json:"timestamp"`
}
