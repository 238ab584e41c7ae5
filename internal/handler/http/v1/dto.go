package v1

import (
	"time"

	"github.com/google/uuid"

	"github.com/shenikar/geofence_monitor/internal/models"
)

// CreateGeofenceRequest DTO для создания геозоны
// @Description DTO для создания геозоны
type CreateGeofenceRequest struct {
	Name           string   `json:"name" validate:"required,min=2,max=255"`
	Type           string   `json:"type" validate:"required,oneof=office_zone project_site restricted_area client_location"`
	Latitude       *float64 `json:"latitude" validate:"required,latitude"`
	Longitude      *float64 `json:"longitude" validate:"required,longitude"`
	RadiusMeters   float64  `json:"radius_meters" validate:"required,gt=0"`
	StartTime      string   `json:"start_time,omitempty" validate:"omitempty,datetime=15:04"`
	EndTime        string   `json:"end_time,omitempty" validate:"omitempty,datetime=15:04"`
	EntryNotify    *bool    `json:"entry_notify,omitempty"`
	ExitNotify     *bool    `json:"exit_notify,omitempty"`
	ViolationAlert *bool    `json:"violation_alert,omitempty"`
}

// UpdateGeofenceRequest DTO для обновления геозоны
// @Description DTO для обновления геозоны
type UpdateGeofenceRequest struct {
	CreateGeofenceRequest
	IsActive *bool `json:"is_active,omitempty"`
}

// GeofenceResponse DTO для ответа с информацией о геозоне
// @Description DTO для ответа с информацией о геозоне
type GeofenceResponse struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Type           string    `json:"type"`
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	RadiusMeters   float64   `json:"radius_meters"`
	StartTime      string    `json:"start_time"`
	EndTime        string    `json:"end_time"`
	EntryNotify    bool      `json:"entry_notify"`
	ExitNotify     bool      `json:"exit_notify"`
	ViolationAlert bool      `json:"violation_alert"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// LocationRequest DTO одного наблюдения местоположения
// @Description DTO одного наблюдения местоположения
type LocationRequest struct {
	EmployeeID string     `json:"employee_id" validate:"required,max=128"`
	Latitude   *float64   `json:"latitude" validate:"required,latitude"`
	Longitude  *float64   `json:"longitude" validate:"required,longitude"`
	Timestamp  *time.Time `json:"timestamp,omitempty"`
}

// BatchLocationRequest DTO пакета наблюдений
// @Description DTO пакета наблюдений
type BatchLocationRequest struct {
	Locations []LocationRequest `json:"locations" validate:"required,min=1,max=1000,dive"`
}

// MembershipStateResponse DTO состояния принадлежности
type MembershipStateResponse struct {
	GeofenceID        uuid.UUID `json:"geofence_id"`
	IsInside          bool      `json:"is_inside"`
	AfterHoursFlagged bool      `json:"after_hours_flagged"`
	AsOf              time.Time `json:"as_of"`
}

// EventResponse DTO события геозоны
type EventResponse struct {
	EmployeeID string           `json:"employee_id"`
	GeofenceID uuid.UUID        `json:"geofence_id"`
	Kind       models.EventKind `json:"kind"`
	OccurredAt time.Time        `json:"occurred_at"`
	Latitude   float64          `json:"latitude"`
	Longitude  float64          `json:"longitude"`
}

// LocationResponse DTO результата обработки наблюдения
// @Description DTO результата обработки наблюдения
type LocationResponse struct {
	EmployeeID string                    `json:"employee_id"`
	States     []MembershipStateResponse `json:"states"`
	Events     []EventResponse           `json:"events"`
	Skipped    []uuid.UUID               `json:"skipped,omitempty"`
}

// BatchFailureResponse DTO наблюдения, которое не удалось обработать
type BatchFailureResponse struct {
	EmployeeID string    `json:"employee_id"`
	Timestamp  time.Time `json:"timestamp"`
	Error      string    `json:"error"`
}

// BatchLocationResponse DTO результата обработки пакета
// @Description DTO результата обработки пакета
type BatchLocationResponse struct {
	Processed int                    `json:"processed"`
	Events    []EventResponse        `json:"events"`
	Failures  []BatchFailureResponse `json:"failures,omitempty"`
}

// AlertResponse DTO оповещения
// @Description DTO оповещения
type AlertResponse struct {
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

// CreateAlertRequest DTO ручного оповещения
// @Description DTO ручного оповещения
type CreateAlertRequest struct {
	Type       string     `json:"type" validate:"required,max=64"`
	Title      string     `json:"title" validate:"required,max=255"`
	Message    string     `json:"message" validate:"required"`
	Severity   string     `json:"severity,omitempty" validate:"omitempty,oneof=success info warning error"`
	EmployeeID string     `json:"employee_id,omitempty" validate:"max=128"`
	GeofenceID *uuid.UUID `json:"geofence_id,omitempty"`
}

// AttendanceRequest DTO ручной отметки посещаемости
// @Description DTO ручной отметки посещаемости
type AttendanceRequest struct {
	EmployeeID string     `json:"employee_id" validate:"required,max=128"`
	GeofenceID *uuid.UUID `json:"geofence_id,omitempty"`
	Type       string     `json:"type" validate:"required,oneof=check_in check_out entry exit"`
	Latitude   *float64   `json:"latitude" validate:"required,latitude"`
	Longitude  *float64   `json:"longitude" validate:"required,longitude"`
	Notes      string     `json:"notes,omitempty" validate:"max=1000"`
	Timestamp  *time.Time `json:"timestamp,omitempty"`
}

// EmergencyRequest DTO сигнала SOS
// @Description DTO сигнала SOS
type EmergencyRequest struct {
	EmployeeID string   `json:"employee_id" validate:"required,max=128"`
	Latitude   *float64 `json:"latitude" validate:"required,latitude"`
	Longitude  *float64 `json:"longitude" validate:"required,longitude"`
	Message    string   `json:"message,omitempty" validate:"max=1000"`
}

// ShareLocationRequest DTO передачи текущего местоположения
// @Description DTO передачи текущего местоположения
type ShareLocationRequest struct {
	EmployeeID string   `json:"employee_id" validate:"required,max=128"`
	Latitude   *float64 `json:"latitude" validate:"required,latitude"`
	Longitude  *float64 `json:"longitude" validate:"required,longitude"`
	Address    string   `json:"address,omitempty" validate:"max=500"`
}

// EmergencyResponse DTO ответа на экстренный сигнал
// @Description DTO ответа на экстренный сигнал
type EmergencyResponse struct {
	Success bool      `json:"success"`
	AlertID uuid.UUID `json:"alert_id"`
}

// AttendanceResponse DTO отметки посещаемости
// @Description DTO отметки посещаемости
type AttendanceResponse struct {
	ID         uuid.UUID  `json:"id"`
	EmployeeID string     `json:"employee_id"`
	GeofenceID *uuid.UUID `json:"geofence_id,omitempty"`
	Type       string     `json:"type"`
	Latitude   float64    `json:"latitude"`
	Longitude  float64    `json:"longitude"`
	Notes      string     `json:"notes,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`
}

// StatsResponse DTO для ответа со статистикой
// @Description DTO для ответа со статистикой
type StatsResponse struct {
	ActiveEmployees int `json:"active_employees"`
	UnreadAlerts    int `json:"unread_alerts"`
}
