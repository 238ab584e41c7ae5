package models

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// GeoPoint - географическая точка в градусах
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid проверяет, что координаты конечны и лежат в допустимых пределах
func (p GeoPoint) Valid() bool {
	if math.IsNaN(p.Latitude) || math.IsNaN(p.Longitude) {
		return false
	}
	return p.Latitude >= -90 && p.Latitude <= 90 &&
		p.Longitude >= -180 && p.Longitude <= 180
}

// LocationSample представляет одно наблюдение местоположения сотрудника
type LocationSample struct {
	ID         int64     `json:"id,omitempty"`
	SubjectID  string    `json:"subject_id"`
	Point      GeoPoint  `json:"point"`
	ObservedAt time.Time `json:"observed_at"`
}

// MembershipState - последнее известное состояние пары (сотрудник, геозона)
type MembershipState struct {
	SubjectID         string    `json:"subject_id"`
	GeofenceID        uuid.UUID `json:"geofence_id"`
	IsInside          bool      `json:"is_inside"`
	AfterHoursFlagged bool      `json:"after_hours_flagged"`
	AsOf              time.Time `json:"as_of"`
}

// EventKind - вид события нарушения
type EventKind string

const (
	EventEntry            EventKind = "entry"
	EventExit             EventKind = "exit"
	EventUnauthorizedExit EventKind = "unauthorized_exit"
	EventAfterHours       EventKind = "after_hours"

	// не связаны с геозоной, GeofenceID пустой
	EventSOS            EventKind = "sos"
	EventLocationShared EventKind = "location_shared"
)

// ViolationEvent порождается только при смене состояния
type ViolationEvent struct {
	SubjectID  string         `json:"subject_id"`
	GeofenceID uuid.UUID      `json:"geofence_id"`
	Kind       EventKind      `json:"kind"`
	OccurredAt time.Time      `json:"occurred_at"`
	Sample     LocationSample `json:"sample"`
}

// Stats - сводка для панели мониторинга
type Stats struct {
	ActiveSubjects int `json:"active_subjects"`
	UnreadAlerts   int `json:"unread_alerts"`
}
