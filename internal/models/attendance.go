package models

import (
	"time"

	"github.com/google/uuid"
)

// Типы отметок посещаемости: entry/exit ставит монитор, check_in/check_out - сотрудник вручную
const (
	AttendanceEntry    = "entry"
	AttendanceExit     = "exit"
	AttendanceCheckIn  = "check_in"
	AttendanceCheckOut = "check_out"
)

// AttendanceRecord - отметка о входе в геозону, выходе из неё или ручная отметка
type AttendanceRecord struct {
	ID         uuid.UUID  `json:"id"`
	EmployeeID string     `json:"employee_id"`
	GeofenceID *uuid.UUID `json:"geofence_id,omitempty"`
	Type       string     `json:"type"`
	Location   GeoPoint   `json:"location"`
	Notes      string     `json:"notes,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`
}

// ValidAttendanceType сообщает, известен ли тип отметки
func ValidAttendanceType(t string) bool {
	switch t {
	case AttendanceEntry, AttendanceExit, AttendanceCheckIn, AttendanceCheckOut:
		return true
	}
	return false
}

// AttendanceFilter - параметры выборки отметок
type AttendanceFilter struct {
	EmployeeID string
	Date       *time.Time
}
