package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Типы геозон
const (
	GeofenceTypeOffice     = "office_zone"
	GeofenceTypeProject    = "project_site"
	GeofenceTypeRestricted = "restricted_area"
	GeofenceTypeClient     = "client_location"
)

// Geofence - круговая зона с окном активности и флагами уведомлений
type Geofence struct {
	ID             uuid.UUID    `json:"id"`
	Name           string       `json:"name"`
	Type           string       `json:"type"`
	Center         GeoPoint     `json:"center"`
	RadiusMeters   float64      `json:"radius_meters"`
	ActiveWindow   ActiveWindow `json:"active_window"`
	EntryNotify    bool         `json:"entry_notify"`
	ExitNotify     bool         `json:"exit_notify"`
	ViolationAlert bool         `json:"violation_alert"`
	IsActive       bool         `json:"is_active"`
	// последний переход в активное состояние; более ранние состояния принадлежности не учитываются
	ActivatedAt    time.Time    `json:"activated_at"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// TimeOfDay - локальное время суток в секундах от полуночи
type TimeOfDay int

const secondsPerDay = 24 * 60 * 60

// ParseTimeOfDay разбирает строку формата "HH:MM" или "HH:MM:SS"
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return TimeOfDayOf(t), nil
		}
	}
	return 0, fmt.Errorf("invalid time of day %q", s)
}

// MustTimeOfDay - вариант ParseTimeOfDay для констант и тестов
func MustTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

// TimeOfDayOf возвращает время суток момента t в его собственной временной зоне
func TimeOfDayOf(t time.Time) TimeOfDay {
	h, m, s := t.Clock()
	return TimeOfDay(h*3600 + m*60 + s)
}

// Valid сообщает, лежит ли значение в пределах суток
func (t TimeOfDay) Valid() bool {
	return t >= 0 && t < secondsPerDay
}

func (t TimeOfDay) String() string {
	h, m, s := int(t)/3600, int(t)%3600/60, int(t)%60
	if s != 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", h, m)
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ActiveWindow - окно активности геозоны. End < Start означает переход через полночь,
// Start == End - круглосуточную активность.
type ActiveWindow struct {
	Start TimeOfDay `json:"start"`
	End   TimeOfDay `json:"end"`
}

// DefaultActiveWindow возвращает рабочий день 09:00-18:00
func DefaultActiveWindow() ActiveWindow {
	return ActiveWindow{Start: 9 * 3600, End: 18 * 3600}
}

// Contains проверяет попадание времени суток t в окно (границы включительно)
func (w ActiveWindow) Contains(t TimeOfDay) bool {
	switch {
	case w.Start == w.End:
		return true
	case w.End < w.Start:
		return t >= w.Start || t <= w.End
	default:
		return t >= w.Start && t <= w.End
	}
}

// Valid сообщает, корректны ли обе границы окна
func (w ActiveWindow) Valid() bool {
	return w.Start.Valid() && w.End.Valid()
}
