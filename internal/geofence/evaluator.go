package geofence

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/shenikar/geofence_monitor/internal/metrics"
	"github.com/shenikar/geofence_monitor/internal/models"
)

// Evaluator определяет принадлежность сотрудника геозонам и события переходов.
// Не хранит состояния между вызовами: предыдущие состояния передаются вызывающей стороной.
type Evaluator struct {
	location *time.Location
	logger   *logrus.Logger
	metrics  *metrics.Metrics
	distance func(a, b models.GeoPoint) float64
}

// NewEvaluator создает Evaluator. Окна активности сравниваются с временем суток
// наблюдения в зоне loc; при loc == nil используется зона самой метки времени.
func NewEvaluator(loc *time.Location, logger *logrus.Logger, m *metrics.Metrics) *Evaluator {
	return &Evaluator{
		location: loc,
		logger:   logger,
		metrics:  m,
		distance: Haversine,
	}
}

// Evaluate вычисляет новые состояния и события для одного наблюдения.
// Неактивные геозоны пропускаются. Отсутствие предыдущего состояния равносильно "снаружи".
func (e *Evaluator) Evaluate(
	sample models.LocationSample,
	geofences []*models.Geofence,
	prior map[uuid.UUID]models.MembershipState,
) (map[uuid.UUID]models.MembershipState, []models.ViolationEvent, error) {
	if err := ValidateSample(sample); err != nil {
		return nil, nil, err
	}

	observed := sample.ObservedAt
	if e.location != nil {
		observed = observed.In(e.location)
	}
	timeOfDay := models.TimeOfDayOf(observed)

	states := make(map[uuid.UUID]models.MembershipState, len(geofences))
	var events []models.ViolationEvent

	for _, g := range geofences {
		if g == nil || !g.IsActive {
			continue
		}

		state := models.MembershipState{
			SubjectID:  sample.SubjectID,
			GeofenceID: g.ID,
			AsOf:       sample.ObservedAt,
		}

		dist := e.distance(sample.Point, g.Center)
		if math.IsNaN(dist) || math.IsInf(dist, 0) {
			e.reportAnomaly(sample, g, dist)
			states[g.ID] = state
			continue
		}

		state.IsInside = dist <= g.RadiusMeters
		withinWindow := g.ActiveWindow.Contains(timeOfDay)
		previous := prior[g.ID]

		emit := func(kind models.EventKind) {
			events = append(events, models.ViolationEvent{
				SubjectID:  sample.SubjectID,
				GeofenceID: g.ID,
				Kind:       kind,
				OccurredAt: sample.ObservedAt,
				Sample:     sample,
			})
		}

		switch {
		case !previous.IsInside && state.IsInside:
			if g.EntryNotify {
				emit(models.EventEntry)
			}
		case previous.IsInside && !state.IsInside:
			if g.ExitNotify {
				emit(models.EventExit)
			}
			if g.ViolationAlert && withinWindow {
				emit(models.EventUnauthorizedExit)
			}
		}

		afterHours := state.IsInside && !withinWindow && g.ViolationAlert
		if afterHours && !previous.AfterHoursFlagged {
			emit(models.EventAfterHours)
		}
		state.AfterHoursFlagged = afterHours

		states[g.ID] = state
	}

	return states, events, nil
}

func (e *Evaluator) reportAnomaly(sample models.LocationSample, g *models.Geofence, dist float64) {
	if e.metrics != nil {
		e.metrics.IncrementAnomalies()
	}
	if e.logger == nil {
		return
	}
	e.logger.WithFields(logrus.Fields{
		"component":   "evaluator",
		"subject_id":  sample.SubjectID,
		"geofence_id": g.ID,
		"latitude":    sample.Point.Latitude,
		"longitude":   sample.Point.Longitude,
		"distance":    fmt.Sprint(dist),
	}).Error("Non-finite distance, treating subject as outside")
}

// ValidateSample проверяет наблюдение до вычислений: id сотрудника, диапазон координат, метку времени
func ValidateSample(sample models.LocationSample) error {
	if sample.SubjectID == "" {
		return fmt.Errorf("%w: subject id is required", ErrInvalidInput)
	}
	if !sample.Point.Valid() {
		return fmt.Errorf("%w: coordinates (%v, %v) out of range",
			ErrInvalidInput, sample.Point.Latitude, sample.Point.Longitude)
	}
	if sample.ObservedAt.IsZero() {
		return fmt.Errorf("%w: observed_at is required", ErrInvalidInput)
	}
	return nil
}
