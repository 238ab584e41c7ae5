package v1

import (
	"fmt"
	"sort"
	"time"

	"github.com/shenikar/geofence_monitor/internal/geofence"
	"github.com/shenikar/geofence_monitor/internal/models"
)

// DTOToGeofenceModel преобразует запрос в модель, подставляя значения по умолчанию
func DTOToGeofenceModel(req CreateGeofenceRequest) (*models.Geofence, error) {
	window := models.DefaultActiveWindow()
	if req.StartTime != "" {
		start, err := models.ParseTimeOfDay(req.StartTime)
		if err != nil {
			return nil, fmt.Errorf("%w: start_time: %v", geofence.ErrInvalidInput, err)
		}
		window.Start = start
	}
	if req.EndTime != "" {
		end, err := models.ParseTimeOfDay(req.EndTime)
		if err != nil {
			return nil, fmt.Errorf("%w: end_time: %v", geofence.ErrInvalidInput, err)
		}
		window.End = end
	}

	return &models.Geofence{
		Name:           req.Name,
		Type:           req.Type,
		Center:         models.GeoPoint{Latitude: deref(req.Latitude, 0), Longitude: deref(req.Longitude, 0)},
		RadiusMeters:   req.RadiusMeters,
		ActiveWindow:   window,
		EntryNotify:    deref(req.EntryNotify, true),
		ExitNotify:     deref(req.ExitNotify, true),
		ViolationAlert: deref(req.ViolationAlert, false),
		IsActive:       true,
	}, nil
}

// DTOUpdateToGeofenceModel - то же для обновления; is_active по умолчанию true
func DTOUpdateToGeofenceModel(req UpdateGeofenceRequest) (*models.Geofence, error) {
	g, err := DTOToGeofenceModel(req.CreateGeofenceRequest)
	if err != nil {
		return nil, err
	}
	g.IsActive = deref(req.IsActive, true)
	return g, nil
}

// ModelToGeofenceResponse преобразует доменную модель в DTO для ответа
func ModelToGeofenceResponse(model *models.Geofence) *GeofenceResponse {
	return &GeofenceResponse{
		ID:             model.ID,
		Name:           model.Name,
		Type:           model.Type,
		Latitude:       model.Center.Latitude,
		Longitude:      model.Center.Longitude,
		RadiusMeters:   model.RadiusMeters,
		StartTime:      model.ActiveWindow.Start.String(),
		EndTime:        model.ActiveWindow.End.String(),
		EntryNotify:    model.EntryNotify,
		ExitNotify:     model.ExitNotify,
		ViolationAlert: model.ViolationAlert,
		IsActive:       model.IsActive,
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
	}
}

// ModelsToGeofenceResponses преобразует слайс моделей в слайс DTO
func ModelsToGeofenceResponses(list []*models.Geofence) []*GeofenceResponse {
	responses := make([]*GeofenceResponse, len(list))
	for i, model := range list {
		responses[i] = ModelToGeofenceResponse(model)
	}
	return responses
}

// DTOToLocationSample - наблюдение без timestamp получает время приема now
func DTOToLocationSample(req LocationRequest, now time.Time) models.LocationSample {
	observedAt := now
	if req.Timestamp != nil {
		observedAt = *req.Timestamp
	}
	return models.LocationSample{
		SubjectID:  req.EmployeeID,
		Point:      models.GeoPoint{Latitude: deref(req.Latitude, 0), Longitude: deref(req.Longitude, 0)},
		ObservedAt: observedAt,
	}
}

func eventsToResponses(events []models.ViolationEvent) []EventResponse {
	responses := make([]EventResponse, len(events))
	for i, e := range events {
		responses[i] = EventResponse{
			EmployeeID: e.SubjectID,
			GeofenceID: e.GeofenceID,
			Kind:       e.Kind,
			OccurredAt: e.OccurredAt,
			Latitude:   e.Sample.Point.Latitude,
			Longitude:  e.Sample.Point.Longitude,
		}
	}
	return responses
}

// SampleResultToResponse упорядочивает состояния по id геозоны, чтобы ответ был детерминированным
func SampleResultToResponse(employeeID string, res *models.SampleResult) *LocationResponse {
	states := make([]MembershipStateResponse, 0, len(res.States))
	for _, st := range res.States {
		states = append(states, MembershipStateResponse{
			GeofenceID:        st.GeofenceID,
			IsInside:          st.IsInside,
			AfterHoursFlagged: st.AfterHoursFlagged,
			AsOf:              st.AsOf,
		})
	}
	sort.Slice(states, func(i, j int) bool {
		return states[i].GeofenceID.String() < states[j].GeofenceID.String()
	})

	return &LocationResponse{
		EmployeeID: employeeID,
		States:     states,
		Events:     eventsToResponses(res.Events),
		Skipped:    res.Skipped,
	}
}

func BatchResultToResponse(res *models.BatchResult) *BatchLocationResponse {
	resp := &BatchLocationResponse{
		Processed: res.Processed,
		Events:    eventsToResponses(res.Events),
	}
	for _, f := range res.Failures {
		resp.Failures = append(resp.Failures, BatchFailureResponse{
			EmployeeID: f.SubjectID,
			Timestamp:  f.ObservedAt,
			Error:      f.Error,
		})
	}
	return resp
}

func ModelToAlertResponse(a *models.Alert) *AlertResponse {
	return &AlertResponse{
		ID:         a.ID,
		Type:       a.Type,
		Title:      a.Title,
		Message:    a.Message,
		Severity:   a.Severity,
		EmployeeID: a.EmployeeID,
		GeofenceID: a.GeofenceID,
		IsRead:     a.IsRead,
		Timestamp:  a.Timestamp,
	}
}

func ModelsToAlertResponses(list []*models.Alert) []*AlertResponse {
	responses := make([]*AlertResponse, len(list))
	for i, a := range list {
		responses[i] = ModelToAlertResponse(a)
	}
	return responses
}

func DTOToAlertModel(req CreateAlertRequest) *models.Alert {
	return &models.Alert{
		Type:       req.Type,
		Title:      req.Title,
		Message:    req.Message,
		Severity:   req.Severity,
		EmployeeID: req.EmployeeID,
		GeofenceID: req.GeofenceID,
	}
}

// DTOToAttendanceModel без timestamp оставляет время пустым, его проставит сервис
func DTOToAttendanceModel(req AttendanceRequest) *models.AttendanceRecord {
	rec := &models.AttendanceRecord{
		EmployeeID: req.EmployeeID,
		GeofenceID: req.GeofenceID,
		Type:       req.Type,
		Location:   models.GeoPoint{Latitude: deref(req.Latitude, 0), Longitude: deref(req.Longitude, 0)},
		Notes:      req.Notes,
	}
	if req.Timestamp != nil {
		rec.Timestamp = req.Timestamp.UTC()
	}
	return rec
}

func ModelToAttendanceResponse(r *models.AttendanceRecord) *AttendanceResponse {
	return &AttendanceResponse{
		ID:         r.ID,
		EmployeeID: r.EmployeeID,
		GeofenceID: r.GeofenceID,
		Type:       r.Type,
		Latitude:   r.Location.Latitude,
		Longitude:  r.Location.Longitude,
		Notes:      r.Notes,
		Timestamp:  r.Timestamp,
	}
}

func ModelsToAttendanceResponses(list []*models.AttendanceRecord) []*AttendanceResponse {
	responses := make([]*AttendanceResponse, len(list))
	for i, r := range list {
		responses[i] = ModelToAttendanceResponse(r)
	}
	return responses
}

func deref[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}
