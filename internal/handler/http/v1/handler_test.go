package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/shenikar/geofence_monitor/internal/config"
	"github.com/shenikar/geofence_monitor/internal/geofence"
	"github.com/shenikar/geofence_monitor/internal/models"
	"github.com/shenikar/geofence_monitor/internal/service/mocks"
)

var authHeader = map[string]string{"X-API-Key": "test-api-key"}

type handlerMocks struct {
	geofences *mocks.MockGeofenceService
	monitor   *mocks.MockMonitorService
	alerts    *mocks.MockAlertService
}

// newTestHandler создает Handler с мокированными сервисами и роутер gin
func newTestHandler(t *testing.T) (*handlerMocks, *gin.Engine) {
	ctrl := gomock.NewController(t)
	m := &handlerMocks{
		geofences: mocks.NewMockGeofenceService(ctrl),
		monitor:   mocks.NewMockMonitorService(ctrl),
		alerts:    mocks.NewMockAlertService(ctrl),
	}

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах

	cfg := &config.Config{
		APIKeys:  []string{"test-api-key"},
		Location: time.UTC,
	}

	handler := NewHandler(m.geofences, m.monitor, m.alerts, logger, cfg)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	api := router.Group("/api/v1")
	handler.RegisterRoutes(api)

	return m, router
}

// makeRequest - вспомогательная функция для выполнения HTTP-запросов
func makeRequest(router *gin.Engine, method, url string, body io.Reader, headers ...map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, url, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, h := range headers {
		for key, value := range h {
			req.Header.Set(key, value)
		}
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func ptr[T any](v T) *T { return &v }

func TestHealthCheck_NoAuthRequired(t *testing.T) {
	_, router := newTestHandler(t)

	w := makeRequest(router, "GET", "/api/v1/system/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestAuth_MissingAndInvalidKey(t *testing.T) {
	_, router := newTestHandler(t)

	w := makeRequest(router, "GET", "/api/v1/geofences", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "API key required")

	w = makeRequest(router, "GET", "/api/v1/geofences", nil, map[string]string{"X-API-Key": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid API key")
}

func TestAuth_BearerToken(t *testing.T) {
	m, router := newTestHandler(t)

	m.geofences.EXPECT().ListGeofences(gomock.Any(), 1, 20).Return([]*models.Geofence{}, nil).Times(1)

	w := makeRequest(router, "GET", "/api/v1/geofences", nil, map[string]string{"Authorization": "Bearer test-api-key"})

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateGeofence_SuccessWithDefaults(t *testing.T) {
	m, router := newTestHandler(t)
	id := uuid.New()
	reqBody := CreateGeofenceRequest{
		Name:         "Mumbai Office Main",
		Type:         models.GeofenceTypeOffice,
		Latitude:     ptr(19.0760),
		Longitude:    ptr(72.8777),
		RadiusMeters: 150,
	}

	m.geofences.EXPECT().
		CreateGeofence(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, g *models.Geofence) error {
			assert.Equal(t, models.DefaultActiveWindow(), g.ActiveWindow)
			assert.True(t, g.EntryNotify)
			assert.True(t, g.ExitNotify)
			assert.False(t, g.ViolationAlert)
			assert.True(t, g.IsActive)
			g.ID = id
			return nil
		}).Times(1)

	w := makeRequest(router, "POST", "/api/v1/geofences", jsonBody(t, reqBody), authHeader)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp GeofenceResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, id, resp.ID)
	assert.Equal(t, "09:00", resp.StartTime)
	assert.Equal(t, "18:00", resp.EndTime)
	assert.Equal(t, 150.0, resp.RadiusMeters)
}

func TestCreateGeofence_OvernightWindowAndEquatorCenter(t *testing.T) {
	m, router := newTestHandler(t)
	body := `{"name":"Night Site","type":"project_site","latitude":0,"longitude":0,
		"radius_meters":50,"start_time":"22:00","end_time":"06:00","violation_alert":true}`

	m.geofences.EXPECT().
		CreateGeofence(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, g *models.Geofence) error {
			assert.Equal(t, models.MustTimeOfDay("22:00"), g.ActiveWindow.Start)
			assert.Equal(t, models.MustTimeOfDay("06:00"), g.ActiveWindow.End)
			assert.Equal(t, models.GeoPoint{}, g.Center)
			assert.True(t, g.ViolationAlert)
			return nil
		}).Times(1)

	w := makeRequest(router, "POST", "/api/v1/geofences", bytes.NewBufferString(body), authHeader)

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestCreateGeofence_InvalidJSON(t *testing.T) {
	m, router := newTestHandler(t)

	m.geofences.EXPECT().CreateGeofence(gomock.Any(), gomock.Any()).Times(0) // Сервис не должен вызываться

	w := makeRequest(router, "POST", "/api/v1/geofences", bytes.NewBufferString(`{"name": "test"`), authHeader)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid request body")
}

func TestCreateGeofence_ValidationErrors(t *testing.T) {
	cases := map[string]struct {
		body string
		tag  string
	}{
		"missing name":      {`{"type":"office_zone","latitude":1,"longitude":1,"radius_meters":10}`, "'Name' failed on the 'required' tag"},
		"unknown type":      {`{"name":"A1","type":"warehouse","latitude":1,"longitude":1,"radius_meters":10}`, "'Type' failed on the 'oneof' tag"},
		"missing latitude":  {`{"name":"A1","type":"office_zone","longitude":1,"radius_meters":10}`, "'Latitude' failed on the 'required' tag"},
		"latitude range":    {`{"name":"A1","type":"office_zone","latitude":91,"longitude":1,"radius_meters":10}`, "'Latitude' failed on the 'latitude' tag"},
		"negative radius":   {`{"name":"A1","type":"office_zone","latitude":1,"longitude":1,"radius_meters":-5}`, "'RadiusMeters' failed on the 'gt' tag"},
		"malformed window":  {`{"name":"A1","type":"office_zone","latitude":1,"longitude":1,"radius_meters":10,"start_time":"25:00"}`, "'StartTime' failed on the 'datetime' tag"},
		"window with words": {`{"name":"A1","type":"office_zone","latitude":1,"longitude":1,"radius_meters":10,"end_time":"noon"}`, "'EndTime' failed on the 'datetime' tag"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			m, router := newTestHandler(t)
			m.geofences.EXPECT().CreateGeofence(gomock.Any(), gomock.Any()).Times(0)

			w := makeRequest(router, "POST", "/api/v1/geofences", bytes.NewBufferString(tc.body), authHeader)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), tc.tag)
		})
	}
}

func TestCreateGeofence_ServiceErrors(t *testing.T) {
	cases := map[string]struct {
		err    error
		status int
	}{
		"invalid input": {fmt.Errorf("%w: geofence radius must be positive", geofence.ErrInvalidInput), http.StatusBadRequest},
		"internal":      {errors.New("db down"), http.StatusInternalServerError},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			m, router := newTestHandler(t)
			reqBody := CreateGeofenceRequest{
				Name: "Site", Type: models.GeofenceTypeProject,
				Latitude: ptr(10.0), Longitude: ptr(20.0), RadiusMeters: 100,
			}
			m.geofences.EXPECT().CreateGeofence(gomock.Any(), gomock.Any()).Return(tc.err).Times(1)

			w := makeRequest(router, "POST", "/api/v1/geofences", jsonBody(t, reqBody), authHeader)

			assert.Equal(t, tc.status, w.Code)
		})
	}
}

func TestGetGeofence(t *testing.T) {
	m, router := newTestHandler(t)
	id := uuid.New()
	expected := &models.Geofence{
		ID:           id,
		Name:         "Client HQ",
		Type:         models.GeofenceTypeClient,
		Center:       models.GeoPoint{Latitude: 30, Longitude: 40},
		RadiusMeters: 200,
		ActiveWindow: models.DefaultActiveWindow(),
		IsActive:     true,
	}

	m.geofences.EXPECT().GetGeofence(gomock.Any(), id).Return(expected, nil).Times(1)

	w := makeRequest(router, "GET", fmt.Sprintf("/api/v1/geofences/%s", id), nil, authHeader)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp GeofenceResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, id, resp.ID)
	assert.Equal(t, 30.0, resp.Latitude)
}

func TestGetGeofence_InvalidID(t *testing.T) {
	m, router := newTestHandler(t)

	m.geofences.EXPECT().GetGeofence(gomock.Any(), gomock.Any()).Times(0)

	w := makeRequest(router, "GET", "/api/v1/geofences/invalid-uuid", nil, authHeader)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid geofence ID")
}

func TestGetGeofence_NotFound(t *testing.T) {
	m, router := newTestHandler(t)
	id := uuid.New()

	m.geofences.EXPECT().GetGeofence(gomock.Any(), id).
		Return(nil, fmt.Errorf("service: could not get geofence: %w", models.ErrNotFound)).Times(1)

	w := makeRequest(router, "GET", "/api/v1/geofences/"+id.String(), nil, authHeader)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "geofence not found")
}

func TestUpdateGeofence(t *testing.T) {
	m, router := newTestHandler(t)
	id := uuid.New()
	body := `{"name":"Site B","type":"restricted_area","latitude":12.5,"longitude":77.1,"radius_meters":80,"is_active":false}`

	m.geofences.EXPECT().
		UpdateGeofence(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, g *models.Geofence) error {
			assert.Equal(t, id, g.ID)
			assert.Equal(t, models.GeofenceTypeRestricted, g.Type)
			assert.False(t, g.IsActive)
			return nil
		}).Times(1)

	w := makeRequest(router, "PUT", "/api/v1/geofences/"+id.String(), bytes.NewBufferString(body), authHeader)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp GeofenceResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Site B", resp.Name)
	assert.False(t, resp.IsActive)
}

func TestDeleteGeofence_SoftByDefault(t *testing.T) {
	m, router := newTestHandler(t)
	id := uuid.New()

	m.geofences.EXPECT().DeactivateGeofence(gomock.Any(), id).Return(nil).Times(1)
	m.geofences.EXPECT().DeleteGeofence(gomock.Any(), gomock.Any()).Times(0)

	w := makeRequest(router, "DELETE", "/api/v1/geofences/"+id.String(), nil, authHeader)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestDeleteGeofence_Hard(t *testing.T) {
	m, router := newTestHandler(t)
	id := uuid.New()

	m.geofences.EXPECT().DeleteGeofence(gomock.Any(), id).Return(models.ErrNotFound).Times(1)

	w := makeRequest(router, "DELETE", "/api/v1/geofences/"+id.String()+"?hard=true", nil, authHeader)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListActiveGeofences(t *testing.T) {
	m, router := newTestHandler(t)
	active := []*models.Geofence{{ID: uuid.New(), Name: "A", IsActive: true}}

	m.geofences.EXPECT().ListActive(gomock.Any()).Return(active, nil).Times(1)

	w := makeRequest(router, "GET", "/api/v1/geofences/active", nil, authHeader)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp []GeofenceResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp, 1)
}

func TestListActiveGeofences_Region(t *testing.T) {
	m, router := newTestHandler(t)

	m.geofences.EXPECT().
		ListActiveInRegion(gomock.Any(), models.GeoPoint{Latitude: 19.07, Longitude: 72.87}, 5000.0).
		Return([]*models.Geofence{}, nil).Times(1)

	w := makeRequest(router, "GET", "/api/v1/geofences/active?lat=19.07&lng=72.87&radius=5000", nil, authHeader)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestListActiveGeofences_BadRegion(t *testing.T) {
	m, router := newTestHandler(t)

	w := makeRequest(router, "GET", "/api/v1/geofences/active?lat=abc&lng=1", nil, authHeader)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	m.geofences.EXPECT().
		ListActiveInRegion(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, fmt.Errorf("%w: region center out of range", geofence.ErrInvalidInput)).Times(1)

	w = makeRequest(router, "GET", "/api/v1/geofences/active?lat=95&lng=1", nil, authHeader)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProcessLocation_Success(t *testing.T) {
	m, router := newTestHandler(t)
	geofenceID := uuid.New()
	observedAt := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	body := `{"employee_id":"EMP001","latitude":19.076,"longitude":72.8777,"timestamp":"2025-03-10T10:00:00Z"}`

	m.monitor.EXPECT().
		ProcessSample(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, s models.LocationSample) (*models.SampleResult, error) {
			assert.Equal(t, "EMP001", s.SubjectID)
			assert.True(t, observedAt.Equal(s.ObservedAt))
			return &models.SampleResult{
				States: map[uuid.UUID]models.MembershipState{
					geofenceID: {SubjectID: "EMP001", GeofenceID: geofenceID, IsInside: true, AsOf: observedAt},
				},
				Events: []models.ViolationEvent{
					{SubjectID: "EMP001", GeofenceID: geofenceID, Kind: models.EventEntry, OccurredAt: observedAt, Sample: s},
				},
			}, nil
		}).Times(1)

	w := makeRequest(router, "POST", "/api/v1/locations", bytes.NewBufferString(body), authHeader)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp LocationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.States, 1)
	assert.True(t, resp.States[0].IsInside)
	require.Len(t, resp.Events, 1)
	assert.Equal(t, models.EventEntry, resp.Events[0].Kind)
	assert.Equal(t, 19.076, resp.Events[0].Latitude)
}

func TestProcessLocation_DefaultsTimestampToNow(t *testing.T) {
	m, router := newTestHandler(t)
	before := time.Now()

	m.monitor.EXPECT().
		ProcessSample(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, s models.LocationSample) (*models.SampleResult, error) {
			assert.False(t, s.ObservedAt.Before(before))
			return &models.SampleResult{}, nil
		}).Times(1)

	w := makeRequest(router, "POST", "/api/v1/locations",
		bytes.NewBufferString(`{"employee_id":"EMP001","latitude":0,"longitude":0}`), authHeader)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProcessLocation_ValidationError(t *testing.T) {
	m, router := newTestHandler(t)
	m.monitor.EXPECT().ProcessSample(gomock.Any(), gomock.Any()).Times(0)

	w := makeRequest(router, "POST", "/api/v1/locations",
		bytes.NewBufferString(`{"employee_id":"EMP001","latitude":100,"longitude":0}`), authHeader)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "'Latitude' failed on the 'latitude' tag")
}

func TestProcessLocation_ServiceErrors(t *testing.T) {
	m, router := newTestHandler(t)
	body := `{"employee_id":"EMP001","latitude":1,"longitude":1}`

	gomock.InOrder(
		m.monitor.EXPECT().ProcessSample(gomock.Any(), gomock.Any()).
			Return(nil, fmt.Errorf("%w: subject id is required", geofence.ErrInvalidInput)),
		m.monitor.EXPECT().ProcessSample(gomock.Any(), gomock.Any()).
			Return(nil, errors.New("redis down")),
	)

	w := makeRequest(router, "POST", "/api/v1/locations", bytes.NewBufferString(body), authHeader)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = makeRequest(router, "POST", "/api/v1/locations", bytes.NewBufferString(body), authHeader)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal server error")
}

func TestProcessLocationBatch(t *testing.T) {
	m, router := newTestHandler(t)
	body := `{"locations":[
		{"employee_id":"EMP001","latitude":1,"longitude":1,"timestamp":"2025-03-10T10:05:00Z"},
		{"employee_id":"EMP001","latitude":1,"longitude":1,"timestamp":"2025-03-10T10:00:00Z"}
	]}`

	m.monitor.EXPECT().
		ProcessBatch(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, samples []models.LocationSample) (*models.BatchResult, error) {
			require.Len(t, samples, 2)
			return &models.BatchResult{
				Processed: 1,
				Events:    []models.ViolationEvent{},
				Failures:  []models.SampleFailure{{SubjectID: "EMP001", ObservedAt: samples[1].ObservedAt, Error: "invalid input"}},
			}, nil
		}).Times(1)

	w := makeRequest(router, "POST", "/api/v1/locations/batch", bytes.NewBufferString(body), authHeader)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp BatchLocationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Processed)
	require.Len(t, resp.Failures, 1)
	assert.Equal(t, "EMP001", resp.Failures[0].EmployeeID)
}

func TestProcessLocationBatch_Empty(t *testing.T) {
	m, router := newTestHandler(t)
	m.monitor.EXPECT().ProcessBatch(gomock.Any(), gomock.Any()).Times(0)

	w := makeRequest(router, "POST", "/api/v1/locations/batch", bytes.NewBufferString(`{"locations":[]}`), authHeader)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListAlerts(t *testing.T) {
	m, router := newTestHandler(t)
	alerts := []*models.Alert{{ID: uuid.New(), Type: models.AlertTypeUnauthorizedExit, Severity: models.SeverityWarning}}

	m.alerts.EXPECT().
		ListAlerts(gomock.Any(), gomock.Any(), 2, 5).
		DoAndReturn(func(_ context.Context, isRead *bool, _, _ int) ([]*models.Alert, error) {
			require.NotNil(t, isRead)
			assert.False(t, *isRead)
			return alerts, nil
		}).Times(1)

	w := makeRequest(router, "GET", "/api/v1/alerts?isRead=false&page=2&pageSize=5", nil, authHeader)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp []AlertResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, models.AlertTypeUnauthorizedExit, resp[0].Type)
}

func TestListAlerts_NoFilterAndBadFilter(t *testing.T) {
	m, router := newTestHandler(t)

	m.alerts.EXPECT().
		ListAlerts(gomock.Any(), (*bool)(nil), 1, 20).
		Return([]*models.Alert{}, nil).Times(1)

	w := makeRequest(router, "GET", "/api/v1/alerts", nil, authHeader)
	assert.Equal(t, http.StatusOK, w.Code)

	w = makeRequest(router, "GET", "/api/v1/alerts?isRead=maybe", nil, authHeader)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMarkAlertRead(t *testing.T) {
	m, router := newTestHandler(t)
	id := uuid.New()
	missing := uuid.New()

	m.alerts.EXPECT().MarkAlertRead(gomock.Any(), id).Return(nil).Times(1)
	m.alerts.EXPECT().MarkAlertRead(gomock.Any(), missing).Return(models.ErrNotFound).Times(1)

	w := makeRequest(router, "PATCH", "/api/v1/alerts/"+id.String()+"/read", nil, authHeader)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = makeRequest(router, "PATCH", "/api/v1/alerts/"+missing.String()+"/read", nil, authHeader)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "alert not found")
}

func TestListAttendance(t *testing.T) {
	m, router := newTestHandler(t)

	m.monitor.EXPECT().
		ListAttendance(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, f models.AttendanceFilter) ([]*models.AttendanceRecord, error) {
			assert.Equal(t, "EMP001", f.EmployeeID)
			require.NotNil(t, f.Date)
			assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), *f.Date)
			return []*models.AttendanceRecord{{EmployeeID: "EMP001", Type: models.AttendanceEntry}}, nil
		}).Times(1)

	w := makeRequest(router, "GET", "/api/v1/attendance?employeeId=EMP001&date=2025-03-10", nil, authHeader)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp []AttendanceResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, models.AttendanceEntry, resp[0].Type)
}

func TestListAttendance_BadDate(t *testing.T) {
	m, router := newTestHandler(t)
	m.monitor.EXPECT().ListAttendance(gomock.Any(), gomock.Any()).Times(0)

	w := makeRequest(router, "GET", "/api/v1/attendance?date=10-03-2025", nil, authHeader)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateAlert(t *testing.T) {
	m, router := newTestHandler(t)
	id := uuid.New()

	m.alerts.EXPECT().
		CreateAlert(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, a *models.Alert) error {
			assert.Equal(t, "maintenance", a.Type)
			assert.Empty(t, a.Severity)
			a.ID = id
			a.Severity = models.SeverityInfo
			return nil
		}).Times(1)

	body := map[string]any{"type": "maintenance", "title": "Gate closed", "message": "North gate closed until 14:00"}
	w := makeRequest(router, "POST", "/api/v1/alerts", jsonBody(t, body), authHeader)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp AlertResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, id, resp.ID)
	assert.Equal(t, models.SeverityInfo, resp.Severity)
}

func TestCreateAlert_BadSeverity(t *testing.T) {
	m, router := newTestHandler(t)
	m.alerts.EXPECT().CreateAlert(gomock.Any(), gomock.Any()).Times(0)

	body := map[string]any{"type": "maintenance", "title": "t", "message": "m", "severity": "fatal"}
	w := makeRequest(router, "POST", "/api/v1/alerts", jsonBody(t, body), authHeader)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateAttendance_CheckIn(t *testing.T) {
	m, router := newTestHandler(t)
	zoneID := uuid.New()
	recordID := uuid.New()
	at := time.Date(2025, 3, 10, 9, 2, 0, 0, time.UTC)

	m.monitor.EXPECT().
		RecordAttendance(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, r *models.AttendanceRecord) error {
			assert.Equal(t, "EMP001", r.EmployeeID)
			require.NotNil(t, r.GeofenceID)
			assert.Equal(t, zoneID, *r.GeofenceID)
			assert.Equal(t, models.AttendanceCheckIn, r.Type)
			assert.Equal(t, models.GeoPoint{Latitude: 28.6139, Longitude: 77.209}, r.Location)
			assert.Equal(t, "late bus", r.Notes)
			assert.Equal(t, at, r.Timestamp)
			r.ID = recordID
			return nil
		}).Times(1)

	body := map[string]any{
		"employee_id": "EMP001",
		"geofence_id": zoneID,
		"type":        "check_in",
		"latitude":    28.6139,
		"longitude":   77.209,
		"notes":       "late bus",
		"timestamp":   at,
	}
	w := makeRequest(router, "POST", "/api/v1/attendance", jsonBody(t, body), authHeader)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp AttendanceResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, recordID, resp.ID)
	assert.Equal(t, models.AttendanceCheckIn, resp.Type)
	assert.Equal(t, "late bus", resp.Notes)
}

func TestCreateAttendance_WithoutGeofenceLeavesTimestampToService(t *testing.T) {
	m, router := newTestHandler(t)

	m.monitor.EXPECT().
		RecordAttendance(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, r *models.AttendanceRecord) error {
			assert.Nil(t, r.GeofenceID)
			assert.True(t, r.Timestamp.IsZero())
			return nil
		}).Times(1)

	body := map[string]any{"employee_id": "EMP001", "type": "check_out", "latitude": 0.0, "longitude": 0.0}
	w := makeRequest(router, "POST", "/api/v1/attendance", jsonBody(t, body), authHeader)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.NotContains(t, w.Body.String(), "geofence_id")
}

func TestCreateAttendance_ValidationErrors(t *testing.T) {
	cases := []struct {
		name string
		body map[string]any
	}{
		{name: "unknown type", body: map[string]any{"employee_id": "EMP001", "type": "lunch", "latitude": 1.0, "longitude": 1.0}},
		{name: "missing employee", body: map[string]any{"type": "check_in", "latitude": 1.0, "longitude": 1.0}},
		{name: "missing latitude", body: map[string]any{"employee_id": "EMP001", "type": "check_in", "longitude": 1.0}},
		{name: "latitude out of range", body: map[string]any{"employee_id": "EMP001", "type": "check_in", "latitude": 91.0, "longitude": 1.0}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m, router := newTestHandler(t)
			m.monitor.EXPECT().RecordAttendance(gomock.Any(), gomock.Any()).Times(0)

			w := makeRequest(router, "POST", "/api/v1/attendance", jsonBody(t, tc.body), authHeader)

			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestCreateAttendance_ServiceErrors(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{err: models.ErrNotFound, code: http.StatusNotFound},
		{err: fmt.Errorf("%w: bad", geofence.ErrInvalidInput), code: http.StatusBadRequest},
		{err: errors.New("db down"), code: http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(http.StatusText(tc.code), func(t *testing.T) {
			m, router := newTestHandler(t)
			m.monitor.EXPECT().RecordAttendance(gomock.Any(), gomock.Any()).Return(tc.err).Times(1)

			body := map[string]any{"employee_id": "EMP001", "geofence_id": uuid.New(), "type": "check_in", "latitude": 1.0, "longitude": 1.0}
			w := makeRequest(router, "POST", "/api/v1/attendance", jsonBody(t, body), authHeader)

			assert.Equal(t, tc.code, w.Code)
		})
	}
}

func TestRaiseSOS(t *testing.T) {
	m, router := newTestHandler(t)
	alertID := uuid.New()

	m.alerts.EXPECT().
		RaiseSOS(gomock.Any(), "EMP001", models.GeoPoint{Latitude: 19.076, Longitude: 72.8777}, "").
		Return(&models.Alert{ID: alertID, Type: models.AlertTypeSOS}, nil).Times(1)

	body := map[string]any{"employee_id": "EMP001", "latitude": 19.076, "longitude": 72.8777}
	w := makeRequest(router, "POST", "/api/v1/emergency/sos", jsonBody(t, body), authHeader)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, fmt.Sprintf(`{"success":true,"alert_id":%q}`, alertID), w.Body.String())
}

func TestRaiseSOS_Errors(t *testing.T) {
	m, router := newTestHandler(t)

	m.alerts.EXPECT().
		RaiseSOS(gomock.Any(), "EMP001", gomock.Any(), "help").
		Return(nil, errors.New("db down")).Times(1)

	w := makeRequest(router, "POST", "/api/v1/emergency/sos", jsonBody(t, map[string]any{"latitude": 1.0, "longitude": 1.0}), authHeader)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body := map[string]any{"employee_id": "EMP001", "latitude": 1.0, "longitude": 1.0, "message": "help"}
	w = makeRequest(router, "POST", "/api/v1/emergency/sos", jsonBody(t, body), authHeader)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	w = makeRequest(router, "POST", "/api/v1/emergency/sos", jsonBody(t, body))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestShareLocation(t *testing.T) {
	m, router := newTestHandler(t)
	alertID := uuid.New()

	m.alerts.EXPECT().
		ShareLocation(gomock.Any(), "EMP001", models.GeoPoint{Latitude: 12.9716, Longitude: 77.5946}, "MG Road").
		Return(&models.Alert{ID: alertID, Type: models.AlertTypeLocationShared}, nil).Times(1)

	body := map[string]any{"employee_id": "EMP001", "latitude": 12.9716, "longitude": 77.5946, "address": "MG Road"}
	w := makeRequest(router, "POST", "/api/v1/emergency/share-location", jsonBody(t, body), authHeader)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp EmergencyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, alertID, resp.AlertID)
}

func TestShareLocation_ValidationError(t *testing.T) {
	m, router := newTestHandler(t)
	m.alerts.EXPECT().ShareLocation(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	body := map[string]any{"employee_id": "EMP001", "latitude": 1.0, "longitude": 181.0}
	w := makeRequest(router, "POST", "/api/v1/emergency/share-location", jsonBody(t, body), authHeader)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetStats(t *testing.T) {
	m, router := newTestHandler(t)

	m.monitor.EXPECT().GetStats(gomock.Any()).Return(&models.Stats{ActiveSubjects: 7, UnreadAlerts: 2}, nil).Times(1)

	w := makeRequest(router, "GET", "/api/v1/stats", nil, authHeader)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"active_employees":7,"unread_alerts":2}`, w.Body.String())
}

func TestGetStats_ServiceError(t *testing.T) {
	m, router := newTestHandler(t)

	m.monitor.EXPECT().GetStats(gomock.Any()).Return(nil, errors.New("db down")).Times(1)

	w := makeRequest(router, "GET", "/api/v1/stats", nil, authHeader)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
