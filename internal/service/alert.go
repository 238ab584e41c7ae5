package service

//go:generate mockgen -source=alert.go -destination=mocks/mock_alert.go -package=mocks

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/shenikar/geofence_monitor/internal/geofence"
	"github.com/shenikar/geofence_monitor/internal/metrics"
	"github.com/shenikar/geofence_monitor/internal/models"
)

// AlertRepository определяет контракт хранилища оповещений
type AlertRepository interface {
	Create(ctx context.Context, alert *models.Alert) error
	List(ctx context.Context, isRead *bool, page, pageSize int) ([]*models.Alert, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
	CountUnread(ctx context.Context) (int, error)
}

// AlertService определяет контракт работы с оповещениями
type AlertService interface {
	CreateAlert(ctx context.Context, alert *models.Alert) error
	ListAlerts(ctx context.Context, isRead *bool, page, pageSize int) ([]*models.Alert, error)
	MarkAlertRead(ctx context.Context, id uuid.UUID) error
	RaiseSOS(ctx context.Context, employeeID string, point models.GeoPoint, message string) (*models.Alert, error)
	ShareLocation(ctx context.Context, employeeID string, point models.GeoPoint, address string) (*models.Alert, error)
}

type alertService struct {
	repo       AlertRepository
	publishers []EventPublisher
	logger     *logrus.Logger
	metrics    *metrics.Metrics
	now        func() time.Time
}

func NewAlertService(repo AlertRepository, publishers []EventPublisher, logger *logrus.Logger, m *metrics.Metrics) AlertService {
	return &alertService{
		repo:       repo,
		publishers: publishers,
		logger:     logger,
		metrics:    m,
		now:        time.Now,
	}
}

// CreateAlert сохраняет оповещение; пустая важность заменяется на info
func (s *alertService) CreateAlert(ctx context.Context, alert *models.Alert) error {
	log := s.logger.WithFields(logrus.Fields{
		"service": "alert",
		"method":  "CreateAlert",
		"type":    alert.Type,
	})

	if alert.Severity == "" {
		alert.Severity = models.SeverityInfo
	}
	if err := validateAlert(alert); err != nil {
		log.WithError(err).Warn("Alert rejected")
		return err
	}

	if err := s.repo.Create(ctx, alert); err != nil {
		log.WithError(err).Error("Failed to create alert in repository")
		return fmt.Errorf("service: could not create alert: %w", err)
	}
	log.WithField("alert_id", alert.ID).Info("Alert created")
	return nil
}

// ListAlerts возвращает оповещения с пагинацией, isRead == nil - все
func (s *alertService) ListAlerts(ctx context.Context, isRead *bool, page, pageSize int) ([]*models.Alert, error) {
	if page < 1 {
		page = 1
	}

	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	log := s.logger.WithFields(logrus.Fields{
		"service":   "alert",
		"method":    "ListAlerts",
		"page":      page,
		"page_size": pageSize,
	})

	alerts, err := s.repo.List(ctx, isRead, page, pageSize)
	if err != nil {
		log.WithError(err).Error("Failed to list alerts from repository")
		return nil, fmt.Errorf("service: could not list alerts: %w", err)
	}
	return alerts, nil
}

// MarkAlertRead помечает оповещение прочитанным
func (s *alertService) MarkAlertRead(ctx context.Context, id uuid.UUID) error {
	log := s.logger.WithFields(logrus.Fields{
		"service":  "alert",
		"method":   "MarkAlertRead",
		"alert_id": id,
	})

	if err := s.repo.MarkRead(ctx, id); err != nil {
		log.WithError(err).Warn("Failed to mark alert as read")
		return fmt.Errorf("service: could not mark alert as read: %w", err)
	}
	log.Info("Alert marked as read")
	return nil
}

// RaiseSOS сохраняет экстренное оповещение и рассылает его всем получателям событий
func (s *alertService) RaiseSOS(ctx context.Context, employeeID string, point models.GeoPoint, message string) (*models.Alert, error) {
	if message == "" {
		message = fmt.Sprintf("Emergency SOS activated at %.6f, %.6f", point.Latitude, point.Longitude)
	}
	alert := &models.Alert{
		Type:       models.AlertTypeSOS,
		Title:      "SOS Alert",
		Message:    message,
		Severity:   models.SeverityError,
		EmployeeID: employeeID,
	}
	return s.raiseEmergency(ctx, "RaiseSOS", alert, models.EventSOS, point)
}

// ShareLocation фиксирует, что сотрудник поделился местоположением
func (s *alertService) ShareLocation(ctx context.Context, employeeID string, point models.GeoPoint, address string) (*models.Alert, error) {
	if address == "" {
		address = "Current location"
	}
	alert := &models.Alert{
		Type:       models.AlertTypeLocationShared,
		Title:      "Location Shared",
		Message:    "Location shared: " + address,
		Severity:   models.SeverityInfo,
		EmployeeID: employeeID,
	}
	return s.raiseEmergency(ctx, "ShareLocation", alert, models.EventLocationShared, point)
}

// raiseEmergency: запись оповещения обязательна, ошибки получателей только логируются
func (s *alertService) raiseEmergency(
	ctx context.Context,
	method string,
	alert *models.Alert,
	kind models.EventKind,
	point models.GeoPoint,
) (*models.Alert, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "alert",
		"method":      method,
		"employee_id": alert.EmployeeID,
	})

	if alert.EmployeeID == "" {
		return nil, fmt.Errorf("%w: employee id is required", geofence.ErrInvalidInput)
	}
	if !point.Valid() {
		return nil, fmt.Errorf("%w: coordinates (%v, %v) out of range",
			geofence.ErrInvalidInput, point.Latitude, point.Longitude)
	}

	now := s.now().UTC()
	alert.Timestamp = now
	if err := s.repo.Create(ctx, alert); err != nil {
		log.WithError(err).Error("Failed to store emergency alert")
		return nil, fmt.Errorf("service: could not store emergency alert: %w", err)
	}

	event := models.ViolationEvent{
		SubjectID:  alert.EmployeeID,
		Kind:       kind,
		OccurredAt: now,
		Sample: models.LocationSample{
			SubjectID:  alert.EmployeeID,
			Point:      point,
			ObservedAt: now,
		},
	}
	if s.metrics != nil {
		s.metrics.IncrementEvents(string(kind))
	}
	for _, p := range s.publishers {
		if err := p.Publish(ctx, event); err != nil {
			if s.metrics != nil {
				s.metrics.IncrementSinkFailures(p.Name())
			}
			log.WithError(err).WithField("sink", p.Name()).Error("Alert sink rejected event")
		}
	}

	log.WithField("alert_id", alert.ID).Warn("Emergency alert raised")
	return alert, nil
}

func validateAlert(a *models.Alert) error {
	if a.Type == "" {
		return fmt.Errorf("%w: alert type is required", geofence.ErrInvalidInput)
	}
	if a.Title == "" || a.Message == "" {
		return fmt.Errorf("%w: alert title and message are required", geofence.ErrInvalidInput)
	}
	switch a.Severity {
	case models.SeverityInfo, models.SeveritySuccess, models.SeverityWarning, models.SeverityError:
		return nil
	}
	return fmt.Errorf("%w: unknown severity %q", geofence.ErrInvalidInput, a.Severity)
}
