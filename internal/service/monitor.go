package service

//go:generate mockgen -source=monitor.go -destination=mocks/mock_monitor.go -package=mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/shenikar/geofence_monitor/internal/geofence"
	"github.com/shenikar/geofence_monitor/internal/metrics"
	"github.com/shenikar/geofence_monitor/internal/models"
)

// StateStore хранит последнее состояние принадлежности по ключу (сотрудник, геозона)
type StateStore interface {
	Load(ctx context.Context, subjectID string) (map[uuid.UUID]models.MembershipState, error)
	Save(ctx context.Context, subjectID string, states map[uuid.UUID]models.MembershipState) error
	// Forget удаляет состояния всех сотрудников по геозоне и возвращает число затронутых сотрудников
	Forget(ctx context.Context, geofenceID uuid.UUID) (int, error)
}

// LocationRepository - журнал наблюдений местоположения
type LocationRepository interface {
	SaveSample(ctx context.Context, sample *models.LocationSample) error
	CountActiveSubjects(ctx context.Context, minutes int) (int, error)
}

// AttendanceRepository - отметки входа и выхода
type AttendanceRepository interface {
	Create(ctx context.Context, record *models.AttendanceRecord) error
	List(ctx context.Context, filter models.AttendanceFilter) ([]*models.AttendanceRecord, error)
}

// EventPublisher - внешний получатель событий (вебхуки, брокер сообщений)
type EventPublisher interface {
	Name() string
	Publish(ctx context.Context, event models.ViolationEvent) error
}

// MonitorService определяет контракт обработки потока местоположений
type MonitorService interface {
	ProcessSample(ctx context.Context, sample models.LocationSample) (*models.SampleResult, error)
	ProcessBatch(ctx context.Context, samples []models.LocationSample) (*models.BatchResult, error)
	ListAttendance(ctx context.Context, filter models.AttendanceFilter) ([]*models.AttendanceRecord, error)
	RecordAttendance(ctx context.Context, record *models.AttendanceRecord) error
	GetStats(ctx context.Context) (*models.Stats, error)
}

// MonitorConfig - параметры MonitorService
type MonitorConfig struct {
	Location               *time.Location
	Parallelism            int
	StatsTimeWindowMinutes int
}

type monitorService struct {
	geofences  GeofenceService
	states     StateStore
	locations  LocationRepository
	alerts     AlertRepository
	attendance AttendanceRepository
	publishers []EventPublisher
	evaluator  *geofence.Evaluator
	locks      *subjectLocks
	cfg        MonitorConfig
	logger     *logrus.Logger
	metrics    *metrics.Metrics
}

func NewMonitorService(
	geofences GeofenceService,
	states StateStore,
	locations LocationRepository,
	alerts AlertRepository,
	attendance AttendanceRepository,
	publishers []EventPublisher,
	cfg MonitorConfig,
	logger *logrus.Logger,
	m *metrics.Metrics,
) MonitorService {
	if cfg.Parallelism < 1 {
		cfg.Parallelism = 1
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &monitorService{
		geofences:  geofences,
		states:     states,
		locations:  locations,
		alerts:     alerts,
		attendance: attendance,
		publishers: publishers,
		evaluator:  geofence.NewEvaluator(cfg.Location, logger, m),
		locks:      newSubjectLocks(),
		cfg:        cfg,
		logger:     logger,
		metrics:    m,
	}
}

// ProcessSample прогоняет одно наблюдение через цикл чтение состояния - вычисление - запись.
// Цикл сериализован по сотруднику; разные сотрудники обрабатываются параллельно.
func (s *monitorService) ProcessSample(ctx context.Context, sample models.LocationSample) (*models.SampleResult, error) {
	start := time.Now()
	log := s.logger.WithFields(logrus.Fields{
		"service":     "monitor",
		"method":      "ProcessSample",
		"subject_id":  sample.SubjectID,
		"observed_at": sample.ObservedAt,
	})

	if err := geofence.ValidateSample(sample); err != nil {
		log.WithError(err).Warn("Location sample rejected")
		return nil, err
	}

	unlock := s.locks.lock(sample.SubjectID)
	defer unlock()

	catalog, err := s.geofences.ListActive(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to load geofence catalog")
		return nil, fmt.Errorf("service: could not load geofences: %w", err)
	}

	prior, err := s.states.Load(ctx, sample.SubjectID)
	if err != nil {
		log.WithError(err).Error("Failed to load membership states")
		return nil, fmt.Errorf("service: could not load membership states: %w", err)
	}

	fresh, skipped := dropStale(catalog, prior, sample.ObservedAt)
	for _, id := range skipped {
		if s.metrics != nil {
			s.metrics.IncrementStale()
		}
		log.WithField("geofence_id", id).Warn("Stored state is newer than the sample, skipping pair")
	}

	prior = sinceActivation(fresh, prior)

	states, events, err := s.evaluator.Evaluate(sample, fresh, prior)
	if err != nil {
		log.WithError(err).Warn("Evaluation rejected the sample")
		return nil, err
	}

	if err := s.locations.SaveSample(ctx, &sample); err != nil {
		if s.metrics != nil {
			s.metrics.IncrementSinkFailures("location_samples")
		}
		log.WithError(err).Warn("Failed to persist location sample")
	}

	// состояние сохраняется до доставки событий: при ошибке записи событие не уходит и будет вычислено повторно
	if err := s.states.Save(ctx, sample.SubjectID, states); err != nil {
		log.WithError(err).Error("Failed to save membership states")
		return nil, fmt.Errorf("service: could not save membership states: %w", err)
	}

	names := make(map[uuid.UUID]string, len(fresh))
	for _, g := range fresh {
		names[g.ID] = g.Name
	}
	for _, event := range events {
		s.deliver(ctx, event, names[event.GeofenceID], log)
	}

	if s.metrics != nil {
		s.metrics.IncrementSamples()
		s.metrics.ObserveSampleDuration(time.Since(start))
	}
	log.WithFields(logrus.Fields{
		"geofences": len(fresh),
		"events":    len(events),
	}).Debug("Location sample processed")

	return &models.SampleResult{States: states, Events: events, Skipped: skipped}, nil
}

// ProcessBatch группирует наблюдения по сотрудникам, упорядочивает их по времени
// и обрабатывает группы параллельно. Ошибка одного наблюдения не прерывает остальные.
func (s *monitorService) ProcessBatch(ctx context.Context, samples []models.LocationSample) (*models.BatchResult, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "monitor",
		"method":  "ProcessBatch",
		"size":    len(samples),
	})

	groups := make(map[string][]models.LocationSample)
	order := make([]string, 0)
	for _, sample := range samples {
		if _, ok := groups[sample.SubjectID]; !ok {
			order = append(order, sample.SubjectID)
		}
		groups[sample.SubjectID] = append(groups[sample.SubjectID], sample)
	}

	var (
		mu     sync.Mutex
		result = &models.BatchResult{Events: make([]models.ViolationEvent, 0)}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Parallelism)

	for _, subjectID := range order {
		group := groups[subjectID]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].ObservedAt.Before(group[j].ObservedAt)
		})

		g.Go(func() error {
			for _, sample := range group {
				if err := gctx.Err(); err != nil {
					return err
				}
				res, err := s.ProcessSample(gctx, sample)

				mu.Lock()
				if err != nil {
					result.Failures = append(result.Failures, models.SampleFailure{
						SubjectID:  sample.SubjectID,
						ObservedAt: sample.ObservedAt,
						Error:      err.Error(),
					})
				} else {
					result.Processed++
					result.Events = append(result.Events, res.Events...)
				}
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.WithError(err).Warn("Batch processing interrupted")
		return result, fmt.Errorf("service: batch interrupted: %w", err)
	}

	log.WithFields(logrus.Fields{
		"processed": result.Processed,
		"failed":    len(result.Failures),
		"events":    len(result.Events),
	}).Info("Location batch processed")
	return result, nil
}

// ListAttendance возвращает отметки входа/выхода
func (s *monitorService) ListAttendance(ctx context.Context, filter models.AttendanceFilter) ([]*models.AttendanceRecord, error) {
	records, err := s.attendance.List(ctx, filter)
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"service": "monitor",
			"method":  "ListAttendance",
		}).WithError(err).Error("Failed to list attendance records")
		return nil, fmt.Errorf("service: could not list attendance: %w", err)
	}
	return records, nil
}

// RecordAttendance сохраняет ручную отметку. Геозона необязательна, но если указана - должна существовать.
// Отметка без времени получает текущее.
func (s *monitorService) RecordAttendance(ctx context.Context, record *models.AttendanceRecord) error {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "monitor",
		"method":      "RecordAttendance",
		"employee_id": record.EmployeeID,
		"type":        record.Type,
	})

	if record.EmployeeID == "" {
		return fmt.Errorf("%w: employee id is required", geofence.ErrInvalidInput)
	}
	if !models.ValidAttendanceType(record.Type) {
		return fmt.Errorf("%w: unknown attendance type %q", geofence.ErrInvalidInput, record.Type)
	}
	if !record.Location.Valid() {
		return fmt.Errorf("%w: coordinates (%v, %v) out of range",
			geofence.ErrInvalidInput, record.Location.Latitude, record.Location.Longitude)
	}
	if record.GeofenceID != nil {
		if _, err := s.geofences.GetGeofence(ctx, *record.GeofenceID); err != nil {
			log.WithError(err).Warn("Attendance references unknown geofence")
			return err
		}
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now().UTC()
	}

	if err := s.attendance.Create(ctx, record); err != nil {
		log.WithError(err).Error("Failed to create attendance record")
		return fmt.Errorf("service: could not record attendance: %w", err)
	}
	log.WithField("record_id", record.ID).Info("Attendance recorded")
	return nil
}

// GetStats возвращает число активных сотрудников за окно статистики и непрочитанные оповещения
func (s *monitorService) GetStats(ctx context.Context) (*models.Stats, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "monitor",
		"method":  "GetStats",
	})

	active, err := s.locations.CountActiveSubjects(ctx, s.cfg.StatsTimeWindowMinutes)
	if err != nil {
		log.WithError(err).Error("Failed to count active subjects")
		return nil, fmt.Errorf("service: could not get stats: %w", err)
	}

	unread, err := s.alerts.CountUnread(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to count unread alerts")
		return nil, fmt.Errorf("service: could not get stats: %w", err)
	}

	return &models.Stats{ActiveSubjects: active, UnreadAlerts: unread}, nil
}

// deliver передает событие каждому получателю ровно один раз; ошибки получателей не фатальны
func (s *monitorService) deliver(ctx context.Context, event models.ViolationEvent, geofenceName string, log *logrus.Entry) {
	log = log.WithFields(logrus.Fields{
		"geofence_id": event.GeofenceID,
		"kind":        event.Kind,
	})
	if s.metrics != nil {
		s.metrics.IncrementEvents(string(event.Kind))
	}

	alert := alertFromEvent(event, geofenceName, s.cfg.Location)
	if err := s.alerts.Create(ctx, alert); err != nil {
		s.sinkFailed("alerts", err, log)
	}

	if record := attendanceFromEvent(event); record != nil {
		if err := s.attendance.Create(ctx, record); err != nil {
			s.sinkFailed("attendance", err, log)
		}
	}

	for _, p := range s.publishers {
		if err := p.Publish(ctx, event); err != nil {
			s.sinkFailed(p.Name(), err, log)
		}
	}

	log.Info("Geofence event delivered")
}

func (s *monitorService) sinkFailed(sink string, err error, log *logrus.Entry) {
	if s.metrics != nil {
		s.metrics.IncrementSinkFailures(sink)
	}
	log.WithError(err).WithField("sink", sink).Error("Alert sink rejected event")
}

// dropStale исключает геозоны, состояние которых записано позже наблюдения
func dropStale(catalog []*models.Geofence, prior map[uuid.UUID]models.MembershipState, observedAt time.Time) ([]*models.Geofence, []uuid.UUID) {
	fresh := make([]*models.Geofence, 0, len(catalog))
	var skipped []uuid.UUID
	for _, g := range catalog {
		if st, ok := prior[g.ID]; ok && st.AsOf.After(observedAt) {
			skipped = append(skipped, g.ID)
			continue
		}
		fresh = append(fresh, g)
	}
	return fresh, skipped
}

// sinceActivation отбрасывает состояния, записанные до последней активации геозоны:
// переходы за время, пока геозона была выключена, не наблюдались
func sinceActivation(catalog []*models.Geofence, prior map[uuid.UUID]models.MembershipState) map[uuid.UUID]models.MembershipState {
	var result map[uuid.UUID]models.MembershipState
	for _, g := range catalog {
		st, ok := prior[g.ID]
		if !ok || g.ActivatedAt.IsZero() || !st.AsOf.Before(g.ActivatedAt) {
			continue
		}
		if result == nil {
			result = make(map[uuid.UUID]models.MembershipState, len(prior))
			for id, v := range prior {
				result[id] = v
			}
		}
		delete(result, g.ID)
	}
	if result == nil {
		return prior
	}
	return result
}

func alertFromEvent(event models.ViolationEvent, geofenceName string, loc *time.Location) *models.Alert {
	if geofenceName == "" {
		geofenceName = event.GeofenceID.String()
	}
	at := event.OccurredAt.In(loc).Format("15:04")
	geofenceID := event.GeofenceID

	alert := &models.Alert{
		EmployeeID: event.SubjectID,
		GeofenceID: &geofenceID,
		Timestamp:  event.OccurredAt,
	}
	switch event.Kind {
	case models.EventEntry:
		alert.Type = models.AlertTypeGeofenceEntry
		alert.Title = "Zone Entry"
		alert.Severity = models.SeveritySuccess
		alert.Message = fmt.Sprintf("%s entered %s at %s", event.SubjectID, geofenceName, at)
	case models.EventExit:
		alert.Type = models.AlertTypeGeofenceExit
		alert.Title = "Zone Exit"
		alert.Severity = models.SeverityInfo
		alert.Message = fmt.Sprintf("%s left %s at %s", event.SubjectID, geofenceName, at)
	case models.EventUnauthorizedExit:
		alert.Type = models.AlertTypeUnauthorizedExit
		alert.Title = "Unauthorized Exit"
		alert.Severity = models.SeverityWarning
		alert.Message = fmt.Sprintf("%s left %s during active hours at %s", event.SubjectID, geofenceName, at)
	case models.EventAfterHours:
		alert.Type = models.AlertTypeAfterHours
		alert.Title = "After-Hours Presence"
		alert.Severity = models.SeverityWarning
		alert.Message = fmt.Sprintf("%s is inside %s outside active hours at %s", event.SubjectID, geofenceName, at)
	}
	return alert
}

func attendanceFromEvent(event models.ViolationEvent) *models.AttendanceRecord {
	var kind string
	switch event.Kind {
	case models.EventEntry:
		kind = models.AttendanceEntry
	case models.EventExit:
		kind = models.AttendanceExit
	default:
		return nil
	}
	geofenceID := event.GeofenceID
	return &models.AttendanceRecord{
		EmployeeID: event.SubjectID,
		GeofenceID: &geofenceID,
		Type:       kind,
		Location:   event.Sample.Point,
		Timestamp:  event.OccurredAt,
	}
}
