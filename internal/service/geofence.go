package service

//go:generate mockgen -source=geofence.go -destination=mocks/mock_geofence.go -package=mocks

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/shenikar/geofence_monitor/internal/geofence"
	"github.com/shenikar/geofence_monitor/internal/models"
)

// GeofenceRepository определяет контракт для работы с бд геозон
type GeofenceRepository interface {
	Create(ctx context.Context, g *models.Geofence) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Geofence, error)
	Update(ctx context.Context, g *models.Geofence) error
	Deactivate(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, page, pageSize int) ([]*models.Geofence, error)
	ListActive(ctx context.Context) ([]*models.Geofence, error)
}

// GeofenceCache - кеш каталога активных геозон
type GeofenceCache interface {
	GetActive(ctx context.Context) ([]*models.Geofence, error)
	SetActive(ctx context.Context, geofences []*models.Geofence) error
	Invalidate(ctx context.Context) error
}

// GeofenceService определяет контракт бизнес-логики управления каталогом геозон
type GeofenceService interface {
	CreateGeofence(ctx context.Context, g *models.Geofence) error
	GetGeofence(ctx context.Context, id uuid.UUID) (*models.Geofence, error)
	UpdateGeofence(ctx context.Context, g *models.Geofence) error
	DeactivateGeofence(ctx context.Context, id uuid.UUID) error
	DeleteGeofence(ctx context.Context, id uuid.UUID) error
	ListGeofences(ctx context.Context, page, pageSize int) ([]*models.Geofence, error)
	ListActive(ctx context.Context) ([]*models.Geofence, error)
	ListActiveInRegion(ctx context.Context, center models.GeoPoint, radiusMeters float64) ([]*models.Geofence, error)
}

type geofenceService struct {
	repo   GeofenceRepository
	cache  GeofenceCache
	states StateStore
	logger *logrus.Logger
}

func NewGeofenceService(repo GeofenceRepository, cache GeofenceCache, states StateStore, logger *logrus.Logger) GeofenceService {
	return &geofenceService{
		repo:   repo,
		cache:  cache,
		states: states,
		logger: logger,
	}
}

// CreateGeofence проверяет и создает геозону
func (s *geofenceService) CreateGeofence(ctx context.Context, g *models.Geofence) error {
	log := s.logger.WithFields(logrus.Fields{
		"service": "geofence",
		"method":  "CreateGeofence",
		"name":    g.Name,
	})
	log.Info("Attempting to create a new geofence")

	if err := validateGeofence(g); err != nil {
		log.WithError(err).Warn("Geofence rejected by validation")
		return err
	}

	if err := s.repo.Create(ctx, g); err != nil {
		log.WithError(err).Error("Failed to create geofence in repository")
		return fmt.Errorf("service: could not create geofence: %w", err)
	}

	s.invalidateCache(ctx, log)
	log.WithField("geofence_id", g.ID).Info("Geofence created successfully")
	return nil
}

// GetGeofence получает геозону по ID
func (s *geofenceService) GetGeofence(ctx context.Context, id uuid.UUID) (*models.Geofence, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "geofence",
		"method":      "GetGeofence",
		"geofence_id": id,
	})
	log.Debug("Fetching geofence by ID")

	g, err := s.repo.GetByID(ctx, id)
	if err != nil {
		log.WithError(err).Warn("Failed to get geofence from repository")
		return nil, fmt.Errorf("service: could not get geofence: %w", err)
	}
	return g, nil
}

// UpdateGeofence полностью заменяет изменяемые поля существующей геозоны
func (s *geofenceService) UpdateGeofence(ctx context.Context, g *models.Geofence) error {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "geofence",
		"method":      "UpdateGeofence",
		"geofence_id": g.ID,
	})
	log.Info("Attempting to update geofence")

	if err := validateGeofence(g); err != nil {
		log.WithError(err).Warn("Geofence rejected by validation")
		return err
	}

	existing, err := s.repo.GetByID(ctx, g.ID)
	if err != nil {
		log.WithError(err).Warn("Attempted to update a non-existent geofence")
		return fmt.Errorf("service: geofence with id %s not found for update: %w", g.ID, err)
	}

	existing.Name = g.Name
	existing.Type = g.Type
	existing.Center = g.Center
	existing.RadiusMeters = g.RadiusMeters
	existing.ActiveWindow = g.ActiveWindow
	existing.EntryNotify = g.EntryNotify
	existing.ExitNotify = g.ExitNotify
	existing.ViolationAlert = g.ViolationAlert
	existing.IsActive = g.IsActive

	if err := s.repo.Update(ctx, existing); err != nil {
		log.WithError(err).Error("Failed to update geofence in repository")
		return fmt.Errorf("service: could not update geofence: %w", err)
	}
	*g = *existing

	s.invalidateCache(ctx, log)
	log.Info("Geofence updated successfully")
	return nil
}

// DeactivateGeofence исключает геозону из мониторинга, не удаляя её
func (s *geofenceService) DeactivateGeofence(ctx context.Context, id uuid.UUID) error {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "geofence",
		"method":      "DeactivateGeofence",
		"geofence_id": id,
	})
	log.Info("Attempting to deactivate geofence")

	if err := s.repo.Deactivate(ctx, id); err != nil {
		log.WithError(err).Warn("Failed to deactivate geofence in repository")
		return fmt.Errorf("service: could not deactivate geofence: %w", err)
	}

	s.invalidateCache(ctx, log)
	log.Info("Geofence deactivated successfully")
	return nil
}

// DeleteGeofence удаляет геозону физически вместе с состояниями принадлежности.
// Ошибка очистки состояний не фатальна: их все равно удалит TTL.
func (s *geofenceService) DeleteGeofence(ctx context.Context, id uuid.UUID) error {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "geofence",
		"method":      "DeleteGeofence",
		"geofence_id": id,
	})
	log.Info("Attempting to delete geofence")

	if err := s.repo.Delete(ctx, id); err != nil {
		log.WithError(err).Warn("Failed to delete geofence in repository")
		return fmt.Errorf("service: could not delete geofence: %w", err)
	}

	s.invalidateCache(ctx, log)
	if s.states != nil {
		removed, err := s.states.Forget(ctx, id)
		if err != nil {
			log.WithError(err).Warn("Failed to forget membership states of deleted geofence")
		} else {
			log.WithField("subjects", removed).Debug("Membership states of deleted geofence removed")
		}
	}
	log.Info("Geofence deleted successfully")
	return nil
}

// ListGeofences возвращает список геозон с пагинацией
func (s *geofenceService) ListGeofences(ctx context.Context, page, pageSize int) ([]*models.Geofence, error) {
	if page < 1 {
		page = 1
	}

	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	log := s.logger.WithFields(logrus.Fields{
		"service":   "geofence",
		"method":    "ListGeofences",
		"page":      page,
		"page_size": pageSize,
	})

	geofences, err := s.repo.List(ctx, page, pageSize)
	if err != nil {
		log.WithError(err).Error("Failed to list geofences from repository")
		return nil, fmt.Errorf("service: could not list geofences: %w", err)
	}

	log.WithField("count", len(geofences)).Debug("Geofences listed successfully")
	return geofences, nil
}

// ListActive возвращает каталог активных геозон: сначала из кеша, затем из бд
func (s *geofenceService) ListActive(ctx context.Context) ([]*models.Geofence, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "geofence",
		"method":  "ListActive",
	})

	cached, err := s.cache.GetActive(ctx)
	if err != nil {
		log.WithError(err).Warn("Failed to read active geofences from cache, falling back to repository")
	} else if cached != nil {
		return cached, nil
	}

	geofences, err := s.repo.ListActive(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to list active geofences from repository")
		return nil, fmt.Errorf("service: could not list active geofences: %w", err)
	}

	if err := s.cache.SetActive(ctx, geofences); err != nil {
		log.WithError(err).Warn("Failed to cache active geofences")
	}
	return geofences, nil
}

// ListActiveInRegion возвращает активные геозоны, пересекающиеся с кругом (center, radiusMeters)
func (s *geofenceService) ListActiveInRegion(ctx context.Context, center models.GeoPoint, radiusMeters float64) ([]*models.Geofence, error) {
	if !center.Valid() {
		return nil, fmt.Errorf("%w: region center (%v, %v) out of range", geofence.ErrInvalidInput, center.Latitude, center.Longitude)
	}
	if radiusMeters < 0 {
		return nil, fmt.Errorf("%w: region radius must not be negative", geofence.ErrInvalidInput)
	}

	all, err := s.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	return geofence.InRegion(all, center, radiusMeters), nil
}

func (s *geofenceService) invalidateCache(ctx context.Context, log *logrus.Entry) {
	if err := s.cache.Invalidate(ctx); err != nil {
		log.WithError(err).Warn("Failed to invalidate active geofences cache")
	}
}

// validateGeofence - граница валидации каталога: evaluator полагается на эти инварианты
func validateGeofence(g *models.Geofence) error {
	switch {
	case strings.TrimSpace(g.Name) == "":
		return fmt.Errorf("%w: geofence name is required", geofence.ErrInvalidInput)
	case !g.Center.Valid():
		return fmt.Errorf("%w: geofence center (%v, %v) out of range", geofence.ErrInvalidInput, g.Center.Latitude, g.Center.Longitude)
	case !(g.RadiusMeters > 0):
		return fmt.Errorf("%w: geofence radius must be positive", geofence.ErrInvalidInput)
	case !g.ActiveWindow.Valid():
		return fmt.Errorf("%w: geofence active window is malformed", geofence.ErrInvalidInput)
	}
	return nil
}
