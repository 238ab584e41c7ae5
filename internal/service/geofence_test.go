package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/shenikar/geofence_monitor/internal/geofence"
	"github.com/shenikar/geofence_monitor/internal/models"
	"github.com/shenikar/geofence_monitor/internal/service/mocks"
)

func newTestGeofenceService(t *testing.T) (GeofenceService, *mocks.MockGeofenceRepository, *mocks.MockGeofenceCache) {
	svc, repoMock, cacheMock, _ := newTestGeofenceServiceWithStates(t)
	return svc, repoMock, cacheMock
}

func newTestGeofenceServiceWithStates(t *testing.T) (GeofenceService, *mocks.MockGeofenceRepository, *mocks.MockGeofenceCache, *mocks.MockStateStore) {
	ctrl := gomock.NewController(t)
	repoMock := mocks.NewMockGeofenceRepository(ctrl)
	cacheMock := mocks.NewMockGeofenceCache(ctrl)
	statesMock := mocks.NewMockStateStore(ctrl)

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})

	return NewGeofenceService(repoMock, cacheMock, statesMock, logger), repoMock, cacheMock, statesMock
}

func validGeofence() *models.Geofence {
	return &models.Geofence{
		Name:           "Head Office",
		Type:           models.GeofenceTypeOffice,
		Center:         models.GeoPoint{Latitude: 28.6139, Longitude: 77.2090},
		RadiusMeters:   100,
		ActiveWindow:   models.DefaultActiveWindow(),
		EntryNotify:    true,
		ExitNotify:     true,
		ViolationAlert: true,
		IsActive:       true,
	}
}

func TestCreateGeofence_Success(t *testing.T) {
	// Подготовка
	svc, repoMock, cacheMock := newTestGeofenceService(t)
	ctx := context.Background()
	g := validGeofence()

	// Ожидания
	repoMock.EXPECT().
		Create(ctx, g).
		DoAndReturn(func(_ context.Context, g *models.Geofence) error {
			g.ID = uuid.New()
			return nil
		}).Times(1)
	cacheMock.EXPECT().Invalidate(ctx).Return(nil).Times(1)

	// Действие
	err := svc.CreateGeofence(ctx, g)

	// Проверки
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, g.ID)
}

func TestCreateGeofence_ValidationErrors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(g *models.Geofence)
	}{
		{"empty name", func(g *models.Geofence) { g.Name = "  " }},
		{"latitude out of range", func(g *models.Geofence) { g.Center.Latitude = 91 }},
		{"longitude out of range", func(g *models.Geofence) { g.Center.Longitude = -181 }},
		{"zero radius", func(g *models.Geofence) { g.RadiusMeters = 0 }},
		{"negative radius", func(g *models.Geofence) { g.RadiusMeters = -5 }},
		{"bad window", func(g *models.Geofence) { g.ActiveWindow.Start = models.TimeOfDay(-1) }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, _, _ := newTestGeofenceService(t)
			g := validGeofence()
			tc.mutate(g)

			err := svc.CreateGeofence(context.Background(), g)

			require.Error(t, err)
			assert.ErrorIs(t, err, geofence.ErrInvalidInput)
		})
	}
}

func TestCreateGeofence_RepositoryError(t *testing.T) {
	// Подготовка
	svc, repoMock, _ := newTestGeofenceService(t)
	ctx := context.Background()
	g := validGeofence()

	// Ожидания: кеш не сбрасывается, если запись не удалась
	repoMock.EXPECT().Create(ctx, g).Return(errors.New("db down")).Times(1)

	// Действие
	err := svc.CreateGeofence(ctx, g)

	// Проверки
	require.Error(t, err)
	assert.ErrorContains(t, err, "could not create geofence")
}

func TestGetGeofence_NotFound(t *testing.T) {
	svc, repoMock, _ := newTestGeofenceService(t)
	ctx := context.Background()
	id := uuid.New()

	repoMock.EXPECT().GetByID(ctx, id).Return(nil, models.ErrNotFound).Times(1)

	g, err := svc.GetGeofence(ctx, id)

	require.Error(t, err)
	assert.Nil(t, g)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUpdateGeofence_Success(t *testing.T) {
	// Подготовка
	svc, repoMock, cacheMock := newTestGeofenceService(t)
	ctx := context.Background()
	id := uuid.New()
	existing := validGeofence()
	existing.ID = id

	update := validGeofence()
	update.ID = id
	update.Name = "Warehouse"
	update.RadiusMeters = 250
	update.EntryNotify = false

	// Ожидания
	repoMock.EXPECT().GetByID(ctx, id).Return(existing, nil).Times(1)
	repoMock.EXPECT().
		Update(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, g *models.Geofence) error {
			assert.Equal(t, "Warehouse", g.Name)
			assert.Equal(t, 250.0, g.RadiusMeters)
			assert.False(t, g.EntryNotify)
			return nil
		}).Times(1)
	cacheMock.EXPECT().Invalidate(ctx).Return(nil).Times(1)

	// Действие
	err := svc.UpdateGeofence(ctx, update)

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, "Warehouse", update.Name)
}

func TestUpdateGeofence_NotFound(t *testing.T) {
	svc, repoMock, _ := newTestGeofenceService(t)
	ctx := context.Background()
	g := validGeofence()
	g.ID = uuid.New()

	repoMock.EXPECT().GetByID(ctx, g.ID).Return(nil, models.ErrNotFound).Times(1)

	err := svc.UpdateGeofence(ctx, g)

	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestDeactivateAndDeleteGeofence_InvalidateCache(t *testing.T) {
	svc, repoMock, cacheMock, statesMock := newTestGeofenceServiceWithStates(t)
	ctx := context.Background()
	id := uuid.New()

	repoMock.EXPECT().Deactivate(ctx, id).Return(nil).Times(1)
	repoMock.EXPECT().Delete(ctx, id).Return(nil).Times(1)
	cacheMock.EXPECT().Invalidate(ctx).Return(nil).Times(2)
	// деактивация состояния не трогает, удаление вычищает их
	statesMock.EXPECT().Forget(ctx, id).Return(3, nil).Times(1)

	require.NoError(t, svc.DeactivateGeofence(ctx, id))
	require.NoError(t, svc.DeleteGeofence(ctx, id))
}

func TestDeleteGeofence_CacheFailureIsNotFatal(t *testing.T) {
	svc, repoMock, cacheMock, statesMock := newTestGeofenceServiceWithStates(t)
	ctx := context.Background()
	id := uuid.New()

	repoMock.EXPECT().Delete(ctx, id).Return(nil).Times(1)
	cacheMock.EXPECT().Invalidate(ctx).Return(errors.New("redis down")).Times(1)
	statesMock.EXPECT().Forget(ctx, id).Return(0, errors.New("redis down")).Times(1)

	assert.NoError(t, svc.DeleteGeofence(ctx, id))
}

func TestDeleteGeofence_NotFoundKeepsStates(t *testing.T) {
	svc, repoMock, _, statesMock := newTestGeofenceServiceWithStates(t)
	ctx := context.Background()
	id := uuid.New()

	repoMock.EXPECT().Delete(ctx, id).Return(models.ErrNotFound).Times(1)
	statesMock.EXPECT().Forget(gomock.Any(), gomock.Any()).Times(0)

	err := svc.DeleteGeofence(ctx, id)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestListGeofences_PaginationDefaults(t *testing.T) {
	svc, repoMock, _ := newTestGeofenceService(t)
	ctx := context.Background()

	repoMock.EXPECT().List(ctx, 1, 20).Return([]*models.Geofence{}, nil).Times(1)

	res, err := svc.ListGeofences(ctx, 0, 1000)

	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestListActive_FromCache(t *testing.T) {
	svc, _, cacheMock := newTestGeofenceService(t)
	ctx := context.Background()
	cached := []*models.Geofence{validGeofence()}

	cacheMock.EXPECT().GetActive(ctx).Return(cached, nil).Times(1)

	res, err := svc.ListActive(ctx)

	require.NoError(t, err)
	assert.Equal(t, cached, res)
}

func TestListActive_CacheMissFillsCache(t *testing.T) {
	// Подготовка
	svc, repoMock, cacheMock := newTestGeofenceService(t)
	ctx := context.Background()
	fromDB := []*models.Geofence{validGeofence()}

	// Ожидания
	gomock.InOrder(
		cacheMock.EXPECT().GetActive(ctx).Return(nil, nil),
		repoMock.EXPECT().ListActive(ctx).Return(fromDB, nil),
		cacheMock.EXPECT().SetActive(ctx, fromDB).Return(nil),
	)

	// Действие
	res, err := svc.ListActive(ctx)

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, fromDB, res)
}

func TestListActive_CacheErrorFallsBackToRepository(t *testing.T) {
	svc, repoMock, cacheMock := newTestGeofenceService(t)
	ctx := context.Background()
	fromDB := []*models.Geofence{validGeofence()}

	cacheMock.EXPECT().GetActive(ctx).Return(nil, errors.New("redis down")).Times(1)
	repoMock.EXPECT().ListActive(ctx).Return(fromDB, nil).Times(1)
	cacheMock.EXPECT().SetActive(ctx, fromDB).Return(errors.New("redis down")).Times(1)

	res, err := svc.ListActive(ctx)

	require.NoError(t, err)
	assert.Equal(t, fromDB, res)
}

func TestListActiveInRegion(t *testing.T) {
	// Подготовка
	svc, _, cacheMock := newTestGeofenceService(t)
	ctx := context.Background()

	delhi := validGeofence()
	delhi.ID = uuid.New()
	mumbai := validGeofence()
	mumbai.ID = uuid.New()
	mumbai.Center = models.GeoPoint{Latitude: 19.0760, Longitude: 72.8777}

	cacheMock.EXPECT().GetActive(ctx).Return([]*models.Geofence{delhi, mumbai}, nil).Times(1)

	// Действие
	res, err := svc.ListActiveInRegion(ctx, models.GeoPoint{Latitude: 28.62, Longitude: 77.21}, 5000)

	// Проверки
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, delhi.ID, res[0].ID)
}

func TestListActiveInRegion_InvalidInput(t *testing.T) {
	svc, _, _ := newTestGeofenceService(t)
	ctx := context.Background()

	_, err := svc.ListActiveInRegion(ctx, models.GeoPoint{Latitude: 100}, 10)
	assert.ErrorIs(t, err, geofence.ErrInvalidInput)

	_, err = svc.ListActiveInRegion(ctx, models.GeoPoint{}, -1)
	assert.ErrorIs(t, err, geofence.ErrInvalidInput)
}
