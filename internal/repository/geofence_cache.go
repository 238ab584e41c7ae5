package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shenikar/geofence_monitor/internal/models"
	"github.com/shenikar/geofence_monitor/internal/service"
)

const activeGeofencesKey = "geofences:active"

// GeofenceCache хранит снимок каталога активных геозон в Redis
type GeofenceCache struct {
	redisClient *redis.Client
	ttl         time.Duration
}

func NewGeofenceCache(redisClient *redis.Client, ttl time.Duration) service.GeofenceCache {
	return &GeofenceCache{
		redisClient: redisClient,
		ttl:         ttl,
	}
}

// GetActive возвращает закешированный каталог или nil при промахе
func (c *GeofenceCache) GetActive(ctx context.Context) ([]*models.Geofence, error) {
	val, err := c.redisClient.Get(ctx, activeGeofencesKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active geofences from cache: %w", err)
	}

	geofences := make([]*models.Geofence, 0)
	if err := json.Unmarshal(val, &geofences); err != nil {
		return nil, fmt.Errorf("failed to unmarshal active geofences from cache: %w", err)
	}
	return geofences, nil
}

// SetActive сохраняет каталог активных геозон
func (c *GeofenceCache) SetActive(ctx context.Context, geofences []*models.Geofence) error {
	val, err := json.Marshal(geofences)
	if err != nil {
		return fmt.Errorf("failed to marshal active geofences for cache: %w", err)
	}
	if err := c.redisClient.Set(ctx, activeGeofencesKey, val, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set active geofences in cache: %w", err)
	}
	return nil
}

// Invalidate удаляет снимок каталога, следующий запрос перечитает его из бд
func (c *GeofenceCache) Invalidate(ctx context.Context) error {
	if err := c.redisClient.Del(ctx, activeGeofencesKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate active geofences cache: %w", err)
	}
	return nil
}
