package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/shenikar/geofence_monitor/internal/models"
)

const (
	webhookQueueKey = "geofence_webhook_events"
	publisherName   = "webhook"
)

// WebhookEvent - тело запроса, которое получает внешний обработчик
type WebhookEvent struct {
	EventID    uuid.UUID        `json:"event_id"`
	Kind       models.EventKind `json:"kind"`
	EmployeeID string           `json:"employee_id"`
	GeofenceID *uuid.UUID       `json:"geofence_id,omitempty"`
	Latitude   float64          `json:"latitude"`
	Longitude  float64          `json:"longitude"`
	OccurredAt time.Time        `json:"occurred_at"`
}

// NewWebhookEvent строит тело вебхука из события геозоны
func NewWebhookEvent(event models.ViolationEvent) WebhookEvent {
	webhookEvent := WebhookEvent{
		EventID:    uuid.New(),
		Kind:       event.Kind,
		EmployeeID: event.SubjectID,
		Latitude:   event.Sample.Point.Latitude,
		Longitude:  event.Sample.Point.Longitude,
		OccurredAt: event.OccurredAt,
	}
	// у экстренных событий геозоны нет
	if event.GeofenceID != uuid.Nil {
		geofenceID := event.GeofenceID
		webhookEvent.GeofenceID = &geofenceID
	}
	return webhookEvent
}

// RedisWebhookPublisher ставит события в очередь Redis, откуда их забирает WebhookWorker
type RedisWebhookPublisher struct {
	redisClient *redis.Client
}

// NewRedisWebhookPublisher создает новый RedisWebhookPublisher
func NewRedisWebhookPublisher(client *redis.Client) *RedisWebhookPublisher {
	return &RedisWebhookPublisher{
		redisClient: client,
	}
}

func (p *RedisWebhookPublisher) Name() string {
	return publisherName
}

// Publish публикует событие в очередь Redis
func (p *RedisWebhookPublisher) Publish(ctx context.Context, event models.ViolationEvent) error {
	payload, err := json.Marshal(NewWebhookEvent(event))
	if err != nil {
		return fmt.Errorf("failed to marshal webhook event: %w", err)
	}

	// LPUSH в голову списка, воркер забирает с хвоста
	if err := p.redisClient.LPush(ctx, webhookQueueKey, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish webhook event to Redis: %w", err)
	}
	return nil
}
