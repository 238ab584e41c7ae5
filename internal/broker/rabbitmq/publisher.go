package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shenikar/geofence_monitor/internal/models"
	"github.com/shenikar/geofence_monitor/internal/service"
)

var _ service.EventPublisher = (*EventPublisher)(nil)

const (
	ExchangeName = "workforce.events"
	QueueName    = "geofence_alerts"

	publisherName = "rabbitmq"
)

// channel - часть *amqp.Channel, которой пользуется издатель
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// EventPublisher рассылает события геозон через fanout-обменник
type EventPublisher struct {
	ch channel
}

// NewEventPublisher открывает канал и объявляет обменник, очередь и привязку
func NewEventPublisher(conn *amqp.Connection) (*EventPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	if err := ch.ExchangeDeclare(ExchangeName, "fanout", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	if _, err := ch.QueueDeclare(QueueName, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	if err := ch.QueueBind(QueueName, "", ExchangeName, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("bind queue: %w", err)
	}

	return &EventPublisher{ch: ch}, nil
}

type eventMessage struct {
	EmployeeID string           `json:"employee_id"`
	GeofenceID string           `json:"geofence_id,omitempty"`
	Event      models.EventKind `json:"event"`
	Location   eventLocation    `json:"location"`
	Timestamp  int64            `json:"timestamp"`
}

type eventLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (p *EventPublisher) Name() string {
	return publisherName
}

func (p *EventPublisher) Publish(ctx context.Context, event models.ViolationEvent) error {
	msg := eventMessage{
		EmployeeID: event.SubjectID,
		Event:      event.Kind,
		Location: eventLocation{
			Latitude:  event.Sample.Point.Latitude,
			Longitude: event.Sample.Point.Longitude,
		},
		Timestamp: event.OccurredAt.Unix(),
	}
	if event.GeofenceID != uuid.Nil {
		msg.GeofenceID = event.GeofenceID.String()
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := p.ch.PublishWithContext(ctx, ExchangeName, "", false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.OccurredAt,
		Type:         string(event.Kind),
		Body:         body,
	}); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Close закрывает канал; соединение закрывает владелец
func (p *EventPublisher) Close() error {
	return p.ch.Close()
}
