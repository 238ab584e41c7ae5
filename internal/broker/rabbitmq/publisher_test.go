package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shenikar/geofence_monitor/internal/models"
)

type fakeChannel struct {
	exchange   string
	key        string
	published  []amqp.Publishing
	publishErr error
	closed     bool
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.exchange = exchange
	f.key = key
	f.published = append(f.published, msg)
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestPublish_Success(t *testing.T) {
	ch := &fakeChannel{}
	p := &EventPublisher{ch: ch}
	geofenceID := uuid.New()
	at := time.Date(2025, 3, 10, 19, 0, 0, 0, time.UTC)

	err := p.Publish(context.Background(), models.ViolationEvent{
		SubjectID:  "emp-42",
		GeofenceID: geofenceID,
		Kind:       models.EventAfterHours,
		OccurredAt: at,
		Sample: models.LocationSample{
			SubjectID: "emp-42",
			Point:     models.GeoPoint{Latitude: 12.97, Longitude: 77.59},
		},
	})

	require.NoError(t, err)
	require.Len(t, ch.published, 1)
	assert.Equal(t, ExchangeName, ch.exchange)
	assert.Empty(t, ch.key)

	msg := ch.published[0]
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, "after_hours", msg.Type)

	var body eventMessage
	require.NoError(t, json.Unmarshal(msg.Body, &body))
	assert.Equal(t, "emp-42", body.EmployeeID)
	assert.Equal(t, geofenceID.String(), body.GeofenceID)
	assert.Equal(t, models.EventAfterHours, body.Event)
	assert.Equal(t, 12.97, body.Location.Latitude)
	assert.Equal(t, 77.59, body.Location.Longitude)
	assert.Equal(t, at.Unix(), body.Timestamp)
}

func TestPublish_SOSWithoutGeofence(t *testing.T) {
	ch := &fakeChannel{}
	p := &EventPublisher{ch: ch}

	err := p.Publish(context.Background(), models.ViolationEvent{
		SubjectID:  "emp-9",
		Kind:       models.EventSOS,
		OccurredAt: time.Date(2025, 3, 10, 21, 15, 0, 0, time.UTC),
		Sample: models.LocationSample{
			SubjectID: "emp-9",
			Point:     models.GeoPoint{Latitude: 19.07, Longitude: 72.87},
		},
	})

	require.NoError(t, err)
	require.Len(t, ch.published, 1)
	assert.Equal(t, "sos", ch.published[0].Type)
	assert.NotContains(t, string(ch.published[0].Body), "geofence_id")
}

func TestPublish_ChannelError(t *testing.T) {
	p := &EventPublisher{ch: &fakeChannel{publishErr: errors.New("channel closed")}}

	err := p.Publish(context.Background(), models.ViolationEvent{SubjectID: "emp-1", Kind: models.EventEntry})

	require.Error(t, err)
	assert.ErrorContains(t, err, "publish event")
}

func TestNameAndClose(t *testing.T) {
	ch := &fakeChannel{}
	p := &EventPublisher{ch: ch}

	assert.Equal(t, "rabbitmq", p.Name())
	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}
