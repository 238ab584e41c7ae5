package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"

	"github.com/shenikar/geofence_monitor/internal/models"
	"github.com/shenikar/geofence_monitor/internal/service"
)

const (
	qos             = 1
	processTimeout  = 10 * time.Second
	locationSegment = "location"
)

type locationMessage struct {
	EmployeeID string  `json:"employee_id"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Timestamp  int64   `json:"timestamp"`
}

// LocationSubscriber принимает координаты сотрудников из топика <prefix>/<employee_id>/location
type LocationSubscriber struct {
	client  pahomqtt.Client
	monitor service.MonitorService
	topic   string
	logger  *logrus.Logger
}

func NewLocationSubscriber(client pahomqtt.Client, monitor service.MonitorService, topicPrefix string, logger *logrus.Logger) *LocationSubscriber {
	return &LocationSubscriber{
		client:  client,
		monitor: monitor,
		topic:   strings.TrimRight(topicPrefix, "/") + "/+/" + locationSegment,
		logger:  logger,
	}
}

func (s *LocationSubscriber) Topic() string {
	return s.topic
}

func (s *LocationSubscriber) Start() error {
	token := s.client.Subscribe(s.topic, qos, s.handleMessage)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt subscribe %s: %w", s.topic, err)
	}
	s.logger.WithField("topic", s.topic).Info("Subscribed to location feed")
	return nil
}

func (s *LocationSubscriber) Stop() {
	if token := s.client.Unsubscribe(s.topic); token.Wait() && token.Error() != nil {
		s.logger.WithError(token.Error()).Warn("Failed to unsubscribe from location feed")
	}
}

func (s *LocationSubscriber) handleMessage(_ pahomqtt.Client, msg pahomqtt.Message) {
	log := s.logger.WithFields(logrus.Fields{
		"handler": "mqtt",
		"topic":   msg.Topic(),
	})

	sample, err := parseLocationMessage(msg.Topic(), msg.Payload())
	if err != nil {
		log.WithError(err).Warn("Invalid location message")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), processTimeout)
	defer cancel()

	res, err := s.monitor.ProcessSample(ctx, sample)
	if err != nil {
		log.WithError(err).WithField("employee_id", sample.SubjectID).Error("Failed to process location sample")
		return
	}
	log.WithFields(logrus.Fields{
		"employee_id": sample.SubjectID,
		"events":      len(res.Events),
	}).Debug("Location message processed")
}

// parseLocationMessage разбирает сообщение; employee_id из тела должен совпадать с сегментом топика
func parseLocationMessage(topic string, payload []byte) (models.LocationSample, error) {
	var raw locationMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		return models.LocationSample{}, fmt.Errorf("decode payload: %w", err)
	}

	topicID := employeeFromTopic(topic)
	if raw.EmployeeID == "" {
		raw.EmployeeID = topicID
	}

	switch {
	case raw.EmployeeID == "":
		return models.LocationSample{}, errors.New("employee_id: required")
	case topicID != "" && topicID != raw.EmployeeID:
		return models.LocationSample{}, fmt.Errorf("employee_id: %q does not match topic %q", raw.EmployeeID, topic)
	case raw.Latitude < -90 || raw.Latitude > 90:
		return models.LocationSample{}, errors.New("latitude: must be between -90 and 90")
	case raw.Longitude < -180 || raw.Longitude > 180:
		return models.LocationSample{}, errors.New("longitude: must be between -180 and 180")
	case raw.Timestamp <= 0:
		return models.LocationSample{}, errors.New("timestamp: must be positive")
	}

	return models.LocationSample{
		SubjectID:  raw.EmployeeID,
		Point:      models.GeoPoint{Latitude: raw.Latitude, Longitude: raw.Longitude},
		ObservedAt: time.Unix(raw.Timestamp, 0).UTC(),
	}, nil
}

func employeeFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) < 2 || parts[len(parts)-1] != locationSegment {
		return ""
	}
	return parts[len(parts)-2]
}
