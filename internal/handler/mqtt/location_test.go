package mqtt

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/shenikar/geofence_monitor/internal/models"
	"github.com/shenikar/geofence_monitor/internal/service/mocks"
)

type fakeMessage struct {
	topic   string
	payload []byte
}

func (f *fakeMessage) Duplicate() bool   { return false }
func (f *fakeMessage) Qos() byte         { return qos }
func (f *fakeMessage) Retained() bool    { return false }
func (f *fakeMessage) Topic() string     { return f.topic }
func (f *fakeMessage) MessageID() uint16 { return 0 }
func (f *fakeMessage) Payload() []byte   { return f.payload }
func (f *fakeMessage) Ack()              {}

func newTestSubscriber(t *testing.T) (*LocationSubscriber, *mocks.MockMonitorService) {
	ctrl := gomock.NewController(t)
	monitor := mocks.NewMockMonitorService(ctrl)

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})

	return NewLocationSubscriber(nil, monitor, "/workforce/employee/", logger), monitor
}

func TestNewLocationSubscriber_Topic(t *testing.T) {
	s, _ := newTestSubscriber(t)
	assert.Equal(t, "/workforce/employee/+/location", s.Topic())
}

func TestHandleMessage_Success(t *testing.T) {
	s, monitor := newTestSubscriber(t)

	monitor.EXPECT().
		ProcessSample(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, sample models.LocationSample) (*models.SampleResult, error) {
			assert.Equal(t, "EMP001", sample.SubjectID)
			assert.Equal(t, 19.076, sample.Point.Latitude)
			assert.Equal(t, 72.8777, sample.Point.Longitude)
			assert.Equal(t, time.Unix(1741600800, 0).UTC(), sample.ObservedAt)
			return &models.SampleResult{}, nil
		}).Times(1)

	s.handleMessage(nil, &fakeMessage{
		topic:   "/workforce/employee/EMP001/location",
		payload: []byte(`{"employee_id":"EMP001","latitude":19.076,"longitude":72.8777,"timestamp":1741600800}`),
	})
}

func TestHandleMessage_EmployeeFromTopic(t *testing.T) {
	s, monitor := newTestSubscriber(t)

	monitor.EXPECT().
		ProcessSample(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, sample models.LocationSample) (*models.SampleResult, error) {
			assert.Equal(t, "EMP002", sample.SubjectID)
			return &models.SampleResult{}, nil
		}).Times(1)

	s.handleMessage(nil, &fakeMessage{
		topic:   "/workforce/employee/EMP002/location",
		payload: []byte(`{"latitude":19.076,"longitude":72.8777,"timestamp":1741600800}`),
	})
}

func TestHandleMessage_ServiceErrorIsLogged(t *testing.T) {
	s, monitor := newTestSubscriber(t)

	monitor.EXPECT().ProcessSample(gomock.Any(), gomock.Any()).Return(nil, errors.New("redis down")).Times(1)

	assert.NotPanics(t, func() {
		s.handleMessage(nil, &fakeMessage{
			topic:   "/workforce/employee/EMP001/location",
			payload: []byte(`{"employee_id":"EMP001","latitude":1,"longitude":1,"timestamp":1741600800}`),
		})
	})
}

func TestHandleMessage_InvalidMessagesAreDropped(t *testing.T) {
	cases := map[string]string{
		"malformed json":    `{not json`,
		"latitude range":    `{"employee_id":"EMP001","latitude":91,"longitude":1,"timestamp":1741600800}`,
		"longitude range":   `{"employee_id":"EMP001","latitude":1,"longitude":-181,"timestamp":1741600800}`,
		"missing timestamp": `{"employee_id":"EMP001","latitude":1,"longitude":1}`,
		"topic mismatch":    `{"employee_id":"EMP999","latitude":1,"longitude":1,"timestamp":1741600800}`,
	}

	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			// ProcessSample не ожидается: gomock провалит тест при вызове
			s, _ := newTestSubscriber(t)
			s.handleMessage(nil, &fakeMessage{
				topic:   "/workforce/employee/EMP001/location",
				payload: []byte(payload),
			})
		})
	}
}

func TestParseLocationMessage_MissingEmployee(t *testing.T) {
	_, err := parseLocationMessage("/custom/feed", []byte(`{"latitude":1,"longitude":1,"timestamp":1}`))
	require.Error(t, err)
	assert.ErrorContains(t, err, "employee_id")
}
