package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics хранит все метрики Prometheus сервиса мониторинга геозон
type Metrics struct {
	SamplesProcessed     prometheus.Counter
	EventsEmitted        *prometheus.CounterVec
	ComputationAnomalies prometheus.Counter
	StaleSamples         prometheus.Counter
	SinkFailures         *prometheus.CounterVec
	WebhookDeliveries    *prometheus.CounterVec
	EvaluationDuration   prometheus.Histogram
}

// New создает и регистрирует метрики в reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SamplesProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "geofence_samples_processed_total",
			Help: "Total number of location samples evaluated against the geofence catalog",
		}),
		EventsEmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "geofence_events_emitted_total",
			Help: "Total number of geofence events emitted, labelled by kind",
		}, []string{"kind"}),
		ComputationAnomalies: factory.NewCounter(prometheus.CounterOpts{
			Name: "geofence_computation_anomalies_total",
			Help: "Total number of non-finite distance computations",
		}),
		StaleSamples: factory.NewCounter(prometheus.CounterOpts{
			Name: "geofence_stale_samples_total",
			Help: "Total number of (subject, geofence) pairs skipped because stored state was newer than the sample",
		}),
		SinkFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "geofence_sink_failures_total",
			Help: "Total number of events an alert sink failed to accept, labelled by sink",
		}, []string{"sink"}),
		WebhookDeliveries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "geofence_webhook_deliveries_total",
			Help: "Total number of webhook delivery attempts, labelled by outcome",
		}, []string{"status"}),
		EvaluationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "geofence_sample_duration_ms",
			Help:    "End-to-end processing latency of one location sample in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		}),
	}
}

func (m *Metrics) IncrementSamples() {
	m.SamplesProcessed.Inc()
}

func (m *Metrics) IncrementEvents(kind string) {
	m.EventsEmitted.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncrementAnomalies() {
	m.ComputationAnomalies.Inc()
}

func (m *Metrics) IncrementStale() {
	m.StaleSamples.Inc()
}

func (m *Metrics) IncrementSinkFailures(sink string) {
	m.SinkFailures.WithLabelValues(sink).Inc()
}

func (m *Metrics) IncrementWebhookDeliveries(status string) {
	m.WebhookDeliveries.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveSampleDuration(d time.Duration) {
	m.EvaluationDuration.Observe(float64(d.Microseconds()) / 1000)
}
