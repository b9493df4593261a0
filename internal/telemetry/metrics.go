package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	RequestsTotal     *prometheus.CounterVec
	RequestDuration   *prometheus.HistogramVec
	CourierRequests   *prometheus.CounterVec
	CourierDuration   *prometheus.HistogramVec
	CourierErrors     *prometheus.CounterVec
	RateCalculations  *prometheus.CounterVec
	FanboxDegradeFlip prometheus.Counter
}

// NewMetrics creates and registers Prometheus metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fancourier_requests_total",
				Help: "Total number of HTTP requests by operation and status",
			},
			[]string{"operation", "status"},
		),
		RequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fancourier_request_duration_seconds",
				Help:    "HTTP request duration in seconds by operation",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		CourierRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fancourier_api_requests_total",
				Help: "Total courier API calls by endpoint and status",
			},
			[]string{"endpoint", "status"},
		),
		CourierDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fancourier_api_request_duration_seconds",
				Help:    "Courier API call duration in seconds by endpoint",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		CourierErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fancourier_api_errors_total",
				Help: "Total courier API errors by endpoint and error type",
			},
			[]string{"endpoint", "error_type"},
		),
		RateCalculations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fancourier_rate_calculations_total",
				Help: "Rates computed by shipping method and pricing source",
			},
			[]string{"method", "source"},
		),
		FanboxDegradeFlip: f.NewCounter(
			prometheus.CounterOpts{
				Name: "fancourier_fanbox_degraded_total",
				Help: "Times the FANBox method was disabled after a tariff failure",
			},
		),
	}
}

// RecordRequest records an HTTP request metric.
func (m *Metrics) RecordRequest(operation, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(operation, status).Inc()
	m.RequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordCourierCall records a courier API call.
func (m *Metrics) RecordCourierCall(endpoint, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.CourierRequests.WithLabelValues(endpoint, status).Inc()
	m.CourierDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordError records a courier error metric.
func (m *Metrics) RecordError(endpoint, errorType string) {
	if m == nil {
		return
	}
	m.CourierErrors.WithLabelValues(endpoint, errorType).Inc()
}

// RecordRate records a computed rate.
func (m *Metrics) RecordRate(method, source string) {
	if m == nil {
		return
	}
	m.RateCalculations.WithLabelValues(method, source).Inc()
}

// RecordDegraded records the FANBox method entering its cooldown.
func (m *Metrics) RecordDegraded() {
	if m == nil {
		return
	}
	m.FanboxDegradeFlip.Inc()
}
