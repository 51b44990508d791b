package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Metrics tracks calls made against the TTS service.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	logger   *zap.Logger
	registry *prometheus.Registry

	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// New creates the collectors on a dedicated registry.
func New(logger *zap.Logger) *Metrics {
	m := &Metrics{
		logger:   logger,
		registry: prometheus.NewRegistry(),

		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ttsdeck_api_requests_total",
				Help: "Requests sent to the TTS service",
			},
			[]string{"op", "status"}, // status: HTTP code or "error"
		),

		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ttsdeck_api_request_duration_seconds",
				Help:    "Latency of requests sent to the TTS service",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"op"},
		),
	}

	m.registry.MustRegister(m.requests, m.duration)
	return m
}

// ObserveRequest records one finished request. status 0 means a transport failure.
func (m *Metrics) ObserveRequest(op string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.requests.WithLabelValues(op, label).Inc()
	m.duration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until the server fails.
func (m *Metrics) Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	m.logger.Info("metrics endpoint listening", zap.String("addr", addr))
	return http.ListenAndServe(addr, mux)
}
