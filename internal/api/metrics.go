package api

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nerrad567/itemvault/internal/item"
)

const metricsNamespace = "itemvault"

// Metrics holds the Prometheus collectors exposed on /metrics.
//
// It is also an item.EventSink so the item gauge follows mutations.
type Metrics struct {
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	authEvents      *prometheus.CounterVec
	itemsTotal      prometheus.Gauge
	mqttConnected   prometheus.Gauge
}

// NewMetrics creates the collectors and registers them on registry. A nil
// registry gets a fresh one with the Go runtime and process collectors.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	m := &Metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route pattern and status code",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and route pattern",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		authEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "auth_events_total",
			Help:      "Signup, login and refresh attempts by outcome",
		}, []string{"event", "outcome"}),
		itemsTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "items_total",
			Help:      "Number of stored items",
		}),
		mqttConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "mqtt_connected",
			Help:      "1 while the MQTT broker connection is up",
		}),
	}

	registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.authEvents,
		m.itemsTotal,
		m.mqttConnected,
	)
	return m
}

// Registry returns the registry backing /metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRequest records one completed HTTP request.
func (m *Metrics) ObserveRequest(method, route, status string, elapsed time.Duration) {
	m.requestsTotal.WithLabelValues(method, route, status).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// AuthEvent counts one signup, login or refresh attempt.
func (m *Metrics) AuthEvent(event, outcome string) {
	m.authEvents.WithLabelValues(event, outcome).Inc()
}

// SetItems sets the item gauge, used once at startup.
func (m *Metrics) SetItems(n int) {
	m.itemsTotal.Set(float64(n))
}

// SetMQTTConnected tracks the broker connection across drops and reconnects.
func (m *Metrics) SetMQTTConnected(up bool) {
	if up {
		m.mqttConnected.Set(1)
		return
	}
	m.mqttConnected.Set(0)
}

// ItemChanged implements item.EventSink.
func (m *Metrics) ItemChanged(_ context.Context, ev item.Event) {
	switch ev.Action {
	case item.ActionCreated:
		m.itemsTotal.Inc()
	case item.ActionDeleted:
		m.itemsTotal.Dec()
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
