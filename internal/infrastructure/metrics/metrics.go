// internal/infrastructure/metrics/metrics.go
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cryptoweb"

// Metrics - счетчики сервиса на собственном реестре.
// Все методы безопасны для nil-получателя.
type Metrics struct {
	registry *prometheus.Registry

	BroadcastTicks  prometheus.Counter
	BroadcastEvents prometheus.Counter
	FetchFailures   *prometheus.CounterVec
	HTTPRequests    *prometheus.CounterVec
	AIRequests      *prometheus.CounterVec
	WSDroppedEvents prometheus.Counter
	WSSubscribers   prometheus.Gauge
}

// New создает и регистрирует метрики
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		BroadcastTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broadcast_ticks_total",
			Help:      "Broadcast loop ticks",
		}),
		BroadcastEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broadcast_events_total",
			Help:      "Prices events published",
		}),
		FetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "price_fetch_failures_total",
			Help:      "Failed price fetches during broadcast",
		}, []string{"symbol"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status",
		}, []string{"method", "path", "status"}),
		AIRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ai_requests_total",
			Help:      "Generative model requests by outcome",
		}, []string{"outcome"}),
		WSDroppedEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_dropped_events_total",
			Help:      "Events dropped for slow websocket subscribers",
		}),
		WSSubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ws_subscribers",
			Help:      "Connected websocket subscribers",
		}),
	}

	m.registry.MustRegister(
		m.BroadcastTicks,
		m.BroadcastEvents,
		m.FetchFailures,
		m.HTTPRequests,
		m.AIRequests,
		m.WSDroppedEvents,
		m.WSSubscribers,
		collectors.NewGoCollector(),
	)
	return m
}

// Handler - обработчик /metrics
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) IncTick() {
	if m != nil {
		m.BroadcastTicks.Inc()
	}
}

func (m *Metrics) IncBroadcast() {
	if m != nil {
		m.BroadcastEvents.Inc()
	}
}

func (m *Metrics) IncFetchFailure(symbol string) {
	if m != nil {
		m.FetchFailures.WithLabelValues(symbol).Inc()
	}
}

// ObserveHTTP учитывает завершенный HTTP-запрос
func (m *Metrics) ObserveHTTP(method, path string, status int) {
	if m != nil {
		m.HTTPRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	}
}

func (m *Metrics) IncAIRequest(outcome string) {
	if m != nil {
		m.AIRequests.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncWSDropped() {
	if m != nil {
		m.WSDroppedEvents.Inc()
	}
}

func (m *Metrics) SetWSSubscribers(n int) {
	if m != nil {
		m.WSSubscribers.Set(float64(n))
	}
}
