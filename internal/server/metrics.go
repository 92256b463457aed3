package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the server's Prometheus collectors on a private registry.
type Metrics struct {
	registry    *prometheus.Registry
	connections prometheus.Gauge
	broadcasts  *prometheus.CounterVec
	handsPlayed prometheus.Counter
	expired     prometheus.Counter
}

// NewMetrics registers the collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pineapple",
			Name:      "active_connections",
			Help:      "Number of live WebSocket connections.",
		}),
		broadcasts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pineapple",
			Name:      "broadcasts_total",
			Help:      "Room broadcasts by message type.",
		}, []string{"type"}),
		handsPlayed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pineapple",
			Name:      "hands_played_total",
			Help:      "Hands dealt across all rooms.",
		}),
		expired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pineapple",
			Name:      "expired_rooms_total",
			Help:      "Rooms reaped for idleness.",
		}),
	}
	m.registry.MustRegister(m.connections, m.broadcasts, m.handsPlayed, m.expired)
	return m
}

func (m *Metrics) SetConnections(n int) {
	m.connections.Set(float64(n))
}

func (m *Metrics) CountBroadcast(messageType string) {
	m.broadcasts.WithLabelValues(messageType).Inc()
}

func (m *Metrics) CountHand() {
	m.handsPlayed.Inc()
}

func (m *Metrics) CountExpiredRoom() {
	m.expired.Inc()
}

// Handler serves the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
