// Package metrics exposes prometheus collectors for the messaging core.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	ActiveConnections prometheus.Gauge
	HandshakeFailures *prometheus.CounterVec
	MessagesSent      prometheus.Counter
	EventsHandled     *prometheus.CounterVec
	RoomBroadcasts    prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		ActiveConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wavechat",
			Name:      "active_connections",
			Help:      "Number of live WebSocket connections.",
		}),
		HandshakeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wavechat",
			Name:      "handshake_failures_total",
			Help:      "Connection handshakes rejected, by reason.",
		}, []string{"reason"}),
		MessagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wavechat",
			Name:      "messages_sent_total",
			Help:      "Messages persisted via message.send.",
		}),
		EventsHandled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wavechat",
			Name:      "events_handled_total",
			Help:      "Inbound events processed, by event name and outcome.",
		}, []string{"event", "outcome"}),
		RoomBroadcasts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wavechat",
			Name:      "room_broadcasts_total",
			Help:      "Frames fanned out to conversation rooms.",
		}),
	}
	reg.MustRegister(
		m.ActiveConnections,
		m.HandshakeFailures,
		m.MessagesSent,
		m.EventsHandled,
		m.RoomBroadcasts,
	)
	return m
}

// Handler serves the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
