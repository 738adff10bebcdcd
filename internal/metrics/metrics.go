// Package metrics wraps the Prometheus collectors matchmakingd exposes on
// its diagnostics side-channel. It is pure instrumentation: nothing here
// participates in the SharedState mutation path, it only observes it.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry wraps the Prometheus collectors used by matchmakingd.
type Registry struct {
	ActiveSessions     prometheus.Gauge
	FramesDecoded      prometheus.Counter
	FramingErrors      prometheus.Counter
	ProtocolErrors     prometheus.Counter
	HandshakeFailures  prometheus.Counter
	// ChatMessagesRouted is registered and exported, but no code path
	// increments it, so it always reads zero.
	ChatMessagesRouted prometheus.Counter
	BroadcastTicks     prometheus.Counter
}

// NewRegistry creates the Prometheus metrics collectors.
func NewRegistry() *Registry {
	return &Registry{
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "matchmakingd_active_sessions",
			Help: "Number of currently connected sessions.",
		}),
		FramesDecoded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "matchmakingd_frames_decoded_total",
			Help: "Total number of wire frames successfully decoded.",
		}),
		FramingErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "matchmakingd_framing_errors_total",
			Help: "Total number of framing errors that terminated a session.",
		}),
		ProtocolErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "matchmakingd_protocol_errors_total",
			Help: "Total number of protocol errors that terminated a session.",
		}),
		HandshakeFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "matchmakingd_handshake_failures_total",
			Help: "Total number of rejected handshakes (version, auth, or name lookup).",
		}),
		ChatMessagesRouted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "matchmakingd_chat_messages_routed_total",
			Help: "Total number of chat messages fanned out to recipients.",
		}),
		BroadcastTicks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "matchmakingd_broadcast_ticks_total",
			Help: "Total number of periodic status-broadcast ticks that ran.",
		}),
	}
}

// Handler returns an HTTP handler exposing Prometheus metrics.
func (r *Registry) Handler() http.Handler {
	return promhttp.Handler()
}
