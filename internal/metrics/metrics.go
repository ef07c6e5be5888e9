package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry wraps the Prometheus collectors exported by the server.
type Registry struct {
	reg *prometheus.Registry

	SessionsOnline   prometheus.Gauge
	MatchesActive    prometheus.Gauge
	LoginsTotal      *prometheus.CounterVec
	PacketsTotal     *prometheus.CounterVec
	PacketErrors     prometheus.Counter
	SessionsEvicted  prometheus.Counter
	BytesQueuedTotal prometheus.Counter
}

// NewRegistry creates the server's Prometheus collectors on a fresh
// registry.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Registry{
		reg: reg,
		SessionsOnline: factory.NewGauge(prometheus.GaugeOpts{
			Name: "bancho_sessions_online",
			Help: "Number of sessions currently logged in",
		}),
		MatchesActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "bancho_matches_active",
			Help: "Number of multiplayer matches currently open",
		}),
		LoginsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bancho_logins_total",
			Help: "Login attempts by outcome",
		}, []string{"outcome"}),
		PacketsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bancho_packets_total",
			Help: "Client packets handled, by packet id",
		}, []string{"packet"}),
		PacketErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "bancho_packet_errors_total",
			Help: "Client packets that failed to parse or handle",
		}),
		SessionsEvicted: factory.NewCounter(prometheus.CounterOpts{
			Name: "bancho_sessions_evicted_total",
			Help: "Sessions evicted by the housekeeping loop",
		}),
		BytesQueuedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "bancho_bytes_queued_total",
			Help: "Bytes enqueued for delivery to clients",
		}),
	}
}

// Handler returns an HTTP handler exposing Prometheus metrics.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
