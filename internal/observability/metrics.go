package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	ActiveRooms              prometheus.Gauge
	SessionEvents            *prometheus.CounterVec
	TokensIssued             *prometheus.CounterVec
	PlatformErrors           *prometheus.CounterVec
	BroadcastCleanupFailures prometheus.Counter
	SIPCallEvents            *prometheus.CounterVec
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		ActiveRooms: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_rooms",
			Help:      "Number of rooms bound to a platform session.",
		}),
		SessionEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_events_total",
			Help:      "Session coordination events by type (created, reused).",
		}, []string{"event"}),
		TokensIssued: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_issued_total",
			Help:      "Client tokens minted by role.",
		}, []string{"role"}),
		PlatformErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "platform_errors_total",
			Help:      "Platform API failures by operation.",
		}, []string{"operation"}),
		BroadcastCleanupFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broadcast_cleanup_failures_total",
			Help:      "Best-effort pre-start broadcast stop attempts that failed.",
		}),
		SIPCallEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sip_call_events_total",
			Help:      "SIP bridge events by type (provisioned, dialed, hangup, completed).",
		}, []string{"event"}),
	}
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
