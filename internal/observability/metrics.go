package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the client.
type Metrics struct {
	APIRequests           *prometheus.CounterVec
	UnauthorizedEvictions prometheus.Counter
	ActiveCalls           prometheus.Gauge
	CallEvents            *prometheus.CounterVec
	CallSetupSeconds      prometheus.Histogram
	NotifyMessages        *prometheus.CounterVec
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		APIRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Backend API requests by method and status class.",
		}, []string{"method", "status"}),
		UnauthorizedEvictions: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unauthorized_evictions_total",
			Help:      "Sessions cleared after an unauthorized response.",
		}),
		ActiveCalls: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_calls",
			Help:      "Number of call sessions currently in a room.",
		}),
		CallEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "call_events_total",
			Help:      "Call engine events by type.",
		}, []string{"event"}),
		CallSetupSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "call_setup_seconds",
			Help:      "Time from call start to publishing, in seconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 3, 5, 10},
		}),
		NotifyMessages: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notify_messages_total",
			Help:      "Incoming notification records by source and type.",
		}, []string{"source", "type"}),
	}
}

func (m *Metrics) ObserveCallSetup(d time.Duration) {
	m.CallSetupSeconds.Observe(d.Seconds())
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
