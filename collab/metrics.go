package collab

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes counters for the coordination subsystem. Dropped events in
// particular must always be observable; silent loss is a correctness bug in a
// collaboration protocol.
type Metrics struct {
	EventsEnqueued    prometheus.Counter
	EventsDropped     prometheus.Counter
	HandlerPanics     prometheus.Counter
	BroadcastFailures prometheus.Counter
	ActiveSessions    prometheus.Gauge
}

// NewMetrics registers and returns the subsystem's metrics
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		EventsEnqueued: factory.NewCounter(prometheus.CounterOpts{
			Name: "picshed_collab_events_enqueued_total",
			Help: "Edit events accepted into the ingestion pipeline.",
		}),
		EventsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "picshed_collab_events_dropped_total",
			Help: "Edit events rejected because the ingestion pipeline was full.",
		}),
		HandlerPanics: factory.NewCounter(prometheus.CounterOpts{
			Name: "picshed_collab_handler_panics_total",
			Help: "Panics recovered in message handlers.",
		}),
		BroadcastFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "picshed_collab_broadcast_failures_total",
			Help: "Broadcast deliveries skipped because a session's send buffer was full or closed.",
		}),
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "picshed_collab_active_sessions",
			Help: "Currently connected editing sessions.",
		}),
	}
}
