package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collectors for the engagement service. Registered on the default registry
// at package init so every component can record without wiring.
var (
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "engage_active_connections",
		Help: "Currently connected websocket clients.",
	})

	EventsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "engage_events_emitted_total",
		Help: "Realtime events fanned out, by event name.",
	}, []string{"event"})

	VotesSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "engage_votes_submitted_total",
		Help: "Poll votes accepted, by poll type.",
	}, []string{"type"})

	BroadcastErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "engage_broadcast_errors_total",
		Help: "Broadcast deliveries dropped or failed.",
	})

	MessagesProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "engage_socket_messages_processed_total",
		Help: "Inbound socket messages handled by the hub.",
	})
)
