// Package metrics exposes the process' prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "roomcoord"

var (
	Connections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "connections",
		Help:      "Live real-time connections.",
	})

	Events = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_total",
		Help:      "Inbound events by topic and acknowledgement status.",
	}, []string{"topic", "status"})

	Emitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "emitted_total",
		Help:      "Outbound frames by topic.",
	}, []string{"topic"})

	Dropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dropped_frames_total",
		Help:      "Outbound frames dropped on backpressure.",
	})

	Refused = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "handshakes_refused_total",
		Help:      "Connections refused by the authentication gate.",
	})

	Reaped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rooms_reaped_total",
		Help:      "Idle rooms deleted by the reaper.",
	})
)

// RegisterStateGauges exposes presence and screen-share sizes read at scrape time.
func RegisterStateGauges(reg prometheus.Registerer, presenceRooms, activeShares func() int) {
	reg.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "presence_rooms",
			Help:      "Rooms with at least one present identity.",
		}, func() float64 { return float64(presenceRooms()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "screen_shares_active",
			Help:      "Rooms with an active presenter.",
		}, func() float64 { return float64(activeShares()) }),
	)
}
