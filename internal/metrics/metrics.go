package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "doorphone",
		Name:      "events_published_total",
		Help:      "Door events published on the in-process bus.",
	}, []string{"topic"})

	ListenerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "doorphone",
		Name:      "listener_failures_total",
		Help:      "Bus listeners that returned an error or panicked.",
	}, []string{"topic"})

	Sessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "doorphone",
		Name:      "sse_sessions",
		Help:      "Open event stream connections.",
	})

	Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "doorphone",
		Name:      "notifications_total",
		Help:      "Outbound notifications by notifier and result.",
	}, []string{"notifier", "result"})
)
