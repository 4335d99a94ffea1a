package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the lifecycle engine's prometheus collectors.
type Metrics struct {
	Transitions        *prometheus.CounterVec
	SideEffectFailures *prometheus.CounterVec
	Deliveries         *prometheus.CounterVec
	DeliveryLatency    *prometheus.HistogramVec
	AllowanceExpired   prometheus.Counter
}

var singleton = sync.OnceValue(func() *Metrics {
	return &Metrics{
		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "deal_request",
			Name:      "transitions_total",
			Help:      "Total number of status transition attempts by outcome.",
		}, []string{"from", "to", "outcome"}),
		SideEffectFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "deal_request",
			Name:      "side_effect_failures_total",
			Help:      "Total number of isolated side-effect failures.",
		}, []string{"effect"}),
		Deliveries: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dispatcher",
			Name:      "deliveries_total",
			Help:      "Total number of queue deliveries by result.",
		}, []string{"queue", "topic", "result"}),
		DeliveryLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dispatcher",
			Name:      "delivery_latency_seconds",
			Help:      "Latency distribution for handler execution.",
			Buckets: []float64{
				0.001, 0.005, 0.01, 0.05,
				0.1, 0.5, 1, 5,
			},
		}, []string{"queue", "topic"}),
		AllowanceExpired: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "deal_request",
			Name:      "allowance_expired_total",
			Help:      "Total number of requests cancelled by the allowance watchdog.",
		}),
	}
})

// Get returns the process-wide collectors.
func Get() *Metrics {
	return singleton()
}
