package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	fallbackAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reservas",
			Name:      "fallback_attempts_total",
			Help:      "Remote write attempts per operation and outcome (ok, miss, error).",
		},
		[]string{"op", "outcome"},
	)

	fallbackExhausted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reservas",
			Name:      "fallback_exhausted_total",
			Help:      "Operations that failed on every shift encoding candidate.",
		},
		[]string{"op"},
	)

	realtimeEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reservas",
			Name:      "realtime_events_total",
			Help:      "Realtime change events by type and merge result.",
		},
		[]string{"type", "result"},
	)

	refetchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "reservas",
			Name:      "refetch_duration_seconds",
			Help:      "Duration of full refetches of the active date.",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(fallbackAttempts, fallbackExhausted, realtimeEvents, refetchDuration)
	})
}

func IncFallbackAttempt(op, outcome string) {
	fallbackAttempts.WithLabelValues(op, outcome).Inc()
}

func IncFallbackExhausted(op string) {
	fallbackExhausted.WithLabelValues(op).Inc()
}

func IncRealtimeEvent(eventType, result string) {
	realtimeEvents.WithLabelValues(eventType, result).Inc()
}

func ObserveRefetch(d time.Duration) {
	refetchDuration.Observe(d.Seconds())
}
