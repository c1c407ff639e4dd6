package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	storeLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "celestial_store_latency_seconds",
			Help:    "Latency of one data-access operation (acquire, execute, release).",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"op"},
	)

	storeFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "celestial_store_failures_total",
			Help: "Failed data-access operations by failure code.",
		},
		[]string{"op", "code"},
	)
)

// instrument запускает таймер операции; возвращённую функцию вызывают с итоговой ошибкой
func instrument(op string) func(err error) {
	timer := prometheus.NewTimer(prometheus.ObserverFunc(func(v float64) {
		storeLatency.WithLabelValues(op).Observe(v)
	}))
	return func(err error) {
		timer.ObserveDuration()
		if err != nil {
			storeFailures.WithLabelValues(op, Code(err)).Inc()
		}
	}
}
