package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Store command Prometheus metrics.
var (
	StoreCommandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "imgdex",
			Name:      "store_commands_total",
			Help:      "Redis commands by operation and status",
		},
		[]string{"op", "status"},
	)

	StoreCommandDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "imgdex",
			Name:      "store_command_duration_seconds",
			Help:      "Redis command round-trip duration in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
		},
		[]string{"op"},
	)
)

var storeMetricsRegistered bool

// RegisterStoreMetrics registers Prometheus store metrics. Must be called once from main.
func RegisterStoreMetrics() {
	if storeMetricsRegistered {
		return
	}
	prometheus.MustRegister(StoreCommandsTotal)
	prometheus.MustRegister(StoreCommandDuration)
	storeMetricsRegistered = true
}

// ObserveStoreCommand records one store command. It matches db.CommandObserver.
func ObserveStoreCommand(op string, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	StoreCommandsTotal.WithLabelValues(op, status).Inc()
	StoreCommandDuration.WithLabelValues(op).Observe(d.Seconds())
}
