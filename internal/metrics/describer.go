package metrics

import "github.com/prometheus/client_golang/prometheus"

// Describer Prometheus metrics.
var (
	DescriberRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "imgdex",
			Name:      "describer_requests_total",
			Help:      "Total number of image description requests",
		},
		[]string{"provider", "model", "status"},
	)

	DescriberRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "imgdex",
			Name:      "describer_request_duration_seconds",
			Help:      "Image description request duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"provider", "model"},
	)

	DescriberErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "imgdex",
			Name:      "describer_errors_total",
			Help:      "Total image description errors",
		},
		[]string{"provider", "model", "error_type"},
	)

	DescriberTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "imgdex",
			Name:      "describer_tokens_total",
			Help:      "Total tokens consumed by image description",
		},
		[]string{"provider", "model", "type"},
	)

	DescriberBudgetTokensRemaining = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "imgdex",
			Name:      "describer_budget_tokens_remaining",
			Help:      "Remaining describer token budget (-1 when unlimited)",
		},
		[]string{"provider", "period"},
	)
)

var describerMetricsRegistered bool

// RegisterDescriberMetrics registers Prometheus describer metrics. Must be called once from main.
func RegisterDescriberMetrics() {
	if describerMetricsRegistered {
		return
	}
	prometheus.MustRegister(DescriberRequestsTotal)
	prometheus.MustRegister(DescriberRequestDuration)
	prometheus.MustRegister(DescriberErrorsTotal)
	prometheus.MustRegister(DescriberTokensTotal)
	prometheus.MustRegister(DescriberBudgetTokensRemaining)
	describerMetricsRegistered = true
}
