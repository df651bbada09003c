package imgdex

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "imgdex"

// sdkMetrics are the collectors a Client reports to when WithPrometheus is set.
type sdkMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	results    *prometheus.HistogramVec
}

func newSDKMetrics(reg prometheus.Registerer) (*sdkMetrics, error) {
	m := &sdkMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "sdk",
			Name:      "operations_total",
			Help:      "SDK calls by operation and outcome.",
		}, []string{"operation", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "sdk",
			Name:      "operation_duration_seconds",
			Help:      "SDK call latency in seconds.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"operation"}),
		results: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "sdk",
			Name:      "search_results",
			Help:      "Results returned per SDK search by quality.",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100},
		}, []string{"operation", "quality"}),
	}
	for _, err := range []error{
		registerOrReuse(reg, &m.operations),
		registerOrReuse(reg, &m.duration),
		registerOrReuse(reg, &m.results),
	} {
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

// registerOrReuse registers c, or swaps in the collector a previous Client
// already registered on the same registry.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	err := reg.Register(*c)
	if err == nil {
		return nil
	}
	var are prometheus.AlreadyRegisteredError
	if !errors.As(err, &are) {
		return fmt.Errorf("imgdex: register metric: %w", err)
	}
	existing, ok := are.ExistingCollector.(T)
	if !ok {
		return fmt.Errorf("imgdex: metric already registered as %T", are.ExistingCollector)
	}
	*c = existing
	return nil
}

// observer reports SDK calls to the configured logger and registry.
// A nil observer, logger or metrics set is a no-op.
type observer struct {
	logger  *slog.Logger
	metrics *sdkMetrics
}

func newObserver(logger *slog.Logger, reg prometheus.Registerer) (*observer, error) {
	o := &observer{logger: logger}
	if reg != nil {
		m, err := newSDKMetrics(reg)
		if err != nil {
			return nil, err
		}
		o.metrics = m
	}
	return o, nil
}

func (o *observer) observe(op string, start time.Time, err error, attrs ...slog.Attr) {
	if o == nil {
		return
	}
	dur := time.Since(start)

	if o.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		o.metrics.operations.WithLabelValues(op, status).Inc()
		o.metrics.duration.WithLabelValues(op).Observe(dur.Seconds())
	}

	if o.logger == nil {
		return
	}
	level, msg := slog.LevelDebug, "imgdex operation completed"
	attrs = append(attrs, slog.String("op", op), slog.Duration("duration", dur))
	if err != nil {
		level, msg = slog.LevelWarn, "imgdex operation failed"
		attrs = append(attrs, slog.Any("error", err))
	}
	o.logger.LogAttrs(context.Background(), level, msg, attrs...)
}

// observeSearch records a search call plus its result count and quality.
func (o *observer) observeSearch(op string, start time.Time, resp *Response, err error) {
	if o == nil {
		return
	}
	if resp == nil {
		o.observe(op, start, err)
		return
	}
	if o.metrics != nil {
		o.metrics.results.WithLabelValues(op, resp.Quality).Observe(float64(len(resp.Results)))
	}
	o.observe(op, start, err,
		slog.Int("results", len(resp.Results)),
		slog.String("quality", resp.Quality),
		slog.Any("strategies", resp.Strategies),
		slog.Int("failed_strategies", len(resp.Failures)),
	)
}
