package metrics

import (
	"net/http"

	"care-meal-planner/internal/planner"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector exposes generation counters and model latency to Prometheus.
// It owns its registry so several collectors can coexist in tests.
type Collector struct {
	registry     *prometheus.Registry
	generations  *prometheus.CounterVec
	fallbacks    *prometheus.CounterVec
	modelLatency prometheus.Histogram
	rateLimited  prometheus.Counter
}

// NewCollector registers the meal-plan metrics and the Go runtime collectors.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		generations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mealplan_generations_total",
				Help: "Total number of generated meal plans by source",
			},
			[]string{"source"},
		),
		fallbacks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mealplan_fallbacks_total",
				Help: "Total number of fallback plans by failure kind",
			},
			[]string{"reason"},
		),
		modelLatency: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "mealplan_model_latency_seconds",
				Help:    "Latency of completed model calls in seconds",
				Buckets: []float64{1, 5, 10, 20, 30, 45, 60, 90, 120},
			},
		),
		rateLimited: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "mealplan_rate_limited_total",
				Help: "Total number of generation requests rejected by the rate limiter",
			},
		),
	}
}

// ObserveResult records one finished generation.
func (c *Collector) ObserveResult(res *planner.Result) {
	c.generations.WithLabelValues(string(res.Source)).Inc()
	if res.Source == planner.SourceFallback {
		c.fallbacks.WithLabelValues(res.FallbackKind).Inc()
	}
	if res.Meta.Latency > 0 {
		c.modelLatency.Observe(res.Meta.Latency.Seconds())
	}
}

// ObserveRateLimited counts a rejected request.
func (c *Collector) ObserveRateLimited() {
	c.rateLimited.Inc()
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
