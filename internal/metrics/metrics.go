package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

// Registry holds the SDK's Prometheus metrics. Each Session owns one so two
// sessions in the same process never collide on collector registration.
type Registry struct {
	reg *prometheus.Registry

	// API call metrics, labelled by route class and result
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestRetries  *prometheus.CounterVec

	// Response cache metrics
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter

	// Circuit breaker state per route class (0 closed, 1 half-open, 2 open)
	BreakerState *prometheus.GaugeVec
}

func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marquee_requests_total",
				Help: "Total API requests by route class and result",
			},
			[]string{"class", "result"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "marquee_request_duration_seconds",
				Help:    "API request latency by route class",
				Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"class"},
		),
		RequestRetries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marquee_request_retries_total",
				Help: "Retried API requests by route class",
			},
			[]string{"class"},
		),
		CacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "marquee_cache_hits_total",
				Help: "Response cache hits",
			},
		),
		CacheMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "marquee_cache_misses_total",
				Help: "Response cache misses",
			},
		),
		BreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "marquee_breaker_state",
				Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
			},
			[]string{"class"},
		),
	}

	r.reg.MustRegister(
		r.RequestsTotal,
		r.RequestDuration,
		r.RequestRetries,
		r.CacheHits,
		r.CacheMisses,
		r.BreakerState,
	)
	return r
}

// Handler exposes the registry for scraping; the preview server mounts it at
// /metrics.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// CounterValue reads the current value of a counter, for tests and the CLI
// status output.
func CounterValue(c prometheus.Counter) float64 {
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}
