package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry bundles the service's Prometheus collectors.
type Registry struct {
	reg *prometheus.Registry

	RequestsTotal    *prometheus.CounterVec
	AttemptsTotal    *prometheus.CounterVec
	AttemptLatency   *prometheus.HistogramVec
	FallbackTotal    *prometheus.CounterVec
	RateLimitDenials prometheus.Counter
}

func New() *Registry {
	reg := prometheus.NewRegistry()
	m := &Registry{
		reg: reg,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reflectd_requests_total",
			Help: "Reflection/summary requests served",
		}, []string{"mode", "provider", "status"}),
		AttemptsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reflectd_provider_attempts_total",
			Help: "Individual provider attempts by outcome",
		}, []string{"provider", "outcome"}),
		AttemptLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "reflectd_provider_attempt_latency_ms",
			Help:    "Provider attempt latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(50, 2, 10),
		}, []string{"provider"}),
		FallbackTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reflectd_fallback_total",
			Help: "Requests resolved by the static fallback template",
		}, []string{"mode"}),
		RateLimitDenials: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reflectd_ratelimit_denials_total",
			Help: "Requests rejected by the per-IP rate limiter",
		}),
	}
	reg.MustRegister(m.RequestsTotal, m.AttemptsTotal, m.AttemptLatency, m.FallbackTotal, m.RateLimitDenials)
	return m
}

func (m *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
