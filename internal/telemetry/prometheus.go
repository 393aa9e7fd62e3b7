package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prom bundles the Prometheus registry with the counters served on /metrics.
// OTel covers request-level RED metrics; these counters track the internal
// operations OTLP export does not see.
type Prom struct {
	Registry *prometheus.Registry

	// FanoutFailuresTotal counts mailbox appends that failed during event
	// fanout. Fanout errors are invisible to API callers, so this counter is
	// the only signal operators get.
	FanoutFailuresTotal prometheus.Counter

	// RateLimitRejectionsTotal counts requests rejected by the per-user
	// limiter.
	RateLimitRejectionsTotal prometheus.Counter
}

// NewProm creates a registry with go runtime collectors plus the
// application counters.
func NewProm() *Prom {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	fanoutFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "agileboard_fanout_failures_total",
		Help: "Total number of failed mailbox appends during event fanout",
	})
	rateLimitRejections := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "agileboard_rate_limit_rejections_total",
		Help: "Total number of requests rejected by the rate limiter",
	})
	registry.MustRegister(fanoutFailures, rateLimitRejections)

	return &Prom{
		Registry:                 registry,
		FanoutFailuresTotal:      fanoutFailures,
		RateLimitRejectionsTotal: rateLimitRejections,
	}
}

// Handler serves the registry in the Prometheus text format.
func (p *Prom) Handler() http.Handler {
	return promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{})
}
