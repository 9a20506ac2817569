// Package metrics exposes Prometheus counters for render outcomes and token
// refreshes.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Render formats.
const (
	FormatHTML   = "html"
	FormatOEmbed = "oembed"
	FormatJSON   = "json"
)

// Outcomes shared by render and token counters.
const (
	OutcomeOK            = "ok"
	OutcomeUpstreamError = "upstream_error"
	OutcomeInternalError = "internal_error"
	OutcomeBadRequest    = "bad_request"

	OutcomeRefreshed = "refreshed"
	OutcomeFailed    = "failed"
	OutcomeNoToken   = "no_token"
)

// Metrics holds the service's collectors on a private registry. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry       *prometheus.Registry
	renders        *prometheus.CounterVec
	tokenRefreshes *prometheus.CounterVec
}

// New creates the collectors and registers them together with the Go runtime
// and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tumblrembed",
			Name:      "renders_total",
			Help:      "Embed responses by format and outcome.",
		}, []string{"format", "outcome"}),
		tokenRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tumblrembed",
			Name:      "token_refresh_total",
			Help:      "Refresh-token resolutions by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(
		m.renders,
		m.tokenRefreshes,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveRender counts one response.
func (m *Metrics) ObserveRender(format, outcome string) {
	if m == nil {
		return
	}
	m.renders.WithLabelValues(format, outcome).Inc()
}

// ObserveTokenRefresh counts one credential resolution.
func (m *Metrics) ObserveTokenRefresh(outcome string) {
	if m == nil {
		return
	}
	m.tokenRefreshes.WithLabelValues(outcome).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
