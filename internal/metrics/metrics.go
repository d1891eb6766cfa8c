// Package metrics counts load outcomes on a private Prometheus registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nimafallahian/go-rdfload/internal/domain"
)

// Metrics holds the collectors of one process.
type Metrics struct {
	registry    *prometheus.Registry
	results     *prometheus.CounterVec
	inputErrors prometheus.Counter
	auditErrors prometheus.Counter
}

// New registers the collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rdfload_results_total",
			Help: "Processed notifications by outcome and status code detail.",
		}, []string{"outcome", "detail"}),
		inputErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rdfload_input_errors_total",
			Help: "Notifications rejected before reaching the loader.",
		}),
		auditErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rdfload_audit_errors_total",
			Help: "Load audit records that could not be indexed.",
		}),
	}

	reg.MustRegister(
		m.results,
		m.inputErrors,
		m.auditErrors,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Observe counts one processed notification.
func (m *Metrics) Observe(res domain.Result, inputErr bool) {
	if m == nil {
		return
	}
	if inputErr {
		m.inputErrors.Inc()
	}
	m.results.WithLabelValues(domain.Outcome(res, inputErr), string(res.StatusCodeDetail)).Inc()
}

// AuditFailed counts one audit record that was not indexed.
func (m *Metrics) AuditFailed() {
	if m == nil {
		return
	}
	m.auditErrors.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
