// Package metrics exposes Prometheus collectors for billing runs and payments.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "messbill"

// Metrics holds the collectors. A nil *Metrics records nothing.
type Metrics struct {
	billsGenerated     prometheus.Counter
	billsSkipped       prometheus.Counter
	generationDuration prometheus.Histogram
	configFailures     prometheus.Counter
	payments           *prometheus.CounterVec
	rpcDuration        *prometheus.HistogramVec
}

// New registers all collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		billsGenerated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bills_generated_total",
			Help:      "Bills created by monthly generation runs.",
		}),
		billsSkipped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bills_skipped_total",
			Help:      "Members skipped because a bill for the period already existed.",
		}),
		generationDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Duration of monthly generation runs.",
			Buckets:   prometheus.DefBuckets,
		}),
		configFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_configuration_errors_total",
			Help:      "Generation runs aborted because the billable role is missing.",
		}),
		payments: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_total",
			Help:      "Payments applied to bills, by outcome.",
		}, []string{"outcome"}),
		rpcDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rpc_duration_seconds",
			Help:      "Connect RPC latency by procedure and code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"procedure", "code"}),
	}
}

// ObserveGeneration records one completed generation run.
func (m *Metrics) ObserveGeneration(generated, skipped int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.billsGenerated.Add(float64(generated))
	m.billsSkipped.Add(float64(skipped))
	m.generationDuration.Observe(elapsed.Seconds())
}

// ConfigurationFailure records a run aborted for configuration reasons.
func (m *Metrics) ConfigurationFailure() {
	if m == nil {
		return
	}
	m.configFailures.Inc()
}

// Payment records a payment attempt outcome ("applied", "rejected").
func (m *Metrics) Payment(outcome string) {
	if m == nil {
		return
	}
	m.payments.WithLabelValues(outcome).Inc()
}

// RPC records one served RPC.
func (m *Metrics) RPC(procedure, code string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.rpcDuration.WithLabelValues(procedure, code).Observe(elapsed.Seconds())
}

// Handler serves the collectors gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
