package lsp

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sx-network/lsp-deployer/metrics"
)

// Metrics holds deployment metrics.
type Metrics struct {
	DeploymentsTotal   *prometheus.CounterVec
	DeploymentDuration *prometheus.HistogramVec
	TransactionsTotal  *prometheus.CounterVec
	ValidationFailures *prometheus.CounterVec
	InFlight           prometheus.Gauge
	ReceiptWait        prometheus.Histogram
	PairsWithoutParams prometheus.Counter
}

// NewMetrics registers deployment metrics on the process registry.
func NewMetrics() *Metrics {
	return newMetrics(metrics.NewComponentRegistry("lsp", "deployer"))
}

func newMetrics(reg *metrics.ComponentRegistry) *Metrics {
	return &Metrics{
		DeploymentsTotal: reg.NewCounterVec(prometheus.CounterOpts{
			Name: "deployments_total",
			Help: "Deployments by outcome (deployed, simulated, failed) and error kind",
		}, []string{"outcome", "kind"}),

		DeploymentDuration: reg.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "deployment_duration_seconds",
			Help:    "Wall time of a deployment including receipt waits",
			Buckets: metrics.DurationBuckets,
		}, []string{"outcome"}),

		TransactionsTotal: reg.NewCounterVec(prometheus.CounterOpts{
			Name: "transactions_total",
			Help: "Transactions submitted by kind (create, fpl_params) and status",
		}, []string{"kind", "status"}),

		ValidationFailures: reg.NewCounterVec(prometheus.CounterOpts{
			Name: "validation_failures_total",
			Help: "Rejected deploy requests by field",
		}, []string{"field"}),

		InFlight: reg.NewGauge(prometheus.GaugeOpts{
			Name: "deployments_in_flight",
			Help: "Deployments currently running",
		}),

		ReceiptWait: reg.NewHistogram(prometheus.HistogramOpts{
			Name:    "receipt_wait_seconds",
			Help:    "Time between submitting a transaction and its receipt",
			Buckets: metrics.DurationBuckets,
		}),

		PairsWithoutParams: reg.NewCounter(prometheus.CounterOpts{
			Name: "pairs_without_parameters_total",
			Help: "Pairs created whose financial product library parameters were not confirmed",
		}),
	}
}
