package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestComponentRegistry_ReRegisterReturnsExisting(t *testing.T) {
	reg := prometheus.NewRegistry()
	a := NewComponentRegistryWith(reg, "lsp", "test").NewCounterVec(prometheus.CounterOpts{
		Name: "events_total",
		Help: "events",
	}, []string{"kind"})
	b := NewComponentRegistryWith(reg, "lsp", "test").NewCounterVec(prometheus.CounterOpts{
		Name: "events_total",
		Help: "events",
	}, []string{"kind"})

	a.WithLabelValues("x").Inc()
	b.WithLabelValues("x").Inc()

	require.Equal(t, float64(2), testutil.ToFloat64(a.WithLabelValues("x")))
}

func TestComponentRegistry_AppliesNamespace(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewComponentRegistryWith(reg, "lsp", "deployer").NewCounter(prometheus.CounterOpts{
		Name: "runs_total",
		Help: "runs",
	})
	c.Inc()

	n, err := testutil.GatherAndCount(reg, "lsp_deployer_runs_total")
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestComponentRegistry_GaugeAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewComponentRegistryWith(reg, "lsp", "deployer")

	g := r.NewGauge(prometheus.GaugeOpts{Name: "in_flight", Help: "in flight"})
	g.Inc()
	g.Inc()
	g.Dec()
	require.Equal(t, float64(1), testutil.ToFloat64(g))

	h := r.NewHistogram(prometheus.HistogramOpts{Name: "wait_seconds", Help: "wait", Buckets: DurationBuckets})
	h.Observe(3)

	n, err := testutil.GatherAndCount(reg, "lsp_deployer_in_flight", "lsp_deployer_wait_seconds")
	require.NoError(t, err)
	require.Equal(t, 2, n)
}
