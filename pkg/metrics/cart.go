package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CartMetrics records counters for the cart engine.
type CartMetrics struct {
	mutations     *prometheus.CounterVec
	persistErrors prometheus.Counter
	fetchErrors   prometheus.Counter
	projections   prometheus.Counter
}

// NewCartMetrics registers the cart metrics on the provided registerer.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Applied cart state transitions by action.",
	}, []string{"action"})
	persistErrors := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_persist_failures_total",
		Help: "Failed cart snapshot writes.",
	})
	fetchErrors := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_variant_fetch_failures_total",
		Help: "Failed canonical variant fetches.",
	})
	projections := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_checkout_projections_total",
		Help: "Checkout line-item projections produced.",
	})
	reg.MustRegister(mutations, persistErrors, fetchErrors, projections)
	return &CartMetrics{
		mutations:     mutations,
		persistErrors: persistErrors,
		fetchErrors:   fetchErrors,
		projections:   projections,
	}
}

// IncMutation increments the mutation counter for the named action.
func (c *CartMetrics) IncMutation(action string) {
	if c == nil || c.mutations == nil {
		return
	}
	if action == "" {
		action = "unknown"
	}
	c.mutations.WithLabelValues(action).Inc()
}

// IncPersistFailure increments the snapshot write failure counter.
func (c *CartMetrics) IncPersistFailure() {
	if c == nil || c.persistErrors == nil {
		return
	}
	c.persistErrors.Inc()
}

// IncFetchFailure increments the variant fetch failure counter.
func (c *CartMetrics) IncFetchFailure() {
	if c == nil || c.fetchErrors == nil {
		return
	}
	c.fetchErrors.Inc()
}

// IncProjection increments the checkout projection counter.
func (c *CartMetrics) IncProjection() {
	if c == nil || c.projections == nil {
		return
	}
	c.projections.Inc()
}
