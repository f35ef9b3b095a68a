package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CartMetrics records cart mutations and durable-store outcomes.
type CartMetrics struct {
	mutations       *prometheus.CounterVec
	persistFailures *prometheus.CounterVec
	loadDuration    prometheus.Histogram
	checkouts       prometheus.Counter
}

// NewCartMetrics registers the cart metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Cart mutations applied, by operation.",
	}, []string{"op"})
	persistFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_persistence_failures_total",
		Help: "Durable store failures swallowed by the cart, by operation.",
	}, []string{"op"})
	loadDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cart_initial_load_seconds",
		Help:    "Time from start until the persisted cart finished loading.",
		Buckets: prometheus.DefBuckets,
	})
	checkouts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_checkouts_total",
		Help: "Completed simulated checkouts.",
	})
	reg.MustRegister(mutations, persistFailures, loadDuration, checkouts)
	return &CartMetrics{
		mutations:       mutations,
		persistFailures: persistFailures,
		loadDuration:    loadDuration,
		checkouts:       checkouts,
	}
}

func (c *CartMetrics) IncMutation(op string) {
	if c == nil || c.mutations == nil {
		return
	}
	c.mutations.WithLabelValues(normalizeLabel(op)).Inc()
}

func (c *CartMetrics) IncPersistFailure(op string) {
	if c == nil || c.persistFailures == nil {
		return
	}
	c.persistFailures.WithLabelValues(normalizeLabel(op)).Inc()
}

func (c *CartMetrics) ObserveLoad(duration time.Duration) {
	if c == nil || c.loadDuration == nil {
		return
	}
	c.loadDuration.Observe(duration.Seconds())
}

func (c *CartMetrics) IncCheckout() {
	if c == nil || c.checkouts == nil {
		return
	}
	c.checkouts.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
