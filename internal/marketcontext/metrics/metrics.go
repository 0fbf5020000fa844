package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the market context cache.
type Metrics struct {
	Lookups          *prometheus.CounterVec
	Rebuilds         *prometheus.CounterVec
	RebuildDuration  prometheus.Histogram
	UpstreamFailures *prometheus.CounterVec
	StaleServed      *prometheus.CounterVec
	Evictions        prometheus.Counter
	BreakerOpen      *prometheus.GaugeVec
}

// New creates a Metrics instance with all cache metrics registered.
func New() *Metrics {
	return &Metrics{
		Lookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "finsight_market_context_lookups_total",
			Help: "Summary lookups by tier and result",
		}, []string{"tier", "result"}), // result: "hit", "miss"

		Rebuilds: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "finsight_market_context_rebuilds_total",
			Help: "Summary rebuilds by tier and outcome",
		}, []string{"tier", "outcome"}), // outcome: "ok", "stale", "error", "discarded"

		RebuildDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "finsight_market_context_rebuild_duration_seconds",
			Help:    "Duration of summary rebuilds including upstream fetches",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),

		UpstreamFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "finsight_market_context_upstream_failures_total",
			Help: "Upstream fetch failures by component",
		}, []string{"component"}),

		StaleServed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "finsight_market_context_stale_served_total",
			Help: "Stale entries served after an upstream failure",
		}, []string{"key"}),

		Evictions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "finsight_market_context_evictions_total",
			Help: "Keys evicted by invalidation",
		}),

		BreakerOpen: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "finsight_market_context_breaker_open",
			Help: "1 while the upstream circuit for a component is open",
		}, []string{"component"}),
	}
}

func (m *Metrics) IncrementLookup(tier string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.Lookups.WithLabelValues(tier, result).Inc()
}

func (m *Metrics) ObserveRebuild(tier, outcome string, d time.Duration) {
	if m != nil {
		m.Rebuilds.WithLabelValues(tier, outcome).Inc()
		m.RebuildDuration.Observe(d.Seconds())
	}
}

func (m *Metrics) IncrementUpstreamFailure(component string) {
	if m != nil {
		m.UpstreamFailures.WithLabelValues(component).Inc()
	}
}

func (m *Metrics) IncrementStaleServed(key string) {
	if m != nil {
		m.StaleServed.WithLabelValues(key).Inc()
	}
}

func (m *Metrics) AddEvictions(n int) {
	if m != nil && n > 0 {
		m.Evictions.Add(float64(n))
	}
}

func (m *Metrics) SetBreakerOpen(component string, open bool) {
	if m == nil {
		return
	}
	v := 0.0
	if open {
		v = 1
	}
	m.BreakerOpen.WithLabelValues(component).Set(v)
}
