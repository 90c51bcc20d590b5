package auction

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the prometheus collectors for one market. Each Market owns
// its own instance rather than using package-level globals so multiple
// markets in one process don't collide; callers register Collectors() with
// a shared registry at startup.
type Metrics struct {
	clearingPasses prometheus.Counter
	clearingPrice  prometheus.Gauge
	ringDepth      prometheus.Gauge
	clearLatency   prometheus.Histogram
}

func newMetrics(marketName string) *Metrics {
	labels := prometheus.Labels{"market": marketName}
	return &Metrics{
		clearingPasses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "transactive_sim",
			Subsystem:   "auction",
			Name:        "clearing_passes_total",
			Help:        "Number of completed clearing passes.",
			ConstLabels: labels,
		}),
		clearingPrice: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "transactive_sim",
			Subsystem:   "auction",
			Name:        "clearing_price",
			Help:        "Most recent clearing price.",
			ConstLabels: labels,
		}),
		ringDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "transactive_sim",
			Subsystem:   "auction",
			Name:        "latency_ring_depth",
			Help:        "Number of frames currently buffered in the latency ring.",
			ConstLabels: labels,
		}),
		clearLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   "transactive_sim",
			Subsystem:   "auction",
			Name:        "clear_duration_seconds",
			Help:        "Wall-clock time spent in one clearing pass.",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: labels,
		}),
	}
}

// Collectors returns every prometheus.Collector so callers can register
// them with a registry (see internal/dashboard).
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.clearingPasses, m.clearingPrice, m.ringDepth, m.clearLatency}
}
