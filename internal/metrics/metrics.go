package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/five82/ntdash/internal/nt"
	"github.com/five82/ntdash/internal/value"
)

const namespace = "ntdash"

// Metrics implements nt.Observer.
type Metrics struct {
	refreshes       *prometheus.CounterVec
	refreshFailures *prometheus.CounterVec
	mergedSamples   *prometheus.CounterVec
	cachedPaths     *prometheus.GaugeVec
	refreshLatency  *prometheus.HistogramVec
	publishes       *prometheus.CounterVec
	rejections      *prometheus.CounterVec
}

var _ nt.Observer = (*Metrics)(nil)

// New registers every collector on reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refreshes_total",
			Help:      "Subscription refreshes that were applied to the cache.",
		}, []string{"pattern"}),
		refreshFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_failures_total",
			Help:      "Subscription refreshes that failed.",
		}, []string{"pattern"}),
		mergedSamples: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "merged_samples_total",
			Help:      "History samples merged into subscription caches.",
		}, []string{"pattern"}),
		cachedPaths: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cached_paths",
			Help:      "Paths held by a subscription cache after its last refresh.",
		}, []string{"pattern"}),
		refreshLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_latency_seconds",
			Help:      "Time from refresh request to merged cache.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		}, []string{"pattern"}),
		publishes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publishes_total",
			Help:      "Values forwarded to the backend.",
		}, []string{"type"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_rejections_total",
			Help:      "Backend replies that refused a command.",
		}, []string{"command"}),
	}

	collectors := []prometheus.Collector{
		m.refreshes, m.refreshFailures, m.mergedSamples, m.cachedPaths,
		m.refreshLatency, m.publishes, m.rejections,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) Refreshed(pattern string, stats nt.RefreshStats, err error) {
	m.refreshLatency.WithLabelValues(pattern).Observe(stats.Elapsed.Seconds())
	if err != nil {
		m.refreshFailures.WithLabelValues(pattern).Inc()
		return
	}
	m.refreshes.WithLabelValues(pattern).Inc()
	m.mergedSamples.WithLabelValues(pattern).Add(float64(stats.Merged))
	m.cachedPaths.WithLabelValues(pattern).Set(float64(stats.Paths))
}

func (m *Metrics) Published(topic string, tag value.Tag) {
	m.publishes.WithLabelValues(tag.String()).Inc()
}

func (m *Metrics) Rejected(command string) {
	m.rejections.WithLabelValues(command).Inc()
}

// Handler serves g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
