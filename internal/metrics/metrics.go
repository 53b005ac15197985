package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "event_finder"

// Enrichment outcome labels.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Metrics groups the service's Prometheus collectors.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	enrichmentRequests *prometheus.CounterVec
	searchDuration     prometheus.Histogram
	storeUp            prometheus.Gauge
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{}
	m.enrichmentRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "enrichment_requests_total",
		Help:      "Number of enrichment lookups by provider and status",
	}, []string{"provider", "status"})
	m.searchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "search_duration_seconds",
		Help:      "Time spent serving nearby event searches",
		Buckets:   prometheus.DefBuckets,
	})
	m.storeUp = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "store_up",
		Help:      "1 if the last store ping succeeded, 0 otherwise",
	})

	reg.MustRegister(m.enrichmentRequests, m.searchDuration, m.storeUp)
	return m
}

// ObserveEnrichment counts one enrichment lookup.
func (m *Metrics) ObserveEnrichment(provider, status string) {
	if m == nil {
		return
	}
	m.enrichmentRequests.WithLabelValues(provider, status).Inc()
}

// ObserveSearch records how long a search took.
func (m *Metrics) ObserveSearch(d time.Duration) {
	if m == nil {
		return
	}
	m.searchDuration.Observe(d.Seconds())
}

// SetStoreUp records the latest store ping result.
func (m *Metrics) SetStoreUp(up bool) {
	if m == nil {
		return
	}
	if up {
		m.storeUp.Set(1)
		return
	}
	m.storeUp.Set(0)
}
