package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_ObserveEnrichment(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveEnrichment("weather", StatusOK)
	m.ObserveEnrichment("weather", StatusOK)
	m.ObserveEnrichment("distance", StatusError)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.enrichmentRequests.WithLabelValues("weather", StatusOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.enrichmentRequests.WithLabelValues("distance", StatusError)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.enrichmentRequests.WithLabelValues("distance", StatusOK)))
}

func TestMetrics_ObserveSearch(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveSearch(120 * time.Millisecond)

	n, err := testutil.GatherAndCount(reg, "event_finder_search_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMetrics_SetStoreUp(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.SetStoreUp(true)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.storeUp))

	m.SetStoreUp(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.storeUp))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveEnrichment("weather", StatusOK)
		m.ObserveSearch(time.Second)
		m.SetStoreUp(true)
	})
}

func TestNew_RegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)

	assert.Panics(t, func() { New(reg) })
}
