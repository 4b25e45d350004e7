package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)

	require.NoError(t, metrics.Track("session:revalidate").End(nil))
	failure := errors.New("remote down")
	require.ErrorIs(t, metrics.Track("session:revalidate").End(failure), failure)

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.runs.WithLabelValues("session:revalidate", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.runs.WithLabelValues("session:revalidate", "failure")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.failures.WithLabelValues("session:revalidate")))
}

func TestNilMetricsTrackerIsPassthrough(t *testing.T) {
	var metrics *Metrics
	failure := errors.New("boom")
	assert.ErrorIs(t, metrics.Track("anything").End(failure), failure)
}
