package metrics_test

import (
	"testing"

	"domainwatch/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCountBatch(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	m.CountBatch(false, 3, 2, 0.5)
	m.CountBatch(true, 0, 5, 1.5)

	require.Equal(t, 1.0, testutil.ToFloat64(m.BatchesCompleted))
	require.Equal(t, 1.0, testutil.ToFloat64(m.BatchesFailed))
	require.Equal(t, 3.0, testutil.ToFloat64(m.MatchesFound))
	require.Equal(t, 7.0, testutil.ToFloat64(m.RequestAttempts))
}

func TestCountRejected(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	m.CountRejected(4)
	m.CountRejected(0)
	m.CountRejected(-1)

	require.Equal(t, 4.0, testutil.ToFloat64(m.DomainsRejected))
}

func TestNilReceiverIsSafe(t *testing.T) {
	var m *metrics.Metrics

	require.NotPanics(t, func() {
		m.CountBatch(false, 1, 1, 0.1)
		m.CountRejected(1)
	})
}
