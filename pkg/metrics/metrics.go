// Package metrics defines the Prometheus instrumentation for a check run.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DefaultBuckets provides a common set of histogram buckets in seconds that
// can be reused across the application for latency metrics.
var DefaultBuckets = []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30} //nolint: gochecknoglobals

// Metrics holds the counters and histograms updated by the batch engine.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// BatchesCompleted counts batches whose query finished successfully.
	BatchesCompleted prometheus.Counter
	// BatchesFailed counts batches abandoned after a fatal error or
	// retry exhaustion.
	BatchesFailed prometheus.Counter
	// MatchesFound counts matched domains across all batches.
	MatchesFound prometheus.Counter
	// RequestAttempts counts individual API requests, including retries.
	RequestAttempts prometheus.Counter
	// DomainsRejected counts input entries dropped by normalization.
	DomainsRejected prometheus.Counter
	// BatchDuration observes the wall-clock time of each batch,
	// including its retries.
	BatchDuration prometheus.Histogram
}

// New registers the run metrics with the given registerer and returns them.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		BatchesCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "domainwatch_batches_completed_total",
			Help: "Batches whose API query completed successfully.",
		}),
		BatchesFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "domainwatch_batches_failed_total",
			Help: "Batches abandoned after a fatal error or retry exhaustion.",
		}),
		MatchesFound: factory.NewCounter(prometheus.CounterOpts{
			Name: "domainwatch_matches_found_total",
			Help: "Domains reported as compromise-associated.",
		}),
		RequestAttempts: factory.NewCounter(prometheus.CounterOpts{
			Name: "domainwatch_request_attempts_total",
			Help: "API requests sent, including retries.",
		}),
		DomainsRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "domainwatch_domains_rejected_total",
			Help: "Input entries dropped by domain normalization.",
		}),
		BatchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "domainwatch_batch_duration_seconds",
			Help:    "Wall-clock duration of a batch including retries.",
			Buckets: DefaultBuckets,
		}),
	}
}

// CountBatch records a batch outcome. Safe on a nil receiver.
func (m *Metrics) CountBatch(failed bool, matches, attempts int, seconds float64) {
	if m == nil {
		return
	}

	if failed {
		m.BatchesFailed.Inc()
	} else {
		m.BatchesCompleted.Inc()
	}
	m.MatchesFound.Add(float64(matches))
	m.RequestAttempts.Add(float64(attempts))
	m.BatchDuration.Observe(seconds)
}

// CountRejected records input entries dropped by normalization. Safe on a
// nil receiver.
func (m *Metrics) CountRejected(n int) {
	if m == nil || n <= 0 {
		return
	}

	m.DomainsRejected.Add(float64(n))
}
