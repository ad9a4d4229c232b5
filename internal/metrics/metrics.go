package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Run outcomes.
const (
	OutcomeCacheHit           = "cache_hit"
	OutcomeSuccess            = "success"
	OutcomeParseFailure       = "parse_failure"
	OutcomeCommitFetchFailure = "commit_fetch_failure"
	OutcomeNoCommits          = "no_commits"
	OutcomeTimeout            = "timeout"
	OutcomeError              = "error"
)

var (
	// runs counts pipeline runs by terminal outcome.
	runs = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vibetrace",
		Name:      "runs_total",
		Help:      "Vibe history runs by outcome",
	}, []string{"outcome"})

	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "vibetrace",
		Name:      "run_duration_seconds",
		Help:      "Wall-clock duration of uncached vibe history runs",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120, 300},
	})

	// oracleDegraded counts runs whose oracle call produced no usable list.
	// Labels: reason (call_error, no_list)
	oracleDegraded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vibetrace",
		Name:      "oracle_degraded_total",
		Help:      "Correlation oracle calls degraded to an empty link list",
	}, []string{"reason"})

	// linksRejected counts oracle candidates dropped during validation.
	// Labels: reason (decode, invalid)
	linksRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vibetrace",
		Name:      "links_rejected_total",
		Help:      "Candidate links rejected during validation",
	}, []string{"reason"})

	cachePersistFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "vibetrace",
		Name:      "cache_persist_failures_total",
		Help:      "Correlation results that could not be written to the cache",
	})
)

func RecordRun(outcome string) {
	runs.WithLabelValues(outcome).Inc()
}

// RecordRunDuration observes the duration of a run that reached the pipeline.
func RecordRunDuration(seconds float64) {
	runDuration.Observe(seconds)
}

func RecordOracleDegraded(reason string) {
	oracleDegraded.WithLabelValues(reason).Inc()
}

func RecordLinksRejected(reason string, n int) {
	if n <= 0 {
		return
	}
	linksRejected.WithLabelValues(reason).Add(float64(n))
}

func RecordCachePersistFailure() {
	cachePersistFailures.Inc()
}
