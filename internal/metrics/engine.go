package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Engine operation labels.
const (
	OpSearch = "search"
	OpMatch  = "match"
)

// Domain collectors.
var (
	EngineRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "engine_requests_total",
			Help:      "Search and match requests by outcome",
		},
		[]string{"operation", "status"},
	)

	EngineDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "engine_duration_seconds",
			Help:      "Time spent ranking a corpus",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DocumentsScored = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_scored_total",
			Help:      "Resumes scored by the search and match engines",
		},
		[]string{"operation"},
	)

	RedactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "redactions_total",
			Help:      "PII spans replaced, by rule",
		},
		[]string{"rule"},
	)

	ResumesIngested = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resumes_ingested_total",
			Help:      "Resumes stored, by source (upload, bulk, file)",
		},
		[]string{"source"},
	)

	ExtractionFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extraction_failures_total",
			Help:      "Resume files whose text could not be extracted",
		},
		[]string{"format"},
	)
)

func init() {
	prometheus.MustRegister(
		EngineRequestsTotal,
		EngineDuration,
		DocumentsScored,
		RedactionsTotal,
		ResumesIngested,
		ExtractionFailures,
	)
}

// ObserveEngine records one engine request over corpusSize resumes.
func ObserveEngine(op string, start time.Time, corpusSize int, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	EngineRequestsTotal.WithLabelValues(op, status).Inc()
	EngineDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err == nil {
		DocumentsScored.WithLabelValues(op).Add(float64(corpusSize))
	}
}

// ObserveRedactions adds per-rule replacement counts.
func ObserveRedactions(counts map[string]int) {
	for rule, n := range counts {
		if n > 0 {
			RedactionsTotal.WithLabelValues(rule).Add(float64(n))
		}
	}
}
