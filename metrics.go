package encsearch

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Query kinds used as the "kind" label.
const (
	kindKeyword  = "keyword"
	kindEquality = "equality"
)

// Metrics holds the Prometheus collectors of an Engine.
type Metrics struct {
	RecordsIngested   prometheus.Counter
	IngestFailures    *prometheus.CounterVec
	SearchQueries     *prometheus.CounterVec
	SearchResults     *prometheus.HistogramVec
	CandidatesDropped *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		RecordsIngested: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "encsearch_records_ingested_total",
				Help: "Total number of records committed by ingestion.",
			},
		),
		IngestFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "encsearch_ingest_failures_total",
				Help: "Total ingestion failures by reason (validation, integrity, storage).",
			},
			[]string{"reason"},
		),
		SearchQueries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "encsearch_search_queries_total",
				Help: "Total search queries by kind (keyword, equality).",
			},
			[]string{"kind"},
		),
		SearchResults: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "encsearch_search_results_count",
				Help:    "Number of records returned per search query.",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
			},
			[]string{"kind"},
		),
		CandidatesDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "encsearch_candidates_dropped_total",
				Help: "Candidates excluded from results by kind and reason (integrity, not_found, decode, storage).",
			},
			[]string{"kind", "reason"},
		),
	}

	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{
		m.RecordsIngested,
		m.IngestFailures,
		m.SearchQueries,
		m.SearchResults,
		m.CandidatesDropped,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// failureReason maps an error to a metrics label.
func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrIntegrity):
		return "integrity"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrDecompressionFailed), errors.Is(err, ErrMalformedRecord):
		return "decode"
	default:
		return "storage"
	}
}
