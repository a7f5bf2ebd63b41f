package core

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/thaafei/domainx/core/algo"
)

// Skip reasons, used as the reason label and in skip reports.
const (
	ReasonInvalidValueType = "invalid_value_type"
	ReasonUnknownBucket    = "unknown_bucket"
	ReasonUnknownRule      = "unknown_rule"
	ReasonInvalidRange     = "invalid_range"
	ReasonOther            = "other"
)

// Metric names.
const (
	metricRankingsComputed = "domainx_rankings_computed_total"
	metricRankingCacheHits = "domainx_ranking_cache_hits_total"
	metricSkippedValues    = "domainx_skipped_values_total"
	metricRankingDuration  = "domainx_ranking_duration_seconds"
)

// Metrics holds the ranking collectors.
type Metrics struct {
	rankingsComputed prometheus.Counter
	cacheHits        prometheus.Counter
	skippedValues    *prometheus.CounterVec
	rankingDuration  prometheus.Histogram
}

// NewMetrics creates the ranking collectors. They are not registered.
func NewMetrics() *Metrics {
	return &Metrics{
		rankingsComputed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricRankingsComputed,
			Help: "Total number of rankings computed from stored data",
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricRankingCacheHits,
			Help: "Total number of rankings served from the ranking cache",
		}),
		skippedValues: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricSkippedValues,
				Help: "Total number of metric values skipped during ranking",
			},
			[]string{"reason"},
		),
		rankingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    metricRankingDuration,
			Help:    "Time spent producing a domain ranking",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// Register registers all collectors with the given registerer.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.rankingsComputed, m.cacheHits, m.skippedValues, m.rankingDuration} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// observe records the outcome of one ranking. A nil receiver is a no-op.
func (m *Metrics) observe(hit bool, skipped []string, seconds float64) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
	} else {
		m.rankingsComputed.Inc()
		for _, reason := range skipped {
			m.skippedValues.WithLabelValues(reason).Inc()
		}
	}
	m.rankingDuration.Observe(seconds)
}

// SkipReason maps a normalization error to its reason label.
func SkipReason(err error) string {
	switch {
	case errors.Is(err, algo.ErrInvalidValueType):
		return ReasonInvalidValueType
	case errors.Is(err, algo.ErrUnknownBucket):
		return ReasonUnknownBucket
	case errors.Is(err, algo.ErrUnknownRule):
		return ReasonUnknownRule
	case errors.Is(err, algo.ErrInvalidRange):
		return ReasonInvalidRange
	default:
		return ReasonOther
	}
}
