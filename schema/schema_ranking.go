package schema

import "time"

// RankedLibrary is one row of an ordered ranking.
type RankedLibrary struct {
	Rank           int                `json:"rank"`
	LibraryID      string             `json:"library_id"`
	LibraryName    string             `json:"library_name"`
	Score          float64            `json:"overall_score"`
	CategoryScores map[string]float64 `json:"category_scores"`
	ScoredMetrics  int                `json:"scored_metrics"`
	TotalMetrics   int                `json:"total_metrics"`
}

// Completeness is the share of scorable metrics that produced a score.
func (r RankedLibrary) Completeness() float64 {
	if r.TotalMetrics == 0 {
		return 0
	}
	return float64(r.ScoredMetrics) / float64(r.TotalMetrics)
}

// RankingResult is the per-domain output of a ranking.
// GlobalRanking and CategoryDetails are keyed by library name, or by
// "name (id)" for libraries whose name is shared within the domain.
type RankingResult struct {
	Domain          string                        `json:"domain"`
	DomainID        string                        `json:"domain_id"`
	GlobalRanking   map[string]float64            `json:"global_ranking"`
	CategoryDetails map[string]map[string]float64 `json:"category_details"`
	Ranked          []RankedLibrary               `json:"ranked"`
	Weights         map[string]float64            `json:"weights"`
	WeightSource    WeightSource                  `json:"weight_source"`
	WeightsStale    bool                          `json:"weights_stale"`
}

// SkippedValue records a metric value left out of a ranking and why.
type SkippedValue struct {
	LibraryID   string `json:"library_id"`
	LibraryName string `json:"library_name"`
	MetricID    string `json:"metric_id"`
	MetricName  string `json:"metric_name"`
	Reason      string `json:"reason"`
	Detail      string `json:"detail,omitempty"`
}

// RankingReport wraps a result with the diagnostics of the run that produced it.
type RankingReport struct {
	Result   RankingResult  `json:"result"`
	Skipped  []SkippedValue `json:"skipped,omitempty"`
	CacheHit bool           `json:"cache_hit"`
	Duration time.Duration  `json:"duration"`
}
