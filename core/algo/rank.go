package algo

import (
	"sort"

	"github.com/thaafei/domainx/schema"
)

// WeightedSum combines the present category scores of one library with the category weights.
// Categories missing from scores are left out; the weights are not rescaled.
// Summation follows the order of categories so repeated calls give identical results.
func WeightedSum(categories []string, scores map[string]float64, weights map[string]float64) float64 {
	total := 0.0
	for _, c := range categories {
		s, ok := scores[c]
		if !ok {
			continue
		}
		total += s * weights[c]
	}
	return total
}

// RankLibraries sorts libraries by overall score in descending order and assigns ranks.
// Ties keep their input order. A limit of 0 or less returns all libraries.
func RankLibraries(libs []schema.RankedLibrary, limit int) []schema.RankedLibrary {
	sort.SliceStable(libs, func(i, j int) bool {
		return libs[i].Score > libs[j].Score
	})
	for i := range libs {
		libs[i].Rank = i + 1
	}
	if limit > 0 && len(libs) > limit {
		return libs[:limit]
	}
	return libs
}
