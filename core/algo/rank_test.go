package algo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thaafei/domainx/schema"
)

func TestWeightedSum(t *testing.T) {
	cats := []string{"Popularity", "Quality"}
	weights := map[string]float64{"Popularity": 0.6, "Quality": 0.4}

	// Full coverage
	assert.InDelta(t, 0.88, WeightedSum(cats, map[string]float64{"Popularity": 0.8, "Quality": 1.0}, weights), 1e-12)

	// Missing category is dropped, not redistributed
	assert.InDelta(t, 0.48, WeightedSum(cats, map[string]float64{"Popularity": 0.8}, weights), 1e-12)

	// No data
	assert.Equal(t, 0.0, WeightedSum(cats, map[string]float64{}, weights))
}

func TestRankLibraries(t *testing.T) {
	libs := []schema.RankedLibrary{
		{LibraryName: "a", Score: 0.5},
		{LibraryName: "b", Score: 0.9},
		{LibraryName: "c", Score: 0.5},
		{LibraryName: "d", Score: 0.1},
		{LibraryName: "e", Score: 0.5},
	}

	ranked := RankLibraries(libs, 0)
	require.Len(t, ranked, 5)

	names := make([]string, len(ranked))
	for i, r := range ranked {
		names[i] = r.LibraryName
		assert.Equal(t, i+1, r.Rank)
	}
	// Ties keep first-seen order
	assert.Equal(t, []string{"b", "a", "c", "e", "d"}, names)
}

func TestRankLibrariesLimit(t *testing.T) {
	libs := []schema.RankedLibrary{
		{LibraryName: "a", Score: 0.1},
		{LibraryName: "b", Score: 0.2},
		{LibraryName: "c", Score: 0.3},
	}
	ranked := RankLibraries(libs, 2)
	require.Len(t, ranked, 2)
	assert.Equal(t, "c", ranked[0].LibraryName)
	assert.Equal(t, "b", ranked[1].LibraryName)

	assert.Empty(t, RankLibraries(nil, 10))
}

func TestAggregate(t *testing.T) {
	mean, present := Aggregate([]float64{0.2, 0.4, 0.9})
	assert.True(t, present)
	assert.InDelta(t, 0.5, mean, 1e-12)

	mean, present = Aggregate(nil)
	assert.False(t, present)
	assert.Equal(t, 0.0, mean)

	// Order does not matter
	a, _ := Aggregate([]float64{0.1, 0.7, 0.4})
	b, _ := Aggregate([]float64{0.4, 0.1, 0.7})
	assert.InDelta(t, a, b, 1e-12)
}

func BenchmarkRankLibraries(b *testing.B) {
	base := make([]schema.RankedLibrary, 500)
	for i := range base {
		base[i] = schema.RankedLibrary{LibraryName: "lib", Score: float64(i%37) / 37}
	}
	libs := make([]schema.RankedLibrary, len(base))
	for b.Loop() {
		copy(libs, base)
		RankLibraries(libs, 0)
	}
}
