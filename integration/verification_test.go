//go:build basic

// Package integration contains end-to-end tests that drive the domainx binary.
// These tests are excluded from normal test runs due to build tags.
// To run these tests: go test -tags basic ./integration
package integration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sqliteEnv points every SQLite database at a fresh home directory.
func sqliteEnv(t *testing.T) []string {
	home := t.TempDir()
	return []string{
		"HOME=" + home,
		"DOMAINX_HISTORY_BACKEND=sqlite",
	}
}

// TestRankingVerification imports the sample domain and checks the ranking by hand-computed scores.
func TestRankingVerification(t *testing.T) {
	env := sqliteEnv(t)
	domainID := importSampleDomain(t, env)

	ranking := rankDomain(t, env, domainID)
	assert.Equal(t, domainID, ranking.DomainID)
	assert.Equal(t, "stored", ranking.WeightSource)
	assert.False(t, ranking.CacheHit)

	// gin: Popularity 80000/100000 = 0.8, Quality mean(1.0, 0.8) = 0.9
	require.Len(t, ranking.Ranked, 3)
	assert.Equal(t, "gin", ranking.Ranked[0].LibraryName)
	assert.Equal(t, 1, ranking.Ranked[0].Rank)
	assert.InDelta(t, 0.84, ranking.Ranked[0].Score, 1e-9)
	assert.Equal(t, "Excellent", ranking.Ranked[0].Label)
	assert.InDelta(t, 0.84, ranking.GlobalRanking["gin"], 1e-9)

	// chi only has a Popularity score; its Quality values are missing or unscorable.
	assert.Equal(t, "chi", ranking.Ranked[1].LibraryName)
	assert.InDelta(t, 0.12, ranking.Ranked[1].Score, 1e-9)

	// broken has no scorable values at all and is ranked last with 0.
	assert.Equal(t, "broken", ranking.Ranked[2].LibraryName)
	assert.Equal(t, 0.0, ranking.Ranked[2].Score)

	// The second run is served from the cache and yields the same scores.
	again := rankDomain(t, env, domainID)
	assert.True(t, again.CacheHit)
	assert.Equal(t, ranking.GlobalRanking, again.GlobalRanking)
}

// TestWeightsVerification stores new weights and checks they change the ranking.
func TestWeightsVerification(t *testing.T) {
	env := sqliteEnv(t)
	domainID := importSampleDomain(t, env)

	_, err := runDomainx(t, env, "weights", "validate", domainID, "--weight", "Popularity=0.5", "--weight", "Quality=0.6")
	require.Error(t, err)

	_, err = runDomainx(t, env, "weights", "set", domainID, "--weight", "Popularity=0.5", "--weight", "Quality=0.5")
	require.NoError(t, err)

	ranking := rankDomain(t, env, domainID)
	assert.False(t, ranking.CacheHit)
	assert.InDelta(t, 0.85, ranking.GlobalRanking["gin"], 1e-9)
	assert.InDelta(t, 0.1, ranking.GlobalRanking["chi"], 1e-9)
}

// TestStatusCommands checks the maintenance commands against a populated SQLite setup.
func TestStatusCommands(t *testing.T) {
	env := sqliteEnv(t)
	domainID := importSampleDomain(t, env)
	rankDomain(t, env, domainID)

	out, err := runDomainx(t, env, "cache", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Total Entries: 1")

	out, err = runDomainx(t, env, "history", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Total Runs: 1")

	_, err = runDomainx(t, env, "cache", "clear")
	require.NoError(t, err)
	_, err = runDomainx(t, env, "history", "clear")
	require.NoError(t, err)

	out, err = runDomainx(t, env, "rules", "show", "--output", "csv")
	require.NoError(t, err)
	assert.Contains(t, out, "bool,yes_no")
}
