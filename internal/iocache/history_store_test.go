package iocache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thaafei/domainx/schema"
)

func TestHistoryStoreSQLite(t *testing.T) {
	store, err := NewHistoryStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	domain := schema.Domain{ID: "d1", Name: "Web"}
	start := time.Now().Add(-2 * time.Second)

	runID, err := store.BeginRun(start, domain, map[string]any{"limit": 5})
	require.NoError(t, err)
	assert.Positive(t, runID)

	libs := []schema.RankedLibrary{
		{Rank: 1, LibraryID: "a", LibraryName: "alpha", Score: 0.88, CategoryScores: map[string]float64{"Quality": 1}, ScoredMetrics: 1, TotalMetrics: 2},
		{Rank: 2, LibraryID: "b", LibraryName: "beta", Score: 0.4},
	}
	for _, lib := range libs {
		require.NoError(t, store.RecordLibraryScore(runID, lib))
	}
	require.NoError(t, store.EndRun(runID, start.Add(1500*time.Millisecond), len(libs), 1))

	runs, err := store.GetAllRuns()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "Web", runs[0].DomainName)
	assert.Equal(t, 2, runs[0].LibraryCount)
	assert.Equal(t, 1, runs[0].SkippedCount)
	require.NotNil(t, runs[0].DurationMs)
	assert.Equal(t, int64(1500), *runs[0].DurationMs)
	require.NotNil(t, runs[0].EndTime)
	require.NotNil(t, runs[0].ConfigParams)
	assert.JSONEq(t, `{"limit":5}`, *runs[0].ConfigParams)

	scores, err := store.GetAllLibraryScores()
	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Equal(t, "alpha", scores[0].LibraryName)
	assert.InDelta(t, 0.5, scores[0].Completeness, 1e-12)
	assert.JSONEq(t, `{"Quality":1}`, scores[0].CategoryScores)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, 1, status.TotalRuns)
	assert.Equal(t, runID, status.LastRunID)
	assert.Equal(t, 2, status.TotalLibraries)
	assert.Equal(t, int64(2), status.TableSizes[rankingScoresTable])

	require.NoError(t, store.Clear())
	status, err = store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, 0, status.TotalRuns)
}

func TestHistoryStoreNoneBackend(t *testing.T) {
	store, err := NewHistoryStore(schema.NoneBackend, "")
	require.NoError(t, err)

	id, err := store.BeginRun(time.Now(), schema.Domain{}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), id)
	assert.NoError(t, store.RecordLibraryScore(id, schema.RankedLibrary{}))
	assert.NoError(t, store.EndRun(id, time.Now(), 0, 0))

	runs, err := store.GetAllRuns()
	assert.NoError(t, err)
	assert.Nil(t, runs)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.False(t, status.Connected)
	assert.NoError(t, store.Close())
}

func TestEndRunUnknown(t *testing.T) {
	store, err := NewHistoryStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	assert.Error(t, store.EndRun(999, time.Now(), 0, 0))
}

func TestCreateHistoryQueries(t *testing.T) {
	assert.Contains(t, getCreateRankingRunsQuery(schema.MySQLBackend), "AUTO_INCREMENT")
	assert.Contains(t, getCreateRankingRunsQuery(schema.PostgreSQLBackend), "BIGSERIAL")
	assert.Contains(t, getCreateRankingRunsQuery(schema.SQLiteBackend), "AUTOINCREMENT")
	assert.Contains(t, getCreateRankingScoresQuery(schema.PostgreSQLBackend), "DOUBLE PRECISION")
}
