package core

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/thaafei/domainx/core/algo"
	"github.com/thaafei/domainx/internal/contract"
	"github.com/thaafei/domainx/internal/iocache"
	"github.com/thaafei/domainx/schema"
)

func ptr(v float64) *float64 { return &v }

// fakeRules is a RuleProvider backed by an in-memory rule set.
type fakeRules struct {
	rs          *schema.RuleSet
	fingerprint string
}

func newFakeRules() *fakeRules {
	rs := schema.NewRuleSet()
	rs.Put(schema.RuleKey{OptionCategory: "yes_no", Rule: "standard"}, "Yes / No", schema.BooleanRule{TrueScore: 1, FalseScore: 0})
	rs.Put(schema.RuleKey{OptionCategory: "activity", Rule: "standard"}, "Activity", schema.BucketRule{Buckets: map[string]float64{
		"low":    0.2,
		"medium": 0.6,
	}})
	return &fakeRules{rs: rs, fingerprint: "rules-v1"}
}

func (f *fakeRules) Lookup(kind schema.RuleKind, key schema.RuleKey) (schema.Rule, bool) {
	return f.rs.Lookup(kind, key)
}

func (f *fakeRules) GetScoringRuleTemplate(optionCategory, ruleKey string) (schema.Rule, bool) {
	key := schema.RuleKey{OptionCategory: optionCategory, Rule: ruleKey}
	if r, ok := f.rs.Lookup(schema.BooleanRuleKind, key); ok {
		return r, true
	}
	return f.rs.Lookup(schema.BucketRuleKind, key)
}

func (f *fakeRules) RuleSet() *schema.RuleSet { return f.rs }

func (f *fakeRules) Fingerprint() string { return f.fingerprint }

func (f *fakeRules) Snapshot() (*schema.RuleSet, string) { return f.rs, f.fingerprint }

var _ contract.RuleProvider = &fakeRules{}

// reloadingRules swaps to its second catalogue right after the first Snapshot,
// as a hot reload landing mid-ranking would.
type reloadingRules struct {
	fakeRules
	next *fakeRules
}

func (r *reloadingRules) Snapshot() (*schema.RuleSet, string) {
	rs, fp := r.fakeRules.Snapshot()
	r.fakeRules = *r.next
	return rs, fp
}

// twoCategorySnapshot builds the Popularity/Quality domain used by several tests.
func twoCategorySnapshot(weights map[string]float64) schema.DomainSnapshot {
	return schema.DomainSnapshot{
		Domain: schema.Domain{ID: "d1", Name: "Web Frameworks"},
		Metrics: []schema.Metric{
			{ID: "stars", Name: "Stars", Category: "Popularity", ValueType: schema.FloatValue, RangeMin: ptr(0), RangeMax: ptr(100)},
			{ID: "tests", Name: "Has tests", Category: "Quality", ValueType: schema.BoolValue},
			{ID: "license", Name: "License", Category: "Legal", ValueType: schema.TextValue},
		},
		Libraries: []schema.LibraryValues{
			{Library: schema.Library{ID: "x", Name: "X"}, Values: map[string]any{"stars": 80.0, "tests": true, "license": "MIT"}},
			{Library: schema.Library{ID: "y", Name: "Y"}, Values: map[string]any{"stars": 80.0}},
		},
		Weights: weights,
	}
}

func TestComputeRankingFullCoverage(t *testing.T) {
	snap := twoCategorySnapshot(map[string]float64{"Popularity": 0.6, "Quality": 0.4})

	report := ComputeRanking(context.Background(), snap, newFakeRules(), algo.Options{})
	res := report.Result

	assert.InDelta(t, 0.88, res.GlobalRanking["X"], 1e-12)
	assert.Equal(t, schema.StoredWeights, res.WeightSource)
	assert.False(t, res.WeightsStale)
	assert.Empty(t, report.Skipped)

	// Text metrics never make a category active
	assert.NotContains(t, res.CategoryDetails, "Legal")
	assert.Len(t, res.CategoryDetails, 2)

	require.Len(t, res.Ranked, 2)
	assert.Equal(t, "X", res.Ranked[0].LibraryName)
	assert.Equal(t, 1, res.Ranked[0].Rank)
	assert.Equal(t, 2, res.Ranked[0].ScoredMetrics)
	assert.Equal(t, 2, res.Ranked[0].TotalMetrics)
}

func TestComputeRankingPartialCoverage(t *testing.T) {
	snap := twoCategorySnapshot(map[string]float64{"Popularity": 0.6, "Quality": 0.4})

	res := ComputeRanking(context.Background(), snap, newFakeRules(), algo.Options{}).Result

	// Absent Quality is dropped, not renormalized
	assert.InDelta(t, 0.48, res.GlobalRanking["Y"], 1e-12)
	assert.NotContains(t, res.CategoryDetails["Quality"], "Y")
	assert.InDelta(t, 0.8, res.CategoryDetails["Popularity"]["Y"], 1e-12)

	y := res.Ranked[1]
	assert.Equal(t, "Y", y.LibraryName)
	assert.InDelta(t, 0.5, y.Completeness(), 1e-12)
	_, hasQuality := y.CategoryScores["Quality"]
	assert.False(t, hasQuality)
}

func TestComputeRankingEqualSplit(t *testing.T) {
	snap := schema.DomainSnapshot{
		Domain: schema.Domain{ID: "d2", Name: "Parsers"},
		Metrics: []schema.Metric{
			{ID: "m1", Category: "A", ValueType: schema.FloatValue, RangeMin: ptr(0), RangeMax: ptr(1)},
			{ID: "m2", Category: "B", ValueType: schema.FloatValue, RangeMin: ptr(0), RangeMax: ptr(1)},
			{ID: "m3", Category: "C", ValueType: schema.FloatValue, RangeMin: ptr(0), RangeMax: ptr(1)},
		},
	}

	res := ComputeRanking(context.Background(), snap, nil, algo.Options{}).Result

	assert.Equal(t, schema.EqualSplitWeights, res.WeightSource)
	require.Len(t, res.Weights, 3)
	for _, c := range []string{"A", "B", "C"} {
		assert.InDelta(t, 1.0/3.0, res.Weights[c], 1e-12)
	}
	assert.InDelta(t, 1.0, algo.SumWeights(res.Weights), 1e-9)
	assert.Empty(t, res.Ranked)
}

func TestComputeRankingUnknownBucketIsSkipped(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), slog.New(slog.NewTextHandler(&buf, nil)))

	snap := schema.DomainSnapshot{
		Domain: schema.Domain{ID: "d3", Name: "Loggers"},
		Metrics: []schema.Metric{
			{ID: "activity", Name: "Activity", Category: "Health", ValueType: schema.RangeValue, OptionCategory: "activity"},
			{ID: "stars", Name: "Stars", Category: "Health", ValueType: schema.FloatValue, RangeMin: ptr(0), RangeMax: ptr(100)},
		},
		Libraries: []schema.LibraryValues{
			{Library: schema.Library{ID: "z", Name: "Z"}, Values: map[string]any{"activity": "high", "stars": 50.0}},
		},
	}

	report := ComputeRanking(ctx, snap, newFakeRules(), algo.Options{})

	require.Len(t, report.Skipped, 1)
	skipped := report.Skipped[0]
	assert.Equal(t, ReasonUnknownBucket, skipped.Reason)
	assert.Equal(t, "Z", skipped.LibraryName)
	assert.Equal(t, "Activity", skipped.MetricName)

	// Only the stars value contributes
	assert.InDelta(t, 0.5, report.Result.GlobalRanking["Z"], 1e-12)
	assert.Contains(t, buf.String(), "Skipping metric value")
	assert.Contains(t, buf.String(), "reason=unknown_bucket")
}

func TestComputeRankingNoDataScoresZero(t *testing.T) {
	snap := twoCategorySnapshot(nil)
	snap.Libraries = append(snap.Libraries, schema.LibraryValues{Library: schema.Library{ID: "e", Name: "Empty"}})

	res := ComputeRanking(context.Background(), snap, newFakeRules(), algo.Options{}).Result

	assert.Equal(t, 0.0, res.GlobalRanking["Empty"])
	last := res.Ranked[len(res.Ranked)-1]
	assert.Equal(t, "Empty", last.LibraryName)
	assert.Empty(t, last.CategoryScores)
}

func TestComputeRankingStaleWeights(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), slog.New(slog.NewTextHandler(&buf, nil)))

	snap := twoCategorySnapshot(map[string]float64{"Popularity": 0.5, "Quality": 0.2})
	res := ComputeRanking(ctx, snap, newFakeRules(), algo.Options{}).Result

	assert.True(t, res.WeightsStale)
	assert.Equal(t, schema.StoredWeights, res.WeightSource)
	// Used as stored
	assert.InDelta(t, 0.5*0.8+0.2*1.0, res.GlobalRanking["X"], 1e-12)
	assert.Contains(t, buf.String(), "not a valid split")

	t.Run("out of range weights summing to one", func(t *testing.T) {
		buf.Reset()
		snap := twoCategorySnapshot(map[string]float64{"Popularity": 1.2, "Quality": -0.2})
		res := ComputeRanking(ctx, snap, newFakeRules(), algo.Options{}).Result

		assert.True(t, res.WeightsStale)
		assert.Equal(t, schema.StoredWeights, res.WeightSource)
		assert.InDelta(t, 1.2*0.8-0.2*1.0, res.GlobalRanking["X"], 1e-12)
		assert.Contains(t, buf.String(), "not a valid split")
	})

	t.Run("balanced in range weights are not stale", func(t *testing.T) {
		snap := twoCategorySnapshot(map[string]float64{"Popularity": 0.6, "Quality": 0.4})
		res := ComputeRanking(ctx, snap, newFakeRules(), algo.Options{}).Result
		assert.False(t, res.WeightsStale)
	})
}

func TestComputeRankingDuplicateLibraryNames(t *testing.T) {
	snap := twoCategorySnapshot(map[string]float64{"Popularity": 1, "Quality": 0})
	snap.Libraries = []schema.LibraryValues{
		{Library: schema.Library{ID: "a", Name: "react"}, Values: map[string]any{"stars": 90.0, "tests": true}},
		{Library: schema.Library{ID: "b", Name: "react"}, Values: map[string]any{"stars": 10.0, "tests": false}},
		{Library: schema.Library{ID: "c", Name: "vue"}, Values: map[string]any{"stars": 50.0}},
	}

	res := ComputeRanking(context.Background(), snap, newFakeRules(), algo.Options{}).Result

	require.Len(t, res.GlobalRanking, 3)
	assert.InDelta(t, 0.9, res.GlobalRanking["react (a)"], 1e-12)
	assert.InDelta(t, 0.1, res.GlobalRanking["react (b)"], 1e-12)
	assert.InDelta(t, 0.5, res.GlobalRanking["vue"], 1e-12)
	assert.NotContains(t, res.GlobalRanking, "react")

	assert.Len(t, res.CategoryDetails["Popularity"], 3)
	assert.Equal(t, 1.0, res.CategoryDetails["Quality"]["react (a)"])
	assert.Equal(t, 0.0, res.CategoryDetails["Quality"]["react (b)"])

	require.Len(t, res.Ranked, 3)
	assert.Equal(t, "a", res.Ranked[0].LibraryID)
	assert.Equal(t, "b", res.Ranked[2].LibraryID)
}

func TestComputeRankingIdenticalScoresKeepBothLibraries(t *testing.T) {
	snap := twoCategorySnapshot(map[string]float64{"Popularity": 0.6, "Quality": 0.4})
	snap.Libraries[1].Values = map[string]any{"stars": 80.0, "tests": true}

	res := ComputeRanking(context.Background(), snap, newFakeRules(), algo.Options{}).Result

	require.Len(t, res.GlobalRanking, 2)
	assert.Equal(t, res.GlobalRanking["X"], res.GlobalRanking["Y"])
	for _, cat := range []string{"Popularity", "Quality"} {
		assert.Len(t, res.CategoryDetails[cat], 2, cat)
		assert.Equal(t, res.CategoryDetails[cat]["X"], res.CategoryDetails[cat]["Y"], cat)
	}
	require.Len(t, res.Ranked, 2)
	assert.Equal(t, "x", res.Ranked[0].LibraryID)
	assert.Equal(t, "y", res.Ranked[1].LibraryID)
}

func TestCachedComputeRankingUsesOneRulesSnapshot(t *testing.T) {
	snap := schema.DomainSnapshot{
		Domain: schema.Domain{ID: "d5", Name: "Loggers"},
		Metrics: []schema.Metric{
			{ID: "tests", Name: "Has tests", Category: "Quality", ValueType: schema.BoolValue, OptionCategory: "yes_no", Rule: "standard"},
		},
		Libraries: []schema.LibraryValues{
			{Library: schema.Library{ID: "z", Name: "Z"}, Values: map[string]any{"tests": true}},
		},
	}
	newer := schema.NewRuleSet()
	newer.Put(schema.RuleKey{OptionCategory: "yes_no", Rule: "standard"}, "Yes / No", schema.BooleanRule{TrueScore: 0.5, FalseScore: 0})
	newRules := func() *reloadingRules {
		return &reloadingRules{fakeRules: *newFakeRules(), next: &fakeRules{rs: newer, fingerprint: "rules-v2"}}
	}

	t.Run("without cache", func(t *testing.T) {
		report := cachedComputeRanking(context.Background(), nil, snap, newRules(), algo.Options{})
		assert.Equal(t, 1.0, report.Result.GlobalRanking["Z"])
	})

	t.Run("cache key and scores share a catalogue", func(t *testing.T) {
		key, err := generateCacheKey(snap, "rules-v1", algo.Options{})
		require.NoError(t, err)

		cache := &iocache.MockCacheStore{}
		cache.On("Get", key).Return(nil, 0, int64(0), sql.ErrNoRows)
		cache.On("Set", key, mock.Anything, currentCacheVersion, mock.Anything).Return(nil)

		report := cachedComputeRanking(context.Background(), cache, snap, newRules(), algo.Options{})
		assert.Equal(t, 1.0, report.Result.GlobalRanking["Z"])
		cache.AssertExpectations(t)
	})
}

func TestComputeRankingPartialStoredWeightsFallBack(t *testing.T) {
	snap := twoCategorySnapshot(map[string]float64{"Popularity": 1.0})
	res := ComputeRanking(context.Background(), snap, newFakeRules(), algo.Options{}).Result

	assert.Equal(t, schema.EqualSplitWeights, res.WeightSource)
	assert.InDelta(t, 0.5*0.8+0.5*1.0, res.GlobalRanking["X"], 1e-12)
}

func TestComputeRankingUnrangedPolicy(t *testing.T) {
	snap := schema.DomainSnapshot{
		Domain: schema.Domain{ID: "d4", Name: "ORMs"},
		Metrics: []schema.Metric{
			{ID: "score", Category: "Raw", ValueType: schema.FloatValue},
			{ID: "tests", Category: "Quality", ValueType: schema.BoolValue},
		},
		Libraries: []schema.LibraryValues{
			{Library: schema.Library{ID: "o", Name: "O"}, Values: map[string]any{"score": 0.4, "tests": true}},
		},
	}

	pass := ComputeRanking(context.Background(), snap, newFakeRules(), algo.Options{Unranged: schema.PassThroughNumeric}).Result
	assert.Len(t, pass.Weights, 2)
	assert.InDelta(t, 0.5*0.4+0.5*1.0, pass.GlobalRanking["O"], 1e-12)

	excl := ComputeRanking(context.Background(), snap, newFakeRules(), algo.Options{Unranged: schema.ExcludeNumeric}).Result
	assert.Equal(t, []string{"Quality"}, ActiveCategories(snap.Metrics, algo.Options{Unranged: schema.ExcludeNumeric}))
	assert.Len(t, excl.Weights, 1)
	assert.InDelta(t, 1.0, excl.GlobalRanking["O"], 1e-12)
}

func TestComputeRankingMonotonic(t *testing.T) {
	weights := map[string]float64{"Popularity": 0.6, "Quality": 0.4}
	prev := -1.0
	for _, stars := range []float64{0, 10, 35, 70, 100, 150} {
		snap := twoCategorySnapshot(weights)
		snap.Libraries[0].Values["stars"] = stars
		got := ComputeRanking(context.Background(), snap, newFakeRules(), algo.Options{}).Result.GlobalRanking["X"]
		assert.GreaterOrEqual(t, got, prev, "stars=%v", stars)
		prev = got
	}
}

func TestComputeRankingDeterministic(t *testing.T) {
	snap := twoCategorySnapshot(map[string]float64{"Popularity": 0.6, "Quality": 0.4})
	first := ComputeRanking(context.Background(), snap, newFakeRules(), algo.Options{}).Result
	for range 20 {
		again := ComputeRanking(context.Background(), snap, newFakeRules(), algo.Options{}).Result
		assert.Equal(t, first.GlobalRanking, again.GlobalRanking)
		assert.Equal(t, first.Ranked, again.Ranked)
	}
}

func TestActiveCategoriesOrder(t *testing.T) {
	metrics := []schema.Metric{
		{Category: "Quality", ValueType: schema.BoolValue},
		{Category: "Notes", ValueType: schema.TextValue},
		{Category: "", ValueType: schema.RangeValue},
		{Category: "Popularity", ValueType: schema.IntValue},
		{Category: "Quality", ValueType: schema.FloatValue},
	}
	assert.Equal(t, []string{"Quality", schema.UncategorizedCategory, "Popularity"}, ActiveCategories(metrics, algo.Options{}))
	assert.Empty(t, ActiveCategories(nil, algo.Options{}))
}

func TestGetDomainRankingCacheMissRecordsHistory(t *testing.T) {
	ctx := context.Background()
	snap := twoCategorySnapshot(map[string]float64{"Popularity": 0.6, "Quality": 0.4})

	store := &iocache.MockDomainStore{}
	store.On("LoadDomainSnapshot", mock.Anything, "d1").Return(snap, nil)

	cache := &iocache.MockCacheStore{}
	cache.On("Get", mock.AnythingOfType("string")).Return(nil, 0, int64(0), sql.ErrNoRows)
	cache.On("Set", mock.AnythingOfType("string"), mock.Anything, currentCacheVersion, mock.AnythingOfType("int64")).Return(nil)

	history := &iocache.MockHistoryStore{}
	history.On("BeginRun", mock.Anything, snap.Domain, mock.Anything).Return(int64(7), nil)
	history.On("RecordLibraryScore", int64(7), mock.Anything).Return(nil).Times(2)
	history.On("EndRun", int64(7), mock.Anything, 2, 0).Return(nil)

	mgr := &iocache.MockStoreManager{}
	mgr.On("GetDomainStore").Return(store)
	mgr.On("GetRankingCache").Return(cache)
	mgr.On("GetHistoryStore").Return(history)

	cfg := &contract.Config{DomainID: "d1"}
	report, err := GetDomainRanking(ctx, cfg, mgr, newFakeRules())
	require.NoError(t, err)

	assert.False(t, report.CacheHit)
	assert.InDelta(t, 0.88, report.Result.GlobalRanking["X"], 1e-12)
	store.AssertExpectations(t)
	cache.AssertExpectations(t)
	history.AssertExpectations(t)
}

func TestGetDomainRankingHistoryFailuresUseContextLogger(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), slog.New(slog.NewJSONHandler(&buf, nil)))
	snap := twoCategorySnapshot(map[string]float64{"Popularity": 0.6, "Quality": 0.4})

	store := &iocache.MockDomainStore{}
	store.On("LoadDomainSnapshot", mock.Anything, "d1").Return(snap, nil)

	history := &iocache.MockHistoryStore{}
	history.On("BeginRun", mock.Anything, snap.Domain, mock.Anything).Return(int64(3), nil)
	history.On("RecordLibraryScore", int64(3), mock.Anything).Return(errors.New("disk full"))
	history.On("EndRun", int64(3), mock.Anything, 2, 0).Return(errors.New("disk full"))

	mgr := &iocache.MockStoreManager{}
	mgr.On("GetDomainStore").Return(store)
	mgr.On("GetRankingCache").Return(nil)
	mgr.On("GetHistoryStore").Return(history)

	_, err := GetDomainRanking(ctx, &contract.Config{DomainID: "d1"}, mgr, newFakeRules())
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"msg":"Ranking history failed for library"`)
	assert.Contains(t, out, `"library_id":"x"`)
	assert.Contains(t, out, `"msg":"Failed to finalize ranking history"`)
	assert.Contains(t, out, `"domain_id":"d1"`)
	history.AssertExpectations(t)
}

func TestGetDomainRankingCacheHit(t *testing.T) {
	ctx := context.Background()
	snap := twoCategorySnapshot(map[string]float64{"Popularity": 0.6, "Quality": 0.4})
	rules := newFakeRules()

	// Prime an entry through the real code path
	primed := &iocache.MockCacheStore{}
	var stored []byte
	primed.On("Get", mock.Anything).Return(nil, 0, int64(0), sql.ErrNoRows)
	primed.On("Set", mock.Anything, mock.Anything, currentCacheVersion, mock.Anything).
		Run(func(args mock.Arguments) { stored = args.Get(1).([]byte) }).Return(nil)
	_ = cachedComputeRanking(ctx, primed, snap, rules, algo.Options{})
	require.NotEmpty(t, stored)

	key, err := generateCacheKey(snap, rules.fingerprint, algo.Options{})
	require.NoError(t, err)

	store := &iocache.MockDomainStore{}
	store.On("LoadDomainSnapshot", mock.Anything, "d1").Return(snap, nil)
	cache := &iocache.MockCacheStore{}
	cache.On("Get", key).Return(stored, currentCacheVersion, time.Now().Unix(), nil)

	mgr := &iocache.MockStoreManager{}
	mgr.On("GetDomainStore").Return(store)
	mgr.On("GetRankingCache").Return(cache)

	cfg := &contract.Config{DomainID: "d1", ResultLimit: 1}
	report, err := GetDomainRanking(ctx, cfg, mgr, rules)
	require.NoError(t, err)

	assert.True(t, report.CacheHit)
	assert.InDelta(t, 0.88, report.Result.GlobalRanking["X"], 1e-12)
	// Limit trims the list only
	assert.Len(t, report.Result.Ranked, 1)
	assert.Len(t, report.Result.GlobalRanking, 2)
	cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	mgr.AssertNotCalled(t, "GetHistoryStore")
}

func TestGetDomainRankingNotFound(t *testing.T) {
	store := &iocache.MockDomainStore{}
	store.On("LoadDomainSnapshot", mock.Anything, "missing").Return(schema.DomainSnapshot{}, contract.ErrDomainNotFound)
	mgr := &iocache.MockStoreManager{}
	mgr.On("GetDomainStore").Return(store)

	_, err := GetDomainRanking(context.Background(), &contract.Config{DomainID: "missing"}, mgr, newFakeRules())
	assert.ErrorIs(t, err, contract.ErrDomainNotFound)
}

func TestGetAllDomainRankings(t *testing.T) {
	ctx := WithSkipHistory(context.Background())
	a := twoCategorySnapshot(nil)
	b := twoCategorySnapshot(nil)
	b.Domain = schema.Domain{ID: "d2", Name: "Second"}

	store := &iocache.MockDomainStore{}
	store.On("ListDomains", mock.Anything).Return([]schema.DomainSummary{{Domain: a.Domain}, {Domain: b.Domain}}, nil)
	store.On("LoadDomainSnapshot", mock.Anything, "d1").Return(a, nil)
	store.On("LoadDomainSnapshot", mock.Anything, "d2").Return(b, nil)

	mgr := &iocache.MockStoreManager{}
	mgr.On("GetDomainStore").Return(store)
	mgr.On("GetRankingCache").Return(nil)

	reports, err := GetAllDomainRankings(ctx, &contract.Config{Workers: 2}, mgr, newFakeRules())
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "d1", reports[0].Result.DomainID)
	assert.Equal(t, "d2", reports[1].Result.DomainID)
}

func TestGetAllDomainRankingsPropagatesErrors(t *testing.T) {
	store := &iocache.MockDomainStore{}
	store.On("ListDomains", mock.Anything).Return([]schema.DomainSummary{{Domain: schema.Domain{ID: "bad", Name: "Bad"}}}, nil)
	store.On("LoadDomainSnapshot", mock.Anything, "bad").Return(schema.DomainSnapshot{}, errors.New("boom"))

	mgr := &iocache.MockStoreManager{}
	mgr.On("GetDomainStore").Return(store)

	_, err := GetAllDomainRankings(context.Background(), &contract.Config{Workers: 1}, mgr, newFakeRules())
	assert.ErrorContains(t, err, "ranking domain Bad")
}

func TestGenerateCacheKey(t *testing.T) {
	snap := twoCategorySnapshot(map[string]float64{"Popularity": 0.6, "Quality": 0.4})
	rules := newFakeRules()

	k1, err := generateCacheKey(snap, rules.fingerprint, algo.Options{})
	require.NoError(t, err)
	k2, _ := generateCacheKey(snap, rules.fingerprint, algo.Options{})
	assert.Equal(t, k1, k2)
	assert.Len(t, k1, 64)

	// Any input change yields a new key
	changed := twoCategorySnapshot(map[string]float64{"Popularity": 0.6, "Quality": 0.4})
	changed.Libraries[0].Values["stars"] = 81.0
	k3, _ := generateCacheKey(changed, rules.fingerprint, algo.Options{})
	assert.NotEqual(t, k1, k3)

	k4, _ := generateCacheKey(snap, "rules-v2", algo.Options{})
	assert.NotEqual(t, k1, k4)

	k5, _ := generateCacheKey(snap, rules.fingerprint, algo.Options{Unranged: schema.ExcludeNumeric})
	assert.NotEqual(t, k1, k5)
}

func TestCheckCacheHitRejectsOldVersion(t *testing.T) {
	cache := &iocache.MockCacheStore{}
	cache.On("Get", "k").Return([]byte(`{"result":{}}`), currentCacheVersion+1, time.Now().Unix(), nil)
	assert.Nil(t, checkCacheHit(cache, "k"))
}

func TestSkipReason(t *testing.T) {
	assert.Equal(t, ReasonInvalidValueType, SkipReason(algo.ErrInvalidValueType))
	assert.Equal(t, ReasonUnknownBucket, SkipReason(algo.ErrUnknownBucket))
	assert.Equal(t, ReasonUnknownRule, SkipReason(algo.ErrUnknownRule))
	assert.Equal(t, ReasonInvalidRange, SkipReason(algo.ErrInvalidRange))
	assert.Equal(t, ReasonOther, SkipReason(errors.New("x")))
}
