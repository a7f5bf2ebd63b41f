package iocache

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thaafei/domainx/internal/contract"
	"github.com/thaafei/domainx/schema"
)

func ptr(v float64) *float64 { return &v }

func newTestDomainStore(t *testing.T) *DomainStoreImpl {
	t.Helper()
	store, err := NewDomainStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// seedDomain creates one domain with two libraries and three metrics.
func seedDomain(t *testing.T, store *DomainStoreImpl) (schema.Domain, []schema.Library, []schema.Metric) {
	t.Helper()
	ctx := context.Background()

	d, err := store.CreateDomain(ctx, schema.Domain{Name: "Web Frameworks", Description: "HTTP"})
	require.NoError(t, err)
	require.NotEmpty(t, d.ID)

	var libs []schema.Library
	for _, name := range []string{"alpha", "beta"} {
		lib, err := store.AddLibrary(ctx, schema.Library{DomainID: d.ID, Name: name, ProgrammingLanguage: "Go"})
		require.NoError(t, err)
		libs = append(libs, lib)
	}

	var metrics []schema.Metric
	for _, m := range []schema.Metric{
		{DomainID: d.ID, Name: "stars", Category: "Popularity", ValueType: schema.IntValue, RangeMin: ptr(0), RangeMax: ptr(100)},
		{DomainID: d.ID, Name: "has tests", Category: "Quality", ValueType: schema.BoolValue},
		{DomainID: d.ID, Name: "size", ValueType: schema.RangeValue, OptionCategory: "file_ranges", Rule: "standard"},
	} {
		created, err := store.AddMetric(ctx, m)
		require.NoError(t, err)
		metrics = append(metrics, created)
	}
	return d, libs, metrics
}

func TestDomainStoreCreateAndRead(t *testing.T) {
	ctx := context.Background()
	store := newTestDomainStore(t)
	d, libs, metrics := seedDomain(t, store)

	got, err := store.GetDomain(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "Web Frameworks", got.Name)
	assert.Equal(t, "HTTP", got.Description)

	list, err := store.ListDomains(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].LibraryCount)
	assert.Equal(t, 3, list[0].MetricCount)

	gotMetrics, err := store.GetMetricsForDomain(ctx, d.ID)
	require.NoError(t, err)
	require.Len(t, gotMetrics, 3)
	for i := range metrics {
		assert.Equal(t, metrics[i].ID, gotMetrics[i].ID, "metrics keep insertion order")
	}
	require.NotNil(t, gotMetrics[0].RangeMax)
	assert.Equal(t, 100.0, *gotMetrics[0].RangeMax)
	assert.Nil(t, gotMetrics[1].RangeMin)
	assert.Equal(t, schema.BoolValue, gotMetrics[1].ValueType)
	assert.Equal(t, "file_ranges", gotMetrics[2].OptionCategory)

	withValues, err := store.GetLibrariesWithValues(ctx, d.ID)
	require.NoError(t, err)
	require.Len(t, withValues, 2)
	assert.Equal(t, libs[0].ID, withValues[0].Library.ID)
	assert.Empty(t, withValues[0].Values)
}

func TestDomainStoreNotFound(t *testing.T) {
	ctx := context.Background()
	store := newTestDomainStore(t)

	_, err := store.GetDomain(ctx, "nope")
	assert.ErrorIs(t, err, contract.ErrDomainNotFound)

	_, err = store.LoadDomainSnapshot(ctx, "nope")
	assert.ErrorIs(t, err, contract.ErrDomainNotFound)

	_, err = store.AddLibrary(ctx, schema.Library{DomainID: "nope", Name: "x"})
	assert.ErrorIs(t, err, contract.ErrDomainNotFound)

	err = store.SaveCategoryWeights(ctx, "nope", map[string]float64{"A": 1})
	assert.ErrorIs(t, err, contract.ErrDomainNotFound)
}

func TestDomainStoreValidation(t *testing.T) {
	ctx := context.Background()
	store := newTestDomainStore(t)

	_, err := store.CreateDomain(ctx, schema.Domain{Name: "  "})
	assert.Error(t, err)

	d, err := store.CreateDomain(ctx, schema.Domain{ID: "fixed", Name: "Fixed"})
	require.NoError(t, err)
	assert.Equal(t, "fixed", d.ID)

	_, err = store.AddMetric(ctx, schema.Metric{DomainID: d.ID, Name: "m", ValueType: "blob"})
	assert.Error(t, err)

	m, err := store.AddMetric(ctx, schema.Metric{DomainID: d.ID, Name: "m"})
	require.NoError(t, err)
	assert.Equal(t, schema.FloatValue, m.ValueType, "value type defaults to float")
}

func TestDomainStoreRejectsDuplicateLibraryNames(t *testing.T) {
	ctx := context.Background()
	store := newTestDomainStore(t)
	d, err := store.CreateDomain(ctx, schema.Domain{Name: "UI"})
	require.NoError(t, err)

	first, err := store.AddLibrary(ctx, schema.Library{ID: "a", DomainID: d.ID, Name: "react"})
	require.NoError(t, err)

	_, err = store.AddLibrary(ctx, schema.Library{ID: "b", DomainID: d.ID, Name: "react"})
	require.ErrorIs(t, err, contract.ErrDuplicateLibrary)

	// The unique index backs the check for writes that skip AddLibrary
	_, err = store.db.ExecContext(ctx, `INSERT INTO libraries (library_id, domain_id, library_name, position) VALUES (?, ?, ?, ?)`,
		"c", d.ID, "react", 9)
	assert.Error(t, err)

	libs, err := store.GetLibrariesWithValues(ctx, d.ID)
	require.NoError(t, err)
	require.Len(t, libs, 1)
	assert.Equal(t, first.ID, libs[0].Library.ID)

	// Names only need to be unique within a domain
	other, err := store.CreateDomain(ctx, schema.Domain{Name: "Mobile"})
	require.NoError(t, err)
	_, err = store.AddLibrary(ctx, schema.Library{DomainID: other.ID, Name: "react"})
	assert.NoError(t, err)
}

func TestDomainStoreValues(t *testing.T) {
	ctx := context.Background()
	store := newTestDomainStore(t)
	d, libs, metrics := seedDomain(t, store)

	require.NoError(t, store.UpsertMetricValues(ctx, []schema.MetricValueUpdate{
		{LibraryID: libs[0].ID, MetricID: metrics[0].ID, Value: 80},
		{LibraryID: libs[0].ID, MetricID: metrics[1].ID, Value: true},
		{LibraryID: libs[0].ID, MetricID: metrics[2].ID, Value: "high"},
		{LibraryID: libs[1].ID, MetricID: metrics[0].ID, Value: nil},
	}))

	// Overwrite
	require.NoError(t, store.UpsertMetricValues(ctx, []schema.MetricValueUpdate{
		{LibraryID: libs[0].ID, MetricID: metrics[0].ID, Value: 90.5},
	}))

	withValues, err := store.GetLibrariesWithValues(ctx, d.ID)
	require.NoError(t, err)
	require.Len(t, withValues, 2)

	alpha := withValues[0].Values
	assert.Equal(t, json.Number("90.5"), alpha[metrics[0].ID])
	assert.Equal(t, true, alpha[metrics[1].ID])
	assert.Equal(t, "high", alpha[metrics[2].ID])

	beta := withValues[1].Values
	v, ok := beta[metrics[0].ID]
	assert.True(t, ok)
	assert.Nil(t, v, "null values are stored as absent")
}

func TestDomainStoreUpsertIsAtomic(t *testing.T) {
	ctx := context.Background()
	store := newTestDomainStore(t)
	d, libs, metrics := seedDomain(t, store)

	err := store.UpsertMetricValues(ctx, []schema.MetricValueUpdate{
		{LibraryID: libs[0].ID, MetricID: metrics[0].ID, Value: 10},
		{LibraryID: "ghost", MetricID: metrics[0].ID, Value: 10},
	})
	assert.ErrorIs(t, err, contract.ErrLibraryNotFound)

	err = store.UpsertMetricValues(ctx, []schema.MetricValueUpdate{
		{LibraryID: libs[0].ID, MetricID: "ghost", Value: 10},
	})
	assert.ErrorIs(t, err, contract.ErrMetricNotFound)

	withValues, err := store.GetLibrariesWithValues(ctx, d.ID)
	require.NoError(t, err)
	assert.Empty(t, withValues[0].Values, "failed batch leaves nothing behind")
}

func TestDomainStoreRejectsCrossDomainValues(t *testing.T) {
	ctx := context.Background()
	store := newTestDomainStore(t)
	_, libs, _ := seedDomain(t, store)

	other, err := store.CreateDomain(ctx, schema.Domain{Name: "Other"})
	require.NoError(t, err)
	m, err := store.AddMetric(ctx, schema.Metric{DomainID: other.ID, Name: "x"})
	require.NoError(t, err)

	err = store.UpsertMetricValues(ctx, []schema.MetricValueUpdate{{LibraryID: libs[0].ID, MetricID: m.ID, Value: 1}})
	assert.ErrorContains(t, err, "different domains")
}

func TestDomainStoreWeightsAndSnapshot(t *testing.T) {
	ctx := context.Background()
	store := newTestDomainStore(t)
	d, libs, metrics := seedDomain(t, store)

	weights, err := store.GetCategoryWeights(ctx, d.ID)
	require.NoError(t, err)
	assert.Empty(t, weights)

	require.NoError(t, store.SaveCategoryWeights(ctx, d.ID, map[string]float64{"Popularity": 0.5, "Quality": 0.5}))
	require.NoError(t, store.SaveCategoryWeights(ctx, d.ID, map[string]float64{"Popularity": 0.6, "Quality": 0.3, "Uncategorized": 0.1}))

	weights, err = store.GetCategoryWeights(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"Popularity": 0.6, "Quality": 0.3, "Uncategorized": 0.1}, weights)

	require.NoError(t, store.UpsertMetricValues(ctx, []schema.MetricValueUpdate{
		{LibraryID: libs[1].ID, MetricID: metrics[1].ID, Value: false},
	}))

	snap, err := store.LoadDomainSnapshot(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, d.ID, snap.Domain.ID)
	assert.Len(t, snap.Metrics, 3)
	require.Len(t, snap.Libraries, 2)
	assert.Equal(t, false, snap.Libraries[1].Values[metrics[1].ID])
	assert.Equal(t, weights, snap.Weights)
}

func TestDomainStoreStatus(t *testing.T) {
	store := newTestDomainStore(t)
	seedDomain(t, store)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.Equal(t, int64(1), status.TableSizes[domainsTable])
	assert.Equal(t, int64(2), status.TableSizes[librariesTable])
	assert.Equal(t, int64(3), status.TableSizes[metricsTable])
}

func TestNewDomainStoreNoneBackend(t *testing.T) {
	_, err := NewDomainStore(schema.NoneBackend, "")
	assert.Error(t, err)
}

func TestValueCodec(t *testing.T) {
	enc, err := encodeValue(nil)
	require.NoError(t, err)
	assert.Nil(t, enc)

	enc, err = encodeValue(map[string]any{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, enc)

	_, err = encodeValue(make(chan int))
	assert.Error(t, err)
}
