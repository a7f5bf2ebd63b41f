package iocache

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/thaafei/domainx/internal/contract"
	"github.com/thaafei/domainx/schema"
)

// MockStoreManager is a mock implementation of StoreManager for testing.
type MockStoreManager struct {
	mock.Mock
}

var _ contract.StoreManager = &MockStoreManager{} // Compile-time check

// GetDomainStore implements the StoreManager interface.
func (m *MockStoreManager) GetDomainStore() contract.DomainStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.DomainStore)
	return store
}

// GetRankingCache implements the StoreManager interface.
func (m *MockStoreManager) GetRankingCache() contract.CacheStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.CacheStore)
	return store
}

// GetHistoryStore implements the StoreManager interface.
func (m *MockStoreManager) GetHistoryStore() contract.HistoryStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.HistoryStore)
	return store
}

// MockCacheStore is a mock implementation of CacheStore for testing.
type MockCacheStore struct {
	mock.Mock
}

var _ contract.CacheStore = &MockCacheStore{} // Compile-time check

// Get implements the CacheStore interface.
func (m *MockCacheStore) Get(key string) ([]byte, int, int64, error) {
	args := m.Called(key)
	data, _ := args.Get(0).([]byte)
	return data, args.Int(1), args.Get(2).(int64), args.Error(3)
}

// Set implements the CacheStore interface.
func (m *MockCacheStore) Set(key string, data []byte, version int, ts int64) error {
	args := m.Called(key, data, version, ts)
	return args.Error(0)
}

// Clear implements the CacheStore interface.
func (m *MockCacheStore) Clear() error {
	args := m.Called()
	return args.Error(0)
}

// Close implements the CacheStore interface.
func (m *MockCacheStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// GetStatus implements the CacheStore interface.
func (m *MockCacheStore) GetStatus() (schema.CacheStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.CacheStatus), args.Error(1)
}

// MockHistoryStore is a mock implementation of HistoryStore for testing.
type MockHistoryStore struct {
	mock.Mock
}

var _ contract.HistoryStore = &MockHistoryStore{} // Compile-time check

// BeginRun implements the HistoryStore interface.
func (m *MockHistoryStore) BeginRun(startTime time.Time, domain schema.Domain, configParams map[string]any) (int64, error) {
	args := m.Called(startTime, domain, configParams)
	return args.Get(0).(int64), args.Error(1)
}

// EndRun implements the HistoryStore interface.
func (m *MockHistoryStore) EndRun(runID int64, endTime time.Time, libraryCount, skippedCount int) error {
	args := m.Called(runID, endTime, libraryCount, skippedCount)
	return args.Error(0)
}

// RecordLibraryScore implements the HistoryStore interface.
func (m *MockHistoryStore) RecordLibraryScore(runID int64, lib schema.RankedLibrary) error {
	args := m.Called(runID, lib)
	return args.Error(0)
}

// GetAllRuns implements the HistoryStore interface.
func (m *MockHistoryStore) GetAllRuns() ([]schema.RankingRunRecord, error) {
	args := m.Called()
	runs, _ := args.Get(0).([]schema.RankingRunRecord)
	return runs, args.Error(1)
}

// GetAllLibraryScores implements the HistoryStore interface.
func (m *MockHistoryStore) GetAllLibraryScores() ([]schema.LibraryScoreRecord, error) {
	args := m.Called()
	scores, _ := args.Get(0).([]schema.LibraryScoreRecord)
	return scores, args.Error(1)
}

// Clear implements the HistoryStore interface.
func (m *MockHistoryStore) Clear() error {
	args := m.Called()
	return args.Error(0)
}

// Close implements the HistoryStore interface.
func (m *MockHistoryStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// GetStatus implements the HistoryStore interface.
func (m *MockHistoryStore) GetStatus() (schema.HistoryStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.HistoryStatus), args.Error(1)
}

// MockDomainStore is a mock implementation of DomainStore for testing.
type MockDomainStore struct {
	mock.Mock
}

var _ contract.DomainStore = &MockDomainStore{} // Compile-time check

// ListDomains implements the DomainStore interface.
func (m *MockDomainStore) ListDomains(ctx context.Context) ([]schema.DomainSummary, error) {
	args := m.Called(ctx)
	out, _ := args.Get(0).([]schema.DomainSummary)
	return out, args.Error(1)
}

// GetDomain implements the DomainStore interface.
func (m *MockDomainStore) GetDomain(ctx context.Context, domainID string) (schema.Domain, error) {
	args := m.Called(ctx, domainID)
	return args.Get(0).(schema.Domain), args.Error(1)
}

// GetMetricsForDomain implements the DomainStore interface.
func (m *MockDomainStore) GetMetricsForDomain(ctx context.Context, domainID string) ([]schema.Metric, error) {
	args := m.Called(ctx, domainID)
	out, _ := args.Get(0).([]schema.Metric)
	return out, args.Error(1)
}

// GetLibrariesWithValues implements the DomainStore interface.
func (m *MockDomainStore) GetLibrariesWithValues(ctx context.Context, domainID string) ([]schema.LibraryValues, error) {
	args := m.Called(ctx, domainID)
	out, _ := args.Get(0).([]schema.LibraryValues)
	return out, args.Error(1)
}

// GetCategoryWeights implements the DomainStore interface.
func (m *MockDomainStore) GetCategoryWeights(ctx context.Context, domainID string) (map[string]float64, error) {
	args := m.Called(ctx, domainID)
	out, _ := args.Get(0).(map[string]float64)
	return out, args.Error(1)
}

// LoadDomainSnapshot implements the DomainStore interface.
func (m *MockDomainStore) LoadDomainSnapshot(ctx context.Context, domainID string) (schema.DomainSnapshot, error) {
	args := m.Called(ctx, domainID)
	return args.Get(0).(schema.DomainSnapshot), args.Error(1)
}

// CreateDomain implements the DomainStore interface.
func (m *MockDomainStore) CreateDomain(ctx context.Context, domain schema.Domain) (schema.Domain, error) {
	args := m.Called(ctx, domain)
	return args.Get(0).(schema.Domain), args.Error(1)
}

// AddLibrary implements the DomainStore interface.
func (m *MockDomainStore) AddLibrary(ctx context.Context, lib schema.Library) (schema.Library, error) {
	args := m.Called(ctx, lib)
	return args.Get(0).(schema.Library), args.Error(1)
}

// AddMetric implements the DomainStore interface.
func (m *MockDomainStore) AddMetric(ctx context.Context, metric schema.Metric) (schema.Metric, error) {
	args := m.Called(ctx, metric)
	return args.Get(0).(schema.Metric), args.Error(1)
}

// SaveCategoryWeights implements the DomainStore interface.
func (m *MockDomainStore) SaveCategoryWeights(ctx context.Context, domainID string, weights map[string]float64) error {
	args := m.Called(ctx, domainID, weights)
	return args.Error(0)
}

// UpsertMetricValues implements the DomainStore interface.
func (m *MockDomainStore) UpsertMetricValues(ctx context.Context, updates []schema.MetricValueUpdate) error {
	args := m.Called(ctx, updates)
	return args.Error(0)
}

// GetStatus implements the DomainStore interface.
func (m *MockDomainStore) GetStatus() (schema.StoreStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.StoreStatus), args.Error(1)
}

// Close implements the DomainStore interface.
func (m *MockDomainStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
