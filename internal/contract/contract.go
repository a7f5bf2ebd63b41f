// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"errors"
	"time"

	"github.com/thaafei/domainx/schema"
)

// Lookup errors shared by every DomainStore implementation.
var (
	ErrDomainNotFound  = errors.New("domain not found")
	ErrLibraryNotFound = errors.New("library not found")
	ErrMetricNotFound  = errors.New("metric not found")

	// ErrDuplicateLibrary is returned when a domain already holds a library with the same name.
	ErrDuplicateLibrary = errors.New("library name already used in domain")
)

// DomainStore defines the read and write operations on domains, libraries,
// metrics, metric values and category weights.
// This allows the ranking logic to be tested without a real database.
type DomainStore interface {
	// --- Reads ---

	// ListDomains returns every domain with library and metric counts.
	ListDomains(ctx context.Context) ([]schema.DomainSummary, error)

	// GetDomain returns one domain or ErrDomainNotFound.
	GetDomain(ctx context.Context, domainID string) (schema.Domain, error)

	// GetMetricsForDomain returns the metrics of a domain in their defined order.
	GetMetricsForDomain(ctx context.Context, domainID string) ([]schema.Metric, error)

	// GetLibrariesWithValues returns the libraries of a domain with their raw values keyed by metric ID.
	GetLibrariesWithValues(ctx context.Context, domainID string) ([]schema.LibraryValues, error)

	// GetCategoryWeights returns the stored weights of a domain. The map is empty when none are stored.
	GetCategoryWeights(ctx context.Context, domainID string) (map[string]float64, error)

	// LoadDomainSnapshot fetches everything a ranking needs with a fixed number of queries.
	LoadDomainSnapshot(ctx context.Context, domainID string) (schema.DomainSnapshot, error)

	// --- Writes ---

	// CreateDomain inserts a domain. An empty ID is generated.
	CreateDomain(ctx context.Context, domain schema.Domain) (schema.Domain, error)

	// AddLibrary inserts a library. An empty ID is generated.
	AddLibrary(ctx context.Context, lib schema.Library) (schema.Library, error)

	// AddMetric inserts a metric. An empty ID is generated.
	AddMetric(ctx context.Context, metric schema.Metric) (schema.Metric, error)

	// SaveCategoryWeights replaces all stored weights of a domain.
	SaveCategoryWeights(ctx context.Context, domainID string, weights map[string]float64) error

	// UpsertMetricValues writes raw values in a single transaction.
	UpsertMetricValues(ctx context.Context, updates []schema.MetricValueUpdate) error

	// GetStatus returns status information about the store
	GetStatus() (schema.StoreStatus, error)

	// Close closes the underlying connection
	Close() error
}

// RuleProvider resolves scoring templates from the rules catalogue.
type RuleProvider interface {
	// Lookup finds a template by kind and key.
	Lookup(kind schema.RuleKind, key schema.RuleKey) (schema.Rule, bool)

	// GetScoringRuleTemplate finds a template by option category and rule key in any section.
	GetScoringRuleTemplate(optionCategory, ruleKey string) (schema.Rule, bool)

	// RuleSet returns the current catalogue.
	RuleSet() *schema.RuleSet

	// Fingerprint returns a stable hash of the current catalogue.
	Fingerprint() string

	// Snapshot returns the current catalogue together with its fingerprint,
	// read under a single lock so both describe the same catalogue.
	Snapshot() (*schema.RuleSet, string)
}

// StoreManager defines the interface for managing the stores.
// This allows the persistence layer to be mocked for testing.
type StoreManager interface {
	GetDomainStore() DomainStore
	GetRankingCache() CacheStore
	GetHistoryStore() HistoryStore
}

// CacheStore defines the interface for cache data storage.
// This allows mocking the store for testing.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	Clear() error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// HistoryStore defines the interface for tracking ranking runs and their scores.
type HistoryStore interface {
	// BeginRun creates a new ranking run and returns its unique ID
	BeginRun(startTime time.Time, domain schema.Domain, configParams map[string]any) (int64, error)

	// EndRun updates the ranking run with completion data
	EndRun(runID int64, endTime time.Time, libraryCount, skippedCount int) error

	// RecordLibraryScore stores the final score of a library
	RecordLibraryScore(runID int64, lib schema.RankedLibrary) error

	// GetAllRuns returns every recorded run
	GetAllRuns() ([]schema.RankingRunRecord, error)

	// GetAllLibraryScores returns every recorded library score
	GetAllLibraryScores() ([]schema.LibraryScoreRecord, error)

	// Clear removes all runs and scores
	Clear() error

	// GetStatus returns status information about the history store
	GetStatus() (schema.HistoryStatus, error)

	// Close closes the underlying connection
	Close() error
}
