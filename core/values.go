package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/thaafei/domainx/core/algo"
	"github.com/thaafei/domainx/internal/contract"
	"github.com/thaafei/domainx/schema"
)

// ErrInvalidValue is returned when a single value update cannot be applied.
var ErrInvalidValue = errors.New("invalid metric value")

// UpdateMetricValues validates and writes raw values for libraries of one domain.
// Entries naming an unknown library or metric, or holding a value that does not fit
// the metric type, are skipped and reported; the rest are written in one transaction.
func UpdateMetricValues(ctx context.Context, store contract.DomainStore, domainID string, updates []schema.MetricValueUpdate) (schema.BulkUpdateResult, error) {
	var result schema.BulkUpdateResult

	if _, err := store.GetDomain(ctx, domainID); err != nil {
		return result, err
	}
	metrics, err := store.GetMetricsForDomain(ctx, domainID)
	if err != nil {
		return result, err
	}
	libs, err := store.GetLibrariesWithValues(ctx, domainID)
	if err != nil {
		return result, err
	}

	metricByID := make(map[string]schema.Metric, len(metrics))
	for _, m := range metrics {
		metricByID[m.ID] = m
	}
	libraryIDs := make(map[string]struct{}, len(libs))
	for _, l := range libs {
		libraryIDs[l.Library.ID] = struct{}{}
	}

	valid := make([]schema.MetricValueUpdate, 0, len(updates))
	skip := func(i int, reason string) {
		result.Skipped++
		result.Reasons = append(result.Reasons, fmt.Sprintf("entry %d: %s", i, reason))
	}
	for i, u := range updates {
		if u.LibraryID == "" || u.MetricID == "" {
			skip(i, "library_id and metric_id are required")
			continue
		}
		if _, ok := libraryIDs[u.LibraryID]; !ok {
			skip(i, fmt.Sprintf("%s: %s", contract.ErrLibraryNotFound, u.LibraryID))
			continue
		}
		m, ok := metricByID[u.MetricID]
		if !ok {
			skip(i, fmt.Sprintf("%s: %s", contract.ErrMetricNotFound, u.MetricID))
			continue
		}
		if err := algo.CheckValue(m, u.Value); err != nil {
			skip(i, fmt.Sprintf("metric %s: %v", m.Name, err))
			continue
		}
		valid = append(valid, u)
	}

	if len(valid) == 0 {
		return result, nil
	}
	if err := store.UpsertMetricValues(ctx, valid); err != nil {
		return result, err
	}
	result.Updated = len(valid)
	return result, nil
}

// UpdateMetricValue writes a single value and fails when it cannot be applied.
func UpdateMetricValue(ctx context.Context, store contract.DomainStore, domainID string, update schema.MetricValueUpdate) error {
	result, err := UpdateMetricValues(ctx, store, domainID, []schema.MetricValueUpdate{update})
	if err != nil {
		return err
	}
	if result.Skipped > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidValue, result.Reasons[0])
	}
	return nil
}

// ValidateCategoryWeights checks a weight set against the active categories of a domain.
func ValidateCategoryWeights(ctx context.Context, store contract.DomainStore, domainID string, weights map[string]float64, opts algo.Options) error {
	if _, err := store.GetDomain(ctx, domainID); err != nil {
		return err
	}
	metrics, err := store.GetMetricsForDomain(ctx, domainID)
	if err != nil {
		return err
	}
	active := ActiveCategories(metrics, opts)
	if active == nil {
		active = []string{}
	}
	return algo.ValidateWeights(weights, active)
}

// SaveCategoryWeights validates a weight set against the active categories of a domain and stores it.
func SaveCategoryWeights(ctx context.Context, store contract.DomainStore, domainID string, weights map[string]float64, opts algo.Options) error {
	if err := ValidateCategoryWeights(ctx, store, domainID, weights, opts); err != nil {
		return err
	}
	return store.SaveCategoryWeights(ctx, domainID, weights)
}

// GetEffectiveWeights returns the weights a ranking of the domain would use right now.
func GetEffectiveWeights(ctx context.Context, store contract.DomainStore, domainID string, opts algo.Options) (map[string]float64, schema.WeightSource, error) {
	if _, err := store.GetDomain(ctx, domainID); err != nil {
		return nil, "", err
	}
	metrics, err := store.GetMetricsForDomain(ctx, domainID)
	if err != nil {
		return nil, "", err
	}
	stored, err := store.GetCategoryWeights(ctx, domainID)
	if err != nil {
		return nil, "", err
	}
	weights, source := algo.ResolveWeights(ActiveCategories(metrics, opts), stored)
	return weights, source, nil
}

// GetDomainDetail describes a domain with its metrics and categories.
func GetDomainDetail(ctx context.Context, store contract.DomainStore, domainID string, opts algo.Options) (schema.DomainDetail, error) {
	snap, err := store.LoadDomainSnapshot(ctx, domainID)
	if err != nil {
		return schema.DomainDetail{}, err
	}

	categories := []string{}
	seen := make(map[string]struct{})
	for _, m := range snap.Metrics {
		c := m.CategoryName()
		if _, ok := seen[c]; !ok {
			seen[c] = struct{}{}
			categories = append(categories, c)
		}
	}
	active := ActiveCategories(snap.Metrics, opts)
	if active == nil {
		active = []string{}
	}
	metrics := snap.Metrics
	if metrics == nil {
		metrics = []schema.Metric{}
	}

	return schema.DomainDetail{
		Domain:           snap.Domain,
		Metrics:          metrics,
		Categories:       categories,
		ActiveCategories: active,
		LibraryCount:     len(snap.Libraries),
	}, nil
}
