// Package bundle imports complete domains (metrics, libraries, values and weights)
// from a single YAML or JSON document.
package bundle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/thaafei/domainx/core"
	"github.com/thaafei/domainx/core/algo"
	"github.com/thaafei/domainx/internal/contract"
	"github.com/thaafei/domainx/schema"
	"gopkg.in/yaml.v3"
)

// ErrInvalidBundle is returned for a bundle that fails validation.
var ErrInvalidBundle = errors.New("invalid bundle")

// Bundle is a domain with everything needed to rank it.
type Bundle struct {
	Domain    BundleDomain       `json:"domain" yaml:"domain"`
	Metrics   []BundleMetric     `json:"metrics" yaml:"metrics"`
	Libraries []BundleLibrary    `json:"libraries" yaml:"libraries"`
	Weights   map[string]float64 `json:"weights,omitempty" yaml:"weights,omitempty"`
}

// BundleDomain describes the domain to create.
type BundleDomain struct {
	ID          string `json:"id,omitempty" yaml:"id,omitempty"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// BundleMetric is a metric definition. Key is how libraries refer to it and defaults to Name.
type BundleMetric struct {
	Key            string           `json:"key,omitempty" yaml:"key,omitempty"`
	Name           string           `json:"name" yaml:"name"`
	Description    string           `json:"description,omitempty" yaml:"description,omitempty"`
	Category       string           `json:"category,omitempty" yaml:"category,omitempty"`
	ValueType      schema.ValueType `json:"value_type" yaml:"value_type"`
	OptionCategory string           `json:"option_category,omitempty" yaml:"option_category,omitempty"`
	Rule           string           `json:"rule,omitempty" yaml:"rule,omitempty"`
	RangeMin       *float64         `json:"range_min,omitempty" yaml:"range_min,omitempty"`
	RangeMax       *float64         `json:"range_max,omitempty" yaml:"range_max,omitempty"`
}

// BundleLibrary is a library and its raw values keyed by metric key.
type BundleLibrary struct {
	Name                string         `json:"name" yaml:"name"`
	URL                 string         `json:"url,omitempty" yaml:"url,omitempty"`
	ProgrammingLanguage string         `json:"programming_language,omitempty" yaml:"programming_language,omitempty"`
	Values              map[string]any `json:"values,omitempty" yaml:"values,omitempty"`
}

// ImportResult summarizes an import.
type ImportResult struct {
	Domain    schema.Domain           `json:"domain"`
	Metrics   int                     `json:"metrics"`
	Libraries int                     `json:"libraries"`
	Values    schema.BulkUpdateResult `json:"values"`
	Weights   bool                    `json:"weights_saved"`
}

// ReadFile decodes a bundle; .yaml and .yml files are YAML, anything else JSON.
func ReadFile(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read bundle: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return ParseJSON(data)
	}
}

// ParseYAML decodes and validates a YAML bundle.
func ParseYAML(data []byte) (*Bundle, error) {
	var b Bundle
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBundle, err)
	}
	return &b, b.Validate()
}

// ParseJSON decodes and validates a JSON bundle. Numbers keep their literal form.
func ParseJSON(data []byte) (*Bundle, error) {
	var b Bundle
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	if err := dec.Decode(&b); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBundle, err)
	}
	return &b, b.Validate()
}

// Validate checks names, types and references. Value coercion is checked at import.
func (b *Bundle) Validate() error {
	if strings.TrimSpace(b.Domain.Name) == "" {
		return fmt.Errorf("%w: domain name is required", ErrInvalidBundle)
	}

	keys := make(map[string]struct{}, len(b.Metrics))
	for i, m := range b.Metrics {
		if strings.TrimSpace(m.Name) == "" {
			return fmt.Errorf("%w: metric %d has no name", ErrInvalidBundle, i)
		}
		if _, ok := schema.ValidValueTypes[m.ValueType]; !ok {
			return fmt.Errorf("%w: metric %s has invalid value_type %q", ErrInvalidBundle, m.Name, m.ValueType)
		}
		if (m.RangeMin == nil) != (m.RangeMax == nil) {
			return fmt.Errorf("%w: metric %s needs both range_min and range_max", ErrInvalidBundle, m.Name)
		}
		key := m.key()
		if _, dup := keys[key]; dup {
			return fmt.Errorf("%w: duplicate metric key %q", ErrInvalidBundle, key)
		}
		keys[key] = struct{}{}
	}

	names := make(map[string]struct{}, len(b.Libraries))
	for i, l := range b.Libraries {
		if strings.TrimSpace(l.Name) == "" {
			return fmt.Errorf("%w: library %d has no name", ErrInvalidBundle, i)
		}
		if _, dup := names[l.Name]; dup {
			return fmt.Errorf("%w: duplicate library name %q", ErrInvalidBundle, l.Name)
		}
		names[l.Name] = struct{}{}
		for k := range l.Values {
			if _, ok := keys[k]; !ok {
				return fmt.Errorf("%w: library %s has a value for unknown metric %q", ErrInvalidBundle, l.Name, k)
			}
		}
	}
	return nil
}

func (m BundleMetric) key() string {
	if m.Key != "" {
		return m.Key
	}
	return m.Name
}

// Import creates the domain of a bundle in the store.
// Values that do not fit their metric type are skipped and reported.
func Import(ctx context.Context, store contract.DomainStore, b *Bundle, opts algo.Options) (ImportResult, error) {
	var result ImportResult
	if err := b.Validate(); err != nil {
		return result, err
	}

	domainID := b.Domain.ID
	if domainID == "" {
		domainID = uuid.NewString()
	}
	domain, err := store.CreateDomain(ctx, schema.Domain{
		ID:          domainID,
		Name:        b.Domain.Name,
		Description: b.Domain.Description,
	})
	if err != nil {
		return result, fmt.Errorf("failed to create domain: %w", err)
	}
	result.Domain = domain

	metricIDs := make(map[string]string, len(b.Metrics))
	for _, m := range b.Metrics {
		created, err := store.AddMetric(ctx, schema.Metric{
			ID:             uuid.NewString(),
			DomainID:       domain.ID,
			Name:           m.Name,
			Description:    m.Description,
			Category:       m.Category,
			ValueType:      m.ValueType,
			OptionCategory: m.OptionCategory,
			Rule:           m.Rule,
			RangeMin:       m.RangeMin,
			RangeMax:       m.RangeMax,
		})
		if err != nil {
			return result, fmt.Errorf("failed to add metric %s: %w", m.Name, err)
		}
		metricIDs[m.key()] = created.ID
		result.Metrics++
	}

	var updates []schema.MetricValueUpdate
	for _, l := range b.Libraries {
		created, err := store.AddLibrary(ctx, schema.Library{
			ID:                  uuid.NewString(),
			DomainID:            domain.ID,
			Name:                l.Name,
			URL:                 l.URL,
			ProgrammingLanguage: l.ProgrammingLanguage,
		})
		if err != nil {
			return result, fmt.Errorf("failed to add library %s: %w", l.Name, err)
		}
		result.Libraries++
		for _, k := range sortedKeys(l.Values) {
			updates = append(updates, schema.MetricValueUpdate{
				LibraryID: created.ID,
				MetricID:  metricIDs[k],
				Value:     l.Values[k],
			})
		}
	}

	if len(updates) > 0 {
		values, err := core.UpdateMetricValues(ctx, store, domain.ID, updates)
		if err != nil {
			return result, fmt.Errorf("failed to write values: %w", err)
		}
		result.Values = values
	}

	if len(b.Weights) > 0 {
		if err := core.SaveCategoryWeights(ctx, store, domain.ID, b.Weights, opts); err != nil {
			return result, fmt.Errorf("failed to save weights: %w", err)
		}
		result.Weights = true
	}

	return result, nil
}
