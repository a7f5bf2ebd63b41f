// Package schema has the models and constants shared by all parts of domainx.
package schema

import (
	"strings"
	"time"
)

// Domain is a named collection of libraries and metrics forming one evaluation context.
type Domain struct {
	ID          string    `json:"domain_id" yaml:"id"`
	Name        string    `json:"domain_name" yaml:"name"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at" yaml:"-"`
}

// Library is a software library registered to a domain.
type Library struct {
	ID                  string `json:"library_id" yaml:"id"`
	DomainID            string `json:"domain_id" yaml:"-"`
	Name                string `json:"library_name" yaml:"name"`
	URL                 string `json:"url,omitempty" yaml:"url,omitempty"`
	ProgrammingLanguage string `json:"programming_language,omitempty" yaml:"programming_language,omitempty"`
}

// Metric is a named, typed attribute measured for each library of a domain.
type Metric struct {
	ID             string    `json:"metric_id" yaml:"id"`
	DomainID       string    `json:"domain_id" yaml:"-"`
	Name           string    `json:"metric_name" yaml:"name"`
	Description    string    `json:"description,omitempty" yaml:"description,omitempty"`
	Category       string    `json:"category,omitempty" yaml:"category,omitempty"`
	ValueType      ValueType `json:"value_type" yaml:"value_type"`
	OptionCategory string    `json:"option_category,omitempty" yaml:"option_category,omitempty"`
	Rule           string    `json:"rule,omitempty" yaml:"rule,omitempty"`
	RangeMin       *float64  `json:"range_min,omitempty" yaml:"range_min,omitempty"`
	RangeMax       *float64  `json:"range_max,omitempty" yaml:"range_max,omitempty"`
}

// CategoryName returns the category the metric is aggregated under.
func (m Metric) CategoryName() string {
	if c := strings.TrimSpace(m.Category); c != "" {
		return c
	}
	return UncategorizedCategory
}

// HasRange reports whether both range bounds are configured.
func (m Metric) HasRange() bool {
	return m.RangeMin != nil && m.RangeMax != nil
}

// LibraryValues pairs a library with its raw metric values keyed by metric ID.
// A missing key and a nil value are both absent.
type LibraryValues struct {
	Library Library        `json:"library"`
	Values  map[string]any `json:"values"`
}

// DomainSnapshot is everything a ranking reads from storage, fetched in one batch.
type DomainSnapshot struct {
	Domain    Domain             `json:"domain"`
	Metrics   []Metric           `json:"metrics"`
	Libraries []LibraryValues    `json:"libraries"`
	Weights   map[string]float64 `json:"weights"`
}

// MetricValueUpdate is one (library, metric) value write.
type MetricValueUpdate struct {
	LibraryID string `json:"library_id"`
	MetricID  string `json:"metric_id"`
	Value     any    `json:"value"`
}

// BulkUpdateResult summarizes a bulk metric value write.
type BulkUpdateResult struct {
	Updated int      `json:"updated"`
	Skipped int      `json:"skipped"`
	Reasons []string `json:"reasons,omitempty"`
}

// DomainSummary is a listing row for a domain.
type DomainSummary struct {
	Domain
	LibraryCount int `json:"library_count"`
	MetricCount  int `json:"metric_count"`
}

// DomainDetail describes one domain with its metrics and the categories they form.
// Categories lists every category in metric order, including Uncategorized when used;
// ActiveCategories lists those that currently take part in a ranking.
type DomainDetail struct {
	Domain
	Metrics          []Metric `json:"metrics"`
	Categories       []string `json:"categories"`
	ActiveCategories []string `json:"active_categories"`
	LibraryCount     int      `json:"library_count"`
}
