package schema

import (
	"encoding/json"
	"sort"
)

// RuleKind tags the variant of a scoring rule.
type RuleKind string

// All rule kinds. The values match the top-level sections of a rules file.
const (
	BooleanRuleKind RuleKind = "bool"
	BucketRuleKind  RuleKind = "range"
)

// Rule is a scoring template resolved by (option category, rule key).
// It is either a BooleanRule or a BucketRule.
type Rule interface {
	Kind() RuleKind
}

// BooleanRule maps true and false to configured scores.
type BooleanRule struct {
	TrueScore  float64 `json:"true" yaml:"true"`
	FalseScore float64 `json:"false" yaml:"false"`
}

// Kind implements Rule.
func (BooleanRule) Kind() RuleKind { return BooleanRuleKind }

// BucketRule maps exact bucket keys to score tiers.
type BucketRule struct {
	Buckets map[string]float64 `json:"buckets" yaml:"buckets"`
}

// Kind implements Rule.
func (BucketRule) Kind() RuleKind { return BucketRuleKind }

// MarshalJSON writes the buckets as a flat object, the layout of a rules file.
func (r BucketRule) MarshalJSON() ([]byte, error) {
	if r.Buckets == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(r.Buckets)
}

// Keys returns the bucket keys in sorted order.
func (r BucketRule) Keys() []string {
	keys := make([]string, 0, len(r.Buckets))
	for k := range r.Buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// RuleKey identifies a template inside a rule set.
type RuleKey struct {
	OptionCategory string `json:"option_category"`
	Rule           string `json:"rule"`
}

// RuleOption is one option category of a rules catalogue, e.g. "yes_no".
type RuleOption struct {
	DisplayName string          `json:"display_name"`
	Templates   map[string]Rule `json:"templates"`
}

// RuleSet is a full rules catalogue grouped by rule kind and option category.
type RuleSet struct {
	Bool  map[string]RuleOption `json:"bool"`
	Range map[string]RuleOption `json:"range"`
}

// NewRuleSet returns an empty rule set.
func NewRuleSet() *RuleSet {
	return &RuleSet{
		Bool:  make(map[string]RuleOption),
		Range: make(map[string]RuleOption),
	}
}

// Lookup finds the template for a key within the section of the given kind.
func (rs *RuleSet) Lookup(kind RuleKind, key RuleKey) (Rule, bool) {
	if rs == nil {
		return nil, false
	}
	section := rs.Bool
	if kind == BucketRuleKind {
		section = rs.Range
	}
	opt, ok := section[key.OptionCategory]
	if !ok {
		return nil, false
	}
	rule, ok := opt.Templates[key.Rule]
	return rule, ok
}

// Put stores a template, creating its option category when needed.
func (rs *RuleSet) Put(key RuleKey, displayName string, rule Rule) {
	section := rs.Bool
	if rule.Kind() == BucketRuleKind {
		section = rs.Range
	}
	opt, ok := section[key.OptionCategory]
	if !ok {
		opt = RuleOption{DisplayName: displayName, Templates: make(map[string]Rule)}
	}
	if opt.DisplayName == "" {
		opt.DisplayName = displayName
	}
	opt.Templates[key.Rule] = rule
	section[key.OptionCategory] = opt
}

// Len returns the number of templates in the set.
func (rs *RuleSet) Len() int {
	n := 0
	for _, opt := range rs.Bool {
		n += len(opt.Templates)
	}
	for _, opt := range rs.Range {
		n += len(opt.Templates)
	}
	return n
}
