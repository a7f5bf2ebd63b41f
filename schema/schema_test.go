package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetricCategoryName(t *testing.T) {
	assert.Equal(t, "Popularity", Metric{Category: "Popularity"}.CategoryName())
	assert.Equal(t, "Popularity", Metric{Category: "  Popularity "}.CategoryName())
	assert.Equal(t, UncategorizedCategory, Metric{}.CategoryName())
	assert.Equal(t, UncategorizedCategory, Metric{Category: "   "}.CategoryName())
}

func TestMetricHasRange(t *testing.T) {
	lo, hi := 0.0, 100.0
	assert.True(t, Metric{RangeMin: &lo, RangeMax: &hi}.HasRange())
	assert.False(t, Metric{RangeMin: &lo}.HasRange())
	assert.False(t, Metric{}.HasRange())
}

func TestValueTypeClassification(t *testing.T) {
	assert.True(t, FloatValue.IsNumeric())
	assert.True(t, IntValue.IsNumeric())
	assert.False(t, BoolValue.IsNumeric())
	assert.False(t, RangeValue.IsNumeric())

	assert.True(t, BoolValue.IsScorable())
	assert.True(t, RangeValue.IsScorable())
	assert.False(t, TextValue.IsScorable())
}

func TestRuleSetLookup(t *testing.T) {
	rs := NewRuleSet()
	rs.Put(RuleKey{"yes_no", "standard"}, "Yes / No", BooleanRule{TrueScore: 1, FalseScore: 0})
	rs.Put(RuleKey{"yes_no", "lenient"}, "", BooleanRule{TrueScore: 0.8, FalseScore: 0.2})
	rs.Put(RuleKey{"file_ranges", "standard"}, "File ranges", BucketRule{Buckets: map[string]float64{"low": 0.2, "high": 1}})

	assert.Equal(t, 3, rs.Len())
	assert.Equal(t, "Yes / No", rs.Bool["yes_no"].DisplayName)

	rule, ok := rs.Lookup(BooleanRuleKind, RuleKey{"yes_no", "lenient"})
	assert.True(t, ok)
	assert.Equal(t, BooleanRule{TrueScore: 0.8, FalseScore: 0.2}, rule)

	rule, ok = rs.Lookup(BucketRuleKind, RuleKey{"file_ranges", "standard"})
	assert.True(t, ok)
	assert.Equal(t, []string{"high", "low"}, rule.(BucketRule).Keys())

	// Sections are separate: a bool key is not visible in the range section
	_, ok = rs.Lookup(BucketRuleKind, RuleKey{"yes_no", "standard"})
	assert.False(t, ok)

	var nilSet *RuleSet
	_, ok = nilSet.Lookup(BooleanRuleKind, RuleKey{"yes_no", "standard"})
	assert.False(t, ok)
}
