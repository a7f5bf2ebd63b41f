package rules

import "github.com/thaafei/domainx/schema"

// DefaultRuleSet returns the built-in catalogue used when no rules file is configured.
func DefaultRuleSet() *schema.RuleSet {
	set := schema.NewRuleSet()

	set.Put(schema.RuleKey{OptionCategory: schema.DefaultBoolOptionCategory, Rule: schema.DefaultRuleKey}, "Yes / No",
		schema.BooleanRule{TrueScore: 1, FalseScore: 0})
	set.Put(schema.RuleKey{OptionCategory: schema.DefaultBoolOptionCategory, Rule: "inverted"}, "Yes / No",
		schema.BooleanRule{TrueScore: 0, FalseScore: 1})

	set.Put(schema.RuleKey{OptionCategory: schema.DefaultRangeOptionCategory, Rule: schema.DefaultRuleKey}, "File ranges",
		schema.BucketRule{Buckets: map[string]float64{
			"0-10":    0.2,
			"10-50":   0.4,
			"50-100":  0.6,
			"100-500": 0.8,
			"500+":    1.0,
		}})
	set.Put(schema.RuleKey{OptionCategory: "levels", Rule: schema.DefaultRuleKey}, "Low / Medium / High",
		schema.BucketRule{Buckets: map[string]float64{
			"low":    0.25,
			"medium": 0.5,
			"high":   1.0,
		}})

	return set
}
