// Package algo holds the pure scoring math: normalization, aggregation, weights and ranking.
package algo

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/thaafei/domainx/schema"
)

// Normalization errors. Each one means the single value is skipped.
var (
	ErrInvalidValueType = errors.New("invalid value type")
	ErrUnknownBucket    = errors.New("unknown bucket")
	ErrUnknownRule      = errors.New("unknown rule template")
	ErrInvalidRange     = errors.New("invalid numeric range")
)

// RuleLookup resolves rule templates by kind and key.
type RuleLookup interface {
	Lookup(kind schema.RuleKind, key schema.RuleKey) (schema.Rule, bool)
}

// defaultBooleanRule applies when a bool metric names no template and none is loaded.
var defaultBooleanRule = schema.BooleanRule{TrueScore: 1, FalseScore: 0}

// Options tunes normalization.
type Options struct {
	Unranged schema.NumericPolicy
}

// Normalize converts a raw metric value into a score in [0,1].
// present is false when the value is absent or the metric is not scorable.
func Normalize(metric schema.Metric, raw any, rules RuleLookup, opts Options) (score float64, present bool, err error) {
	if raw == nil || !metric.ValueType.IsScorable() {
		return 0, false, nil
	}

	switch metric.ValueType {
	case schema.BoolValue:
		return normalizeBool(metric, raw, rules)
	case schema.RangeValue:
		return normalizeBucket(metric, raw, rules)
	default:
		return normalizeNumeric(metric, raw, opts)
	}
}

func normalizeNumeric(metric schema.Metric, raw any, opts Options) (float64, bool, error) {
	v, err := toFloat(raw)
	if err != nil {
		return 0, false, err
	}

	if !metric.HasRange() {
		if opts.Unranged == schema.ExcludeNumeric {
			return 0, false, nil
		}
		return clamp01(v), true, nil
	}

	lo, hi := *metric.RangeMin, *metric.RangeMax
	if hi <= lo {
		return 0, false, fmt.Errorf("%w: [%g, %g]", ErrInvalidRange, lo, hi)
	}
	return clamp01((v - lo) / (hi - lo)), true, nil
}

func normalizeBool(metric schema.Metric, raw any, rules RuleLookup) (float64, bool, error) {
	b, err := toBool(raw)
	if err != nil {
		return 0, false, err
	}

	key, named := ruleKey(metric, schema.DefaultBoolOptionCategory)
	rule := schema.Rule(defaultBooleanRule)
	if r, ok := lookup(rules, schema.BooleanRuleKind, key); ok {
		rule = r
	} else if named {
		return 0, false, fmt.Errorf("%w: bool/%s/%s", ErrUnknownRule, key.OptionCategory, key.Rule)
	}

	switch r := rule.(type) {
	case schema.BooleanRule:
		if b {
			return clamp01(r.TrueScore), true, nil
		}
		return clamp01(r.FalseScore), true, nil
	case schema.BucketRule:
		// A bucket template can still score booleans through "true"/"false" keys.
		return bucketScore(r, strconv.FormatBool(b))
	default:
		return 0, false, fmt.Errorf("%w: unsupported rule kind %q", ErrUnknownRule, rule.Kind())
	}
}

func normalizeBucket(metric schema.Metric, raw any, rules RuleLookup) (float64, bool, error) {
	bucket, err := toBucketKey(raw)
	if err != nil {
		return 0, false, err
	}

	key, _ := ruleKey(metric, schema.DefaultRangeOptionCategory)
	rule, ok := lookup(rules, schema.BucketRuleKind, key)
	if !ok {
		return 0, false, fmt.Errorf("%w: range/%s/%s", ErrUnknownRule, key.OptionCategory, key.Rule)
	}
	br, ok := rule.(schema.BucketRule)
	if !ok {
		return 0, false, fmt.Errorf("%w: range/%s/%s is not a bucket rule", ErrUnknownRule, key.OptionCategory, key.Rule)
	}
	return bucketScore(br, bucket)
}

func bucketScore(r schema.BucketRule, bucket string) (float64, bool, error) {
	s, ok := r.Buckets[bucket]
	if !ok {
		return 0, false, fmt.Errorf("%w: %q", ErrUnknownBucket, bucket)
	}
	return clamp01(s), true, nil
}

// ruleKey resolves the metric's rule reference; named is true when the metric set one.
func ruleKey(metric schema.Metric, defaultOption string) (schema.RuleKey, bool) {
	key := schema.RuleKey{
		OptionCategory: strings.TrimSpace(metric.OptionCategory),
		Rule:           strings.TrimSpace(metric.Rule),
	}
	named := key.OptionCategory != "" || key.Rule != ""
	if key.OptionCategory == "" {
		key.OptionCategory = defaultOption
	}
	if key.Rule == "" {
		key.Rule = schema.DefaultRuleKey
	}
	return key, named
}

func lookup(rules RuleLookup, kind schema.RuleKind, key schema.RuleKey) (schema.Rule, bool) {
	if rules == nil {
		return nil, false
	}
	return rules.Lookup(kind, key)
}

// toFloat coerces a raw value to a finite float64.
func toFloat(raw any) (float64, error) {
	var v float64
	switch x := raw.(type) {
	case float64:
		v = x
	case float32:
		v = float64(x)
	case int:
		v = float64(x)
	case int32:
		v = float64(x)
	case int64:
		v = float64(x)
	case uint:
		v = float64(x)
	case uint32:
		v = float64(x)
	case uint64:
		v = float64(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not numeric", ErrInvalidValueType, x.String())
		}
		v = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not numeric", ErrInvalidValueType, x)
		}
		v = f
	default:
		return 0, fmt.Errorf("%w: %T is not numeric", ErrInvalidValueType, raw)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %v is not finite", ErrInvalidValueType, v)
	}
	return v, nil
}

// toBool coerces a raw value to a boolean.
func toBool(raw any) (bool, error) {
	switch x := raw.(type) {
	case bool:
		return x, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true", "yes", "1":
			return true, nil
		case "false", "no", "0":
			return false, nil
		}
		return false, fmt.Errorf("%w: %q is not boolean", ErrInvalidValueType, x)
	default:
		f, err := toFloat(raw)
		if err != nil {
			return false, fmt.Errorf("%w: %T is not boolean", ErrInvalidValueType, raw)
		}
		switch f {
		case 1:
			return true, nil
		case 0:
			return false, nil
		}
		return false, fmt.Errorf("%w: %v is not boolean", ErrInvalidValueType, f)
	}
}

// toBucketKey formats a raw value as an exact bucket key.
func toBucketKey(raw any) (string, error) {
	switch x := raw.(type) {
	case string:
		return x, nil
	case bool:
		return strconv.FormatBool(x), nil
	case json.Number:
		return x.String(), nil
	}
	f, err := toFloat(raw)
	if err != nil {
		return "", err
	}
	return strconv.FormatFloat(f, 'f', -1, 64), nil
}

// clamp01 clamps a value to the [0,1] range.
func clamp01(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// CheckValue reports whether raw can be stored for the metric's declared type.
// A nil value is always accepted and clears the stored value.
func CheckValue(metric schema.Metric, raw any) error {
	if raw == nil {
		return nil
	}
	var err error
	switch metric.ValueType {
	case schema.BoolValue:
		_, err = toBool(raw)
	case schema.RangeValue:
		_, err = toBucketKey(raw)
	case schema.TextValue:
		if _, ok := raw.(string); !ok {
			err = fmt.Errorf("%w: %T is not text", ErrInvalidValueType, raw)
		}
	default:
		_, err = toFloat(raw)
	}
	return err
}
