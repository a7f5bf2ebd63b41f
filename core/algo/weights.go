package algo

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/thaafei/domainx/schema"
)

// Weight validation errors.
var (
	ErrWeightSum       = errors.New("category weights must sum to 1")
	ErrWeightRange     = errors.New("category weight out of range")
	ErrMissingCategory = errors.New("category weight missing")
	ErrUnknownCategory = errors.New("unknown category")
)

// EqualSplit assigns 1/N to each of the N categories.
func EqualSplit(categories []string) map[string]float64 {
	weights := make(map[string]float64, len(categories))
	if len(categories) == 0 {
		return weights
	}
	w := 1.0 / float64(len(categories))
	for _, c := range categories {
		weights[c] = w
	}
	return weights
}

// ResolveWeights picks the weight of every active category.
// Stored weights are used as stored when they cover every active category;
// otherwise every active category falls back to an equal split.
func ResolveWeights(active []string, stored map[string]float64) (map[string]float64, schema.WeightSource) {
	if len(active) == 0 {
		return map[string]float64{}, schema.EqualSplitWeights
	}
	for _, c := range active {
		if _, ok := stored[c]; !ok {
			return EqualSplit(active), schema.EqualSplitWeights
		}
	}
	weights := make(map[string]float64, len(active))
	for _, c := range active {
		weights[c] = stored[c]
	}
	return weights, schema.StoredWeights
}

// SumWeights adds the weights in sorted key order so the sum is reproducible.
func SumWeights(weights map[string]float64) float64 {
	keys := make([]string, 0, len(weights))
	for k := range weights {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	sum := 0.0
	for _, k := range keys {
		sum += weights[k]
	}
	return sum
}

// WeightsBalanced reports whether the weights sum to 1 within tolerance.
func WeightsBalanced(weights map[string]float64) bool {
	return math.Abs(SumWeights(weights)-1) <= schema.WeightTolerance
}

// WeightsInRange reports whether every weight lies within [0, 1].
func WeightsInRange(weights map[string]float64) bool {
	for _, w := range weights {
		if math.IsNaN(w) || w < 0 || w > 1 {
			return false
		}
	}
	return true
}

// ValidateWeights checks a weight set before it is saved.
// When active is non-nil the set must cover exactly those categories.
func ValidateWeights(weights map[string]float64, active []string) error {
	if len(weights) == 0 {
		return fmt.Errorf("%w: no weights given", ErrWeightSum)
	}
	for c, w := range weights {
		if math.IsNaN(w) || w < 0 || w > 1 {
			return fmt.Errorf("%w: %s=%v must be within [0, 1]", ErrWeightRange, c, w)
		}
	}
	if active != nil {
		known := make(map[string]struct{}, len(active))
		for _, c := range active {
			known[c] = struct{}{}
			if _, ok := weights[c]; !ok {
				return fmt.Errorf("%w: %s", ErrMissingCategory, c)
			}
		}
		for c := range weights {
			if _, ok := known[c]; !ok {
				return fmt.Errorf("%w: %s", ErrUnknownCategory, c)
			}
		}
	}
	if sum := SumWeights(weights); math.Abs(sum-1) > schema.WeightTolerance {
		return fmt.Errorf("%w (got %.4f)", ErrWeightSum, sum)
	}
	return nil
}
