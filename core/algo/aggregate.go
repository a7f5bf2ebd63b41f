package algo

// Aggregate returns the unweighted mean of the scores.
// present is false when there are no scores to average.
func Aggregate(scores []float64) (mean float64, present bool) {
	if len(scores) == 0 {
		return 0, false
	}
	sum := 0.0
	for _, s := range scores {
		sum += s
	}
	return clamp01(sum / float64(len(scores))), true
}
