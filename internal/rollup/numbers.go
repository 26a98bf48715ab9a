package rollup

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// parseNumber accepts the shapes an event payload decodes into. NaN and infinities are rejected so
// they never reach an average.
func parseNumber(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int32:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func roundTo(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}

// CompletionRate is round(observed/expected*100) clamped to [0,100]; zero expected yields 0.
func CompletionRate(observed, expected int) int {
	if expected <= 0 || observed <= 0 {
		return 0
	}
	rate := int(math.Round(float64(observed) / float64(expected) * 100))
	if rate > 100 {
		return 100
	}
	return rate
}

// WeightedAverage folds (avg, weight) pairs, skipping zero weights, rounded to one decimal.
func WeightedAverage(avgs []float64, weights []int) float64 {
	var num float64
	var den int
	for i := range avgs {
		if i >= len(weights) || weights[i] <= 0 {
			continue
		}
		num += avgs[i] * float64(weights[i])
		den += weights[i]
	}
	if den == 0 {
		return 0
	}
	return roundTo(num/float64(den), 1)
}
