package impute

import (
	"math"
	"sort"
)

// quantile computes the q-quantile with linear interpolation between order
// statistics, the same method the source data stack uses. gonum's
// stat.Quantile cumulant kinds interpolate differently, so this stays local
// for behavioral compatibility.
func quantile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	h := q * float64(len(sorted)-1)
	lo := int(math.Floor(h))
	hi := int(math.Ceil(h))
	return sorted[lo] + (h-float64(lo))*(sorted[hi]-sorted[lo])
}

// median ignores NaN cells and averages the two middle values for even
// counts. NaN means the column had no observations.
func median(values []float64) float64 {
	observed := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			observed = append(observed, v)
		}
	}
	return quantile(observed, 0.5)
}

func countMissing(values []float64) int {
	n := 0
	for _, v := range values {
		if math.IsNaN(v) {
			n++
		}
	}
	return n
}

func gather(values []float64, rows []int) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = values[r]
	}
	return out
}
