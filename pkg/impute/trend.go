package impute

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// trendSlope fits a least-squares line through a patient's time-ordered
// series and reports the slope. The independent variable is the row index
// 0..k-1, not elapsed time; uniform sampling intervals are assumed, matching
// the upstream feature definition. The second return is false when the
// series is too sparse to fit, leaving the cell for the fallback resolver.
func (im *Imputer) trendSlope(series []float64) (float64, bool) {
	if countMissing(series) > im.cfg.TrendMissingLimit {
		return 0, false
	}
	filled := fillBetween(series)
	observed := make([]float64, 0, len(filled))
	for _, v := range filled {
		if !math.IsNaN(v) {
			observed = append(observed, v)
		}
	}
	if len(observed) == 0 {
		return 0, false
	}
	if len(observed) == 1 {
		return 0, true
	}
	xs := make([]float64, len(observed))
	for i := range xs {
		xs[i] = float64(i)
	}
	_, slope := stat.LinearRegression(xs, observed, nil, false)
	return slope, true
}

// fillBetween replaces each cell with the mean of the last observation at or
// before it and the first observation at or after it. Observed cells are
// unchanged; cells with an observation on only one side stay NaN.
func fillBetween(series []float64) []float64 {
	out := make([]float64, len(series))
	forward := math.NaN()
	for i, v := range series {
		if !math.IsNaN(v) {
			forward = v
		}
		out[i] = forward
	}
	backward := math.NaN()
	for i := len(series) - 1; i >= 0; i-- {
		if !math.IsNaN(series[i]) {
			backward = series[i]
		}
		out[i] = (out[i] + backward) / 2
	}
	return out
}
