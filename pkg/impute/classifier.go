package impute

import (
	"math"

	"github.com/vitalis-ai/preprocess/pkg/dataset"
)

type partition struct {
	trend   []string
	average []string
}

// classify splits feature columns into trend-eligible and average-only sets.
// A column is trend-eligible when the configured quantile of its per-patient
// missing counts is at or below the trend missing limit.
func (im *Imputer) classify(frame *dataset.Frame, groups []dataset.PatientGroup) partition {
	identifiers := make(map[string]struct{}, len(im.cfg.Identifiers))
	for _, c := range im.cfg.Identifiers {
		identifiers[c] = struct{}{}
	}
	forced := make(map[string]struct{}, len(im.cfg.AverageOnly))
	for _, c := range im.cfg.AverageOnly {
		forced[c] = struct{}{}
	}

	var p partition
	counts := make([]float64, len(groups))
	for _, column := range frame.Columns() {
		if _, ok := identifiers[column]; ok {
			continue
		}
		values := frame.Column(column)
		for gi, group := range groups {
			missing := 0
			for _, row := range group.Rows {
				if math.IsNaN(values[row]) {
					missing++
				}
			}
			counts[gi] = float64(missing)
		}
		_, averageOnly := forced[column]
		if !averageOnly && quantile(counts, im.cfg.EligibilityQuantile) <= float64(im.cfg.TrendMissingLimit) {
			p.trend = append(p.trend, column)
		} else {
			p.average = append(p.average, column)
		}
	}
	return p
}
