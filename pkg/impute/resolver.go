package impute

import (
	"fmt"
	"math"

	"github.com/vitalis-ai/preprocess/pkg/dataset"
)

// resolve guarantees every output cell is populated. Trend cells with no
// fitted slope become 0; everything else falls back to the cross-patient
// median of the output column, then to the configured typical value.
func (im *Imputer) resolve(out *dataset.Frame, trendColumns []string) error {
	for _, column := range trendColumns {
		values := out.Column(column)
		for i, v := range values {
			if math.IsNaN(v) {
				values[i] = 0
			}
		}
	}

	patientColumn := im.cfg.Identifiers[0]
	for _, column := range out.Columns() {
		if column == patientColumn {
			continue
		}
		values := out.Column(column)
		columnMedian := median(values)
		if !math.IsNaN(columnMedian) {
			for i, v := range values {
				if math.IsNaN(v) {
					values[i] = columnMedian
				}
			}
			continue
		}
		// The whole column is empty; only possible with heavily truncated
		// input. Trend columns never get here because of the zero fill.
		typical, ok := im.cfg.TypicalValues[column]
		if !ok {
			return fmt.Errorf("column %s: %w", column, ErrNoTypicalValue)
		}
		for i := range values {
			values[i] = typical
		}
	}
	return nil
}
