package impute

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/vitalis-ai/preprocess/pkg/dataset"
)

const trendSuffix = "_trend"

// Imputer condenses a patient observation table into one fully-populated row
// per patient: fitted trend slopes for columns with little missingness,
// per-patient medians for the rest.
type Imputer struct {
	cfg Config
}

// Stats summarizes a single imputation pass.
type Stats struct {
	Patients       int
	TrendColumns   []string
	AverageColumns []string
}

func New(cfg Config) *Imputer {
	if len(cfg.Identifiers) == 0 {
		cfg.Identifiers = []string{"pid", "Time"}
	}
	if cfg.TrendMissingLimit <= 0 {
		cfg.TrendMissingLimit = 8
	}
	if cfg.EligibilityQuantile <= 0 {
		cfg.EligibilityQuantile = 0.25
	}
	if cfg.TypicalValues == nil {
		cfg.TypicalValues = DefaultTypicalValues()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	return &Imputer{cfg: cfg}
}

// Impute builds the per-patient summary frame. Patients are processed by a
// bounded worker pool; each worker reads one patient's rows and writes one
// output row, so no cells are shared.
func (im *Imputer) Impute(frame *dataset.Frame) (*dataset.Frame, Stats, error) {
	patientColumn := im.cfg.Identifiers[0]
	groups, err := frame.GroupBy(patientColumn)
	if err != nil {
		return nil, Stats{}, err
	}

	part := im.classify(frame, groups)

	trendNames := make([]string, len(part.trend))
	columns := make([]string, 0, 1+len(part.trend)+len(part.average))
	columns = append(columns, patientColumn)
	for i, column := range part.trend {
		trendNames[i] = column + trendSuffix
		columns = append(columns, trendNames[i])
	}
	columns = append(columns, part.average...)

	out, err := dataset.NewFrame(columns...)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("build summary frame: %w", err)
	}
	out.Grow(len(groups))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < im.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for gi := range jobs {
				im.imputePatient(frame, out, groups[gi], gi, part, trendNames)
			}
		}()
	}
	for gi := range groups {
		jobs <- gi
	}
	close(jobs)
	wg.Wait()

	if err := im.resolve(out, trendNames); err != nil {
		return nil, Stats{}, err
	}

	stats := Stats{
		Patients:       len(groups),
		TrendColumns:   part.trend,
		AverageColumns: part.average,
	}
	return out, stats, nil
}

func (im *Imputer) imputePatient(frame, out *dataset.Frame, group dataset.PatientGroup, row int, part partition, trendNames []string) {
	out.Column(im.cfg.Identifiers[0])[row] = group.PID
	for i, column := range part.trend {
		series := gather(frame.Column(column), group.Rows)
		if slope, ok := im.trendSlope(series); ok {
			out.Column(trendNames[i])[row] = slope
		}
	}
	for _, column := range part.average {
		out.Column(column)[row] = median(gather(frame.Column(column), group.Rows))
	}
}
