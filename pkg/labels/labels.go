package labels

import (
	"fmt"
	"math"

	"github.com/vitalis-ai/preprocess/pkg/dataset"
)

// Label columns produced by the annotation pipeline. Medical test and sepsis
// labels are binary, vital sign labels are ordinal; all are stored as
// integers downstream.
var (
	MedicalTests = []string{
		"LABEL_BaseExcess",
		"LABEL_Fibrinogen",
		"LABEL_AST",
		"LABEL_Alkalinephos",
		"LABEL_Bilirubin_total",
		"LABEL_Lactate",
		"LABEL_TroponinI",
		"LABEL_SaO2",
		"LABEL_Bilirubin_direct",
		"LABEL_EtCO2",
	}
	VitalSigns = []string{"LABEL_RRate", "LABEL_ABPm", "LABEL_SpO2", "LABEL_Heartrate"}
	Sepsis     = []string{"LABEL_Sepsis"}
)

func Columns() []string {
	all := make([]string, 0, len(MedicalTests)+len(VitalSigns)+len(Sepsis))
	all = append(all, MedicalTests...)
	all = append(all, VitalSigns...)
	all = append(all, Sepsis...)
	return all
}

// Prepare casts label columns to integers and left-joins them on the patient
// id against the imputed summary, so the exported label rows line up one to
// one with the preprocessed feature rows. Patients without a label row keep
// missing labels.
func Prepare(labelFrame, summary *dataset.Frame, patientColumn string) (*dataset.Frame, error) {
	if !labelFrame.HasColumn(patientColumn) {
		return nil, fmt.Errorf("label table missing %s column", patientColumn)
	}
	for _, column := range Columns() {
		if !labelFrame.HasColumn(column) {
			return nil, fmt.Errorf("label table missing %s column", column)
		}
	}

	labelRow := make(map[float64]int, labelFrame.Len())
	ids := labelFrame.Column(patientColumn)
	for i, id := range ids {
		if _, ok := labelRow[id]; !ok {
			labelRow[id] = i
		}
	}

	columns := append([]string{patientColumn}, Columns()...)
	out, err := dataset.NewFrame(columns...)
	if err != nil {
		return nil, err
	}

	pids := summary.Column(patientColumn)
	row := make([]float64, len(columns))
	for i := 0; i < summary.Len(); i++ {
		pid := pids[i]
		row[0] = pid
		source, found := labelRow[pid]
		for j, column := range Columns() {
			if !found {
				row[j+1] = math.NaN()
				continue
			}
			v := labelFrame.Value(column, source)
			if math.IsNaN(v) {
				row[j+1] = math.NaN()
				continue
			}
			row[j+1] = math.Trunc(v)
		}
		if err := out.AppendRow(row); err != nil {
			return nil, err
		}
	}
	return out, nil
}
