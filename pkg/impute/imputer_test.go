package impute

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/vitalis-ai/preprocess/pkg/dataset"
)

func nan() float64 { return math.NaN() }

func buildFrame(t *testing.T, columns []string, rows [][]float64) *dataset.Frame {
	t.Helper()
	frame, err := dataset.NewFrame(columns...)
	if err != nil {
		t.Fatalf("failed to build frame: %v", err)
	}
	for _, row := range rows {
		if err := frame.AppendRow(row); err != nil {
			t.Fatalf("failed to append row: %v", err)
		}
	}
	return frame
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Workers = 2
	return cfg
}

func TestTrendFromFillBetween(t *testing.T) {
	frame := buildFrame(t,
		[]string{"pid", "Time", "X"},
		[][]float64{
			{1, 0, 1},
			{1, 1, nan()},
			{1, 2, 3},
			{1, 3, 4},
		},
	)

	out, stats, err := New(testConfig()).Impute(frame)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Patients != 1 {
		t.Fatalf("expected 1 patient, got %d", stats.Patients)
	}
	if !out.HasColumn("X_trend") {
		t.Fatalf("expected X to be trend-eligible, columns %v", out.Columns())
	}
	slope := out.Value("X_trend", 0)
	if math.Abs(slope-1.0) > 1e-12 {
		t.Fatalf("expected slope 1.0 after fill-between, got %v", slope)
	}
}

func TestEligibilityThresholdBoundary(t *testing.T) {
	columns := []string{"pid", "Time", "A", "B", "Age"}
	var rows [][]float64
	for _, pid := range []float64{1, 2} {
		for i := 0; i < 12; i++ {
			a := float64(i)
			if i < 8 { // exactly 8 missing per patient
				a = nan()
			}
			b := float64(i)
			if i < 9 { // 9 missing per patient
				b = nan()
			}
			rows = append(rows, []float64{pid, float64(i), a, b, 65})
		}
	}
	frame := buildFrame(t, columns, rows)

	out, stats, err := New(testConfig()).Impute(frame)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.HasColumn("A_trend") {
		t.Fatalf("expected A eligible at missing-count quantile exactly 8, columns %v", out.Columns())
	}
	if out.HasColumn("B_trend") || !out.HasColumn("B") {
		t.Fatalf("expected B average-only at missing-count quantile 9, columns %v", out.Columns())
	}
	if out.HasColumn("Age_trend") || !out.HasColumn("Age") {
		t.Fatal("expected Age forced into averaging despite full data")
	}
	if len(stats.TrendColumns) != 1 || stats.TrendColumns[0] != "A" {
		t.Fatalf("unexpected trend partition %v", stats.TrendColumns)
	}
}

func TestPerPatientMissingLimitRecheck(t *testing.T) {
	// Column A is eligible overall thanks to four dense patients, but
	// patient 5 individually exceeds the missing limit and must fall
	// through to the zero fill instead of borrowing a fitted slope.
	columns := []string{"pid", "Time", "A"}
	var rows [][]float64
	for _, pid := range []float64{1, 2, 3, 4} {
		for i := 0; i < 12; i++ {
			rows = append(rows, []float64{pid, float64(i), 2 * float64(i)})
		}
	}
	for i := 0; i < 12; i++ {
		a := 2 * float64(i)
		if i < 9 { // 9 missing, over the per-patient limit of 8
			a = nan()
		}
		rows = append(rows, []float64{5, float64(i), a})
	}
	frame := buildFrame(t, columns, rows)

	out, stats, err := New(testConfig()).Impute(frame)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stats.TrendColumns) != 1 || stats.TrendColumns[0] != "A" {
		t.Fatalf("expected A eligible overall, got %v", stats.TrendColumns)
	}
	if got := out.Value("A_trend", 0); math.Abs(got-2.0) > 1e-12 {
		t.Fatalf("expected dense patient slope 2.0, got %v", got)
	}
	if got := out.Value("A_trend", 4); got != 0 {
		t.Fatalf("expected over-limit patient to get slope 0, not a fitted or median value, got %v", got)
	}
}

func TestSingleObservationSlopeZero(t *testing.T) {
	frame := buildFrame(t,
		[]string{"pid", "Time", "A"},
		[][]float64{
			{1, 0, 5},
			{1, 1, nan()},
			{1, 2, nan()},
			{1, 3, nan()},
		},
	)

	out, _, err := New(testConfig()).Impute(frame)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.HasColumn("A_trend") {
		t.Fatalf("expected A eligible with 3 missing values, columns %v", out.Columns())
	}
	if got := out.Value("A_trend", 0); got != 0 {
		t.Fatalf("expected slope 0 for a single observation, got %v", got)
	}
}

func TestClassifierDeterminism(t *testing.T) {
	frame := buildFrame(t,
		[]string{"pid", "Time", "X", "Age"},
		[][]float64{
			{1, 0, 1, 70},
			{1, 1, nan(), 70},
			{2, 0, nan(), 60},
			{2, 1, 2, 60},
		},
	)

	imputer := New(testConfig())
	_, first, err := imputer.Impute(frame)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, second, err := imputer.Impute(frame)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(first.TrendColumns) != len(second.TrendColumns) {
		t.Fatalf("partition changed between runs: %v vs %v", first.TrendColumns, second.TrendColumns)
	}
	for i := range first.TrendColumns {
		if first.TrendColumns[i] != second.TrendColumns[i] {
			t.Fatalf("partition changed between runs: %v vs %v", first.TrendColumns, second.TrendColumns)
		}
	}
}

func TestFallbackTierOrdering(t *testing.T) {
	// P1 has a trend-eligible X and no Y data; P2 has no X data and constant Y.
	frame := buildFrame(t,
		[]string{"pid", "Time", "X", "Y"},
		[][]float64{
			{1, 0, 1, nan()},
			{1, 1, 2, nan()},
			{1, 2, nan(), nan()},
			{1, 3, 4, nan()},
			{2, 0, nan(), 5},
			{2, 1, nan(), 5},
			{2, 2, nan(), 5},
			{2, 3, nan(), 5},
		},
	)

	cfg := testConfig()
	cfg.AverageOnly = []string{"Y"}
	out, _, err := New(cfg).Impute(frame)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.Len() != 2 {
		t.Fatalf("expected one row per patient, got %d", out.Len())
	}
	if got := out.Value("pid", 0); got != 1 {
		t.Fatalf("expected P1 in row 0, got pid %v", got)
	}

	p1Trend := out.Value("X_trend", 0)
	if math.Abs(p1Trend-1.0) > 1e-12 {
		t.Fatalf("expected P1 X_trend 1.0, got %v", p1Trend)
	}
	if got := out.Value("X_trend", 1); got != 0 {
		t.Fatalf("expected P2 X_trend 0 with no usable data, got %v", got)
	}
	// P1 has no Y observations, so it takes the cross-patient output median.
	if got := out.Value("Y", 0); got != 5 {
		t.Fatalf("expected P1 Y filled with cross-patient median 5, got %v", got)
	}
	if got := out.Value("Y", 1); got != 5 {
		t.Fatalf("expected P2 Y 5, got %v", got)
	}
}

func TestTypicalValueLastResort(t *testing.T) {
	frame := buildFrame(t,
		[]string{"pid", "Time", "Z"},
		[][]float64{
			{1, 0, nan()},
			{2, 0, nan()},
		},
	)

	cfg := testConfig()
	cfg.AverageOnly = []string{"Z"}
	cfg.TypicalValues = map[string]float64{"Z": 42}
	out, _, err := New(cfg).Impute(frame)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for row := 0; row < out.Len(); row++ {
		if got := out.Value("Z", row); got != 42 {
			t.Fatalf("expected configured typical value 42, got %v", got)
		}
	}

	cfg.TypicalValues = map[string]float64{}
	if _, _, err := New(cfg).Impute(frame); !errors.Is(err, ErrNoTypicalValue) {
		t.Fatalf("expected ErrNoTypicalValue, got %v", err)
	}
}

func TestCompleteness(t *testing.T) {
	columns := []string{"pid", "Time", "HR", "Temp", "Age"}
	var rows [][]float64
	for _, pid := range []float64{10, 20, 30} {
		for i := 0; i < 6; i++ {
			hr := 80 + float64(i)
			if i%2 == 0 {
				hr = nan()
			}
			temp := nan()
			if pid == 20 {
				temp = 37
			}
			rows = append(rows, []float64{pid, float64(i), hr, temp, 50 + pid/10})
		}
	}
	frame := buildFrame(t, columns, rows)

	out, _, err := New(testConfig()).Impute(frame)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Len() != 3 {
		t.Fatalf("expected 3 patient rows, got %d", out.Len())
	}
	for _, column := range out.Columns() {
		for row := 0; row < out.Len(); row++ {
			if math.IsNaN(out.Value(column, row)) {
				t.Fatalf("missing value survived imputation at %s row %d", column, row)
			}
		}
	}
	seen := map[float64]bool{}
	for row := 0; row < out.Len(); row++ {
		seen[out.Value("pid", row)] = true
	}
	for _, pid := range []float64{10, 20, 30} {
		if !seen[pid] {
			t.Fatalf("patient %v missing from output", pid)
		}
	}
}

func TestQuantileInterpolation(t *testing.T) {
	if got := quantile([]float64{1, 4}, 0.25); math.Abs(got-1.75) > 1e-12 {
		t.Fatalf("expected interpolated quantile 1.75, got %v", got)
	}
	if got := quantile([]float64{8, 8, 8, 8}, 0.25); got != 8 {
		t.Fatalf("expected quantile 8, got %v", got)
	}
	if !math.IsNaN(quantile(nil, 0.25)) {
		t.Fatal("expected NaN quantile of empty input")
	}
}

func TestFillBetweenKeepsEdgesMissing(t *testing.T) {
	filled := fillBetween([]float64{nan(), 2, nan(), 4, nan()})
	if !math.IsNaN(filled[0]) || !math.IsNaN(filled[4]) {
		t.Fatalf("expected leading and trailing gaps to stay missing, got %v", filled)
	}
	if filled[2] != 3 {
		t.Fatalf("expected internal gap filled with 3, got %v", filled[2])
	}
	if filled[1] != 2 || filled[3] != 4 {
		t.Fatalf("expected observed cells unchanged, got %v", filled)
	}
}

func TestLoadTypicalValues(t *testing.T) {
	values, err := LoadTypicalValues("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := values["Heartrate"]; !ok {
		t.Fatal("expected built-in table to cover Heartrate")
	}

	path := filepath.Join(t.TempDir(), "typical.yaml")
	content := "values:\n  Heartrate: 80.5\n  pH: 7.4\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	values, err = LoadTypicalValues(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if values["Heartrate"] != 80.5 || len(values) != 2 {
		t.Fatalf("unexpected loaded values %v", values)
	}

	values, err = LoadTypicalValues(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for unreadable file")
	}
	if values != nil {
		t.Fatalf("expected nil values alongside the error, got %v", values)
	}
}
