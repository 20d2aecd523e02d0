package dataset

import (
	"fmt"
	"math"
)

// Frame is a columnar table of float64 values. Missing cells are NaN.
type Frame struct {
	columns []string
	index   map[string]int
	data    [][]float64
	rows    int
}

func NewFrame(columns ...string) (*Frame, error) {
	f := &Frame{
		columns: append([]string(nil), columns...),
		index:   make(map[string]int, len(columns)),
		data:    make([][]float64, len(columns)),
	}
	for i, c := range f.columns {
		if _, ok := f.index[c]; ok {
			return nil, fmt.Errorf("duplicate column %q", c)
		}
		f.index[c] = i
	}
	return f, nil
}

func (f *Frame) Columns() []string {
	return f.columns
}

func (f *Frame) Len() int {
	return f.rows
}

func (f *Frame) HasColumn(name string) bool {
	_, ok := f.index[name]
	return ok
}

// Column returns the backing slice for a column, or nil if the column does
// not exist. Callers may mutate cells in place.
func (f *Frame) Column(name string) []float64 {
	i, ok := f.index[name]
	if !ok {
		return nil
	}
	return f.data[i]
}

func (f *Frame) Value(name string, row int) float64 {
	values := f.Column(name)
	if values == nil || row < 0 || row >= len(values) {
		return math.NaN()
	}
	return values[row]
}

func (f *Frame) AppendRow(row []float64) error {
	if len(row) != len(f.columns) {
		return fmt.Errorf("row has %d values, frame has %d columns", len(row), len(f.columns))
	}
	for i, v := range row {
		f.data[i] = append(f.data[i], v)
	}
	f.rows++
	return nil
}

// Grow appends n rows of NaN cells.
func (f *Frame) Grow(n int) {
	for i := range f.data {
		for j := 0; j < n; j++ {
			f.data[i] = append(f.data[i], math.NaN())
		}
	}
	f.rows += n
}

// PatientGroup holds the row indexes of a single patient, in input order.
type PatientGroup struct {
	PID  float64
	Rows []int
}

// GroupBy partitions row indexes by the values of an identifier column.
// Groups are returned in first-seen order.
func (f *Frame) GroupBy(column string) ([]PatientGroup, error) {
	ids := f.Column(column)
	if ids == nil {
		return nil, fmt.Errorf("unknown identifier column %q", column)
	}
	var groups []PatientGroup
	position := make(map[float64]int)
	for i, id := range ids {
		if math.IsNaN(id) {
			return nil, fmt.Errorf("missing %s at row %d", column, i)
		}
		gi, ok := position[id]
		if !ok {
			gi = len(groups)
			position[id] = gi
			groups = append(groups, PatientGroup{PID: id})
		}
		groups[gi].Rows = append(groups[gi].Rows, i)
	}
	return groups, nil
}
