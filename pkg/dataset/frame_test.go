package dataset

import (
	"math"
	"testing"
)

func TestGroupByFirstSeenOrder(t *testing.T) {
	frame, err := NewFrame("pid", "Time", "HR")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rows := [][]float64{
		{2, 0, 80},
		{1, 0, 90},
		{2, 1, 82},
		{1, 1, 91},
	}
	for _, row := range rows {
		if err := frame.AppendRow(row); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}

	groups, err := frame.GroupBy("pid")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].PID != 2 || groups[1].PID != 1 {
		t.Fatalf("expected first-seen order, got %v then %v", groups[0].PID, groups[1].PID)
	}
	if len(groups[0].Rows) != 2 || groups[0].Rows[0] != 0 || groups[0].Rows[1] != 2 {
		t.Fatalf("unexpected rows for pid 2: %v", groups[0].Rows)
	}
}

func TestGroupByRejectsMissingID(t *testing.T) {
	frame, _ := NewFrame("pid", "HR")
	frame.AppendRow([]float64{1, 80})
	frame.AppendRow([]float64{math.NaN(), 90})

	if _, err := frame.GroupBy("pid"); err == nil {
		t.Fatal("expected error for missing patient id")
	}
	if _, err := frame.GroupBy("nope"); err == nil {
		t.Fatal("expected error for unknown column")
	}
}

func TestAppendRowLengthMismatch(t *testing.T) {
	frame, _ := NewFrame("pid", "HR")
	if err := frame.AppendRow([]float64{1}); err == nil {
		t.Fatal("expected error for short row")
	}
}

func TestDuplicateColumnRejected(t *testing.T) {
	if _, err := NewFrame("pid", "pid"); err == nil {
		t.Fatal("expected error for duplicate column")
	}
}
