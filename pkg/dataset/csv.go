package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ReadCSV loads a feature table. The first record is the header; empty and
// "nan" cells become NaN. maxRows <= 0 loads everything.
func ReadCSV(path string, maxRows int) (*Frame, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}
	frame, err := NewFrame(header...)
	if err != nil {
		return nil, err
	}

	row := make([]float64, len(header))
	for maxRows <= 0 || frame.Len() < maxRows {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		for i, cell := range record {
			value, err := parseCell(cell)
			if err != nil {
				return nil, fmt.Errorf("%s row %d column %s: %w", path, frame.Len()+1, header[i], err)
			}
			row[i] = value
		}
		if err := frame.AppendRow(row); err != nil {
			return nil, err
		}
	}
	return frame, nil
}

func parseCell(cell string) (float64, error) {
	trimmed := strings.TrimSpace(cell)
	if trimmed == "" || strings.EqualFold(trimmed, "nan") || strings.EqualFold(trimmed, "na") {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(trimmed, 64)
}

// WriteCSV exports a frame with three-decimal float formatting, matching the
// downstream consumers' expectations. Columns named in intColumns are written
// as integers; NaN cells are written empty.
func WriteCSV(path string, frame *Frame, intColumns ...string) error {
	file, err := os.Create(filepath.Clean(path))
	if err != nil {
		return err
	}
	defer file.Close()

	asInt := make(map[string]struct{}, len(intColumns))
	for _, c := range intColumns {
		asInt[c] = struct{}{}
	}

	writer := csv.NewWriter(file)
	if err := writer.Write(frame.Columns()); err != nil {
		return err
	}
	record := make([]string, len(frame.Columns()))
	for row := 0; row < frame.Len(); row++ {
		for i, col := range frame.Columns() {
			v := frame.Value(col, row)
			switch {
			case math.IsNaN(v):
				record[i] = ""
			case hasKey(asInt, col):
				record[i] = strconv.FormatInt(int64(v), 10)
			default:
				record[i] = strconv.FormatFloat(v, 'f', 3, 64)
			}
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func hasKey(set map[string]struct{}, key string) bool {
	_, ok := set[key]
	return ok
}
