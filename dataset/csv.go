package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Column names with special meaning.
const (
	FormulaColumn = "formula"
	TargetColumn  = "target"
)

// ErrMissingColumn is returned when a required column is absent.
var ErrMissingColumn = errors.New("dataset: missing column")

// ReadCSV parses a table from CSV.
//
// The header must contain a formula column and a target column with the
// formula column first. Columns strictly between them are numeric
// features; columns after target are ignored.
func ReadCSV(r io.Reader, name string) (*Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %s: empty input", ErrMissingColumn, FormulaColumn)
		}
		return nil, fmt.Errorf("dataset: read header: %w", err)
	}

	formulaIdx, targetIdx := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case FormulaColumn:
			if formulaIdx < 0 {
				formulaIdx = i
			}
		case TargetColumn:
			if targetIdx < 0 {
				targetIdx = i
			}
		}
	}
	if formulaIdx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, FormulaColumn)
	}
	if targetIdx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, TargetColumn)
	}
	if targetIdx < formulaIdx {
		return nil, fmt.Errorf("dataset: %s column must follow %s column", TargetColumn, FormulaColumn)
	}

	var featureNames []string
	for i := formulaIdx + 1; i < targetIdx; i++ {
		featureNames = append(featureNames, strings.TrimSpace(header[i]))
	}

	t := &Table{Name: name, FeatureNames: featureNames}
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("dataset: line %d: %w", line, err)
		}

		row := Row{Formula: strings.TrimSpace(rec[formulaIdx])}
		if len(featureNames) > 0 {
			row.Features = make([]float64, len(featureNames))
			for j := range featureNames {
				v, err := parseFloat(rec[formulaIdx+1+j])
				if err != nil {
					return nil, fmt.Errorf("dataset: line %d column %q: %w", line, featureNames[j], err)
				}
				row.Features[j] = v
			}
		}
		row.Target, err = parseFloat(rec[targetIdx])
		if err != nil {
			return nil, fmt.Errorf("dataset: line %d column %q: %w", line, TargetColumn, err)
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// ReadCSVFile reads a table from a CSV file. The table is named after the
// file unless name is non-empty.
func ReadCSVFile(path, name string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return ReadCSV(f, name)
}

// WriteCSV writes the table as formula, features..., target.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)

	header := make([]string, 0, len(t.FeatureNames)+2)
	header = append(header, FormulaColumn)
	header = append(header, t.FeatureNames...)
	header = append(header, TargetColumn)
	if err := cw.Write(header); err != nil {
		return err
	}

	rec := make([]string, len(header))
	for _, r := range t.Rows {
		rec = rec[:0]
		rec = append(rec, r.Formula)
		for _, v := range r.Features {
			rec = append(rec, strconv.FormatFloat(v, 'g', -1, 64))
		}
		rec = append(rec, strconv.FormatFloat(r.Target, 'g', -1, 64))
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func parseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty value")
	}
	return strconv.ParseFloat(s, 64)
}
