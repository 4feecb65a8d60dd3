// Package dataset models labeled tables of material compositions.
//
// A Table is an ordered list of rows; a row's identity is its position.
// Tables are treated as immutable values: every operation returns a new
// table and never mutates its receiver.
package dataset

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/agext/levenshtein"
)

var (
	// ErrUnknownDataset is returned when a dataset name is not present.
	ErrUnknownDataset = errors.New("dataset: unknown dataset")

	// ErrIndexOutOfRange is returned by Select for an invalid row index.
	ErrIndexOutOfRange = errors.New("dataset: row index out of range")

	// ErrSchemaMismatch is returned when concatenating tables with
	// different feature columns.
	ErrSchemaMismatch = errors.New("dataset: feature columns differ")
)

// Row is one material composition record.
type Row struct {
	Formula  string    `json:"formula"`
	Features []float64 `json:"features,omitempty"`
	Target   float64   `json:"target"`
}

// Table is an ordered collection of rows sharing one feature schema.
type Table struct {
	Name         string   `json:"name"`
	FeatureNames []string `json:"feature_names,omitempty"`
	Rows         []Row    `json:"rows"`
}

// New creates a table.
func New(name string, featureNames []string, rows []Row) *Table {
	return &Table{Name: name, FeatureNames: featureNames, Rows: rows}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Formulas returns the formula column.
func (t *Table) Formulas() []string {
	out := make([]string, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.Formula
	}
	return out
}

// Targets returns the target column.
func (t *Table) Targets() []float64 {
	out := make([]float64, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.Target
	}
	return out
}

// Matrix returns the feature matrix, one slice per row.
// The returned slices alias the table rows.
func (t *Table) Matrix() [][]float64 {
	out := make([][]float64, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.Features
	}
	return out
}

// HasFeatures reports whether the table carries numeric feature columns.
func (t *Table) HasFeatures() bool {
	return len(t.FeatureNames) > 0
}

// Select returns a table with the rows at indices, in the order given.
func (t *Table) Select(indices []int) (*Table, error) {
	rows := make([]Row, len(indices))
	for i, idx := range indices {
		if idx < 0 || idx >= len(t.Rows) {
			return nil, fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfRange, idx, len(t.Rows))
		}
		rows[i] = t.Rows[idx]
	}
	return &Table{Name: t.Name, FeatureNames: t.FeatureNames, Rows: rows}, nil
}

// Split returns the first n rows and the remaining rows as two tables.
// n is clamped to [0, Len].
func (t *Table) Split(n int) (*Table, *Table) {
	n = max(0, min(n, len(t.Rows)))
	head := &Table{Name: t.Name, FeatureNames: t.FeatureNames, Rows: slices.Clone(t.Rows[:n])}
	tail := &Table{Name: t.Name, FeatureNames: t.FeatureNames, Rows: slices.Clone(t.Rows[n:])}
	return head, tail
}

// Concat appends b's rows after a's. Both tables must share the same
// feature columns.
func Concat(name string, a, b *Table) (*Table, error) {
	if !slices.Equal(a.FeatureNames, b.FeatureNames) {
		return nil, fmt.Errorf("%w: %q has %d columns, %q has %d", ErrSchemaMismatch,
			a.Name, len(a.FeatureNames), b.Name, len(b.FeatureNames))
	}
	rows := make([]Row, 0, len(a.Rows)+len(b.Rows))
	rows = append(rows, a.Rows...)
	rows = append(rows, b.Rows...)
	return &Table{Name: name, FeatureNames: a.FeatureNames, Rows: rows}, nil
}

// Collection maps dataset names to tables.
type Collection map[string]*Table

// Names returns the dataset names in sorted order.
func (c Collection) Names() []string {
	names := make([]string, 0, len(c))
	for n := range c {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the named table. For an unknown name the error suggests
// the closest known name.
func (c Collection) Lookup(name string) (*Table, error) {
	if t, ok := c[name]; ok {
		return t, nil
	}
	if s := c.suggest(name); s != "" {
		return nil, fmt.Errorf("%w: %q (did you mean %q?)", ErrUnknownDataset, name, s)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDataset, name)
}

func (c Collection) suggest(name string) string {
	best := ""
	bestDist := -1
	query := strings.ToLower(name)
	for _, candidate := range c.Names() {
		d := levenshtein.Distance(query, strings.ToLower(candidate), nil)
		if bestDist < 0 || d < bestDist {
			best, bestDist = candidate, d
		}
	}
	// Only suggest reasonably close names.
	if bestDist < 0 || bestDist > max(2, len(name)/2) {
		return ""
	}
	return best
}
