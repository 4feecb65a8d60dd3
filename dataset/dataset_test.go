package dataset

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *Table {
	return New("aflow", []string{"f1"}, []Row{
		{Formula: "NaCl", Features: []float64{1}, Target: 10},
		{Formula: "KCl", Features: []float64{2}, Target: 20},
		{Formula: "LiF", Features: []float64{3}, Target: 30},
	})
}

func TestTable_Select(t *testing.T) {
	tbl := sample()

	sel, err := tbl.Select([]int{2, 0})
	require.NoError(t, err)
	assert.Equal(t, []string{"LiF", "NaCl"}, sel.Formulas())
	assert.Equal(t, 3, tbl.Len())

	_, err = tbl.Select([]int{3})
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestTable_Split(t *testing.T) {
	head, tail := sample().Split(1)
	assert.Equal(t, []string{"NaCl"}, head.Formulas())
	assert.Equal(t, []string{"KCl", "LiF"}, tail.Formulas())

	head, tail = sample().Split(10)
	assert.Equal(t, 3, head.Len())
	assert.Equal(t, 0, tail.Len())
}

func TestConcat(t *testing.T) {
	a, b := sample().Split(2)
	c, err := Concat("pool", b, a)
	require.NoError(t, err)
	assert.Equal(t, []string{"LiF", "NaCl", "KCl"}, c.Formulas())
	assert.Equal(t, []float64{30, 10, 20}, c.Targets())

	other := New("x", []string{"g1", "g2"}, nil)
	_, err = Concat("pool", a, other)
	assert.ErrorIs(t, err, ErrSchemaMismatch)
}

func TestCollection_Lookup(t *testing.T) {
	c := Collection{"aflow": sample(), "mpds": sample()}

	tbl, err := c.Lookup("aflow")
	require.NoError(t, err)
	assert.Equal(t, 3, tbl.Len())

	_, err = c.Lookup("aflw")
	require.ErrorIs(t, err, ErrUnknownDataset)
	assert.Contains(t, err.Error(), `did you mean "aflow"`)

	_, err = c.Lookup("completely-different")
	require.ErrorIs(t, err, ErrUnknownDataset)
	assert.NotContains(t, err.Error(), "did you mean")

	assert.Equal(t, []string{"aflow", "mpds"}, c.Names())
}

func TestReadCSV(t *testing.T) {
	in := "formula,density,volume,target,notes\nFe2O3,5.2,30.1,2.1,x\nNaCl, 2.1, 27,8.5,y\n"

	tbl, err := ReadCSV(strings.NewReader(in), "te")
	require.NoError(t, err)

	assert.Equal(t, "te", tbl.Name)
	assert.Equal(t, []string{"density", "volume"}, tbl.FeatureNames)
	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, "Fe2O3", tbl.Rows[0].Formula)
	assert.Equal(t, []float64{2.1, 27}, tbl.Rows[1].Features)
	assert.Equal(t, []float64{2.1, 8.5}, tbl.Targets())
}

func TestReadCSV_NoFeatures(t *testing.T) {
	tbl, err := ReadCSV(strings.NewReader("formula,target\nSi,1.1\n"), "zhuo")
	require.NoError(t, err)
	assert.False(t, tbl.HasFeatures())
	assert.Nil(t, tbl.Rows[0].Features)
}

func TestReadCSV_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"no formula", "target\n1\n"},
		{"no target", "formula\nSi\n"},
		{"bad number", "formula,target\nSi,abc\n"},
		{"target first", "target,formula\n1,Si\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.in), "x")
			assert.Error(t, err)
		})
	}

	_, err := ReadCSV(strings.NewReader("formula,target\n"), "x")
	require.NoError(t, err)
	_, err = ReadCSV(strings.NewReader(""), "x")
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sample()))

	back, err := ReadCSV(&buf, "aflow")
	require.NoError(t, err)
	assert.Equal(t, sample(), back)
}

func TestReadCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "citrine.csv")
	require.NoError(t, os.WriteFile(path, []byte("formula,target\nBi2Te3,1.5\n"), 0o644))

	tbl, err := ReadCSVFile(path, "")
	require.NoError(t, err)
	assert.Equal(t, "citrine", tbl.Name)
	assert.Equal(t, 1, tbl.Len())

	_, err = ReadCSVFile(filepath.Join(t.TempDir(), "missing.csv"), "")
	assert.ErrorIs(t, err, os.ErrNotExist)
}
