package prommetrics

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := New(reg)
	require.NoError(t, err)

	c.RecordIteration(3, 10, 5*time.Millisecond)
	c.RecordIteration(2, 8, 5*time.Millisecond)
	c.RecordRun(2, 5, time.Second, nil)
	c.RecordRun(0, 0, time.Millisecond, errors.New("boom"))

	assert.Equal(t, 5.0, testutil.ToFloat64(c.rowsMoved))
	assert.Equal(t, 8.0, testutil.ToFloat64(c.donorsLeft))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.runs.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.runs.WithLabelValues("error")))

	expected := `
# HELP matdisco_rows_moved_total Donor rows admitted into acceptor sets
# TYPE matdisco_rows_moved_total counter
matdisco_rows_moved_total 5
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "matdisco_rows_moved_total"))
}

func TestNew_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)

	_, err = New(reg)
	assert.Error(t, err)
}
