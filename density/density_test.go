package density

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGaussian_PDF(t *testing.T) {
	g := Gaussian{Mean: Point{0, 0}, Variance: 1}

	assert.InDelta(t, 1/(2*math.Pi), g.PDF(Point{0, 0}), 1e-12)
	assert.InDelta(t, math.Exp(-0.5)/(2*math.Pi), g.PDF(Point{1, 0}), 1e-12)
	assert.Greater(t, g.PDF(Point{0.1, 0}), g.PDF(Point{2, 0}))
}

func TestRaw(t *testing.T) {
	acceptors := []Point{{0, 0}, {0, 0}}
	radii := []float64{1, 1}
	donors := []Point{{0, 0}, {5, 5}}

	raw, err := Raw(acceptors, radii, donors)
	require.NoError(t, err)
	require.Len(t, raw, 2)

	assert.InDelta(t, 2/(2*math.Pi), raw[0], 1e-12)
	assert.Greater(t, raw[0], raw[1])
}

func TestRaw_LargerRadiusSpreadsMass(t *testing.T) {
	donor := []Point{{3, 0}}

	narrow, err := Raw([]Point{{0, 0}}, []float64{0.5}, donor)
	require.NoError(t, err)
	wide, err := Raw([]Point{{0, 0}}, []float64{4}, donor)
	require.NoError(t, err)

	assert.Greater(t, wide[0], narrow[0])
}

func TestRaw_InvalidRadius(t *testing.T) {
	_, err := Raw([]Point{{0, 0}}, []float64{0}, []Point{{1, 1}})
	assert.ErrorIs(t, err, ErrInvalidRadius)

	_, err = Raw([]Point{{0, 0}}, []float64{1, 2}, nil)
	assert.Error(t, err)
}

func TestNovelty(t *testing.T) {
	assert.Equal(t, []float64{-1, 0, -0.5}, Novelty([]float64{1, 0, 0.5}))
}
