package cluster

import (
	"context"
	"testing"

	"github.com/hupe1980/matdisco/density"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoBlobs() []density.Point {
	return []density.Point{
		{0, 0}, {0, 1}, {1, 0}, // near 0,0
		{10, 10}, {10, 11}, {11, 10}, // near 10,10
	}
}

func TestTrain(t *testing.T) {
	centroids, err := Train(t.Context(), twoBlobs(), 2, 100, 1)
	require.NoError(t, err)
	assert.Len(t, centroids, 2)

	p1 := Assign(density.Point{0.5, 0.5}, centroids)
	p2 := Assign(density.Point{10.5, 10.5}, centroids)
	assert.NotEqual(t, p1, p2)
}

func TestTrain_NotEnoughPoints(t *testing.T) {
	_, err := Train(t.Context(), []density.Point{{0, 0}}, 2, 10, 1)
	assert.ErrorIs(t, err, ErrNoPoints)
}

func TestTrain_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	pts := make([]density.Point, 1000)
	for i := range pts {
		pts[i] = density.Point{float64(i), float64(2 * i)}
	}
	_, err := Train(ctx, pts, 10, 1000, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestKMeans_Cluster(t *testing.T) {
	labels, err := KMeans{K: 2, Seed: 5}.Cluster(t.Context(), twoBlobs())
	require.NoError(t, err)
	require.Len(t, labels, 6)

	assert.Equal(t, labels[0], labels[1])
	assert.Equal(t, labels[0], labels[2])
	assert.Equal(t, labels[3], labels[4])
	assert.Equal(t, labels[3], labels[5])
	assert.NotEqual(t, labels[0], labels[3])
}

func TestKMeans_Deterministic(t *testing.T) {
	km := KMeans{Seed: 9}
	a, err := km.Cluster(t.Context(), twoBlobs())
	require.NoError(t, err)
	b, err := km.Cluster(t.Context(), twoBlobs())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestKMeans_KClamped(t *testing.T) {
	labels, err := KMeans{K: 10}.Cluster(t.Context(), []density.Point{{0, 0}, {5, 5}})
	require.NoError(t, err)
	assert.NotEqual(t, labels[0], labels[1])
}

func TestKMeans_Empty(t *testing.T) {
	_, err := KMeans{}.Cluster(t.Context(), nil)
	assert.ErrorIs(t, err, ErrNoPoints)
}

func TestGroups(t *testing.T) {
	got := Groups([]int{2, 0, 2, 1, 0})
	assert.Equal(t, [][]int{{1, 4}, {3}, {0, 2}}, got)
}
