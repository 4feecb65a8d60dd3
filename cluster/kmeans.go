package cluster

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sort"

	"github.com/hupe1980/matdisco/density"
)

// ErrNoPoints is returned when clustering an empty set.
var ErrNoPoints = errors.New("cluster: no points")

// Clusterer assigns a label to every point. Labels are in [0, k) for some
// k and carry no order.
type Clusterer interface {
	Cluster(ctx context.Context, points []density.Point) ([]int, error)
}

// KMeans clusters points with Lloyd's algorithm.
type KMeans struct {
	// K is the number of clusters. Zero picks ceil(sqrt(n/2)).
	K int
	// MaxIter caps Lloyd iterations (default 100).
	MaxIter int
	// Seed drives centroid initialisation.
	Seed int64
}

// Cluster implements Clusterer.
func (km KMeans) Cluster(ctx context.Context, points []density.Point) ([]int, error) {
	n := len(points)
	if n == 0 {
		return nil, ErrNoPoints
	}
	k := km.K
	if k <= 0 {
		k = int(math.Ceil(math.Sqrt(float64(n) / 2)))
	}
	k = min(k, n)

	centroids, err := Train(ctx, points, k, km.MaxIter, km.Seed)
	if err != nil {
		return nil, err
	}
	labels := make([]int, n)
	for i, p := range points {
		labels[i] = Assign(p, centroids)
	}
	return labels, nil
}

// Train returns k centroids learned from points. Centroids are seeded
// from a random permutation of the points; empty clusters are reseeded
// from a random point.
func Train(ctx context.Context, points []density.Point, k, maxIter int, seed int64) ([]density.Point, error) {
	n := len(points)
	if n < k || k <= 0 {
		return nil, ErrNoPoints
	}
	if maxIter <= 0 {
		maxIter = 100
	}

	rng := rand.New(rand.NewSource(seed))
	centroids := make([]density.Point, k)
	perm := rng.Perm(n)
	for i := range centroids {
		centroids[i] = points[perm[i]]
	}

	assignments := make([]int, n)
	for i := range assignments {
		assignments[i] = -1
	}
	counts := make([]int, k)
	sums := make([]density.Point, k)

	for iter := 0; iter < maxIter; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		changed := false
		for i, p := range points {
			best := Assign(p, centroids)
			if assignments[i] != best {
				assignments[i] = best
				changed = true
			}
		}
		if !changed {
			break
		}

		clear(sums)
		clear(counts)
		for i, p := range points {
			c := assignments[i]
			sums[c][0] += p[0]
			sums[c][1] += p[1]
			counts[c]++
		}
		for j := range centroids {
			if counts[j] > 0 {
				inv := 1 / float64(counts[j])
				centroids[j] = density.Point{sums[j][0] * inv, sums[j][1] * inv}
			} else {
				centroids[j] = points[rng.Intn(n)]
			}
		}
	}
	return centroids, nil
}

// Assign returns the index of the centroid closest to p. Ties go to the
// lower index.
func Assign(p density.Point, centroids []density.Point) int {
	best := -1
	minDist := math.Inf(1)
	for j, c := range centroids {
		if d := sqDist(p, c); d < minDist {
			minDist = d
			best = j
		}
	}
	return best
}

// Groups returns the member indices of every label, labels ascending and
// members in input order.
func Groups(labels []int) [][]int {
	byLabel := map[int][]int{}
	for i, l := range labels {
		byLabel[l] = append(byLabel[l], i)
	}
	keys := make([]int, 0, len(byLabel))
	for l := range byLabel {
		keys = append(keys, l)
	}
	sort.Ints(keys)
	out := make([][]int, len(keys))
	for i, l := range keys {
		out[i] = byLabel[l]
	}
	return out
}

func sqDist(a, b density.Point) float64 {
	dx := a[0] - b[0]
	dy := a[1] - b[1]
	return dx*dx + dy*dy
}
