package embedding

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/hupe1980/matdisco/composition"
	"github.com/hupe1980/matdisco/density"
	"github.com/hupe1980/matdisco/internal/resource"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// MDSOptions configures the MDS provider.
// Zero values are replaced with defaults.
type MDSOptions struct {
	// NNeighbors is the neighbourhood size for density radii (default 10).
	NNeighbors int
	// Resources bounds distance workers and matrix memory. Optional.
	Resources *resource.Controller
}

// MDS embeds formulas with classical multidimensional scaling over a
// composition distance matrix.
type MDS struct {
	metric composition.Metric
	opts   MDSOptions
}

// NewMDS creates an MDS provider using metric for pairwise distances.
func NewMDS(metric composition.Metric, opts MDSOptions) *MDS {
	if opts.NNeighbors <= 0 {
		opts.NNeighbors = 10
	}
	return &MDS{metric: metric, opts: opts}
}

// Embed implements Provider.
func (m *MDS) Embed(ctx context.Context, formulas []string) (*Embedding, error) {
	n := len(formulas)
	if n == 0 {
		return nil, ErrEmptyPool
	}

	// The distance matrix and its double-centered copy are both n×n.
	matBytes := 2 * int64(n) * int64(n) * 8
	if err := m.opts.Resources.AcquireMemory(matBytes); err != nil {
		return nil, fmt.Errorf("embedding: distance matrix of %d rows: %w", n, err)
	}
	defer m.opts.Resources.ReleaseMemory(matBytes)

	dm, err := DistanceMatrix(ctx, m.metric, formulas, m.opts.Resources)
	if err != nil {
		return nil, err
	}

	coords, err := project(ctx, dm)
	if err != nil {
		return nil, err
	}

	return &Embedding{
		Coords: coords,
		Radii:  Radii(dm, m.opts.NNeighbors),
	}, nil
}

// DistanceMatrix computes the symmetric pairwise distance matrix. Each row
// task holds one worker slot of rc, so concurrent runs sharing rc share
// its worker budget.
func DistanceMatrix(ctx context.Context, metric composition.Metric, formulas []string, rc *resource.Controller) ([][]float64, error) {
	n := len(formulas)
	dm := make([][]float64, n)
	for i := range dm {
		dm[i] = make([]float64, n)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(rc.MaxWorkers())

	// Each unordered pair (i, j) with i < j is owned by row i's task.
	for i := 0; i < n; i++ {
		if err := rc.AcquireWorker(gctx); err != nil {
			break
		}
		g.Go(func() error {
			defer rc.ReleaseWorker()
			if err := gctx.Err(); err != nil {
				return err
			}
			for j := i + 1; j < n; j++ {
				d, err := metric.Distance(formulas[i], formulas[j])
				if err != nil {
					return fmt.Errorf("embedding: distance %q to %q: %w", formulas[i], formulas[j], err)
				}
				dm[i][j] = d
				dm[j][i] = d
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return dm, nil
}

// project runs classical MDS: double-center the squared distances and
// take the two leading eigenvectors scaled by the root of their
// eigenvalues.
func project(ctx context.Context, dm [][]float64) ([]density.Point, error) {
	n := len(dm)
	coords := make([]density.Point, n)
	if n == 1 {
		return coords, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(doubleCenter(dm), true); !ok {
		return nil, ErrNoConvergence
	}
	values := eig.Values(nil)
	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	// Eigenvalues are ascending; the leading pairs sit at the end.
	for comp := 0; comp < 2 && comp < n; comp++ {
		col := n - 1 - comp
		val := values[col]
		if val <= 0 {
			continue
		}
		vec := mat.Col(nil, col, &vectors)
		orient(vec)
		floats.Scale(math.Sqrt(val), vec)
		for i := range coords {
			coords[i][comp] = vec[i]
		}
	}
	return coords, nil
}

// doubleCenter returns B = -1/2 · J·D²·J with J the centering matrix.
func doubleCenter(dm [][]float64) *mat.SymDense {
	n := len(dm)
	rowMean := make([]float64, n)
	for i, row := range dm {
		rowMean[i] = floats.Dot(row, row) / float64(n)
	}
	grand := floats.Sum(rowMean) / float64(n)

	b := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			b.SetSym(i, j, -0.5*(dm[i][j]*dm[i][j]-rowMean[i]-rowMean[j]+grand))
		}
	}
	return b
}

// orient flips v so that its largest-magnitude entry is positive, making
// the embedding independent of the solver's sign choice.
func orient(v []float64) {
	if -floats.Min(v) > floats.Max(v) {
		floats.Scale(-1, v)
	}
}

// Radii returns, for every row, the mean squared distance to its k
// nearest neighbours in dm. Rows whose neighbours all coincide with them
// fall back to the mean positive radius of the pool (or 1).
func Radii(dm [][]float64, k int) []float64 {
	n := len(dm)
	radii := make([]float64, n)
	if k >= n {
		k = n - 1
	}

	var sum float64
	var count int
	row := make([]float64, 0, n)
	for i := range dm {
		row = row[:0]
		for j, d := range dm[i] {
			if j != i {
				row = append(row, d)
			}
		}
		sort.Float64s(row)
		var r float64
		for _, d := range row[:k] {
			r += d * d
		}
		if k > 0 {
			r /= float64(k)
		}
		radii[i] = r
		if r > 0 {
			sum += r
			count++
		}
	}

	fallback := 1.0
	if count > 0 {
		fallback = sum / float64(count)
	}
	for i, r := range radii {
		if !(r > 0) {
			radii[i] = fallback
		}
	}
	return radii
}
