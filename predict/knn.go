package predict

import (
	"context"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// KNNConfig configures the neighbours regressor.
type KNNConfig struct {
	// K is the number of neighbours (default 5, clamped to the training size).
	K int
}

// KNN predicts the inverse-distance weighted mean target of the K nearest
// training rows in standardized feature space.
type KNN struct {
	k      int
	std    standardizer
	xs     *mat.Dense
	ys     []float64
	dim    int
	fitted bool
}

// NewKNN creates an unfitted neighbours regressor.
func NewKNN(cfg KNNConfig) *KNN {
	if cfg.K <= 0 {
		cfg.K = 5
	}
	return &KNN{k: cfg.K}
}

// Fit implements Predictor.
func (m *KNN) Fit(ctx context.Context, x [][]float64, y []float64) error {
	dim, err := checkDims(x)
	if err != nil {
		return err
	}
	if len(y) != len(x) {
		return &ErrDimensionMismatch{Expected: len(x), Actual: len(y)}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	design, err := denseRows(x, dim)
	if err != nil {
		return err
	}

	m.dim = dim
	m.std = fitStandardizer(design)
	m.xs = m.std.apply(design)
	m.ys = append([]float64(nil), y...)
	m.fitted = true
	return nil
}

type neighbour struct {
	dist float64
	idx  int
}

// Predict implements Predictor.
func (m *KNN) Predict(x [][]float64) ([]float64, error) {
	if !m.fitted {
		return nil, ErrNotFitted
	}
	if len(x) == 0 {
		return []float64{}, nil
	}
	query, err := denseRows(x, m.dim)
	if err != nil {
		return nil, err
	}
	query = m.std.apply(query)

	nRef, _ := m.xs.Dims()
	k := min(m.k, nRef)
	out := make([]float64, len(x))
	nbrs := make([]neighbour, nRef)

	for i := range out {
		q := query.RawRowView(i)
		for j := range nbrs {
			nbrs[j] = neighbour{dist: floats.Distance(q, m.xs.RawRowView(j), 2), idx: j}
		}
		sort.Slice(nbrs, func(a, b int) bool {
			if nbrs[a].dist != nbrs[b].dist {
				return nbrs[a].dist < nbrs[b].dist
			}
			return nbrs[a].idx < nbrs[b].idx
		})

		// An exact match short-circuits to the mean of the coincident rows.
		if nbrs[0].dist == 0 {
			var sum float64
			var n int
			for _, nb := range nbrs[:k] {
				if nb.dist != 0 {
					break
				}
				sum += m.ys[nb.idx]
				n++
			}
			out[i] = sum / float64(n)
			continue
		}

		var num, den float64
		for _, nb := range nbrs[:k] {
			w := 1 / nb.dist
			num += w * m.ys[nb.idx]
			den += w
		}
		out[i] = num / den
	}
	return out, nil
}
