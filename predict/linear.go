package predict

import (
	"context"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// LinearConfig configures the ridge regressor.
// Zero values are replaced with defaults.
type LinearConfig struct {
	// Epochs is the maximum number of passes over the training rows (default 300).
	Epochs int
	// BatchSize is the mini-batch size (default 32).
	BatchSize int
	// LearningRate is the peak Adam step size (default 0.05).
	LearningRate float64
	// L2 is the ridge penalty on the weights, not the bias (default 1e-3).
	L2 float64
	// ValidationFraction is the share of rows held out for early stopping
	// (default 0.1). Fewer than 10 rows disable the hold-out.
	ValidationFraction float64
	// Patience is the number of epochs without validation improvement
	// before training stops (default 20).
	Patience int
	// Seed drives shuffling and the hold-out split (default 1234).
	Seed int64
}

func (c LinearConfig) withDefaults() LinearConfig {
	if c.Epochs <= 0 {
		c.Epochs = 300
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 32
	}
	if c.LearningRate <= 0 {
		c.LearningRate = 0.05
	}
	if c.L2 < 0 {
		c.L2 = 0
	} else if c.L2 == 0 {
		c.L2 = 1e-3
	}
	if c.ValidationFraction <= 0 || c.ValidationFraction >= 1 {
		c.ValidationFraction = 0.1
	}
	if c.Patience <= 0 {
		c.Patience = 20
	}
	if c.Seed == 0 {
		c.Seed = 1234
	}
	return c
}

// Linear is a ridge-regularized linear regressor over standardized
// features, trained by mini-batch Adam with cosine annealing and early
// stopping on a held-out validation split.
type Linear struct {
	cfg LinearConfig

	std    standardizer
	yMean  float64
	yStd   float64
	params []float64 // weights followed by bias
	dim    int
	fitted bool
}

// NewLinear creates an unfitted linear regressor.
func NewLinear(cfg LinearConfig) *Linear {
	return &Linear{cfg: cfg.withDefaults()}
}

// Fit implements Predictor.
func (m *Linear) Fit(ctx context.Context, x [][]float64, y []float64) error {
	dim, err := checkDims(x)
	if err != nil {
		return err
	}
	if len(y) != len(x) {
		return &ErrDimensionMismatch{Expected: len(x), Actual: len(y)}
	}
	design, err := denseRows(x, dim)
	if err != nil {
		return err
	}

	m.dim = dim
	m.std = fitStandardizer(design)
	xs := m.std.apply(design)

	m.yMean, m.yStd = stat.PopMeanStdDev(y, nil)
	if m.yStd == 0 {
		m.yStd = 1
	}
	ys := make([]float64, len(y))
	copy(ys, y)
	floats.AddConst(-m.yMean, ys)
	floats.Scale(1/m.yStd, ys)

	rng := rand.New(rand.NewSource(m.cfg.Seed))
	order := rng.Perm(len(ys))

	nVal := 0
	if len(ys) >= 10 {
		nVal = int(math.Round(m.cfg.ValidationFraction * float64(len(ys))))
	}
	val, train := order[:nVal], order[nVal:]

	params := make([]float64, dim+1)
	grads := make([]float64, dim+1)
	opt := newAdam(m.cfg.LearningRate, dim+1)
	batchesPerEpoch := (len(train) + m.cfg.BatchSize - 1) / m.cfg.BatchSize
	sched := &cosineAnnealing{lrMax: m.cfg.LearningRate, tMax: m.cfg.Epochs * batchesPerEpoch}

	best := make([]float64, dim+1)
	bestLoss := math.Inf(1)
	stale := 0

	for epoch := 0; epoch < m.cfg.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		rng.Shuffle(len(train), func(i, j int) { train[i], train[j] = train[j], train[i] })

		for start := 0; start < len(train); start += m.cfg.BatchSize {
			end := min(start+m.cfg.BatchSize, len(train))
			m.gradient(params, grads, xs, ys, train[start:end])
			opt.lr = sched.step()
			opt.update(params, grads)
		}

		monitor := val
		if len(monitor) == 0 {
			monitor = train
		}
		loss := mse(params, xs, ys, monitor)
		if loss < bestLoss-1e-12 {
			bestLoss = loss
			copy(best, params)
			stale = 0
			continue
		}
		stale++
		if stale >= m.cfg.Patience {
			break
		}
	}

	m.params = best
	m.fitted = true
	return nil
}

func (m *Linear) gradient(params, grads []float64, xs *mat.Dense, ys []float64, batch []int) {
	clear(grads)
	dim := len(params) - 1
	for _, idx := range batch {
		row := xs.RawRowView(idx)
		r := affineDot(params, row) - ys[idx]
		floats.AddScaled(grads[:dim], 2*r, row)
		grads[dim] += 2 * r
	}
	floats.Scale(1/float64(len(batch)), grads)
	floats.AddScaled(grads[:dim], 2*m.cfg.L2, params[:dim])
}

// Predict implements Predictor.
func (m *Linear) Predict(x [][]float64) ([]float64, error) {
	if !m.fitted {
		return nil, ErrNotFitted
	}
	if len(x) == 0 {
		return []float64{}, nil
	}
	design, err := denseRows(x, m.dim)
	if err != nil {
		return nil, err
	}

	var pred mat.VecDense
	pred.MulVec(m.std.apply(design), mat.NewVecDense(m.dim, m.params[:m.dim]))

	out := make([]float64, len(x))
	for i := range out {
		out[i] = (pred.AtVec(i)+m.params[m.dim])*m.yStd + m.yMean
	}
	return out, nil
}

// affineDot returns w·x + b where params holds w followed by b.
func affineDot(params, x []float64) float64 {
	dim := len(params) - 1
	return floats.Dot(params[:dim], x) + params[dim]
}

func mse(params []float64, xs *mat.Dense, ys []float64, rows []int) float64 {
	var ss float64
	for _, idx := range rows {
		r := affineDot(params, xs.RawRowView(idx)) - ys[idx]
		ss += r * r
	}
	return ss / float64(len(rows))
}
