// Package predict provides target-property regressors used to score donor
// compositions.
//
// A Predictor is trained on the acceptor rows and then predicts the donor
// rows once per run. Two regressors are built in: a ridge-regularized
// linear model trained with Adam and a distance-weighted k-nearest
// neighbours regressor.
package predict

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/hupe1980/matdisco/composition"
	"github.com/hupe1980/matdisco/dataset"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrNotFitted is returned by Predict before a successful Fit.
	ErrNotFitted = errors.New("predict: model not fitted")

	// ErrNoTrainingData is returned when fitting on zero rows.
	ErrNoTrainingData = errors.New("predict: no training rows")

	// ErrNoFeatures is returned when rows carry no feature values.
	ErrNoFeatures = errors.New("predict: rows have no features")
)

// ErrDimensionMismatch indicates rows with differing feature counts.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("predict: dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// Predictor is a regression model over feature vectors.
type Predictor interface {
	Fit(ctx context.Context, x [][]float64, y []float64) error
	Predict(x [][]float64) ([]float64, error)
}

// Kind names a built-in predictor.
type Kind int

const (
	KindLinear Kind = iota
	KindKNN
)

func (k Kind) String() string {
	switch k {
	case KindLinear:
		return "linear"
	case KindKNN:
		return "knn"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// ParseKind parses a predictor name.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "linear", "ridge", "":
		return KindLinear, nil
	case "knn", "neighbors", "neighbours":
		return KindKNN, nil
	default:
		return 0, fmt.Errorf("predict: unknown model %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// New returns a built-in predictor seeded with seed.
func New(k Kind, seed int64) (Predictor, error) {
	switch k {
	case KindLinear:
		return NewLinear(LinearConfig{Seed: seed}), nil
	case KindKNN:
		return NewKNN(KNNConfig{}), nil
	default:
		return nil, fmt.Errorf("predict: unsupported kind %v", k)
	}
}

// Features returns the model inputs for a table: its numeric feature
// columns when present, element fractions of each formula otherwise.
func Features(t *dataset.Table) ([][]float64, error) {
	if t.HasFeatures() {
		return t.Matrix(), nil
	}
	out := make([][]float64, t.Len())
	for i, r := range t.Rows {
		c, err := composition.Parse(r.Formula)
		if err != nil {
			return nil, fmt.Errorf("predict: row %d: %w", i, err)
		}
		out[i] = c.Fractions()
	}
	return out, nil
}

// RMSE returns the root mean squared error between truth and pred.
func RMSE(truth, pred []float64) float64 {
	if len(truth) == 0 || len(truth) != len(pred) {
		return math.NaN()
	}
	return floats.Distance(truth, pred, 2) / math.Sqrt(float64(len(truth)))
}

func checkDims(x [][]float64) (int, error) {
	if len(x) == 0 {
		return 0, ErrNoTrainingData
	}
	dim := len(x[0])
	if dim == 0 {
		return 0, ErrNoFeatures
	}
	for _, row := range x[1:] {
		if len(row) != dim {
			return 0, &ErrDimensionMismatch{Expected: dim, Actual: len(row)}
		}
	}
	return dim, nil
}

// denseRows copies x into a matrix with dim columns.
func denseRows(x [][]float64, dim int) (*mat.Dense, error) {
	d := mat.NewDense(len(x), dim, nil)
	for i, row := range x {
		if len(row) != dim {
			return nil, &ErrDimensionMismatch{Expected: dim, Actual: len(row)}
		}
		d.SetRow(i, row)
	}
	return d, nil
}

// standardizer centers and scales each feature column.
type standardizer struct {
	mean []float64
	std  []float64
}

func fitStandardizer(x *mat.Dense) standardizer {
	r, c := x.Dims()
	s := standardizer{mean: make([]float64, c), std: make([]float64, c)}
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, x)
		s.mean[j], s.std[j] = stat.PopMeanStdDev(col, nil)
		if s.std[j] == 0 {
			s.std[j] = 1
		}
	}
	return s
}

// apply returns a standardized copy of x.
func (s standardizer) apply(x *mat.Dense) *mat.Dense {
	var out mat.Dense
	out.Apply(func(_, j int, v float64) float64 {
		return (v - s.mean[j]) / s.std[j]
	}, x)
	return &out
}
