// Package scale provides feature rescalers used to bring prediction and
// novelty scores onto a common range before they are combined.
//
// A Rescaler is fitted on one slice and then transforms slices with the
// learned parameters. Rescalers are cheap and stateful; callers create a
// fresh instance per fit.
package scale

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrEmptyInput is returned when fitting on an empty slice.
var ErrEmptyInput = errors.New("scale: empty input")

// Kind selects a rescaling strategy.
type Kind int

const (
	// MinMax maps the fitted range onto [0,1].
	MinMax Kind = iota
	// Robust centers on the median and scales by the interquartile range.
	Robust
	// Standard centers on the mean and scales by the standard deviation.
	Standard
)

func (k Kind) String() string {
	switch k {
	case MinMax:
		return "minmax"
	case Robust:
		return "robust"
	case Standard:
		return "standard"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// ParseKind parses a rescaler name. Matching is case-insensitive and
// accepts the scikit-learn class names as aliases.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "minmax", "min-max", "minmaxscaler", "":
		return MinMax, nil
	case "robust", "robustscaler":
		return Robust, nil
	case "standard", "standardscaler", "zscore":
		return Standard, nil
	default:
		return 0, fmt.Errorf("scale: unknown rescaler %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Rescaler learns an affine transform from data.
type Rescaler interface {
	// Fit learns the transform parameters from values.
	Fit(values []float64) error
	// Transform applies the learned transform, returning a new slice.
	Transform(values []float64) []float64
}

// New returns an unfitted rescaler of the given kind.
func New(k Kind) (Rescaler, error) {
	switch k {
	case MinMax:
		return &MinMaxScaler{}, nil
	case Robust:
		return &RobustScaler{}, nil
	case Standard:
		return &StandardScaler{}, nil
	default:
		return nil, fmt.Errorf("scale: unsupported kind %v", k)
	}
}

// FitTransform creates a fresh rescaler of kind k, fits it on values and
// returns the transformed values.
func FitTransform(k Kind, values []float64) ([]float64, error) {
	r, err := New(k)
	if err != nil {
		return nil, err
	}
	if err := r.Fit(values); err != nil {
		return nil, err
	}
	return r.Transform(values), nil
}

// affine holds the shared (x - center) / scale transform.
type affine struct {
	center float64
	scale  float64
	fitted bool
}

func (a *affine) Transform(values []float64) []float64 {
	out := make([]float64, len(values))
	s := a.scale
	if !a.fitted || s == 0 {
		s = 1
	}
	for i, v := range values {
		out[i] = (v - a.center) / s
	}
	return out
}

// MinMaxScaler maps [min, max] of the fitted data onto [0, 1].
// A constant input has zero range and maps to 0.
type MinMaxScaler struct {
	affine
}

// Fit implements Rescaler.
func (s *MinMaxScaler) Fit(values []float64) error {
	if len(values) == 0 {
		return ErrEmptyInput
	}
	lo := floats.Min(values)
	s.center = lo
	s.scale = floats.Max(values) - lo
	s.fitted = true
	return nil
}

// RobustScaler removes the median and scales by the 25th to 75th
// percentile range. A zero interquartile range uses scale 1.
type RobustScaler struct {
	affine
}

// Fit implements Rescaler.
func (s *RobustScaler) Fit(values []float64) error {
	if len(values) == 0 {
		return ErrEmptyInput
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	s.center = Quantile(sorted, 0.5)
	s.scale = Quantile(sorted, 0.75) - Quantile(sorted, 0.25)
	s.fitted = true
	return nil
}

// StandardScaler removes the mean and scales by the population standard
// deviation. A zero deviation uses scale 1.
type StandardScaler struct {
	affine
}

// Fit implements Rescaler.
func (s *StandardScaler) Fit(values []float64) error {
	if len(values) == 0 {
		return ErrEmptyInput
	}
	s.center, s.scale = stat.PopMeanStdDev(values, nil)
	s.fitted = true
	return nil
}

// Quantile returns the q-th quantile of an ascending slice, interpolating
// linearly between the order statistics at rank q·(n-1) like numpy's
// default percentile.
func Quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	// stat.LinInterp places the i-th order statistic at cumulative
	// probability (i+1)/n; shift q onto that grid.
	p := (1 + q*float64(n-1)) / float64(n)
	return stat.Quantile(math.Min(1, math.Max(0, p)), stat.LinInterp, sorted, nil)
}
