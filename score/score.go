// Package score combines predicted target values and density novelty into
// a single selection score per donor row.
package score

import (
	"fmt"

	"github.com/hupe1980/matdisco/density"
	"github.com/hupe1980/matdisco/scale"
	"gonum.org/v1/gonum/floats"
)

// ErrLengthMismatch indicates that prediction and density slices differ in
// length.
type ErrLengthMismatch struct {
	Predictions int
	Densities   int
}

func (e *ErrLengthMismatch) Error() string {
	return fmt.Sprintf("score: %d predictions but %d densities", e.Predictions, e.Densities)
}

// Combiner rescales its two inputs independently and blends them.
//
// Every call fits fresh rescalers on the data it is given, so scores from
// different calls are not on a shared absolute scale.
type Combiner struct {
	Kind        scale.Kind
	PredWeight  float64
	ProxyWeight float64
}

// Target rescales raw predicted target values.
func (c Combiner) Target(pred []float64) ([]float64, error) {
	return scale.FitTransform(c.Kind, pred)
}

// Proxy rescales the negated raw densities.
func (c Combiner) Proxy(rawDensity []float64) ([]float64, error) {
	return scale.FitTransform(c.Kind, density.Novelty(rawDensity))
}

// Weighted blends already rescaled scores and rescales the blend.
func (c Combiner) Weighted(predScaled, proxyScaled []float64) ([]float64, error) {
	if len(predScaled) != len(proxyScaled) {
		return nil, &ErrLengthMismatch{Predictions: len(predScaled), Densities: len(proxyScaled)}
	}
	comb := make([]float64, len(predScaled))
	floats.ScaleTo(comb, c.PredWeight, predScaled)
	floats.AddScaled(comb, c.ProxyWeight, proxyScaled)
	return scale.FitTransform(c.Kind, comb)
}

// Combine runs Target, Proxy and Weighted in sequence.
func (c Combiner) Combine(pred, rawDensity []float64) ([]float64, error) {
	if len(pred) != len(rawDensity) {
		return nil, &ErrLengthMismatch{Predictions: len(pred), Densities: len(rawDensity)}
	}
	p, err := c.Target(pred)
	if err != nil {
		return nil, fmt.Errorf("score: target: %w", err)
	}
	d, err := c.Proxy(rawDensity)
	if err != nil {
		return nil, fmt.Errorf("score: proxy: %w", err)
	}
	return c.Weighted(p, d)
}
