// Package density computes a proxy novelty score for donor compositions
// from the density of acceptor embeddings around them.
//
// Every acceptor embedding contributes an isotropic 2-D Gaussian centered
// on its coordinate whose variance equals its density radius. The raw
// density at a donor is the sum of all acceptor Gaussians evaluated at the
// donor coordinate.
package density

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidRadius is returned for non-positive or non-finite radii.
var ErrInvalidRadius = errors.New("density: radius must be positive and finite")

// Point is a coordinate in the 2-D embedding plane.
type Point [2]float64

// Gaussian is an isotropic bivariate normal with a shared variance on
// both axes and no covariance.
type Gaussian struct {
	Mean     Point
	Variance float64
}

// PDF evaluates the probability density at p.
func (g Gaussian) PDF(p Point) float64 {
	dx := p[0] - g.Mean[0]
	dy := p[1] - g.Mean[1]
	d2 := dx*dx + dy*dy
	return math.Exp(-d2/(2*g.Variance)) / (2 * math.Pi * g.Variance)
}

// Mixture builds one Gaussian per acceptor.
func Mixture(acceptors []Point, radii []float64) ([]Gaussian, error) {
	if len(acceptors) != len(radii) {
		return nil, fmt.Errorf("density: %d acceptors but %d radii", len(acceptors), len(radii))
	}
	out := make([]Gaussian, len(acceptors))
	for i, p := range acceptors {
		r := radii[i]
		if !(r > 0) || math.IsInf(r, 0) {
			return nil, fmt.Errorf("%w: acceptor %d has radius %v", ErrInvalidRadius, i, r)
		}
		out[i] = Gaussian{Mean: p, Variance: r}
	}
	return out, nil
}

// Raw returns, for every donor, the summed density of all acceptor
// Gaussians at the donor coordinate.
func Raw(acceptors []Point, radii []float64, donors []Point) ([]float64, error) {
	mix, err := Mixture(acceptors, radii)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(donors))
	for i, d := range donors {
		var sum float64
		for _, g := range mix {
			sum += g.PDF(d)
		}
		out[i] = sum
	}
	return out, nil
}

// Novelty negates raw densities so that sparse neighbourhoods rank high
// once rescaled.
func Novelty(raw []float64) []float64 {
	out := make([]float64, len(raw))
	for i, v := range raw {
		out[i] = -v
	}
	return out
}
