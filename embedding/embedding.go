// Package embedding projects compositions onto a 2-D plane and estimates
// a local density radius for each of them.
//
// The built-in MDS provider computes the full pairwise composition
// distance matrix, embeds it with classical multidimensional scaling and
// derives each row's radius from its nearest neighbours in the original
// distance space.
package embedding

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/matdisco/density"
)

var (
	// ErrEmptyPool is returned when embedding zero formulas.
	ErrEmptyPool = errors.New("embedding: empty pool")

	// ErrNoConvergence is returned when the eigendecomposition fails.
	ErrNoConvergence = errors.New("embedding: eigendecomposition did not converge")
)

// Embedding holds one coordinate and one density radius per pool row.
type Embedding struct {
	Coords []density.Point
	Radii  []float64
}

// Len returns the number of embedded rows.
func (e *Embedding) Len() int { return len(e.Coords) }

// Subset returns coordinates and radii for the given rows, in order.
func (e *Embedding) Subset(indices []int) ([]density.Point, []float64, error) {
	coords := make([]density.Point, len(indices))
	radii := make([]float64, len(indices))
	for i, idx := range indices {
		if idx < 0 || idx >= len(e.Coords) {
			return nil, nil, fmt.Errorf("embedding: row %d out of range (len %d)", idx, len(e.Coords))
		}
		coords[i] = e.Coords[idx]
		radii[i] = e.Radii[idx]
	}
	return coords, radii, nil
}

// Provider embeds a pool of formulas. The returned embedding has one
// entry per formula, in input order.
type Provider interface {
	Embed(ctx context.Context, formulas []string) (*Embedding, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, formulas []string) (*Embedding, error)

// Embed implements Provider.
func (f ProviderFunc) Embed(ctx context.Context, formulas []string) (*Embedding, error) {
	return f(ctx, formulas)
}
