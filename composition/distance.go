package composition

import (
	"fmt"
	"math"
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Metric measures the distance between two formulas.
// Implementations must be safe for concurrent use.
type Metric interface {
	Distance(a, b string) (float64, error)
}

// EMD computes the earth mover's distance between normalized element
// fractions on a one-dimensional element scale.
func EMD(a, b Composition, s Scale) (float64, error) {
	type mass struct {
		pos float64
		w   float64
	}
	var masses []mass
	for el, w := range a.Normalize() {
		pos, ok := s.Position(el)
		if !ok {
			return 0, fmt.Errorf("composition: element %q not on %s scale", el, s.Name())
		}
		masses = append(masses, mass{pos, w})
	}
	for el, w := range b.Normalize() {
		pos, ok := s.Position(el)
		if !ok {
			return 0, fmt.Errorf("composition: element %q not on %s scale", el, s.Name())
		}
		masses = append(masses, mass{pos, -w})
	}
	if len(masses) == 0 {
		return 0, nil
	}
	sort.Slice(masses, func(i, j int) bool { return masses[i].pos < masses[j].pos })

	// Integrate |CDF_a - CDF_b| over the scale.
	var dist, cum float64
	for i := 0; i < len(masses)-1; i++ {
		cum += masses[i].w
		dist += math.Abs(cum) * (masses[i+1].pos - masses[i].pos)
	}
	return dist, nil
}

const (
	defaultParseCacheSize = 4096
	defaultPairCacheSize  = 1 << 16
)

// EMDMetric is a Metric backed by EMD with caches for parsed formulas and
// computed pair distances.
type EMDMetric struct {
	scale  Scale
	parsed *lru.Cache[string, Composition]
	pairs  *lru.Cache[[2]string, float64]
}

// MetricOption configures an EMDMetric.
type MetricOption func(*metricOptions)

type metricOptions struct {
	scale     Scale
	parseSize int
	pairSize  int
}

// WithScale sets the element scale. The default is AtomicScale.
func WithScale(s Scale) MetricOption {
	return func(o *metricOptions) {
		if s != nil {
			o.scale = s
		}
	}
}

// WithCacheSizes sets the formula and pair cache capacities.
func WithCacheSizes(parse, pair int) MetricOption {
	return func(o *metricOptions) {
		o.parseSize = parse
		o.pairSize = pair
	}
}

// NewEMDMetric creates an EMDMetric.
func NewEMDMetric(optFns ...MetricOption) (*EMDMetric, error) {
	o := metricOptions{
		scale:     AtomicScale{},
		parseSize: defaultParseCacheSize,
		pairSize:  defaultPairCacheSize,
	}
	for _, fn := range optFns {
		fn(&o)
	}

	parsed, err := lru.New[string, Composition](o.parseSize)
	if err != nil {
		return nil, fmt.Errorf("composition: parse cache: %w", err)
	}
	pairs, err := lru.New[[2]string, float64](o.pairSize)
	if err != nil {
		return nil, fmt.Errorf("composition: pair cache: %w", err)
	}
	return &EMDMetric{scale: o.scale, parsed: parsed, pairs: pairs}, nil
}

// Scale returns the element scale in use.
func (m *EMDMetric) Scale() Scale { return m.scale }

// Composition parses formula, consulting the cache first.
func (m *EMDMetric) Composition(formula string) (Composition, error) {
	if c, ok := m.parsed.Get(formula); ok {
		return c, nil
	}
	c, err := Parse(formula)
	if err != nil {
		return nil, err
	}
	m.parsed.Add(formula, c)
	return c, nil
}

// Distance implements Metric.
func (m *EMDMetric) Distance(a, b string) (float64, error) {
	if a == b {
		return 0, nil
	}
	key := [2]string{a, b}
	if b < a {
		key = [2]string{b, a}
	}
	if d, ok := m.pairs.Get(key); ok {
		return d, nil
	}
	ca, err := m.Composition(a)
	if err != nil {
		return 0, err
	}
	cb, err := m.Composition(b)
	if err != nil {
		return 0, err
	}
	d, err := EMD(ca, cb, m.scale)
	if err != nil {
		return 0, err
	}
	m.pairs.Add(key, d)
	return d, nil
}
