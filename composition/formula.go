// Package composition parses chemical formulas and measures distances
// between compositions.
//
// The distance between two compositions is the one-dimensional earth
// mover's distance between their normalized element fractions placed on
// an element Scale.
package composition

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// ErrParseFormula is returned for malformed formulas.
var ErrParseFormula = errors.New("composition: cannot parse formula")

// Composition maps element symbols to their amounts.
type Composition map[string]float64

// Parse parses a formula such as "Fe2O3", "Ca(OH)2", "Li0.5CoO2" or
// "CuSO4·5H2O" into element amounts. Amounts of repeated elements are
// summed.
func Parse(formula string) (Composition, error) {
	f := strings.TrimSpace(formula)
	if f == "" {
		return nil, fmt.Errorf("%w: empty formula", ErrParseFormula)
	}

	comp := Composition{}
	// Hydrate and adduct separators.
	for _, part := range strings.FieldsFunc(f, func(r rune) bool { return r == '·' || r == '*' || r == '•' }) {
		mult, rest := leadingNumber(part)
		p := &parser{src: rest, formula: formula}
		sub, err := p.group(0)
		if err != nil {
			return nil, err
		}
		if p.pos != len(p.src) {
			return nil, fmt.Errorf("%w: %q: unexpected %q at %d", ErrParseFormula, formula, p.src[p.pos], p.pos)
		}
		for el, n := range sub {
			comp[el] += n * mult
		}
	}
	if len(comp) == 0 {
		return nil, fmt.Errorf("%w: %q: no elements", ErrParseFormula, formula)
	}
	return comp, nil
}

// leadingNumber splits an optional leading multiplier (as in "5H2O").
func leadingNumber(s string) (float64, string) {
	i := 0
	for i < len(s) && (s[i] >= '0' && s[i] <= '9' || s[i] == '.') {
		i++
	}
	if i == 0 {
		return 1, s
	}
	v, err := strconv.ParseFloat(s[:i], 64)
	if err != nil || v <= 0 {
		return 1, s
	}
	return v, s[i:]
}

type parser struct {
	src     string
	pos     int
	formula string
}

func (p *parser) group(depth int) (Composition, error) {
	comp := Composition{}
	for p.pos < len(p.src) {
		c := rune(p.src[p.pos])
		switch {
		case c == '(' || c == '[':
			p.pos++
			sub, err := p.group(depth + 1)
			if err != nil {
				return nil, err
			}
			if p.pos >= len(p.src) || (p.src[p.pos] != ')' && p.src[p.pos] != ']') {
				return nil, fmt.Errorf("%w: %q: unbalanced brackets", ErrParseFormula, p.formula)
			}
			p.pos++
			n, err := p.amount()
			if err != nil {
				return nil, err
			}
			for el, v := range sub {
				comp[el] += v * n
			}
		case c == ')' || c == ']':
			if depth == 0 {
				return nil, fmt.Errorf("%w: %q: unbalanced brackets", ErrParseFormula, p.formula)
			}
			return comp, nil
		case unicode.IsUpper(c):
			start := p.pos
			p.pos++
			for p.pos < len(p.src) && unicode.IsLower(rune(p.src[p.pos])) {
				p.pos++
			}
			sym := p.src[start:p.pos]
			if _, ok := atomicNumber[sym]; !ok {
				return nil, fmt.Errorf("%w: %q: unknown element %q", ErrParseFormula, p.formula, sym)
			}
			n, err := p.amount()
			if err != nil {
				return nil, err
			}
			comp[sym] += n
		case unicode.IsSpace(c):
			p.pos++
		default:
			return nil, fmt.Errorf("%w: %q: unexpected %q", ErrParseFormula, p.formula, c)
		}
	}
	if depth > 0 {
		return nil, fmt.Errorf("%w: %q: unbalanced brackets", ErrParseFormula, p.formula)
	}
	return comp, nil
}

// amount reads an optional decimal count; a missing count is 1.
func (p *parser) amount() (float64, error) {
	start := p.pos
	for p.pos < len(p.src) && (p.src[p.pos] >= '0' && p.src[p.pos] <= '9' || p.src[p.pos] == '.') {
		p.pos++
	}
	if start == p.pos {
		return 1, nil
	}
	v, err := strconv.ParseFloat(p.src[start:p.pos], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: bad amount %q", ErrParseFormula, p.formula, p.src[start:p.pos])
	}
	return v, nil
}

// Normalize returns element fractions summing to 1. Non-positive amounts
// are dropped.
func (c Composition) Normalize() Composition {
	var total float64
	for _, v := range c {
		if v > 0 {
			total += v
		}
	}
	out := make(Composition, len(c))
	if total == 0 {
		return out
	}
	for el, v := range c {
		if v > 0 {
			out[el] = v / total
		}
	}
	return out
}

// Elements returns the element symbols ordered by atomic number.
func (c Composition) Elements() []string {
	out := make([]string, 0, len(c))
	for el := range c {
		out = append(out, el)
	}
	sort.Slice(out, func(i, j int) bool {
		return atomicNumber[out[i]] < atomicNumber[out[j]]
	})
	return out
}

// String renders the composition in atomic-number order with unit
// amounts omitted, so Fe2O3 renders as "O3Fe2".
func (c Composition) String() string {
	var b strings.Builder
	for _, el := range c.Elements() {
		b.WriteString(el)
		if v := c[el]; v != 1 {
			b.WriteString(strconv.FormatFloat(v, 'g', 6, 64))
		}
	}
	return b.String()
}

// Fractions returns a dense vector of element fractions indexed by
// atomic number minus one.
func (c Composition) Fractions() []float64 {
	out := make([]float64, NumElements)
	for el, v := range c.Normalize() {
		out[atomicNumber[el]-1] = v
	}
	return out
}
