package composition

// symbols lists element symbols by atomic number (index 0 is hydrogen).
var symbols = [...]string{
	"H", "He",
	"Li", "Be", "B", "C", "N", "O", "F", "Ne",
	"Na", "Mg", "Al", "Si", "P", "S", "Cl", "Ar",
	"K", "Ca", "Sc", "Ti", "V", "Cr", "Mn", "Fe", "Co", "Ni", "Cu", "Zn", "Ga", "Ge", "As", "Se", "Br", "Kr",
	"Rb", "Sr", "Y", "Zr", "Nb", "Mo", "Tc", "Ru", "Rh", "Pd", "Ag", "Cd", "In", "Sn", "Sb", "Te", "I", "Xe",
	"Cs", "Ba",
	"La", "Ce", "Pr", "Nd", "Pm", "Sm", "Eu", "Gd", "Tb", "Dy", "Ho", "Er", "Tm", "Yb", "Lu",
	"Hf", "Ta", "W", "Re", "Os", "Ir", "Pt", "Au", "Hg", "Tl", "Pb", "Bi", "Po", "At", "Rn",
	"Fr", "Ra",
	"Ac", "Th", "Pa", "U", "Np", "Pu", "Am", "Cm", "Bk", "Cf", "Es", "Fm", "Md", "No", "Lr",
	"Rf", "Db", "Sg", "Bh", "Hs", "Mt", "Ds", "Rg", "Cn", "Nh", "Fl", "Mc", "Lv", "Ts", "Og",
}

// atomicNumber maps a symbol to its atomic number.
var atomicNumber = func() map[string]int {
	m := make(map[string]int, len(symbols))
	for i, s := range symbols {
		m[s] = i + 1
	}
	return m
}()

// NumElements is the number of known elements.
const NumElements = len(symbols)

// AtomicNumber returns the atomic number of symbol and whether it is a
// known element.
func AtomicNumber(symbol string) (int, bool) {
	z, ok := atomicNumber[symbol]
	return z, ok
}

// Symbol returns the symbol for atomic number z, or "" if z is unknown.
func Symbol(z int) string {
	if z < 1 || z > len(symbols) {
		return ""
	}
	return symbols[z-1]
}

// Scale positions elements on a line for the earth mover's distance.
type Scale interface {
	Name() string
	Position(symbol string) (float64, bool)
}

// AtomicScale orders elements by atomic number.
type AtomicScale struct{}

// Name implements Scale.
func (AtomicScale) Name() string { return "atomic" }

// Position implements Scale.
func (AtomicScale) Position(symbol string) (float64, bool) {
	z, ok := atomicNumber[symbol]
	return float64(z), ok
}

// GroupScale orders elements by periodic-table column first and period
// second, so chemically similar elements (same group) sit close together.
// Lanthanides and actinides are placed in group 3.
type GroupScale struct{}

// Name implements Scale.
func (GroupScale) Name() string { return "group" }

// Position implements Scale.
func (GroupScale) Position(symbol string) (float64, bool) {
	z, ok := atomicNumber[symbol]
	if !ok {
		return 0, false
	}
	g, p := groupPeriod(z)
	return float64(g*10 + p), true
}

// groupPeriod returns the IUPAC group (1-18) and period (1-7) of z.
func groupPeriod(z int) (int, int) {
	switch {
	case z == 1:
		return 1, 1
	case z == 2:
		return 18, 1
	case z <= 10:
		return shortGroup(z - 2), 2
	case z <= 18:
		return shortGroup(z - 10), 3
	case z <= 36:
		return z - 18, 4
	case z <= 54:
		return z - 36, 5
	case z <= 86:
		return longGroup(z - 54), 6
	default:
		return longGroup(z - 86), 7
	}
}

// shortGroup maps the 1-8 offset within periods 2 and 3 to groups.
func shortGroup(off int) int {
	if off <= 2 {
		return off
	}
	return off + 10
}

// longGroup maps the 1-32 offset within periods 6 and 7 to groups,
// folding the f-block into group 3.
func longGroup(off int) int {
	switch {
	case off <= 2:
		return off
	case off <= 17:
		return 3
	default:
		return off - 14
	}
}
