package registry

import (
	"github.com/gh674055/sports-compare-bots/internal/formula"
	"github.com/gh674055/sports-compare-bots/internal/round"
)

// FormulaKind tags how a stat's value is produced.
type FormulaKind int

const (
	// FormulaNone marks a raw counting stat read from period data.
	FormulaNone FormulaKind = iota
	// FormulaArithmetic evaluates an expression over other stats.
	FormulaArithmetic
	// FormulaSpecial dispatches to a special-case calculator.
	FormulaSpecial
	// FormulaMax takes the largest per-period value.
	FormulaMax
)

func (k FormulaKind) String() string {
	switch k {
	case FormulaArithmetic:
		return "arithmetic"
	case FormulaSpecial:
		return "special"
	case FormulaMax:
		return "max"
	}
	return "raw"
}

// SpecialKind selects a special-case calculator.
type SpecialKind int

// Special-case calculators.
const (
	SpecialUnknown SpecialKind = iota
	SpecialPasserRating
	SpecialFumblePercent
	SpecialFirstDownPercent
	SpecialTouchdownPercent
	SpecialWeightedAV
	SpecialTally
	SpecialRecord
	SpecialSum
	SpecialSumSince
	SpecialPeriodSpread
)

var specialNames = []struct {
	name string
	kind SpecialKind
}{
	{"passer-rating", SpecialPasserRating},
	{"fumble-percent", SpecialFumblePercent},
	{"first-down-percent", SpecialFirstDownPercent},
	{"touchdown-percent", SpecialTouchdownPercent},
	{"weighted-av", SpecialWeightedAV},
	{"tally", SpecialTally},
	{"record", SpecialRecord},
	{"sum", SpecialSum},
	{"sum-since", SpecialSumSince},
	{"period-spread", SpecialPeriodSpread},
}

// ParseSpecialKind maps a table name like "passer-rating" to its kind.
func ParseSpecialKind(name string) (SpecialKind, bool) {
	for _, s := range specialNames {
		if s.name == name {
			return s.kind, true
		}
	}
	return SpecialUnknown, false
}

func (k SpecialKind) String() string {
	for _, s := range specialNames {
		if s.kind == k {
			return s.name
		}
	}
	return "unknown"
}

// Spread functions accepted by period-spread.
const (
	SpreadMedian   = "median"
	SpreadHigh     = "high"
	SpreadLow      = "low"
	SpreadVariance = "variance"
)

// Formula is the resolved definition of a derived stat.
type Formula struct {
	Kind FormulaKind
	// Expr and Refs are set for arithmetic formulas. Refs binds every
	// identifier in Expr to a descriptor.
	Expr *formula.Expr
	Refs map[string]*Descriptor
	// Special, Args, Option and Since are set for special formulas.
	Special SpecialKind
	Args    []*Descriptor
	Option  string
	Since   int
}

// Descriptor is the immutable definition of one stat.
type Descriptor struct {
	Category string
	Name     string
	// Source is the category raw values are read from.
	Source         string
	HigherIsBetter bool
	Round          round.Spec
	Display        bool
	SkipZero       bool
	// UndefinedRatioOf decides division by zero: zero yields 0, otherwise
	// the ratio is infinite.
	UndefinedRatioOf *Descriptor
	// SeasonSourced stats are always resolved against season thresholds.
	SeasonSourced bool
	FirstDown     bool
	Window        Window
	Formula       Formula

	deps []*Descriptor
}

// Key returns "category~stat".
func (d *Descriptor) Key() string {
	return d.Category + "~" + d.Name
}

// Raw reports whether the stat is read directly from period data.
func (d *Descriptor) Raw() bool {
	return d.Formula.Kind == FormulaNone
}

// Deps returns every stat the formula depends on, transitively, excluding d.
func (d *Descriptor) Deps() []*Descriptor {
	return d.deps
}

func (d *Descriptor) directRefs() []*Descriptor {
	var out []*Descriptor
	if d.Formula.Expr != nil {
		for _, id := range d.Formula.Expr.Idents() {
			out = append(out, d.Formula.Refs[id])
		}
	}
	out = append(out, d.Formula.Args...)
	if d.UndefinedRatioOf != nil {
		out = append(out, d.UndefinedRatioOf)
	}
	return out
}

// Category is an ordered group of stats.
type Category struct {
	Name string
	// Operands names the category raw values are read from when it differs
	// from Name.
	Operands string
	// Aliases are extra names accepted in qualified custom formula references.
	Aliases []string

	stats []*Descriptor
	index map[string]*Descriptor
	syms  *formula.Table
}

// Source returns the category raw values are read from.
func (c *Category) Source() string {
	if c.Operands != "" {
		return c.Operands
	}
	return c.Name
}

// Stats returns the category's stats in display order.
func (c *Category) Stats() []*Descriptor {
	return c.stats
}

// Lookup returns the named stat.
func (c *Category) Lookup(name string) (*Descriptor, bool) {
	d, ok := c.index[name]
	return d, ok
}
