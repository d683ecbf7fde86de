// Package registry holds the stat catalog: one immutable descriptor per
// (category, stat), loaded from a declarative TOML table.
package registry

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/gh674055/sports-compare-bots/internal/formula"
	"github.com/gh674055/sports-compare-bots/internal/round"
)

// SharedCategory holds stats common to every category, such as games played.
const SharedCategory = "Shared"

//go:embed data/nfl.toml
var defaultTable []byte

// Registry is the loaded stat catalog. It is safe for concurrent reads and is
// never modified after loading.
type Registry struct {
	categories []*Category
	index      map[string]*Category
	custom     *formula.Table
}

type fileTable struct {
	Categories []fileCategory `toml:"category"`
}

type fileCategory struct {
	Name     string     `toml:"name"`
	Operands string     `toml:"operands"`
	Aliases  []string   `toml:"aliases"`
	Stats    []fileStat `toml:"stats"`
}

type fileStat struct {
	Name          string         `toml:"name"`
	Higher        *bool          `toml:"higher"`
	Round         any            `toml:"round"`
	Display       *bool          `toml:"display"`
	SkipZero      bool           `toml:"skip-zero"`
	RatioOf       string         `toml:"ratio-of"`
	FirstDown     bool           `toml:"first-down"`
	SeasonSourced bool           `toml:"season-sourced"`
	Valid         map[string]any `toml:"valid"`
	Formula       string         `toml:"formula"`
	Special       string         `toml:"special"`
	Args          []string       `toml:"args"`
	Since         int            `toml:"since"`
	Max           bool           `toml:"max"`
}

// Load parses the embedded stat table.
func Load() (*Registry, error) {
	return Parse(defaultTable)
}

// LoadFile parses a stat table from path.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read stat table: %w", err)
	}
	return Parse(data)
}

// Parse builds a registry from TOML. Every formula is compiled and every
// reference resolved here; defects are reported as *ConfigError.
func Parse(data []byte) (*Registry, error) {
	var ft fileTable
	if _, err := toml.Decode(string(data), &ft); err != nil {
		return nil, fmt.Errorf("failed to decode stat table: %w", err)
	}

	r := &Registry{index: map[string]*Category{}}
	raws := map[*Descriptor]fileStat{}
	for _, fc := range ft.Categories {
		cat, err := newCategory(fc, raws)
		if err != nil {
			return nil, err
		}
		if _, dup := r.index[cat.Name]; dup {
			return nil, configErrorf(cat.Name, "", "duplicate category")
		}
		r.categories = append(r.categories, cat)
		r.index[cat.Name] = cat
	}
	for _, cat := range r.categories {
		if cat.Operands != "" {
			if _, ok := r.index[cat.Operands]; !ok {
				return nil, configErrorf(cat.Name, "", "unknown operand category %q", cat.Operands)
			}
		}
		cat.syms = r.formulaSymbols(cat)
	}
	for _, cat := range r.categories {
		for _, d := range cat.stats {
			if err := r.bind(cat, d, raws[d]); err != nil {
				return nil, err
			}
		}
	}
	if err := r.resolveDeps(); err != nil {
		return nil, err
	}
	r.custom = r.customSymbols()
	return r, nil
}

// Categories returns every category in table order.
func (r *Registry) Categories() []*Category {
	return r.categories
}

// Category returns the named category.
func (r *Registry) Category(name string) (*Category, bool) {
	c, ok := r.index[name]
	return c, ok
}

// Lookup returns the descriptor for (category, stat).
func (r *Registry) Lookup(category, stat string) (*Descriptor, bool) {
	c, ok := r.index[category]
	if !ok {
		return nil, false
	}
	return c.Lookup(stat)
}

// CustomSymbols returns the case-insensitive identifier table used for user
// formulas. Unqualified names resolve to the stat name; qualified names
// ("category~stat", or an alias in place of the category) resolve to
// "Category~Stat".
func (r *Registry) CustomSymbols() formula.Symbols {
	return r.custom
}

func newCategory(fc fileCategory, raws map[*Descriptor]fileStat) (*Category, error) {
	if fc.Name == "" {
		return nil, &ConfigError{Reason: "category without a name"}
	}
	cat := &Category{
		Name:     fc.Name,
		Operands: fc.Operands,
		Aliases:  fc.Aliases,
		index:    map[string]*Descriptor{},
	}
	for _, fs := range fc.Stats {
		if fs.Name == "" {
			return nil, configErrorf(cat.Name, "", "stat without a name")
		}
		if _, dup := cat.index[fs.Name]; dup {
			return nil, configErrorf(cat.Name, fs.Name, "duplicate stat")
		}
		d, err := newDescriptor(cat, fs)
		if err != nil {
			return nil, err
		}
		cat.stats = append(cat.stats, d)
		cat.index[d.Name] = d
		raws[d] = fs
	}
	return cat, nil
}

func newDescriptor(cat *Category, fs fileStat) (*Descriptor, error) {
	d := &Descriptor{
		Category:       cat.Name,
		Name:           fs.Name,
		Source:         cat.Source(),
		HigherIsBetter: fs.Higher == nil || *fs.Higher,
		Display:        fs.Display == nil || *fs.Display,
		SkipZero:       fs.SkipZero,
		SeasonSourced:  fs.SeasonSourced,
		FirstDown:      fs.FirstDown,
	}
	spec, err := parseRound(fs.Round)
	if err != nil {
		return nil, configErrorf(cat.Name, fs.Name, "%v", err)
	}
	d.Round = spec
	window, err := parseWindow(fs.Valid)
	if err != nil {
		return nil, configErrorf(cat.Name, fs.Name, "%v", err)
	}
	d.Window = window

	kinds := 0
	if fs.Formula != "" {
		kinds++
	}
	if fs.Special != "" {
		kinds++
	}
	if fs.Max {
		kinds++
	}
	if kinds > 1 {
		return nil, configErrorf(cat.Name, fs.Name, "formula, special and max are exclusive")
	}
	// Kinds are tagged before any reference is bound so binding can inspect
	// stats defined later in the table.
	switch {
	case fs.Formula != "":
		d.Formula.Kind = FormulaArithmetic
	case fs.Special != "":
		kind, ok := ParseSpecialKind(fs.Special)
		if !ok {
			return nil, configErrorf(cat.Name, fs.Name, "unknown special kind %q", fs.Special)
		}
		d.Formula = Formula{Kind: FormulaSpecial, Special: kind}
	case fs.Max:
		d.Formula.Kind = FormulaMax
	}
	return d, nil
}

func parseRound(v any) (round.Spec, error) {
	switch x := v.(type) {
	case nil:
		return round.Integer, nil
	case int64:
		if x < 0 || x > 6 {
			return round.Spec{}, fmt.Errorf("round places %d out of range", x)
		}
		return round.Decimals(int(x)), nil
	case string:
		if x == "percent" {
			return round.PercentSpec, nil
		}
	}
	return round.Spec{}, fmt.Errorf("invalid round %v", v)
}

func parseWindow(raw map[string]any) (Window, error) {
	var w Window
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		c, err := parseCutoff(raw[k])
		if err != nil {
			return Window{}, fmt.Errorf("valid.%s: %w", k, err)
		}
		switch k {
		case "season":
			w.Season = c
		case "game":
			w.Game = c
		case "game-np":
			w.GameRegular = c
		case "inconsistent":
			w.Inconsistent = c
		case "inconsistent-game":
			w.InconsistentGame = c
		case "playoff-inconsistent":
			w.PlayoffInconsistent = c
		default:
			return Window{}, fmt.Errorf("unknown validity key %q", k)
		}
	}
	return w, nil
}

func parseCutoff(v any) (Cutoff, error) {
	switch x := v.(type) {
	case int64:
		return Since(int(x)), nil
	case string:
		if strings.EqualFold(x, "never") {
			return Never(), nil
		}
	}
	return Cutoff{}, fmt.Errorf("expected a year or \"never\", got %v", v)
}

// formulaSymbols returns the identifiers a registry formula in cat may use:
// its own stats, its operand category and Shared.
func (r *Registry) formulaSymbols(cat *Category) *formula.Table {
	t := formula.NewTable(false)
	add := func(c *Category) {
		for _, d := range c.stats {
			t.Add(d.Name, d.Name)
		}
	}
	add(cat)
	if cat.Operands != "" {
		add(r.index[cat.Operands])
	}
	if shared, ok := r.index[SharedCategory]; ok {
		add(shared)
	}
	return t
}

// resolve binds a name used by self's formula. Qualified names address a
// category directly. Otherwise the own category is tried (except self), then
// the operand category, then Shared.
func (r *Registry) resolve(cat *Category, self *Descriptor, name string) (*Descriptor, bool) {
	if catName, stat, ok := strings.Cut(name, "~"); ok {
		return r.Lookup(catName, stat)
	}
	if d, ok := cat.Lookup(name); ok && d != self {
		return d, true
	}
	if cat.Operands != "" {
		if d, ok := r.Lookup(cat.Operands, name); ok && d != self {
			return d, true
		}
	}
	if d, ok := r.Lookup(SharedCategory, name); ok && d != self {
		return d, true
	}
	return nil, false
}

func (r *Registry) bind(cat *Category, d *Descriptor, fs fileStat) error {
	switch d.Formula.Kind {
	case FormulaArithmetic:
		if err := r.bindArithmetic(cat, d, fs.Formula); err != nil {
			return err
		}
	case FormulaSpecial:
		if err := r.bindSpecial(cat, d, fs); err != nil {
			return err
		}
	}
	if fs.RatioOf != "" {
		ref, ok := r.resolve(cat, d, fs.RatioOf)
		if !ok {
			return configErrorf(cat.Name, d.Name, "unknown ratio-of stat %q", fs.RatioOf)
		}
		d.UndefinedRatioOf = ref
	}
	return nil
}

func (r *Registry) bindArithmetic(cat *Category, d *Descriptor, src string) error {
	expr, err := formula.Parse(src, cat.syms)
	if err != nil {
		return configErrorf(cat.Name, d.Name, "formula %q: %v", src, err)
	}
	refs := map[string]*Descriptor{}
	for _, id := range expr.Idents() {
		ref, ok := r.resolve(cat, d, id)
		if !ok {
			return configErrorf(cat.Name, d.Name, "formula %q references unknown stat %q", src, id)
		}
		if ref.Formula.Kind == FormulaSpecial && ref.Formula.Special == SpecialRecord {
			return configErrorf(cat.Name, d.Name, "formula %q references record stat %q", src, id)
		}
		refs[id] = ref
	}
	d.Formula = Formula{Kind: FormulaArithmetic, Expr: expr, Refs: refs}
	return nil
}

func (r *Registry) bindSpecial(cat *Category, d *Descriptor, fs fileStat) error {
	kind := d.Formula.Special
	f := Formula{Kind: FormulaSpecial, Special: kind, Since: fs.Since}
	args := fs.Args
	switch kind {
	case SpecialTally:
		if len(args) != 1 || (args[0] != "W" && args[0] != "L" && args[0] != "T") {
			return configErrorf(cat.Name, d.Name, "tally takes one outcome of W, L or T")
		}
		f.Option = args[0]
		args = nil
	case SpecialPeriodSpread:
		if len(args) != 2 {
			return configErrorf(cat.Name, d.Name, "period-spread takes a stat and a function")
		}
		switch args[1] {
		case SpreadMedian, SpreadHigh, SpreadLow, SpreadVariance:
		default:
			return configErrorf(cat.Name, d.Name, "unknown spread function %q", args[1])
		}
		f.Option = args[1]
		args = args[:1]
	case SpecialPasserRating:
		if len(args) != 5 {
			return configErrorf(cat.Name, d.Name, "passer-rating takes 5 args, got %d", len(args))
		}
	case SpecialRecord:
		if len(args) != 3 {
			return configErrorf(cat.Name, d.Name, "record takes 3 args, got %d", len(args))
		}
	case SpecialFumblePercent, SpecialFirstDownPercent, SpecialTouchdownPercent:
		if len(args) < 2 {
			return configErrorf(cat.Name, d.Name, "%s takes a numerator and at least one denominator", kind)
		}
	case SpecialWeightedAV:
		if len(args) != 1 {
			return configErrorf(cat.Name, d.Name, "weighted-av takes 1 arg, got %d", len(args))
		}
	case SpecialSum:
		if len(args) == 0 {
			return configErrorf(cat.Name, d.Name, "sum needs at least one arg")
		}
	case SpecialSumSince:
		if len(args) == 0 || fs.Since <= 0 {
			return configErrorf(cat.Name, d.Name, "sum-since needs args and a since year")
		}
	}
	for _, a := range args {
		ref, ok := r.resolve(cat, d, a)
		if !ok {
			return configErrorf(cat.Name, d.Name, "%s references unknown stat %q", kind, a)
		}
		if (kind == SpecialSumSince || kind == SpecialWeightedAV) && !ref.Raw() {
			return configErrorf(cat.Name, d.Name, "%s needs raw stats, %q is derived", kind, a)
		}
		if ref.Formula.Kind == FormulaSpecial && ref.Formula.Special == SpecialRecord {
			return configErrorf(cat.Name, d.Name, "%s references record stat %q", kind, a)
		}
		f.Args = append(f.Args, ref)
	}
	d.Formula = f
	return nil
}
