// Package engine evaluates stats from the registry against aggregated subjects.
package engine

import (
	"errors"
	"fmt"
	"math"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/montanaflynn/stats"
	"github.com/sirupsen/logrus"

	"github.com/gh674055/sports-compare-bots/internal/formula"
	"github.com/gh674055/sports-compare-bots/internal/model"
	"github.com/gh674055/sports-compare-bots/internal/registry"
	"github.com/gh674055/sports-compare-bots/internal/validity"
)

const defaultFormulaCacheSize = 256

// Options configures an Evaluator.
type Options struct {
	// FormulaCacheSize bounds the number of compiled custom formulas kept.
	FormulaCacheSize int
	Logger           *logrus.Entry
}

// Evaluator computes stat values. It holds no per-query state and is safe
// for concurrent use.
type Evaluator struct {
	reg      *registry.Registry
	specials map[registry.SpecialKind]specialFunc
	custom   *lru.Cache[string, *formula.Expr]
	log      *logrus.Entry
}

// New returns an evaluator over reg. Every special stat in reg must have a
// calculator, otherwise a *registry.ConfigError is returned.
func New(reg *registry.Registry, opts Options) (*Evaluator, error) {
	if reg == nil {
		return nil, fmt.Errorf("registry is nil")
	}
	size := opts.FormulaCacheSize
	if size <= 0 {
		size = defaultFormulaCacheSize
	}
	cache, err := lru.New[string, *formula.Expr](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create formula cache: %w", err)
	}
	log := opts.Logger
	if log == nil {
		log = logrus.WithField("component", "engine")
	}
	e := &Evaluator{
		reg:      reg,
		specials: specialHandlers(),
		custom:   cache,
		log:      log,
	}
	for _, cat := range reg.Categories() {
		for _, d := range cat.Stats() {
			if d.Formula.Kind != registry.FormulaSpecial {
				continue
			}
			if _, ok := e.specials[d.Formula.Special]; !ok {
				return nil, &registry.ConfigError{
					Category: d.Category,
					Stat:     d.Name,
					Reason:   fmt.Sprintf("no calculator for special kind %s", d.Formula.Special),
				}
			}
		}
	}
	return e, nil
}

// Registry returns the catalog the evaluator was built with.
func (e *Evaluator) Registry() *registry.Registry {
	return e.reg
}

// Evaluate computes (category, stat) for subj.
func (e *Evaluator) Evaluate(category, stat string, subj model.Subject) (Value, error) {
	d, ok := e.reg.Lookup(category, stat)
	if !ok {
		return Value{}, &registry.ConfigError{Category: category, Stat: stat, Reason: "unknown stat"}
	}
	return e.eval(&subj, d, registry.Cutoff{})
}

// EvaluatePeriods computes (category, stat) separately for each period of
// subj, in period order.
func (e *Evaluator) EvaluatePeriods(category, stat string, subj model.Subject) ([]Value, error) {
	d, ok := e.reg.Lookup(category, stat)
	if !ok {
		return nil, &registry.ConfigError{Category: category, Stat: stat, Reason: "unknown stat"}
	}
	out := make([]Value, len(subj.Periods))
	for i, p := range subj.Periods {
		single := singlePeriod(&subj, p)
		v, err := e.eval(&single, d, registry.Cutoff{})
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// singlePeriod returns a subject covering only p, queried as starting in p's year.
func singlePeriod(s *model.Subject, p model.Period) model.Subject {
	q := s.Query
	q.StartYears = []int{p.Year}
	return model.Subject{Name: s.Name, Query: q, Totals: p, Periods: []model.Period{p}}
}

// eval computes d. floor is the cutoff imposed by an enclosing formula.
func (e *Evaluator) eval(s *model.Subject, d *registry.Descriptor, floor registry.Cutoff) (Value, error) {
	own := validity.Resolve(d, s.Query)
	if own.IsNever() {
		e.log.WithFields(logrus.Fields{"stat": d.Key(), "subject": s.Name}).Debug("Stat unavailable for query")
		return Unavailable(), nil
	}
	switch d.Formula.Kind {
	case registry.FormulaMax:
		return e.max(s, d, validity.Latest(floor, own)), nil
	case registry.FormulaSpecial:
		return e.specials[d.Formula.Special](e, s, d, floor)
	case registry.FormulaArithmetic:
		return e.arithmetic(s, d, floor)
	}
	return Number(e.raw(s, d, validity.Latest(floor, own))), nil
}

// raw reads d from the subject totals without contributions before cut.
func (e *Evaluator) raw(s *model.Subject, d *registry.Descriptor, cut registry.Cutoff) float64 {
	v := s.Totals.Value(d.Source, d.Name)
	if len(s.Periods) == 0 {
		return v
	}
	return validity.Adjust(v, cut, d.Source, d.Name, s.Periods)
}

// number evaluates d as an operand. ok is false when d is unavailable.
func (e *Evaluator) number(s *model.Subject, d *registry.Descriptor, cut registry.Cutoff) (float64, bool, error) {
	v, err := e.eval(s, d, cut)
	if err != nil {
		return 0, false, err
	}
	switch v.Kind {
	case KindNumber, KindInfinite:
		f, _ := v.Float()
		return f, true, nil
	case KindUnavailable:
		return 0, false, nil
	}
	return 0, false, fmt.Errorf("%s: %w", d.Key(), errNotNumeric)
}

// operands evaluates every descriptor in ds. ok is false when any is unavailable.
func (e *Evaluator) operands(s *model.Subject, ds []*registry.Descriptor, cut registry.Cutoff) ([]float64, bool, error) {
	out := make([]float64, len(ds))
	for i, d := range ds {
		v, ok, err := e.number(s, d, cut)
		if err != nil || !ok {
			return nil, ok, err
		}
		out[i] = v
	}
	return out, true, nil
}

func (e *Evaluator) binder(s *model.Subject, refs map[string]*registry.Descriptor, cut registry.Cutoff) formula.Binder {
	return func(ident string) (float64, error) {
		d, ok := refs[ident]
		if !ok {
			return 0, fmt.Errorf("unbound identifier %q", ident)
		}
		v, ok, err := e.number(s, d, cut)
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, errUnavailable
		}
		return v, nil
	}
}

func (e *Evaluator) arithmetic(s *model.Subject, d *registry.Descriptor, floor registry.Cutoff) (Value, error) {
	cut := validity.Fold(d, s.Query, floor)
	if cut.IsNever() {
		return Unavailable(), nil
	}
	v, err := d.Formula.Expr.Eval(e.binder(s, d.Formula.Refs, cut))
	switch {
	case err == nil:
		if out, ok := finite(v); ok {
			return out, nil
		}
		e.log.WithFields(logrus.Fields{"stat": d.Key(), "subject": s.Name}).Debug("Undefined result")
		return Number(0), nil
	case errors.Is(err, formula.ErrDivisionByZero):
		return e.undefinedRatio(s, d, cut)
	case errors.Is(err, errUnavailable):
		return Unavailable(), nil
	case errors.Is(err, errNotNumeric):
		return Value{}, &registry.ConfigError{Category: d.Category, Stat: d.Name, Reason: err.Error()}
	}
	return Value{}, fmt.Errorf("failed to evaluate %s: %w", d.Key(), err)
}

// undefinedRatio resolves a division by zero. Without a ratio-of stat the
// result is 0; with one it is 0 when that stat is zero and infinite otherwise.
func (e *Evaluator) undefinedRatio(s *model.Subject, d *registry.Descriptor, cut registry.Cutoff) (Value, error) {
	if d.UndefinedRatioOf == nil {
		return Number(0), nil
	}
	n, ok, err := e.number(s, d.UndefinedRatioOf, cut)
	if err != nil {
		return Value{}, err
	}
	if !ok || n == 0 {
		return Number(0), nil
	}
	e.log.WithFields(logrus.Fields{"stat": d.Key(), "subject": s.Name}).Debug("Infinite ratio")
	return Infinite(), nil
}

// finite maps an expression result to a value. +Inf is the infinite ratio;
// NaN and -Inf have no defined outcome and report false.
func finite(v float64) (Value, bool) {
	switch {
	case math.IsInf(v, 1):
		return Infinite(), true
	case math.IsNaN(v) || math.IsInf(v, -1):
		return Value{}, false
	}
	return Number(v), true
}

// max returns the largest per-period value of d at or after cut. The result
// never drops below 0, so no qualifying period or only negative values give 0.
func (e *Evaluator) max(s *model.Subject, d *registry.Descriptor, cut registry.Cutoff) Value {
	var values []float64
	for _, p := range s.Periods {
		if cut.Excludes(p.Year) {
			continue
		}
		if v, ok := p.Lookup(d.Source, d.Name); ok {
			values = append(values, v)
		}
	}
	m, err := stats.Max(values)
	if err != nil || math.IsNaN(m) || m < 0 {
		return Number(0)
	}
	return Number(m)
}
