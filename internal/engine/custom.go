package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/gh674055/sports-compare-bots/internal/formula"
	"github.com/gh674055/sports-compare-bots/internal/model"
	"github.com/gh674055/sports-compare-bots/internal/registry"
	"github.com/gh674055/sports-compare-bots/internal/validity"
)

// EvaluateCustom evaluates a user formula against subj. Names may be
// qualified as "category~stat"; unqualified names resolve to the first
// category the subject has stats for, then Shared. Failures are returned as
// *UserFormulaError.
func (e *Evaluator) EvaluateCustom(src string, subj model.Subject) (Value, error) {
	expr, err := e.compile(src)
	if err != nil {
		return Value{}, err
	}
	refs := make(map[string]*registry.Descriptor, len(expr.Idents()))
	cut := registry.Cutoff{}
	for _, id := range expr.Idents() {
		d, err := e.resolveCustom(src, id, &subj)
		if err != nil {
			return Value{}, err
		}
		refs[id] = d
		cut = validity.Latest(cut, validity.Fold(d, subj.Query, registry.Cutoff{}))
	}
	if cut.IsNever() {
		return Unavailable(), nil
	}
	v, err := expr.Eval(e.binder(&subj, refs, cut))
	switch {
	case err == nil:
		if out, ok := finite(v); ok {
			return out, nil
		}
		return Value{}, &UserFormulaError{
			Formula: src,
			Message: "Could not evaluate formula: result is undefined",
		}
	case errors.Is(err, formula.ErrDivisionByZero):
		return Number(0), nil
	case errors.Is(err, errUnavailable):
		return Unavailable(), nil
	case errors.Is(err, errNotNumeric):
		return Value{}, &UserFormulaError{
			Formula: src,
			Message: fmt.Sprintf("Invalid formula: %v", err),
			Err:     err,
		}
	}
	var cfg *registry.ConfigError
	if errors.As(err, &cfg) {
		return Value{}, err
	}
	return Value{}, &UserFormulaError{
		Formula: src,
		Message: fmt.Sprintf("Could not evaluate formula: %v", err),
		Err:     err,
	}
}

// compile parses src, reusing earlier compilations of the same text.
func (e *Evaluator) compile(src string) (*formula.Expr, error) {
	if expr, ok := e.custom.Get(src); ok {
		return expr, nil
	}
	expr, err := formula.Parse(src, e.reg.CustomSymbols())
	if err != nil {
		e.log.WithFields(logrus.Fields{"formula": src, "error": err}).Debug("Rejected custom formula")
		return nil, &UserFormulaError{
			Formula: src,
			Message: fmt.Sprintf("Invalid formula: %v", err),
			Err:     err,
		}
	}
	e.custom.Add(src, expr)
	return expr, nil
}

func (e *Evaluator) resolveCustom(src, id string, s *model.Subject) (*registry.Descriptor, error) {
	if catName, stat, ok := strings.Cut(id, "~"); ok {
		if d, ok := e.reg.Lookup(catName, stat); ok {
			return d, nil
		}
	} else {
		for _, cat := range e.reg.Categories() {
			if cat.Name == registry.SharedCategory || !s.Totals.Has(cat.Source()) {
				continue
			}
			if d, ok := cat.Lookup(id); ok {
				return d, nil
			}
		}
		if d, ok := e.reg.Lookup(registry.SharedCategory, id); ok {
			return d, nil
		}
	}
	return nil, &UserFormulaError{
		Formula: src,
		Message: fmt.Sprintf("Invalid formula: %s is not tracked for %s", id, s.Name),
	}
}
