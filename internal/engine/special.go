package engine

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"

	"github.com/gh674055/sports-compare-bots/internal/model"
	"github.com/gh674055/sports-compare-bots/internal/registry"
	"github.com/gh674055/sports-compare-bots/internal/round"
	"github.com/gh674055/sports-compare-bots/internal/validity"
)

type specialFunc func(e *Evaluator, s *model.Subject, d *registry.Descriptor, floor registry.Cutoff) (Value, error)

func specialHandlers() map[registry.SpecialKind]specialFunc {
	return map[registry.SpecialKind]specialFunc{
		registry.SpecialPasserRating:     passerRating,
		registry.SpecialFumblePercent:    adjustedRatio,
		registry.SpecialFirstDownPercent: adjustedRatio,
		registry.SpecialTouchdownPercent: adjustedRatio,
		registry.SpecialWeightedAV:       weightedAV,
		registry.SpecialTally:            tally,
		registry.SpecialRecord:           record,
		registry.SpecialSum:              sum,
		registry.SpecialSumSince:         sumSince,
		registry.SpecialPeriodSpread:     periodSpread,
	}
}

const maxPasserComponent = 2.375

// PasserRating computes the NFL passer rating. Each of the four components
// is clamped to [0, 2.375]. No attempts rate 0.
func PasserRating(cmp, att, yds, td, ints float64) float64 {
	if att == 0 {
		return 0
	}
	clamp := func(v float64) float64 {
		return math.Max(0, math.Min(maxPasserComponent, v))
	}
	a := clamp((cmp/att - 0.3) * 5)
	b := clamp((yds/att - 3) * 0.25)
	c := clamp(td / att * 20)
	d := clamp(maxPasserComponent - ints/att*25)
	return (a + b + c + d) / 6 * 100
}

// WeightedAV sums values sorted from best to worst, weighting the best 100%,
// the next 95% and so on down to a 5% floor.
func WeightedAV(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))
	weights := make([]float64, len(sorted))
	for i := range weights {
		pct := 100 - 5*i
		if pct < 5 {
			pct = 5
		}
		weights[i] = float64(pct) / 100
	}
	return floats.Dot(sorted, weights)
}

// periodsFrom returns the periods at or after cut. A subject without periods
// is treated as a single period holding its totals.
func periodsFrom(s *model.Subject, cut registry.Cutoff) []model.Period {
	if len(s.Periods) == 0 {
		return []model.Period{s.Totals}
	}
	out := make([]model.Period, 0, len(s.Periods))
	for _, p := range s.Periods {
		if !cut.Excludes(p.Year) {
			out = append(out, p)
		}
	}
	return out
}

func passerRating(e *Evaluator, s *model.Subject, d *registry.Descriptor, floor registry.Cutoff) (Value, error) {
	cut := validity.Fold(d, s.Query, floor)
	if cut.IsNever() {
		return Unavailable(), nil
	}
	args, ok, err := e.operands(s, d.Formula.Args, cut)
	if err != nil || !ok {
		return Unavailable(), err
	}
	return Number(PasserRating(args[0], args[1], args[2], args[3], args[4])), nil
}

// adjustedRatio divides the first arg by the sum of the rest. Every operand is
// cut where the numerator and the stat itself are valid, so denominators never
// count periods the numerator was not recorded in.
func adjustedRatio(e *Evaluator, s *model.Subject, d *registry.Descriptor, floor registry.Cutoff) (Value, error) {
	num := d.Formula.Args[0]
	cut := validity.Latest(validity.Fold(num, s.Query, floor), validity.Resolve(d, s.Query))
	if cut.IsNever() {
		return Unavailable(), nil
	}
	n, ok, err := e.number(s, num, cut)
	if err != nil || !ok {
		return Unavailable(), err
	}
	dens, ok, err := e.operands(s, d.Formula.Args[1:], cut)
	if err != nil || !ok {
		return Unavailable(), err
	}
	den := floats.Sum(dens)
	if den == 0 {
		return Number(0), nil
	}
	return Number(n / den), nil
}

func weightedAV(e *Evaluator, s *model.Subject, d *registry.Descriptor, floor registry.Cutoff) (Value, error) {
	cut := validity.Fold(d, s.Query, floor)
	if cut.IsNever() {
		return Unavailable(), nil
	}
	arg := d.Formula.Args[0]
	periods := periodsFrom(s, cut)
	values := make([]float64, 0, len(periods))
	for _, p := range periods {
		values = append(values, p.Value(arg.Source, arg.Name))
	}
	return Number(WeightedAV(values)), nil
}

func tally(e *Evaluator, s *model.Subject, d *registry.Descriptor, floor registry.Cutoff) (Value, error) {
	cut := validity.Latest(floor, validity.Resolve(d, s.Query))
	want := model.Result(d.Formula.Option)
	n := 0
	for _, p := range periodsFrom(s, cut) {
		if p.Result == want {
			n++
		}
	}
	return Number(float64(n)), nil
}

func record(e *Evaluator, s *model.Subject, d *registry.Descriptor, floor registry.Cutoff) (Value, error) {
	cut := validity.Fold(d, s.Query, floor)
	if cut.IsNever() {
		return Unavailable(), nil
	}
	args, ok, err := e.operands(s, d.Formula.Args, cut)
	if err != nil || !ok {
		return Unavailable(), err
	}
	parts := make([]string, len(args))
	for i, v := range args {
		if v == math.Trunc(v) && !math.IsInf(v, 0) {
			parts[i] = strconv.FormatFloat(v, 'f', 0, 64)
			continue
		}
		parts[i] = round.Format(v, round.Decimals(2))
	}
	return Record(strings.Join(parts, ":")), nil
}

func sum(e *Evaluator, s *model.Subject, d *registry.Descriptor, floor registry.Cutoff) (Value, error) {
	cut := validity.Fold(d, s.Query, floor)
	if cut.IsNever() {
		return Unavailable(), nil
	}
	args, ok, err := e.operands(s, d.Formula.Args, cut)
	if err != nil || !ok {
		return Unavailable(), err
	}
	return Number(floats.Sum(args)), nil
}

// sumSince adds the raw args over periods from the since year on.
func sumSince(e *Evaluator, s *model.Subject, d *registry.Descriptor, floor registry.Cutoff) (Value, error) {
	cut := validity.Latest(validity.Fold(d, s.Query, floor), registry.Since(d.Formula.Since))
	if cut.IsNever() {
		return Unavailable(), nil
	}
	var total float64
	for _, p := range periodsFrom(s, cut) {
		for _, arg := range d.Formula.Args {
			total += p.Value(arg.Source, arg.Name)
		}
	}
	return Number(total), nil
}

// periodSpread evaluates its target once per period and summarises the
// results. Variance is reported as the coefficient of variation.
func periodSpread(e *Evaluator, s *model.Subject, d *registry.Descriptor, floor registry.Cutoff) (Value, error) {
	cut := validity.Latest(floor, validity.Resolve(d, s.Query))
	target := d.Formula.Args[0]
	var values []float64
	for _, p := range periodsFrom(s, cut) {
		single := singlePeriod(s, p)
		v, ok, err := e.number(&single, target, registry.Cutoff{})
		if err != nil {
			return Value{}, err
		}
		if ok && !math.IsInf(v, 0) {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return Number(0), nil
	}
	var (
		out float64
		err error
	)
	switch d.Formula.Option {
	case registry.SpreadMedian:
		out, err = stats.Median(values)
	case registry.SpreadHigh:
		out, err = stats.Max(values)
	case registry.SpreadLow:
		out, err = stats.Min(values)
	case registry.SpreadVariance:
		var mean, sd float64
		if mean, err = stats.Mean(values); err != nil || mean == 0 {
			break
		}
		if sd, err = stats.StandardDeviation(values); err == nil {
			out = sd / mean
		}
	}
	if err != nil {
		return Value{}, err
	}
	return Number(out), nil
}
