// Package validity decides which periods a stat may be aggregated from and
// strips contributions from periods before that point.
package validity

import (
	"github.com/gh674055/sports-compare-bots/internal/model"
	"github.com/gh674055/sports-compare-bots/internal/registry"
)

// Resolve returns the cutoff for d under q: the first cutoff found across the
// query's start years, or an unset cutoff when the stat is valid throughout.
func Resolve(d *registry.Descriptor, q model.Query) registry.Cutoff {
	for _, year := range q.StartYears {
		if c := ResolveYear(d, q, year); c.IsSet() {
			return c
		}
	}
	return registry.Cutoff{}
}

// ResolveYear returns the cutoff for d when a span of q starts in year.
func ResolveYear(d *registry.Descriptor, q model.Query, year int) registry.Cutoff {
	if q.HideFirstDowns && d.FirstDown {
		return registry.Never()
	}
	w := d.Window
	if w.IsZero() {
		return registry.Cutoff{}
	}
	if q.Granularity == model.GranularitySeason && (q.Playoffs == model.PlayoffsNo || d.SeasonSourced) {
		return resolveSeason(w, q, year)
	}
	return resolveGame(w, q, year)
}

func resolveSeason(w registry.Window, q model.Query, year int) registry.Cutoff {
	switch {
	case w.Season.Excludes(year):
		return w.Season
	case q.CountInconsistent && w.Inconsistent.Excludes(year):
		return w.Inconsistent
	case q.CountInconsistent && q.Playoffs != model.PlayoffsNo && w.PlayoffInconsistent.Excludes(year):
		return w.PlayoffInconsistent
	}
	return registry.Cutoff{}
}

func resolveGame(w registry.Window, q model.Query, year int) registry.Cutoff {
	regular := q.Playoffs == model.PlayoffsNo
	if w.Game.Excludes(year) && regular {
		return w.Game
	}
	if w.GameRegular.Excludes(year) {
		switch q.Playoffs {
		case model.PlayoffsInclude:
			if q.CountInconsistent {
				return w.GameRegular
			}
			return registry.Cutoff{}
		case model.PlayoffsOnly:
			return registry.Cutoff{}
		default:
			return w.GameRegular
		}
	}
	switch {
	case w.Game.Excludes(year) && !w.GameRegular.IsSet():
		return w.Game
	case q.CountInconsistent && w.InconsistentGame.Excludes(year):
		return w.InconsistentGame
	case q.CountInconsistent && !regular && w.PlayoffInconsistent.Excludes(year):
		return w.PlayoffInconsistent
	}
	return registry.Cutoff{}
}

// Latest returns the more restrictive of two cutoffs. Never beats any year,
// a later year beats an earlier one and any set cutoff beats an unset one.
func Latest(a, b registry.Cutoff) registry.Cutoff {
	switch {
	case a.IsNever() || !b.IsSet():
		return a
	case b.IsNever() || !a.IsSet():
		return b
	case b.Year() > a.Year():
		return b
	}
	return a
}

// Fold returns Latest over d's own cutoff and that of every stat it depends on.
func Fold(d *registry.Descriptor, q model.Query, floor registry.Cutoff) registry.Cutoff {
	c := Latest(floor, Resolve(d, q))
	for _, dep := range d.Deps() {
		if c.IsNever() {
			return c
		}
		c = Latest(c, Resolve(dep, q))
	}
	return c
}

// Adjust subtracts from value the contributions of periods before cutoff.
// Never cutoffs are left to the caller.
func Adjust(value float64, cutoff registry.Cutoff, category, stat string, periods []model.Period) float64 {
	if !cutoff.IsSet() || cutoff.IsNever() {
		return value
	}
	for _, p := range periods {
		if p.Year < cutoff.Year() {
			value -= p.Value(category, stat)
		}
	}
	return value
}
