package model

import "sort"

// Aggregate builds a subject by summing every stat across periods. Periods are
// sorted by year, regular season first. When q.StartYears is empty it is set to
// the earliest period year.
func Aggregate(name string, q Query, periods []Period) Subject {
	sorted := make([]Period, len(periods))
	copy(sorted, periods)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Year == sorted[j].Year {
			return !sorted[i].Playoffs && sorted[j].Playoffs
		}
		return sorted[i].Year < sorted[j].Year
	})

	totals := Period{Stats: map[string]map[string]float64{}}
	teams := map[string]struct{}{}
	for _, p := range sorted {
		for cat, stats := range p.Stats {
			dst, ok := totals.Stats[cat]
			if !ok {
				dst = map[string]float64{}
				totals.Stats[cat] = dst
			}
			for stat, v := range stats {
				dst[stat] += v
			}
		}
		if p.Team != "" {
			teams[p.Team] = struct{}{}
		}
	}
	if len(sorted) > 0 {
		totals.Year = sorted[0].Year
		totals.Playoffs = q.Playoffs == PlayoffsOnly
	}
	if len(teams) == 1 {
		totals.Team = sorted[0].Team
	}
	if len(sorted) == 1 {
		totals.Result = sorted[0].Result
	}

	if len(q.StartYears) == 0 && len(sorted) > 0 {
		q.StartYears = []int{sorted[0].Year}
	}
	return Subject{
		Name:    name,
		Query:   q,
		Totals:  totals,
		Periods: sorted,
	}
}
