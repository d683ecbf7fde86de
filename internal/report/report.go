package report

import (
	"context"
	"fmt"

	"github.com/gh674055/sports-compare-bots/internal/engine"
	"github.com/gh674055/sports-compare-bots/internal/model"
	"github.com/gh674055/sports-compare-bots/internal/registry"
)

// PeriodSource lists stored periods. *store.Store implements it.
type PeriodSource interface {
	ListPeriods(ctx context.Context, filter model.PeriodFilter) ([]model.Period, error)
}

// LoadSubject reads the periods selected by filter and aggregates them under
// q. Granularity and playoff mode are taken from filter.
func LoadSubject(ctx context.Context, src PeriodSource, filter model.PeriodFilter, q model.Query) (model.Subject, error) {
	periods, err := src.ListPeriods(ctx, filter)
	if err != nil {
		return model.Subject{}, fmt.Errorf("failed to load %s: %w", filter.Subject, err)
	}
	if len(periods) == 0 {
		return model.Subject{}, fmt.Errorf("no %s periods found for %s", filter.Granularity, filter.Subject)
	}
	q.Granularity = filter.Granularity
	q.Playoffs = filter.Playoffs
	if filter.FromYear > 0 && len(q.StartYears) == 0 {
		q.StartYears = []int{max(filter.FromYear, periods[0].Year)}
	}
	return model.Aggregate(filter.Subject, q, periods), nil
}

// BuildComparison evaluates the given stats of one category for every
// subject. A nil stats list selects the whole category.
func BuildComparison(ctx context.Context, e *engine.Evaluator, cat *registry.Category, stats []*registry.Descriptor, subjects []model.Subject, workers int) (Comparison, error) {
	if stats == nil {
		stats = cat.Stats()
	}
	refs := make([]engine.StatRef, len(stats))
	for i, d := range stats {
		refs[i] = engine.StatRef{Category: d.Category, Stat: d.Name}
	}
	jobs := make([]engine.Job, len(subjects))
	names := make([]string, len(subjects))
	for i, s := range subjects {
		jobs[i] = engine.Job{Subject: s, Stats: refs}
		names[i] = s.Name
	}
	results, err := e.EvaluateBatch(ctx, jobs, workers)
	if err != nil {
		return Comparison{}, err
	}

	c := Comparison{Category: cat.Name, Subjects: names, Stats: stats, Values: make([][]engine.Value, len(stats))}
	for i := range stats {
		c.Values[i] = make([]engine.Value, len(results))
		for j, res := range results {
			c.Values[i][j] = res.Values[i]
		}
	}
	return c, nil
}
