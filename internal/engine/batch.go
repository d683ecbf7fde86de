package engine

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/gh674055/sports-compare-bots/internal/model"
)

// StatRef names a registry stat, or a custom formula when Formula is set.
type StatRef struct {
	Category string
	Stat     string
	Formula  string
}

// Label returns a short display name for the reference.
func (r StatRef) Label() string {
	if r.Formula != "" {
		return r.Formula
	}
	return r.Stat
}

// Job is one subject and the stats to compute for it.
type Job struct {
	Subject model.Subject
	Stats   []StatRef
}

// Result holds a job's values in the order of its Stats.
type Result struct {
	Subject string
	Values  []Value
}

// EvaluateBatch evaluates jobs on at most workers goroutines. Results keep
// job order. The first error cancels the remaining jobs.
func (e *Evaluator) EvaluateBatch(ctx context.Context, jobs []Job, workers int) ([]Result, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	start := time.Now()
	e.log.WithFields(logrus.Fields{
		"job_count": len(jobs),
		"workers":   workers,
	}).Info("Starting batch evaluation")

	results := make([]Result, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range jobs {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := e.evaluateJob(jobs[i])
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		e.log.WithError(err).Warn("Batch evaluation failed")
		return nil, err
	}

	e.log.WithFields(logrus.Fields{
		"job_count":       len(jobs),
		"processing_time": time.Since(start),
	}).Info("Batch evaluation completed")
	return results, nil
}

func (e *Evaluator) evaluateJob(job Job) (Result, error) {
	res := Result{Subject: job.Subject.Name, Values: make([]Value, len(job.Stats))}
	for i, ref := range job.Stats {
		var (
			v   Value
			err error
		)
		if ref.Formula != "" {
			v, err = e.EvaluateCustom(ref.Formula, job.Subject)
		} else {
			v, err = e.Evaluate(ref.Category, ref.Stat, job.Subject)
		}
		if err != nil {
			return Result{}, fmt.Errorf("failed to evaluate %s for %s: %w", ref.Label(), job.Subject.Name, err)
		}
		res.Values[i] = v
	}
	return res, nil
}
