package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gh674055/sports-compare-bots/internal/engine"
	"github.com/gh674055/sports-compare-bots/internal/ingest"
	"github.com/gh674055/sports-compare-bots/internal/model"
	"github.com/gh674055/sports-compare-bots/internal/registry"
	"github.com/gh674055/sports-compare-bots/internal/report"
	"github.com/gh674055/sports-compare-bots/internal/round"
)

// queryFlags are the subject selection flags shared by eval, formula, trend
// and rank.
type queryFlags struct {
	subjects          []string
	granularity       string
	playoffs          string
	from              int
	to                int
	countInconsistent bool
	hideFirstDowns    bool
}

func (f *queryFlags) register(cmd *cobra.Command, multi bool) {
	if multi {
		cmd.Flags().StringArrayVar(&f.subjects, "subject", nil, "subject name (repeatable)")
	}
	cmd.Flags().StringVar(&f.granularity, "granularity", "season", "period level: season or game")
	cmd.Flags().StringVar(&f.playoffs, "playoffs", "no", "playoff periods: no, include or only")
	cmd.Flags().IntVar(&f.from, "from", 0, "first year to include")
	cmd.Flags().IntVar(&f.to, "to", 0, "last year to include")
	cmd.Flags().BoolVar(&f.countInconsistent, "count-inconsistent", false, "show stats in seasons where they were recorded incompletely")
	cmd.Flags().BoolVar(&f.hideFirstDowns, "hide-first-downs", false, "treat first-down stats as not recorded")
}

func (f *queryFlags) applyConfig(cmd *cobra.Command, e *env) {
	applyBoolConfig(cmd, "count-inconsistent", &f.countInconsistent, e.cfg.Engine.CountInconsistent)
	applyBoolConfig(cmd, "hide-first-downs", &f.hideFirstDowns, e.cfg.Engine.HideFirstDowns)
}

func (f *queryFlags) validate() error {
	if f.from < 0 || f.to < 0 {
		return fmt.Errorf("--from and --to must be >= 0")
	}
	if f.from > 0 && f.to > 0 && f.from > f.to {
		return fmt.Errorf("--from must not be after --to")
	}
	return nil
}

func (f *queryFlags) filter(subject string) (model.PeriodFilter, error) {
	g, err := model.ParseGranularity(f.granularity)
	if err != nil {
		return model.PeriodFilter{}, fmt.Errorf("invalid --granularity value: %w", err)
	}
	p, err := model.ParsePlayoffMode(f.playoffs)
	if err != nil {
		return model.PeriodFilter{}, fmt.Errorf("invalid --playoffs value: %w", err)
	}
	return model.PeriodFilter{
		Subject:     subject,
		Granularity: g,
		Playoffs:    p,
		FromYear:    f.from,
		ToYear:      f.to,
	}, nil
}

func (f *queryFlags) query() model.Query {
	return model.Query{
		CountInconsistent: f.countInconsistent,
		HideFirstDowns:    f.hideFirstDowns,
	}
}

// loadSubjects aggregates every named subject.
func (f *queryFlags) loadSubjects(ctx context.Context, src report.PeriodSource, names []string) ([]model.Subject, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("at least one --subject is required")
	}
	out := make([]model.Subject, 0, len(names))
	for _, name := range names {
		filter, err := f.filter(name)
		if err != nil {
			return nil, err
		}
		subj, err := report.LoadSubject(ctx, src, filter, f.query())
		if err != nil {
			return nil, err
		}
		out = append(out, subj)
	}
	return out, nil
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE...",
		Short: "Import period documents",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runImportCmd,
	}
}

func runImportCmd(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()
	st, err := e.openStore()
	if err != nil {
		return err
	}

	var docs []ingest.Document
	for _, path := range args {
		read, err := ingest.ReadFile(path)
		if err != nil {
			return err
		}
		docs = append(docs, read...)
	}
	batch, n, err := ingest.Import(cmd.Context(), st, docs)
	if err != nil {
		if n > 0 {
			logErrf("Partial import left in batch %s; remove it with: statcalc drop %s\n", batch, batch)
		}
		return err
	}
	logErrf("Imported %d periods from %d documents (batch %s)\n", n, len(docs), batch)
	return nil
}

func newDropCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "drop BATCH",
		Short: "Delete the periods of one import batch",
		Args:  cobra.ExactArgs(1),
		RunE:  runDropCmd,
	}
}

func runDropCmd(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()
	st, err := e.openStore()
	if err != nil {
		return err
	}
	n, err := st.DeleteBatch(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("no periods found for batch %s", args[0])
	}
	logErrf("Deleted %d periods\n", n)
	return nil
}

var (
	evalQuery    queryFlags
	evalCategory string
	evalStats    []string
	evalAll      bool
	evalXLSX     string
	evalWorkers  int
)

func newEvalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Compare subjects stat by stat",
		Args:  cobra.NoArgs,
		RunE:  runEvalCmd,
	}
	evalQuery.register(cmd, true)
	cmd.Flags().StringVar(&evalCategory, "category", "", "category to show (default: every category with data)")
	cmd.Flags().StringArrayVar(&evalStats, "stat", nil, "stat to show (repeatable, needs --category)")
	cmd.Flags().BoolVar(&evalAll, "all", false, "include stats hidden by default")
	cmd.Flags().StringVar(&evalXLSX, "xlsx", "", "also write the comparison to an xlsx workbook")
	cmd.Flags().IntVar(&evalWorkers, "workers", defaultWorkers, "parallel subject evaluations")
	return cmd
}

func runEvalCmd(cmd *cobra.Command, _ []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()
	evalQuery.applyConfig(cmd, e)
	applyIntConfig(cmd, "workers", &evalWorkers, e.cfg.Engine.Workers)
	if err := evalQuery.validate(); err != nil {
		return err
	}
	if evalWorkers <= 0 {
		return fmt.Errorf("--workers must be > 0")
	}
	if len(evalStats) > 0 && evalCategory == "" {
		return fmt.Errorf("--stat needs --category")
	}

	ev, err := e.evaluator()
	if err != nil {
		return err
	}
	st, err := e.openStore()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	subjects, err := evalQuery.loadSubjects(ctx, st, evalQuery.subjects)
	if err != nil {
		return err
	}

	cats, err := selectCategories(e.reg, evalCategory, subjects)
	if err != nil {
		return err
	}
	opts := report.Options{All: evalAll || len(evalStats) > 0, Color: useColor()}
	out := cmd.OutOrStdout()
	comparisons := make([]report.Comparison, 0, len(cats))
	for _, cat := range cats {
		stats, err := selectStats(cat, evalStats)
		if err != nil {
			return err
		}
		c, err := report.BuildComparison(ctx, ev, cat, stats, subjects, evalWorkers)
		if err != nil {
			return err
		}
		if err := report.RenderComparison(out, c, opts); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		comparisons = append(comparisons, c)
	}

	if evalXLSX != "" {
		if err := report.WriteWorkbook(evalXLSX, comparisons, opts); err != nil {
			return err
		}
		logErrf("Wrote %s\n", evalXLSX)
	}
	return nil
}

// selectCategories returns the named category, or every category some
// subject has data for.
func selectCategories(reg *registry.Registry, name string, subjects []model.Subject) ([]*registry.Category, error) {
	if name != "" {
		cat, ok := reg.Category(name)
		if !ok {
			return nil, fmt.Errorf("unknown category %q (see: statcalc stats)", name)
		}
		return []*registry.Category{cat}, nil
	}
	var out []*registry.Category
	for _, cat := range reg.Categories() {
		if cat.Name == registry.SharedCategory {
			continue
		}
		for _, s := range subjects {
			if s.Totals.Has(cat.Source()) {
				out = append(out, cat)
				break
			}
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no stats recorded for the selected subjects")
	}
	return out, nil
}

// selectStats resolves stat names in cat. No names selects the whole category.
func selectStats(cat *registry.Category, names []string) ([]*registry.Descriptor, error) {
	if len(names) == 0 {
		return nil, nil
	}
	out := make([]*registry.Descriptor, 0, len(names))
	for _, name := range names {
		d, ok := cat.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("unknown stat %q in %s", name, cat.Name)
		}
		out = append(out, d)
	}
	return out, nil
}

var formulaQuery queryFlags

func newFormulaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "formula EXPR",
		Short: "Evaluate a custom formula such as \"(Yds + 20*TD) / Att\"",
		Args:  cobra.ExactArgs(1),
		RunE:  runFormulaCmd,
	}
	formulaQuery.register(cmd, true)
	return cmd
}

func runFormulaCmd(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()
	formulaQuery.applyConfig(cmd, e)
	if err := formulaQuery.validate(); err != nil {
		return err
	}
	ev, err := e.evaluator()
	if err != nil {
		return err
	}
	st, err := e.openStore()
	if err != nil {
		return err
	}
	subjects, err := formulaQuery.loadSubjects(cmd.Context(), st, formulaQuery.subjects)
	if err != nil {
		return err
	}

	src := strings.TrimSpace(args[0])
	for _, subj := range subjects {
		v, err := ev.EvaluateCustom(src, subj)
		if err != nil {
			var ufe *engine.UserFormulaError
			if errors.As(err, &ufe) {
				return ufe
			}
			return fmt.Errorf("failed to evaluate formula for %s: %w", subj.Name, err)
		}
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", subj.Name, formatCustom(v)); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

// Custom formulas have no table entry to round by.
var customRound = round.Decimals(3)

func formatCustom(v engine.Value) string {
	return v.Format(customRound)
}

var (
	trendQuery    queryFlags
	trendSubject  string
	trendCategory string
	trendStat     string
	trendWindow   int
)

func newTrendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trend",
		Short: "Show one stat per period with a moving average",
		Args:  cobra.NoArgs,
		RunE:  runTrendCmd,
	}
	trendQuery.register(cmd, false)
	cmd.Flags().StringVar(&trendSubject, "subject", "", "subject name")
	cmd.Flags().StringVar(&trendCategory, "category", "", "stat category")
	cmd.Flags().StringVar(&trendStat, "stat", "", "stat name")
	cmd.Flags().IntVar(&trendWindow, "window", defaultTrendWindow, "moving average window")
	return cmd
}

func runTrendCmd(cmd *cobra.Command, _ []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()
	trendQuery.applyConfig(cmd, e)
	if err := trendQuery.validate(); err != nil {
		return err
	}
	if trendSubject == "" || trendCategory == "" || trendStat == "" {
		return fmt.Errorf("--subject, --category and --stat are required")
	}
	if trendWindow <= 0 {
		return fmt.Errorf("--window must be > 0")
	}
	d, ok := e.reg.Lookup(trendCategory, trendStat)
	if !ok {
		return fmt.Errorf("unknown stat %s~%s", trendCategory, trendStat)
	}
	ev, err := e.evaluator()
	if err != nil {
		return err
	}
	st, err := e.openStore()
	if err != nil {
		return err
	}
	subjects, err := trendQuery.loadSubjects(cmd.Context(), st, []string{trendSubject})
	if err != nil {
		return err
	}
	subj := subjects[0]
	values, err := ev.EvaluatePeriods(d.Category, d.Name, subj)
	if err != nil {
		return err
	}
	t := report.Trend{Subject: subj.Name, Stat: d, Periods: subj.Periods, Values: values}
	if err := report.RenderTrend(cmd.OutOrStdout(), t, trendWindow); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

var (
	rankQuery    queryFlags
	rankCategory string
	rankStat     string
	rankTop      int
	rankWorkers  int
)

func newRankCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Rank every stored subject by one stat",
		Args:  cobra.NoArgs,
		RunE:  runRankCmd,
	}
	rankQuery.register(cmd, false)
	cmd.Flags().StringVar(&rankCategory, "category", "", "stat category")
	cmd.Flags().StringVar(&rankStat, "stat", "", "stat name")
	cmd.Flags().IntVar(&rankTop, "top", defaultRankTop, "number of subjects to show (0 for all)")
	cmd.Flags().IntVar(&rankWorkers, "workers", defaultWorkers, "parallel subject evaluations")
	return cmd
}

func runRankCmd(cmd *cobra.Command, _ []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()
	rankQuery.applyConfig(cmd, e)
	applyIntConfig(cmd, "workers", &rankWorkers, e.cfg.Engine.Workers)
	if err := rankQuery.validate(); err != nil {
		return err
	}
	if rankCategory == "" || rankStat == "" {
		return fmt.Errorf("--category and --stat are required")
	}
	if rankTop < 0 {
		return fmt.Errorf("--top must be >= 0")
	}
	if rankWorkers <= 0 {
		return fmt.Errorf("--workers must be > 0")
	}
	d, ok := e.reg.Lookup(rankCategory, rankStat)
	if !ok {
		return fmt.Errorf("unknown stat %s~%s", rankCategory, rankStat)
	}
	ev, err := e.evaluator()
	if err != nil {
		return err
	}
	st, err := e.openStore()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	summaries, err := st.ListSubjects(ctx)
	if err != nil {
		return err
	}
	log := logrus.WithField("component", "rank")
	ref := []engine.StatRef{{Category: d.Category, Stat: d.Name}}
	var jobs []engine.Job
	for _, summary := range summaries {
		filter, err := rankQuery.filter(summary.Name)
		if err != nil {
			return err
		}
		subj, err := report.LoadSubject(ctx, st, filter, rankQuery.query())
		if err != nil {
			log.WithError(err).WithField("subject", summary.Name).Debug("Skipping subject")
			continue
		}
		jobs = append(jobs, engine.Job{Subject: subj, Stats: ref})
	}
	results, err := ev.EvaluateBatch(ctx, jobs, rankWorkers)
	if err != nil {
		return err
	}
	entries := make([]report.Entry, len(results))
	for i, res := range results {
		entries[i] = report.Entry{Subject: res.Subject, Value: res.Values[0]}
	}
	if err := report.RenderRanking(cmd.OutOrStdout(), d, report.Rank(d, entries, rankTop)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

var statsCategory string

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "List known stats",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsCategory, "category", "", "only list this category")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	cats := e.reg.Categories()
	if statsCategory != "" {
		cat, ok := e.reg.Category(statsCategory)
		if !ok {
			return fmt.Errorf("unknown category %q", statsCategory)
		}
		cats = []*registry.Category{cat}
	}
	if err := report.RenderStats(cmd.OutOrStdout(), cats); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newSubjectsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "subjects",
		Short: "List stored subjects",
		Args:  cobra.NoArgs,
		RunE:  runSubjectsCmd,
	}
}

func runSubjectsCmd(cmd *cobra.Command, _ []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()
	st, err := e.openStore()
	if err != nil {
		return err
	}
	subjects, err := st.ListSubjects(cmd.Context())
	if err != nil {
		return err
	}
	if err := report.RenderSubjects(cmd.OutOrStdout(), subjects); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if len(subjects) == 0 {
		logErrln("Database:", e.dbPath())
	}
	return nil
}
