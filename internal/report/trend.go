package report

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/montanaflynn/stats"

	"github.com/gh674055/sports-compare-bots/internal/engine"
	"github.com/gh674055/sports-compare-bots/internal/model"
	"github.com/gh674055/sports-compare-bots/internal/registry"
	"github.com/gh674055/sports-compare-bots/internal/round"
)

const sparkChars = " .:-=+*#%@"

// Trend is one stat evaluated per period for a subject.
type Trend struct {
	Subject string
	Stat    *registry.Descriptor
	Periods []model.Period
	Values  []engine.Value
}

// Summary describes the numeric values of a trend.
type Summary struct {
	Count  int
	Mean   float64
	Median float64
	High   float64
	Low    float64
	StdDev float64
}

// MovingAverage computes a rolling mean over the provided window size. The
// first window-1 points average what is available so far.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		n := i + 1
		if i >= window {
			sum -= values[i-window]
			n = window
		}
		out[i] = sum / float64(n)
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi-lo < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	last := len(sparkChars) - 1
	for _, v := range values {
		idx := int(math.Round((v - lo) / (hi - lo) * float64(last)))
		b.WriteByte(sparkChars[max(0, min(last, idx))])
	}
	return b.String()
}

// Summarize returns descriptive statistics for values.
func Summarize(values []float64) (Summary, error) {
	if len(values) == 0 {
		return Summary{}, nil
	}
	var (
		s   = Summary{Count: len(values)}
		err error
	)
	if s.Mean, err = stats.Mean(values); err != nil {
		return Summary{}, err
	}
	if s.Median, err = stats.Median(values); err != nil {
		return Summary{}, err
	}
	if s.High, err = stats.Max(values); err != nil {
		return Summary{}, err
	}
	if s.Low, err = stats.Min(values); err != nil {
		return Summary{}, err
	}
	if s.StdDev, err = stats.StandardDeviation(values); err != nil {
		return Summary{}, err
	}
	return s, nil
}

// numeric returns the finite values of the trend and their period indexes.
func (t Trend) numeric() ([]float64, []int) {
	var values []float64
	var idx []int
	for i, v := range t.Values {
		f, ok := v.Float()
		if !ok || math.IsInf(f, 0) {
			continue
		}
		values = append(values, f)
		idx = append(idx, i)
	}
	return values, idx
}

func periodLabel(p model.Period) string {
	label := fmt.Sprintf("%d", p.Year)
	if p.Playoffs {
		label += " (P)"
	}
	if p.Team != "" {
		label += " " + p.Team
	}
	return label
}

// RenderTrend prints per-period values with a moving average, a sparkline and
// a summary.
func RenderTrend(w io.Writer, t Trend, window int) error {
	if len(t.Values) == 0 {
		_, err := fmt.Fprintln(w, "No periods found.")
		return err
	}
	spec := t.Stat.Round
	values, idx := t.numeric()
	avg := MovingAverage(values, window)
	avgAt := make(map[int]float64, len(idx))
	for i, at := range idx {
		avgAt[at] = avg[i]
	}

	if _, err := fmt.Fprintf(w, "%s: %s\n", t.Subject, t.Stat.Key()); err != nil {
		return err
	}
	rows := make([][]string, 0, len(t.Values))
	for i, v := range t.Values {
		a := ""
		if m, ok := avgAt[i]; ok {
			a = round.Format(m, spec)
		}
		rows = append(rows, []string{periodLabel(t.Periods[i]), v.Format(spec), a})
	}
	headers := []string{"Period", t.Stat.Name, fmt.Sprintf("Avg(%d)", max(window, 1))}
	for _, line := range formatTable(headers, rows, map[int]bool{1: true, 2: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if len(values) == 0 {
		_, err := fmt.Fprintln(w, "")
		return err
	}

	sum, err := Summarize(values)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Trend: %s\n", Sparkline(values)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Mean: %s  Median: %s  High: %s  Low: %s  StdDev: %s\n",
		round.Format(sum.Mean, spec), round.Format(sum.Median, spec),
		round.Format(sum.High, spec), round.Format(sum.Low, spec),
		round.Format(sum.StdDev, spec)); err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, "")
	return err
}
