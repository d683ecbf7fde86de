package report

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/gh674055/sports-compare-bots/internal/engine"
	"github.com/gh674055/sports-compare-bots/internal/model"
	"github.com/gh674055/sports-compare-bots/internal/round"
)

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{2, 4, 6, 8}, 2)
	want := []float64{2, 3, 5, 7}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Fatalf("index %d: expected %v, got %v", i, want[i], got[i])
		}
	}
	same := MovingAverage([]float64{1, 5}, 1)
	if same[0] != 1 || same[1] != 5 {
		t.Fatalf("window 1 should copy values, got %v", same)
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline([]float64{0, 9}); got != " @" {
		t.Fatalf("unexpected sparkline %q", got)
	}
	if got := Sparkline([]float64{3, 3, 3}); got != "+++" {
		t.Fatalf("unexpected flat sparkline %q", got)
	}
	if got := Sparkline(nil); got != "" {
		t.Fatalf("expected empty sparkline, got %q", got)
	}
}

func TestSummarize(t *testing.T) {
	s, err := Summarize([]float64{14, 8, 2})
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if s.Count != 3 || s.Mean != 8 || s.Median != 8 || s.High != 14 || s.Low != 2 {
		t.Fatalf("unexpected summary: %+v", s)
	}
	if math.Abs(s.StdDev-math.Sqrt(24)) > 1e-9 {
		t.Fatalf("unexpected stddev %v", s.StdDev)
	}
	empty, err := Summarize(nil)
	if err != nil || empty.Count != 0 {
		t.Fatalf("unexpected empty summary: %+v, %v", empty, err)
	}
}

func TestRenderTrend(t *testing.T) {
	tr := Trend{
		Subject: "Brady",
		Stat:    desc("Y/A", true, round.Decimals(2)),
		Periods: []model.Period{{Year: 2006, Team: "NWE"}, {Year: 2007, Team: "NWE"}, {Year: 2007, Playoffs: true}},
		Values:  []engine.Value{engine.Number(6.8), engine.Number(8.3), engine.Unavailable()},
	}
	var buf bytes.Buffer
	if err := RenderTrend(&buf, tr, 2); err != nil {
		t.Fatalf("RenderTrend failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Brady: Passing~Y/A", "2007 NWE", "2007 (P)", "N/A", "7.55", "Trend:", "Mean: 7.55"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestRenderTrendEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderTrend(&buf, Trend{Stat: desc("Yds", true, round.Integer)}, 3); err != nil {
		t.Fatalf("RenderTrend failed: %v", err)
	}
	if !strings.Contains(buf.String(), "No periods") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}
