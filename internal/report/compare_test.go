package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/gh674055/sports-compare-bots/internal/engine"
	"github.com/gh674055/sports-compare-bots/internal/registry"
	"github.com/gh674055/sports-compare-bots/internal/round"
)

func desc(name string, higher bool, spec round.Spec) *registry.Descriptor {
	return &registry.Descriptor{Category: "Passing", Name: name, Source: "Passing", HigherIsBetter: higher, Round: spec, Display: true}
}

func TestBestHigherAndLower(t *testing.T) {
	values := []engine.Value{engine.Number(7.51), engine.Number(7.49), engine.Unavailable()}

	best := Best(desc("Y/A", true, round.Decimals(1)), values)
	if !best[0] || !best[1] || best[2] {
		t.Fatalf("expected a tie after rounding, got %v", best)
	}

	best = Best(desc("Int", false, round.Integer), []engine.Value{engine.Number(12), engine.Number(9)})
	if best[0] || !best[1] {
		t.Fatalf("expected lower value to win, got %v", best)
	}
}

func TestBestSkipZeroAndSingleContender(t *testing.T) {
	d := desc("Rush/BrkTkl", false, round.Decimals(2))
	d.SkipZero = true
	best := Best(d, []engine.Value{engine.Number(0), engine.Number(4), engine.Number(6)})
	if best[0] || !best[1] || best[2] {
		t.Fatalf("expected zero to be skipped, got %v", best)
	}

	best = Best(desc("Yds", true, round.Integer), []engine.Value{engine.Number(10), engine.Record("1:2:3")})
	if best[0] || best[1] {
		t.Fatalf("expected no mark with one contender, got %v", best)
	}
}

func TestBestInfinite(t *testing.T) {
	best := Best(desc("TD/Int", true, round.Decimals(2)), []engine.Value{engine.Number(3), engine.Infinite()})
	if best[0] || !best[1] {
		t.Fatalf("expected infinite ratio to win, got %v", best)
	}
}

func sampleComparison() Comparison {
	hidden := desc("SkYds", false, round.Integer)
	hidden.Display = false
	return Comparison{
		Category: "Passing",
		Subjects: []string{"Brady", "Brees"},
		Stats:    []*registry.Descriptor{desc("Yds", true, round.Integer), desc("Cmp%", true, round.PercentSpec), hidden},
		Values: [][]engine.Value{
			{engine.Number(4806), engine.Number(5476)},
			{engine.Number(0.637), engine.Number(0.677)},
			{engine.Number(100), engine.Number(200)},
		},
	}
}

func TestRenderComparison(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderComparison(&buf, sampleComparison(), Options{}); err != nil {
		t.Fatalf("RenderComparison failed: %v", err)
	}
	out := buf.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 rows, got %d:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[1], "5476*") || strings.Contains(lines[1], "4806*") {
		t.Fatalf("expected Brees to lead yards: %q", lines[1])
	}
	if !strings.Contains(lines[2], "67.7%*") || !strings.Contains(lines[2], "63.7%") {
		t.Fatalf("unexpected percent row: %q", lines[2])
	}
	if strings.Contains(out, "SkYds") {
		t.Fatalf("hidden stat should not be shown")
	}

	buf.Reset()
	if err := RenderComparison(&buf, sampleComparison(), Options{All: true}); err != nil {
		t.Fatalf("RenderComparison failed: %v", err)
	}
	if !strings.Contains(buf.String(), "SkYds") {
		t.Fatalf("expected hidden stat with All")
	}
}

func TestRenderComparisonEmpty(t *testing.T) {
	c := sampleComparison()
	c.Stats = c.Stats[2:]
	c.Values = c.Values[2:]
	var buf bytes.Buffer
	if err := RenderComparison(&buf, c, Options{}); err != nil {
		t.Fatalf("RenderComparison failed: %v", err)
	}
	if !strings.Contains(buf.String(), "No stats to show") {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}
