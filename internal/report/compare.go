package report

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/gh674055/sports-compare-bots/internal/engine"
	"github.com/gh674055/sports-compare-bots/internal/registry"
	"github.com/gh674055/sports-compare-bots/internal/round"
)

// Comparison holds one category's values for several subjects. Values is
// indexed [stat][subject].
type Comparison struct {
	Category string
	Subjects []string
	Stats    []*registry.Descriptor
	Values   [][]engine.Value
}

// Options controls comparison rendering.
type Options struct {
	// All includes stats that are hidden by default.
	All bool
	// Color styles headers and best values instead of marking them with '*'.
	Color bool
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	bestStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
)

// Best returns which values lead the row for d. Only numeric values compete,
// compared after display rounding; zeros are ignored for SkipZero stats. With
// fewer than two contenders nothing is marked.
func Best(d *registry.Descriptor, values []engine.Value) []bool {
	best := make([]bool, len(values))
	var (
		top   float64
		found bool
	)
	scores := make([]float64, len(values))
	eligible := make([]bool, len(values))
	contenders := 0
	for i, v := range values {
		f, ok := v.Float()
		if !ok {
			continue
		}
		f = round.Apply(f, d.Round)
		if d.SkipZero && f == 0 {
			continue
		}
		scores[i], eligible[i] = f, true
		contenders++
		if !found || better(f, top, d.HigherIsBetter) {
			top, found = f, true
		}
	}
	if contenders < 2 {
		return best
	}
	for i := range values {
		best[i] = eligible[i] && scores[i] == top
	}
	return best
}

func better(a, b float64, higher bool) bool {
	if higher {
		return a > b
	}
	return a < b
}

// visibleRows returns the indexes of stats shown under opts.
func (c Comparison) visibleRows(opts Options) []int {
	var out []int
	for i, d := range c.Stats {
		if d.Display || opts.All {
			out = append(out, i)
		}
	}
	return out
}

// RenderComparison prints the category as a table with one column per subject.
func RenderComparison(w io.Writer, c Comparison, opts Options) error {
	rows := c.visibleRows(opts)
	if len(rows) == 0 {
		_, err := fmt.Fprintf(w, "No stats to show for %s.\n", c.Category)
		return err
	}

	headers := append([]string{c.Category}, c.Subjects...)
	rightAlign := map[int]bool{}
	for i := range c.Subjects {
		rightAlign[i+1] = true
	}
	tableRows := make([][]string, 0, len(rows))
	marks := make([][]bool, 0, len(rows))
	for _, i := range rows {
		d := c.Stats[i]
		best := Best(d, c.Values[i])
		row := []string{d.Name}
		for j, v := range c.Values[i] {
			cell := v.Format(d.Round)
			if best[j] && !opts.Color {
				cell += "*"
			}
			row = append(row, cell)
		}
		tableRows = append(tableRows, row)
		marks = append(marks, best)
	}

	var style cellStyler
	if opts.Color {
		style = func(r, col int, cell string) string {
			switch {
			case r < 0:
				return headerStyle.Render(cell)
			case col > 0 && marks[r][col-1]:
				return bestStyle.Render(cell)
			}
			return cell
		}
	}
	for _, line := range formatStyledTable(headers, tableRows, rightAlign, style) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}
