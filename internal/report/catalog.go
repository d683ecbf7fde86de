package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/gh674055/sports-compare-bots/internal/model"
	"github.com/gh674055/sports-compare-bots/internal/registry"
	"github.com/gh674055/sports-compare-bots/internal/round"
)

// RenderStats lists the stats of each category with their formula kind,
// rounding and recorded-since thresholds.
func RenderStats(w io.Writer, cats []*registry.Category) error {
	for _, cat := range cats {
		if _, err := fmt.Fprintln(w, cat.Name); err != nil {
			return err
		}
		rows := make([][]string, 0, len(cat.Stats()))
		for _, d := range cat.Stats() {
			rows = append(rows, []string{
				d.Name,
				kindLabel(d),
				roundLabel(d.Round),
				d.Window.Season.String(),
				d.Window.Game.String(),
				yesNo(d.Display),
			})
		}
		headers := []string{"Stat", "Kind", "Round", "Season", "Game", "Shown"}
		for _, line := range formatTable(headers, rows, map[int]bool{2: true, 3: true, 4: true}) {
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w, ""); err != nil {
			return err
		}
	}
	return nil
}

// RenderSubjects lists stored subjects.
func RenderSubjects(w io.Writer, subjects []model.SubjectSummary) error {
	if len(subjects) == 0 {
		_, err := fmt.Fprintln(w, "No subjects stored. Import some with: statcalc import FILE")
		return err
	}
	rows := make([][]string, 0, len(subjects))
	for _, s := range subjects {
		rows = append(rows, []string{
			s.Name,
			strconv.Itoa(s.Periods),
			strconv.Itoa(s.FirstYear),
			strconv.Itoa(s.LastYear),
		})
	}
	for _, line := range formatTable([]string{"Subject", "Periods", "From", "To"}, rows, map[int]bool{1: true, 2: true, 3: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func kindLabel(d *registry.Descriptor) string {
	if d.Formula.Kind == registry.FormulaSpecial {
		return d.Formula.Kind.String() + ":" + d.Formula.Special.String()
	}
	return d.Formula.Kind.String()
}

func roundLabel(spec round.Spec) string {
	if spec.Percent {
		return "%"
	}
	return strconv.Itoa(spec.Places)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
