package report

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	"github.com/gh674055/sports-compare-bots/internal/engine"
	"github.com/gh674055/sports-compare-bots/internal/registry"
)

// Entry is one subject's value in a ranking.
type Entry struct {
	Subject string
	Value   engine.Value
}

// Rank orders entries best first for d and keeps the top n. Entries without
// a numeric value, and zeros for SkipZero stats, are dropped.
func Rank(d *registry.Descriptor, entries []Entry, n int) []Entry {
	items := make([]Entry, 0, len(entries))
	for _, e := range entries {
		f, ok := e.Value.Float()
		if !ok || math.IsNaN(f) || (d.SkipZero && f == 0) {
			continue
		}
		items = append(items, e)
	}
	sort.SliceStable(items, func(i, j int) bool {
		a, _ := items[i].Value.Float()
		b, _ := items[j].Value.Float()
		if a == b {
			return items[i].Subject < items[j].Subject
		}
		return better(a, b, d.HigherIsBetter)
	})
	if n > 0 && n < len(items) {
		items = items[:n]
	}
	return items
}

// RenderRanking prints ranked entries for d.
func RenderRanking(w io.Writer, d *registry.Descriptor, entries []Entry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No subjects to rank.")
		return err
	}
	if _, err := fmt.Fprintf(w, "%s (%s)\n", d.Key(), direction(d)); err != nil {
		return err
	}
	rows := make([][]string, 0, len(entries))
	for i, e := range entries {
		rows = append(rows, []string{strconv.Itoa(i + 1), e.Subject, e.Value.Format(d.Round)})
	}
	for _, line := range formatTable([]string{"#", "Subject", d.Name}, rows, map[int]bool{0: true, 2: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

func direction(d *registry.Descriptor) string {
	if d.HigherIsBetter {
		return "higher is better"
	}
	return "lower is better"
}
