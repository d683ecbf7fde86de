package registry

import "github.com/gh674055/sports-compare-bots/internal/formula"

type visitState uint8

const (
	unvisited visitState = iota
	visiting
	visited
)

// resolveDeps computes the transitive dependencies of every stat and rejects
// reference cycles.
func (r *Registry) resolveDeps() error {
	state := map[*Descriptor]visitState{}
	var visit func(d *Descriptor) error
	visit = func(d *Descriptor) error {
		switch state[d] {
		case visited:
			return nil
		case visiting:
			return configErrorf(d.Category, d.Name, "reference cycle")
		}
		state[d] = visiting
		seen := map[*Descriptor]struct{}{}
		var deps []*Descriptor
		add := func(x *Descriptor) {
			if x == d {
				return
			}
			if _, ok := seen[x]; ok {
				return
			}
			seen[x] = struct{}{}
			deps = append(deps, x)
		}
		for _, ref := range d.directRefs() {
			if err := visit(ref); err != nil {
				return err
			}
			add(ref)
			for _, sub := range ref.deps {
				add(sub)
			}
		}
		d.deps = deps
		state[d] = visited
		return nil
	}
	for _, cat := range r.categories {
		for _, d := range cat.stats {
			if err := visit(d); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Registry) customSymbols() *formula.Table {
	t := formula.NewTable(true)
	for _, cat := range r.categories {
		for _, d := range cat.stats {
			t.Add(d.Name, d.Name)
			t.Add(cat.Name+"~"+d.Name, d.Key())
			for _, alias := range cat.Aliases {
				t.Add(alias+"~"+d.Name, d.Key())
			}
		}
	}
	return t
}
