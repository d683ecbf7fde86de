// Package formula parses and evaluates arithmetic stat formulas.
package formula

import "strings"

// Symbols resolves identifier text found in a formula.
type Symbols interface {
	// Lookup returns the canonical identifier for text, if known.
	Lookup(text string) (string, bool)
	// MaxLen is the byte length of the longest known identifier.
	MaxLen() int
}

// Table is a Symbols implementation backed by a map.
type Table struct {
	names  map[string]string
	fold   bool
	maxLen int
}

// NewTable returns an empty table. When fold is true lookups ignore ASCII case.
func NewTable(fold bool) *Table {
	return &Table{names: map[string]string{}, fold: fold}
}

// Add registers text as an identifier that resolves to canonical. The first
// registration of a given text wins.
func (t *Table) Add(text, canonical string) {
	key := t.key(text)
	if _, ok := t.names[key]; ok {
		return
	}
	t.names[key] = canonical
	if len(key) > t.maxLen {
		t.maxLen = len(key)
	}
}

// Lookup implements Symbols.
func (t *Table) Lookup(text string) (string, bool) {
	name, ok := t.names[t.key(text)]
	return name, ok
}

// MaxLen implements Symbols.
func (t *Table) MaxLen() int {
	return t.maxLen
}

// Len returns the number of registered identifiers.
func (t *Table) Len() int {
	return len(t.names)
}

func (t *Table) key(text string) string {
	if t.fold {
		return strings.ToLower(text)
	}
	return text
}
