// Package model defines shared data structures.
package model

import (
	"fmt"
	"strings"
)

// Granularity is the level a query aggregates at.
type Granularity int

const (
	// GranularitySeason aggregates whole seasons.
	GranularitySeason Granularity = iota
	// GranularityGame aggregates individual games.
	GranularityGame
)

// String returns the flag form of the granularity.
func (g Granularity) String() string {
	if g == GranularityGame {
		return "game"
	}
	return "season"
}

// ParseGranularity parses "season" or "game".
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "season":
		return GranularitySeason, nil
	case "game":
		return GranularityGame, nil
	}
	return GranularitySeason, fmt.Errorf("unknown granularity %q", s)
}

// PlayoffMode selects which periods a query covers.
type PlayoffMode int

const (
	// PlayoffsNo covers regular season periods only.
	PlayoffsNo PlayoffMode = iota
	// PlayoffsInclude covers regular season and playoff periods.
	PlayoffsInclude
	// PlayoffsOnly covers playoff periods only.
	PlayoffsOnly
)

// String returns the flag form of the mode.
func (m PlayoffMode) String() string {
	switch m {
	case PlayoffsInclude:
		return "include"
	case PlayoffsOnly:
		return "only"
	default:
		return "no"
	}
}

// ParsePlayoffMode parses "no", "include" or "only".
func ParsePlayoffMode(s string) (PlayoffMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "no":
		return PlayoffsNo, nil
	case "include":
		return PlayoffsInclude, nil
	case "only":
		return PlayoffsOnly, nil
	}
	return PlayoffsNo, fmt.Errorf("unknown playoff mode %q", s)
}

// Covers reports whether a period with the given playoff flag belongs to the mode.
func (m PlayoffMode) Covers(playoffs bool) bool {
	switch m {
	case PlayoffsInclude:
		return true
	case PlayoffsOnly:
		return playoffs
	default:
		return !playoffs
	}
}

// Result is a game outcome.
type Result string

// Game outcomes.
const (
	ResultWin  Result = "W"
	ResultLoss Result = "L"
	ResultTie  Result = "T"
)

// Period is one game or one season of raw counting stats.
type Period struct {
	Year     int
	Playoffs bool
	Team     string
	Result   Result
	// Stats maps category -> stat -> value.
	Stats map[string]map[string]float64
}

// Value returns a raw stat value. Missing categories and stats read as zero.
func (p Period) Value(category, stat string) float64 {
	return p.Stats[category][stat]
}

// Lookup returns a raw stat value and whether it was recorded.
func (p Period) Lookup(category, stat string) (float64, bool) {
	cat, ok := p.Stats[category]
	if !ok {
		return 0, false
	}
	v, ok := cat[stat]
	return v, ok
}

// Has reports whether the period carries any stats for a category.
func (p Period) Has(category string) bool {
	_, ok := p.Stats[category]
	return ok
}

// Query describes what a subject's aggregate covers.
type Query struct {
	Granularity Granularity
	Playoffs    PlayoffMode
	// StartYears holds the first year of each requested span.
	StartYears        []int
	CountInconsistent bool
	HideFirstDowns    bool
}

// Subject is an aggregate being displayed: summed totals plus the periods that fed them.
type Subject struct {
	Name    string
	Query   Query
	Totals  Period
	Periods []Period
}

// PeriodFilter selects stored periods.
type PeriodFilter struct {
	Subject     string
	Granularity Granularity
	Playoffs    PlayoffMode
	FromYear    int
	ToYear      int
}

// SubjectSummary describes a stored subject.
type SubjectSummary struct {
	Name      string
	Periods   int
	FirstYear int
	LastYear  int
}
