package registry

import "strconv"

type cutoffKind uint8

const (
	cutoffUnset cutoffKind = iota
	cutoffYear
	cutoffNever
)

// Cutoff is the first year a stat may be aggregated from. The zero value
// means the stat is always valid; Never means it is never valid.
type Cutoff struct {
	kind cutoffKind
	year int
}

// Since returns a cutoff excluding years before year.
func Since(year int) Cutoff {
	return Cutoff{kind: cutoffYear, year: year}
}

// Never returns a cutoff excluding every year.
func Never() Cutoff {
	return Cutoff{kind: cutoffNever}
}

// IsSet reports whether the cutoff excludes anything.
func (c Cutoff) IsSet() bool {
	return c.kind != cutoffUnset
}

// IsNever reports whether the cutoff excludes every year.
func (c Cutoff) IsNever() bool {
	return c.kind == cutoffNever
}

// Year returns the cutoff year. It is zero for unset and Never cutoffs.
func (c Cutoff) Year() int {
	if c.kind != cutoffYear {
		return 0
	}
	return c.year
}

// Excludes reports whether year falls before the cutoff.
func (c Cutoff) Excludes(year int) bool {
	switch c.kind {
	case cutoffNever:
		return true
	case cutoffYear:
		return year < c.year
	}
	return false
}

func (c Cutoff) String() string {
	switch c.kind {
	case cutoffNever:
		return "never"
	case cutoffYear:
		return strconv.Itoa(c.year)
	}
	return "-"
}

// Window holds the year thresholds recorded for a stat.
type Window struct {
	// Season applies to season-level queries.
	Season Cutoff
	// Game applies to game-level queries. Never means the stat is not
	// recorded per game.
	Game Cutoff
	// GameRegular applies to game-level queries over regular season games.
	GameRegular Cutoff
	// Inconsistent marks seasons where the stat exists but is incomplete.
	Inconsistent Cutoff
	// InconsistentGame is Inconsistent for game-level queries.
	InconsistentGame Cutoff
	// PlayoffInconsistent marks incomplete playoff records.
	PlayoffInconsistent Cutoff
}

// IsZero reports whether the window has no thresholds.
func (w Window) IsZero() bool {
	return w == Window{}
}
