package engine

import (
	"math"
	"strconv"

	"github.com/gh674055/sports-compare-bots/internal/round"
)

// Kind tags a Value.
type Kind int

const (
	// KindNumber is a finite numeric result.
	KindNumber Kind = iota
	// KindRecord is a colon-joined record such as "10:6:1".
	KindRecord
	// KindInfinite is a ratio with a zero divisor and a non-zero numerator.
	KindInfinite
	// KindUnavailable means the stat cannot be computed for the query.
	KindUnavailable
)

// Value is the result of evaluating a stat.
type Value struct {
	Kind Kind
	Num  float64
	Text string
}

// Number returns a numeric value.
func Number(v float64) Value {
	return Value{Kind: KindNumber, Num: v}
}

// Record returns a record value.
func Record(text string) Value {
	return Value{Kind: KindRecord, Text: text}
}

// Infinite returns the infinite ratio value.
func Infinite() Value {
	return Value{Kind: KindInfinite, Num: math.Inf(1)}
}

// Unavailable returns the value for stats that cannot be computed.
func Unavailable() Value {
	return Value{Kind: KindUnavailable}
}

// Float returns the numeric value. Infinite values report +Inf.
func (v Value) Float() (float64, bool) {
	switch v.Kind {
	case KindNumber:
		return v.Num, true
	case KindInfinite:
		return math.Inf(1), true
	}
	return 0, false
}

// Format renders the value for display using spec for numbers.
func (v Value) Format(spec round.Spec) string {
	switch v.Kind {
	case KindRecord:
		return v.Text
	case KindInfinite:
		return "inf"
	case KindUnavailable:
		return "N/A"
	}
	return round.Format(v.Num, spec)
}

func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	case KindRecord:
		return v.Text
	case KindInfinite:
		return "inf"
	}
	return "unavailable"
}
