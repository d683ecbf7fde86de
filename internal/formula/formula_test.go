package formula

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func passingTable() *Table {
	t := NewTable(false)
	for _, name := range []string{"TD", "TD%", "TD/Int", "Int", "Att", "Yds", "Yds/G", "G", "Cmp", "2PM", "FGM:50+", "FGA:50+", "CAY-RAW", "Ttl TD", "0.5PPR"} {
		t.Add(name, name)
	}
	return t
}

func bindMap(values map[string]float64) Binder {
	return func(ident string) (float64, error) {
		v, ok := values[ident]
		if !ok {
			return 0, errors.New("unbound " + ident)
		}
		return v, nil
	}
}

func TestParseLongestMatch(t *testing.T) {
	cases := []struct {
		src    string
		idents []string
	}{
		{"TD / Int", []string{"TD", "Int"}},
		{"TD% * 2", []string{"TD%"}},
		{"TD/Int", []string{"TD/Int"}},
		{"Yds/G", []string{"Yds/G"}},
		{"Yds / G", []string{"Yds", "G"}},
		{"2 * 2PM", []string{"2PM"}},
		{"FGM:50+ / FGA:50+", []string{"FGM:50+", "FGA:50+"}},
		{"CAY-RAW / Cmp", []string{"CAY-RAW", "Cmp"}},
		{"(6 * Ttl TD)", []string{"Ttl TD"}},
		{"0.5PPR - 0.5", []string{"0.5PPR"}},
	}
	syms := passingTable()
	for _, tc := range cases {
		expr, err := Parse(tc.src, syms)
		require.NoError(t, err, tc.src)
		assert.Equal(t, tc.idents, expr.Idents(), tc.src)
	}
}

func TestParsePrecedence(t *testing.T) {
	expr, err := Parse("Yds + 20*(TD) - 45*Int / Att", passingTable())
	require.NoError(t, err)
	assert.Equal(t, "(([Yds] + (20 * [TD])) - ((45 * [Int]) / [Att]))", expr.String())

	v, err := expr.Eval(bindMap(map[string]float64{"Yds": 300, "TD": 2, "Int": 1, "Att": 45}))
	require.NoError(t, err)
	assert.InDelta(t, 339.0, v, 1e-9)
}

func TestParseUnaryMinus(t *testing.T) {
	expr, err := Parse("-TD - -2", passingTable())
	require.NoError(t, err)
	v, err := expr.Eval(bindMap(map[string]float64{"TD": 5}))
	require.NoError(t, err)
	assert.Equal(t, -3.0, v)
}

func TestEvalDivisionByZero(t *testing.T) {
	expr, err := Parse("TD / Int", passingTable())
	require.NoError(t, err)
	_, err = expr.Eval(bindMap(map[string]float64{"TD": 3, "Int": 0}))
	assert.ErrorIs(t, err, ErrDivisionByZero)

	_, err = expr.Eval(bindMap(map[string]float64{"TD": 0, "Int": 0}))
	assert.ErrorIs(t, err, ErrDivisionByZero)
}

func TestEvalPropagatesBinderError(t *testing.T) {
	expr, err := Parse("TD + Int", passingTable())
	require.NoError(t, err)
	_, err = expr.Eval(bindMap(map[string]float64{"TD": 1}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unbound Int")
}

func TestParseSyntaxErrors(t *testing.T) {
	cases := map[string]int{
		"":            0,
		"TD +":        4,
		"(TD":         3,
		"TD Int":      3,
		"Bogus / Att": 0,
		"TD ^ 2":      3,
		"TDx":         0,
		"2PMx":        0,
		"3abc":        0,
	}
	syms := passingTable()
	for src, pos := range cases {
		_, err := Parse(src, syms)
		var serr *SyntaxError
		require.ErrorAs(t, err, &serr, "%q", src)
		assert.Equal(t, pos, serr.Pos, "%q", src)
	}
}

func TestTableFoldsCase(t *testing.T) {
	syms := NewTable(true)
	syms.Add("Passing~Yds", "Passing~Yds")
	syms.Add("Yds", "Yds")
	syms.Add("total~TtlYds", "Era Adjusted Passing~TtlYds")

	expr, err := Parse("passing~yds / YDS + Total~ttlyds", syms)
	require.NoError(t, err)
	assert.Equal(t, []string{"Passing~Yds", "Yds", "Era Adjusted Passing~TtlYds"}, expr.Idents())
}

func TestTableFirstRegistrationWins(t *testing.T) {
	syms := NewTable(true)
	syms.Add("Rec", "Rec")
	syms.Add("REC", "REC")
	name, ok := syms.Lookup("rec")
	require.True(t, ok)
	assert.Equal(t, "Rec", name)
	assert.Equal(t, 1, syms.Len())
}
