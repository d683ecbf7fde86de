package registry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gh674055/sports-compare-bots/internal/round"
)

func mustLoad(t *testing.T) *Registry {
	t.Helper()
	reg, err := Load()
	require.NoError(t, err)
	return reg
}

func TestLoadEmbeddedTable(t *testing.T) {
	reg := mustLoad(t)
	require.NotEmpty(t, reg.Categories())
	assert.Equal(t, "Passing", reg.Categories()[0].Name)

	for _, name := range []string{"Passing", "Rushing", "Receiving", "Defense", "Defense Per Game/Snap", "Shared", "Fantasy/Receiving", "Awards/Honors/Pass"} {
		_, ok := reg.Category(name)
		assert.True(t, ok, name)
	}
}

func TestDescriptorFields(t *testing.T) {
	reg := mustLoad(t)

	sk, ok := reg.Lookup("Passing", "Sk")
	require.True(t, ok)
	assert.False(t, sk.HigherIsBetter)
	assert.True(t, sk.Raw())
	assert.Equal(t, Since(1969), sk.Window.Season)
	assert.Equal(t, Since(1970), sk.Window.GameRegular)
	assert.False(t, sk.Window.Game.IsSet())

	cmpPct, ok := reg.Lookup("Passing", "Cmp%")
	require.True(t, ok)
	assert.Equal(t, round.PercentSpec, cmpPct.Round)
	assert.Equal(t, FormulaArithmetic, cmpPct.Formula.Kind)

	tdInt, ok := reg.Lookup("Passing", "TD/Int")
	require.True(t, ok)
	require.NotNil(t, tdInt.UndefinedRatioOf)
	assert.Equal(t, "Passing~TD", tdInt.UndefinedRatioOf.Key())
	assert.Equal(t, round.Decimals(2), tdInt.Round)

	att1D, ok := reg.Lookup("Passing", "Att1D")
	require.True(t, ok)
	assert.False(t, att1D.Display)
	assert.True(t, att1D.FirstDown)
	assert.True(t, att1D.SeasonSourced)
}

func TestOperandCategoryResolution(t *testing.T) {
	reg := mustLoad(t)

	solo, ok := reg.Lookup("Defense Per Game/Snap", "Solo")
	require.True(t, ok)
	assert.Equal(t, "Defense", solo.Source)
	require.Equal(t, FormulaArithmetic, solo.Formula.Kind)
	assert.Equal(t, "Defense~Solo", solo.Formula.Refs["Solo"].Key())
	assert.Equal(t, "Shared~G", solo.Formula.Refs["G"].Key())

	tdPer17, ok := reg.Lookup("Defense Per Game/Snap", "TD/17")
	require.True(t, ok)
	assert.Equal(t, "Defense~Ttl TD", tdPer17.Formula.Refs["Ttl TD"].Key())

	ppr, ok := reg.Lookup("Fantasy/Receiving", "0.5PPR")
	require.True(t, ok)
	assert.Equal(t, "Fantasy/Receiving~STD", ppr.Formula.Refs["STD"].Key())
	std := ppr.Formula.Refs["STD"]
	assert.Equal(t, "Receiving~TD", std.Formula.Refs["TD"].Key())
}

func TestSpecialFormulas(t *testing.T) {
	reg := mustLoad(t)

	rate, ok := reg.Lookup("Passing", "Rate")
	require.True(t, ok)
	assert.Equal(t, SpecialPasserRating, rate.Formula.Special)
	require.Len(t, rate.Formula.Args, 5)
	assert.Equal(t, "Passing~Cmp", rate.Formula.Args[0].Key())

	tnv, ok := reg.Lookup("Era Adjusted Passing", "Tnv")
	require.True(t, ok)
	assert.Equal(t, SpecialSumSince, tnv.Formula.Special)
	assert.Equal(t, 1994, tnv.Formula.Since)
	assert.Equal(t, "Rushing~FmbLst", tnv.Formula.Args[1].Key())

	tmW, ok := reg.Lookup("Shared", "TmW")
	require.True(t, ok)
	assert.Equal(t, SpecialTally, tmW.Formula.Special)
	assert.Equal(t, "W", tmW.Formula.Option)
	assert.Empty(t, tmW.Formula.Args)

	spread, ok := reg.Lookup("Fantasy/Rushing", "STD Median")
	require.True(t, ok)
	assert.Equal(t, SpecialPeriodSpread, spread.Formula.Special)
	assert.Equal(t, SpreadMedian, spread.Formula.Option)

	lng, ok := reg.Lookup("Advanced/Kicking", "Lng")
	require.True(t, ok)
	assert.Equal(t, FormulaMax, lng.Formula.Kind)
}

func TestDepsAreTransitive(t *testing.T) {
	reg := mustLoad(t)
	tdPerTnv, ok := reg.Lookup("Era Adjusted Passing", "TD/Tnv")
	require.True(t, ok)

	keys := map[string]bool{}
	for _, d := range tdPerTnv.Deps() {
		keys[d.Key()] = true
	}
	assert.True(t, keys["Era Adjusted Passing~Tnv"])
	assert.True(t, keys["Rushing~FmbLst"])
	assert.True(t, keys["Passing~TD"])
	assert.False(t, keys["Era Adjusted Passing~TD/Tnv"])
}

func TestEveryArithmeticRefIsBound(t *testing.T) {
	reg := mustLoad(t)
	for _, cat := range reg.Categories() {
		for _, d := range cat.Stats() {
			if d.Formula.Kind != FormulaArithmetic {
				continue
			}
			for _, id := range d.Formula.Expr.Idents() {
				assert.NotNil(t, d.Formula.Refs[id], "%s ident %q", d.Key(), id)
			}
		}
	}
}

func TestCustomSymbols(t *testing.T) {
	reg := mustLoad(t)
	syms := reg.CustomSymbols()

	name, ok := syms.Lookup("total~ttlyds")
	require.True(t, ok)
	assert.Equal(t, "Era Adjusted Passing~TtlYds", name)

	name, ok = syms.Lookup("scrimmage~yds")
	require.True(t, ok)
	assert.Equal(t, "Scrimmage/All Purpose~Yds", name)

	name, ok = syms.Lookup("ANY/A")
	require.True(t, ok)
	assert.Equal(t, "ANY/A", name)
}

const miniTable = `
[[category]]
name = "Passing"
stats = [
  { name = "Att" },
  { name = "Yds" },
  { name = "Y/A", round = 2, formula = "Yds / Att" },
]

[[category]]
name = "Shared"
stats = [{ name = "G" }]
`

func TestParseMiniTable(t *testing.T) {
	reg, err := Parse([]byte(miniTable))
	require.NoError(t, err)
	ya, ok := reg.Lookup("Passing", "Y/A")
	require.True(t, ok)
	assert.True(t, ya.HigherIsBetter)
	assert.True(t, ya.Display)
	assert.Len(t, ya.Deps(), 2)
}

func TestParseConfigErrors(t *testing.T) {
	cases := map[string]string{
		"unknown ref": `
[[category]]
name = "Passing"
stats = [{ name = "Y/A", formula = "Yds / Att" }]`,
		"unknown special": `
[[category]]
name = "Passing"
stats = [{ name = "Rate", special = "qbr" }]`,
		"cycle": `
[[category]]
name = "Passing"
stats = [{ name = "A", formula = "B + 1" }, { name = "B", formula = "A + 1" }]`,
		"bad window": `
[[category]]
name = "Passing"
stats = [{ name = "Sk", valid = { seasn = 1969 } }]`,
		"bad round": `
[[category]]
name = "Passing"
stats = [{ name = "Sk", round = "half" }]`,
		"unknown operands": `
[[category]]
name = "Fantasy/Passing"
operands = "Passing"
stats = [{ name = "STD" }]`,
		"bad arity": `
[[category]]
name = "Passing"
stats = [{ name = "Att" }, { name = "Rate", special = "passer-rating", args = ["Att"] }]`,
		"duplicate stat": `
[[category]]
name = "Passing"
stats = [{ name = "Att" }, { name = "Att" }]`,
	}
	for name, table := range cases {
		_, err := Parse([]byte(table))
		var cerr *ConfigError
		assert.True(t, errors.As(err, &cerr), "%s: got %v", name, err)
	}
}

func TestCutoff(t *testing.T) {
	var unset Cutoff
	assert.False(t, unset.IsSet())
	assert.False(t, unset.Excludes(1900))

	c := Since(1969)
	assert.True(t, c.Excludes(1968))
	assert.False(t, c.Excludes(1969))
	assert.Equal(t, 1969, c.Year())

	n := Never()
	assert.True(t, n.IsNever())
	assert.True(t, n.Excludes(3000))
	assert.Equal(t, "never", n.String())
}
