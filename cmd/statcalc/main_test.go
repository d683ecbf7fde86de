package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gh674055/sports-compare-bots/internal/config"
	"github.com/gh674055/sports-compare-bots/internal/model"
	"github.com/gh674055/sports-compare-bots/internal/registry"
)

func TestApplyConfigRespectsChangedFlags(t *testing.T) {
	var workers int
	cmd := &cobra.Command{Use: "x"}
	cmd.Flags().IntVar(&workers, "workers", 4, "")

	fromFile := 8
	applyIntConfig(cmd, "workers", &workers, &fromFile)
	assert.Equal(t, 8, workers)

	require.NoError(t, cmd.Flags().Set("workers", "2"))
	applyIntConfig(cmd, "workers", &workers, &fromFile)
	assert.Equal(t, 2, workers)

	applyIntConfig(cmd, "workers", &workers, nil)
	assert.Equal(t, 2, workers)
}

func TestDefaultConfigTemplateDecodes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644))

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	assert.Nil(t, cfg.Engine.Workers)
	assert.Nil(t, cfg.Log.Level)
}

func TestQueryFlagsFilter(t *testing.T) {
	f := queryFlags{granularity: "game", playoffs: "include", from: 2001, to: 2007}
	filter, err := f.filter("Tom Brady")
	require.NoError(t, err)
	assert.Equal(t, model.PeriodFilter{
		Subject:     "Tom Brady",
		Granularity: model.GranularityGame,
		Playoffs:    model.PlayoffsInclude,
		FromYear:    2001,
		ToYear:      2007,
	}, filter)

	f.playoffs = "sometimes"
	_, err = f.filter("Tom Brady")
	assert.Error(t, err)

	assert.Error(t, (&queryFlags{from: 2010, to: 2001}).validate())
	assert.NoError(t, (&queryFlags{from: 2010}).validate())
}

func TestSelectCategories(t *testing.T) {
	reg, err := registry.Load()
	require.NoError(t, err)

	subj := model.Subject{Totals: model.Period{Stats: map[string]map[string]float64{
		"Rushing": {"Rush": 10},
	}}}
	cats, err := selectCategories(reg, "", []model.Subject{subj})
	require.NoError(t, err)
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = c.Name
	}
	assert.Contains(t, names, "Rushing")
	assert.NotContains(t, names, "Passing")
	assert.NotContains(t, names, registry.SharedCategory)

	_, err = selectCategories(reg, "Curling", nil)
	assert.Error(t, err)
}

func TestSelectStats(t *testing.T) {
	reg, err := registry.Load()
	require.NoError(t, err)
	cat, ok := reg.Category("Passing")
	require.True(t, ok)

	all, err := selectStats(cat, nil)
	require.NoError(t, err)
	assert.Nil(t, all)

	picked, err := selectStats(cat, []string{"Rate", "Yds"})
	require.NoError(t, err)
	require.Len(t, picked, 2)
	assert.Equal(t, "Rate", picked[0].Name)

	_, err = selectStats(cat, []string{"Nope"})
	assert.Error(t, err)
}
