package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketsim/internal/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeConfig(t, `
simulation:
  start: "2021-01-01"
  end: "2023-12-31"
  interval_days: 1
  lookback_days: 180
  initial_cash: 500000
  risk_free_rate: 0.03
market:
  preset: cn
provider:
  kind: local
  data_dir: ./data
cache:
  dsn: ":memory:"
strategies:
  - kind: rsi
    asset: "600519"
    period: 10
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	start, err := cfg.StartDate()
	require.NoError(t, err)
	assert.Equal(t, 2021, start.Year())
	assert.Equal(t, 24*time.Hour, cfg.Interval())
	assert.Equal(t, 180*24*time.Hour, cfg.Lookback())
	assert.Equal(t, 500_000.0, cfg.Simulation.InitialCash)
	assert.Equal(t, domain.CNMarket(), cfg.MarketConfig())

	require.Len(t, cfg.Strategies, 1)
	assert.Equal(t, "rsi", cfg.Strategies[0].Kind)
	assert.Equal(t, 10, cfg.Strategies[0].Period)
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
simulation:
  start: "2024-01-01"
  end: "2024-06-30"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Simulation.IntervalDays)
	assert.Equal(t, 1_000_000.0, cfg.Simulation.InitialCash)
	assert.Equal(t, "frictionless", cfg.Market.Preset)
	assert.Equal(t, "cryptocompare", cfg.Provider.Kind)
	assert.Equal(t, "marketsim.db", cfg.Cache.DSN)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_BadDateFails(t *testing.T) {
	path := writeConfig(t, `
simulation:
  start: "01/02/2024"
  end: "2024-06-30"
`)
	_, err := Load(path)
	assert.ErrorContains(t, err, "simulation.start")
}

func TestLoad_UnknownPresetFails(t *testing.T) {
	path := writeConfig(t, `
simulation:
  start: "2024-01-01"
  end: "2024-06-30"
market:
  preset: mars
`)
	_, err := Load(path)
	assert.ErrorContains(t, err, "unknown market preset")
}

func TestLoad_MissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_EnvOverridesLogLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	path := writeConfig(t, `
simulation:
  start: "2024-01-01"
  end: "2024-06-30"
log:
  level: info
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
}
