package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "BTCUSDT", cfg.Account.Symbol)
	assert.Equal(t, 10000.0, cfg.Account.StartingCash)
	assert.Equal(t, 100.0, cfg.Grid.PerLevelNotional)
}

func TestLoadFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
account:
  symbol: ETHUSDT
  starting_cash: 5000
grid:
  lower_bound: 1500
  upper_bound: 2500
  levels: 10
  spacing: geometric
  per_level_notional: 50
feed:
  kind: replay
  script: ./ticks.csv
  stale_after: 2m
journal:
  type: none
log:
  level: debug
  format: json
web:
  enabled: false
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ETHUSDT", cfg.Account.Symbol)
	assert.Equal(t, 5000.0, cfg.Account.StartingCash)
	assert.Equal(t, "geometric", cfg.Grid.Spacing)
	assert.Equal(t, "replay", cfg.Feed.Kind)
	assert.Equal(t, "debug", cfg.Log.Level)

	staleAfter, err := cfg.Feed.ParseStaleAfter()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, staleAfter)
}

func TestLoadFromJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{
  "account": {"symbol": "BTCUSDT", "starting_cash": 10000},
  "dca": {"intervals": 10, "total_amount": 1000, "period": "1h"},
  "grid": null,
  "feed": {"kind": "binance"},
  "journal": {"type": "sqlite", "db_path": "/tmp/test.db"}
}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.DCA)
	assert.Equal(t, 10, cfg.DCA.Intervals)

	period, err := cfg.DCA.ParsePeriod()
	require.NoError(t, err)
	assert.Equal(t, time.Hour, period)
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing symbol", func(c *Config) { c.Account.Symbol = "" }},
		{"zero cash", func(c *Config) { c.Account.StartingCash = 0 }},
		{"no strategy", func(c *Config) { c.Grid = nil; c.DCA = nil }},
		{"inverted grid bounds", func(c *Config) { c.Grid.LowerBound = 40000; c.Grid.UpperBound = 30000 }},
		{"zero levels", func(c *Config) { c.Grid.Levels = 0 }},
		{"bad spacing", func(c *Config) { c.Grid.Spacing = "logarithmic" }},
		{"zero notional", func(c *Config) { c.Grid.PerLevelNotional = 0 }},
		{"unknown feed", func(c *Config) { c.Feed.Kind = "kraken" }},
		{"replay without script", func(c *Config) { c.Feed = FeedConfig{Kind: "replay"} }},
		{"bad stale duration", func(c *Config) { c.Feed.StaleAfter = "ninety seconds" }},
		{"csv without files", func(c *Config) { c.Journal = JournalConfig{Type: "csv"} }},
		{"sqlite without path", func(c *Config) { c.Journal = JournalConfig{Type: "sqlite"} }},
		{"web without addr", func(c *Config) { c.Web = WebConfig{Enabled: true} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.Account.Symbol = "SOLUSDT"

	for _, name := range []string{"config.yaml", "config.json"} {
		path := filepath.Join(dir, name)
		require.NoError(t, cfg.SaveToFile(path))

		loaded, err := LoadFromFile(path)
		require.NoError(t, err)
		assert.Equal(t, cfg.Account, loaded.Account)
		assert.Equal(t, cfg.Grid, loaded.Grid)
		assert.Equal(t, cfg.Journal, loaded.Journal)
	}
}

func TestDCADefaultPeriod(t *testing.T) {
	d := DCAConfig{Intervals: 5, TotalAmount: 500}
	period, err := d.ParsePeriod()
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, period)
}
