package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaurya-ahuja/autoswing-trading-suite/grid"
	"github.com/shaurya-ahuja/autoswing-trading-suite/sim"
)

func TestParseGridArgs(t *testing.T) {
	cfg, err := ParseGridArgs([]string{"btcusdt", "5", "30000", "40000"})
	require.NoError(t, err)

	assert.Equal(t, "BTCUSDT", cfg.Symbol)
	assert.Equal(t, sim.ModeGrid, cfg.Mode)
	require.NotNil(t, cfg.Grid)
	assert.Equal(t, 5, cfg.Grid.Levels)
	assert.Equal(t, 30000.0, cfg.Grid.LowerBound)
	assert.Equal(t, 40000.0, cfg.Grid.UpperBound)
	assert.Equal(t, DefaultPerLevelNotional, cfg.Grid.PerLevelNotional)
	assert.Equal(t, DefaultStartingCash, cfg.StartingCash)
	assert.Equal(t, grid.SpacingArithmetic, cfg.Grid.Spacing)
}

func TestParseGridArgsErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"too few args", []string{"BTCUSDT", "5", "30000"}},
		{"too many args", []string{"BTCUSDT", "5", "30000", "40000", "extra"}},
		{"levels not a number", []string{"BTCUSDT", "five", "30000", "40000"}},
		{"lower not a number", []string{"BTCUSDT", "5", "low", "40000"}},
		{"upper not a number", []string{"BTCUSDT", "5", "30000", "high"}},
		{"inverted range", []string{"BTCUSDT", "5", "40000", "30000"}},
		{"zero levels", []string{"BTCUSDT", "0", "30000", "40000"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseGridArgs(tt.args)
			assert.Error(t, err)
		})
	}
}

func TestParseGridArgsInvalidRangeIsTyped(t *testing.T) {
	_, err := ParseGridArgs([]string{"BTCUSDT", "5", "40000", "30000"})
	var rangeErr *grid.InvalidRangeError
	require.ErrorAs(t, err, &rangeErr)
	assert.Equal(t, 40000.0, rangeErr.Lower)
	assert.Equal(t, 30000.0, rangeErr.Upper)
}

func TestParseDCAArgs(t *testing.T) {
	cfg, err := ParseDCAArgs([]string{"ethusdt", "10", "1000"})
	require.NoError(t, err)

	assert.Equal(t, "ETHUSDT", cfg.Symbol)
	assert.Equal(t, sim.ModeDCA, cfg.Mode)
	require.NotNil(t, cfg.DCA)
	assert.Equal(t, 10, cfg.DCA.Intervals)
	assert.Equal(t, 1000.0, cfg.DCA.TotalAmount)
	assert.Equal(t, DefaultDCAPeriod, cfg.DCA.Period)
}

func TestParseDCAArgsWithPeriod(t *testing.T) {
	cfg, err := ParseDCAArgs([]string{"ETHUSDT", "4", "400", "1h"})
	require.NoError(t, err)
	assert.Equal(t, time.Hour, cfg.DCA.Period)
}

func TestParseDCAArgsErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"too few args", []string{"ETHUSDT", "10"}},
		{"intervals not a number", []string{"ETHUSDT", "ten", "1000"}},
		{"total not a number", []string{"ETHUSDT", "10", "lots"}},
		{"bad period", []string{"ETHUSDT", "10", "1000", "hourly"}},
		{"zero intervals", []string{"ETHUSDT", "0", "1000"}},
		{"negative total", []string{"ETHUSDT", "10", "-1000"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDCAArgs(tt.args)
			assert.Error(t, err)
		})
	}
}
