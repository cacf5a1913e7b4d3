package strategy

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shaurya-ahuja/autoswing-trading-suite/sim"
)

// ParseGridArgs builds a grid run Config from command arguments in the shape
// SYMBOL LEVELS LOWER UPPER, e.g. "BTCUSDT 5 30000 40000". Remaining
// parameters take defaults.
func ParseGridArgs(args []string) (Config, error) {
	if len(args) != 4 {
		return Config{}, fmt.Errorf("usage: grid SYMBOL LEVELS LOWER UPPER")
	}

	levels, err := strconv.Atoi(args[1])
	if err != nil {
		return Config{}, fmt.Errorf("levels %q: not a whole number", args[1])
	}
	lower, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return Config{}, fmt.Errorf("lower bound %q: not a number", args[2])
	}
	upper, err := strconv.ParseFloat(args[3], 64)
	if err != nil {
		return Config{}, fmt.Errorf("upper bound %q: not a number", args[3])
	}

	cfg := Config{
		Symbol: strings.ToUpper(args[0]),
		Mode:   sim.ModeGrid,
		Grid: &GridParams{
			LowerBound: lower,
			UpperBound: upper,
			Levels:     levels,
		},
	}
	cfg.withDefaults()
	return cfg, cfg.Validate()
}

// ParseDCAArgs builds a DCA run Config from command arguments in the shape
// SYMBOL INTERVALS TOTAL [PERIOD], e.g. "ETHUSDT 10 1000 24h". The period
// defaults to one installment per day.
func ParseDCAArgs(args []string) (Config, error) {
	if len(args) != 3 && len(args) != 4 {
		return Config{}, fmt.Errorf("usage: dca SYMBOL INTERVALS TOTAL [PERIOD]")
	}

	intervals, err := strconv.Atoi(args[1])
	if err != nil {
		return Config{}, fmt.Errorf("intervals %q: not a whole number", args[1])
	}
	total, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return Config{}, fmt.Errorf("total amount %q: not a number", args[2])
	}
	period := DefaultDCAPeriod
	if len(args) == 4 {
		period, err = time.ParseDuration(args[3])
		if err != nil {
			return Config{}, fmt.Errorf("period %q: %w", args[3], err)
		}
	}

	cfg := Config{
		Symbol: strings.ToUpper(args[0]),
		Mode:   sim.ModeDCA,
		DCA: &DCAParams{
			Intervals:   intervals,
			TotalAmount: total,
			Period:      period,
		},
	}
	cfg.withDefaults()
	return cfg, cfg.Validate()
}
