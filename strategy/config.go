package strategy

import (
	"fmt"
	"time"

	"github.com/shaurya-ahuja/autoswing-trading-suite/grid"
	"github.com/shaurya-ahuja/autoswing-trading-suite/sim"
)

// Defaults mirror the simulated account the dashboard ships with.
const (
	DefaultStartingCash     = 10000.0
	DefaultPerLevelNotional = 100.0
	DefaultStaleAfter       = 90 * time.Second
	DefaultGrace            = 5 * time.Minute
	DefaultDCAPeriod        = 24 * time.Hour
)

// GridParams is the closed parameter set for a grid run.
type GridParams struct {
	LowerBound       float64      `yaml:"lower_bound" json:"lower_bound"`
	UpperBound       float64      `yaml:"upper_bound" json:"upper_bound"`
	Levels           int          `yaml:"levels" json:"levels"`
	PerLevelNotional float64      `yaml:"per_level_notional" json:"per_level_notional"`
	Spacing          grid.Spacing `yaml:"spacing" json:"spacing"`
}

// DCAParams is the closed parameter set for a DCA run.
type DCAParams struct {
	Intervals   int           `yaml:"intervals" json:"intervals"`
	TotalAmount float64       `yaml:"total_amount" json:"total_amount"`
	Period      time.Duration `yaml:"period" json:"period"`
}

// Config fully describes one strategy run. It is immutable once the run
// starts; changing parameters means stop and start with a new Config.
type Config struct {
	Symbol       string        `yaml:"symbol" json:"symbol"`
	Mode         sim.Mode      `yaml:"mode" json:"mode"`
	Grid         *GridParams   `yaml:"grid,omitempty" json:"grid,omitempty"`
	DCA          *DCAParams    `yaml:"dca,omitempty" json:"dca,omitempty"`
	StartingCash float64       `yaml:"starting_cash" json:"starting_cash"`
	StaleAfter   time.Duration `yaml:"stale_after" json:"stale_after"`
	Grace        time.Duration `yaml:"grace" json:"grace"`
	CreatedAt    time.Time     `yaml:"-" json:"created_at"`
}

// Validate surfaces configuration errors before the run ever transitions to
// RUNNING. Range and schedule errors come back as the typed errors the grid
// and dca packages define.
func (c *Config) Validate() error {
	if c.Symbol == "" {
		return fmt.Errorf("symbol is required")
	}
	if c.StartingCash <= 0 {
		return fmt.Errorf("starting cash must be positive")
	}

	switch c.Mode {
	case sim.ModeGrid:
		if c.Grid == nil {
			return fmt.Errorf("grid mode requires grid parameters")
		}
		if c.Grid.PerLevelNotional <= 0 {
			return fmt.Errorf("per-level notional must be positive")
		}
		// Build validates the range; throw the ladder away.
		if _, err := grid.Build(c.Grid.LowerBound, c.Grid.UpperBound, c.Grid.Levels, c.Grid.Spacing); err != nil {
			return err
		}
	case sim.ModeDCA:
		if c.DCA == nil {
			return fmt.Errorf("dca mode requires dca parameters")
		}
		if c.DCA.Intervals < 1 || c.DCA.TotalAmount <= 0 || c.DCA.Period <= 0 {
			return fmt.Errorf("dca requires positive intervals, amount and period")
		}
	default:
		return fmt.Errorf("unknown mode %q", c.Mode)
	}
	return nil
}

func (c *Config) withDefaults() {
	if c.StartingCash == 0 {
		c.StartingCash = DefaultStartingCash
	}
	if c.StaleAfter == 0 {
		c.StaleAfter = DefaultStaleAfter
	}
	if c.Grace == 0 {
		c.Grace = DefaultGrace
	}
	if c.Grid != nil {
		if c.Grid.PerLevelNotional == 0 {
			c.Grid.PerLevelNotional = DefaultPerLevelNotional
		}
		if c.Grid.Spacing == "" {
			c.Grid.Spacing = grid.SpacingArithmetic
		}
	}
	if c.DCA != nil && c.DCA.Period == 0 {
		c.DCA.Period = DefaultDCAPeriod
	}
}
