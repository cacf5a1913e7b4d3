package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete application configuration
type Config struct {
	Account AccountConfig `json:"account" yaml:"account"`
	Grid    *GridConfig   `json:"grid,omitempty" yaml:"grid,omitempty"`
	DCA     *DCAConfig    `json:"dca,omitempty" yaml:"dca,omitempty"`
	Feed    FeedConfig    `json:"feed" yaml:"feed"`
	Journal JournalConfig `json:"journal" yaml:"journal"`
	Log     LogConfig     `json:"log" yaml:"log"`
	Web     WebConfig     `json:"web" yaml:"web"`
}

// AccountConfig contains the simulated account initialization parameters
type AccountConfig struct {
	Symbol       string  `json:"symbol" yaml:"symbol"`
	StartingCash float64 `json:"starting_cash" yaml:"starting_cash"`
}

// GridConfig contains grid strategy parameters
type GridConfig struct {
	LowerBound       float64 `json:"lower_bound" yaml:"lower_bound"`
	UpperBound       float64 `json:"upper_bound" yaml:"upper_bound"`
	Levels           int     `json:"levels" yaml:"levels"`
	Spacing          string  `json:"spacing" yaml:"spacing"` // "arithmetic" or "geometric"
	PerLevelNotional float64 `json:"per_level_notional" yaml:"per_level_notional"`
}

// DCAConfig contains DCA strategy parameters
type DCAConfig struct {
	Intervals   int    `json:"intervals" yaml:"intervals"`
	TotalAmount float64 `json:"total_amount" yaml:"total_amount"`
	Period      string `json:"period" yaml:"period"` // e.g. "24h", "1h", "15m"
}

// ParsePeriod converts the period string to time.Duration
func (d DCAConfig) ParsePeriod() (time.Duration, error) {
	if d.Period == "" {
		return 24 * time.Hour, nil
	}
	return time.ParseDuration(d.Period)
}

// FeedConfig contains market data feed parameters
type FeedConfig struct {
	Kind       string `json:"kind" yaml:"kind"` // "binance" or "replay"
	URL        string `json:"url,omitempty" yaml:"url,omitempty"`
	Script     string `json:"script,omitempty" yaml:"script,omitempty"` // replay tick CSV

	StaleAfter string `json:"stale_after,omitempty" yaml:"stale_after,omitempty"`
	Grace      string `json:"grace,omitempty" yaml:"grace,omitempty"`
}

// ParseStaleAfter converts the staleness threshold to time.Duration
func (f FeedConfig) ParseStaleAfter() (time.Duration, error) {
	if f.StaleAfter == "" {
		return 90 * time.Second, nil
	}
	return time.ParseDuration(f.StaleAfter)
}

// ParseGrace converts the checkpoint grace window to time.Duration
func (f FeedConfig) ParseGrace() (time.Duration, error) {
	if f.Grace == "" {
		return 5 * time.Minute, nil
	}
	return time.ParseDuration(f.Grace)
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "csv", "sqlite" or "none"
	FillsFile  string `json:"fills_file,omitempty" yaml:"fills_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// LogConfig contains logging parameters
type LogConfig struct {
	Level      string `json:"level" yaml:"level"`
	Format     string `json:"format" yaml:"format"` // "text" or "json"
	Output     string `json:"output,omitempty" yaml:"output,omitempty"`
	MaxSize    int    `json:"max_size,omitempty" yaml:"max_size,omitempty"`
	MaxBackups int    `json:"max_backups,omitempty" yaml:"max_backups,omitempty"`
	MaxAge     int    `json:"max_age,omitempty" yaml:"max_age,omitempty"`
	Compress   bool   `json:"compress,omitempty" yaml:"compress,omitempty"`
}

// WebConfig contains the status server parameters
type WebConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Addr    string `json:"addr,omitempty" yaml:"addr,omitempty"`
}

// LoadFromFile loads configuration from a file (JSON or YAML based on content)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Account.Symbol == "" {
		return fmt.Errorf("account.symbol is required")
	}
	if c.Account.StartingCash <= 0 {
		return fmt.Errorf("account.starting_cash must be positive")
	}
	if c.Grid == nil && c.DCA == nil {
		return fmt.Errorf("at least one of grid or dca must be configured")
	}
	if c.Grid != nil {
		if c.Grid.Levels < 1 {
			return fmt.Errorf("grid.levels must be at least 1")
		}
		if c.Grid.LowerBound <= 0 || c.Grid.UpperBound <= c.Grid.LowerBound {
			return fmt.Errorf("grid bounds must satisfy 0 < lower_bound < upper_bound")
		}
		if c.Grid.Spacing != "" && c.Grid.Spacing != "arithmetic" && c.Grid.Spacing != "geometric" {
			return fmt.Errorf("grid.spacing must be 'arithmetic' or 'geometric'")
		}
		if c.Grid.PerLevelNotional <= 0 {
			return fmt.Errorf("grid.per_level_notional must be positive")
		}
	}
	if c.DCA != nil {
		if c.DCA.Intervals < 1 {
			return fmt.Errorf("dca.intervals must be at least 1")
		}
		if c.DCA.TotalAmount <= 0 {
			return fmt.Errorf("dca.total_amount must be positive")
		}
		if _, err := c.DCA.ParsePeriod(); err != nil {
			return fmt.Errorf("dca.period: %w", err)
		}
	}
	if c.Feed.Kind != "binance" && c.Feed.Kind != "replay" {
		return fmt.Errorf("feed.kind must be 'binance' or 'replay'")
	}
	if c.Feed.Kind == "replay" && c.Feed.Script == "" {
		return fmt.Errorf("feed.script required for replay feed")
	}
	if _, err := c.Feed.ParseStaleAfter(); err != nil {
		return fmt.Errorf("feed.stale_after: %w", err)
	}
	if _, err := c.Feed.ParseGrace(); err != nil {
		return fmt.Errorf("feed.grace: %w", err)
	}
	switch c.Journal.Type {
	case "csv":
		if c.Journal.FillsFile == "" || c.Journal.EquityFile == "" {
			return fmt.Errorf("journal fills_file and equity_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	case "none":
	default:
		return fmt.Errorf("journal.type must be 'csv', 'sqlite' or 'none'")
	}
	if c.Web.Enabled && c.Web.Addr == "" {
		return fmt.Errorf("web.addr required when the status server is enabled")
	}
	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			Symbol:       "BTCUSDT",
			StartingCash: 10000,
		},
		Grid: &GridConfig{
			LowerBound:       30000,
			UpperBound:       40000,
			Levels:           5,
			Spacing:          "arithmetic",
			PerLevelNotional: 100,
		},
		Feed: FeedConfig{
			Kind:       "binance",
			StaleAfter: "90s",
			Grace:      "5m",
		},
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "./autoswing.db",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Web: WebConfig{
			Enabled: true,
			Addr:    ":8080",
		},
	}
}
