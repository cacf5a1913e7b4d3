package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "autoswing",
	Short: "A simulated grid and DCA trading engine for crypto spot markets",
	Long: `Autoswing runs grid and dollar-cost-averaging strategies against live or
replayed market data, with every order simulated against a virtual ledger.

It provides tools for:
  - Grid trading with arithmetic or geometric level spacing
  - Scheduled DCA installments with exact total accounting
  - A journaled fill and equity history in SQLite or CSV
  - A JSON status API for dashboards
  - Replayable tick scripts for repeatable simulations

No real orders are ever placed.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
